package repo

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-user-service/internal/domain"
)

// change is one staged mutation. apply runs inside the commit transaction and
// reports the rows it affected.
type change struct {
	apply func(tx *gorm.DB) (int64, error)
}

// UnitOfWork batches staged repository mutations into a single atomic commit
// and scopes an optional explicit transaction across several SaveChanges
// calls. One instance per logical request; the instance owns its transaction
// handle exclusively.
type UnitOfWork struct {
	db  *gorm.DB
	log *zap.Logger

	mu      sync.Mutex
	pending []change
	tx      *gorm.DB
}

func NewUnitOfWork(db *gorm.DB, log *zap.Logger) *UnitOfWork {
	if log == nil {
		log = zap.NewNop()
	}
	return &UnitOfWork{db: db, log: log}
}

// session is the handle reads run on: the open transaction when there is one,
// the pooled connection otherwise.
func (u *UnitOfWork) session(ctx context.Context) *gorm.DB {
	u.mu.Lock()
	tx := u.tx
	u.mu.Unlock()
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return u.db.WithContext(ctx)
}

func (u *UnitOfWork) stage(c change) {
	u.mu.Lock()
	u.pending = append(u.pending, c)
	u.mu.Unlock()
}

// Pending reports the number of staged, uncommitted changes.
func (u *UnitOfWork) Pending() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.pending)
}

// SaveChanges applies every staged mutation atomically and returns the number
// of affected rows. A version mismatch surfaces as ConcurrencyError, anything
// else as PersistenceError (or the field-level translation of a uniqueness
// violation); on any failure no subset of the changes is applied and the
// changes stay staged. Inside an explicit transaction the flush runs under a
// savepoint, so a failure does not poison the outer transaction.
func (u *UnitOfWork) SaveChanges(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	u.mu.Lock()
	pending := append([]change(nil), u.pending...)
	tx := u.tx
	u.mu.Unlock()
	if len(pending) == 0 {
		return 0, nil
	}

	var total int64
	run := func(h *gorm.DB) error {
		for _, c := range pending {
			n, err := c.apply(h)
			if err != nil {
				return err
			}
			total += n
		}
		return nil
	}

	var err error
	if tx != nil {
		err = tx.WithContext(ctx).Transaction(run)
	} else {
		err = u.db.WithContext(ctx).Transaction(run)
	}
	if err != nil {
		return 0, err
	}

	u.mu.Lock()
	u.pending = nil
	u.mu.Unlock()
	u.log.Debug("changes flushed", zap.Int64("rows", total))
	return int(total), nil
}

// BeginTransaction opens an explicit transaction scope for sequences that
// must be all-or-nothing across multiple SaveChanges calls.
func (u *UnitOfWork) BeginTransaction(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.tx != nil {
		return &domain.PersistenceError{Op: "begin transaction", Err: gorm.ErrInvalidTransaction}
	}
	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return &domain.PersistenceError{Op: "begin transaction", Err: tx.Error}
	}
	u.tx = tx
	return nil
}

// CommitTransaction flushes staged changes, then commits. If the flush fails
// the transaction is rolled back and the error returned; the handle is
// released on every path. Without an open transaction it degrades to a plain
// SaveChanges.
func (u *UnitOfWork) CommitTransaction(ctx context.Context) error {
	u.mu.Lock()
	tx := u.tx
	u.mu.Unlock()
	if tx == nil {
		_, err := u.SaveChanges(ctx)
		return err
	}

	if _, err := u.SaveChanges(ctx); err != nil {
		u.RollbackTransaction(ctx)
		return err
	}

	u.mu.Lock()
	u.tx = nil
	u.mu.Unlock()
	if err := tx.Commit().Error; err != nil {
		_ = tx.Rollback()
		return &domain.PersistenceError{Op: "commit transaction", Err: err}
	}
	return nil
}

// RollbackTransaction discards everything staged since BeginTransaction and
// releases the transaction handle. No-op when no transaction is open.
func (u *UnitOfWork) RollbackTransaction(ctx context.Context) {
	u.mu.Lock()
	tx := u.tx
	u.tx = nil
	if tx != nil {
		u.pending = nil
	}
	u.mu.Unlock()
	if tx != nil {
		if err := tx.WithContext(ctx).Rollback().Error; err != nil {
			u.log.Warn("rollback failed", zap.Error(err))
		}
	}
}

// Close releases any transaction still open. Meant for defer so a scope can
// never leak its handle on an early return.
func (u *UnitOfWork) Close() {
	u.RollbackTransaction(context.Background())
}
