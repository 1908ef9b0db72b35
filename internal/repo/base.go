package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"go-user-service/internal/domain"
)

// Base is a generic repository over one record type. Reads run on the current
// session (the open transaction when there is one); writes are staged on the
// unit of work and only touch storage at SaveChanges. Default visibility
// excludes soft-deleted rows.
type Base[R Record] struct {
	uow    *UnitOfWork
	entity string
	// translate maps a duplicate-key error onto a domain error (nil to keep
	// the raw PersistenceError).
	translate func(error) error
}

func NewBase[R Record](uow *UnitOfWork, entity string, translate func(error) error) *Base[R] {
	return &Base[R]{uow: uow, entity: entity, translate: translate}
}

// GetByID returns the visible record with the given id, or nil when absent.
func (b *Base[R]) GetByID(ctx context.Context, id string) (*R, error) {
	return b.One(ctx, "id = ?", id)
}

// GetByIDAny looks the record up regardless of the soft-delete flag. Admin
// tooling only; everything else goes through GetByID.
func (b *Base[R]) GetByIDAny(ctx context.Context, id string) (*R, error) {
	var rec R
	err := b.uow.session(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, b.fail("query", err)
	}
	return &rec, nil
}

// One returns the first visible record matching the condition, or nil.
func (b *Base[R]) One(ctx context.Context, cond string, args ...any) (*R, error) {
	var rec R
	err := b.uow.session(ctx).
		Where("is_deleted = ?", false).
		Where(cond, args...).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, b.fail("query", err)
	}
	return &rec, nil
}

// Any reports whether a visible record matches the condition.
func (b *Base[R]) Any(ctx context.Context, cond string, args ...any) (bool, error) {
	var n int64
	err := b.uow.session(ctx).
		Model(new(R)).
		Where("is_deleted = ?", false).
		Where(cond, args...).
		Count(&n).Error
	if err != nil {
		return false, b.fail("count", err)
	}
	return n > 0, nil
}

// GetAll returns every visible record. Order unspecified.
func (b *Base[R]) GetAll(ctx context.Context) ([]R, error) {
	var recs []R
	err := b.uow.session(ctx).Where("is_deleted = ?", false).Find(&recs).Error
	if err != nil {
		return nil, b.fail("list", err)
	}
	return recs, nil
}

// List returns a page of records plus the total count, newest first.
// withDeleted widens visibility to soft-deleted rows (admin listing).
func (b *Base[R]) List(ctx context.Context, offset, limit int, withDeleted bool) ([]R, int64, error) {
	q := b.uow.session(ctx).Model(new(R))
	if !withDeleted {
		q = q.Where("is_deleted = ?", false)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, b.fail("count", err)
	}
	var recs []R
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&recs).Error; err != nil {
		return nil, 0, b.fail("list", err)
	}
	return recs, total, nil
}

// Add stages an insert. The record must carry a fresh id.
func (b *Base[R]) Add(rec R) {
	b.uow.stage(change{apply: func(tx *gorm.DB) (int64, error) {
		res := tx.Create(&rec)
		if res.Error != nil {
			return 0, b.fail("insert", res.Error)
		}
		return res.RowsAffected, nil
	}})
}

// Update stages a full-row replacement guarded by a compare-and-swap on the
// version column. At commit time: a row that no longer matches the staged
// version but still exists was changed by another scope (conflict); a row
// that is gone entirely makes the update a silent no-op.
func (b *Base[R]) Update(rec R) {
	b.uow.stage(change{apply: func(tx *gorm.DB) (int64, error) {
		cols := rec.Columns()
		cols["version"] = rec.RowVersion() + 1
		res := tx.Model(new(R)).
			Where("id = ? AND version = ?", rec.PrimaryKey(), rec.RowVersion()).
			Updates(cols)
		if res.Error != nil {
			return 0, b.fail("update", res.Error)
		}
		if res.RowsAffected == 0 {
			var n int64
			if err := tx.Model(new(R)).Where("id = ?", rec.PrimaryKey()).Count(&n).Error; err != nil {
				return 0, b.fail("update", err)
			}
			if n > 0 {
				return 0, &domain.ConcurrencyError{Entity: b.entity, ID: rec.PrimaryKey()}
			}
			return 0, nil
		}
		return res.RowsAffected, nil
	}})
}

func (b *Base[R]) fail(op string, err error) error {
	if isDupKey(err) && b.translate != nil {
		if terr := b.translate(err); terr != nil {
			return terr
		}
	}
	return &domain.PersistenceError{Op: op + " " + b.entity, Err: err}
}

// isDupKey sniffs driver-specific unique-violation errors; GORM only
// normalizes them behind the TranslateError option, which we don't rely on.
func isDupKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation") ||
		strings.Contains(msg, "duplicate key")
}
