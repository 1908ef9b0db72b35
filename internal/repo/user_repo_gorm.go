package repo

import (
	"context"
	"strings"

	"go-user-service/internal/domain"
)

// UserRepo persists User aggregates. It composes the generic base with the
// username/email lookups the user module needs. Reads exclude soft-deleted
// rows unless the method name says otherwise; writes are staged on the unit
// of work and hit storage at SaveChanges.
type UserRepo struct {
	base *Base[UserRecord]
}

func NewUserRepo(uow *UnitOfWork) *UserRepo {
	return &UserRepo{base: NewBase[UserRecord](uow, "user", translateUserConstraint)}
}

// GetByID returns the non-deleted user with the given id, or nil.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.toUser(r.base.GetByID(ctx, id))
}

// GetByIDAny also sees soft-deleted users. Admin tooling only.
func (r *UserRepo) GetByIDAny(ctx context.Context, id string) (*domain.User, error) {
	return r.toUser(r.base.GetByIDAny(ctx, id))
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.toUser(r.base.One(ctx, "username = ?", username))
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.toUser(r.base.One(ctx, "email = ?", email))
}

// GetAll returns every non-deleted user, order unspecified.
func (r *UserRepo) GetAll(ctx context.Context) ([]*domain.User, error) {
	recs, err := r.base.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return toUsers(recs), nil
}

// List returns a page of users plus the total count, newest first.
// withDeleted widens the page to soft-deleted rows for the admin surface.
func (r *UserRepo) List(ctx context.Context, offset, limit int, withDeleted bool) ([]*domain.User, int64, error) {
	recs, total, err := r.base.List(ctx, offset, limit, withDeleted)
	if err != nil {
		return nil, 0, err
	}
	return toUsers(recs), total, nil
}

func (r *UserRepo) Exists(ctx context.Context, id string) (bool, error) {
	return r.base.Any(ctx, "id = ?", id)
}

// ExistsByUsername and ExistsByEmail are the advisory uniqueness pre-checks;
// the partial unique indexes remain the authority under concurrent creates.
func (r *UserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.base.Any(ctx, "username = ?", username)
}

func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.base.Any(ctx, "email = ?", email)
}

// Add stages the insertion of a freshly constructed aggregate.
func (r *UserRepo) Add(u *domain.User) {
	r.base.Add(userToRecord(u))
}

// Update stages a replacement of the user's mutable fields, guarded by the
// version the aggregate was loaded at.
func (r *UserRepo) Update(u *domain.User) {
	r.base.Update(userToRecord(u))
}

// Delete marks the aggregate deleted and stages the update. Already-deleted
// aggregates stage nothing.
func (r *UserRepo) Delete(u *domain.User) {
	if u.MarkAsDeleted() {
		r.base.Update(userToRecord(u))
	}
}

// DeleteByID soft-deletes the user with the given id. A missing or
// already-deleted user is a silent no-op, not an error.
func (r *UserRepo) DeleteByID(ctx context.Context, id string) error {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if u == nil {
		return nil
	}
	r.Delete(u)
	return nil
}

func (r *UserRepo) toUser(rec *UserRecord, err error) (*domain.User, error) {
	if err != nil || rec == nil {
		return nil, err
	}
	return rec.toDomain(), nil
}

func toUsers(recs []UserRecord) []*domain.User {
	users := make([]*domain.User, 0, len(recs))
	for _, rec := range recs {
		users = append(users, rec.toDomain())
	}
	return users
}

// translateUserConstraint maps a unique-violation on one of the users indexes
// back onto the same ValidationError a pre-check would have produced, so
// callers cannot tell "pre-check caught it" from "race lost at commit".
func translateUserConstraint(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "username"):
		return &domain.ValidationError{Kind: domain.InvalidUsername, Message: "is already taken"}
	case strings.Contains(msg, "email"):
		return &domain.ValidationError{Kind: domain.InvalidEmail, Message: "is already taken"}
	}
	return nil
}
