package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-user-service/internal/domain"
	"go-user-service/internal/repo"
	"go-user-service/pkg/utils"
)

// ErrInvalidCredentials is returned by Authenticate for a wrong email or
// password; callers must not learn which.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserService orchestrates the user aggregate: it opens one unit of work per
// call, runs the uniqueness pre-checks, drives the aggregate's operations and
// commits. Every method is safe for concurrent use; scopes never share a
// transaction handle.
type UserService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewUserService(db *gorm.DB, log *zap.Logger) *UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserService{db: db, log: log}
}

func (s *UserService) scope() (*repo.UnitOfWork, *repo.UserRepo) {
	uow := repo.NewUnitOfWork(s.db, s.log)
	return uow, repo.NewUserRepo(uow)
}

type CreateUserInput struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password  string
}

// CreateUser builds and persists a new aggregate. Username and email are
// pre-checked against visible users; the storage constraint stays the
// authority, so a lost race comes back as the same ValidationError.
func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	uow, users := s.scope()
	defer uow.Close()

	if strings.TrimSpace(in.Password) == "" {
		return nil, &domain.ValidationError{Kind: domain.InvalidPasswordHash, Message: "is required"}
	}
	if taken, err := users.ExistsByUsername(ctx, strings.TrimSpace(in.Username)); err != nil {
		return nil, err
	} else if taken {
		return nil, &domain.ValidationError{Kind: domain.InvalidUsername, Message: "is already taken"}
	}
	if taken, err := users.ExistsByEmail(ctx, strings.TrimSpace(in.Email)); err != nil {
		return nil, err
	} else if taken {
		return nil, &domain.ValidationError{Kind: domain.InvalidEmail, Message: "is already taken"}
	}

	u, err := domain.NewUser(in.Username, in.Email, in.FirstName, in.LastName, utils.HashPassword(in.Password))
	if err != nil {
		return nil, err
	}
	users.Add(u)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return nil, err
	}
	s.log.Info("user created", zap.String("id", u.ID()), zap.String("username", u.Username()))
	return u, nil
}

// GetUser returns the visible user or ErrNotFound.
func (s *UserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	_, users := s.scope()
	return found(users.GetByID(ctx, id))
}

func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	_, users := s.scope()
	return found(users.GetByUsername(ctx, username))
}

// ListUsers returns a page of visible users, newest first, plus the total.
func (s *UserService) ListUsers(ctx context.Context, offset, limit int) ([]*domain.User, int64, error) {
	_, users := s.scope()
	return users.List(ctx, offset, clampLimit(limit), false)
}

// UpdateProfile replaces the user's first and last name.
func (s *UserService) UpdateProfile(ctx context.Context, id, firstName, lastName string) (*domain.User, error) {
	return s.mutate(ctx, id, func(u *domain.User) error {
		return u.UpdateProfile(firstName, lastName)
	})
}

// UpdateEmail changes the address after checking it is not already in use by
// another visible user.
func (s *UserService) UpdateEmail(ctx context.Context, id, email string) (*domain.User, error) {
	uow, users := s.scope()
	defer uow.Close()

	u, err := found(users.GetByID(ctx, id))
	if err != nil {
		return nil, err
	}
	if owner, err := users.GetByEmail(ctx, strings.TrimSpace(email)); err != nil {
		return nil, err
	} else if owner != nil && owner.ID() != id {
		return nil, &domain.ValidationError{Kind: domain.InvalidEmail, Message: "is already taken"}
	}
	if err := u.UpdateEmail(email); err != nil {
		return nil, err
	}
	users.Update(u)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return nil, err
	}
	return u, nil
}

// ChangePassword hashes the raw password and hands the aggregate the hash.
func (s *UserService) ChangePassword(ctx context.Context, id, password string) error {
	if strings.TrimSpace(password) == "" {
		return &domain.ValidationError{Kind: domain.InvalidPasswordHash, Message: "is required"}
	}
	_, err := s.mutate(ctx, id, func(u *domain.User) error {
		return u.UpdatePassword(utils.HashPassword(password))
	})
	return err
}

// SetActive activates or deactivates the account. The transition is
// idempotent: asking for the current state commits nothing.
func (s *UserService) SetActive(ctx context.Context, id string, active bool) (*domain.User, error) {
	uow, users := s.scope()
	defer uow.Close()

	u, err := found(users.GetByID(ctx, id))
	if err != nil {
		return nil, err
	}
	var changed bool
	if active {
		changed = u.Activate()
	} else {
		changed = u.Deactivate()
	}
	if !changed {
		return u, nil
	}
	users.Update(u)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return nil, err
	}
	return u, nil
}

// DeleteUser soft-deletes the user. Absent or already-deleted ids report
// ErrNotFound so the surface can answer 404.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	uow, users := s.scope()
	defer uow.Close()

	u, err := found(users.GetByID(ctx, id))
	if err != nil {
		return err
	}
	users.Delete(u)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return err
	}
	s.log.Info("user deleted", zap.String("id", id))
	return nil
}

// Authenticate verifies an email/password pair against a visible, active
// account.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	_, users := s.scope()
	u, err := users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	if u == nil || !u.IsActive() || !utils.CheckPassword(password, u.PasswordHash()) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// AdminGetUser bypasses soft-delete visibility. Admin tooling only.
func (s *UserService) AdminGetUser(ctx context.Context, id string) (*domain.User, error) {
	_, users := s.scope()
	return found(users.GetByIDAny(ctx, id))
}

// AdminListUsers optionally includes soft-deleted rows.
func (s *UserService) AdminListUsers(ctx context.Context, offset, limit int, withDeleted bool) ([]*domain.User, int64, error) {
	_, users := s.scope()
	return users.List(ctx, offset, clampLimit(limit), withDeleted)
}

// mutate is the load-mutate-stage-commit cycle shared by the single-field
// operations.
func (s *UserService) mutate(ctx context.Context, id string, op func(*domain.User) error) (*domain.User, error) {
	uow, users := s.scope()
	defer uow.Close()

	u, err := found(users.GetByID(ctx, id))
	if err != nil {
		return nil, err
	}
	if err := op(u); err != nil {
		return nil, err
	}
	users.Update(u)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return nil, err
	}
	return u, nil
}

func found(u *domain.User, err error) (*domain.User, error) {
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 20
	}
	return limit
}
