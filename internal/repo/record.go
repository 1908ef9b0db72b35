package repo

import (
	"time"

	"go-user-service/internal/domain"
)

// Record is implemented by row types the generic base repository can handle.
type Record interface {
	PrimaryKey() string
	RowVersion() int64
	// Columns returns the mutable columns written on update. id, created_at
	// and version are never part of the map.
	Columns() map[string]any
}

// UserRecord is the storage shape of domain.User. Uniqueness of username and
// email is enforced by partial indexes that ignore soft-deleted rows, so a
// deleted user's username/email can be reused. The version column backs the
// optimistic-concurrency check in the unit of work.
type UserRecord struct {
	ID           string     `gorm:"primaryKey;size:36"`
	Username     string     `gorm:"size:50;not null;uniqueIndex:uniq_users_username,where:is_deleted = false"`
	Email        string     `gorm:"size:100;not null;uniqueIndex:uniq_users_email,where:is_deleted = false"`
	FirstName    string     `gorm:"size:100;not null"`
	LastName     string     `gorm:"size:100;not null"`
	PasswordHash string     `gorm:"size:191;not null"`
	IsActive     bool       `gorm:"not null"`
	IsDeleted    bool       `gorm:"not null;index"`
	Version      int64      `gorm:"not null"`
	CreatedAt    time.Time  `gorm:"not null;autoCreateTime:false"`
	UpdatedAt    *time.Time `gorm:"autoUpdateTime:false"` // owned by the aggregate, not the ORM
}

func (UserRecord) TableName() string { return "users" }

func (r UserRecord) PrimaryKey() string { return r.ID }
func (r UserRecord) RowVersion() int64  { return r.Version }

func (r UserRecord) Columns() map[string]any {
	return map[string]any{
		"username":      r.Username,
		"email":         r.Email,
		"first_name":    r.FirstName,
		"last_name":     r.LastName,
		"password_hash": r.PasswordHash,
		"is_active":     r.IsActive,
		"is_deleted":    r.IsDeleted,
		"updated_at":    r.UpdatedAt,
	}
}

func userToRecord(u *domain.User) UserRecord {
	s := u.State()
	return UserRecord{
		ID:           s.ID,
		Username:     s.Username,
		Email:        s.Email,
		FirstName:    s.FirstName,
		LastName:     s.LastName,
		PasswordHash: s.PasswordHash,
		IsActive:     s.IsActive,
		IsDeleted:    s.IsDeleted,
		Version:      s.Version,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

func (r UserRecord) toDomain() *domain.User {
	return domain.UserFromState(domain.UserState{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		PasswordHash: r.PasswordHash,
		IsActive:     r.IsActive,
		IsDeleted:    r.IsDeleted,
		Version:      r.Version,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	})
}
