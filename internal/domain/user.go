package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// userFields mirrors the aggregate's validated fields. Field order matters:
// the validator reports violations in declaration order, and the constructor
// surfaces only the first one.
type userFields struct {
	Username     string `validate:"required,min=3,max=50"`
	Email        string `validate:"required,email"`
	FirstName    string `validate:"required,max=100"`
	LastName     string `validate:"required,max=100"`
	PasswordHash string `validate:"required"`
}

// User is the aggregate root for an account. All state transitions go through
// the named operations below; there is no external field assignment.
type User struct {
	Entity
	username     string
	email        string
	firstName    string
	lastName     string
	passwordHash string
	isActive     bool
}

// NewUser validates every field and returns a fresh aggregate: new id,
// createdAt set once, active, not deleted, updatedAt unset.
func NewUser(username, email, firstName, lastName, passwordHash string) (*User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)

	if err := checkFields(userFields{
		Username:     username,
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: strings.TrimSpace(passwordHash),
	}); err != nil {
		return nil, err
	}

	return &User{
		Entity:       newEntity(),
		username:     username,
		email:        email,
		firstName:    firstName,
		lastName:     lastName,
		passwordHash: passwordHash,
		isActive:     true,
	}, nil
}

func (u *User) Username() string     { return u.username }
func (u *User) Email() string        { return u.email }
func (u *User) FirstName() string    { return u.firstName }
func (u *User) LastName() string     { return u.lastName }
func (u *User) PasswordHash() string { return u.passwordHash }
func (u *User) IsActive() bool       { return u.isActive }

// UpdateProfile replaces first and last name. Invalid input leaves the
// aggregate untouched.
func (u *User) UpdateProfile(firstName, lastName string) error {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if err := checkVar(firstName, "required,max=100", InvalidFirstName); err != nil {
		return err
	}
	if err := checkVar(lastName, "required,max=100", InvalidLastName); err != nil {
		return err
	}
	u.firstName = firstName
	u.lastName = lastName
	u.touch()
	return nil
}

// UpdateEmail replaces the email address after re-validating it.
func (u *User) UpdateEmail(email string) error {
	email = strings.TrimSpace(email)
	if err := checkVar(email, "required,email", InvalidEmail); err != nil {
		return err
	}
	u.email = email
	u.touch()
	return nil
}

// UpdatePassword replaces the stored hash. The raw password never reaches the
// aggregate.
func (u *User) UpdatePassword(passwordHash string) error {
	if err := checkVar(strings.TrimSpace(passwordHash), "required", InvalidPasswordHash); err != nil {
		return err
	}
	u.passwordHash = passwordHash
	u.touch()
	return nil
}

// Activate enables the account. No-op when already active.
func (u *User) Activate() bool {
	if u.isActive {
		return false
	}
	u.isActive = true
	u.touch()
	return true
}

// Deactivate disables the account. No-op when already inactive.
func (u *User) Deactivate() bool {
	if !u.isActive {
		return false
	}
	u.isActive = false
	u.touch()
	return true
}

// UserState is the persistence-facing snapshot of an aggregate. It exists so
// the repository can map to and from storage records without the aggregate
// exposing setters.
type UserState struct {
	ID           string
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	IsActive     bool
	IsDeleted    bool
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

// State snapshots the aggregate for persistence.
func (u *User) State() UserState {
	return UserState{
		ID:           u.id,
		Username:     u.username,
		Email:        u.email,
		FirstName:    u.firstName,
		LastName:     u.lastName,
		PasswordHash: u.passwordHash,
		IsActive:     u.isActive,
		IsDeleted:    u.isDeleted,
		Version:      u.version,
		CreatedAt:    u.createdAt,
		UpdatedAt:    u.updatedAt,
	}
}

// UserFromState rehydrates an aggregate from a stored snapshot, bypassing
// construction-time validation. For repository use only.
func UserFromState(s UserState) *User {
	return &User{
		Entity: Entity{
			id:        s.ID,
			version:   s.Version,
			createdAt: s.CreatedAt,
			updatedAt: s.UpdatedAt,
			isDeleted: s.IsDeleted,
		},
		username:     s.Username,
		email:        s.Email,
		firstName:    s.FirstName,
		lastName:     s.LastName,
		passwordHash: s.PasswordHash,
		isActive:     s.IsActive,
	}
}

func checkFields(f userFields) error {
	err := validate.Struct(f)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fieldError(fe.StructField(), fe.Tag())
	}
	return err
}

func checkVar(value, rules string, kind ValidationKind) error {
	err := validate.Var(value, rules)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return newValidationError(kind, messageFor(kind, verrs[0].Tag()))
	}
	return err
}

func fieldError(structField, tag string) error {
	var kind ValidationKind
	switch structField {
	case "Username":
		kind = InvalidUsername
	case "Email":
		kind = InvalidEmail
	case "FirstName":
		kind = InvalidFirstName
	case "LastName":
		kind = InvalidLastName
	default:
		kind = InvalidPasswordHash
	}
	return newValidationError(kind, messageFor(kind, tag))
}

func messageFor(kind ValidationKind, tag string) string {
	if tag == "required" {
		return "is required"
	}
	switch kind {
	case InvalidUsername:
		return "must be between 3 and 50 characters"
	case InvalidEmail:
		return "is not a valid email address"
	case InvalidFirstName, InvalidLastName:
		return "must be at most 100 characters"
	default:
		return "is invalid"
	}
}
