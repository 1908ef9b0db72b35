package domain

import (
	"time"

	"github.com/google/uuid"
)

// Entity carries the lifecycle state shared by every aggregate: identity,
// timestamps, the soft-delete flag and the row version used for optimistic
// concurrency. It is embedded by value; fields stay unexported so state only
// changes through the aggregate's own operations.
type Entity struct {
	id        string
	version   int64
	createdAt time.Time
	updatedAt *time.Time
	isDeleted bool
}

func newEntity() Entity {
	return Entity{
		id:        uuid.NewString(),
		version:   1,
		createdAt: time.Now().UTC(),
	}
}

func (e *Entity) ID() string            { return e.id }
func (e *Entity) Version() int64        { return e.version }
func (e *Entity) CreatedAt() time.Time  { return e.createdAt }
func (e *Entity) UpdatedAt() *time.Time { return e.updatedAt }
func (e *Entity) IsDeleted() bool       { return e.isDeleted }

// MarkAsDeleted flags the entity as logically deleted. Idempotent: a second
// call is a no-op and does not advance updatedAt. There is no undelete.
func (e *Entity) MarkAsDeleted() bool {
	if e.isDeleted {
		return false
	}
	e.isDeleted = true
	e.touch()
	return true
}

func (e *Entity) touch() {
	now := time.Now().UTC()
	e.updatedAt = &now
}
