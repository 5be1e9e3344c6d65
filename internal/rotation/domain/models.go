package domain

import (
	"context"
	"errors"
	"time"
)

// Cursor is the persisted round-robin pointer for one content namespace
// ("phrases", "facts:<category>"). lastIndex -1 means nothing has been
// served yet.
type Cursor struct {
	Namespace string    `gorm:"primaryKey;size:128" json:"namespace"`
	LastIndex int       `gorm:"not null;default:-1" json:"last_index"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Cursor) TableName() string { return "rotation_cursors" }

// Allocator hands out list indices round-robin, collision-free under
// concurrency, persisted across restarts.
type Allocator interface {
	// NextIndex advances the namespace cursor and returns the next index
	// in [0, listLength). The read-advance-write runs in one storage
	// transaction; concurrent callers never observe the same index.
	NextIndex(ctx context.Context, namespace string, listLength int) (int, error)
}

var (
	ErrEmptyList        = errors.New("empty_content_list")
	ErrInvalidNamespace = errors.New("invalid_namespace")
)
