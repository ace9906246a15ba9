package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Account is a durable identity keyed by normalized username.
type Account struct {
	Key            string
	DisplayName    string
	CredentialHash string
	Color          string
	CreatedAt      time.Time
	LastLoginAt    time.Time
}

// PathRecord is one persisted stroke. Points are stored as a JSON array
// so the row stays opaque to SQL; Seq preserves the drawn (z) order.
type PathRecord struct {
	ID        string
	RoomID    string
	OwnerKey  string
	OwnerName string
	Color     string
	Width     float64
	Points    []byte
	Seq       int
	CreatedAt time.Time
}

// RoomRecord is a persisted room with its ordered paths.
type RoomRecord struct {
	ID        string
	CreatedAt time.Time
	Paths     []PathRecord
}

// AccountStore handles account persistence.
type AccountStore interface {
	// CreateAccount inserts a new account.
	CreateAccount(ctx context.Context, a *Account) error

	// GetAccountByKey retrieves an account by its normalized key.
	// Returns ErrNotFound if no such account exists.
	GetAccountByKey(ctx context.Context, key string) (*Account, error)

	// UpdateDisplayName changes the display name of an account.
	UpdateDisplayName(ctx context.Context, key, displayName string) error

	// UpdateLastLogin refreshes the last login timestamp.
	UpdateLastLogin(ctx context.Context, key string, at time.Time) error

	// FindAccountByDisplayName looks up an account whose display name
	// matches the given normalized form. Returns ErrNotFound if none.
	FindAccountByDisplayName(ctx context.Context, normalized string) (*Account, error)
}

// CanvasStore handles room path persistence.
type CanvasStore interface {
	// SaveRoomPaths replaces the stored paths of a room in one transaction.
	SaveRoomPaths(ctx context.Context, roomID string, createdAt time.Time, paths []PathRecord) error

	// LoadRooms loads every room with its paths in drawn order.
	LoadRooms(ctx context.Context) ([]RoomRecord, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	AccountStore
	CanvasStore

	// Close closes the underlying database connection.
	Close() error
}
