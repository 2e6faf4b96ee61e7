package types

import (
	"context"
	"database/sql"
)

// Store is the organizer's local store as the rest of the application sees
// it. Callers initialize it once at startup, then take the handle for their
// own queries. Every method except Initialize, Ready and Close returns
// ErrNotReady until Initialize has succeeded.
type Store interface {
	// Initialize opens the database file, migrates it to
	// CurrentSchemaVersion and repairs its invariants. Concurrent calls share
	// one run; after a failure the next call retries from the start.
	Initialize(ctx context.Context) error

	// Ready reports whether Initialize has succeeded.
	Ready() bool

	// DB returns the single shared database handle.
	DB(ctx context.Context) (*sql.DB, error)

	// DisplayMode returns the persisted appearance preference.
	DisplayMode(ctx context.Context) (DisplayMode, error)

	// SetDisplayMode persists the appearance preference.
	SetDisplayMode(ctx context.Context, mode DisplayMode) error

	// Close releases the handle. After Close, DB returns ErrClosed.
	Close() error
}
