package tokenstore

import (
	"context"
	"errors"
	"time"
)

// Common token store errors
var (
	// ErrNotFound is returned when no token record has been saved
	ErrNotFound = errors.New("no stored session")

	// ErrDecrypt is returned when a stored record cannot be decrypted,
	// usually because the passphrase changed
	ErrDecrypt = errors.New("failed to decrypt stored session")
)

// Record is the persisted token pair mirrored from the SQL backend, so a
// remembered session can be restored at startup.
type Record struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	Provider     string    `json:"provider"`
	SavedAt      time.Time `json:"saved_at"`
}

// Store persists the token record for session restoration. The reactive
// backend owns its own persistence and never touches this.
type Store interface {
	Save(ctx context.Context, rec *Record) error
	Load(ctx context.Context) (*Record, error)
	Clear(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
