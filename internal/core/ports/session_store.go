package ports

import (
	"context"
	"time"
)

// SessionStore tracks live login sessions so that tokens can be revoked
// before they expire.
type SessionStore interface {
	Save(ctx context.Context, userID uint, sessionID string, ttl time.Duration) error
	Exists(ctx context.Context, userID uint, sessionID string) (bool, error)
	Delete(ctx context.Context, userID uint, sessionID string) error
	// DeleteAll revokes every session of the user.
	DeleteAll(ctx context.Context, userID uint) error
}
