package session

import (
	"context"
	"time"
)

// Session represents an authenticated login session. It stores only the
// identity pointer (the local login), not auth state.
type Session struct {
	SessionID string    // unique session identifier
	Login     string    // references users.login
	CreatedAt time.Time
	ExpiresAt time.Time // absolute expiry time
}

// Store defines how sessions are stored and retrieved.
// Implementations (e.g., Redis) must remain stateless and opaque.
type Store interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	Delete(ctx context.Context, sessionID string) error
}
