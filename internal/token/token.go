// Package token manages persistent "remember me" login tokens. A token is
// identified by its series key and owned by exactly one user; it survives
// the short-lived cookie session and allows automatic re-authentication
// until revoked.
package token

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound means the series does not exist among the given user's tokens.
// A series owned by another user is reported the same way, never deleted.
var ErrNotFound = errors.New("token: series not found")

type PersistentToken struct {
	Series    string
	UserID    uuid.UUID
	Value     string
	TokenDate time.Time
	IPAddress string
	UserAgent string
}

// Store persists tokens. Implementations must enforce ownership on Revoke:
// deleting by series alone is not allowed.
type Store interface {
	Create(ctx context.Context, t PersistentToken) error
	ListFor(ctx context.Context, userID uuid.UUID) ([]PersistentToken, error)
	Revoke(ctx context.Context, userID uuid.UUID, series string) error
}
