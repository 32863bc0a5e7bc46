package session

import (
	"context"
	"errors"

	"github.com/oakmont-labs/memberhub/pkg/auth"
)

// ErrNotFound is returned when a token does not resolve to a live
// session, including tokens whose session has expired.
var ErrNotFound = errors.New("session not found")

// Store persists session state keyed by opaque token. Implementations
// must never return expired sessions from Get.
type Store interface {
	// Create issues a fresh token and stores the session under it.
	Create(ctx context.Context, sess *auth.Session) (string, error)

	// Get returns the live session for a token, or ErrNotFound.
	Get(ctx context.Context, token string) (*auth.Session, error)

	// Save overwrites the session stored under an existing token.
	Save(ctx context.Context, token string, sess *auth.Session) error

	// Delete removes the session. Deleting an unknown token is a no-op.
	Delete(ctx context.Context, token string) error
}
