package session

import (
	"context"
	"net/http"
	"time"

	"github.com/oakmont-labs/memberhub/pkg/auth"
)

// Manager ties a Store to the session cookie. Handlers and middleware
// go through it instead of touching cookies directly.
type Manager struct {
	store        Store
	cookieName   string
	cookieSecure bool
	ttl          time.Duration
}

// NewManager creates a manager over the given store.
func NewManager(store Store, cookieName string, cookieSecure bool, ttl time.Duration) *Manager {
	return &Manager{
		store:        store,
		cookieName:   cookieName,
		cookieSecure: cookieSecure,
		ttl:          ttl,
	}
}

// TTL returns the configured session lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Establish stores the session and sets the cookie on the response.
// The returned token is the cookie value.
func (m *Manager) Establish(ctx context.Context, w http.ResponseWriter, sess *auth.Session) (string, error) {
	token, err := m.store.Create(ctx, sess)
	if err != nil {
		return "", err
	}
	m.setCookie(w, token, sess.ExpiresAt)
	return token, nil
}

// Load resolves the request's session cookie. It returns ErrNotFound
// when the cookie is absent or does not resolve to a live session.
func (m *Manager) Load(r *http.Request) (string, *auth.Session, error) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return "", nil, ErrNotFound
	}
	sess, err := m.store.Get(r.Context(), cookie.Value)
	if err != nil {
		return "", nil, err
	}
	return cookie.Value, sess, nil
}

// Save writes back a mutated session under its existing token.
func (m *Manager) Save(ctx context.Context, token string, sess *auth.Session) error {
	return m.store.Save(ctx, token, sess)
}

// Clear deletes the session and expires the cookie.
func (m *Manager) Clear(ctx context.Context, w http.ResponseWriter, token string) error {
	err := m.store.Delete(ctx, token)
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return err
}

func (m *Manager) setCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   m.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
