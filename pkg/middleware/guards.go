package middleware

import (
	"net/http"

	"github.com/oakmont-labs/memberhub/pkg/auth"
	"github.com/oakmont-labs/memberhub/pkg/contextkeys"
	"github.com/oakmont-labs/memberhub/pkg/httputil"
	"github.com/oakmont-labs/memberhub/pkg/session"
)

// Guard provides the authentication and authorization middleware
// chain. Rejections are dual-mode: API clients get a JSON envelope,
// browser navigation gets a redirect.
type Guard struct {
	sessions *session.Manager
}

// NewGuard creates the middleware set over a session manager.
func NewGuard(sessions *session.Manager) *Guard {
	return &Guard{sessions: sessions}
}

// RequireAuth resolves the session cookie and injects the session into
// the request context. Requests without a live logged-in session are
// rejected with 401 or redirected to /login.
func (g *Guard) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, sess, err := g.sessions.Load(r)
		if err != nil || !sess.LoggedIn {
			g.rejectUnauthenticated(w, r)
			return
		}

		ctx := contextkeys.WithSession(r.Context(), sess)
		ctx = contextkeys.WithSessionToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin rejects sessions whose role is not admin. It expects
// RequireAuth to have run first; a missing session rejects as
// unauthenticated.
func (g *Guard) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromRequest(r)
		if sess == nil {
			g.rejectUnauthenticated(w, r)
			return
		}
		if sess.Role != auth.RoleAdmin {
			g.rejectForbidden(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePermission rejects sessions that do not hold the permission
// key. Admin passes every check. A missing session rejects as
// unauthenticated.
func (g *Guard) RequirePermission(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := SessionFromRequest(r)
			if sess == nil {
				g.rejectUnauthenticated(w, r)
				return
			}
			if !sess.HasPermission(key) {
				g.rejectForbidden(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (g *Guard) rejectUnauthenticated(w http.ResponseWriter, r *http.Request) {
	if httputil.WantsJSON(r) {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (g *Guard) rejectForbidden(w http.ResponseWriter, r *http.Request) {
	if httputil.WantsJSON(r) {
		httputil.WriteForbidden(w, "insufficient permissions")
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// SessionFromRequest extracts the session injected by RequireAuth.
func SessionFromRequest(r *http.Request) *auth.Session {
	v := contextkeys.Session(r.Context())
	if v == nil {
		return nil
	}
	sess, ok := v.(*auth.Session)
	if !ok {
		return nil
	}
	return sess
}

// TokenFromRequest extracts the session token injected by RequireAuth.
func TokenFromRequest(r *http.Request) string {
	return contextkeys.SessionToken(r.Context())
}
