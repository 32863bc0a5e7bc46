package api

import (
	"errors"
	"net/http"

	"github.com/oakmont-labs/memberhub/pkg/auth"
	"github.com/oakmont-labs/memberhub/pkg/httputil"
	"github.com/oakmont-labs/memberhub/pkg/observability"
	"github.com/oakmont-labs/memberhub/pkg/session"
)

// AuthHandlers serves password login and logout.
type AuthHandlers struct {
	authenticator *auth.Authenticator
	sessions      *session.Manager
	logger        *observability.Logger
	metrics       *observability.Metrics
}

// NewAuthHandlers creates the auth handlers.
func NewAuthHandlers(authenticator *auth.Authenticator, sessions *session.Manager, logger *observability.Logger, metrics *observability.Metrics) *AuthHandlers {
	return &AuthHandlers{
		authenticator: authenticator,
		sessions:      sessions,
		logger:        logger,
		metrics:       metrics,
	}
}

// loginPage handles GET /login. An already authenticated browser goes
// straight to the dashboard.
func (h *AuthHandlers) loginPage(w http.ResponseWriter, r *http.Request) {
	if _, sess, err := h.sessions.Load(r); err == nil && sess.LoggedIn {
		if httputil.WantsJSON(r) {
			httputil.WriteSuccess(w, "already logged in", map[string]interface{}{
				"redirect": "/dashboard",
			})
			return
		}
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}

	httputil.WriteSuccess(w, "please log in", nil)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// login handles POST /auth.
func (h *AuthHandlers) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := httputil.ParseBody(r, &req); err != nil {
		httputil.WriteValidationError(w, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		httputil.WriteValidationError(w, "username and password are required")
		return
	}

	sess, err := h.authenticator.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			h.logger.FromContext(ctx).WithError(err).Error("login failed")
			httputil.WriteInternalError(w, "internal server error")
			return
		}
		h.countLogin("password", "failure")
		httputil.WriteUnauthorized(w, "invalid username or password")
		return
	}

	// Drop any anonymous session so the login rotates the token.
	if oldToken, _, loadErr := h.sessions.Load(r); loadErr == nil {
		_ = h.sessions.Clear(ctx, w, oldToken)
	}
	if _, err := h.sessions.Establish(ctx, w, sess); err != nil {
		h.logger.FromContext(ctx).WithError(err).Error("failed to establish session")
		httputil.WriteInternalError(w, "internal server error")
		return
	}

	h.countLogin("password", "success")
	httputil.WriteSuccess(w, "login successful", map[string]interface{}{
		"redirect": "/dashboard",
	})
}

// logout handles GET /logout. It is public: a caller with no session,
// or a dead one, still gets the cookie expired and the login redirect.
func (h *AuthHandlers) logout(w http.ResponseWriter, r *http.Request) {
	token, _, _ := h.sessions.Load(r)
	if err := h.sessions.Clear(r.Context(), w, token); err != nil {
		h.logger.FromContext(r.Context()).WithError(err).Warn("failed to clear session")
	}

	if httputil.WantsJSON(r) {
		httputil.WriteSuccess(w, "logged out", map[string]interface{}{
			"redirect": "/login",
		})
		return
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (h *AuthHandlers) countLogin(method, outcome string) {
	if h.metrics != nil {
		h.metrics.LoginsTotal.WithLabelValues(method, outcome).Inc()
	}
}
