package lineauth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/oakmont-labs/memberhub/pkg/async"
	"github.com/oakmont-labs/memberhub/pkg/auth"
	"github.com/oakmont-labs/memberhub/pkg/avatar"
	"github.com/oakmont-labs/memberhub/pkg/httputil"
	"github.com/oakmont-labs/memberhub/pkg/observability"
	"github.com/oakmont-labs/memberhub/pkg/session"
	"github.com/oakmont-labs/memberhub/pkg/store"
	"github.com/oakmont-labs/memberhub/pkg/webhooks"
)

// Store is the persistence surface the flow needs.
type Store interface {
	UserByLineID(ctx context.Context, lineUserID string) (*auth.User, error)
	CreateUser(ctx context.Context, user *auth.User, profile *auth.Profile) error
	UpdateAvatarURL(ctx context.Context, userID int64, url string) error
}

// Flow drives the LINE Login account linking state machine: initiate,
// callback, and either a linked login or a staged registration.
type Flow struct {
	provider      *Provider
	authenticator *auth.Authenticator
	store         Store
	sessions      *session.Manager
	avatars       *avatar.Store
	notifier      *webhooks.Notifier
	logger        *observability.Logger
	metrics       *observability.Metrics
}

// NewFlow wires the flow. avatars and notifier may be nil, disabling
// avatar downloads and registration webhooks respectively.
func NewFlow(
	provider *Provider,
	authenticator *auth.Authenticator,
	st Store,
	sessions *session.Manager,
	avatars *avatar.Store,
	notifier *webhooks.Notifier,
	logger *observability.Logger,
	metrics *observability.Metrics,
) *Flow {
	return &Flow{
		provider:      provider,
		authenticator: authenticator,
		store:         st,
		sessions:      sessions,
		avatars:       avatars,
		notifier:      notifier,
		logger:        logger,
		metrics:       metrics,
	}
}

// Initiate starts the OAuth dance: a one-time state token goes into
// the session, then the browser is sent to the LINE consent screen.
func (f *Flow) Initiate(w http.ResponseWriter, r *http.Request) {
	state, err := session.NewToken()
	if err != nil {
		httputil.WriteInternalError(w, "internal server error")
		return
	}

	token, sess, loadErr := f.sessions.Load(r)
	if loadErr != nil {
		now := time.Now()
		sess = &auth.Session{
			CreatedAt: now,
			ExpiresAt: now.Add(f.sessions.TTL()),
		}
		sess.OAuthState = state
		if _, err := f.sessions.Establish(r.Context(), w, sess); err != nil {
			httputil.WriteInternalError(w, "internal server error")
			return
		}
	} else {
		sess.OAuthState = state
		if err := f.sessions.Save(r.Context(), token, sess); err != nil {
			httputil.WriteInternalError(w, "internal server error")
			return
		}
	}

	http.Redirect(w, r, f.provider.AuthCodeURL(state), http.StatusFound)
}

// Callback handles the provider redirect. The state token is checked
// against the session before anything is sent to the provider.
func (f *Flow) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token, sess, err := f.sessions.Load(r)
	if err != nil {
		f.failLogin(w, r, "login session expired, please try again")
		return
	}

	state := r.URL.Query().Get("state")
	if sess.OAuthState == "" || state != sess.OAuthState {
		f.countLogin("line", "state_mismatch")
		// A bad state token is a malformed callback, not a failed
		// credential check.
		if httputil.WantsJSON(r) {
			httputil.WriteValidationError(w, "invalid state token")
			return
		}
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	// The state token is one-time use.
	sess.OAuthState = ""
	if err := f.sessions.Save(ctx, token, sess); err != nil {
		httputil.WriteInternalError(w, "internal server error")
		return
	}

	if authErr := r.URL.Query().Get("error"); authErr != "" {
		f.countLogin("line", "denied")
		f.failLogin(w, r, "line login was cancelled")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		f.failLogin(w, r, "missing authorization code")
		return
	}

	oauthToken, err := f.provider.Exchange(ctx, code)
	if err != nil {
		f.logger.FromContext(ctx).WithError(err).Error("line code exchange failed")
		f.countLogin("line", "failure")
		f.failLogin(w, r, "line login failed")
		return
	}

	profile, err := f.provider.FetchProfile(ctx, oauthToken)
	if err != nil {
		f.logger.FromContext(ctx).WithError(err).Error("line profile fetch failed")
		f.countLogin("line", "failure")
		f.failLogin(w, r, "line login failed")
		return
	}

	user, err := f.store.UserByLineID(ctx, profile.UserID)
	switch {
	case err == nil:
		f.loginLinked(w, r, token, user, profile)
	case errors.Is(err, store.ErrNotFound):
		f.stageRegistration(w, r, token, sess, profile)
	default:
		f.logger.FromContext(ctx).WithError(err).Error("line link lookup failed")
		httputil.WriteInternalError(w, "internal server error")
	}
}

// loginLinked establishes a fresh session for an already linked user.
func (f *Flow) loginLinked(w http.ResponseWriter, r *http.Request, oldToken string, user *auth.User, profile *Profile) {
	ctx := r.Context()

	newSess, err := f.authenticator.Establish(ctx, user)
	if err != nil {
		f.logger.FromContext(ctx).WithError(err).Error("failed to establish line session")
		httputil.WriteInternalError(w, "internal server error")
		return
	}

	// Rotate the session token on privilege change.
	_ = f.sessions.Clear(ctx, w, oldToken)
	if _, err := f.sessions.Establish(ctx, w, newSess); err != nil {
		httputil.WriteInternalError(w, "internal server error")
		return
	}

	f.refreshAvatarAsync(ctx, user.ID, profile.PictureURL)
	f.countLogin("line", "success")

	if httputil.WantsJSON(r) {
		httputil.WriteSuccess(w, "login successful", map[string]interface{}{
			"redirect": "/dashboard",
		})
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// stageRegistration records the social identity in the session and
// sends the user to the registration form.
func (f *Flow) stageRegistration(w http.ResponseWriter, r *http.Request, token string, sess *auth.Session, profile *Profile) {
	sess.Pending = &auth.PendingRegistration{
		LineUserID:        profile.UserID,
		DisplayName:       profile.DisplayName,
		ProfilePictureURL: profile.PictureURL,
	}
	if err := f.sessions.Save(r.Context(), token, sess); err != nil {
		httputil.WriteInternalError(w, "internal server error")
		return
	}

	if httputil.WantsJSON(r) {
		httputil.WriteSuccess(w, "registration required", map[string]interface{}{
			"redirect": "/auth/line/register",
		})
		return
	}
	http.Redirect(w, r, "/auth/line/register", http.StatusFound)
}

// RegisterForm serves the staged identity to the registration page.
func (f *Flow) RegisterForm(w http.ResponseWriter, r *http.Request) {
	_, sess, err := f.sessions.Load(r)
	if err != nil || sess.Pending == nil {
		f.failLogin(w, r, "no pending registration")
		return
	}

	httputil.WriteSuccess(w, "complete your registration", map[string]interface{}{
		"display_name":        sess.Pending.DisplayName,
		"profile_picture_url": sess.Pending.ProfilePictureURL,
	})
}

type registerRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Address         string `json:"address"`
	PhoneNumber     string `json:"phone_number"`
}

// Register completes a staged registration: one transaction creates
// the member account with its social link, then the user is logged in.
func (f *Flow) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token, sess, err := f.sessions.Load(r)
	if err != nil || sess.Pending == nil {
		f.failLogin(w, r, "no pending registration")
		return
	}

	var req registerRequest
	if err := httputil.ParseBody(r, &req); err != nil {
		httputil.WriteValidationError(w, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		httputil.WriteValidationError(w, "username and password are required")
		return
	}
	if req.Password != req.ConfirmPassword {
		httputil.WriteValidationError(w, "passwords do not match")
		return
	}
	if req.FirstName == "" || req.LastName == "" {
		httputil.WriteValidationError(w, "first name and last name are required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		httputil.WriteInternalError(w, "internal server error")
		return
	}

	pending := sess.Pending
	user := &auth.User{
		Username:     req.Username,
		PasswordHash: hash,
		Role:         auth.RoleMember,
	}
	profile := &auth.Profile{
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Address:           req.Address,
		PhoneNumber:       req.PhoneNumber,
		LineUserID:        pending.LineUserID,
		ProfilePictureURL: pending.ProfilePictureURL,
	}

	if err := f.store.CreateUser(ctx, user, profile); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateUsername):
			httputil.WriteValidationError(w, "username already exists")
		case errors.Is(err, store.ErrDuplicateLineID):
			httputil.WriteFailure(w, http.StatusConflict, "this line account is already linked")
		default:
			f.logger.FromContext(ctx).WithError(err).Error("registration failed")
			httputil.WriteInternalError(w, "internal server error")
		}
		return
	}

	newSess, err := f.authenticator.Establish(ctx, user)
	if err != nil {
		f.logger.FromContext(ctx).WithError(err).Error("failed to establish session after registration")
		httputil.WriteInternalError(w, "internal server error")
		return
	}

	_ = f.sessions.Clear(ctx, w, token)
	if _, err := f.sessions.Establish(ctx, w, newSess); err != nil {
		httputil.WriteInternalError(w, "internal server error")
		return
	}

	f.refreshAvatarAsync(ctx, user.ID, pending.ProfilePictureURL)
	f.countLogin("line", "registered")

	if f.notifier != nil {
		f.notifier.NotifyAsync(ctx, webhooks.NewEvent(webhooks.EventRegistrationCreated, map[string]interface{}{
			"user_id":      user.ID,
			"username":     user.Username,
			"line_user_id": pending.LineUserID,
			"display_name": pending.DisplayName,
		}))
	}

	if httputil.WantsJSON(r) {
		httputil.WriteSuccess(w, "registration successful", map[string]interface{}{
			"redirect": "/dashboard",
		})
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// refreshAvatarAsync downloads the provider avatar in the background.
// Failures only surface in logs; the login already succeeded.
func (f *Flow) refreshAvatarAsync(ctx context.Context, userID int64, pictureURL string) {
	if f.avatars == nil || pictureURL == "" {
		return
	}
	taskCtx := async.Detached(ctx)
	async.SafeGo(taskCtx, 30*time.Second, "avatar download", func(ctx context.Context) error {
		url, err := f.avatars.Download(ctx, userID, pictureURL)
		if err != nil {
			return err
		}
		return f.store.UpdateAvatarURL(ctx, userID, url)
	})
}

func (f *Flow) failLogin(w http.ResponseWriter, r *http.Request, message string) {
	if httputil.WantsJSON(r) {
		httputil.WriteUnauthorized(w, message)
		return
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (f *Flow) countLogin(method, outcome string) {
	if f.metrics != nil {
		f.metrics.LoginsTotal.WithLabelValues(method, outcome).Inc()
	}
}
