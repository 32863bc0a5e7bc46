package api

import (
	"net/http"

	"github.com/oakmont-labs/memberhub/pkg/auth"
	"github.com/oakmont-labs/memberhub/pkg/httputil"
	"github.com/oakmont-labs/memberhub/pkg/middleware"
	"github.com/oakmont-labs/memberhub/pkg/session"
	"github.com/oakmont-labs/memberhub/pkg/store"
)

// MainHandlers serves the landing, dashboard and profile pages.
type MainHandlers struct {
	store    *store.Store
	sessions *session.Manager
}

// NewMainHandlers creates the main handlers.
func NewMainHandlers(st *store.Store, sessions *session.Manager) *MainHandlers {
	return &MainHandlers{store: st, sessions: sessions}
}

// index handles GET /: logged-in users land on the dashboard,
// everyone else on the login page.
func (h *MainHandlers) index(w http.ResponseWriter, r *http.Request) {
	target := "/login"
	if _, sess, err := h.sessions.Load(r); err == nil && sess.LoggedIn {
		target = "/dashboard"
	}

	if httputil.WantsJSON(r) {
		httputil.WriteSuccess(w, "ok", map[string]interface{}{"redirect": target})
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// sessionView is the user snapshot handed to the frontend.
func sessionView(sess *auth.Session) map[string]interface{} {
	return map[string]interface{}{
		"user": map[string]interface{}{
			"id":                  sess.UserID,
			"username":            sess.Username,
			"role":                string(sess.Role),
			"first_name":          sess.FirstName,
			"last_name":           sess.LastName,
			"permissions":         sess.Permissions.Keys(),
			"profile_picture_url": sess.ProfilePictureURL,
		},
	}
}

// dashboard handles GET /dashboard.
func (h *MainHandlers) dashboard(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromRequest(r)
	httputil.WriteSuccess(w, "dashboard", sessionView(sess))
}

// profile handles GET /profile with the full detail set.
func (h *MainHandlers) profile(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromRequest(r)

	httputil.WriteSuccess(w, "profile", map[string]interface{}{
		"user": map[string]interface{}{
			"id":                  sess.UserID,
			"username":            sess.Username,
			"role":                string(sess.Role),
			"first_name":          sess.FirstName,
			"last_name":           sess.LastName,
			"address":             sess.Address,
			"phone_number":        sess.PhoneNumber,
			"employee_code":       sess.EmployeeCode,
			"profile_picture_url": sess.ProfilePictureURL,
		},
	})
}

type updateProfileRequest struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Address         string `json:"address"`
	PhoneNumber     string `json:"phone_number"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// updateProfile handles POST /profile/update. The detail row is
// rewritten and the live session refreshed in place, so the change is
// visible immediately without a new login.
func (h *MainHandlers) updateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := middleware.SessionFromRequest(r)
	token := middleware.TokenFromRequest(r)

	var req updateProfileRequest
	if err := httputil.ParseBody(r, &req); err != nil {
		httputil.WriteValidationError(w, "invalid request body")
		return
	}

	if req.Password != "" {
		if req.Password != req.ConfirmPassword {
			httputil.WriteValidationError(w, "passwords do not match")
			return
		}
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			httputil.WriteInternalError(w, "internal server error")
			return
		}
		user, err := h.store.UserByID(ctx, sess.UserID)
		if err != nil {
			httputil.WriteInternalError(w, "internal server error")
			return
		}
		user.PasswordHash = hash
		profile := &auth.Profile{
			UserID:       sess.UserID,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			Address:      req.Address,
			PhoneNumber:  req.PhoneNumber,
			EmployeeCode: sess.EmployeeCode,
		}
		if err := h.store.UpdateUser(ctx, user, profile); err != nil {
			httputil.WriteInternalError(w, "internal server error")
			return
		}
	} else {
		profile := &auth.Profile{
			UserID:       sess.UserID,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			Address:      req.Address,
			PhoneNumber:  req.PhoneNumber,
			EmployeeCode: sess.EmployeeCode,
		}
		if err := h.store.UpdateProfile(ctx, sess.Role, profile); err != nil {
			httputil.WriteInternalError(w, "internal server error")
			return
		}
	}

	sess.FirstName = req.FirstName
	sess.LastName = req.LastName
	sess.Address = req.Address
	sess.PhoneNumber = req.PhoneNumber
	if err := h.sessions.Save(ctx, token, sess); err != nil {
		httputil.WriteInternalError(w, "internal server error")
		return
	}

	httputil.WriteSuccess(w, "profile updated", nil)
}
