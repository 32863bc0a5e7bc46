package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakmont-labs/memberhub/pkg/auth"
	"github.com/oakmont-labs/memberhub/pkg/session"
)

func newTestGuard(t *testing.T) (*Guard, *session.Manager) {
	t.Helper()
	mgr := session.NewManager(session.NewMemoryStore(), "memberhub_session", false, time.Hour)
	return NewGuard(mgr), mgr
}

func loginAs(t *testing.T, mgr *session.Manager, role auth.Role, perms ...string) *http.Cookie {
	t.Helper()
	now := time.Now()
	sess := &auth.Session{
		UserID:      1,
		Username:    "tester",
		Role:        role,
		Permissions: auth.NewPermissionSet(perms...),
		LoggedIn:    true,
		CreatedAt:   now,
		ExpiresAt:   now.Add(time.Hour),
	}
	rec := httptest.NewRecorder()
	_, err := mgr.Establish(context.Background(), rec, sess)
	require.NoError(t, err)
	return rec.Result().Cookies()[0]
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth_NoSessionRedirectsBrowser(t *testing.T) {
	guard, _ := newTestGuard(t)

	var called bool
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	rec := httptest.NewRecorder()
	guard.RequireAuth(okHandler(&called)).ServeHTTP(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestRequireAuth_NoSessionJSONForAPIClients(t *testing.T) {
	guard, _ := newTestGuard(t)

	tests := []struct {
		name   string
		header func(*http.Request)
	}{
		{"accept json", func(r *http.Request) { r.Header.Set("Accept", "application/json") }},
		{"xhr", func(r *http.Request) { r.Header.Set("X-Requested-With", "XMLHttpRequest") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called bool
			req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
			tt.header(req)
			rec := httptest.NewRecorder()
			guard.RequireAuth(okHandler(&called)).ServeHTTP(rec, req)

			assert.False(t, called)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, false, body["success"])
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestRequireAuth_InjectsSession(t *testing.T) {
	guard, mgr := newTestGuard(t)
	cookie := loginAs(t, mgr, auth.RoleMember, "edit_own_profile")

	var gotSess *auth.Session
	var gotToken string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSess = SessionFromRequest(r)
		gotToken = TokenFromRequest(r)
	})

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(cookie)
	guard.RequireAuth(handler).ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, gotSess)
	assert.Equal(t, "tester", gotSess.Username)
	assert.Equal(t, cookie.Value, gotToken)
}

func TestRequireAdmin(t *testing.T) {
	guard, mgr := newTestGuard(t)

	tests := []struct {
		name         string
		role         auth.Role
		wantStatus   int
		wantLocation string
	}{
		{"admin passes", auth.RoleAdmin, http.StatusOK, ""},
		{"staff redirected to dashboard", auth.RoleStaff, http.StatusFound, "/dashboard"},
		{"member redirected to dashboard", auth.RoleMember, http.StatusFound, "/dashboard"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cookie := loginAs(t, mgr, tt.role)

			var called bool
			req := httptest.NewRequest(http.MethodGet, "/admin/manage-users", nil)
			req.AddCookie(cookie)
			rec := httptest.NewRecorder()
			guard.RequireAuth(guard.RequireAdmin(okHandler(&called))).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"))
			assert.Equal(t, tt.wantStatus == http.StatusOK, called)
		})
	}
}

func TestRequireAdmin_JSONForbidden(t *testing.T) {
	guard, mgr := newTestGuard(t)
	cookie := loginAs(t, mgr, auth.RoleMember)

	var called bool
	req := httptest.NewRequest(http.MethodGet, "/admin/manage-users", nil)
	req.AddCookie(cookie)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	guard.RequireAuth(guard.RequireAdmin(okHandler(&called))).ServeHTTP(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequirePermission(t *testing.T) {
	guard, mgr := newTestGuard(t)

	tests := []struct {
		name       string
		role       auth.Role
		perms      []string
		key        string
		wantStatus int
	}{
		{"holder passes", auth.RoleStaff, []string{"add_products"}, "add_products", http.StatusOK},
		{"missing key forbidden", auth.RoleStaff, []string{"view_member_list"}, "add_products", http.StatusFound},
		{"empty set forbidden", auth.RoleMember, nil, "add_products", http.StatusFound},
		{"admin bypasses", auth.RoleAdmin, nil, "add_products", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cookie := loginAs(t, mgr, tt.role, tt.perms...)

			var called bool
			req := httptest.NewRequest(http.MethodPost, "/products/add", nil)
			req.AddCookie(cookie)
			rec := httptest.NewRecorder()
			guard.RequireAuth(guard.RequirePermission(tt.key)(okHandler(&called))).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantStatus == http.StatusOK, called)
		})
	}
}

func TestGuards_WithoutRequireAuthRejectUnauthenticated(t *testing.T) {
	guard, _ := newTestGuard(t)

	// Guards chained without RequireAuth must not panic and must treat
	// the request as unauthenticated.
	var called bool
	req := httptest.NewRequest(http.MethodGet, "/admin/manage-users", nil)
	rec := httptest.NewRecorder()
	guard.RequireAdmin(okHandler(&called)).ServeHTTP(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	guard.RequirePermission("add_products")(okHandler(&called)).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestRequireAuth_ExpiredSessionRejected(t *testing.T) {
	guard, mgr := newTestGuard(t)

	sess := &auth.Session{
		UserID:    1,
		Username:  "tester",
		Role:      auth.RoleMember,
		LoggedIn:  true,
		CreatedAt: time.Now().Add(-2 * time.Hour),
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	rec := httptest.NewRecorder()
	_, err := mgr.Establish(context.Background(), rec, sess)
	require.NoError(t, err)
	cookie := rec.Result().Cookies()[0]

	var called bool
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	guard.RequireAuth(okHandler(&called)).ServeHTTP(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusFound, rec.Code)
}

func TestRequireAuth_NotLoggedInSessionRejected(t *testing.T) {
	guard, mgr := newTestGuard(t)

	// A session that only holds OAuth state is not authenticated.
	now := time.Now()
	sess := &auth.Session{
		OAuthState: "abc",
		LoggedIn:   false,
		CreatedAt:  now,
		ExpiresAt:  now.Add(time.Hour),
	}
	rec := httptest.NewRecorder()
	_, err := mgr.Establish(context.Background(), rec, sess)
	require.NoError(t, err)
	cookie := rec.Result().Cookies()[0]

	var called bool
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(cookie)
	rec2 := httptest.NewRecorder()
	guard.RequireAuth(okHandler(&called)).ServeHTTP(rec2, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusFound, rec2.Code)
}
