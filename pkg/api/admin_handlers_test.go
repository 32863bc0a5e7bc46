package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakmont-labs/memberhub/pkg/auth"
)

func TestAdmin_AddUser(t *testing.T) {
	router, st, _ := newTestServer(t)
	createUser(t, st, "admin", "secret123", auth.RoleAdmin)
	cookie := login(t, router, "admin", "secret123")

	rr := doJSON(t, router, "POST", "/admin/add-user", map[string]string{
		"username":   "carol",
		"password":   "secret123",
		"role":       "staff",
		"first_name": "Carol",
		"last_name":  "Jones",
	}, cookie)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	env := decodeEnvelope(t, rr)
	assert.Equal(t, true, env["success"])
	created := env["user"].(map[string]interface{})
	assert.NotZero(t, created["id"])
	assert.Equal(t, "carol", created["username"])

	// The new account can log in.
	login(t, router, "carol", "secret123")

	user, err := st.UserByUsername(context.Background(), "carol")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleStaff, user.Role)
}

func TestAdmin_AddUserValidation(t *testing.T) {
	router, st, _ := newTestServer(t)
	createUser(t, st, "admin", "secret123", auth.RoleAdmin)
	cookie := login(t, router, "admin", "secret123")

	tests := []struct {
		name    string
		body    map[string]string
		message string
	}{
		{
			name:    "missing password",
			body:    map[string]string{"username": "carol", "role": "staff"},
			message: "username and password are required",
		},
		{
			name:    "invalid role",
			body:    map[string]string{"username": "carol", "password": "x", "role": "superuser"},
			message: "invalid role",
		},
		{
			name:    "duplicate username",
			body:    map[string]string{"username": "admin", "password": "x", "role": "member"},
			message: "username already exists",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := doJSON(t, router, "POST", "/admin/add-user", tc.body, cookie)
			require.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, tc.message, decodeEnvelope(t, rr)["message"])
		})
	}
}

func TestAdmin_EditUser(t *testing.T) {
	router, st, _ := newTestServer(t)
	createUser(t, st, "admin", "secret123", auth.RoleAdmin)
	bob := createUser(t, st, "bob", "secret123", auth.RoleMember)
	cookie := login(t, router, "admin", "secret123")

	// Empty password keeps the stored one.
	rr := doJSON(t, router, "POST", fmt.Sprintf("/admin/edit-user/%d", bob.ID), map[string]string{
		"username":   "bobby",
		"role":       "staff",
		"first_name": "Bobby",
	}, cookie)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	login(t, router, "bobby", "secret123")

	user, err := st.UserByUsername(context.Background(), "bobby")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleStaff, user.Role)

	// A provided password replaces it.
	rr = doJSON(t, router, "POST", fmt.Sprintf("/admin/edit-user/%d", bob.ID), map[string]string{
		"username": "bobby",
		"role":     "staff",
		"password": "rotated",
	}, cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	login(t, router, "bobby", "rotated")
}

func TestAdmin_EditUserNotFound(t *testing.T) {
	router, st, _ := newTestServer(t)
	createUser(t, st, "admin", "secret123", auth.RoleAdmin)
	cookie := login(t, router, "admin", "secret123")

	rr := doJSON(t, router, "POST", "/admin/edit-user/9999", map[string]string{
		"username": "ghost",
		"role":     "member",
	}, cookie)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAdmin_DeleteUser(t *testing.T) {
	router, st, _ := newTestServer(t)
	createUser(t, st, "admin", "secret123", auth.RoleAdmin)
	bob := createUser(t, st, "bob", "secret123", auth.RoleMember)
	cookie := login(t, router, "admin", "secret123")

	rr := doJSON(t, router, "POST", fmt.Sprintf("/admin/delete-user/%d", bob.ID), nil, cookie)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, router, "POST", fmt.Sprintf("/admin/delete-user/%d", bob.ID), nil, cookie)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAdmin_ManageUsersSearch(t *testing.T) {
	router, st, _ := newTestServer(t)
	createUser(t, st, "admin", "secret123", auth.RoleAdmin)
	createUser(t, st, "alice", "secret123", auth.RoleMember)
	createUser(t, st, "bob", "secret123", auth.RoleStaff)
	cookie := login(t, router, "admin", "secret123")

	rr := doJSON(t, router, "GET", "/admin/manage-users?search=lic", nil, cookie)
	require.Equal(t, http.StatusOK, rr.Code)

	env := decodeEnvelope(t, rr)
	users := env["users"].([]interface{})
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].(map[string]interface{})["username"])
	assert.Equal(t, "lic", env["search"])
}

func TestAdmin_ManagePermissions(t *testing.T) {
	router, st, _ := newTestServer(t)
	createUser(t, st, "admin", "secret123", auth.RoleAdmin)
	grantPermission(t, st, auth.RoleStaff, "view_member_list")
	cookie := login(t, router, "admin", "secret123")

	rr := doJSON(t, router, "GET", "/admin/manage-permissions", nil, cookie)
	require.Equal(t, http.StatusOK, rr.Code)

	env := decodeEnvelope(t, rr)
	perms := env["permissions"].([]interface{})
	assert.Len(t, perms, 3)

	grants := env["grants"].(map[string]interface{})
	assert.Len(t, grants["staff"], 1)
	assert.Empty(t, grants["member"])
}

func TestAdmin_UpdatePermissionsJSON(t *testing.T) {
	router, st, _ := newTestServer(t)
	createUser(t, st, "admin", "secret123", auth.RoleAdmin)
	cookie := login(t, router, "admin", "secret123")

	perms, err := st.ListPermissions(context.Background())
	require.NoError(t, err)

	rr := doJSON(t, router, "POST", "/admin/manage-permissions/update", map[string]interface{}{
		"role":           "member",
		"permission_ids": []int64{perms[0].ID, perms[1].ID},
	}, cookie)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	keys, err := st.PermissionKeysForRole(context.Background(), auth.RoleMember)
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	// An empty set revokes everything.
	rr = doJSON(t, router, "POST", "/admin/manage-permissions/update", map[string]interface{}{
		"role":           "member",
		"permission_ids": []int64{},
	}, cookie)
	require.Equal(t, http.StatusOK, rr.Code)

	keys, err = st.PermissionKeysForRole(context.Background(), auth.RoleMember)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestAdmin_UpdatePermissionsForm(t *testing.T) {
	router, st, _ := newTestServer(t)
	createUser(t, st, "admin", "secret123", auth.RoleAdmin)
	cookie := login(t, router, "admin", "secret123")

	perms, err := st.ListPermissions(context.Background())
	require.NoError(t, err)

	form := url.Values{}
	form.Set("role", "staff")
	form.Add("permission_ids", fmt.Sprintf("%d", perms[0].ID))
	form.Add("permission_ids", fmt.Sprintf("%d", perms[2].ID))

	req := httptest.NewRequest("POST", "/admin/manage-permissions/update", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.AddCookie(cookie)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	keys, err := st.PermissionKeysForRole(context.Background(), auth.RoleStaff)
	require.NoError(t, err)
	assert.Len(t, keys, 2)
}

func TestAdmin_UpdatePermissionsRejectsAdminRole(t *testing.T) {
	router, st, _ := newTestServer(t)
	createUser(t, st, "admin", "secret123", auth.RoleAdmin)
	cookie := login(t, router, "admin", "secret123")

	rr := doJSON(t, router, "POST", "/admin/manage-permissions/update", map[string]interface{}{
		"role":           "admin",
		"permission_ids": []int64{},
	}, cookie)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "role must be staff or member", decodeEnvelope(t, rr)["message"])
}
