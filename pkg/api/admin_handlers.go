package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/oakmont-labs/memberhub/pkg/auth"
	"github.com/oakmont-labs/memberhub/pkg/httputil"
	"github.com/oakmont-labs/memberhub/pkg/store"
)

// AdminHandlers serves user management and the permission matrix.
// Every route here sits behind RequireAuth and RequireAdmin.
type AdminHandlers struct {
	store *store.Store
}

// NewAdminHandlers creates the admin handlers.
func NewAdminHandlers(st *store.Store) *AdminHandlers {
	return &AdminHandlers{store: st}
}

// RegisterRoutes registers admin routes on the guarded subrouter.
func (h *AdminHandlers) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/manage-users", h.manageUsers).Methods("GET")
	r.HandleFunc("/add-user", h.addUser).Methods("POST")
	r.HandleFunc("/edit-user/{id:[0-9]+}", h.editUser).Methods("POST")
	r.HandleFunc("/delete-user/{id:[0-9]+}", h.deleteUser).Methods("POST")
	r.HandleFunc("/manage-permissions", h.managePermissions).Methods("GET")
	r.HandleFunc("/manage-permissions/update", h.updatePermissions).Methods("POST")
}

// manageUsers handles GET /admin/manage-users with optional substring
// search over usernames and names.
func (h *AdminHandlers) manageUsers(w http.ResponseWriter, r *http.Request) {
	search := httputil.ParseQueryString(r, "search", "")

	users, err := h.store.SearchUsers(r.Context(), search)
	if err != nil {
		httputil.WriteInternalError(w, "internal server error")
		return
	}
	if users == nil {
		users = []store.UserSummary{}
	}

	httputil.WriteSuccess(w, "users", map[string]interface{}{
		"users":  users,
		"search": search,
	})
}

type userRequest struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	Role         string `json:"role"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Address      string `json:"address"`
	PhoneNumber  string `json:"phone_number"`
	EmployeeCode string `json:"employee_code"`
}

func (req *userRequest) profile() *auth.Profile {
	return &auth.Profile{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Address:      req.Address,
		PhoneNumber:  req.PhoneNumber,
		EmployeeCode: req.EmployeeCode,
	}
}

// addUser handles POST /admin/add-user.
func (h *AdminHandlers) addUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := httputil.ParseBody(r, &req); err != nil {
		httputil.WriteValidationError(w, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		httputil.WriteValidationError(w, "username and password are required")
		return
	}
	role, err := auth.ParseRole(req.Role)
	if err != nil {
		httputil.WriteValidationError(w, "invalid role")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		httputil.WriteInternalError(w, "internal server error")
		return
	}

	user := &auth.User{Username: req.Username, PasswordHash: hash, Role: role}
	if err := h.store.CreateUser(r.Context(), user, req.profile()); err != nil {
		if errors.Is(err, store.ErrDuplicateUsername) {
			httputil.WriteValidationError(w, "username already exists")
			return
		}
		httputil.WriteInternalError(w, "internal server error")
		return
	}

	httputil.WriteSuccess(w, "user created", map[string]interface{}{
		"user": userView(user, req.profile()),
	})
}

// editUser handles POST /admin/edit-user/{id}. An empty password
// keeps the stored one.
func (h *AdminHandlers) editUser(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req userRequest
	if err := httputil.ParseBody(r, &req); err != nil {
		httputil.WriteValidationError(w, "invalid request body")
		return
	}
	if req.Username == "" {
		httputil.WriteValidationError(w, "username is required")
		return
	}
	role, err := auth.ParseRole(req.Role)
	if err != nil {
		httputil.WriteValidationError(w, "invalid role")
		return
	}

	user := &auth.User{ID: id, Username: req.Username, Role: role}
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			httputil.WriteInternalError(w, "internal server error")
			return
		}
		user.PasswordHash = hash
	}

	if err := h.store.UpdateUser(r.Context(), user, req.profile()); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			httputil.WriteNotFound(w, "user not found")
		case errors.Is(err, store.ErrDuplicateUsername):
			httputil.WriteValidationError(w, "username already exists")
		default:
			httputil.WriteInternalError(w, "internal server error")
		}
		return
	}

	httputil.WriteSuccess(w, "user updated", map[string]interface{}{
		"user": userView(user, req.profile()),
	})
}

func userView(user *auth.User, profile *auth.Profile) map[string]interface{} {
	return map[string]interface{}{
		"id":         user.ID,
		"username":   user.Username,
		"role":       string(user.Role),
		"first_name": profile.FirstName,
		"last_name":  profile.LastName,
	}
}

// deleteUser handles POST /admin/delete-user/{id}.
func (h *AdminHandlers) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if err := h.store.DeleteUser(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFound(w, "user not found")
			return
		}
		httputil.WriteInternalError(w, "internal server error")
		return
	}

	httputil.WriteSuccess(w, "user deleted", nil)
}

// managePermissions handles GET /admin/manage-permissions: the full
// catalog plus current grants for the grantable roles.
func (h *AdminHandlers) managePermissions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	perms, err := h.store.ListPermissions(ctx)
	if err != nil {
		httputil.WriteInternalError(w, "internal server error")
		return
	}

	grants := make(map[string][]int64)
	for _, role := range []auth.Role{auth.RoleStaff, auth.RoleMember} {
		ids, err := h.store.PermissionIDsForRole(ctx, role)
		if err != nil {
			httputil.WriteInternalError(w, "internal server error")
			return
		}
		if ids == nil {
			ids = []int64{}
		}
		grants[string(role)] = ids
	}

	httputil.WriteSuccess(w, "permissions", map[string]interface{}{
		"permissions": perms,
		"grants":      grants,
	})
}

type updatePermissionsRequest struct {
	Role          string  `json:"role"`
	PermissionIDs []int64 `json:"permission_ids"`
}

// updatePermissions handles POST /admin/manage-permissions/update.
// The role's grants become exactly the submitted set; an empty set
// revokes everything. Only established sessions keep the old snapshot.
func (h *AdminHandlers) updatePermissions(w http.ResponseWriter, r *http.Request) {
	req, err := parseUpdatePermissions(r)
	if err != nil {
		httputil.WriteValidationError(w, "invalid request body")
		return
	}

	role, err := auth.ParseRole(req.Role)
	if err != nil || !role.Grantable() {
		httputil.WriteValidationError(w, "role must be staff or member")
		return
	}

	if err := h.store.ReplaceRolePermissions(r.Context(), role, req.PermissionIDs); err != nil {
		httputil.WriteInternalError(w, "internal server error")
		return
	}

	httputil.WriteSuccess(w, "permissions updated", nil)
}

// parseUpdatePermissions accepts both JSON bodies and checkbox form
// posts, where permission_ids repeats per checked box.
func parseUpdatePermissions(r *http.Request) (*updatePermissionsRequest, error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		req := &updatePermissionsRequest{Role: r.PostForm.Get("role")}
		for _, raw := range r.PostForm["permission_ids"] {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, err
			}
			req.PermissionIDs = append(req.PermissionIDs, id)
		}
		return req, nil
	}

	var req updatePermissionsRequest
	if err := httputil.ParseJSON(r, &req); err != nil {
		return nil, err
	}
	return &req, nil
}
