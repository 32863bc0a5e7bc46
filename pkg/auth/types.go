package auth

import "time"

// User represents an account row as stored in the users table.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Never expose hash
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Profile holds the per-role detail row joined to a user. Members and
// staff keep their details in separate tables but share this shape.
type Profile struct {
	UserID            int64  `json:"user_id"`
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	Address           string `json:"address,omitempty"`
	PhoneNumber       string `json:"phone_number,omitempty"`
	EmployeeCode      string `json:"employee_code,omitempty"`
	LineUserID        string `json:"line_user_id,omitempty"`
	ProfilePictureURL string `json:"profile_picture_url,omitempty"`
}

// Permission represents a row in the permission catalog.
type Permission struct {
	ID            int64  `json:"id"`
	PermissionKey string `json:"permission_key"`
	Description   string `json:"description,omitempty"`
}

// PendingRegistration carries identity attributes from a social login
// that has no linked account yet. It lives only inside a session while
// the user completes the registration form.
type PendingRegistration struct {
	LineUserID        string `json:"line_user_id"`
	DisplayName       string `json:"display_name"`
	ProfilePictureURL string `json:"profile_picture_url,omitempty"`
}

// Session is the server-side authentication state snapshot. Permissions
// are resolved once at login and copied here; changes to role grants do
// not affect sessions already established.
type Session struct {
	UserID            int64                `json:"user_id"`
	Username          string               `json:"username"`
	Role              Role                 `json:"role"`
	Permissions       PermissionSet        `json:"permissions"`
	FirstName         string               `json:"first_name"`
	LastName          string               `json:"last_name"`
	Address           string               `json:"address,omitempty"`
	PhoneNumber       string               `json:"phone_number,omitempty"`
	EmployeeCode      string               `json:"employee_code,omitempty"`
	ProfilePictureURL string               `json:"profile_picture_url,omitempty"`
	LoggedIn          bool                 `json:"logged_in"`
	OAuthState        string               `json:"oauth_state,omitempty"`
	Pending           *PendingRegistration `json:"pending,omitempty"`
	CreatedAt         time.Time            `json:"created_at"`
	ExpiresAt         time.Time            `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at the given time.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// HasPermission reports whether the session may perform the operation
// guarded by the given key. Admin sessions pass every check; this is
// the single place that bypass lives.
func (s *Session) HasPermission(key string) bool {
	if s.Role.BypassesPermissions() {
		return true
	}
	return s.Permissions.Has(key)
}
