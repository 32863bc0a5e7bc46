package auth

import "fmt"

// Role represents the account-level role stored on the users table.
type Role string

const (
	RoleAdmin  Role = "admin"  // Full access, bypasses permission checks
	RoleStaff  Role = "staff"  // Back-office account, permission gated
	RoleMember Role = "member" // Customer account, permission gated
)

// ParseRole validates a role string from untrusted input.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleStaff, RoleMember:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// BypassesPermissions reports whether the role skips fine-grained
// permission checks entirely. Only admin does.
func (r Role) BypassesPermissions() bool {
	return r == RoleAdmin
}

// Grantable reports whether the role can appear in the permission
// matrix. Admin is excluded because it bypasses the matrix.
func (r Role) Grantable() bool {
	return r == RoleStaff || r == RoleMember
}

// ProfileTable returns the detail table backing the role's profile.
func (r Role) ProfileTable() string {
	if r == RoleMember {
		return "member_details"
	}
	return "staff_details"
}
