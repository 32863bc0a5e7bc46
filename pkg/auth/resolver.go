package auth

import (
	"context"
	"fmt"
)

// Resolver turns a role into its granted permission set at login time.
type Resolver struct {
	catalog PermissionCatalog
}

// NewResolver creates a resolver backed by the given catalog.
func NewResolver(catalog PermissionCatalog) *Resolver {
	return &Resolver{catalog: catalog}
}

// Resolve returns the permission set granted to a role. Admin resolves
// to an empty set because Session.HasPermission bypasses the check for
// it; a role with no grants is a valid empty set, not an error.
func (r *Resolver) Resolve(ctx context.Context, role Role) (PermissionSet, error) {
	if role.BypassesPermissions() {
		return NewPermissionSet(), nil
	}

	keys, err := r.catalog.PermissionKeysForRole(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("list permission keys for role %s: %w", role, err)
	}
	return NewPermissionSet(keys...), nil
}
