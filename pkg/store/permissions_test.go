package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakmont-labs/memberhub/pkg/auth"
)

func permissionID(t *testing.T, s *Store, key string) int64 {
	t.Helper()
	perms, err := s.ListPermissions(context.Background())
	require.NoError(t, err)
	for _, p := range perms {
		if p.PermissionKey == key {
			return p.ID
		}
	}
	t.Fatalf("permission %q not seeded", key)
	return 0
}

func TestStore_ListPermissions(t *testing.T) {
	s := NewTestStore(t)

	perms, err := s.ListPermissions(context.Background())
	require.NoError(t, err)
	require.Len(t, perms, 3)
	assert.Equal(t, "add_products", perms[0].PermissionKey, "ordered by key")
}

func TestStore_ReplaceRolePermissions(t *testing.T) {
	ctx := context.Background()
	s := NewTestStore(t)

	addProducts := permissionID(t, s, "add_products")
	viewMembers := permissionID(t, s, "view_member_list")
	editProfile := permissionID(t, s, "edit_own_profile")

	require.NoError(t, s.ReplaceRolePermissions(ctx, auth.RoleStaff, []int64{addProducts, viewMembers}))

	keys, err := s.PermissionKeysForRole(ctx, auth.RoleStaff)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"add_products", "view_member_list"}, keys)

	// Replacement is a full swap, not a merge.
	require.NoError(t, s.ReplaceRolePermissions(ctx, auth.RoleStaff, []int64{editProfile}))
	keys, err = s.PermissionKeysForRole(ctx, auth.RoleStaff)
	require.NoError(t, err)
	assert.Equal(t, []string{"edit_own_profile"}, keys)

	ids, err := s.PermissionIDsForRole(ctx, auth.RoleStaff)
	require.NoError(t, err)
	assert.Equal(t, []int64{editProfile}, ids)
}

func TestStore_ReplaceRolePermissionsToEmpty(t *testing.T) {
	ctx := context.Background()
	s := NewTestStore(t)

	addProducts := permissionID(t, s, "add_products")
	require.NoError(t, s.ReplaceRolePermissions(ctx, auth.RoleMember, []int64{addProducts}))
	require.NoError(t, s.ReplaceRolePermissions(ctx, auth.RoleMember, nil))

	keys, err := s.PermissionKeysForRole(ctx, auth.RoleMember)
	require.NoError(t, err)
	assert.Empty(t, keys, "revoking everything is valid")
}

func TestStore_ReplaceRolePermissionsRollsBackOnBadID(t *testing.T) {
	ctx := context.Background()
	s := NewTestStore(t)

	addProducts := permissionID(t, s, "add_products")
	require.NoError(t, s.ReplaceRolePermissions(ctx, auth.RoleStaff, []int64{addProducts}))

	err := s.ReplaceRolePermissions(ctx, auth.RoleStaff, []int64{99999})
	require.Error(t, err)

	keys, err := s.PermissionKeysForRole(ctx, auth.RoleStaff)
	require.NoError(t, err)
	assert.Equal(t, []string{"add_products"}, keys, "failed swap leaves old grants intact")
}

func TestStore_PermissionKeysForUnknownRole(t *testing.T) {
	s := NewTestStore(t)

	keys, err := s.PermissionKeysForRole(context.Background(), auth.Role("ghost"))
	require.NoError(t, err)
	assert.Empty(t, keys)
}
