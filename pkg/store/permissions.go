package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/oakmont-labs/memberhub/pkg/auth"
)

// ListPermissions returns the full permission catalog ordered by key.
func (s *Store) ListPermissions(ctx context.Context) ([]auth.Permission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, permission_key, description
		FROM permissions
		ORDER BY permission_key
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	defer rows.Close()

	var perms []auth.Permission
	for rows.Next() {
		var p auth.Permission
		if err := rows.Scan(&p.ID, &p.PermissionKey, &p.Description); err != nil {
			return nil, fmt.Errorf("failed to scan permission row: %w", err)
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// PermissionKeysForRole returns the keys granted to a role. A role
// with no grants returns an empty slice.
func (s *Store) PermissionKeysForRole(ctx context.Context, role auth.Role) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.permission_key
		FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role = $1
	`, role)
	if err != nil {
		return nil, fmt.Errorf("failed to query role permissions: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan permission key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// PermissionIDsForRole returns the granted permission ids for a role,
// for rendering the permission matrix.
func (s *Store) PermissionIDsForRole(ctx context.Context, role auth.Role) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT permission_id FROM role_permissions WHERE role = $1
	`, role)
	if err != nil {
		return nil, fmt.Errorf("failed to query role permission ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan permission id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ReplaceRolePermissions replaces a role's grants with exactly the
// given permission ids, atomically. The grant update only affects
// sessions established afterwards.
func (s *Store) ReplaceRolePermissions(ctx context.Context, role auth.Role, permissionIDs []int64) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM role_permissions WHERE role = $1", role,
		); err != nil {
			return fmt.Errorf("failed to clear role permissions: %w", err)
		}

		for _, id := range permissionIDs {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO role_permissions (role, permission_id) VALUES ($1, $2)",
				role, id,
			); err != nil {
				return fmt.Errorf("failed to grant permission %d: %w", id, err)
			}
		}
		return nil
	})
}
