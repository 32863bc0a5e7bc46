// Package store persists accounts, role-specific profile details and
// the role permission matrix behind database/sql.
//
// # Schema
//
//	users            - id, username, password (bcrypt), role
//	member_details   - profile row for members, holds the social link
//	staff_details    - profile row for staff and admin
//	permissions      - the permission catalog
//	role_permissions - which roles hold which permissions
//
// Each user has exactly one detail row, in the table their role picks.
// Members additionally carry line_user_id, unique across the table, so
// a social account can only link to one member.
//
// # Migrations
//
//	err := store.RunMigrations(ctx, db)
//
// Migrations are tracked in schema_migrations and applied one
// transaction each. The final migration seeds the permission catalog.
//
// # Write Semantics
//
// CreateUser and UpdateUser keep the account row and its detail row
// consistent inside one transaction. ReplaceRolePermissions swaps a
// role's grants atomically with delete-then-insert, so concurrent
// logins see either the old set or the new set, never a mix.
//
// Sentinel errors: ErrNotFound, ErrDuplicateUsername, ErrDuplicateLineID.
package store
