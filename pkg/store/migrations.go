package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// GetMigrations returns all schema migrations in order.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create users table",
			SQL: `
				CREATE TABLE IF NOT EXISTS users (
					id BIGSERIAL PRIMARY KEY,
					username VARCHAR(255) NOT NULL UNIQUE,
					password VARCHAR(255) NOT NULL,
					role VARCHAR(50) NOT NULL CHECK (role IN ('admin', 'staff', 'member')),
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_users_username ON users(username);
				CREATE INDEX idx_users_role ON users(role);
			`,
		},
		{
			Version:     2,
			Description: "Create member_details table",
			SQL: `
				CREATE TABLE IF NOT EXISTS member_details (
					user_id BIGINT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
					first_name VARCHAR(255) NOT NULL DEFAULT '',
					last_name VARCHAR(255) NOT NULL DEFAULT '',
					address TEXT NOT NULL DEFAULT '',
					phone_number VARCHAR(50) NOT NULL DEFAULT '',
					line_user_id VARCHAR(255),
					profile_picture_url TEXT NOT NULL DEFAULT ''
				);

				CREATE UNIQUE INDEX idx_member_details_line_user_id
					ON member_details(line_user_id) WHERE line_user_id IS NOT NULL;
			`,
		},
		{
			Version:     3,
			Description: "Create staff_details table",
			SQL: `
				CREATE TABLE IF NOT EXISTS staff_details (
					user_id BIGINT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
					first_name VARCHAR(255) NOT NULL DEFAULT '',
					last_name VARCHAR(255) NOT NULL DEFAULT '',
					employee_code VARCHAR(100) NOT NULL DEFAULT '',
					phone_number VARCHAR(50) NOT NULL DEFAULT ''
				);
			`,
		},
		{
			Version:     4,
			Description: "Create permissions and role_permissions tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS permissions (
					id BIGSERIAL PRIMARY KEY,
					permission_key VARCHAR(255) NOT NULL UNIQUE,
					description TEXT NOT NULL DEFAULT ''
				);

				CREATE TABLE IF NOT EXISTS role_permissions (
					role VARCHAR(50) NOT NULL,
					permission_id BIGINT NOT NULL REFERENCES permissions(id) ON DELETE CASCADE,
					PRIMARY KEY (role, permission_id)
				);

				CREATE INDEX idx_role_permissions_role ON role_permissions(role);
			`,
		},
		{
			Version:     5,
			Description: "Seed permission catalog",
			SQL: `
				INSERT INTO permissions (permission_key, description) VALUES
					('add_products', 'Create products and forward them to the workflow engine'),
					('view_member_list', 'View the member directory'),
					('edit_own_profile', 'Edit own profile details')
				ON CONFLICT (permission_key) DO NOTHING;
			`,
		},
	}
}

// RunMigrations executes all pending migrations
func RunMigrations(ctx context.Context, db *sql.DB) error {
	// Create migration tracking table
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return fmt.Errorf("failed to query migrations: %w", err)
	}

	appliedVersions := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		appliedVersions[version] = true
	}
	rows.Close()

	for _, migration := range GetMigrations() {
		if appliedVersions[migration.Version] {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}

		if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %d: %w", migration.Version, err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schema_migrations (version, description) VALUES ($1, $2)",
			migration.Version, migration.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}
