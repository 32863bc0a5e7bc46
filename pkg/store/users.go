package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/oakmont-labs/memberhub/pkg/auth"
)

// UserSummary is a row in the user management listing, with the name
// pulled from whichever detail table the role uses.
type UserSummary struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Role      auth.Role `json:"role"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
}

// UserByUsername returns the account row for a username.
func (s *Store) UserByUsername(ctx context.Context, username string) (*auth.User, error) {
	query := `
		SELECT id, username, password, role, created_at, updated_at
		FROM users
		WHERE username = $1
	`

	var user auth.User
	err := s.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		// The authenticator needs the miss distinguished from outages.
		return nil, auth.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return &user, nil
}

// UserByID returns the account row for an id.
func (s *Store) UserByID(ctx context.Context, id int64) (*auth.User, error) {
	query := `
		SELECT id, username, password, role, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	var user auth.User
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &user, nil
}

// CreateUser inserts the account and its detail row in one
// transaction. The user's PasswordHash must already be set; the id is
// written back on success.
func (s *Store) CreateUser(ctx context.Context, user *auth.User, profile *auth.Profile) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		now := time.Now()
		err := tx.QueryRowContext(ctx, `
			INSERT INTO users (username, password, role, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, user.Username, user.PasswordHash, user.Role, now, now).Scan(&user.ID)
		if isUniqueViolation(err) {
			return ErrDuplicateUsername
		}
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		user.CreatedAt = now
		user.UpdatedAt = now

		profile.UserID = user.ID
		if err := insertProfile(ctx, tx, user.Role, profile); err != nil {
			return err
		}
		return nil
	})
}

// UpdateUser updates the account and its detail row in one
// transaction. An empty PasswordHash keeps the stored password. A role
// change moves the detail row to the new role's table.
func (s *Store) UpdateUser(ctx context.Context, user *auth.User, profile *auth.Profile) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		var res sql.Result
		var err error
		now := time.Now()
		if user.PasswordHash != "" {
			res, err = tx.ExecContext(ctx, `
				UPDATE users SET username = $1, password = $2, role = $3, updated_at = $4
				WHERE id = $5
			`, user.Username, user.PasswordHash, user.Role, now, user.ID)
		} else {
			res, err = tx.ExecContext(ctx, `
				UPDATE users SET username = $1, role = $2, updated_at = $3
				WHERE id = $4
			`, user.Username, user.Role, now, user.ID)
		}
		if isUniqueViolation(err) {
			return ErrDuplicateUsername
		}
		if err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check update result: %w", err)
		}
		if affected == 0 {
			return ErrNotFound
		}

		// Clear the detail row in the table the role does not use, then
		// upsert the current one. This keeps role changes consistent.
		other := "staff_details"
		if user.Role.ProfileTable() == "staff_details" {
			other = "member_details"
		}
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE user_id = $1", other), user.ID,
		); err != nil {
			return fmt.Errorf("failed to clear stale profile: %w", err)
		}

		profile.UserID = user.ID
		return upsertProfile(ctx, tx, user.Role, profile)
	})
}

// DeleteUser removes the account; detail rows cascade. Deleting an
// unknown id returns ErrNotFound.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SearchUsers lists accounts whose username or name matches the query
// as a substring. An empty query lists everyone.
func (s *Store) SearchUsers(ctx context.Context, query string) ([]UserSummary, error) {
	pattern := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.username, u.role,
			COALESCE(m.first_name, st.first_name, '') AS first_name,
			COALESCE(m.last_name, st.last_name, '') AS last_name
		FROM users u
		LEFT JOIN member_details m ON m.user_id = u.id
		LEFT JOIN staff_details st ON st.user_id = u.id
		WHERE u.username LIKE $1
			OR COALESCE(m.first_name, st.first_name, '') LIKE $1
			OR COALESCE(m.last_name, st.last_name, '') LIKE $1
		ORDER BY u.id
	`, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	var users []UserSummary
	for rows.Next() {
		var u UserSummary
		if err := rows.Scan(&u.ID, &u.Username, &u.Role, &u.FirstName, &u.LastName); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
