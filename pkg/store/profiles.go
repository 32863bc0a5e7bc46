package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/oakmont-labs/memberhub/pkg/auth"
)

// MemberRecord is a row in the member directory.
type MemberRecord struct {
	UserID            int64  `json:"user_id"`
	Username          string `json:"username"`
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	Address           string `json:"address"`
	PhoneNumber       string `json:"phone_number"`
	ProfilePictureURL string `json:"profile_picture_url"`
}

// ProfileByUser returns the detail row for a user's role. A missing
// row yields an empty profile, not an error.
func (s *Store) ProfileByUser(ctx context.Context, userID int64, role auth.Role) (*auth.Profile, error) {
	profile := &auth.Profile{UserID: userID}

	var err error
	if role.ProfileTable() == "member_details" {
		var lineID sql.NullString
		err = s.db.QueryRowContext(ctx, `
			SELECT first_name, last_name, address, phone_number, line_user_id, profile_picture_url
			FROM member_details
			WHERE user_id = $1
		`, userID).Scan(
			&profile.FirstName,
			&profile.LastName,
			&profile.Address,
			&profile.PhoneNumber,
			&lineID,
			&profile.ProfilePictureURL,
		)
		profile.LineUserID = lineID.String
	} else {
		err = s.db.QueryRowContext(ctx, `
			SELECT first_name, last_name, employee_code, phone_number
			FROM staff_details
			WHERE user_id = $1
		`, userID).Scan(
			&profile.FirstName,
			&profile.LastName,
			&profile.EmployeeCode,
			&profile.PhoneNumber,
		)
	}
	if err == sql.ErrNoRows {
		return profile, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

// UpdateProfile overwrites the user's own editable detail fields.
func (s *Store) UpdateProfile(ctx context.Context, role auth.Role, profile *auth.Profile) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		return upsertProfile(ctx, tx, role, profile)
	})
}

// UserByLineID returns the account linked to a social login id, or
// ErrNotFound when no member has linked it.
func (s *Store) UserByLineID(ctx context.Context, lineUserID string) (*auth.User, error) {
	query := `
		SELECT u.id, u.username, u.password, u.role, u.created_at, u.updated_at
		FROM users u
		JOIN member_details m ON m.user_id = u.id
		WHERE m.line_user_id = $1
	`

	var user auth.User
	err := s.db.QueryRowContext(ctx, query, lineUserID).Scan(
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
		return nil, fmt.Errorf("failed to get user by line id: %w", err)
	}
	return &user, nil
}

// UpdateAvatarURL stores a member's downloaded avatar location.
func (s *Store) UpdateAvatarURL(ctx context.Context, userID int64, url string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE member_details SET profile_picture_url = $1 WHERE user_id = $2
	`, url, userID)
	if err != nil {
		return fmt.Errorf("failed to update avatar url: %w", err)
	}
	return nil
}

// ListMembers returns the member directory ordered by name.
func (s *Store) ListMembers(ctx context.Context) ([]MemberRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.username, m.first_name, m.last_name, m.address, m.phone_number, m.profile_picture_url
		FROM users u
		JOIN member_details m ON m.user_id = u.id
		WHERE u.role = 'member'
		ORDER BY m.first_name, m.last_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []MemberRecord
	for rows.Next() {
		var m MemberRecord
		if err := rows.Scan(&m.UserID, &m.Username, &m.FirstName, &m.LastName, &m.Address, &m.PhoneNumber, &m.ProfilePictureURL); err != nil {
			return nil, fmt.Errorf("failed to scan member row: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// insertProfile writes a fresh detail row for the role's table.
func insertProfile(ctx context.Context, tx *sql.Tx, role auth.Role, profile *auth.Profile) error {
	var err error
	if role.ProfileTable() == "member_details" {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO member_details (user_id, first_name, last_name, address, phone_number, line_user_id, profile_picture_url)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, profile.UserID, profile.FirstName, profile.LastName, profile.Address,
			profile.PhoneNumber, nullIfEmpty(profile.LineUserID), profile.ProfilePictureURL)
	} else {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO staff_details (user_id, first_name, last_name, employee_code, phone_number)
			VALUES ($1, $2, $3, $4, $5)
		`, profile.UserID, profile.FirstName, profile.LastName, profile.EmployeeCode, profile.PhoneNumber)
	}
	if isUniqueViolation(err) {
		return ErrDuplicateLineID
	}
	if err != nil {
		return fmt.Errorf("failed to insert profile: %w", err)
	}
	return nil
}

// upsertProfile writes the detail row, replacing existing fields.
// line_user_id and profile_picture_url are preserved on conflict; the
// social linking paths manage those separately.
func upsertProfile(ctx context.Context, tx *sql.Tx, role auth.Role, profile *auth.Profile) error {
	var err error
	if role.ProfileTable() == "member_details" {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO member_details (user_id, first_name, last_name, address, phone_number, line_user_id, profile_picture_url)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (user_id) DO UPDATE SET
				first_name = $2, last_name = $3, address = $4, phone_number = $5
		`, profile.UserID, profile.FirstName, profile.LastName, profile.Address,
			profile.PhoneNumber, nullIfEmpty(profile.LineUserID), profile.ProfilePictureURL)
	} else {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO staff_details (user_id, first_name, last_name, employee_code, phone_number)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (user_id) DO UPDATE SET
				first_name = $2, last_name = $3, employee_code = $4, phone_number = $5
		`, profile.UserID, profile.FirstName, profile.LastName, profile.EmployeeCode, profile.PhoneNumber)
	}
	if isUniqueViolation(err) {
		return ErrDuplicateLineID
	}
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
