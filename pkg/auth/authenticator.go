package auth

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidCredentials is returned for both unknown usernames and
// wrong passwords so callers cannot distinguish the two.
var ErrInvalidCredentials = errors.New("invalid username or password")

// ErrUserNotFound is the miss signal CredentialStore implementations
// return from UserByUsername. Only this error collapses into
// ErrInvalidCredentials; anything else is a store failure and
// propagates.
var ErrUserNotFound = errors.New("user not found")

// CredentialStore is the persistence surface the authenticator needs.
type CredentialStore interface {
	// UserByUsername returns the account row, or ErrUserNotFound.
	UserByUsername(ctx context.Context, username string) (*User, error)

	// ProfileByUser returns the detail row for the user's role. A
	// missing row is not an error; implementations return an empty
	// profile.
	ProfileByUser(ctx context.Context, userID int64, role Role) (*Profile, error)
}

// PermissionCatalog resolves the permission keys granted to a role.
type PermissionCatalog interface {
	PermissionKeysForRole(ctx context.Context, role Role) ([]string, error)
}

// Authenticator verifies credentials and builds the session snapshot
// established at login.
type Authenticator struct {
	store    CredentialStore
	resolver *Resolver
	ttl      time.Duration
}

// NewAuthenticator creates an authenticator. ttl controls how long the
// sessions it builds remain valid.
func NewAuthenticator(store CredentialStore, resolver *Resolver, ttl time.Duration) *Authenticator {
	return &Authenticator{
		store:    store,
		resolver: resolver,
		ttl:      ttl,
	}
}

// Authenticate verifies a username/password pair and returns a fresh
// session snapshot. Credential failures yield ErrInvalidCredentials;
// store failures propagate so callers surface them as server errors.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (*Session, error) {
	user, err := a.store.UserByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		// Unknown username collapses into the generic credential error.
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("look up user %q: %w", username, err)
	}

	if !VerifyPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	return a.Establish(ctx, user)
}

// Establish builds the session snapshot for an already verified user.
// Social login uses this path after resolving the linked account.
func (a *Authenticator) Establish(ctx context.Context, user *User) (*Session, error) {
	profile, err := a.store.ProfileByUser(ctx, user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("load profile for user %d: %w", user.ID, err)
	}

	perms, err := a.resolver.Resolve(ctx, user.Role)
	if err != nil {
		return nil, fmt.Errorf("resolve permissions for role %s: %w", user.Role, err)
	}

	now := time.Now()
	return &Session{
		UserID:            user.ID,
		Username:          user.Username,
		Role:              user.Role,
		Permissions:       perms,
		FirstName:         profile.FirstName,
		LastName:          profile.LastName,
		Address:           profile.Address,
		PhoneNumber:       profile.PhoneNumber,
		EmployeeCode:      profile.EmployeeCode,
		ProfilePictureURL: profile.ProfilePictureURL,
		LoggedIn:          true,
		CreatedAt:         now,
		ExpiresAt:         now.Add(a.ttl),
	}, nil
}
