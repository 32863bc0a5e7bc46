// Package auth implements credential verification, the role and
// permission model, and the session snapshot built at login.
//
// # Roles
//
//	RoleAdmin  - Full access, bypasses permission checks
//	RoleStaff  - Back-office account, permission gated
//	RoleMember - Customer account, permission gated
//
// Admin bypass lives in exactly one place, Session.HasPermission. Every
// other layer treats admin as an ordinary role with an empty grant set.
//
// # Login Flow
//
//	authenticator := auth.NewAuthenticator(store, auth.NewResolver(store), 24*time.Hour)
//	sess, err := authenticator.Authenticate(ctx, username, password)
//	if errors.Is(err, auth.ErrInvalidCredentials) {
//		// same error for unknown username and wrong password
//	}
//
// The returned Session carries the user's identity, profile fields and
// a permission snapshot resolved once at login. Grant changes made
// afterwards only apply to sessions established later.
//
// # Permission Snapshot
//
//	perms := auth.NewPermissionSet("add_products", "view_member_list")
//	perms.Has("add_products") // true
//
// PermissionSet marshals to a sorted JSON array so sessions serialize
// deterministically for external stores.
//
// # Related Packages
//
//   - pkg/session: session token issuance and storage
//   - pkg/middleware: HTTP guards consuming the session snapshot
//   - pkg/store: database-backed CredentialStore and PermissionCatalog
package auth
