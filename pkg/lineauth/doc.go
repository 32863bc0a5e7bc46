// Package lineauth implements LINE Login (OAuth2 + OIDC) with account
// linking.
//
// # Flow
//
//	GET  /auth/line           - Initiate: state token into session, redirect to consent
//	GET  /auth/line/callback  - Callback: state check, code exchange, profile fetch
//	GET  /auth/line/register  - RegisterForm: staged identity for the form
//	POST /auth/line/register  - Register: create member + link in one transaction
//
// The callback branches on whether the LINE user id is already linked
// to a member. Linked: a fresh session is established and the avatar
// refreshed in the background. Not linked: the identity is staged in
// the session as a pending registration and the user completes a form
// choosing credentials.
//
// The state token is single use and verified before any call to the
// provider. A failed avatar download or webhook delivery never fails
// the login or registration that triggered it.
package lineauth
