// Package middleware provides the HTTP middleware chain: request ids,
// access logging, metrics and the session guards.
//
// # Guards
//
// Three guards build on each other:
//
//	guard.RequireAuth            - session cookie resolves to a live login
//	guard.RequireAdmin           - role is admin
//	guard.RequirePermission(key) - session snapshot holds the key
//
// RequireAuth injects the session into the request context; the other
// two read it from there and treat a missing session as
// unauthenticated, so they are safe even if chained out of order.
//
// # Dual-Mode Rejection
//
// A rejected request gets either JSON or a redirect, decided by
// httputil.WantsJSON (Accept: application/json or
// X-Requested-With: XMLHttpRequest):
//
//	unauthenticated - 401 envelope, or 302 to /login
//	forbidden       - 403 envelope, or 302 to /dashboard
//
// Handlers behind RequireAuth read the session with
// SessionFromRequest(r) and its token with TokenFromRequest(r).
package middleware
