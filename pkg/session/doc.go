// Package session issues opaque session tokens and persists the
// server-side session state behind them.
//
// Tokens are 32 random bytes, base64url encoded, and carry no user
// data. Two backends implement Store:
//
//	MemoryStore - process-local map, swept periodically
//	RedisStore  - JSON values with TTLs, for multi-instance deployments
//
// Manager wraps a Store with the session cookie so handlers never
// touch cookies directly:
//
//	mgr := session.NewManager(store, "memberhub_session", true, 24*time.Hour)
//	token, err := mgr.Establish(ctx, w, sess)
//	...
//	token, sess, err := mgr.Load(r)
package session
