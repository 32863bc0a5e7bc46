// Package contextkeys provides centralized context key definitions.
//
// All context keys used across the application must be defined here.
// This prevents typos, documents dependencies, and makes key usage
// discoverable.
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// SessionKey contains the *auth.Session for the authenticated request.
	// Set by: middleware.Guard.RequireAuth
	// Required by: all guarded handlers
	SessionKey Key = "session"

	// SessionTokenKey contains the opaque session token string.
	// Set by: middleware.Guard.RequireAuth
	// Used by: handlers that write the session back (logout, profile update)
	SessionTokenKey Key = "session_token"

	// RequestIDKey contains the request ID string (UUID).
	// Set by: middleware.RequestID
	// Used by: logger, error responses
	RequestIDKey Key = "request_id"
)

// WithSession adds a session record to the context
func WithSession(ctx context.Context, sess interface{}) context.Context {
	return context.WithValue(ctx, SessionKey, sess)
}

// Session retrieves the session record from the context, or nil
func Session(ctx context.Context) interface{} {
	return ctx.Value(SessionKey)
}

// WithSessionToken adds the opaque session token to the context
func WithSessionToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, SessionTokenKey, token)
}

// SessionToken retrieves the session token from the context
func SessionToken(ctx context.Context) string {
	if token, ok := ctx.Value(SessionTokenKey).(string); ok {
		return token
	}
	return ""
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// RequestID retrieves the request ID from the context
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
