package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// tokenLength is the number of random bytes in a session token
// (32 bytes = 256 bits).
const tokenLength = 32

// NewToken returns an opaque session token, base64url encoded without
// padding. The token carries no user data; it is purely a lookup key.
func NewToken() (string, error) {
	randomBytes := make([]byte, tokenLength)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(randomBytes), nil
}
