package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/oakmont-labs/memberhub/pkg/contextkeys"
)

// requestIDHeader carries the request id to clients and upstream
// proxies.
const requestIDHeader = "X-Request-ID"

// RequestID assigns each request a UUID, honoring one supplied by a
// trusted proxy, and echoes it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}

		w.Header().Set(requestIDHeader, id)
		ctx := contextkeys.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
