package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/oakmont-labs/memberhub/pkg/auth"
)

// keyPrefix namespaces session keys in a shared Redis instance.
const keyPrefix = "session:"

// RedisStore persists sessions in Redis as JSON with a TTL matching
// the session expiry. Redis evicts expired entries itself, so this
// backend needs no sweep job.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a session store backed by the given client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Create issues a token and stores the session under it.
func (r *RedisStore) Create(ctx context.Context, sess *auth.Session) (string, error) {
	token, err := NewToken()
	if err != nil {
		return "", err
	}
	if err := r.Save(ctx, token, sess); err != nil {
		return "", err
	}
	return token, nil
}

// Get returns the live session for a token, or ErrNotFound.
func (r *RedisStore) Get(ctx context.Context, token string) (*auth.Session, error) {
	data, err := r.client.Get(ctx, keyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var sess auth.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	if sess.Expired(time.Now()) {
		// TTL and expiry normally agree; treat a straggler as gone.
		_ = r.client.Del(ctx, keyPrefix+token).Err()
		return nil, ErrNotFound
	}
	return &sess, nil
}

// Save overwrites the session and refreshes its TTL from ExpiresAt.
func (r *RedisStore) Save(ctx context.Context, token string, sess *auth.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return r.Delete(ctx, token)
	}
	if err := r.client.Set(ctx, keyPrefix+token, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// Delete removes the session for a token.
func (r *RedisStore) Delete(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, keyPrefix+token).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
