package session

import (
	"context"
	"sync"
	"time"

	"github.com/oakmont-labs/memberhub/pkg/auth"
)

// MemoryStore keeps sessions in process memory. It is the default
// backend for single-instance deployments and tests; expired entries
// linger until a Get touches them or Sweep runs.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*auth.Session
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*auth.Session),
	}
}

// Create issues a token and stores the session under it.
func (m *MemoryStore) Create(_ context.Context, sess *auth.Session) (string, error) {
	token, err := NewToken()
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.sessions[token] = sess
	m.mu.Unlock()
	return token, nil
}

// Get returns the live session for a token. Expired sessions are
// removed on access and reported as ErrNotFound.
func (m *MemoryStore) Get(_ context.Context, token string) (*auth.Session, error) {
	m.mu.RLock()
	sess, ok := m.sessions[token]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	if sess.Expired(time.Now()) {
		m.mu.Lock()
		delete(m.sessions, token)
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	return sess, nil
}

// Save overwrites the session stored under an existing token.
func (m *MemoryStore) Save(_ context.Context, token string, sess *auth.Session) error {
	m.mu.Lock()
	m.sessions[token] = sess
	m.mu.Unlock()
	return nil
}

// Delete removes the session for a token.
func (m *MemoryStore) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
	return nil
}

// Sweep removes expired sessions and returns how many were dropped.
// The periodic cleanup job calls this.
func (m *MemoryStore) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for token, sess := range m.sessions {
		if sess.Expired(now) {
			delete(m.sessions, token)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
