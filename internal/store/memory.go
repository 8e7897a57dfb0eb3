package store

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/NicoSerenade/parcheverde-uniandes/internal/models"
)

// MemorySessionStore is an in-process SessionStore used in development when
// no Redis is configured, and in tests.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]memorySession
}

type memorySession struct {
	identity  models.Entity
	expiresAt time.Time
}

// NewMemorySessionStore creates an empty in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]memorySession)}
}

// CreateSession stores a new session for the identity and returns its token.
func (s *MemorySessionStore) CreateSession(_ context.Context, identity models.Entity, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	token := ulid.Make().String()

	s.mu.Lock()
	s.sessions[token] = memorySession{identity: identity, expiresAt: time.Now().Add(ttl)}
	s.mu.Unlock()

	return token, nil
}

// ResolveSession returns the identity a session token was issued for, or
// ErrSessionNotFound if the token is unknown or expired.
func (s *MemorySessionStore) ResolveSession(_ context.Context, token string) (models.Entity, error) {
	s.mu.RLock()
	sess, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok || time.Now().After(sess.expiresAt) {
		return models.Entity{}, ErrSessionNotFound
	}
	return sess.identity, nil
}

// DeleteSession removes a session. Deleting an unknown token is a no-op.
func (s *MemorySessionStore) DeleteSession(_ context.Context, token string) error {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	return nil
}
