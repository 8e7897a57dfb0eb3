package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/NicoSerenade/parcheverde-uniandes/internal/models"
)

// DefaultSessionTTL is used when the caller passes a non-positive TTL.
const DefaultSessionTTL = 24 * time.Hour

// RedisStore handles Redis operations: session resolution and rate-limit
// counters. Live connection and room state is never stored here; it is
// rebuilt from reconnects after a restart.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis store.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Client exposes the underlying client for middleware that shares the
// connection (rate limiting).
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

// sessionKey returns the key for a session token.
func sessionKey(token string) string {
	return fmt.Sprintf("session:%s", token)
}

// CreateSession stores a new session for the identity and returns its token.
func (s *RedisStore) CreateSession(ctx context.Context, identity models.Entity, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	token := ulid.Make().String()
	data, err := json.Marshal(identity)
	if err != nil {
		return "", err
	}

	if err := s.client.Set(ctx, sessionKey(token), data, ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// ResolveSession returns the identity a session token was issued for, or
// ErrSessionNotFound if the token is unknown or expired.
func (s *RedisStore) ResolveSession(ctx context.Context, token string) (models.Entity, error) {
	data, err := s.client.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.Entity{}, ErrSessionNotFound
		}
		return models.Entity{}, err
	}

	var identity models.Entity
	if err := json.Unmarshal(data, &identity); err != nil {
		return models.Entity{}, err
	}
	return identity, nil
}

// DeleteSession removes a session. Deleting an unknown token is a no-op.
func (s *RedisStore) DeleteSession(ctx context.Context, token string) error {
	return s.client.Del(ctx, sessionKey(token)).Err()
}
