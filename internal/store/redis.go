package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/muzaffarq/paygent/internal/domain"
)

// RedisStore is a CredentialStore backed by Redis, the production backend:
// the request-handling process and the orchestrator processes share it.
// Expiry rides on Redis key TTLs.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore wraps an existing Redis client. The client's lifecycle
// belongs to the caller.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// Put stores the credentials as JSON with the TTL applied by Redis.
func (s *RedisStore) Put(ctx context.Context, sessionID string, creds domain.Credentials, ttl time.Duration) error {
	raw, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}
	return s.rdb.Set(ctx, sessionKey(sessionID), raw, ttl).Err()
}

// Get returns the credentials if the key still exists. A key Redis has
// already expired reads exactly like one that never existed.
func (s *RedisStore) Get(ctx context.Context, sessionID string) (domain.Credentials, bool, error) {
	raw, err := s.rdb.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Credentials{}, false, nil
	}
	if err != nil {
		return domain.Credentials{}, false, err
	}

	var creds domain.Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return domain.Credentials{}, false, fmt.Errorf("decoding credentials: %w", err)
	}
	return creds, true, nil
}

// Close is a no-op: the Redis client is shared and closed by its owner.
func (s *RedisStore) Close() error { return nil }
