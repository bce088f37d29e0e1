package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const revokedSessionPrefix = "revoked_session:"

// RevocationStore remembers signed-out session ids until they expire.
type RevocationStore interface {
	Revoke(ctx context.Context, sessionID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

// RedisRevocations keeps revoked session ids in Redis with a TTL matching
// the token expiry, so the set never outgrows the live sessions.
type RedisRevocations struct {
	Client *redis.Client
}

func NewRedisRevocations(client *redis.Client) *RedisRevocations {
	return &RedisRevocations{Client: client}
}

func (c *RedisRevocations) Revoke(ctx context.Context, sessionID string, expiresAt time.Time) error {
	if c.Client == nil {
		return fmt.Errorf("redis client not initialized")
	}

	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := c.Client.Set(ctx, revokedSessionPrefix+sessionID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to store revoked session: %w", err)
	}
	return nil
}

func (c *RedisRevocations) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	if c.Client == nil {
		return false, fmt.Errorf("redis client not initialized")
	}

	n, err := c.Client.Exists(ctx, revokedSessionPrefix+sessionID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check revoked session: %w", err)
	}
	return n > 0, nil
}
