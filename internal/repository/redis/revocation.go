package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "revoked:"

// RevocationCache implements repository.RevocationCache using Redis. Only
// positive answers are stored: a key exists for every revoked token id until
// the token itself would have expired.
type RevocationCache struct {
	client *redis.Client
}

// NewRevocationCache creates a new Redis-backed revocation cache.
func NewRevocationCache(client *redis.Client) *RevocationCache {
	return &RevocationCache{client: client}
}

// MarkRevoked caches a revoked token id for ttl. Non-positive TTLs are skipped
// since the token is already past its expiry.
func (c *RevocationCache) MarkRevoked(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := c.client.Set(ctx, keyPrefix+jti, 1, ttl).Err(); err != nil {
		return fmt.Errorf("redis set revoked token: %w", err)
	}
	return nil
}

// IsRevoked reports whether the id is cached as revoked. A false answer only
// means the cache does not know.
func (c *RevocationCache) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := c.client.Exists(ctx, keyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists revoked token: %w", err)
	}
	return n > 0, nil
}
