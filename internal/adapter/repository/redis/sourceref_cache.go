package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/partnerledger/internal/domain"
)

// SourceRefCache implements usecase.SourceRefCache using Redis.
type SourceRefCache struct {
	client *redis.Client
	prefix string
}

// NewSourceRefCache creates a new SourceRefCache.
func NewSourceRefCache(client *redis.Client) *SourceRefCache {
	return &SourceRefCache{
		client: client,
		prefix: "sourceref:",
	}
}

func (c *SourceRefCache) key(ownerID string, category domain.TransactionCategory, sourceRef string) string {
	return c.prefix + ownerID + ":" + string(category) + ":" + sourceRef
}

// Lookup returns the transaction ID remembered for the key, if any.
func (c *SourceRefCache) Lookup(ctx context.Context, ownerID string, category domain.TransactionCategory, sourceRef string) (string, bool, error) {
	id, err := c.client.Get(ctx, c.key(ownerID, category, sourceRef)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

// Remember maps the key to a transaction ID. A zero ttl keeps the entry forever.
func (c *SourceRefCache) Remember(ctx context.Context, ownerID string, category domain.TransactionCategory, sourceRef, transactionID string, ttl time.Duration) error {
	return c.client.Set(ctx, c.key(ownerID, category, sourceRef), transactionID, ttl).Err()
}
