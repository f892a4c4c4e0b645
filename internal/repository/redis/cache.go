package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Rrens/property-assistant/internal/domain"
)

const (
	propertyCachePrefix = "property:"
	defaultPropertyTTL  = 5 * time.Minute
)

// PropertyCache caches property facts and knowledge entries
type PropertyCache struct {
	client *Client
	ttl    time.Duration
}

// NewPropertyCache creates a new property cache
func NewPropertyCache(client *Client, ttl time.Duration) *PropertyCache {
	if ttl <= 0 {
		ttl = defaultPropertyTTL
	}
	return &PropertyCache{client: client, ttl: ttl}
}

// Get retrieves the cached context for a property. A miss returns nil, nil.
func (c *PropertyCache) Get(ctx context.Context, propertyID string) (*domain.PropertyContext, error) {
	data, err := c.client.rdb.Get(ctx, propertyCachePrefix+propertyID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read property cache: %w", err)
	}

	var pc domain.PropertyContext
	if err := json.Unmarshal(data, &pc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal property context: %w", err)
	}

	return &pc, nil
}

// Set caches the context for a property
func (c *PropertyCache) Set(ctx context.Context, propertyID string, pc *domain.PropertyContext) error {
	data, err := json.Marshal(pc)
	if err != nil {
		return fmt.Errorf("failed to marshal property context: %w", err)
	}

	return c.client.rdb.Set(ctx, propertyCachePrefix+propertyID, data, c.ttl).Err()
}

// Invalidate removes the cached context for a property
func (c *PropertyCache) Invalidate(ctx context.Context, propertyID string) error {
	return c.client.rdb.Del(ctx, propertyCachePrefix+propertyID).Err()
}

// FlushAll removes all cached property contexts
func (c *PropertyCache) FlushAll(ctx context.Context) (int64, error) {
	pattern := propertyCachePrefix + "*"
	var cursor uint64
	var deleted int64

	for {
		keys, nextCursor, err := c.client.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return deleted, fmt.Errorf("failed to scan keys: %w", err)
		}

		if len(keys) > 0 {
			count, err := c.client.rdb.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, fmt.Errorf("failed to delete keys: %w", err)
			}
			deleted += count
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return deleted, nil
}
