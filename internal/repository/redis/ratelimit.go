package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	rateLimitPrefix = "ratelimit:"
)

// RateCounter implements ratelimit.Counter with a fixed window per key
type RateCounter struct {
	client *Client
}

// NewRateCounter creates a new Redis backed rate counter
func NewRateCounter(client *Client) *RateCounter {
	return &RateCounter{client: client}
}

// Increment bumps the counter for key and returns the new count and the
// time left in the window. INCR, EXPIRE NX and PTTL run in one MULTI/EXEC
// block so concurrent callers cannot observe a counter without expiry.
func (r *RateCounter) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	fullKey := rateLimitPrefix + key

	var incrCmd *redis.IntCmd
	var ttlCmd *redis.DurationCmd

	_, err := r.client.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incrCmd = pipe.Incr(ctx, fullKey)
		pipe.ExpireNX(ctx, fullKey, window)
		ttlCmd = pipe.PTTL(ctx, fullKey)
		return nil
	})
	if err != nil && err != redis.Nil {
		return 0, 0, fmt.Errorf("failed to execute rate limit check: %w", err)
	}

	ttl := ttlCmd.Val()
	if ttl < 0 {
		ttl = window
	}

	return incrCmd.Val(), ttl, nil
}
