// Package ratelimit gates inbound requests with a fixed-window counter kept
// in a shared store, so every instance of the service sees the same counts.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Counter is an atomic increment-or-create primitive over a shared store.
// Increment returns the count after incrementing and the time left in the
// window; the first increment of a key starts a new window.
type Counter interface {
	Increment(ctx context.Context, key string, window time.Duration) (count int64, ttl time.Duration, err error)
}

// Decision is the outcome of one check
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
	// FailedOpen is set when the counter was unreachable and the request was let through
	FailedOpen bool
}

// RetryAfter returns the whole seconds until the window resets, at least 1
func (d Decision) RetryAfter(now time.Time) int {
	secs := int(d.ResetAt.Sub(now).Round(time.Second) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}

// Limiter applies fixed-window limits keyed by (identity, operation)
type Limiter struct {
	counter Counter
	now     func() time.Time
}

// NewLimiter creates a limiter over the given counter
func NewLimiter(counter Counter) *Limiter {
	return &Limiter{counter: counter, now: time.Now}
}

// CheckAndIncrement counts one request for identity against operation's window.
// Counter failures fail open.
func (l *Limiter) CheckAndIncrement(ctx context.Context, identity, operation string, window time.Duration, maxRequests int) Decision {
	now := l.now()
	key := Key(identity, operation)

	count, ttl, err := l.counter.Increment(ctx, key, window)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("rate limiter unavailable, allowing request")
		return Decision{
			Allowed:    true,
			Remaining:  maxRequests,
			ResetAt:    now.Add(window),
			FailedOpen: true,
		}
	}

	if ttl <= 0 || ttl > window {
		ttl = window
	}

	remaining := maxRequests - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return Decision{
		Allowed:   count <= int64(maxRequests),
		Remaining: remaining,
		ResetAt:   now.Add(ttl),
	}
}

// Key builds the counter key for an identity and operation
func Key(identity, operation string) string {
	return fmt.Sprintf("%s:%s", operation, identity)
}
