package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(clock *fakeClock) *Limiter {
	counter := NewMemoryCounter()
	counter.now = clock.Now
	l := NewLimiter(counter)
	l.now = clock.Now
	return l
}

type failingCounter struct{}

func (failingCounter) Increment(context.Context, string, time.Duration) (int64, time.Duration, error) {
	return 0, 0, errors.New("connection refused")
}

func TestLimiter_TwentyFirstRequestRejected(t *testing.T) {
	start := time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: start}
	l := newTestLimiter(clock)
	ctx := context.Background()

	for i := 1; i <= 20; i++ {
		d := l.CheckAndIncrement(ctx, "session:abc", "property-chat", time.Minute, 20)
		require.True(t, d.Allowed, "request %d should be allowed", i)
		assert.Equal(t, 20-i, d.Remaining)
		clock.Advance(time.Second)
	}

	d := l.CheckAndIncrement(ctx, "session:abc", "property-chat", time.Minute, 20)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.False(t, d.ResetAt.After(start.Add(time.Minute)))
	assert.Equal(t, 40, d.RetryAfter(clock.Now()))
}

func TestLimiter_WindowResets(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)}
	l := newTestLimiter(clock)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		l.CheckAndIncrement(ctx, "id", "op", time.Minute, 3)
	}
	assert.False(t, l.CheckAndIncrement(ctx, "id", "op", time.Minute, 3).Allowed)

	clock.Advance(61 * time.Second)
	d := l.CheckAndIncrement(ctx, "id", "op", time.Minute, 3)
	assert.True(t, d.Allowed)
	assert.Equal(t, 2, d.Remaining)
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	l := newTestLimiter(clock)
	ctx := context.Background()

	assert.True(t, l.CheckAndIncrement(ctx, "a", "op", time.Minute, 1).Allowed)
	assert.False(t, l.CheckAndIncrement(ctx, "a", "op", time.Minute, 1).Allowed)
	assert.True(t, l.CheckAndIncrement(ctx, "b", "op", time.Minute, 1).Allowed)
	assert.True(t, l.CheckAndIncrement(ctx, "a", "other-op", time.Minute, 1).Allowed)
}

func TestLimiter_FailsOpen(t *testing.T) {
	l := NewLimiter(failingCounter{})

	d := l.CheckAndIncrement(context.Background(), "id", "op", time.Minute, 5)
	assert.True(t, d.Allowed)
	assert.True(t, d.FailedOpen)
	assert.Equal(t, 5, d.Remaining)
}

func TestLimiter_ConcurrentAcceptedNeverExceedsMax(t *testing.T) {
	l := NewLimiter(NewMemoryCounter())
	ctx := context.Background()

	var accepted int64
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.CheckAndIncrement(ctx, "burst", "op", time.Minute, 20).Allowed {
				atomic.AddInt64(&accepted, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(20), accepted)
}

func TestResolveIdentity(t *testing.T) {
	header := func(kv ...string) http.Header {
		h := http.Header{}
		for i := 0; i < len(kv); i += 2 {
			h.Set(kv[i], kv[i+1])
		}
		return h
	}

	t.Run("session id wins", func(t *testing.T) {
		got := ResolveIdentity(" sess-1 ", header("X-Forwarded-For", "1.2.3.4"))
		assert.Equal(t, "session:sess-1", got)
	})

	t.Run("forwarded for first hop", func(t *testing.T) {
		a := ResolveIdentity("", header("X-Forwarded-For", "1.2.3.4, 10.0.0.1"))
		b := ResolveIdentity("", header("X-Real-IP", "1.2.3.4"))
		assert.Equal(t, a, b)
		assert.Contains(t, a, "ip:")
		assert.NotContains(t, a, "1.2.3.4")
	})

	t.Run("priority order", func(t *testing.T) {
		got := ResolveIdentity("", header("X-Real-IP", "5.5.5.5", "CF-Connecting-IP", "6.6.6.6"))
		assert.Equal(t, ResolveIdentity("", header("X-Real-IP", "5.5.5.5")), got)
	})

	t.Run("edge proxy header", func(t *testing.T) {
		got := ResolveIdentity("", header("CF-Connecting-IP", "6.6.6.6"))
		assert.NotEqual(t, UnknownIdentity, got)
	})

	t.Run("unknown", func(t *testing.T) {
		assert.Equal(t, UnknownIdentity, ResolveIdentity("", http.Header{}))
	})
}
