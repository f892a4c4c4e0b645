package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryCounter is a process-local Counter for single-instance deployments
// without Redis. Counts are not shared between instances.
type MemoryCounter struct {
	mu      sync.Mutex
	windows map[string]*memoryWindow
	now     func() time.Time
}

type memoryWindow struct {
	count     int64
	expiresAt time.Time
}

// NewMemoryCounter creates an empty in-process counter
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{
		windows: make(map[string]*memoryWindow),
		now:     time.Now,
	}
}

// Increment implements Counter
func (c *MemoryCounter) Increment(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	w, ok := c.windows[key]
	if !ok || !now.Before(w.expiresAt) {
		w = &memoryWindow{expiresAt: now.Add(window)}
		c.windows[key] = w
		c.sweep(now)
	}
	w.count++

	return w.count, w.expiresAt.Sub(now), nil
}

// sweep drops expired windows; called only when a window is created
func (c *MemoryCounter) sweep(now time.Time) {
	for k, w := range c.windows {
		if !now.Before(w.expiresAt) {
			delete(c.windows, k)
		}
	}
}
