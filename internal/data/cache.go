package data

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type cacheEntry[T any] struct {
	value     T
	expiresAt time.Time
}

// RunCache keeps finished runs in memory for a fixed TTL under generated IDs.
// It is owned by whoever constructs it; Close stops the cleanup goroutine.
type RunCache[T any] struct {
	mu    sync.RWMutex
	store map[string]cacheEntry[T]
	ttl   time.Duration
	now   func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewRunCache starts a cache whose entries expire after ttl. Expired entries are
// swept every sweep interval; a non-positive sweep disables the sweeper and leaves
// expiry to Get.
func NewRunCache[T any](ttl, sweep time.Duration) *RunCache[T] {
	c := &RunCache[T]{
		store: make(map[string]cacheEntry[T]),
		ttl:   ttl,
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	if sweep > 0 {
		go c.cleanup(sweep)
	}
	return c
}

// Put stores v and returns its ID.
func (c *RunCache[T]) Put(v T) string {
	id := uuid.NewString()
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store[id] = cacheEntry[T]{value: v, expiresAt: c.now().Add(c.ttl)}
	return id
}

// Get returns the value stored under id if it has not expired.
func (c *RunCache[T]) Get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.store[id]
	if !ok || c.now().After(entry.expiresAt) {
		var zero T
		return zero, false
	}
	return entry.value, true
}

func (c *RunCache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Clear removes all entries.
func (c *RunCache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = make(map[string]cacheEntry[T])
}

func (c *RunCache[T]) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *RunCache[T]) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

// sweep removes expired entries.
func (c *RunCache[T]) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for id, entry := range c.store {
		if now.After(entry.expiresAt) {
			delete(c.store, id)
		}
	}
}
