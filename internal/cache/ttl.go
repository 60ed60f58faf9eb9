package cache

import (
	"sync"
	"time"
)

// TTL is a bounded map whose entries expire a fixed time after they are set.
// When it is full, the entry closest to expiry makes room for the new one.
type TTL[T any] struct {
	mu      sync.Mutex
	limit   int
	ttl     time.Duration
	now     func() time.Time
	entries map[string]ttlEntry[T]
}

type ttlEntry[T any] struct {
	value   T
	expires time.Time
}

var _ Cache[string] = (*TTL[string])(nil)

func NewTTL[T any](limit int, ttl time.Duration) *TTL[T] {
	if limit < 1 {
		limit = 1
	}
	return &TTL[T]{
		limit:   limit,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]ttlEntry[T], limit),
	}
}

func (c *TTL[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero T
		return zero, false
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, key)
		var zero T
		return zero, false
	}
	return e.value, true
}

func (c *TTL[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, ok := c.entries[key]; !ok && len(c.entries) >= c.limit {
		c.pruneLocked(now)
		if len(c.entries) >= c.limit {
			c.evictSoonestLocked()
		}
	}
	c.entries[key] = ttlEntry[T]{value: value, expires: now.Add(c.ttl)}
}

func (c *TTL[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *TTL[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pruneLocked(c.now())
	return len(c.entries)
}

func (c *TTL[T]) pruneLocked(now time.Time) {
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
		}
	}
}

func (c *TTL[T]) evictSoonestLocked() {
	var (
		victim string
		first  time.Time
	)
	for k, e := range c.entries {
		if first.IsZero() || e.expires.Before(first) {
			victim, first = k, e.expires
		}
	}
	delete(c.entries, victim)
}
