package cache

import (
	"sync"
	"time"
)

// DefaultTTL is how long an entry stays readable after its last Set
const DefaultTTL = 30 * time.Second

type entry struct {
	value    any
	storedAt time.Time
}

// TTL is an in-memory key/value store whose entries expire lazily on read.
// There is no background sweeper; an expired entry is evicted by the Get
// that observes it.
type TTL struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// Option configures a TTL cache
type Option func(*TTL)

// WithTTL overrides DefaultTTL
func WithTTL(ttl time.Duration) Option {
	return func(c *TTL) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(c *TTL) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates an empty cache
func New(opts ...Option) *TTL {
	c := &TTL{
		entries: make(map[string]entry),
		ttl:     DefaultTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Set stores value under key and resets its timestamp
func (c *TTL) Set(key string, value any) {
	c.mu.Lock()
	c.entries[key] = entry{value: value, storedAt: c.now()}
	c.mu.Unlock()
}

// Get returns the value if it is younger than the TTL. Expired entries are
// removed and reported as a miss.
func (c *TTL) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Invalidate removes a single entry
func (c *TTL) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear empties the cache
func (c *TTL) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// Len reports the number of stored entries, expired or not
func (c *TTL) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Lookup is a typed Get. An entry holding a value of another type is
// treated as corrupted: it is evicted and reported as a miss.
func Lookup[T any](c *TTL, key string) (T, bool) {
	var zero T
	v, ok := c.Get(key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		c.Invalidate(key)
		return zero, false
	}
	return typed, true
}
