// Package cache provides a small key-based TTL cache for remote reads.
//
// Readers never take a lock: entries live in an immutable map published through an
// atomic pointer, and writers (serialized by a mutex) swap in a modified copy.
package cache

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Clock abstracts time so tests can drive expiry.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock. time.Now carries a monotonic reading,
// so expiry comparisons are immune to wall-clock jumps.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

type entry struct {
	value     any
	storedAt  time.Time
	expiresIn time.Duration
}

// Cache is safe for concurrent use.
type Cache struct {
	clock   Clock
	mu      sync.Mutex
	entries atomic.Pointer[map[string]entry]
}

// New creates an empty cache. A nil clock uses SystemClock.
func New(clock Clock) *Cache {
	if clock == nil {
		clock = SystemClock{}
	}
	c := &Cache{clock: clock}
	empty := map[string]entry{}
	c.entries.Store(&empty)
	return c
}

// Get returns the cached value if it has not expired.
// Expired entries are reported as missing; they are dropped on the next write.
func (c *Cache) Get(key string) (any, bool) {
	e, ok := (*c.entries.Load())[key]
	if !ok {
		return nil, false
	}
	if c.clock.Now().Sub(e.storedAt) > e.expiresIn {
		return nil, false
	}
	return e.value, true
}

// Set stores value under key for ttl.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	now := c.clock.Now()
	c.update(func(m map[string]entry) {
		m[key] = entry{value: value, storedAt: now, expiresIn: ttl}
	})
}

// Purge removes every key containing pattern, or everything when pattern is empty.
func (c *Cache) Purge(pattern string) {
	c.update(func(m map[string]entry) {
		for k := range m {
			if pattern == "" || strings.Contains(k, pattern) {
				delete(m, k)
			}
		}
	})
}

// Len reports the number of live entries.
func (c *Cache) Len() int {
	now := c.clock.Now()
	n := 0
	for _, e := range *c.entries.Load() {
		if now.Sub(e.storedAt) <= e.expiresIn {
			n++
		}
	}
	return n
}

func (c *Cache) update(fn func(map[string]entry)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	current := *c.entries.Load()
	next := make(map[string]entry, len(current)+1)
	for k, e := range current {
		if now.Sub(e.storedAt) <= e.expiresIn {
			next[k] = e
		}
	}
	fn(next)
	c.entries.Store(&next)
}

// Fetch returns the cached value for key, or calls load and caches its result on success.
func Fetch[T any](c *Cache, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	v, err := load()
	if err != nil {
		var zero T
		return zero, err
	}
	c.Set(key, v, ttl)
	return v, nil
}
