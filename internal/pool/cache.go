package pool

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// OnceCache is an idempotent compute-once cache: concurrent callers
// asking for the same key collapse to a single in-flight computation, and
// the first result computed for a key is the one every caller sees from
// then on. This is the invariant the kernel's pattern-matcher and
// symbolic-form caches need — at most one retained computation per key,
// with racing computations both allowed but only one result kept.
type OnceCache[V any] struct {
	group  singleflight.Group
	mu     sync.RWMutex
	values map[string]V
}

// NewOnceCache returns an empty cache.
func NewOnceCache[V any]() *OnceCache[V] {
	return &OnceCache[V]{values: map[string]V{}}
}

// Get returns the cached value for key, computing it via compute on first
// use. Errors are not cached: a failed computation leaves the key absent
// so a later call can retry.
func (c *OnceCache[V]) Get(key string, compute func() (V, error)) (V, error) {
	c.mu.RLock()
	v, ok := c.values[key]
	c.mu.RUnlock()
	if ok {
		return v, nil
	}
	out, err, _ := c.group.Do(key, func() (any, error) {
		c.mu.RLock()
		v, ok := c.values[key]
		c.mu.RUnlock()
		if ok {
			return v, nil
		}
		computed, err := compute()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.values[key] = computed
		c.mu.Unlock()
		return computed, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return out.(V), nil
}

// Peek reports the cached value without computing.
func (c *OnceCache[V]) Peek(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// Len reports how many keys have been populated.
func (c *OnceCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.values)
}
