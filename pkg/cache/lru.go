package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultLRUSize is the entry bound used when NewLRUCache gets size <= 0.
const DefaultLRUSize = 512

// LRUCache is a bounded in-process cache. Least recently used entries are
// evicted once the size bound is reached; expired entries are dropped
// lazily on Get. It is safe for concurrent use.
type LRUCache struct {
	entries *lru.Cache[string, lruEntry]
}

type lruEntry struct {
	data      []byte
	expiresAt time.Time
}

// NewLRUCache creates a cache holding at most size entries.
func NewLRUCache(size int) (*LRUCache, error) {
	if size <= 0 {
		size = DefaultLRUSize
	}
	entries, err := lru.New[string, lruEntry](size)
	if err != nil {
		return nil, err
	}
	return &LRUCache{entries: entries}, nil
}

// Get returns a copy of the cached value.
func (c *LRUCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	e, ok := c.entries.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		c.entries.Remove(key)
		return nil, false, nil
	}
	return clone(e.data), true, nil
}

// Set stores a copy of data.
func (c *LRUCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	e := lruEntry{data: clone(data)}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	c.entries.Add(key, e)
	return nil
}

func (c *LRUCache) Delete(ctx context.Context, key string) error {
	c.entries.Remove(key)
	return nil
}

// Len returns the number of entries, including expired ones not yet evicted.
func (c *LRUCache) Len() int { return c.entries.Len() }

// Close drops every entry.
func (c *LRUCache) Close() error {
	c.entries.Purge()
	return nil
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}

var _ Cache = (*LRUCache)(nil)
