// Package cache stores serialized analyses and rendered artifacts.
//
// # Backends
//
// Every backend implements [Cache]:
//
//   - [NullCache]: never stores anything (caching disabled)
//   - [FileCache]: one JSON file per key under a directory (CLI default)
//   - [LRUCache]: bounded in-process cache (API server default)
//   - [RedisCache]: shared cache for several API replicas
//
// [Observe] wraps any backend so hits, misses and writes reach the
// registered observability.CacheHooks.
//
// # Keys
//
// Keys come from a [Keyer]. [DefaultKeyer] hashes the content hash of the
// input together with every option that influences the output, so changing a
// seed or an epoch count never returns a stale analysis. [ScopedKeyer] adds a
// prefix for per-tenant isolation.
//
// # Errors
//
// A miss is not an error: Get returns (nil, false, nil). Network backends
// wrap transient failures with [Retryable] and retry them with
// [RetryWithBackoff].
package cache

import (
	"context"
	"time"
)

// TTLs for cached entries. Zero means no expiry.
const (
	// TTLAnalysis bounds how long an analysis stays cached. Analyses are pure
	// functions of their key, so the TTL only limits disk and memory use.
	TTLAnalysis = 7 * 24 * time.Hour

	// TTLArtifact bounds how long rendered output stays cached.
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}
