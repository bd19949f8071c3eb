package cache

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/foodweb/pkg/observability"
)

// Observe wraps c so that every Get and Set is reported to the registered
// [observability.CacheHooks]. The key type passed to the hooks is the key
// prefix up to the first colon ("analysis", "artifact", ...).
func Observe(c Cache) Cache {
	return &observed{Cache: c}
}

type observed struct {
	Cache
}

func (o *observed) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, hit, err := o.Cache.Get(ctx, key)
	if err == nil {
		if hit {
			observability.Cache().OnCacheHit(ctx, keyType(key))
		} else {
			observability.Cache().OnCacheMiss(ctx, keyType(key))
		}
	}
	return data, hit, err
}

func (o *observed) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := o.Cache.Set(ctx, key, data, ttl)
	if err == nil {
		observability.Cache().OnCacheSet(ctx, keyType(key), len(data))
	}
	return err
}

// keyType returns the segment before the hash, skipping scope prefixes.
func keyType(key string) string {
	parts := strings.Split(key, ":")
	if len(parts) < 2 {
		return "unknown"
	}
	return parts[len(parts)-2]
}
