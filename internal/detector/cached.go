package detector

import (
	"context"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"

	"github.com/tx-grouper/internal/grouper"
	"github.com/tx-grouper/pkg/model"
)

// DefaultCacheSize is used when a non-positive size is requested.
const DefaultCacheSize = 4096

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Hits   int64
	Misses int64
	Size   int
}

// Cached memoizes the resource sets of another detector, keyed by chain and
// the computed payload hash. Failed detections are not stored. Entries never
// expire, so contract changes take effect after Purge or a restart.
type Cached struct {
	inner  grouper.ResourceDetector
	cache  *lru.ARCCache
	hits   atomic.Int64
	misses atomic.Int64
}

var _ grouper.ResourceDetector = (*Cached)(nil)

// NewCached wraps inner with an ARC cache holding up to size entries.
func NewCached(inner grouper.ResourceDetector, size int) (*Cached, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.NewARC(size)
	if err != nil {
		return nil, err
	}
	return &Cached{inner: inner, cache: cache}, nil
}

// Detect implements grouper.ResourceDetector.
func (c *Cached) Detect(ctx context.Context, chainID string, tx *model.Transaction) ([]model.ResourceKey, error) {
	// Supplied hashes are not trusted; two payloads must never share a key.
	key := chainID + "/" + tx.ComputeHash()

	if v, ok := c.cache.Get(key); ok {
		c.hits.Add(1)
		return cloneKeys(v.([]model.ResourceKey)), nil
	}
	c.misses.Add(1)

	keys, err := c.inner.Detect(ctx, chainID, tx)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, cloneKeys(keys))
	return keys, nil
}

// Stats returns hit and miss counters and the current entry count.
func (c *Cached) Stats() CacheStats {
	return CacheStats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Size:   c.cache.Len(),
	}
}

// Purge drops every cached entry.
func (c *Cached) Purge() {
	c.cache.Purge()
}

func cloneKeys(keys []model.ResourceKey) []model.ResourceKey {
	out := make([]model.ResourceKey, len(keys))
	copy(out, keys)
	return out
}
