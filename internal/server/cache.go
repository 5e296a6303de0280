package server

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/madc/lnk/internal/log"
)

// CachedFetcher wraps a Fetcher with a TTL cache so hot assets, the
// registry file above all, can skip the origin round trip. Only 200
// responses are cached; errors and non-200 statuses always go back to
// the origin. Purge drops everything, which the assets watcher calls
// when files change on disk.
type CachedFetcher struct {
	inner Fetcher
	ttl   time.Duration
	cache *gocache.Cache
}

// NewCachedFetcher wraps inner with the given TTL.
func NewCachedFetcher(inner Fetcher, ttl time.Duration) *CachedFetcher {
	return &CachedFetcher{
		inner: inner,
		ttl:   ttl,
		cache: gocache.New(ttl, 2*ttl),
	}
}

// Fetch returns the cached asset for path when present, otherwise
// delegates to the wrapped fetcher.
func (c *CachedFetcher) Fetch(ctx context.Context, path string) (*Asset, error) {
	if cached, found := c.cache.Get(path); found {
		if asset, ok := cached.(*Asset); ok {
			log.Debug(log.CatCache, "cache hit", "path", path)
			return asset, nil
		}
		log.Error(log.CatCache, "wrong type assertion when getting value", "path", path)
	}

	asset, err := c.inner.Fetch(ctx, path)
	if err != nil {
		return nil, err
	}
	if asset.Status == 200 {
		c.cache.Set(path, asset, c.ttl)
	}
	return asset, nil
}

// Purge drops all cached assets.
func (c *CachedFetcher) Purge() {
	c.cache.Flush()
	log.Debug(log.CatCache, "cache purged")
}
