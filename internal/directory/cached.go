package directory

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// CachedDirectory wraps a Directory with a TTL cache so repeated subscribes
// from the same user do not hammer the directory service. Unknown users are
// not cached: a user created moments ago should resolve on retry.
type CachedDirectory struct {
	inner Directory
	cache *gocache.Cache
}

// NewCachedDirectory decorates inner with a cache of the given TTL.
func NewCachedDirectory(inner Directory, ttl time.Duration) *CachedDirectory {
	return &CachedDirectory{
		inner: inner,
		cache: gocache.New(ttl, 30*time.Second),
	}
}

func (d *CachedDirectory) Resolve(ctx context.Context, userID string) (Identity, error) {
	if v, found := d.cache.Get(userID); found {
		return v.(Identity), nil
	}
	identity, err := d.inner.Resolve(ctx, userID)
	if err != nil {
		return Identity{}, err
	}
	d.cache.SetDefault(userID, identity)
	return identity, nil
}
