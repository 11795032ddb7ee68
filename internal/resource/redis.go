package resource

import (
	"sync"

	"github.com/redis/go-redis/v9"
)

var (
	cacheRedis *redis.Client
	redisOnce  sync.Once
)

// SetCacheRedis sets the optional redis client used for count caching.
// The service runs fine without it; callers must handle a nil return.
func SetCacheRedis(cli *redis.Client) {
	if cli == nil {
		return
	}
	redisOnce.Do(func() {
		cacheRedis = cli
	})
}

// CacheRedis returns the redis client, or nil when redis is not configured.
func CacheRedis() *redis.Client {
	return cacheRedis
}
