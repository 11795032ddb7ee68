package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/O-HAM-MA/apartner-sub000/internal/resource"
)

const (
	unreadKeyPrefix = "apartner:notification:unread:"
	unreadTTL       = 30 * time.Second
)

// GetUnreadCount returns the cached unread count for a user. The second
// return value is false when redis is absent, the key is missing, or the
// lookup failed; callers fall back to the database.
func GetUnreadCount(ctx context.Context, userID string) (int64, bool) {
	cli := resource.CacheRedis()
	if cli == nil {
		return 0, false
	}
	val, err := cli.Get(ctx, unreadKeyPrefix+userID).Result()
	if err != nil {
		return 0, false
	}
	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false
	}
	return count, true
}

// SetUnreadCount caches the unread count with a short TTL.
func SetUnreadCount(ctx context.Context, userID string, count int64) {
	cli := resource.CacheRedis()
	if cli == nil {
		return
	}
	_ = cli.Set(ctx, unreadKeyPrefix+userID, count, unreadTTL).Err()
}

// InvalidateUnreadCount drops the cached count after any write that can
// change it (create, mark-read, retention cleanup).
func InvalidateUnreadCount(ctx context.Context, userID string) {
	cli := resource.CacheRedis()
	if cli == nil {
		return
	}
	_ = cli.Del(ctx, unreadKeyPrefix+userID).Err()
}
