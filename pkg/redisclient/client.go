package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/O-HAM-MA/apartner-sub000/pkg/config"
)

// Client wraps a go-redis client so the rest of the service never imports the
// driver directly.
type Client struct {
	raw *redis.Client
}

// New connects to redis and pings it once to fail fast on bad config.
func New(cfg config.RedisConfig) (*Client, error) {
	raw := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return &Client{raw: raw}, nil
}

// Raw exposes the underlying client for packages that need driver types.
func (c *Client) Raw() *redis.Client {
	return c.raw
}

// Close releases the connection pool.
func (c *Client) Close() error {
	if c == nil || c.raw == nil {
		return nil
	}
	return c.raw.Close()
}
