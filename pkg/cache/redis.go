package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shoplite/shoplite-backend/pkg/config"
)

const (
	unreadCountKey = "shoplite:pos:notifications:unread_count"
	unreadCountTTL = 30 * time.Second
)

// Cache is a small redis-backed cache for hot read paths. All methods are
// nil-safe: a nil *Cache behaves as a cache that never hits, so callers can
// run without redis configured.
type Cache struct {
	client *redis.Client
}

// New connects to redis. Returns (nil, nil) when no address is configured,
// disabling caching.
func New(cfg *config.RedisConfig) (*Cache, error) {
	if cfg == nil || cfg.Addr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Cache{client: client}, nil
}

// Close closes the redis connection
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

// GetUnreadCount returns the cached unread-notification count.
// The second return value is false on a miss.
func (c *Cache) GetUnreadCount(ctx context.Context) (int64, bool) {
	if c == nil {
		return 0, false
	}

	n, err := c.client.Get(ctx, unreadCountKey).Int64()
	if err != nil {
		return 0, false
	}
	return n, true
}

// SetUnreadCount caches the unread-notification count with a short TTL.
func (c *Cache) SetUnreadCount(ctx context.Context, n int64) {
	if c == nil {
		return
	}
	c.client.Set(ctx, unreadCountKey, n, unreadCountTTL)
}

// InvalidateUnreadCount drops the cached count. Called whenever a
// notification is created or marked read.
func (c *Cache) InvalidateUnreadCount(ctx context.Context) {
	if c == nil {
		return
	}
	c.client.Del(ctx, unreadCountKey)
}

// Health reports redis connectivity
func (c *Cache) Health(ctx context.Context) map[string]string {
	if c == nil {
		return map[string]string{"status": "disabled"}
	}

	status := map[string]string{"status": "up"}

	ctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	if err := c.client.Ping(ctx).Err(); err != nil {
		status["status"] = "down"
		status["error"] = err.Error()
	}

	return status
}
