// Package cache stores the global engagement report between recomputes.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/blog-engagement/services/engagement/internal/engagement"
)

// DefaultKey is the Redis key holding the encoded report.
const DefaultKey = "engagement:report:global"

// RedisReportCache shares one report across every service instance.
type RedisReportCache struct {
	Client *redis.Client
	Key    string
	TTL    time.Duration
}

// NewRedisReportCache parses a redis:// URL. A bare host:port is accepted too.
func NewRedisReportCache(url string, ttl time.Duration) *RedisReportCache {
	opts, err := redis.ParseURL(url)
	if err != nil {
		opts = &redis.Options{Addr: url}
	}
	return &RedisReportCache{Client: redis.NewClient(opts), Key: DefaultKey, TTL: ttl}
}

func (c *RedisReportCache) Get(ctx context.Context) (engagement.Report, bool, error) {
	val, err := c.Client.Get(ctx, c.Key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return engagement.Report{}, false, nil
		}
		return engagement.Report{}, false, err
	}
	var r engagement.Report
	if err := json.Unmarshal(val, &r); err != nil {
		return engagement.Report{}, false, err
	}
	return r, true, nil
}

func (c *RedisReportCache) Set(ctx context.Context, r engagement.Report) error {
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, c.Key, b, c.TTL).Err()
}

func (c *RedisReportCache) Invalidate(ctx context.Context) error {
	return c.Client.Del(ctx, c.Key).Err()
}

// Ping checks connectivity; used for readiness.
func (c *RedisReportCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisReportCache) Close() error {
	return c.Client.Close()
}
