package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is the shared-cache variant of Store for multi-instance
// deployments. Errors degrade to cache misses.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewRedis(cfg RedisConfig, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.client.Get(ctx, key).Bytes()

	if err != nil {
		return nil, false
	}

	return val, true
}

func (c *RedisCache) Set(ctx context.Context, key string, val []byte) {
	_ = c.client.Set(ctx, key, val, c.ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, key string) {
	_ = c.client.Del(ctx, key).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
