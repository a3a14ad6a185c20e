package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"compatibility-workers/internal/common/config"
)

// RedisClient backs both the match cache and the recompute queue.
type RedisClient struct {
	Client *redis.Client
}

// NewRedis builds a client without dialing. Use Ping to check reachability.
// Cache calls carry their own short deadlines; the client timeouts only bound
// queue operations.
func NewRedis(cfg config.RedisConfig) *RedisClient {
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 10
	}
	return &RedisClient{Client: redis.NewClient(&redis.Options{
		Addr:                  cfg.Address,
		Password:              cfg.Password,
		DB:                    cfg.DB,
		ClientName:            "compatibility-workers",
		DialTimeout:           5 * time.Second,
		ReadTimeout:           3 * time.Second,
		WriteTimeout:          3 * time.Second,
		ContextTimeoutEnabled: true,
		PoolSize:              poolSize,
		MinIdleConns:          poolSize / 5,
	})}
}

func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (c *RedisClient) Close() error {
	if c.Client != nil {
		return c.Client.Close()
	}
	return nil
}
