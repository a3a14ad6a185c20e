package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by a Store when the key does not exist.
var ErrMiss = errors.New("cache: miss")

// Store is the key/value contract the cache layer needs.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePattern(ctx context.Context, pattern string) (int, error)
}

// RedisStore implements Store on go-redis.
type RedisStore struct {
	client    redis.UniversalClient
	scanCount int64
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client, scanCount: 200}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return b, err
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// DeletePattern walks the keyspace with SCAN rather than KEYS so large
// keyspaces do not block the server.
func (s *RedisStore) DeletePattern(ctx context.Context, pattern string) (int, error) {
	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, s.scanCount).Result()
		if err != nil {
			return deleted, err
		}
		if len(keys) > 0 {
			n, err := s.client.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, err
			}
			deleted += int(n)
		}
		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}

// NopStore is used when no cache backend is configured. Every read misses.
type NopStore struct{}

func (NopStore) Get(context.Context, string) ([]byte, error) { return nil, ErrMiss }

func (NopStore) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (NopStore) DeletePattern(context.Context, string) (int, error) { return 0, nil }
