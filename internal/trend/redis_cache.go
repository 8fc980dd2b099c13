package trend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"trading-persona-analyzer/internal/interfaces"
)

const redisKeyPrefix = "trend:candles:"

// RedisCache shares cached candles between machines.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ interfaces.Cache = (*RedisCache)(nil)

func NewRedisCache(addr string, ttl time.Duration) (*RedisCache, error) {
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return &RedisCache{rdb: rdb, ttl: ttl}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.rdb.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, data []byte) error {
	return c.rdb.Set(ctx, redisKeyPrefix+key, data, c.ttl).Err()
}

func (c *RedisCache) Close() error {
	return c.rdb.Close()
}
