package lease

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisLease struct {
	client *redis.Client
}

func NewRedisLease(ctx context.Context, redisURL string) (*RedisLease, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &RedisLease{client: client}, nil
}

func (l *RedisLease) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, "lease:"+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquiring lease %s: %w", key, err)
	}

	return ok, nil
}

func (l *RedisLease) Release(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, "lease:"+key).Err(); err != nil {
		return fmt.Errorf("releasing lease %s: %w", key, err)
	}

	return nil
}

func (l *RedisLease) Close() error {
	return l.client.Close()
}
