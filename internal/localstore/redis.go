// Package localstore provides durable key-value storage for timer state.
package localstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps values in redis so timer state outlives server restarts.
type RedisStore struct {
	client  *redis.Client
	prefix  string
	ttl     time.Duration
	timeout time.Duration
}

// NewRedisStore stores keys under prefix. A zero ttl keeps values forever.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client:  client,
		prefix:  prefix,
		ttl:     ttl,
		timeout: 3 * time.Second,
	}
}

func (s *RedisStore) Get(key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	val, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return val, true, nil
}

func (s *RedisStore) Set(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.client.Set(ctx, s.prefix+key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Remove(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
