package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClients separates blocking traffic from everything else: Store serves
// the job queue, timer state, refresh tokens and the chart cache, while PubSub
// is held by long-lived websocket subscriptions.
type RedisClients struct {
	Store  *redis.Client
	PubSub *redis.Client
}

func NewRedisClients(redisURL string) (*RedisClients, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	storeClient := redis.NewClient(opt)
	if err := storeClient.Ping(ctx).Err(); err != nil {
		storeClient.Close()
		return nil, fmt.Errorf("failed to ping Redis (store): %w", err)
	}

	pubsubOpt := *opt
	pubsubClient := redis.NewClient(&pubsubOpt)
	if err := pubsubClient.Ping(ctx).Err(); err != nil {
		storeClient.Close()
		pubsubClient.Close()
		return nil, fmt.Errorf("failed to ping Redis (pubsub): %w", err)
	}

	return &RedisClients{
		Store:  storeClient,
		PubSub: pubsubClient,
	}, nil
}

func (r *RedisClients) Close() {
	if err := r.Store.Close(); err != nil {
		log.Printf("redis store close: %v", err)
	}
	if err := r.PubSub.Close(); err != nil {
		log.Printf("redis pubsub close: %v", err)
	}
}
