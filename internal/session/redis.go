package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend keeps values in Redis keyed by session id.
// Every write refreshes the idle TTL of that key.
type RedisBackend struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisBackend creates a Redis backed store
func NewRedisBackend(client *redis.Client, ttl time.Duration) *RedisBackend {
	return &RedisBackend{
		client: client,
		ttl:    ttl,
	}
}

func (b *RedisBackend) Get(ctx context.Context, key string) (string, bool, error) {
	k, err := redisKey(ctx, key)
	if err != nil {
		return "", false, err
	}
	value, err := b.client.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get failed: %w", err)
	}
	return value, true, nil
}

func (b *RedisBackend) Set(ctx context.Context, key, value string) error {
	k, err := redisKey(ctx, key)
	if err != nil {
		return err
	}
	if err := b.client.Set(ctx, k, value, b.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (b *RedisBackend) Delete(ctx context.Context, key string) error {
	k, err := redisKey(ctx, key)
	if err != nil {
		return err
	}
	if err := b.client.Del(ctx, k).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func redisKey(ctx context.Context, key string) (string, error) {
	id, ok := IDFromContext(ctx)
	if !ok {
		return "", ErrNoSession
	}
	return fmt.Sprintf("session:%s:%s", id, key), nil
}
