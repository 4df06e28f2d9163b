package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisConfig encapsulates Redis connectivity.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Redis persists key/value pairs in a Redis instance.
type Redis struct {
	client *redis.Client
}

// NewRedis constructs a Redis backend.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis.addr is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Redis{client: client}, nil
}

// Close releases the client connections.
func (r *Redis) Close() {
	if r == nil || r.client == nil {
		return
	}
	_ = r.client.Close()
}

// Get returns the stored value for key, or ErrKeyNotFound.
func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	if r == nil || r.client == nil {
		return "", ErrNotConfigured
	}

	value, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

// Put writes or replaces the value for key. Entries never expire.
func (r *Redis) Put(ctx context.Context, key, value string) error {
	if r == nil || r.client == nil {
		return ErrNotConfigured
	}

	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

var _ Backend = (*Redis)(nil)
