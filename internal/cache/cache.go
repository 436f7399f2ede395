// Package cache provides a Redis-backed result cache and the CachingAnalyzer
// composition that replaces ad-hoc decoration of the detector.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "manipmon:"

// Store is the minimal key-value contract the caching layer needs
type Store interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
}

// ErrMiss is returned by Get when the key is absent or expired
var ErrMiss = redis.Nil

// RedisStore implements Store over a Redis client with JSON values
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects a store to the given Redis instance
func NewRedisStore(addr, password string, db int) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

// Ping verifies the connection
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Set stores value as JSON under key with a TTL
func (s *RedisStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, keyPrefix+key, data, ttl).Err()
}

// Get loads the JSON value under key into dest; redis.Nil signals a miss
func (s *RedisStore) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := s.client.Get(ctx, keyPrefix+key).Result()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

// Close releases the underlying client
func (s *RedisStore) Close() error {
	return s.client.Close()
}
