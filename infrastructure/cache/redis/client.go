// ABOUTME: Redis cache implementation using go-redis with ReJSON documents
// ABOUTME: Stores entries as JSON so other consumers can inspect them in place

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/nitishm/go-rejson/v4"
	goredis "github.com/redis/go-redis/v9"

	"yana/pkg/config"
)

// entry is the JSON document stored per cache key
type entry struct {
	Value    []byte    `json:"value"`
	CachedAt time.Time `json:"cachedAt"`
}

// RedisCache implements the Cache interface using Redis
type RedisCache struct {
	client  *goredis.Client
	handler *rejson.Handler
}

// NewRedisCache creates a new Redis cache instance
func NewRedisCache(cfg config.RedisConfig) (*RedisCache, error) {
	if cfg.Address == "" {
		return nil, errors.New("redis address cannot be empty")
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	handler := rejson.NewReJSONHandler()
	handler.SetGoRedisClientWithContext(context.Background(), client)

	return &RedisCache{
		client:  client,
		handler: handler,
	}, nil
}

// Get retrieves a value from Redis
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := c.handler.JSONGet(key, ".")
	if err != nil {
		return nil, errors.New("key not found")
	}

	data, ok := raw.([]byte)
	if !ok {
		return nil, errors.New("unexpected reply type")
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}

	return e.Value, nil
}

// Set stores a value in Redis with the given TTL
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{Value: value, CachedAt: time.Now().UTC()}

	if _, err := c.handler.JSONSet(key, ".", e); err != nil {
		return err
	}

	if ttl > 0 {
		return c.client.Expire(ctx, key, ttl).Err()
	}
	return nil
}

// Delete removes a key from Redis
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	// Deleting a non-existent key is not an error for our use case
	c.client.Del(ctx, key)
	return nil
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
