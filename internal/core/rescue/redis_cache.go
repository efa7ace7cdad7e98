package rescue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bekal-bangsa/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisCache keeps the slot under a single Redis key so every replica shares it.
// Redis failures degrade to a miss on Lookup and a no-op on Store.
type RedisCache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// RedisOptions configures NewRedisCache.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Key      string
	TTL      time.Duration
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(ctx context.Context, opts RedisOptions) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisCacheWithClient(client, opts.Key, opts.TTL), nil
}

// NewRedisCacheWithClient wraps an existing client. A zero ttl keeps the slot until overwritten.
func NewRedisCacheWithClient(client *redis.Client, key string, ttl time.Duration) *RedisCache {
	if key == "" {
		key = "bekal:rescue_menu"
	}
	return &RedisCache{
		client: client,
		key:    key,
		ttl:    ttl,
	}
}

// Lookup reads the slot and compares its key.
func (c *RedisCache) Lookup(ctx context.Context, key string) (*common.RescueRecipe, bool) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		if err != redis.Nil {
			common.LogWarn("rescue cache read failed", zap.Error(err))
		}
		common.LogCacheMiss("rescue", key)
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		common.LogWarn("rescue cache entry unreadable", zap.Error(err))
		return nil, false
	}
	if entry.Recipe == nil || entry.Key != key {
		common.LogCacheMiss("rescue", key)
		return nil, false
	}

	common.LogCacheHit("rescue", key)
	return entry.Recipe, true
}

// Store overwrites the slot.
func (c *RedisCache) Store(ctx context.Context, key string, recipe *common.RescueRecipe) {
	if recipe == nil {
		return
	}
	data, err := json.Marshal(Entry{Key: key, Recipe: recipe})
	if err != nil {
		common.LogWarn("rescue cache marshal failed", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		common.LogWarn("rescue cache write failed", zap.Error(err))
	}
}

// Ping checks the Redis connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
