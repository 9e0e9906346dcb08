package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smurfatcher/harrier/internal/domain"
)

// RedisCache implements Cache using Redis. Used as the Pro tier cache so
// insight bundles survive service restarts and are shared across replicas.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Redis cache.
func NewRedisCache(addr, password string, db int) (*RedisCache, error) {
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// Get retrieves a value from Redis.
func (c *RedisCache) Get(ctx context.Context, sessionID string, key string) ([]byte, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("sessionID is required")
	}

	fullKey := c.makeKey(sessionID, key)
	val, err := c.client.Get(ctx, fullKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

// Set stores a value in Redis with TTL.
func (c *RedisCache) Set(ctx context.Context, sessionID string, key string, value []byte, ttl time.Duration) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID is required")
	}

	fullKey := c.makeKey(sessionID, key)
	return c.client.Set(ctx, fullKey, value, ttl).Err()
}

// Delete removes a value from Redis.
func (c *RedisCache) Delete(ctx context.Context, sessionID string, key string) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID is required")
	}

	fullKey := c.makeKey(sessionID, key)
	return c.client.Del(ctx, fullKey).Err()
}

// GetInsights retrieves a cached insight bundle.
func (c *RedisCache) GetInsights(ctx context.Context, sessionID string, caseID string) (*domain.Insights, error) {
	data, err := c.Get(ctx, sessionID, "insights:"+caseID)
	if err != nil || data == nil {
		return nil, err
	}

	var ins domain.Insights
	if err := json.Unmarshal(data, &ins); err != nil {
		return nil, err
	}
	return &ins, nil
}

// SetInsights caches an insight bundle under its case ID.
func (c *RedisCache) SetInsights(ctx context.Context, sessionID string, caseID string, ins *domain.Insights, ttl time.Duration) error {
	bytes, err := json.Marshal(ins)
	if err != nil {
		return err
	}
	return c.Set(ctx, sessionID, "insights:"+caseID, bytes, ttl)
}

// Ping checks Redis connectivity.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) makeKey(sessionID, key string) string {
	return "harrier:" + sessionID + ":" + key
}
