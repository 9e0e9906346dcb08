package domain

import (
	"context"
	"time"
)

// Cache defines the interface for caching generated insights.
// Supports local LRU (Community) or Redis (Pro).
// All methods require sessionID for strict session isolation.
type Cache interface {
	// Get retrieves a value from cache. Returns nil, nil if key not found.
	Get(ctx context.Context, sessionID string, key string) ([]byte, error)

	// Set stores a value in cache with expiration.
	Set(ctx context.Context, sessionID string, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from cache.
	Delete(ctx context.Context, sessionID string, key string) error

	// GetInsights retrieves the cached insight bundle for a case.
	GetInsights(ctx context.Context, sessionID string, caseID string) (*Insights, error)

	// SetInsights caches the insight bundle for a case. The case ID is the
	// invalidation key: a new case load writes under a new key and the old
	// bundle ages out.
	SetInsights(ctx context.Context, sessionID string, caseID string, ins *Insights, ttl time.Duration) error

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// CacheConfig holds configuration for cache initialization.
type CacheConfig struct {
	// Type is the cache type: "memory" or "redis"
	Type string

	// Local LRU cache settings (Community tier)
	LocalMaxSize int
	LocalTTL     time.Duration

	// Redis settings (Pro tier)
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}
