// Package cache stores generated insight bundles per session and case.
package cache

import (
	"fmt"

	"github.com/smurfatcher/harrier/internal/domain"
)

// New creates a cache from configuration.
// Community tier: in-memory LRU. Pro tier: Redis.
func New(cfg domain.CacheConfig) (domain.Cache, error) {
	switch cfg.Type {
	case "memory":
		return NewLRUCache(cfg.LocalMaxSize), nil

	case "redis":
		return NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}
}
