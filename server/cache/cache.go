package cache

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// Cache stores prediction results keyed by image content. Values are
// marshaled to JSON so the memory and Redis implementations behave
// identically.
type Cache interface {
	Set(ctx context.Context, key string, value interface{}) error

	SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	Get(ctx context.Context, key string, dest interface{}) error

	Delete(ctx context.Context, key string) error

	Exists(ctx context.Context, key string) (bool, error)

	GetStats(ctx context.Context) (*CacheStats, error)

	Close() error
}

type CacheStats struct {
	Connected bool   `json:"connected"`
	Info      string `json:"info"`
}

// GenerateCacheKey hashes the components into a stable hex key.
func GenerateCacheKey(components ...string) string {
	h := sha256.New()
	for _, component := range components {
		h.Write([]byte(component))
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
