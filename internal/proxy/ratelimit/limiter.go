// Package ratelimit limits how often one client may ask the proxy for a suggestion.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/commitcoach/commitcoach/internal/pkg/config"
)

// Result is the outcome of one Allow call.
type Result struct {
	Allowed bool
	// RetryAfter is how long until the next request would be allowed. Zero when allowed.
	RetryAfter time.Duration
}

// Limiter decides whether the client identified by key may make a request now.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// New builds the limiter named by cfg.Backend. The returned close function
// releases any connection the limiter holds.
func New(cfg config.RateLimitConfig, redisCfg config.RedisConfig) (Limiter, func() error, error) {
	switch cfg.Backend {
	case config.BackendMemory, "":
		return NewMemory(cfg.Max, cfg.Window), func() error { return nil }, nil
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     redisCfg.Addr,
			Password: redisCfg.Password,
			DB:       redisCfg.DB,
		})
		return NewRedis(client, redisCfg.KeyPrefix, cfg.Max, cfg.Window), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown rate limit backend: %s", cfg.Backend)
	}
}
