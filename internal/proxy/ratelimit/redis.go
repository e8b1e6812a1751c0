package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Redis is a rolling window limiter shared by every proxy instance using the
// same redis. Each key is a sorted set of request timestamps.
type Redis struct {
	client redis.UniversalClient
	prefix string
	max    int64
	window time.Duration
	now    func() time.Time
}

// NewRedis creates a limiter allowing max requests per rolling window.
func NewRedis(client redis.UniversalClient, prefix string, max int, window time.Duration) *Redis {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Redis{
		client: client,
		prefix: prefix,
		max:    int64(max),
		window: window,
		now:    time.Now,
	}
}

// Allow records the request and reports whether key is still within its window.
// Rejected requests are not counted.
func (r *Redis) Allow(ctx context.Context, key string) (Result, error) {
	now := r.now()
	setKey := r.prefix + key
	member := strconv.FormatInt(now.UnixMicro(), 10) + "-" + uuid.NewString()
	cutoff := strconv.FormatInt(now.Add(-r.window).UnixMicro(), 10)

	var card *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, setKey, "-inf", "("+cutoff)
		pipe.ZAdd(ctx, setKey, redis.Z{Score: float64(now.UnixMicro()), Member: member})
		card = pipe.ZCard(ctx, setKey)
		pipe.PExpire(ctx, setKey, r.window)
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("rate limit pipeline failed: %w", err)
	}

	if card.Val() <= r.max {
		return Result{Allowed: true}, nil
	}

	if err := r.client.ZRem(ctx, setKey, member).Err(); err != nil {
		return Result{}, fmt.Errorf("failed to discard rejected request: %w", err)
	}

	retryAfter := r.window
	oldest, err := r.client.ZRangeWithScores(ctx, setKey, 0, 0).Result()
	if err == nil && len(oldest) == 1 {
		frees := time.UnixMicro(int64(oldest[0].Score)).Add(r.window)
		if d := frees.Sub(now); d > 0 {
			retryAfter = d
		}
	}

	return Result{Allowed: false, RetryAfter: retryAfter}, nil
}
