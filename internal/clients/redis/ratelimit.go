package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/po-tati-x/potatix-sub004/internal/pkg/logger"
	"github.com/po-tati-x/potatix-sub004/internal/ratelimit"
)

// Limiter implements ratelimit.Limiter on a redis sorted set per key:
// members are request markers scored by arrival time, trimmed to the
// window on every check. Shared across replicas, unlike the in-memory
// fallback.
type Limiter struct {
	log    *logger.Logger
	rdb    *goredis.Client
	window time.Duration
	limit  int
	now    func() time.Time
}

func NewLimiter(log *logger.Logger, rdb *goredis.Client, window time.Duration, limit int) (*Limiter, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if rdb == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if window <= 0 {
		window = ratelimit.DefaultWindow
	}
	if limit <= 0 {
		limit = ratelimit.DefaultLimit
	}
	return &Limiter{
		log:    log.With("service", "RedisRateLimiter"),
		rdb:    rdb,
		window: window,
		limit:  limit,
		now:    time.Now,
	}, nil
}

func (l *Limiter) Allow(ctx context.Context, scope, identity string) (ratelimit.Decision, error) {
	key := ratelimit.Key(scope, identity)
	now := l.now()
	cutoff := now.Add(-l.window)

	pipe := l.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", cutoff.UnixNano()))
	countCmd := pipe.ZCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return ratelimit.Decision{}, fmt.Errorf("ratelimit window read: %w", err)
	}

	count := int(countCmd.Val())
	if count >= l.limit {
		return ratelimit.Decision{Allowed: false, Remaining: 0}, nil
	}

	pipe = l.rdb.TxPipeline()
	pipe.ZAdd(ctx, key, goredis.Z{
		Score:  float64(now.UnixNano()),
		Member: uuid.NewString(),
	})
	pipe.Expire(ctx, key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return ratelimit.Decision{}, fmt.Errorf("ratelimit window write: %w", err)
	}

	return ratelimit.Decision{Allowed: true, Remaining: l.limit - count - 1}, nil
}
