package ratelimit

import (
	"context"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/invoicedesk/internal/config"
	"go.uber.org/zap"
)

const keyPrefix = "invoicedesk:ratelimit:actor:"

// ActorLimiter throttles API calls per actor. A nil limiter allows everything.
type ActorLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
	log    *zap.Logger
}

// NewActorLimiter returns nil when redis or the limit is not configured.
func NewActorLimiter(cfg config.Config, client *redis.Client, log *zap.Logger) *ActorLimiter {
	if client == nil || cfg.RateLimit.PerMinute <= 0 {
		return nil
	}
	burst := cfg.RateLimit.Burst
	if burst <= 0 {
		burst = cfg.RateLimit.PerMinute
	}
	return &ActorLimiter{
		bucket: NewTokenBucket(client),
		rate:   float64(cfg.RateLimit.PerMinute) / 60,
		burst:  burst,
		log:    log.Named("ratelimit"),
	}
}

// Allow fails open when redis is unreachable.
func (l *ActorLimiter) Allow(ctx context.Context, actorID string) Result {
	if l == nil {
		return Result{Allowed: true}
	}
	res, err := l.bucket.Allow(ctx, keyPrefix+actorID, l.rate, l.burst)
	if err != nil {
		l.log.Warn("rate limit check failed", zap.String("actor_id", actorID), zap.Error(err))
		return Result{Allowed: true, Limit: l.burst}
	}
	return res
}
