package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds rate limiter tuning parameters.
type Config struct {
	EnableRotateThrottle bool
	MaxRotateAttempts    int
	RotateCooldown       time.Duration

	EnableAuthFailureThrottle bool
	MaxAuthFailures           int
	AuthFailureCooldown       time.Duration
}

// Limiter enforces per-family rate limits for rotation and repeated
// authentication failures using Redis counters.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a rate [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

// CheckRotate enforces the rotation budget by incrementing the family's
// counter and applying the cooldown TTL.
func (l *Limiter) CheckRotate(ctx context.Context, familyID string) error {
	if !l.config.EnableRotateThrottle {
		return nil
	}

	count, err := l.incrementWithTTL(ctx, rotateKey(familyID), l.config.RotateCooldown)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxRotateAttempts) {
		return ErrRateLimited
	}

	return nil
}

// IncrementAuthFailure records a failed authentication for the family.
// Returns [ErrRateLimited] once the failure budget is exceeded.
func (l *Limiter) IncrementAuthFailure(ctx context.Context, familyID string) error {
	if !l.config.EnableAuthFailureThrottle {
		return nil
	}

	count, err := l.incrementWithTTL(ctx, authFailureKey(familyID), l.config.AuthFailureCooldown)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxAuthFailures) {
		return ErrRateLimited
	}

	return nil
}

// CheckAuthFailures checks the failure counter without incrementing it.
func (l *Limiter) CheckAuthFailures(ctx context.Context, familyID string) error {
	if !l.config.EnableAuthFailureThrottle {
		return nil
	}

	count, err := l.redis.Get(ctx, authFailureKey(familyID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count > int64(l.config.MaxAuthFailures) {
		return ErrRateLimited
	}

	return nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}

func rotateKey(familyID string) string {
	return "drl:" + familyID
}

func authFailureKey(familyID string) string {
	return "daf:" + familyID
}
