package ratelimit

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/brightboard/llmgateway/src/config"
	"github.com/brightboard/llmgateway/src/models"
)

const (
	minuteKeyPrefix = "rate_limit:minute:"
	dayKeyPrefix    = "rate_limit:day:"
)

// Limiter enforces fixed-window admission control with one per-minute and
// one per-day counter per caller. Counters are shared across process
// instances through Redis and expire with their window.
//
// Fixed windows are intentionally bursty: a caller can issue up to 2x the
// per-minute cap across a window boundary.
type Limiter struct {
	client *redis.Client
	cfg    *config.RateLimitConfig
	now    func() time.Time
}

func NewLimiter(client *redis.Client, cfg *config.RateLimitConfig) *Limiter {
	return &Limiter{
		client: client,
		cfg:    cfg,
		now:    time.Now,
	}
}

// CheckAndRecord atomically increments both window counters and reports
// whether the caller is admitted. The increment happens even when the
// request ends up rejected.
func (l *Limiter) CheckAndRecord(ctx context.Context, userID string) (*models.RateLimitResult, error) {
	now := l.now().UTC()
	minuteKey, dayKey := l.windowKeys(userID, now)

	pipe := l.client.Pipeline()
	minuteCount := pipe.Incr(ctx, minuteKey)
	pipe.Expire(ctx, minuteKey, time.Minute)
	dayCount := pipe.Incr(ctx, dayKey)
	pipe.Expire(ctx, dayKey, 24*time.Hour)

	if _, err := pipe.Exec(ctx); err != nil {
		if l.cfg.FailOpen {
			log.Printf("rate limiter store unavailable, failing open: %v", err)
			return &models.RateLimitResult{Allowed: true}, nil
		}
		return nil, &models.StoreUnavailableError{Component: "rate limiter", Err: err}
	}

	if int(minuteCount.Val()) > l.cfg.RequestsPerMinute {
		return &models.RateLimitResult{
			Allowed:           false,
			Scope:             models.ScopeMinute,
			RetryAfterSeconds: secondsToNextMinute(now),
		}, nil
	}
	if int(dayCount.Val()) > l.cfg.RequestsPerDay {
		return &models.RateLimitResult{
			Allowed:           false,
			Scope:             models.ScopeDay,
			RetryAfterSeconds: secondsToNextUTCMidnight(now),
		}, nil
	}

	return &models.RateLimitResult{Allowed: true}, nil
}

// GetUsage returns the caller's current window counts alongside the
// configured limits.
func (l *Limiter) GetUsage(ctx context.Context, userID string) (*models.UsageStats, error) {
	now := l.now().UTC()
	minuteKey, dayKey := l.windowKeys(userID, now)

	pipe := l.client.Pipeline()
	minuteCount := pipe.Get(ctx, minuteKey)
	dayCount := pipe.Get(ctx, dayKey)

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, &models.StoreUnavailableError{Component: "rate limiter", Err: err}
	}

	stats := &models.UsageStats{
		RequestsPerMinute: l.cfg.RequestsPerMinute,
		RequestsPerDay:    l.cfg.RequestsPerDay,
	}
	if v, err := minuteCount.Int(); err == nil {
		stats.RequestsThisMinute = v
	}
	if v, err := dayCount.Int(); err == nil {
		stats.RequestsToday = v
	}

	return stats, nil
}

func (l *Limiter) windowKeys(userID string, now time.Time) (string, string) {
	minuteKey := fmt.Sprintf("%s%s:%d", minuteKeyPrefix, userID, now.Unix()/60)
	dayKey := fmt.Sprintf("%s%s:%s", dayKeyPrefix, userID, now.Format("2006-01-02"))
	return minuteKey, dayKey
}

func secondsToNextMinute(now time.Time) int {
	remaining := 60 - now.Second()
	if remaining < 1 {
		remaining = 1
	}
	return remaining
}

func secondsToNextUTCMidnight(now time.Time) int {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
	remaining := int(midnight.Sub(now).Seconds())
	if remaining < 1 {
		remaining = 1
	}
	return remaining
}
