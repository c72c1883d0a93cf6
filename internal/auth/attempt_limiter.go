package auth

import (
	"context"
	"strings"
	"time"

	"eventflow/internal/cache"
)

const attemptKeyPrefix = "auth_attempts:"

// AttemptLimiterInterface defines the throttle used by login and OTP verification.
type AttemptLimiterInterface interface {
	// Allow records one attempt for scope/subject and reports whether it is within the limit.
	Allow(ctx context.Context, scope, subject string) bool
	// Reset clears the counter after a successful attempt.
	Reset(ctx context.Context, scope, subject string)
}

// AttemptLimiter counts attempts in Redis with a fixed window.
type AttemptLimiter struct {
	cache  *cache.Client
	max    int
	window time.Duration
}

// Ensure AttemptLimiter implements AttemptLimiterInterface
var _ AttemptLimiterInterface = (*AttemptLimiter)(nil)

// NewAttemptLimiter creates a limiter allowing max attempts per window.
// A non-positive max disables throttling.
func NewAttemptLimiter(cache *cache.Client, max int, window time.Duration) *AttemptLimiter {
	return &AttemptLimiter{cache: cache, max: max, window: window}
}

func (l *AttemptLimiter) key(scope, subject string) string {
	return attemptKeyPrefix + scope + ":" + strings.ToLower(subject)
}

// Allow increments the counter. Redis outages count as zero, so the limiter
// fails open.
func (l *AttemptLimiter) Allow(ctx context.Context, scope, subject string) bool {
	if l.max <= 0 {
		return true
	}
	return l.cache.Incr(ctx, l.key(scope, subject), l.window) <= int64(l.max)
}

// Reset removes the counter.
func (l *AttemptLimiter) Reset(ctx context.Context, scope, subject string) {
	_ = l.cache.Delete(ctx, l.key(scope, subject))
}
