package auth

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginRateLimiter throttles password login attempts per email+IP
// using a Redis sliding window.
type LoginRateLimiter struct {
	redis  redis.UniversalClient
	limit  int64
	window time.Duration
}

// NewLoginRateLimiter creates a new login rate limiter.
func NewLoginRateLimiter(client redis.UniversalClient, limit int, window time.Duration) *LoginRateLimiter {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	return &LoginRateLimiter{redis: client, limit: int64(limit), window: window}
}

var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local window_start = tonumber(ARGV[1])
	local now = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local expiry = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	local current = redis.call('ZCARD', key)
	if current >= limit then
		return 0
	end

	redis.call('ZADD', key, now, now)
	redis.call('PEXPIRE', key, expiry)
	return 1
`)

// Allow records a login attempt for the identity and reports whether
// it is within the limit. Attempts over the limit are not recorded, so
// the window drains at its natural rate.
func (l *LoginRateLimiter) Allow(ctx context.Context, email, ip string) (bool, error) {
	key := fmt.Sprintf("login_attempts:%s:%s", strings.ToLower(email), ip)
	now := time.Now().UnixNano()
	windowStart := now - l.window.Nanoseconds()

	result, err := slidingWindowScript.Run(ctx, l.redis, []string{key},
		windowStart,
		now,
		l.limit,
		l.window.Milliseconds()+60_000,
	).Result()
	if err != nil {
		return false, fmt.Errorf("rate limit check: %w", err)
	}

	allowed, _ := strconv.ParseInt(fmt.Sprint(result), 10, 64)
	return allowed == 1, nil
}

// Reset clears the attempt window for an identity, used after a
// successful login.
func (l *LoginRateLimiter) Reset(ctx context.Context, email, ip string) error {
	key := fmt.Sprintf("login_attempts:%s:%s", strings.ToLower(email), ip)
	return l.redis.Del(ctx, key).Err()
}

// NopRateLimiter disables login throttling when no Redis backend is
// configured.
type NopRateLimiter struct{}

func (NopRateLimiter) Allow(context.Context, string, string) (bool, error) { return true, nil }

func (NopRateLimiter) Reset(context.Context, string, string) error { return nil }
