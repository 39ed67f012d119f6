package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
)

// slidingWindowScript trims the window, counts what is left and records the
// hit when it fits, all in one step so concurrent callers cannot overshoot.
// KEYS: [1]=window set
// ARGV: [1]=now_ms, [2]=window_ms, [3]=limit, [4]=member, [5]=ttl_ms
// Returns {allowed, remaining, retry_after_ms}.
var slidingWindowScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', now - window)
local count = redis.call('ZCARD', KEYS[1])

if count >= limit then
	local retry = window
	local oldest = redis.call('ZRANGE', KEYS[1], 0, 0, 'WITHSCORES')
	if oldest[2] then
		retry = window - (now - tonumber(oldest[2]))
	end
	return {0, 0, retry}
end

redis.call('ZADD', KEYS[1], now, ARGV[4])
redis.call('PEXPIRE', KEYS[1], ARGV[5])
return {1, limit - count - 1, 0}
`)

// RateLimiter is a sliding-window-log limiter kept in Redis sorted sets.
type RateLimiter struct {
	redis redis.Cmdable
	clock clockwork.Clock
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(client redis.Cmdable, clock clockwork.Clock) *RateLimiter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &RateLimiter{redis: client, clock: clock}
}

// RateLimitResult describes the outcome of one Allow call.
type RateLimitResult struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Allow records a hit for key and reports whether it fits within limit hits
// per window.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (*RateLimitResult, error) {
	redisKey := fmt.Sprintf("ratelimit:%s", key)

	values, err := slidingWindowScript.Run(ctx, r.redis, []string{redisKey},
		r.clock.Now().UnixMilli(),
		window.Milliseconds(),
		limit,
		uuid.NewString(),
		(window + time.Minute).Milliseconds(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}
	if len(values) != 3 {
		return nil, fmt.Errorf("unexpected rate limit reply: %v", values)
	}

	return &RateLimitResult{
		Allowed:    values[0] == 1,
		Remaining:  int(values[1]),
		RetryAfter: time.Duration(values[2]) * time.Millisecond,
	}, nil
}
