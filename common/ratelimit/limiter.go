package ratelimit

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Fixed-window counter. INCR and EXPIRE run atomically so two services
// sharing the Redis instance agree on the window.
const rateLimitScript = `
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])

local count = redis.call('INCR', key)
if count == 1 then
	redis.call('EXPIRE', key, window)
end

if count > limit then
	local ttl = redis.call('TTL', key)
	if ttl < 0 then
		ttl = window
	end
	return {0, count, limit, ttl}
end

return {1, count, limit, 0}
`

// Logger interface for logging
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
}

// Result contains the outcome of a rate limit check
type Result struct {
	Allowed           bool  // Whether the request is allowed
	CurrentCount      int64 // Current count in the window
	Limit             int64 // The limit that was checked
	RetryAfterSeconds int64 // Seconds until the limit resets (0 if allowed)
}

// Limiter provides graphics-command rate limiting using Redis + Lua
type Limiter struct {
	redis  *redis.Client
	script *redis.Script
	logger Logger
}

// NewLimiter creates a new rate limiter
func NewLimiter(redisClient *redis.Client, logger Logger) *Limiter {
	return &Limiter{
		redis:  redisClient,
		script: redis.NewScript(rateLimitScript),
		logger: logger,
	}
}

// CheckGlobalLimit checks the service-wide command rate limit
func (l *Limiter) CheckGlobalLimit(ctx context.Context, limit int64) (*Result, error) {
	return l.checkLimit(ctx, "rate_limit:graphics:global", limit, DefaultGlobalConfig.WindowSeconds)
}

// CheckChannelLimit checks the per-channel command rate limit.
// Separate counters per channel, so one runaway automation loop cannot
// starve the other displays.
func (l *Limiter) CheckChannelLimit(ctx context.Context, channel int, limit int64, windowSec int) (*Result, error) {
	key := fmt.Sprintf("rate_limit:graphics:ch:%d", channel)
	return l.checkLimit(ctx, key, limit, windowSec)
}

// checkLimit executes the rate limit Lua script
func (l *Limiter) checkLimit(ctx context.Context, key string, limit int64, windowSec int) (*Result, error) {
	raw, err := l.script.Run(ctx, l.redis, []string{key}, limit, windowSec).Result()
	if err != nil {
		l.logger.Error("rate limit check failed", "key", key, "error", err)
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}

	// Script returns {allowed, current_count, limit, retry_after}
	values, ok := raw.([]interface{})
	if !ok || len(values) != 4 {
		return nil, fmt.Errorf("unexpected script result format")
	}

	result := &Result{
		Allowed:           values[0].(int64) == 1,
		CurrentCount:      values[1].(int64),
		Limit:             values[2].(int64),
		RetryAfterSeconds: values[3].(int64),
	}

	if !result.Allowed {
		l.logger.Warn("rate limit exceeded",
			"key", key,
			"current", result.CurrentCount,
			"limit", limit,
			"retry_after", result.RetryAfterSeconds)
	}

	return result, nil
}

// CurrentCount returns the counter without incrementing (for monitoring)
func (l *Limiter) CurrentCount(ctx context.Context, key string) (int64, error) {
	count, err := l.redis.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return count, err
}

// Reset clears a rate limit counter (for testing/admin)
func (l *Limiter) Reset(ctx context.Context, key string) error {
	return l.redis.Del(ctx, key).Err()
}
