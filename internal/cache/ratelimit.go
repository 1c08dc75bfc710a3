package cache

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// rateLimitLoginPrefix is the Redis key prefix for login attempt limits.
	rateLimitLoginPrefix = "ratelimit:login:"
	// minRateLimitTTL is the shortest lifetime of a bucket key.
	minRateLimitTTL = 60 * time.Second
)

// RateLimitResult contains the result of a rate limit check.
type RateLimitResult struct {
	Allowed    bool
	RetryAfter time.Duration
}

// tokenBucketScript is a Lua script implementing the token bucket algorithm.
// It's atomic and handles token refill and consumption in a single operation.
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local rate = tonumber(ARGV[1])      -- tokens per second
	local burst = tonumber(ARGV[2])     -- max tokens (bucket capacity)
	local now = tonumber(ARGV[3])       -- current time in seconds
	local ttl = tonumber(ARGV[4])       -- TTL in seconds

	-- Get current state
	local data = redis.call('HMGET', key, 'tokens', 'last_update')
	local tokens = tonumber(data[1]) or burst
	local last_update = tonumber(data[2]) or now

	-- Refill tokens based on elapsed time
	local elapsed = now - last_update
	tokens = math.min(burst, tokens + (elapsed * rate))

	-- Check if request is allowed
	local allowed = 0
	local retry_after = 0

	if tokens >= 1 then
		tokens = tokens - 1
		allowed = 1
	else
		-- Calculate when 1 token will be available
		retry_after = math.ceil((1 - tokens) / rate)
	end

	-- Update state
	redis.call('HSET', key, 'tokens', tokens, 'last_update', now)
	redis.call('EXPIRE', key, ttl)

	return {allowed, retry_after}
`)

// LoginLimiter throttles authentication attempts per account key.
type LoginLimiter struct {
	cache         *Cache
	ratePerMinute int
	burst         int
}

// NewLoginLimiter creates a limiter refilling ratePerMinute tokens per
// minute up to burst.
func NewLoginLimiter(c *Cache, ratePerMinute, burst int) *LoginLimiter {
	return &LoginLimiter{cache: c, ratePerMinute: ratePerMinute, burst: burst}
}

// AllowLogin consumes one attempt for key and reports whether it is allowed
// and, when it is not, how long until the next attempt is.
// key should already be a hash; raw emails are never written to Redis.
// On a Redis error the attempt is allowed and the error returned.
func (l *LoginLimiter) AllowLogin(ctx context.Context, key string) (bool, time.Duration, error) {
	// Unlimited
	if l.ratePerMinute <= 0 {
		return true, 0, nil
	}

	ratePerSecond := float64(l.ratePerMinute) / 60.0
	ttl := bucketTTL(ratePerSecond, l.burst)

	result, err := l.cache.checkRateLimit(ctx, rateLimitLoginPrefix+key, ratePerSecond, l.burst, int(ttl.Seconds()))
	if err != nil {
		return true, 0, err
	}
	return result.Allowed, result.RetryAfter, nil
}

// checkRateLimit consumes one token from the bucket at key.
func (c *Cache) checkRateLimit(ctx context.Context, key string, rate float64, burst, ttl int) (*RateLimitResult, error) {
	now := time.Now().Unix()

	result, err := tokenBucketScript.Run(ctx, c.client,
		[]string{key},
		rate, burst, now, ttl,
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("redis rate limit failed: %w", err)
	}

	return &RateLimitResult{
		Allowed:    result[0] == 1,
		RetryAfter: time.Duration(result[1]) * time.Second,
	}, nil
}

// bucketTTL is the time an idle bucket needs to refill completely,
// never shorter than minRateLimitTTL.
func bucketTTL(ratePerSecond float64, burst int) time.Duration {
	if ratePerSecond <= 0 {
		return minRateLimitTTL
	}
	refill := time.Duration(math.Ceil(float64(burst)/ratePerSecond)) * time.Second
	if refill < minRateLimitTTL {
		return minRateLimitTTL
	}
	return refill
}
