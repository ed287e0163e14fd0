package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/papersynth/papersynth/pkg/logger"
)

// tokenBucketScript runs the refill-and-consume step atomically in Redis.
// State per key is a hash of {tokens, last_refill}; timestamps travel in
// milliseconds. A key that has refilled to capacity carries no information,
// so it expires shortly after.
const tokenBucketScript = `
local key = KEYS[1]
local capacity = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
local tokens = tonumber(bucket[1])
local last_refill = tonumber(bucket[2]) or now

if tokens == nil then
    tokens = capacity
end

local elapsed = now - last_refill
if elapsed < 0 then
    elapsed = 0
end
tokens = math.min(tokens + elapsed * rate / 1000, capacity)

local allowed = 0
if tokens >= 1 then
    tokens = tokens - 1
    allowed = 1
end

redis.call('HMSET', key, 'tokens', tokens, 'last_refill', now)
local reset_ms = math.ceil((capacity - tokens) / rate * 1000)
redis.call('PEXPIRE', key, reset_ms + 60000)

return allowed
`

// RedisLimiter is the distributed Limiter backend for multi-replica
// deployments. Semantics match Pool: capacity tokens per minute, continuous
// refill, first-seen keys start one token down after being admitted.
type RedisLimiter struct {
	client   redis.UniversalClient
	script   *redis.Script
	capacity float64
	rate     float64
	local    *Pool // fallback when Redis is unreachable
	log      logger.Logger
}

// NewRedisLimiter creates a Redis-backed limiter. perMinute semantics match
// NewPool. The local fallback keeps admission decisions flowing during Redis
// outages; it fails open per key rather than rejecting everything.
func NewRedisLimiter(client redis.UniversalClient, perMinute int, idleTTL time.Duration, log logger.Logger) *RedisLimiter {
	return &RedisLimiter{
		client:   client,
		script:   redis.NewScript(tokenBucketScript),
		capacity: float64(perMinute),
		rate:     float64(perMinute) / 60.0,
		local:    NewPool(perMinute, idleTTL),
		log:      log,
	}
}

// Admit implements Limiter.
func (l *RedisLimiter) Admit(ctx context.Context, key string, now time.Time) (bool, error) {
	if l.capacity <= 0 {
		return true, nil
	}

	res, err := l.script.Run(ctx, l.client,
		[]string{"ratelimit:" + key},
		l.capacity, l.rate, now.UnixMilli(),
	).Int64()
	if err != nil {
		l.log.Warn(ctx, "redis rate limiter unavailable, using local fallback",
			logger.Fields{"error": err.Error()})
		return l.local.Admit(ctx, key, now)
	}

	return res == 1, nil
}
