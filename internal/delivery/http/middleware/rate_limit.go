package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"network20-backend/internal/delivery/http/response"
	"network20-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	// Requests per window
	Limit int
	// Time window duration
	Window time.Duration
	// Custom key extractor (default: IP-based)
	KeyFunc func(*gin.Context) string
	// Key prefix for Redis
	KeyPrefix string
	// Whether to reject requests when Redis is unavailable
	FailClosed bool
}

// Lua script for atomic increment with TTL on first set
// KEYS[1] = counter key
// ARGV[1] = TTL in seconds
// Returns: [current_count, ttl_remaining]
const rateLimitLuaScript = `
local count = redis.call('INCR', KEYS[1])
if count == 1 then
    redis.call('EXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('TTL', KEYS[1])
return {count, ttl}
`

// AuthRateLimitConfig limits the auth endpoints, which trigger emails and
// password checks on the hosted backend.
func AuthRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Limit:     10,
		Window:    time.Minute,
		KeyPrefix: "rl:auth:",
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	}
}

type rateLimitEntry struct {
	count   int
	resetAt time.Time
}

// RateLimiter counts requests in Redis when a client is given and in
// process memory otherwise (or when Redis fails and FailClosed is off).
type RateLimiter struct {
	cfg   RateLimitConfig
	redis *goredis.Client
	now   func() time.Time

	mu      sync.Mutex
	entries map[string]*rateLimitEntry
	sweepAt time.Time
}

func NewRateLimiter(cfg RateLimitConfig, client *goredis.Client) *RateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}
	return &RateLimiter{
		cfg:     cfg,
		redis:   client,
		now:     time.Now,
		entries: make(map[string]*rateLimitEntry),
	}
}

// Handler returns the gin middleware.
func (l *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := l.cfg.KeyPrefix + l.cfg.KeyFunc(c)

		count, resetAt, err := l.hit(c.Request.Context(), key)
		if err != nil {
			logger.Log.Error("rate limit check failed", "key", key, "error", err)
			response.Error(c, http.StatusServiceUnavailable, "Service temporarily unavailable. Please try again.", nil)
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(l.cfg.Limit))
		c.Header("X-RateLimit-Reset", resetAt.Format(time.RFC3339))

		if count > l.cfg.Limit {
			retryAfter := int(resetAt.Sub(l.now()).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			logger.Log.Warn("rate limit exceeded", "ip", c.ClientIP(), "path", c.FullPath())
			response.Error(c, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", nil)
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(l.cfg.Limit-count))
		c.Next()
	}
}

func (l *RateLimiter) hit(ctx context.Context, key string) (int, time.Time, error) {
	if l.redis != nil {
		count, resetAt, err := l.hitRedis(ctx, key)
		if err == nil {
			return count, resetAt, nil
		}
		if l.cfg.FailClosed {
			return 0, time.Time{}, err
		}
		logger.Log.Warn("redis rate limit unavailable, using memory", "error", err)
	}
	count, resetAt := l.hitMemory(key)
	return count, resetAt, nil
}

// hitRedis increments the counter with an atomic Lua script.
func (l *RateLimiter) hitRedis(ctx context.Context, key string) (int, time.Time, error) {
	ttlSeconds := int(l.cfg.Window.Seconds())

	result, err := l.redis.Eval(ctx, rateLimitLuaScript, []string{key}, ttlSeconds).Result()
	if err != nil {
		return 0, time.Time{}, err
	}

	arr, ok := result.([]interface{})
	if !ok || len(arr) < 2 {
		return 0, time.Time{}, errors.New("unexpected redis result format")
	}
	count, _ := arr[0].(int64)
	ttl, _ := arr[1].(int64)

	return int(count), l.now().Add(time.Duration(ttl) * time.Second), nil
}

func (l *RateLimiter) hitMemory(key string) (int, time.Time) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	// Expired entries are swept at most once per window
	if now.After(l.sweepAt) {
		for k, e := range l.entries {
			if now.After(e.resetAt) {
				delete(l.entries, k)
			}
		}
		l.sweepAt = now.Add(l.cfg.Window)
	}

	entry, ok := l.entries[key]
	if !ok || now.After(entry.resetAt) {
		entry = &rateLimitEntry{resetAt: now.Add(l.cfg.Window)}
		l.entries[key] = entry
	}
	entry.count++
	return entry.count, entry.resetAt
}
