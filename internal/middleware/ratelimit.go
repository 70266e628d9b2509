package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/devadeekshithgs-git/hukiciah/internal/config"
)

// tokenBucketScript refills and drains one bucket atomically.  State is a
// Redis hash of remaining tokens and the last refill stamp; the whole
// read-modify-write happens inside Redis so concurrent API instances
// share one budget per customer.
var tokenBucketScript = redis.NewScript(`
	local now_ms = tonumber(ARGV[1])
	local burst = tonumber(ARGV[2])
	local refill_ms = tonumber(ARGV[3])
	local ttl_s = tonumber(ARGV[4])

	local state = redis.call('HMGET', KEYS[1], 't', 'at')
	local tokens = tonumber(state[1])
	local stamp = tonumber(state[2])
	if tokens == nil or stamp == nil then
		tokens = burst
		stamp = now_ms
	end

	local earned = math.floor((now_ms - stamp) / refill_ms)
	if earned > 0 then
		tokens = math.min(burst, tokens + earned)
		stamp = stamp + earned * refill_ms
	end

	local wait_ms = 0
	if tokens > 0 then
		tokens = tokens - 1
	else
		wait_ms = refill_ms - (now_ms - stamp)
		if wait_ms < 0 then wait_ms = 0 end
	end

	redis.call('HMSET', KEYS[1], 't', tokens, 'at', stamp)
	redis.call('EXPIRE', KEYS[1], ttl_s)
	return {tokens, wait_ms}
`)

// NewTokenBucket limits booking writes per customer: each authenticated
// user gets an independent bucket per route, so one customer retrying
// after a tray conflict cannot be starved by another's burst.  Requests
// without an identity (the JWT middleware has not run or rejected the
// token) fall back to a per-IP bucket.  With Redis down the limiter
// admits everything; tray disjointness never depends on it.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passthrough
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := bucketKey(cfg.Prefix, c)
			res, err := tokenBucketScript.Run(c.Request().Context(), rdb,
				[]string{key},
				time.Now().UnixMilli(),
				cfg.Burst,
				cfg.RefillEvery.Milliseconds(),
				int64(cfg.TTL/time.Second),
			).Int64Slice()
			if err != nil || len(res) != 2 {
				c.Logger().Warnf("rate limiter unavailable, admitting request: %v", err)
				return next(c)
			}

			remaining, waitMs := res[0], res[1]
			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Burst))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if waitMs > 0 {
				retry := (waitMs + 999) / 1000
				c.Response().Header().Set("Retry-After", strconv.FormatInt(retry, 10))
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error":       "too many requests",
					"retry_after": retry,
				})
			}
			return next(c)
		}
	}
}

func passthrough(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error { return next(c) }
}

func bucketKey(prefix string, c echo.Context) string {
	route := c.Request().Method + ":" + c.Path()
	if id := UserID(c); id != 0 {
		return fmt.Sprintf("%s:u:%d:%s", prefix, id, route)
	}
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	return fmt.Sprintf("%s:ip:%s:%s", prefix, ip, route)
}
