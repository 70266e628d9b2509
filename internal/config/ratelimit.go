package config

import (
	"os"
	"strconv"
	"time"
)

// RateLimitConfig tunes the token bucket guarding booking writes: create,
// cancel and payment verification.  Reads (availability, listings) are
// never limited; a customer refreshing the tray grid is harmless, while a
// script hammering POST /v1/bookings ties up tray claims.
type RateLimitConfig struct {
	Enabled     bool
	Burst       int           // bucket capacity per user and route
	RefillEvery time.Duration // one token returns per interval
	TTL         time.Duration // idle buckets expire after this
	Prefix      string        // redis key namespace
}

// LoadRateLimitConfig reads the limiter settings from the environment.
// The defaults allow a short burst of booking attempts and then one per
// two seconds, which covers a customer retrying after a tray conflict
// without letting anyone farm tray claims.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:     envBool("RATE_LIMIT_ENABLED", true),
		Burst:       envInt("RATE_LIMIT_BURST", 5),
		RefillEvery: envDur("RATE_LIMIT_REFILL_EVERY", 2*time.Second),
		TTL:         envDur("RATE_LIMIT_TTL", 10*time.Minute),
		Prefix:      envStr("RATE_LIMIT_PREFIX", "hukiciah:rl"),
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.RefillEvery <= 0 {
		cfg.RefillEvery = time.Second
	}
	// A bucket must outlive its own refill cycle or limits reset early.
	if min := time.Duration(cfg.Burst) * cfg.RefillEvery * 2; cfg.TTL < min {
		cfg.TTL = min
	}
	return cfg
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envDur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
