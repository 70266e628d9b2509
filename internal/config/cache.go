package config

import "time"

// CacheConfig tunes the Redis response cache in front of the availability
// read.  That endpoint is the hot path: every customer opening the
// booking wizard polls it, and the answer is the same for everyone until
// a booking commits.  Nothing else is cached; booking and auth responses
// are per-caller.
type CacheConfig struct {
	Enabled      bool
	TTL          time.Duration
	Prefix       string // redis key namespace
	MaxBodyBytes int    // responses larger than this are served but not stored
}

// LoadCacheConfig reads the cache settings from the environment.  The TTL
// default is deliberately short: a stale grid makes customers pick trays
// that are already gone, so ten seconds only absorbs bursts on popular
// dates rather than acting as a real store.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		TTL:          envDur("CACHE_TTL", 10*time.Second),
		Prefix:       envStr("CACHE_PREFIX", "hukiciah:av"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 256*1024),
	}
}
