package config

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to the Redis instance backing the availability
// cache and the booking write limiter.  Both are conveniences rather than
// correctness mechanisms (tray disjointness is enforced by the database),
// so a failed connection returns nil and the caller runs without them.
//
// Environment: REDIS_ADDR (host:port, default localhost:6379), or
// REDIS_HOST + REDIS_PORT; REDIS_PASSWORD and REDIS_DB are optional.
func NewRedisClient() *redis.Client {
	addr := envStr("REDIS_ADDR", "")
	if addr == "" {
		host := envStr("REDIS_HOST", "localhost")
		port := envStr("REDIS_PORT", "6379")
		addr = host + ":" + port
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: envStr("REDIS_PASSWORD", ""),
		DB:       envInt("REDIS_DB", 0),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}
