package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewClient builds a client without contacting the server. The API uses it
// directly so it can start while the broker is down.
// Blocking stream reads get their read deadline extended by go-redis itself.
func NewClient(addr, username, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:                  addr,
		Username:              username,
		Password:              password,
		DB:                    0,
		ReadTimeout:           2 * time.Second,
		WriteTimeout:          2 * time.Second,
		ContextTimeoutEnabled: true,
		PoolSize:              10,
		MinIdleConns:          1,
	})
}

// NewRedisClient connects to the broker and fails fast if it is unreachable.
func NewRedisClient(ctx context.Context, addr, username, password string) (*redis.Client, error) {
	rdb := NewClient(addr, username, password)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return rdb, nil
}

// Pinger adapts a client to the health check signature.
func Pinger(rdb *redis.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}
}
