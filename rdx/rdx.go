// Package rdx holds the Redis-backed pieces: the cross-replica change
// notifier and the per-client session cache.
package rdx

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Connect dials Redis and verifies the connection.
func Connect(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return client, nil
}
