package dispatch

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the list commands are pushed onto.
const DefaultRedisKey = "panel:commands"

// RedisTransport LPUSHes each command onto a list consumed by the service
// with BRPOP. The LPUSH reply is the acknowledgement.
type RedisTransport struct {
	client *redis.Client
	key    string
}

// NewRedisTransport creates a transport for the server at addr (host:port).
func NewRedisTransport(addr, key string) *RedisTransport {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisTransport{
		client: redis.NewClient(&redis.Options{
			Addr: addr,
			DB:   0,
			// One command at a time from interrupt context.
			PoolSize: 1,
		}),
		key: key,
	}
}

// Send pushes one command.
func (r *RedisTransport) Send(ctx context.Context, command string) error {
	if err := r.client.LPush(ctx, r.key, command).Err(); err != nil {
		return fmt.Errorf("lpush %s: %w", r.key, err)
	}
	return nil
}

// Close releases the client.
func (r *RedisTransport) Close() error {
	return r.client.Close()
}
