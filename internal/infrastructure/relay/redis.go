// Package relay provides the Redis pub/sub bridge that carries broadcast
// frames between nodes.
package relay

import (
	"context"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Channel is the pub/sub channel shared by all nodes.
const Channel = "movement:broadcast"

// RedisRelay implements realtime.Relay over a shared go-redis client.
type RedisRelay struct {
	client *redis.Client
	log    zerolog.Logger
}

// NewRedisRelay wraps an existing client. The client is owned by the caller.
func NewRedisRelay(client *redis.Client, log zerolog.Logger) *RedisRelay {
	return &RedisRelay{client: client, log: log}
}

// Publish sends one envelope to the shared channel.
func (r *RedisRelay) Publish(ctx context.Context, payload []byte) error {
	return r.client.Publish(ctx, Channel, payload).Err()
}

// Subscribe invokes handler for every message on the shared channel until
// ctx is canceled. The subscription survives transient Redis errors; go-redis
// reconnects under the hood.
func (r *RedisRelay) Subscribe(ctx context.Context, handler func(payload []byte)) {
	sub := r.client.Subscribe(ctx, Channel)
	defer func() {
		if err := sub.Close(); err != nil {
			r.log.Debug().Err(err).Msg("relay subscription close")
		}
	}()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			handler([]byte(msg.Payload))
		}
	}
}
