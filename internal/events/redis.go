package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// RideUpdatesChannel carries every ride event across server replicas.
const RideUpdatesChannel = "ride:updates"

type RedisPublisher struct {
	redis *redis.Client
}

func NewRedisPublisher(redisClient *redis.Client) *RedisPublisher {
	return &RedisPublisher{redis: redisClient}
}

func (p *RedisPublisher) Publish(ctx context.Context, event RideEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.redis.Publish(ctx, RideUpdatesChannel, data).Err()
}

func (p *RedisPublisher) Close() error { return nil }
