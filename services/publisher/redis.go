package publisher

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"jraargz/ofertasworker/internal/offer"
)

// RedisPublisher announces the winning offer on a Redis stream for chat-bot
// consumers. The offer JSON is base64 encoded and keyed by its category.
type RedisPublisher struct {
	client    *redis.Client
	stream    string
	maxLength int
}

// NewRedisPublisher creates a new Redis stream publisher.
func NewRedisPublisher(addr string, db int, stream string, maxLength int) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &RedisPublisher{
		client:    client,
		stream:    stream,
		maxLength: maxLength,
	}
}

// Publish appends the offer to the stream, trimming it to the configured
// maximum length.
func (p *RedisPublisher) Publish(ctx context.Context, category string, o offer.Offer) error {
	data, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("failed to encode offer: %w", err)
	}

	encoded := base64.StdEncoding.EncodeToString(data)

	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: int64(p.maxLength),
		Approx: true,
		Values: map[string]interface{}{
			category: encoded,
		},
	}).Err()
}

// Close closes the Redis connection.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
