package bus

import (
	"context"
	"encoding/json"
	"fmt"

	"taskwire/internal/entity"

	"github.com/redis/go-redis/v9"
)

// Publisher is the producer side of the task event contract. Mutation
// services publish fire-and-forget; nobody waits for delivery.
type Publisher struct {
	rdb     *redis.Client
	channel string
}

func NewPublisher(rdb *redis.Client, channel string) *Publisher {
	return &Publisher{
		rdb:     rdb,
		channel: channel,
	}
}

func (p *Publisher) Publish(ctx context.Context, event entity.BroadcastEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal broadcast event: %w", err)
	}

	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", p.channel, err)
	}
	return nil
}
