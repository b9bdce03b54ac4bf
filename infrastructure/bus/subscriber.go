package bus

import (
	"context"
	"encoding/json"
	"time"

	"taskwire/internal/entity"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	defaultConnectAttempts = 5
	defaultConnectDelay    = 2 * time.Second
)

// EventHandler receives every decoded BroadcastEvent from the channel.
type EventHandler func(event entity.BroadcastEvent)

// Subscriber holds the single long-lived subscription to the shared task
// event channel. Every subscriber sees every event and filters locally by
// userId, so there is nothing to partition.
type Subscriber struct {
	rdb     *redis.Client
	channel string
	handler EventHandler
	logger  zerolog.Logger

	// Connect retry budget. Once exhausted the process stays up but stops
	// receiving events until it restarts.
	ConnectAttempts int
	ConnectDelay    time.Duration
}

func NewSubscriber(rdb *redis.Client, channel string, handler EventHandler, logger zerolog.Logger) *Subscriber {
	return &Subscriber{
		rdb:             rdb,
		channel:         channel,
		handler:         handler,
		logger:          logger,
		ConnectAttempts: defaultConnectAttempts,
		ConnectDelay:    defaultConnectDelay,
	}
}

// Run connects to Redis, subscribes and consumes events until ctx is done.
// Connection failures at startup are retried a bounded number of times with
// a fixed delay; after that Run returns and the server keeps serving
// websockets in a degraded mode with no event delivery.
func (s *Subscriber) Run(ctx context.Context) {
	if !s.connect(ctx) {
		s.logger.Error().Str("channel", s.channel).Msg("event bus unreachable, giving up for this process lifetime")
		return
	}

	pubsub := s.rdb.Subscribe(ctx, s.channel)
	defer pubsub.Close()

	s.logger.Info().Str("channel", s.channel).Msg("subscribed to event bus")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			event, ok := decodeEvent([]byte(msg.Payload))
			if !ok {
				s.logger.Debug().Str("payload", msg.Payload).Msg("dropping malformed bus message")
				continue
			}
			s.handler(event)
		}
	}
}

func (s *Subscriber) connect(ctx context.Context) bool {
	for attempt := 1; attempt <= s.ConnectAttempts; attempt++ {
		err := s.rdb.Ping(ctx).Err()
		if err == nil {
			return true
		}
		s.logger.Warn().Err(err).Int("attempt", attempt).Msg("event bus connect failed")

		if attempt == s.ConnectAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(s.ConnectDelay):
		}
	}
	return false
}

// decodeEvent parses a bus payload. Anything that is not JSON or lacks a
// target user is dropped rather than crashing the consume loop.
func decodeEvent(payload []byte) (entity.BroadcastEvent, bool) {
	var event entity.BroadcastEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return entity.BroadcastEvent{}, false
	}
	if event.UserId <= 0 {
		return entity.BroadcastEvent{}, false
	}
	return event, true
}
