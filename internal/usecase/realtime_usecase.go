package usecase

import (
	"encoding/json"

	"taskwire/internal/entity"

	"github.com/rs/zerolog"
)

// ConnectionPusher is the slice of the hub the realtime usecase needs.
type ConnectionPusher interface {
	SendToUser(userId int64, payload []byte) int
}

type RealtimeUsecase interface {
	HandleEvent(event entity.BroadcastEvent) int
}

type realtimeUsecase struct {
	pusher ConnectionPusher
	logger zerolog.Logger
}

func NewRealtimeUsecase(pusher ConnectionPusher, logger zerolog.Logger) RealtimeUsecase {
	return &realtimeUsecase{
		pusher: pusher,
		logger: logger,
	}
}

// HandleEvent fans one published event out to every live connection of the
// target user and returns the delivered count. A user with no connections
// simply misses the event; there is no queueing or replay.
func (u *realtimeUsecase) HandleEvent(event entity.BroadcastEvent) int {
	frame := entity.EventFrame{
		Event: event.Event,
		Data:  event.Data,
	}
	payload, err := json.Marshal(frame)
	if err != nil {
		u.logger.Error().Err(err).Str("event", event.Event).Msg("marshal event frame")
		return 0
	}

	delivered := u.pusher.SendToUser(event.UserId, payload)
	if delivered > 0 {
		u.logger.Debug().Str("event", event.Event).Int64("userId", event.UserId).Int("delivered", delivered).Msg("event fanned out")
	}
	return delivered
}
