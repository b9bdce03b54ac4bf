package bus

import (
	"context"
	"testing"
	"time"

	"taskwire/internal/entity"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		ok      bool
		event   string
		userId  int64
	}{
		{
			name:    "valid event",
			payload: `{"event":"task.updated","userId":7,"data":{"id":7,"status":"done"}}`,
			ok:      true,
			event:   "task.updated",
			userId:  7,
		},
		{
			name:    "not json",
			payload: `not json at all`,
			ok:      false,
		},
		{
			name:    "missing userId",
			payload: `{"event":"task.updated","data":{"id":7}}`,
			ok:      false,
		},
		{
			name:    "zero userId",
			payload: `{"event":"task.updated","userId":0,"data":{}}`,
			ok:      false,
		},
		{
			name:    "empty object",
			payload: `{}`,
			ok:      false,
		},
		{
			name:    "userId only",
			payload: `{"userId":3}`,
			ok:      true,
			userId:  3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, ok := decodeEvent([]byte(tt.payload))
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.event, event.Event)
				assert.Equal(t, tt.userId, event.UserId)
			}
		})
	}
}

func TestSubscriberGivesUpAfterRetryBudget(t *testing.T) {
	// Nothing listens on this address, so every connect attempt fails.
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
	})
	defer rdb.Close()

	handled := false
	s := NewSubscriber(rdb, "task-events", func(entity.BroadcastEvent) {
		handled = true
	}, zerolog.Nop())
	s.ConnectAttempts = 3
	s.ConnectDelay = 10 * time.Millisecond

	done := make(chan struct{})
	go func() {
		s.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("subscriber did not give up after exhausting its retry budget")
	}
	assert.False(t, handled)
}

func TestSubscriberStopsOnContextCancel(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
	})
	defer rdb.Close()

	s := NewSubscriber(rdb, "task-events", func(entity.BroadcastEvent) {}, zerolog.Nop())
	s.ConnectAttempts = 100
	s.ConnectDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("subscriber did not stop on context cancellation")
	}
}
