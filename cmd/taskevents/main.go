// taskevents publishes a single task event onto the shared channel, the way
// the task mutation services do. Useful as a smoke tool against a running
// realtime server:
//
//	taskevents -user 7 -event task.updated -data '{"id":7,"status":"done"}'
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"taskwire/infrastructure/bus"
	"taskwire/internal/config"
	"taskwire/internal/entity"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()

	var (
		userId  = flag.Int64("user", 0, "target user id (required)")
		event   = flag.String("event", entity.EventTaskUpdated, "event name")
		data    = flag.String("data", "{}", "event payload as JSON")
		addr    = flag.String("addr", cfg.RedisAddr, "redis address")
		channel = flag.String("channel", cfg.RedisChannel, "pub/sub channel")
	)
	flag.Parse()

	if *userId <= 0 {
		fmt.Fprintln(os.Stderr, "taskevents: -user is required")
		flag.Usage()
		os.Exit(2)
	}
	if !json.Valid([]byte(*data)) {
		fmt.Fprintln(os.Stderr, "taskevents: -data must be valid JSON")
		os.Exit(2)
	}

	rdb := redis.NewClient(&redis.Options{Addr: *addr})
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	publisher := bus.NewPublisher(rdb, *channel)
	err := publisher.Publish(ctx, entity.BroadcastEvent{
		Event:  *event,
		UserId: *userId,
		Data:   json.RawMessage(*data),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "taskevents: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("published %s for user %d on %s\n", *event, *userId, *channel)
}
