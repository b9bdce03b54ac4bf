package entity

import "encoding/json"

// Event names published by the task mutation services.
const (
	EventTaskCreated = "task.created"
	EventTaskUpdated = "task.updated"
	EventTaskDeleted = "task.deleted"
)

// BroadcastEvent is the message mutation services publish on the shared
// channel. UserId selects which live connections receive the event; the
// payload in Data is forwarded verbatim.
type BroadcastEvent struct {
	Event  string          `json:"event"`
	UserId int64           `json:"userId"`
	Data   json.RawMessage `json:"data"`
}

// EventFrame is the frame pushed to each of the user's connections.
type EventFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}
