package ws

import (
	"sync"

	"github.com/rs/zerolog"
)

// Hub owns the live connections of this process. Register and unregister
// are serialized through Run's channel loop; sends take the read lock, so a
// send channel is never closed while a fan-out is writing to it.
type Hub struct {
	registry *Registry

	mu      sync.RWMutex
	clients map[string]*Conn

	register   chan *Conn
	unregister chan *Conn

	onUnregister func(conn *Conn)
	logger       zerolog.Logger
}

func NewHub(logger zerolog.Logger) IHub {
	return &Hub{
		registry:   NewRegistry(),
		clients:    make(map[string]*Conn),
		register:   make(chan *Conn),
		unregister: make(chan *Conn),
		logger:     logger,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.clients[conn.Handle] = conn
			h.registry.Add(conn.Handle, conn.UserId)
			h.mu.Unlock()
			h.logger.Info().Str("handle", conn.Handle).Int64("userId", conn.UserId).Msg("connection registered")

		case conn := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[conn.Handle]
			if ok {
				delete(h.clients, conn.Handle)
				h.registry.Remove(conn.Handle)
				close(conn.send)
			}
			h.mu.Unlock()

			if ok {
				h.logger.Info().Str("handle", conn.Handle).Int64("userId", conn.UserId).Msg("connection deregistered")
				if h.onUnregister != nil {
					h.onUnregister(conn)
				}
			}
		}
	}
}

func (h *Hub) RegisterClient(conn *Conn) {
	h.register <- conn
}

// UnregisterClient removes the connection and closes its send channel.
// Safe to call more than once for the same connection.
func (h *Hub) UnregisterClient(conn *Conn) {
	h.unregister <- conn
}

// SendToUser pushes the payload to every live connection of the user and
// returns how many connections it was queued on. Zero connections means the
// event is simply gone; missed events are never redelivered.
func (h *Hub) SendToUser(userId int64, payload []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, handle := range h.registry.HandlesOf(userId) {
		conn, ok := h.clients[handle]
		if !ok {
			continue
		}
		if conn.trySend(payload) {
			delivered++
		} else {
			h.logger.Warn().Str("handle", handle).Int64("userId", userId).Msg("send buffer full, frame dropped")
		}
	}
	return delivered
}

// SendToHandle pushes the payload to a single connection.
func (h *Hub) SendToHandle(handle string, payload []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conn, ok := h.clients[handle]
	if !ok {
		return false
	}
	return conn.trySend(payload)
}

func (h *Hub) Count() int {
	return h.registry.Count()
}

func (h *Hub) SetOnUnregister(callback func(conn *Conn)) {
	h.onUnregister = callback
}
