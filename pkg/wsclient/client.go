// Package wsclient keeps one logical connection to the realtime server
// alive across network drops, reconnecting with bounded exponential backoff.
// It is the Go counterpart of the browser connection manager and speaks the
// same frame protocol.
package wsclient

import (
	"encoding/json"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateClosing      State = "closing"
)

const (
	defaultBaseDelay       = 3 * time.Second
	defaultMaxDelay        = 30 * time.Second
	defaultMaxAttempts     = 10
	defaultDisconnectDelay = 100 * time.Millisecond
	defaultStatusInterval  = time.Second
)

// Config tunes one Client. Zero values fall back to the defaults above; the
// disconnect delay in particular exists to coalesce the rapid
// unmount/remount pairs UI lifecycles produce and can be tuned per caller.
type Config struct {
	// URL of the realtime server endpoint, e.g. ws://localhost:9501/ws.
	URL string

	BaseDelay       time.Duration
	MaxDelay        time.Duration
	MaxAttempts     int
	DisconnectDelay time.Duration
	StatusInterval  time.Duration

	// OnStateChange is invoked from the status poller whenever the observed
	// connection state differs from the previously reported one.
	OnStateChange func(state State)

	OnTaskCreated func(data json.RawMessage)
	OnTaskUpdated func(data json.RawMessage)
	// OnTaskDeleted receives the event payload; the deleted task id is its
	// "id" field.
	OnTaskDeleted func(data json.RawMessage)

	Logger zerolog.Logger
}

func (c *Config) withDefaults() {
	if c.BaseDelay <= 0 {
		c.BaseDelay = defaultBaseDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = defaultMaxDelay
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.DisconnectDelay <= 0 {
		c.DisconnectDelay = defaultDisconnectDelay
	}
	if c.StatusInterval <= 0 {
		c.StatusInterval = defaultStatusInterval
	}
}

// Client owns one logical connection. Construct it once and inject it where
// it is needed; it deliberately is not a package-level singleton.
type Client struct {
	cfg Config

	mu          sync.Mutex
	sock        *websocket.Conn
	state       State
	token       string
	attempts    int
	intentional bool

	// generation increments every time the active socket is replaced or torn
	// down on purpose, so callbacks from an abandoned socket are ignored.
	generation uint64

	reconnectTimer  *time.Timer
	disconnectTimer *time.Timer

	done      chan struct{}
	closeOnce sync.Once
}

func New(cfg Config) *Client {
	cfg.withDefaults()
	c := &Client{
		cfg:   cfg,
		state: StateDisconnected,
		done:  make(chan struct{}),
	}
	go c.pollStatus()
	return c
}

// Connect opens the logical connection with the given token. Calling it
// while already connected or connecting with the same token is a no-op, so
// double-firing UI lifecycles are harmless. A different token replaces the
// current socket without triggering its reconnect path. Any pending
// deferred disconnect or reconnect timer is cancelled.
func (c *Client) Connect(token string) {
	c.mu.Lock()

	if c.disconnectTimer != nil {
		c.disconnectTimer.Stop()
		c.disconnectTimer = nil
		c.intentional = false
	}
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}

	if c.sock != nil || c.state == StateConnecting {
		if (c.state == StateConnected || c.state == StateConnecting) && c.token == token {
			c.mu.Unlock()
			return
		}
		c.dropSocketLocked()
	}

	c.token = token
	c.intentional = false
	c.state = StateConnecting
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	go c.dial(gen, token)
}

// Disconnect schedules the teardown after a short delay instead of closing
// immediately. A Connect arriving inside the window cancels it, so an
// unmount immediately followed by a remount keeps the same socket.
func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disconnectTimer != nil {
		c.disconnectTimer.Stop()
	}
	c.disconnectTimer = time.AfterFunc(c.cfg.DisconnectDelay, c.performDisconnect)
}

// Close tears the connection down immediately and stops the status poller.
func (c *Client) Close() {
	c.performDisconnect()
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// State reports the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disconnectTimer != nil {
		return StateClosing
	}
	return c.state
}

func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// Attempts returns the consecutive reconnect attempts made since the last
// successful connection.
func (c *Client) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

// ReconnectDelay computes the backoff before the given attempt (1-based):
// base doubled per attempt, capped at max.
func ReconnectDelay(attempt int, base, max time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= max {
			return max
		}
	}
	if delay > max {
		return max
	}
	return delay
}

func (c *Client) dial(gen uint64, token string) {
	endpoint, err := buildURL(c.cfg.URL, token)
	if err != nil {
		c.cfg.Logger.Error().Err(err).Msg("bad realtime server url")
		c.onConnectFailure(gen)
		return
	}

	sock, _, err := websocket.DefaultDialer.Dial(endpoint, nil)

	c.mu.Lock()
	if gen != c.generation || c.intentional {
		c.mu.Unlock()
		if sock != nil {
			sock.Close()
		}
		return
	}

	if err != nil {
		c.mu.Unlock()
		c.cfg.Logger.Warn().Err(err).Msg("realtime connect failed")
		c.onConnectFailure(gen)
		return
	}

	c.sock = sock
	c.state = StateConnected
	c.attempts = 0
	c.mu.Unlock()

	c.cfg.Logger.Info().Msg("realtime connection established")
	go c.readLoop(gen, sock)
}

func (c *Client) readLoop(gen uint64, sock *websocket.Conn) {
	for {
		_, data, err := sock.ReadMessage()
		if err != nil {
			break
		}
		c.handleFrame(data)
	}

	c.mu.Lock()
	if gen != c.generation {
		// Socket was replaced on purpose; its close must not reconnect.
		c.mu.Unlock()
		return
	}
	c.sock = nil
	c.state = StateDisconnected
	retry := !c.intentional && c.attempts < c.cfg.MaxAttempts
	c.mu.Unlock()

	c.cfg.Logger.Info().Msg("realtime connection closed")
	if retry {
		c.scheduleReconnect()
	}
}

func (c *Client) onConnectFailure(gen uint64) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	c.sock = nil
	c.state = StateDisconnected
	retry := !c.intentional && c.attempts < c.cfg.MaxAttempts
	c.mu.Unlock()

	if retry {
		c.scheduleReconnect()
	}
}

func (c *Client) scheduleReconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
	}

	c.attempts++
	delay := ReconnectDelay(c.attempts, c.cfg.BaseDelay, c.cfg.MaxDelay)
	c.cfg.Logger.Info().Int("attempt", c.attempts).Dur("delay", delay).Msg("reconnect scheduled")

	c.reconnectTimer = time.AfterFunc(delay, func() {
		c.mu.Lock()
		c.reconnectTimer = nil
		token := c.token
		intentional := c.intentional
		c.mu.Unlock()

		if token != "" && !intentional {
			c.Connect(token)
		}
	})
}

// performDisconnect is the deferred half of Disconnect.
func (c *Client) performDisconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disconnectTimer != nil {
		c.disconnectTimer.Stop()
		c.disconnectTimer = nil
	}
	c.intentional = true

	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}

	c.dropSocketLocked()
	c.state = StateDisconnected
	c.token = ""
	c.attempts = 0
}

// dropSocketLocked closes the current socket with its callbacks suppressed.
func (c *Client) dropSocketLocked() {
	c.generation++
	if c.sock != nil {
		c.sock.Close()
		c.sock = nil
	}
}

func (c *Client) handleFrame(data []byte) {
	var frame struct {
		Event string          `json:"event"`
		Type  string          `json:"type"`
		Error string          `json:"error"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &frame); err != nil {
		c.cfg.Logger.Debug().Err(err).Msg("undecodable frame ignored")
		return
	}

	event := frame.Event
	if event == "" {
		event = frame.Type
	}

	switch event {
	case "connected":
		c.cfg.Logger.Debug().Msg("server acknowledged connection")
	case "task.created":
		if c.cfg.OnTaskCreated != nil {
			c.cfg.OnTaskCreated(frame.Data)
		}
	case "task.updated":
		if c.cfg.OnTaskUpdated != nil {
			c.cfg.OnTaskUpdated(frame.Data)
		}
	case "task.deleted":
		if c.cfg.OnTaskDeleted != nil {
			c.cfg.OnTaskDeleted(frame.Data)
		}
	default:
		if frame.Error != "" {
			c.cfg.Logger.Warn().Str("error", frame.Error).Msg("server error frame")
			return
		}
		c.cfg.Logger.Debug().Str("event", event).Msg("unknown event ignored")
	}
}

// pollStatus reports state transitions to OnStateChange at a fixed interval.
// Polling rather than eventing keeps the callback decoupled from the socket
// callbacks' locking.
func (c *Client) pollStatus() {
	ticker := time.NewTicker(c.cfg.StatusInterval)
	defer ticker.Stop()

	last := StateDisconnected
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			state := c.State()
			if state != last {
				last = state
				if c.cfg.OnStateChange != nil {
					c.cfg.OnStateChange(state)
				}
			}
		}
	}
}

func buildURL(raw, token string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
