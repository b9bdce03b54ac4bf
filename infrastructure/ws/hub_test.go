package ws

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub(zerolog.Nop()).(*Hub)
	go h.Run()
	return h
}

// registerConn registers a pumpless connection and waits for the run loop
// to pick it up; tests read frames straight from the send channel.
func registerConn(t *testing.T, h *Hub, handle string, userId int64) *Conn {
	t.Helper()
	conn := NewConn(handle, userId, nil)
	h.RegisterClient(conn)
	require.Eventually(t, func() bool {
		_, ok := h.registry.UserOf(handle)
		return ok
	}, time.Second, time.Millisecond)
	return conn
}

func drain(t *testing.T, conn *Conn) []byte {
	t.Helper()
	select {
	case payload := <-conn.send:
		return payload
	case <-time.After(time.Second):
		t.Fatalf("no frame queued for %s", conn.Handle)
		return nil
	}
}

func TestHubSendToUserFansOutToAllHandles(t *testing.T) {
	h := newTestHub(t)

	a1 := registerConn(t, h, "a1", 1)
	a2 := registerConn(t, h, "a2", 1)
	b1 := registerConn(t, h, "b1", 2)

	payload := []byte(`{"event":"task.updated","data":{"id":7,"status":"done"}}`)
	delivered := h.SendToUser(1, payload)

	assert.Equal(t, 2, delivered)
	assert.Equal(t, payload, drain(t, a1))
	assert.Equal(t, payload, drain(t, a2))

	select {
	case frame := <-b1.send:
		t.Fatalf("user 2 received user 1's event: %s", frame)
	default:
	}
}

func TestHubSendToUserWithNoConnections(t *testing.T) {
	h := newTestHub(t)
	registerConn(t, h, "a1", 1)

	assert.Equal(t, 0, h.SendToUser(42, []byte(`{}`)))
}

func TestHubSendToHandle(t *testing.T) {
	h := newTestHub(t)
	conn := registerConn(t, h, "a1", 1)

	require.True(t, h.SendToHandle("a1", []byte("hello")))
	assert.Equal(t, []byte("hello"), drain(t, conn))

	assert.False(t, h.SendToHandle("nope", []byte("hello")))
}

func TestHubUnregisterClosesSendAndPrunesRegistry(t *testing.T) {
	h := newTestHub(t)
	conn := registerConn(t, h, "a1", 1)

	unregistered := make(chan *Conn, 1)
	h.SetOnUnregister(func(c *Conn) {
		unregistered <- c
	})

	h.UnregisterClient(conn)

	select {
	case c := <-unregistered:
		assert.Equal(t, "a1", c.Handle)
	case <-time.After(time.Second):
		t.Fatal("unregister callback not fired")
	}

	assert.Equal(t, 0, h.Count())
	assert.Equal(t, 0, h.SendToUser(1, []byte(`{}`)))

	_, open := <-conn.send
	assert.False(t, open)
}

func TestHubUnregisterTwiceIsSafe(t *testing.T) {
	h := newTestHub(t)
	conn := registerConn(t, h, "a1", 1)

	h.UnregisterClient(conn)
	h.UnregisterClient(conn)

	assert.Eventually(t, func() bool {
		return h.Count() == 0
	}, time.Second, time.Millisecond)
}
