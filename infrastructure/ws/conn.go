package ws

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 256
)

// Conn wraps one accepted websocket. The handle is minted at upgrade time
// and never reused while the socket is open; all writes go through the send
// channel so only the write pump touches the socket.
type Conn struct {
	Handle string
	UserId int64

	sock *websocket.Conn
	send chan []byte
}

func NewConn(handle string, userId int64, sock *websocket.Conn) *Conn {
	return &Conn{
		Handle: handle,
		UserId: userId,
		sock:   sock,
		send:   make(chan []byte, sendBuffer),
	}
}

// ReadPump consumes inbound frames until the socket closes for any reason,
// feeding each text frame to onMessage. It returns once the connection is
// gone, so the caller can deregister the handle.
func (c *Conn) ReadPump(onMessage func(data []byte)) {
	defer c.sock.Close()

	c.sock.SetReadDeadline(time.Now().Add(pongWait))
	c.sock.SetPongHandler(func(string) error {
		return c.sock.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.sock.ReadMessage()
		if err != nil {
			return
		}
		if onMessage != nil {
			onMessage(data)
		}
	}
}

// WritePump drains the send channel onto the socket and keeps the peer alive
// with periodic pings. It exits when the hub closes the send channel or a
// write fails.
func (c *Conn) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.sock.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.sock.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.sock.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// trySend queues a payload without blocking. A full buffer means the client
// stopped draining; the frame is dropped rather than stalling the fan-out.
// Callers must hold the hub lock so the channel cannot close mid-send.
func (c *Conn) trySend(payload []byte) bool {
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}
