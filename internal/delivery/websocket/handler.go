package websocket

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"taskwire/infrastructure/ws"
	"taskwire/pkg/jwt"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebsocketHandler struct {
	hub    ws.IHub
	tokens *jwt.TokenManager
	logger zerolog.Logger
}

func NewWebsocketHandler(hub ws.IHub, tokens *jwt.TokenManager, logger zerolog.Logger) *WebsocketHandler {
	return &WebsocketHandler{
		hub:    hub,
		tokens: tokens,
		logger: logger,
	}
}

// HandleWebSocket runs one connection from handshake to teardown. The
// upgrade happens before authentication because the rejection frame has to
// travel over the socket; browsers cannot attach an Authorization header to
// a websocket handshake, hence the token query parameter.
func (h *WebsocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	sock, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		h.reject(sock, "authentication required, provide token as query parameter")
		return
	}

	claims, err := h.tokens.Validate(token)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket authentication failed")
		h.reject(sock, "authentication failed: "+authFailureReason(err))
		return
	}

	handle := uuid.NewString()
	conn := ws.NewConn(handle, claims.UserId, sock)
	h.hub.RegisterClient(conn)

	// The welcome frame goes straight to the socket: the write pump is not
	// consuming yet, and this guarantees it is the first frame the client
	// sees.
	welcome, err := json.Marshal(ConnectedResponse{
		Event:   "connected",
		Message: "successfully connected to realtime server",
		UserId:  claims.UserId,
	})
	if err == nil {
		sock.SetWriteDeadline(time.Now().Add(5 * time.Second))
		sock.WriteMessage(websocket.TextMessage, welcome)
		sock.SetWriteDeadline(time.Time{})
	}

	go conn.WritePump()

	// Blocks until the socket closes, normally or not. Deregistering here is
	// what keeps the registry free of dangling entries.
	conn.ReadPump(func(data []byte) {
		h.echo(handle, data)
	})
	h.hub.UnregisterClient(conn)
}

// echo mirrors inbound frames back to the sender. The client-to-server
// direction carries no protocol beyond keepalive; this is a diagnostics
// convenience, not a delivery path.
func (h *WebsocketHandler) echo(handle string, data []byte) {
	payload, err := json.Marshal(EchoResponse{
		Event: "message_received",
		Data:  string(data),
	})
	if err != nil {
		return
	}
	h.hub.SendToHandle(handle, payload)
}

func (h *WebsocketHandler) reject(sock *websocket.Conn, message string) {
	payload, err := json.Marshal(ErrorResponse{Error: message})
	if err == nil {
		sock.SetWriteDeadline(time.Now().Add(5 * time.Second))
		sock.WriteMessage(websocket.TextMessage, payload)
	}
	sock.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "authentication failed"),
		time.Now().Add(time.Second),
	)
	sock.Close()
}

func authFailureReason(err error) string {
	switch {
	case errors.Is(err, jwt.ErrExpiredToken):
		return "token has expired"
	case errors.Is(err, jwt.ErrMalformedToken):
		return "malformed token"
	default:
		return "invalid token"
	}
}
