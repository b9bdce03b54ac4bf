package websocket

// ConnectedResponse acknowledges a successful handshake.
type ConnectedResponse struct {
	Event   string `json:"event"`
	Message string `json:"message"`
	UserId  int64  `json:"userId"`
}

// ErrorResponse is sent in place of the welcome frame when authentication
// fails, immediately before the socket is closed.
type ErrorResponse struct {
	Error string `json:"error"`
}

// EchoResponse mirrors an inbound application frame back to its sender.
type EchoResponse struct {
	Event string `json:"event"`
	Data  string `json:"data"`
}
