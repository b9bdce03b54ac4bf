package http

import (
	"net/http"
	wsDelivery "taskwire/internal/delivery/websocket"

	"github.com/go-chi/chi/v5"
)

func MapHttpRoutes(r *chi.Mux, httpHandler HttpHandler, websocketHandler wsDelivery.WebsocketHandler, authMiddleware *AuthMiddleware) {
	r.Handle("/ws", http.HandlerFunc(websocketHandler.HandleWebSocket))

	r.Get("/healthz", http.HandlerFunc(httpHandler.Health))

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		r.Get("/stats", http.HandlerFunc(httpHandler.Stats))
	})
}
