package http

import (
	"encoding/json"
	"net/http"

	"taskwire/infrastructure/ws"

	"github.com/redis/go-redis/v9"
)

type HttpHandler struct {
	hub ws.IHub
	rdb *redis.Client
}

func NewHttpHandler(hub ws.IHub, rdb *redis.Client) *HttpHandler {
	return &HttpHandler{
		hub: hub,
		rdb: rdb,
	}
}

type Response struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Method Get /healthz
func (h *HttpHandler) Health(w http.ResponseWriter, r *http.Request) {
	bus := "up"
	if err := h.rdb.Ping(r.Context()).Err(); err != nil {
		bus = "down"
	}

	writeJSON(w, http.StatusOK, Response{
		Message: "ok",
		Data:    map[string]string{"bus": bus},
	})
}

// Method Get /stats
func (h *HttpHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Response{
		Message: "success",
		Data:    map[string]int{"connections": h.hub.Count()},
	})
}

func writeJSON(w http.ResponseWriter, status int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
