package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taskwire/infrastructure/ws"
	wsDelivery "taskwire/internal/delivery/websocket"
	"taskwire/pkg/jwt"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestRouter(t *testing.T) (*chi.Mux, *jwt.TokenManager, ws.IHub) {
	t.Helper()

	tokens, err := jwt.NewTokenManager(testSecret, time.Minute)
	require.NoError(t, err)

	hub := ws.NewHub(zerolog.Nop())
	go hub.Run()

	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
	})
	t.Cleanup(func() { rdb.Close() })

	router := chi.NewRouter()
	httpH := NewHttpHandler(hub, rdb)
	websocketH := wsDelivery.NewWebsocketHandler(hub, tokens, zerolog.Nop())
	MapHttpRoutes(router, *httpH, *websocketH, NewAuthMiddleware(tokens))

	return router, tokens, hub
}

func TestHealthReportsBusDown(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Message)
	assert.Equal(t, map[string]any{"bus": "down"}, body.Data)
}

func TestStatsRequiresAuth(t *testing.T) {
	router, tokens, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := tokens.Issue(7)
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/stats", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, map[string]any{"connections": float64(0)}, body.Data)
}

func TestAuthMiddlewareRejectsBadHeaderFormat(t *testing.T) {
	router, tokens, _ := newTestRouter(t)

	token, err := tokens.Issue(7)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	req.Header.Set("Authorization", token) // missing Bearer prefix
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
