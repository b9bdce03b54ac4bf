package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"taskwire/infrastructure/bus"
	"taskwire/infrastructure/ws"
	"taskwire/internal/config"
	httpDelivery "taskwire/internal/delivery/http"
	wsDelivery "taskwire/internal/delivery/websocket"
	"taskwire/internal/entity"
	"taskwire/internal/usecase"
	"taskwire/pkg/jwt"
	"taskwire/pkg/log"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()
	logger := log.New(cfg.Env)

	if cfg.UsingDefaultSecret() {
		logger.Warn().Msg("using default JWT secret, set JWT_SECRET for production")
	}

	tokens, err := jwt.NewTokenManager(cfg.JWTSecret, 15*time.Minute)
	if err != nil {
		logger.Fatal().Err(err).Msg("token manager init failed")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})

	hub := ws.NewHub(logger)
	go hub.Run()

	realtimeUc := usecase.NewRealtimeUsecase(hub, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	subscriber := bus.NewSubscriber(rdb, cfg.RedisChannel, func(event entity.BroadcastEvent) {
		realtimeUc.HandleEvent(event)
	}, logger)
	go subscriber.Run(ctx)

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(corsMiddleware)

	websocketH := wsDelivery.NewWebsocketHandler(hub, tokens, logger)
	httpH := httpDelivery.NewHttpHandler(hub, rdb)
	authMiddleware := httpDelivery.NewAuthMiddleware(tokens)

	httpDelivery.MapHttpRoutes(router, *httpH, *websocketH, authMiddleware)

	server := &http.Server{
		Addr:    cfg.ListenAddr(),
		Handler: router,
	}

	go func() {
		logger.Info().Str("addr", cfg.ListenAddr()).Str("channel", cfg.RedisChannel).Msg("realtime server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
	}
	rdb.Close()
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
