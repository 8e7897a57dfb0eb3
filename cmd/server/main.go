package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/NicoSerenade/parcheverde-uniandes/internal/api"
	"github.com/NicoSerenade/parcheverde-uniandes/internal/chat"
	"github.com/NicoSerenade/parcheverde-uniandes/internal/config"
	"github.com/NicoSerenade/parcheverde-uniandes/internal/store"
	"github.com/NicoSerenade/parcheverde-uniandes/internal/ws"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	ctx := context.Background()

	// Initialize the message store. Postgres is the shared platform database;
	// SQLite serves local development.
	var db store.DataStore
	if cfg.DatabaseURL != "" {
		logger.Info().Msg("running database migrations...")
		if err := store.RunMigrations(ctx, cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
		logger.Info().Msg("migrations completed")

		pgStore, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connection failed")
		}
		defer pgStore.Close()
		logger.Info().Msg("connected to PostgreSQL")
		db = pgStore
	} else {
		sqliteStore, err := store.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("sqlite open failed")
		}
		defer sqliteStore.Close()
		logger.Info().Str("path", cfg.SQLitePath).Msg("using SQLite")
		db = sqliteStore
	}

	// Sessions come from the platform's Redis. Development without Redis falls
	// back to an in-memory store.
	var redisStore *store.RedisStore
	var sessions store.SessionStore
	if cfg.RedisURL != "" {
		var err error
		redisStore, err = store.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
		defer redisStore.Close()
		logger.Info().Msg("connected to Redis")
		sessions = redisStore
	} else {
		sessions = store.NewMemorySessionStore()
		logger.Warn().Msg("REDIS_URL not set; sessions are in memory")
	}

	// Wire the messaging core
	registry := chat.NewRegistry()
	rooms := chat.NewRoomManager(db, logger)
	router := chat.NewRouter(registry, rooms, db, db, logger)
	history := chat.NewHistoryLoader(db)

	wsHandler := ws.NewHandler(sessions, registry, rooms, router, cfg.AllowedOrigins, cfg.MaxMessageSize, logger)

	mux := api.NewRouter(api.Deps{
		Logger:   logger,
		Config:   cfg,
		DB:       db,
		Redis:    redisStore,
		Sessions: sessions,
		History:  history,
		Registry: registry,
		WS:       wsHandler,
	})

	// No ReadTimeout or WriteTimeout: WebSocket connections are long-lived.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Msg("starting messaging server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	// Graceful shutdown with 30 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}
