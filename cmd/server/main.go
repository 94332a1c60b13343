package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sketch-rooms/internal/config"
	"sketch-rooms/internal/db"
	"sketch-rooms/internal/logging"
	"sketch-rooms/internal/server"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Warn().Err(err).Msg("failed to load .env")
	}
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.LogPretty)

	var conn *gorm.DB
	if cfg.DatabaseURL != "" {
		var err error
		conn, err = db.Open(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("database connection failed")
		}
		if err := db.Migrate(conn); err != nil {
			log.Fatal().Err(err).Msg("database migration failed")
		}
	} else {
		log.Warn().Msg("DATABASE_URL is not set, rooms are kept in memory")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(conn, cfg)
	if cfg.WordsPath != "" {
		if _, err := srv.LoadWordFile(cfg.WordsPath); err != nil {
			log.Error().Err(err).Str("path", cfg.WordsPath).Msg("failed to load word file")
		}
	}
	if _, err := srv.LoadWords(ctx); err != nil {
		log.Error().Err(err).Msg("failed to load word library")
	}
	if _, err := srv.Restore(ctx); err != nil {
		log.Error().Err(err).Msg("failed to restore rooms")
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("sketch-rooms server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
