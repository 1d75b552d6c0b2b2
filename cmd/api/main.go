package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"appserver/internal/events"
	"appserver/internal/httpapi"
	"appserver/internal/metrics"
	"appserver/internal/render"
	"appserver/pkg/config"
	"appserver/pkg/db"
)

func main() {
	cfg := config.Load()
	logger := newLogger(cfg)

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var recorder events.Recorder = events.Nop{}
	if cfg.DatabaseURL != "" {
		if cfg.MigrationsPath != "" {
			if err := db.MigrateConfig(cfg.MigrationsPath, cfg); err != nil {
				logger.Fatal().Err(err).Msg("migrate")
			}
		}
		pool, err := db.Open(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("db open")
		}
		defer pool.Close()
		recorder = events.NewRepository(pool)
	} else {
		logger.Info().Msg("DATABASE_URL not set; install events are not recorded")
	}

	delegate, err := render.New(cfg.Render)
	if err != nil {
		logger.Fatal().Err(err).Msg("render delegate")
	}

	router := httpapi.NewRouter(httpapi.Dependencies{
		Cfg:     cfg,
		Logger:  logger,
		Events:  recorder,
		Metrics: metrics.New(),
		Render:  delegate,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Str("base_url", cfg.BaseURL).Msg("http listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http serve")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}
}

func newLogger(cfg config.Config) zerolog.Logger {
	if cfg.IsProd() {
		return zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
}
