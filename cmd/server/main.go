// Metacat - Metadata Catalog Service
// Copyright 2026 Datalodge
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/datalodge/metacat

// Command server runs the metadata catalog: HTTP API, Postgres store and the
// NATS item change feed, under a suture supervisor with graceful shutdown.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/datalodge/metacat/internal/api"
	"github.com/datalodge/metacat/internal/auth"
	"github.com/datalodge/metacat/internal/config"
	"github.com/datalodge/metacat/internal/database"
	"github.com/datalodge/metacat/internal/events"
	"github.com/datalodge/metacat/internal/logging"
	"github.com/datalodge/metacat/internal/models"
	"github.com/datalodge/metacat/internal/permissions"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("environment", cfg.Server.Environment).
		Int("port", cfg.Server.Port).
		Msg("starting metacat")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Fatal().Err(err).Msg("metacat exited with error")
	}
	logging.Info().Msg("metacat stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	limits := models.Limits{
		MaxTags:            cfg.Limits.MaxTags,
		MaxSystemTags:      cfg.Limits.MaxSystemTags,
		MaxAttributeLength: cfg.Limits.MaxAttributeLength,
		MaxCollections:     cfg.Limits.MaxCollections,
	}

	store, err := database.New(ctx, cfg.Database, limits, cfg.Zones)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Warn().Err(err).Msg("close database")
		}
	}()

	if err := store.Migrate(ctx); err != nil {
		return err
	}

	var bus events.Bus = events.NopBus{}
	if cfg.Bus.Enabled {
		publisher, err := events.NewPublisher(cfg.Bus, nil)
		if err != nil {
			return err
		}
		bus = publisher
	} else {
		logging.Warn().Msg("item change feed disabled")
	}
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Warn().Err(err).Msg("close change feed")
		}
	}()

	verifier, err := auth.NewVerifier(cfg.Auth)
	if err != nil {
		return err
	}

	perms := permissions.NewFilter(permissions.NewHTTPAuthClient(cfg.Auth), cfg.Zones)
	handler := api.NewHandler(store, perms, bus)
	router := api.NewRouter(handler, verifier, cfg)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
	}

	slogHandler := &sutureslog.Handler{Logger: logging.NewSlogLogger()}
	supervisor := suture.New("metacat", suture.Spec{
		EventHook: slogHandler.MustHook(),
		Timeout:   shutdownTimeout,
	})
	supervisor.Add(&httpService{server: server})

	if err := supervisor.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// httpService adapts the blocking http.Server lifecycle to suture's
// context-aware Serve contract.
type httpService struct {
	server *http.Server
}

func (s *httpService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

func (s *httpService) String() string { return "http-server" }
