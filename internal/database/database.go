// Metacat - Metadata Catalog Service
// Copyright 2026 Datalodge
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/datalodge/metacat

// Package database is the Postgres store of the catalog. It owns the schema
// (goose migrations), the item tree engine and the CRUD surface for
// collections, favourites, attribute templates and lineage.
//
// Item paths are stored as ltree values; all path encoding goes through the
// pathcodec package. Queries are written with "?" placeholders and rebound
// to Postgres-style "$N" via sqlx.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	// Postgres driver registered as "pgx".
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/datalodge/metacat/internal/config"
	"github.com/datalodge/metacat/internal/logging"
	"github.com/datalodge/metacat/internal/models"
)

// Store wraps the Postgres connection pool together with the configured
// catalog limits and zone values.
type Store struct {
	db     *sqlx.DB
	limits models.Limits
	zones  config.ZonesConfig
	now    func() time.Time
}

// New connects to Postgres, applies pool settings and pings the server.
func New(ctx context.Context, cfg config.DatabaseConfig, limits models.Limits, zones config.ZonesConfig) (*Store, error) {
	db, err := sqlx.Open("pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		closeWithLog(db, "database")
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logging.Info().
		Str("host", cfg.Host).
		Str("database", cfg.Name).
		Str("schema", cfg.Schema).
		Msg("connected to postgres")

	return &Store{db: db, limits: limits, zones: zones, now: func() time.Time { return time.Now().UTC() }}, nil
}

// NewWithDB wraps an existing connection; used by tests with sqlmock.
func NewWithDB(db *sqlx.DB, limits models.Limits, zones config.ZonesConfig) *Store {
	return &Store{db: db, limits: limits, zones: zones, now: func() time.Time { return time.Now().UTC() }}
}

// Ping checks connectivity for health reporting.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Limits exposes the configured caps to handlers.
func (s *Store) Limits() models.Limits {
	return s.limits
}

// withTx runs fn inside a transaction, rolling back on error or panic.
func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			rollbackQuietly(tx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		rollbackQuietly(tx)
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// rebind converts "?" placeholders to the Postgres "$N" form.
func (s *Store) rebind(query string) string {
	return s.db.Rebind(query)
}
