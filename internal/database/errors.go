// Metacat - Metadata Catalog Service
// Copyright 2026 Datalodge
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/datalodge/metacat

package database

import (
	"database/sql"
	"errors"
	"io"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/datalodge/metacat/internal/logging"
	"github.com/datalodge/metacat/internal/models"
)

// pgUniqueViolation is the Postgres error code for unique-constraint conflicts.
const pgUniqueViolation = "23505"

// isUniqueViolation reports whether the error is a unique-constraint conflict.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// notFoundErr maps sql.ErrNoRows onto the 404 error taxonomy; other errors
// pass through wrapped as internal.
func notFoundErr(err error, format string, args ...any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return models.NotFound(format, args...)
	}
	return models.Internal("database error", err)
}

// conflictErr maps unique violations onto 409; other errors pass through
// wrapped as internal.
func conflictErr(err error, format string, args ...any) error {
	if isUniqueViolation(err) {
		return models.Conflict(format, args...)
	}
	return models.Internal("database error", err)
}

// closeWithLog closes a resource and logs failures instead of dropping them.
func closeWithLog(c io.Closer, name string) {
	if err := c.Close(); err != nil {
		logging.Warn().Err(err).Str("resource", name).Msg("close failed")
	}
}

// rollbackQuietly rolls back a transaction, ignoring the error raised when
// the transaction already finished.
func rollbackQuietly(tx *sqlx.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		logging.Warn().Err(err).Msg("transaction rollback failed")
	}
}
