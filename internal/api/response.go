// Metacat - Metadata Catalog Service
// Copyright 2026 Datalodge
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/datalodge/metacat

// Package api exposes the catalog over HTTP: chi routing, request parsing,
// envelope responses and the error taxonomy mapping.
package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/datalodge/metacat/internal/logging"
	"github.com/datalodge/metacat/internal/models"
)

// respondResult writes a single-result success envelope.
func respondResult(w http.ResponseWriter, r *http.Request, result any) {
	writeEnvelope(w, r, http.StatusOK, models.NewEnvelope(result))
}

// respondPaged writes a paginated success envelope.
func respondPaged(w http.ResponseWriter, r *http.Request, result any, p models.Pagination, total int) {
	writeEnvelope(w, r, http.StatusOK, models.NewPagedEnvelope(result, p, total))
}

// respondError maps an error chain to the envelope shape. Internal causes
// are logged but never leak into the error_msg field.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := models.StatusOf(err)
	if status >= http.StatusInternalServerError {
		logging.Ctx(r.Context()).Error().Err(err).
			Str("path", r.URL.Path).
			Msg("request failed")
	} else {
		logging.Ctx(r.Context()).Debug().Err(err).
			Str("path", r.URL.Path).
			Msg("request rejected")
	}
	writeEnvelope(w, r, status, models.NewErrorEnvelope(status, models.MessageOf(err)))
}

func writeEnvelope(w http.ResponseWriter, r *http.Request, status int, env *models.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("write response")
	}
}

// decodeBody parses a JSON request body into dst.
func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return models.BadRequest("invalid request body: %v", err)
	}
	return nil
}
