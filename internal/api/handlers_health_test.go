// Metacat - Metadata Catalog Service
// Copyright 2026 Datalodge
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/datalodge/metacat

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthReady(t *testing.T) {
	store := &stubStore{ping: func(context.Context) error { return nil }}
	h := NewHandler(store, &stubPerms{}, &recordingBus{healthy: true})

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/v1/health", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
}

func TestHealthDatabaseDown(t *testing.T) {
	store := &stubStore{ping: func(context.Context) error { return errors.New("connection refused") }}
	h := NewHandler(store, &stubPerms{}, &recordingBus{healthy: true})

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/v1/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestHealthBusDown(t *testing.T) {
	store := &stubStore{ping: func(context.Context) error { return nil }}
	h := NewHandler(store, &stubPerms{}, &recordingBus{healthy: false})

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/v1/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}
