// Metacat - Metadata Catalog Service
// Copyright 2026 Datalodge
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/datalodge/metacat

package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/datalodge/metacat/internal/models"
)

func collectionRouter(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/v1/collection/search/", h.ListCollections)
	r.Post("/v1/collection/", h.CreateCollection)
	r.Delete("/v1/collection/", h.DeleteCollection)
	return r
}

func TestListCollectionsEnvelope(t *testing.T) {
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	store := &stubStore{
		listCollections: func(_ context.Context, owner, containerCode string, p models.Pagination) ([]models.Collection, []bool, int, error) {
			if owner != "jdoe" || containerCode != "proj1" {
				t.Errorf("owner = %q, container_code = %q", owner, containerCode)
			}
			collections := []models.Collection{
				{ID: uuid.New(), Name: "samples", ContainerCode: containerCode, Owner: owner, CreatedTime: now, LastUpdatedTime: now},
			}
			return collections, []bool{true}, 1, nil
		},
	}
	h := NewHandler(store, &stubPerms{}, &recordingBus{healthy: true})

	rec, env := serve(t, collectionRouter(h), http.MethodGet,
		"/v1/collection/search/?owner=jdoe&container_code=proj1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if env.Total != 1 {
		t.Errorf("total = %d", env.Total)
	}
	results := env.Result.([]any)
	first := results[0].(map[string]any)
	if first["name"] != "samples" || first["favourite"] != true {
		t.Errorf("result = %+v", first)
	}
}

func TestListCollectionsRequiresOwner(t *testing.T) {
	h := NewHandler(&stubStore{}, &stubPerms{}, &recordingBus{healthy: true})

	rec, _ := serve(t, collectionRouter(h), http.MethodGet,
		"/v1/collection/search/?container_code=proj1", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCreateCollectionValidation(t *testing.T) {
	h := NewHandler(&stubStore{}, &stubPerms{}, &recordingBus{healthy: true})

	rec, _ := serve(t, collectionRouter(h), http.MethodPost, "/v1/collection/",
		`{"owner":"jdoe"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCreateCollectionCapError(t *testing.T) {
	store := &stubStore{
		createCollection: func(context.Context, models.CreateCollectionRequest) (*models.Collection, error) {
			return nil, models.BadRequest("Cannot create more than 10 collections")
		},
	}
	h := NewHandler(store, &stubPerms{}, &recordingBus{healthy: true})

	rec, env := serve(t, collectionRouter(h), http.MethodPost, "/v1/collection/",
		`{"owner":"jdoe","container_code":"proj1","name":"eleventh"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if env.ErrorMsg != "Cannot create more than 10 collections" {
		t.Errorf("error_msg = %q", env.ErrorMsg)
	}
}

func TestDeleteCollectionNotFound(t *testing.T) {
	store := &stubStore{
		deleteCollection: func(context.Context, uuid.UUID) error {
			return models.NotFound("collection not found")
		},
	}
	h := NewHandler(store, &stubPerms{}, &recordingBus{healthy: true})

	rec, _ := serve(t, collectionRouter(h), http.MethodDelete,
		"/v1/collection/?id="+uuid.NewString(), "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}
