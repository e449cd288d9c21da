// Metacat - Metadata Catalog Service
// Copyright 2026 Datalodge
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/datalodge/metacat

package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/datalodge/metacat/internal/models"
)

func templateRouter(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/v1/template/{id}/", h.GetTemplate)
	r.Post("/v1/template/", h.CreateTemplate)
	return r
}

func TestGetTemplateEnvelope(t *testing.T) {
	template := &models.AttributeTemplate{
		ID:          uuid.New(),
		Name:        "samples",
		ProjectCode: "proj1",
		Attributes: models.TemplateAttributes{
			{Name: "species", Type: models.AttributeText},
		},
	}
	store := &stubStore{
		getTemplate: func(_ context.Context, id uuid.UUID) (*models.AttributeTemplate, error) {
			if id != template.ID {
				t.Errorf("id = %s", id)
			}
			return template, nil
		},
	}
	h := NewHandler(store, &stubPerms{}, &recordingBus{healthy: true})

	rec, env := serve(t, templateRouter(h), http.MethodGet,
		"/v1/template/"+template.ID.String()+"/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	result := env.Result.(map[string]any)
	if result["name"] != "samples" {
		t.Errorf("name = %v", result["name"])
	}
}

func TestCreateTemplateRejectsChoiceWithoutOptions(t *testing.T) {
	store := &stubStore{
		createTemplate: func(_ context.Context, req models.CreateTemplateRequest) (*models.AttributeTemplate, error) {
			if err := req.Validate(); err != nil {
				return nil, err
			}
			t.Fatal("store should not accept invalid template")
			return nil, nil
		},
	}
	h := NewHandler(store, &stubPerms{}, &recordingBus{healthy: true})

	body := `{"name":"samples","project_code":"proj1",` +
		`"attributes":[{"name":"species","type":"multiple_choice"}]}`
	rec, _ := serve(t, templateRouter(h), http.MethodPost, "/v1/template/", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}
