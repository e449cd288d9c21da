// Metacat - Metadata Catalog Service
// Copyright 2026 Datalodge
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/datalodge/metacat

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/datalodge/metacat/internal/models"
)

// GetTemplate handles GET /v1/template/{id}/.
func (h *Handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	template, err := h.store.GetTemplate(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondResult(w, r, template)
}

// ListTemplates handles GET /v1/template/?project_code=&name=.
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p, err := parsePagination(q)
	if err != nil {
		respondError(w, r, err)
		return
	}
	filter := models.TemplateFilter{
		ProjectCode: q.Get("project_code"),
		Name:        q.Get("name"),
	}

	templates, total, err := h.store.ListTemplates(r.Context(), filter, p)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondPaged(w, r, templates, p, total)
}

// CreateTemplate handles POST /v1/template/.
func (h *Handler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTemplateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := models.ValidateStruct(&req); err != nil {
		respondError(w, r, err)
		return
	}

	template, err := h.store.CreateTemplate(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondResult(w, r, template)
}

// UpdateTemplate handles PUT /v1/template/?id=: full replacement.
func (h *Handler) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req models.CreateTemplateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := models.ValidateStruct(&req); err != nil {
		respondError(w, r, err)
		return
	}

	template, err := h.store.UpdateTemplate(r.Context(), id, req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondResult(w, r, template)
}

// DeleteTemplate handles DELETE /v1/template/?id=.
func (h *Handler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.store.DeleteTemplate(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	respondResult(w, r, nil)
}
