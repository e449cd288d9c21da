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

// CreateFavourite handles POST /v1/favourite/.
func (h *Handler) CreateFavourite(w http.ResponseWriter, r *http.Request) {
	var req models.CreateFavouriteRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := models.ValidateStruct(&req); err != nil {
		respondError(w, r, err)
		return
	}
	favType, err := models.ParseFavouriteType(string(req.Type))
	if err != nil {
		respondError(w, r, err)
		return
	}
	req.Type = favType

	view, err := h.store.CreateFavourite(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondResult(w, r, view)
}

// PinFavourite handles PATCH /v1/favourite/.
func (h *Handler) PinFavourite(w http.ResponseWriter, r *http.Request) {
	var req models.PinFavouriteRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := models.ValidateStruct(&req); err != nil {
		respondError(w, r, err)
		return
	}
	favType, err := models.ParseFavouriteType(string(req.Type))
	if err != nil {
		respondError(w, r, err)
		return
	}
	req.Type = favType

	if err := h.store.PinFavourite(r.Context(), req); err != nil {
		respondError(w, r, err)
		return
	}
	respondResult(w, r, req)
}

// DeleteFavourite handles DELETE /v1/favourite/?user=&id=&type=.
func (h *Handler) DeleteFavourite(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	if user == "" {
		respondError(w, r, models.BadRequest("missing user parameter"))
		return
	}
	id, err := queryID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	favType, err := models.ParseFavouriteType(r.URL.Query().Get("type"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.store.DeleteFavourite(r.Context(), user, models.FavouriteRef{ID: id, Type: favType}); err != nil {
		respondError(w, r, err)
		return
	}
	respondResult(w, r, nil)
}

// ListFavourites handles GET /v1/favourites/{user}/.
func (h *Handler) ListFavourites(w http.ResponseWriter, r *http.Request) {
	user := chi.URLParam(r, "user")
	p, err := parsePagination(r.URL.Query())
	if err != nil {
		respondError(w, r, err)
		return
	}

	views, total, err := h.store.ListFavourites(r.Context(), user, p)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondPaged(w, r, views, p, total)
}

// PinFavourites handles PATCH /v1/favourites/{user}/: bulk pin.
func (h *Handler) PinFavourites(w http.ResponseWriter, r *http.Request) {
	user := chi.URLParam(r, "user")

	var req models.PinFavouritesRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := models.ValidateStruct(&req); err != nil {
		respondError(w, r, err)
		return
	}
	for i := range req.Favourites {
		favType, err := models.ParseFavouriteType(string(req.Favourites[i].Type))
		if err != nil {
			respondError(w, r, err)
			return
		}
		req.Favourites[i].Type = favType
		req.Favourites[i].User = user
	}

	if err := h.store.PinFavourites(r.Context(), req.Favourites); err != nil {
		respondError(w, r, err)
		return
	}
	respondList(w, r, req.Favourites, len(req.Favourites))
}

// DeleteFavourites handles DELETE /v1/favourites/{user}/: bulk removal.
func (h *Handler) DeleteFavourites(w http.ResponseWriter, r *http.Request) {
	user := chi.URLParam(r, "user")

	var req models.DeleteFavouritesRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := models.ValidateStruct(&req); err != nil {
		respondError(w, r, err)
		return
	}
	for i := range req.Favourites {
		favType, err := models.ParseFavouriteType(string(req.Favourites[i].Type))
		if err != nil {
			respondError(w, r, err)
			return
		}
		req.Favourites[i].Type = favType
	}

	if err := h.store.DeleteFavourites(r.Context(), user, req.Favourites); err != nil {
		respondError(w, r, err)
		return
	}
	respondResult(w, r, nil)
}
