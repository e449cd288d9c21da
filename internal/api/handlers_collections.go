// Metacat - Metadata Catalog Service
// Copyright 2026 Datalodge
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/datalodge/metacat

package api

import (
	"net/http"

	"github.com/datalodge/metacat/internal/logging"
	"github.com/datalodge/metacat/internal/models"
)

// ListCollections handles GET /v1/collection/search/?owner=&container_code=.
func (h *Handler) ListCollections(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	owner := q.Get("owner")
	containerCode := q.Get("container_code")
	if owner == "" || containerCode == "" {
		respondError(w, r, models.BadRequest("owner and container_code are required"))
		return
	}
	p, err := parsePagination(q)
	if err != nil {
		respondError(w, r, err)
		return
	}

	collections, favourites, total, err := h.store.ListCollections(r.Context(), owner, containerCode, p)
	if err != nil {
		respondError(w, r, err)
		return
	}

	views := make([]*models.CollectionView, 0, len(collections))
	for i := range collections {
		view := collections[i].View()
		view.Favourite = favourites[i]
		views = append(views, view)
	}
	respondPaged(w, r, views, p, total)
}

// CreateCollection handles POST /v1/collection/.
func (h *Handler) CreateCollection(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCollectionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := models.ValidateStruct(&req); err != nil {
		respondError(w, r, err)
		return
	}

	collection, err := h.store.CreateCollection(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondResult(w, r, collection.View())
}

// RenameCollections handles PUT /v1/collection/: bulk rename.
func (h *Handler) RenameCollections(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateCollectionsRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := models.ValidateStruct(&req); err != nil {
		respondError(w, r, err)
		return
	}

	collections, err := h.store.RenameCollections(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	views := make([]*models.CollectionView, 0, len(collections))
	for i := range collections {
		views = append(views, collections[i].View())
	}
	respondList(w, r, views, len(views))
}

// DeleteCollection handles DELETE /v1/collection/?id=.
func (h *Handler) DeleteCollection(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.store.DeleteCollection(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	respondResult(w, r, nil)
}

// AddCollectionItems handles POST /v1/collection/items/.
func (h *Handler) AddCollectionItems(w http.ResponseWriter, r *http.Request) {
	var req models.CollectionItemsRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := models.ValidateStruct(&req); err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.store.AddCollectionItems(r.Context(), req); err != nil {
		respondError(w, r, err)
		return
	}
	respondResult(w, r, map[string]any{"id": req.ID, "item_ids": req.ItemIDs})
}

// RemoveCollectionItems handles DELETE /v1/collection/items/.
func (h *Handler) RemoveCollectionItems(w http.ResponseWriter, r *http.Request) {
	var req models.CollectionItemsRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := models.ValidateStruct(&req); err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.store.RemoveCollectionItems(r.Context(), req); err != nil {
		respondError(w, r, err)
		return
	}
	respondResult(w, r, nil)
}

// ListCollectionItems handles GET /v1/collection/items/?id=&status=: the
// content of one collection, restricted by the caller's core-zone
// visibility. Status defaults to ACTIVE.
func (h *Handler) ListCollectionItems(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	status, err := models.ParseStatus(r.URL.Query().Get("status"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	p, err := parsePagination(r.URL.Query())
	if err != nil {
		respondError(w, r, err)
		return
	}

	collection, err := h.store.GetCollection(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	user := logging.UsernameFromContext(r.Context())
	conds, err := h.perms.CollectionItemConditions(r.Context(), collection.ContainerCode, user)
	if err != nil {
		respondError(w, r, err)
		return
	}

	bundles, total, err := h.store.ListCollectionItems(r.Context(), id, status, conds, p)
	if err != nil {
		respondError(w, r, err)
		return
	}
	views, err := bundleViews(bundles)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondPaged(w, r, views, p, total)
}
