// Metacat - Metadata Catalog Service
// Copyright 2026 Datalodge
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/datalodge/metacat

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/datalodge/metacat/internal/database"
	"github.com/datalodge/metacat/internal/logging"
	"github.com/datalodge/metacat/internal/models"
)

// respondList writes an unpaged multi-result envelope.
func respondList(w http.ResponseWriter, r *http.Request, result any, total int) {
	writeEnvelope(w, r, http.StatusOK, &models.Envelope{
		Code:       http.StatusOK,
		Total:      total,
		NumOfPages: 1,
		Result:     result,
	})
}

// GetItem handles GET /v1/item/{id}/.
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	bundle, err := h.store.GetItem(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	view, err := bundle.View()
	if err != nil {
		respondError(w, r, models.Internal("render item", err))
		return
	}
	respondResult(w, r, view)
}

// GetItemByLocation handles GET /v1/item/: lookup by exact location.
func (h *Handler) GetItemByLocation(w http.ResponseWriter, r *http.Request) {
	loc, err := parseLocationQuery(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	bundle, err := h.store.GetItemByLocation(r.Context(), loc)
	if err != nil {
		respondError(w, r, err)
		return
	}
	view, err := bundle.View()
	if err != nil {
		respondError(w, r, models.Internal("render item", err))
		return
	}
	respondResult(w, r, view)
}

// SearchItems handles GET /v1/items/search/: the paginated listing, with
// permission conditions conjoined onto the filter.
func (h *Handler) SearchItems(w http.ResponseWriter, r *http.Request) {
	user := logging.UsernameFromContext(r.Context())

	filter, err := parseItemFilter(r, user)
	if err != nil {
		respondError(w, r, err)
		return
	}
	p, err := parsePagination(r.URL.Query())
	if err != nil {
		respondError(w, r, err)
		return
	}

	conds, err := h.perms.ItemConditions(r.Context(), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}

	bundles, total, err := h.store.SearchItems(r.Context(), filter, conds, p)
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

// GetItemsBatch handles GET /v1/items/batch/?ids=.
func (h *Handler) GetItemsBatch(w http.ResponseWriter, r *http.Request) {
	ids, err := queryIDs(r, "ids")
	if err != nil {
		respondError(w, r, err)
		return
	}

	bundles, err := h.store.ListItemsByIDs(r.Context(), ids)
	if err != nil {
		respondError(w, r, err)
		return
	}
	views, err := bundleViews(bundles)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondList(w, r, views, len(views))
}

// CreateItem handles POST /v1/item/.
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req models.CreateItemRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := req.Validate(h.store.Limits()); err != nil {
		respondError(w, r, err)
		return
	}

	bundle, err := h.store.CreateItem(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.publishBundles(r.Context(), []database.ItemBundle{*bundle}, false); err != nil {
		respondError(w, r, err)
		return
	}

	view, err := bundle.View()
	if err != nil {
		respondError(w, r, models.Internal("render item", err))
		return
	}
	respondResult(w, r, view)
}

// CreateItemsBatch handles POST /v1/items/batch/.
func (h *Handler) CreateItemsBatch(w http.ResponseWriter, r *http.Request) {
	var req models.CreateItemsRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := models.ValidateStruct(&req); err != nil {
		respondError(w, r, err)
		return
	}
	limits := h.store.Limits()
	for i := range req.Items {
		if err := req.Items[i].Validate(limits); err != nil {
			respondError(w, r, err)
			return
		}
	}

	bundles, err := h.store.CreateItems(r.Context(), req.Items, req.SkipDuplicates)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.publishBundles(r.Context(), bundles, false); err != nil {
		respondError(w, r, err)
		return
	}

	views, err := bundleViews(bundles)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondList(w, r, views, len(views))
}

// UpdateItem handles PUT /v1/item/?id=.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req models.UpdateItemRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := req.Validate(h.store.Limits()); err != nil {
		respondError(w, r, err)
		return
	}

	bundle, err := h.store.UpdateItem(r.Context(), id, req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.publishBundles(r.Context(), []database.ItemBundle{*bundle}, false); err != nil {
		respondError(w, r, err)
		return
	}

	view, err := bundle.View()
	if err != nil {
		respondError(w, r, models.Internal("render item", err))
		return
	}
	respondResult(w, r, view)
}

// UpdateItemsBatch handles PUT /v1/items/batch/?ids=. Bodies pair with ids
// positionally.
func (h *Handler) UpdateItemsBatch(w http.ResponseWriter, r *http.Request) {
	ids, err := queryIDs(r, "ids")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req models.UpdateItemsRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := models.ValidateStruct(&req); err != nil {
		respondError(w, r, err)
		return
	}
	limits := h.store.Limits()
	for i := range req.Items {
		if err := req.Items[i].Validate(limits); err != nil {
			respondError(w, r, err)
			return
		}
	}

	bundles, err := h.store.UpdateItems(r.Context(), ids, req.Items)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.publishBundles(r.Context(), bundles, false); err != nil {
		respondError(w, r, err)
		return
	}

	views, err := bundleViews(bundles)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondList(w, r, views, len(views))
}

// PatchItemStatus handles PATCH /v1/item/?id=&status=: trash when status is
// ARCHIVED, restore when status is ACTIVE.
func (h *Handler) PatchItemStatus(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	var bundles []database.ItemBundle
	switch models.ItemStatus(r.URL.Query().Get("status")) {
	case models.StatusArchived:
		bundles, err = h.store.ArchiveItem(r.Context(), id)
	case models.StatusActive:
		bundles, err = h.store.RestoreItem(r.Context(), id)
	default:
		err = models.BadRequest("status must be ARCHIVED or ACTIVE")
	}
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.publishBundles(r.Context(), bundles, false); err != nil {
		respondError(w, r, err)
		return
	}
	views, err := bundleViews(bundles)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondList(w, r, views, len(views))
}

// DeleteItem handles DELETE /v1/item/?id=: permanent subtree delete.
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	bundles, err := h.store.DeleteItem(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.publishBundles(r.Context(), bundles, true); err != nil {
		respondError(w, r, err)
		return
	}
	views, err := bundleViews(bundles)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondList(w, r, views, len(views))
}

// DeleteItemsBatch handles DELETE /v1/items/batch/?ids=.
func (h *Handler) DeleteItemsBatch(w http.ResponseWriter, r *http.Request) {
	ids, err := queryIDs(r, "ids")
	if err != nil {
		respondError(w, r, err)
		return
	}

	bundles, err := h.store.DeleteItemsByIDs(r.Context(), ids)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.publishBundles(r.Context(), bundles, true); err != nil {
		respondError(w, r, err)
		return
	}
	views, err := bundleViews(bundles)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondList(w, r, views, len(views))
}

// Bequeath handles PUT /v1/items/batch/bequeath/?id=: push attributes and
// system tags from a folder onto its descendants.
func (h *Handler) Bequeath(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req models.BequeathRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	bundles, err := h.store.Bequeath(r.Context(), id, req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.publishBundles(r.Context(), bundles, false); err != nil {
		respondError(w, r, err)
		return
	}
	views, err := bundleViews(bundles)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondList(w, r, views, len(views))
}

// MarkItemDeleted handles DELETE /v1/item/mark/?id=: the soft-delete marker.
func (h *Handler) MarkItemDeleted(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	user := logging.UsernameFromContext(r.Context())

	marked, err := h.store.MarkDeleted(r.Context(), []uuid.UUID{id}, user)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondResult(w, r, map[string]int64{"marked": marked})
}

// UnmarkItemDeleted handles PUT /v1/item/mark/?id=.
func (h *Handler) UnmarkItemDeleted(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	cleared, err := h.store.UnmarkDeleted(r.Context(), []uuid.UUID{id})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondResult(w, r, map[string]int64{"cleared": cleared})
}

// MarkItemsDeleted handles DELETE /v1/items/batch/mark/?ids=.
func (h *Handler) MarkItemsDeleted(w http.ResponseWriter, r *http.Request) {
	ids, err := queryIDs(r, "ids")
	if err != nil {
		respondError(w, r, err)
		return
	}
	user := logging.UsernameFromContext(r.Context())

	marked, err := h.store.MarkDeleted(r.Context(), ids, user)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondResult(w, r, map[string]int64{"marked": marked})
}

// ListMarkedDeleted handles GET /v1/items/batch/mark/: the caller's trash,
// optionally narrowed to one container.
func (h *Handler) ListMarkedDeleted(w http.ResponseWriter, r *http.Request) {
	containerCode := r.URL.Query().Get("container_code")
	user := logging.UsernameFromContext(r.Context())
	p, err := parsePagination(r.URL.Query())
	if err != nil {
		respondError(w, r, err)
		return
	}

	bundles, total, err := h.store.ListMarkedDeleted(r.Context(), containerCode, user, p)
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
