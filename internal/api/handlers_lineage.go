// Metacat - Metadata Catalog Service
// Copyright 2026 Datalodge
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/datalodge/metacat

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// GetLineage handles GET /v1/lineage/{item_id}/: the grouped lineage and
// provenance view. Items with no lineage history return 404.
func (h *Handler) GetLineage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(chi.URLParam(r, "item_id"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	view, err := h.store.GetLineageProvenance(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondResult(w, r, view)
}
