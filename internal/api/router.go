// Metacat - Metadata Catalog Service
// Copyright 2026 Datalodge
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/datalodge/metacat

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/datalodge/metacat/internal/auth"
	"github.com/datalodge/metacat/internal/config"
	"github.com/datalodge/metacat/internal/middleware"
)

// routePattern resolves the matched chi pattern for metric labels.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}

// NewRouter assembles the full HTTP surface.
func NewRouter(h *Handler, verifier *auth.Verifier, cfg *config.Config) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(cfg.Server))
	r.Use(middleware.RateLimit(cfg.RateLimit))
	r.Use(middleware.Metrics(routePattern))
	r.Use(middleware.AccessLog)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Handle("/metrics", promhttp.Handler())

		r.Group(func(r chi.Router) {
			r.Use(verifier.Middleware)

			r.Route("/item", func(r chi.Router) {
				r.Get("/{id}/", h.GetItem)
				r.Get("/", h.GetItemByLocation)
				r.Post("/", h.CreateItem)
				r.Put("/", h.UpdateItem)
				r.Patch("/", h.PatchItemStatus)
				r.Delete("/", h.DeleteItem)
				r.Delete("/mark/", h.MarkItemDeleted)
				r.Put("/mark/", h.UnmarkItemDeleted)
			})

			r.Route("/items", func(r chi.Router) {
				r.Get("/search/", h.SearchItems)
				r.Route("/batch", func(r chi.Router) {
					r.Get("/", h.GetItemsBatch)
					r.Post("/", h.CreateItemsBatch)
					r.Put("/", h.UpdateItemsBatch)
					r.Delete("/", h.DeleteItemsBatch)
					r.Put("/bequeath/", h.Bequeath)
					r.Get("/mark/", h.ListMarkedDeleted)
					r.Delete("/mark/", h.MarkItemsDeleted)
				})
			})

			r.Route("/template", func(r chi.Router) {
				r.Get("/{id}/", h.GetTemplate)
				r.Get("/", h.ListTemplates)
				r.Post("/", h.CreateTemplate)
				r.Put("/", h.UpdateTemplate)
				r.Delete("/", h.DeleteTemplate)
			})

			r.Route("/collection", func(r chi.Router) {
				r.Get("/search/", h.ListCollections)
				r.Get("/items/", h.ListCollectionItems)
				r.Post("/items/", h.AddCollectionItems)
				r.Delete("/items/", h.RemoveCollectionItems)
				r.Post("/", h.CreateCollection)
				r.Put("/", h.RenameCollections)
				r.Delete("/", h.DeleteCollection)
			})

			r.Route("/favourite", func(r chi.Router) {
				r.Post("/", h.CreateFavourite)
				r.Patch("/", h.PinFavourite)
				r.Delete("/", h.DeleteFavourite)
			})

			r.Route("/favourites/{user}", func(r chi.Router) {
				r.Get("/", h.ListFavourites)
				r.Patch("/", h.PinFavourites)
				r.Delete("/", h.DeleteFavourites)
			})

			r.Get("/lineage/{item_id}/", h.GetLineage)
		})
	})

	return r
}
