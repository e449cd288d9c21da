// Metacat - Metadata Catalog Service
// Copyright 2026 Datalodge
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/datalodge/metacat

package api

import (
	"context"

	"github.com/google/uuid"

	"github.com/datalodge/metacat/internal/database"
	"github.com/datalodge/metacat/internal/events"
	"github.com/datalodge/metacat/internal/middleware"
	"github.com/datalodge/metacat/internal/models"
)

// Store is the persistence surface the handlers depend on. The concrete
// implementation is *database.Store; tests substitute stubs.
type Store interface {
	Ping(ctx context.Context) error
	Limits() models.Limits

	GetItem(ctx context.Context, id uuid.UUID) (*database.ItemBundle, error)
	GetItemByLocation(ctx context.Context, q models.LocationQuery) (*database.ItemBundle, error)
	ListItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]database.ItemBundle, error)
	SearchItems(ctx context.Context, f models.ItemFilter, extra []database.Condition, p models.Pagination) ([]database.ItemBundle, int, error)
	CreateItem(ctx context.Context, req models.CreateItemRequest) (*database.ItemBundle, error)
	CreateItems(ctx context.Context, reqs []models.CreateItemRequest, skipDuplicates bool) ([]database.ItemBundle, error)
	UpdateItem(ctx context.Context, id uuid.UUID, req models.UpdateItemRequest) (*database.ItemBundle, error)
	UpdateItems(ctx context.Context, ids []uuid.UUID, reqs []models.UpdateItemRequest) ([]database.ItemBundle, error)
	ArchiveItem(ctx context.Context, id uuid.UUID) ([]database.ItemBundle, error)
	RestoreItem(ctx context.Context, id uuid.UUID) ([]database.ItemBundle, error)
	DeleteItem(ctx context.Context, id uuid.UUID) ([]database.ItemBundle, error)
	DeleteItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]database.ItemBundle, error)
	Bequeath(ctx context.Context, id uuid.UUID, req models.BequeathRequest) ([]database.ItemBundle, error)
	MarkDeleted(ctx context.Context, ids []uuid.UUID, user string) (int64, error)
	UnmarkDeleted(ctx context.Context, ids []uuid.UUID) (int64, error)
	ListMarkedDeleted(ctx context.Context, containerCode, deletedBy string, p models.Pagination) ([]database.ItemBundle, int, error)

	GetCollection(ctx context.Context, id uuid.UUID) (*models.Collection, error)
	ListCollections(ctx context.Context, owner, containerCode string, p models.Pagination) ([]models.Collection, []bool, int, error)
	CreateCollection(ctx context.Context, req models.CreateCollectionRequest) (*models.Collection, error)
	RenameCollections(ctx context.Context, req models.UpdateCollectionsRequest) ([]models.Collection, error)
	DeleteCollection(ctx context.Context, id uuid.UUID) error
	AddCollectionItems(ctx context.Context, req models.CollectionItemsRequest) error
	RemoveCollectionItems(ctx context.Context, req models.CollectionItemsRequest) error
	ListCollectionItems(ctx context.Context, collectionID uuid.UUID, status models.ItemStatus, extra []database.Condition, p models.Pagination) ([]database.ItemBundle, int, error)

	CreateFavourite(ctx context.Context, req models.CreateFavouriteRequest) (*models.FavouriteView, error)
	ListFavourites(ctx context.Context, user string, p models.Pagination) ([]models.FavouriteView, int, error)
	DeleteFavourite(ctx context.Context, user string, ref models.FavouriteRef) error
	DeleteFavourites(ctx context.Context, user string, refs []models.FavouriteRef) error
	PinFavourite(ctx context.Context, req models.PinFavouriteRequest) error
	PinFavourites(ctx context.Context, reqs []models.PinFavouriteRequest) error

	GetTemplate(ctx context.Context, id uuid.UUID) (*models.AttributeTemplate, error)
	ListTemplates(ctx context.Context, f models.TemplateFilter, p models.Pagination) ([]models.AttributeTemplate, int, error)
	CreateTemplate(ctx context.Context, req models.CreateTemplateRequest) (*models.AttributeTemplate, error)
	UpdateTemplate(ctx context.Context, id uuid.UUID, req models.CreateTemplateRequest) (*models.AttributeTemplate, error)
	DeleteTemplate(ctx context.Context, id uuid.UUID) error

	GetLineageProvenance(ctx context.Context, itemID uuid.UUID) (*models.LineageProvenanceView, error)
}

// PermissionFilter rewrites listings into what the caller may see.
type PermissionFilter interface {
	ItemConditions(ctx context.Context, filter models.ItemFilter) ([]database.Condition, error)
	CollectionItemConditions(ctx context.Context, projectCode, username string) ([]database.Condition, error)
}

// Handler carries the dependencies of every endpoint.
type Handler struct {
	store Store
	perms PermissionFilter
	bus   events.Bus
}

// NewHandler wires the endpoint dependencies.
func NewHandler(store Store, perms PermissionFilter, bus events.Bus) *Handler {
	return &Handler{store: store, perms: perms, bus: bus}
}

// bundleViews renders store bundles as client item views.
func bundleViews(bundles []database.ItemBundle) ([]*models.ItemView, error) {
	views := make([]*models.ItemView, 0, len(bundles))
	for i := range bundles {
		view, err := bundles[i].View()
		if err != nil {
			return nil, models.Internal("render item", err)
		}
		views = append(views, view)
	}
	return views, nil
}

// publishBundles sends one change record per bundle. Records carry the
// resolved template name when attributes reference one. The database work is
// already committed when this runs; a failure here surfaces to the caller as
// the at-least-once delivery seam.
func (h *Handler) publishBundles(ctx context.Context, bundles []database.ItemBundle, toDelete bool) error {
	for i := range bundles {
		bundle := &bundles[i]

		templateName := ""
		if raw := bundle.Extended.Extra.TemplateID(); raw != "" {
			templateID, err := uuid.Parse(raw)
			if err != nil {
				return models.Internal("malformed template reference", err)
			}
			template, err := h.store.GetTemplate(ctx, templateID)
			if err != nil {
				return err
			}
			templateName = template.Name
		}

		record, err := events.NewItemRecord(bundle, templateName, toDelete)
		if err != nil {
			middleware.ItemRecordsPublished.WithLabelValues("error").Inc()
			return models.Internal("encode item record", err)
		}
		if err := h.bus.PublishItem(ctx, record); err != nil {
			middleware.ItemRecordsPublished.WithLabelValues("error").Inc()
			return models.Internal("publish item record", err)
		}
		middleware.ItemRecordsPublished.WithLabelValues("ok").Inc()
	}
	return nil
}
