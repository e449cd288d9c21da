// Metacat - Metadata Catalog Service
// Copyright 2026 Datalodge
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/datalodge/metacat

package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/datalodge/metacat/internal/database"
	"github.com/datalodge/metacat/internal/events"
	"github.com/datalodge/metacat/internal/logging"
	"github.com/datalodge/metacat/internal/models"
	"github.com/datalodge/metacat/internal/pathcodec"
)

// stubStore overrides only the methods a test exercises; anything else
// panics through the embedded nil interface.
type stubStore struct {
	Store

	getItem           func(ctx context.Context, id uuid.UUID) (*database.ItemBundle, error)
	searchItems       func(ctx context.Context, f models.ItemFilter, extra []database.Condition, p models.Pagination) ([]database.ItemBundle, int, error)
	createItem        func(ctx context.Context, req models.CreateItemRequest) (*database.ItemBundle, error)
	archiveItem       func(ctx context.Context, id uuid.UUID) ([]database.ItemBundle, error)
	deleteItem        func(ctx context.Context, id uuid.UUID) ([]database.ItemBundle, error)
	markDeleted       func(ctx context.Context, ids []uuid.UUID, user string) (int64, error)
	ping              func(ctx context.Context) error
	listCollections   func(ctx context.Context, owner, containerCode string, p models.Pagination) ([]models.Collection, []bool, int, error)
	createCollection  func(ctx context.Context, req models.CreateCollectionRequest) (*models.Collection, error)
	deleteCollection  func(ctx context.Context, id uuid.UUID) error
	createFavourite   func(ctx context.Context, req models.CreateFavouriteRequest) (*models.FavouriteView, error)
	getTemplate       func(ctx context.Context, id uuid.UUID) (*models.AttributeTemplate, error)
	createTemplate    func(ctx context.Context, req models.CreateTemplateRequest) (*models.AttributeTemplate, error)
	lineageProvenance func(ctx context.Context, itemID uuid.UUID) (*models.LineageProvenanceView, error)
}

func (s *stubStore) Limits() models.Limits {
	return models.Limits{MaxTags: 10, MaxSystemTags: 10, MaxAttributeLength: 100, MaxCollections: 10}
}

func (s *stubStore) GetItem(ctx context.Context, id uuid.UUID) (*database.ItemBundle, error) {
	return s.getItem(ctx, id)
}

func (s *stubStore) SearchItems(ctx context.Context, f models.ItemFilter, extra []database.Condition, p models.Pagination) ([]database.ItemBundle, int, error) {
	return s.searchItems(ctx, f, extra, p)
}

func (s *stubStore) CreateItem(ctx context.Context, req models.CreateItemRequest) (*database.ItemBundle, error) {
	return s.createItem(ctx, req)
}

func (s *stubStore) ArchiveItem(ctx context.Context, id uuid.UUID) ([]database.ItemBundle, error) {
	return s.archiveItem(ctx, id)
}

func (s *stubStore) DeleteItem(ctx context.Context, id uuid.UUID) ([]database.ItemBundle, error) {
	return s.deleteItem(ctx, id)
}

func (s *stubStore) MarkDeleted(ctx context.Context, ids []uuid.UUID, user string) (int64, error) {
	return s.markDeleted(ctx, ids, user)
}

func (s *stubStore) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

func (s *stubStore) ListCollections(ctx context.Context, owner, containerCode string, p models.Pagination) ([]models.Collection, []bool, int, error) {
	return s.listCollections(ctx, owner, containerCode, p)
}

func (s *stubStore) CreateCollection(ctx context.Context, req models.CreateCollectionRequest) (*models.Collection, error) {
	return s.createCollection(ctx, req)
}

func (s *stubStore) DeleteCollection(ctx context.Context, id uuid.UUID) error {
	return s.deleteCollection(ctx, id)
}

func (s *stubStore) CreateFavourite(ctx context.Context, req models.CreateFavouriteRequest) (*models.FavouriteView, error) {
	return s.createFavourite(ctx, req)
}

func (s *stubStore) GetTemplate(ctx context.Context, id uuid.UUID) (*models.AttributeTemplate, error) {
	return s.getTemplate(ctx, id)
}

func (s *stubStore) CreateTemplate(ctx context.Context, req models.CreateTemplateRequest) (*models.AttributeTemplate, error) {
	return s.createTemplate(ctx, req)
}

func (s *stubStore) GetLineageProvenance(ctx context.Context, itemID uuid.UUID) (*models.LineageProvenanceView, error) {
	return s.lineageProvenance(ctx, itemID)
}

// stubPerms returns fixed conditions for every listing.
type stubPerms struct {
	conds []database.Condition
	err   error
}

func (s *stubPerms) ItemConditions(context.Context, models.ItemFilter) ([]database.Condition, error) {
	return s.conds, s.err
}

func (s *stubPerms) CollectionItemConditions(context.Context, string, string) ([]database.Condition, error) {
	return s.conds, s.err
}

// recordingBus captures published records.
type recordingBus struct {
	records []*events.ItemRecord
	healthy bool
	err     error
}

func (b *recordingBus) PublishItem(_ context.Context, record *events.ItemRecord) error {
	if b.err != nil {
		return b.err
	}
	b.records = append(b.records, record)
	return nil
}

func (b *recordingBus) Healthy() bool { return b.healthy }
func (b *recordingBus) Close() error  { return nil }

func stubBundle(t *testing.T) *database.ItemBundle {
	t.Helper()
	id := uuid.New()
	encoded := pathcodec.EncodePath("jdoe/docs")
	return &database.ItemBundle{
		Item: models.Item{
			ID:              id,
			ParentPath:      &encoded,
			Status:          models.StatusActive,
			Type:            models.TypeFile,
			Zone:            1,
			Name:            "data.csv",
			Size:            128,
			Owner:           "jdoe",
			ContainerCode:   "proj1",
			ContainerType:   models.ContainerProject,
			CreatedTime:     time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
			LastUpdatedTime: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		},
		Storage:  models.Storage{ID: uuid.New(), ItemID: id},
		Extended: models.Extended{ID: uuid.New(), ItemID: id, Extra: models.Extra{Tags: []string{}, SystemTags: []string{}}},
	}
}

// withUser stamps an identity on every request, standing in for the JWT
// middleware.
func withUser(user string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(logging.ContextWithUsername(r.Context(), user)))
	})
}

func serve(t *testing.T, router chi.Router, method, target string, body string) (*httptest.ResponseRecorder, models.Envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env models.Envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode envelope: %v (body %q)", err, rec.Body.String())
		}
	}
	return rec, env
}
