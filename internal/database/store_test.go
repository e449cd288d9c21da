// Metacat - Metadata Catalog Service
// Copyright 2026 Datalodge
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/datalodge/metacat

package database

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/datalodge/metacat/internal/config"
	"github.com/datalodge/metacat/internal/models"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { mockDB.Close() })

	db := sqlx.NewDb(mockDB, "pgx")
	store := NewWithDB(db, models.Limits{
		MaxTags:            10,
		MaxSystemTags:      10,
		MaxAttributeLength: 100,
		MaxCollections:     10,
	}, config.ZonesConfig{Greenroom: 0, Core: 1})
	return store, mock
}

func TestGetItemNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectQuery("SELECT items.id").
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetItem(context.Background(), id)
	if !models.IsNotFound(err) {
		t.Errorf("expected not-found error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestMarkDeletedCountsRows(t *testing.T) {
	store, mock := newMockStore(t)
	ids := []uuid.UUID{uuid.New(), uuid.New()}

	mock.ExpectExec("UPDATE items SET deleted = true").
		WithArgs("jdoe", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := store.MarkDeleted(context.Background(), ids, "jdoe")
	if err != nil {
		t.Fatalf("MarkDeleted: %v", err)
	}
	if n != 2 {
		t.Errorf("rows affected = %d, want 2", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateCollectionCapReached(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM collections`).
		WithArgs("jdoe", "proj1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(10))
	mock.ExpectRollback()

	_, err := store.CreateCollection(context.Background(), models.CreateCollectionRequest{
		Owner:         "jdoe",
		ContainerCode: "proj1",
		Name:          "overflow",
	})
	if err == nil {
		t.Fatal("expected error at the collection cap")
	}
	if models.StatusOf(err) != 400 {
		t.Errorf("expected 400, got %d", models.StatusOf(err))
	}
	if !strings.Contains(models.MessageOf(err), "Cannot create more than 10") {
		t.Errorf("message = %q", models.MessageOf(err))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateCollectionRejectsBadName(t *testing.T) {
	store, _ := newMockStore(t)

	_, err := store.CreateCollection(context.Background(), models.CreateCollectionRequest{
		Owner:         "jdoe",
		ContainerCode: "proj1",
		Name:          "bad/name",
	})
	if models.StatusOf(err) != 400 {
		t.Errorf("expected 400 for reserved character, got %v", err)
	}
}

func TestDeleteCollectionNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectExec("DELETE FROM collections").
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.DeleteCollection(context.Background(), id)
	if !models.IsNotFound(err) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestDeleteTemplateNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectExec("DELETE FROM attribute_templates").
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.DeleteTemplate(context.Background(), id)
	if !models.IsNotFound(err) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestCreateFavouriteRejectsUnknownType(t *testing.T) {
	store, _ := newMockStore(t)

	_, err := store.CreateFavourite(context.Background(), models.CreateFavouriteRequest{
		ID:            uuid.New(),
		Type:          "bookmark",
		User:          "jdoe",
		ContainerCode: "proj1",
	})
	if models.StatusOf(err) != 400 {
		t.Errorf("expected 400 for unknown favourite type, got %v", err)
	}
}

func TestCreateFavouriteRejectsNameFolder(t *testing.T) {
	store, mock := newMockStore(t)
	item := testItem(models.StatusActive, models.TypeNameFolder, "jdoe")

	mock.ExpectQuery("SELECT items.id").
		WithArgs(item.ID).
		WillReturnRows(itemRows(item))

	_, err := store.CreateFavourite(context.Background(), models.CreateFavouriteRequest{
		ID:   item.ID,
		Type: models.FavouriteItem,
		User: "jdoe",
	})
	if models.StatusOf(err) != 400 {
		t.Fatalf("expected 400 for a name folder favourite, got %v", err)
	}
	if !strings.Contains(models.MessageOf(err), "name_folder") {
		t.Errorf("message = %q", models.MessageOf(err))
	}
}

func TestListCollectionItemsFiltersByStatus(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()

	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT id, name, container_code").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "name", "container_code", "owner", "created_time", "last_updated_time"}).
			AddRow(id.String(), "samples", "proj1", "jdoe", now, now))
	mock.ExpectQuery(`SELECT count\(\*\)`).
		WithArgs(id, "ARCHIVED", false).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT items.id").
		WithArgs(id, "ARCHIVED", false, 25, 0).
		WillReturnRows(itemRows())

	_, total, err := store.ListCollectionItems(context.Background(), id,
		models.StatusArchived, nil, models.DefaultPagination())
	if err != nil {
		t.Fatalf("ListCollectionItems: %v", err)
	}
	if total != 0 {
		t.Errorf("total = %d", total)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetLineageProvenanceEmpty(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectQuery("SELECT id, consumes, produces, tfrm_type FROM lineage").
		WillReturnRows(sqlmock.NewRows([]string{"id", "consumes", "produces", "tfrm_type"}))
	mock.ExpectQuery("SELECT id, lineage_id, item_id").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.GetLineageProvenance(context.Background(), id)
	if !models.IsNotFound(err) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestUuidArrayRoundTrip(t *testing.T) {
	ids := uuidArray{uuid.New(), uuid.New()}

	raw, err := ids.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}

	var out uuidArray
	if err := out.Scan(raw); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(out) != 2 || out[0] != ids[0] || out[1] != ids[1] {
		t.Errorf("round trip mismatch: %v != %v", out, ids)
	}

	var empty uuidArray
	if err := empty.Scan("{}"); err != nil {
		t.Fatalf("Scan empty: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("empty array scan = %v", empty)
	}

	nilVal, err := uuidArray(nil).Value()
	if err != nil || nilVal != nil {
		t.Errorf("nil array should bind to NULL, got %v, %v", nilVal, err)
	}
}
