// Metacat - Metadata Catalog Service
// Copyright 2026 Datalodge
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/datalodge/metacat

package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/datalodge/metacat/internal/models"
	"github.com/datalodge/metacat/internal/pathcodec"
)

var itemRowColumns = []string{
	"id", "parent", "parent_path", "restore_path", "status", "type", "zone",
	"name", "size", "owner", "container_code", "container_type", "deleted",
	"deleted_by", "deleted_at", "created_time", "last_updated_time",
	"storage_id", "upload_id", "location_uri", "version", "extended_id", "extra",
}

func itemRowValues(item models.Item, extraJSON string) []driver.Value {
	var parent driver.Value
	if item.Parent != nil {
		parent = item.Parent.String()
	}
	var parentPath, restorePath driver.Value
	if item.ParentPath != nil {
		parentPath = *item.ParentPath
	}
	if item.RestorePath != nil {
		restorePath = *item.RestorePath
	}
	return []driver.Value{
		item.ID.String(), parent, parentPath, restorePath,
		string(item.Status), string(item.Type), item.Zone,
		item.Name, item.Size, item.Owner, item.ContainerCode,
		string(item.ContainerType), item.Deleted, nil, nil,
		item.CreatedTime, item.LastUpdatedTime,
		uuid.NewString(), nil, nil, nil, uuid.NewString(), []byte(extraJSON),
	}
}

func itemRows(items ...models.Item) *sqlmock.Rows {
	rows := sqlmock.NewRows(itemRowColumns)
	for _, item := range items {
		rows.AddRow(itemRowValues(item, `{"tags":[],"system_tags":[]}`)...)
	}
	return rows
}

func emptyExists() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"exists"}).AddRow(false)
}

func testItem(status models.ItemStatus, itemType models.ItemType, name string) models.Item {
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	return models.Item{
		ID:              uuid.New(),
		Status:          status,
		Type:            itemType,
		Zone:            0,
		Name:            name,
		Size:            128,
		Owner:           "jdoe",
		ContainerCode:   "proj1",
		ContainerType:   models.ContainerProject,
		CreatedTime:     now,
		LastUpdatedTime: now,
	}
}

func TestArchiveItemClearsParent(t *testing.T) {
	store, mock := newMockStore(t)

	parentID := uuid.New()
	encoded := pathcodec.EncodePath("jdoe/docs")
	item := testItem(models.StatusActive, models.TypeFile, "data.csv")
	item.Parent = &parentID
	item.ParentPath = &encoded

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT items.id").WithArgs(item.ID).WillReturnRows(itemRows(item))
	mock.ExpectQuery("SELECT EXISTS").WillReturnRows(emptyExists())
	mock.ExpectQuery("SELECT items.id").WillReturnRows(itemRows())
	mock.ExpectExec("UPDATE items SET").
		WithArgs(nil, nil, encoded, "ARCHIVED", item.Zone, item.Name,
			item.Size, item.Owner, sqlmock.AnyArg(), item.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM favourites").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO lineage").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO provenance").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	affected, err := store.ArchiveItem(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("ArchiveItem: %v", err)
	}
	if len(affected) != 1 {
		t.Fatalf("affected = %d items, want 1", len(affected))
	}
	root := affected[0].Item
	if root.Parent != nil {
		t.Errorf("archived item parent = %v, want nil", root.Parent)
	}
	if root.ParentPath != nil {
		t.Errorf("archived item parent_path = %v, want nil", root.ParentPath)
	}
	if root.RestorePath == nil || *root.RestorePath != encoded {
		t.Errorf("restore_path = %v, want %q", root.RestorePath, encoded)
	}
	if root.Status != models.StatusArchived {
		t.Errorf("status = %q", root.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestArchiveItemAcceptsRegistered(t *testing.T) {
	store, mock := newMockStore(t)

	encoded := pathcodec.EncodePath("jdoe")
	item := testItem(models.StatusRegistered, models.TypeFile, "pending.csv")
	item.ParentPath = &encoded

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT items.id").WithArgs(item.ID).WillReturnRows(itemRows(item))
	mock.ExpectQuery("SELECT EXISTS").WillReturnRows(emptyExists())
	mock.ExpectQuery("SELECT items.id").WillReturnRows(itemRows())
	mock.ExpectExec("UPDATE items SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM favourites").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO lineage").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO provenance").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	affected, err := store.ArchiveItem(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("registered item should be archivable: %v", err)
	}
	if affected[0].Item.Status != models.StatusArchived {
		t.Errorf("status = %q, want ARCHIVED", affected[0].Item.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestArchiveItemAlreadyArchivedIsNoOp(t *testing.T) {
	store, mock := newMockStore(t)

	encoded := pathcodec.EncodePath("jdoe/docs")
	item := testItem(models.StatusArchived, models.TypeFile, "data.csv")
	item.RestorePath = &encoded

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT items.id").WithArgs(item.ID).WillReturnRows(itemRows(item))
	mock.ExpectCommit()

	affected, err := store.ArchiveItem(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("archiving an archived item should be a no-op: %v", err)
	}
	if len(affected) != 1 || affected[0].Item.Name != "data.csv" {
		t.Errorf("no-op should return the item untouched, got %+v", affected)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRestoreItemReattachesParent(t *testing.T) {
	store, mock := newMockStore(t)

	encoded := pathcodec.EncodePath("jdoe/docs")
	destID := uuid.New()
	item := testItem(models.StatusArchived, models.TypeFile, "data.csv")
	item.RestorePath = &encoded

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT items.id").WithArgs(item.ID).WillReturnRows(itemRows(item))
	mock.ExpectQuery("SELECT id FROM items").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(destID.String()))
	mock.ExpectQuery("SELECT EXISTS").WillReturnRows(emptyExists())
	mock.ExpectQuery("SELECT items.id").WillReturnRows(itemRows())
	mock.ExpectExec("UPDATE items SET").
		WithArgs(destID, encoded, nil, "ACTIVE", item.Zone, item.Name,
			item.Size, item.Owner, sqlmock.AnyArg(), item.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO lineage").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO provenance").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	affected, err := store.RestoreItem(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("RestoreItem: %v", err)
	}
	root := affected[0].Item
	if root.Parent == nil || *root.Parent != destID {
		t.Errorf("restored item parent = %v, want %s", root.Parent, destID)
	}
	if root.ParentPath == nil || *root.ParentPath != encoded {
		t.Errorf("parent_path = %v, want %q", root.ParentPath, encoded)
	}
	if root.RestorePath != nil {
		t.Errorf("restore_path = %v, want nil", root.RestorePath)
	}
	if root.Status != models.StatusActive {
		t.Errorf("status = %q", root.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRestoreItemAlreadyActiveIsNoOp(t *testing.T) {
	store, mock := newMockStore(t)

	encoded := pathcodec.EncodePath("jdoe/docs")
	item := testItem(models.StatusActive, models.TypeFile, "data.csv")
	item.ParentPath = &encoded

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT items.id").WithArgs(item.ID).WillReturnRows(itemRows(item))
	mock.ExpectCommit()

	affected, err := store.RestoreItem(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("restoring an active item should be a no-op: %v", err)
	}
	if len(affected) != 1 || affected[0].Item.Status != models.StatusActive {
		t.Errorf("no-op should return the item untouched, got %+v", affected)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRestoreItemDestinationMissing(t *testing.T) {
	store, mock := newMockStore(t)

	encoded := pathcodec.EncodePath("jdoe/gone")
	item := testItem(models.StatusArchived, models.TypeFile, "data.csv")
	item.RestorePath = &encoded

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT items.id").WithArgs(item.ID).WillReturnRows(itemRows(item))
	mock.ExpectQuery("SELECT id FROM items").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := store.RestoreItem(context.Background(), item.ID)
	if models.StatusOf(err) != 400 {
		t.Fatalf("expected 400, got %v", err)
	}
	if models.MessageOf(err) != "Restore destination does not exist" {
		t.Errorf("message = %q", models.MessageOf(err))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUpdateItemParentOnlyKeepsLocation(t *testing.T) {
	store, mock := newMockStore(t)

	encoded := pathcodec.EncodePath("jdoe/docs")
	newParent := uuid.New()
	item := testItem(models.StatusActive, models.TypeFile, "file1.txt")
	item.ParentPath = &encoded

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT items.id").WithArgs(item.ID).WillReturnRows(itemRows(item))
	// No collision check: the path did not change.
	mock.ExpectExec("UPDATE items SET").
		WithArgs(newParent, encoded, nil, "ACTIVE", item.Zone, item.Name,
			item.Size, item.Owner, sqlmock.AnyArg(), item.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE storage SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE extended SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO provenance").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	bundle, err := store.UpdateItem(context.Background(), item.ID, models.UpdateItemRequest{
		Parent: &newParent,
	})
	if err != nil {
		t.Fatalf("parent-only update should not collide with itself: %v", err)
	}
	if bundle.Item.Parent == nil || *bundle.Item.Parent != newParent {
		t.Errorf("parent = %v, want %s", bundle.Item.Parent, newParent)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUpdateItemRenamesSubtree(t *testing.T) {
	store, mock := newMockStore(t)

	parentEncoded := pathcodec.EncodePath("jdoe")
	folder := testItem(models.StatusActive, models.TypeFolder, "docs")
	folder.ParentPath = &parentEncoded

	childPath := pathcodec.EncodePath("jdoe/docs")
	child := testItem(models.StatusActive, models.TypeFile, "file1.txt")
	child.Parent = &folder.ID
	child.ParentPath = &childPath

	newName := "papers"
	rewritten := pathcodec.EncodePath("jdoe/papers")

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT items.id").WithArgs(folder.ID).WillReturnRows(itemRows(folder))
	mock.ExpectQuery("SELECT EXISTS").WillReturnRows(emptyExists())
	mock.ExpectQuery("SELECT items.id").WillReturnRows(itemRows(child))
	mock.ExpectExec("UPDATE items SET").
		WithArgs(folder.ID, rewritten, nil, "ACTIVE", child.Zone, child.Name,
			child.Size, child.Owner, sqlmock.AnyArg(), child.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE items SET").
		WithArgs(nil, parentEncoded, nil, "ACTIVE", folder.Zone, newName,
			folder.Size, folder.Owner, sqlmock.AnyArg(), folder.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE storage SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE extended SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	bundle, err := store.UpdateItem(context.Background(), folder.ID, models.UpdateItemRequest{
		Name: &newName,
	})
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if bundle.Item.Name != newName {
		t.Errorf("name = %q, want %q", bundle.Item.Name, newName)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUpdateItemRegisteredLock(t *testing.T) {
	store, mock := newMockStore(t)

	encoded := pathcodec.EncodePath("jdoe")
	item := testItem(models.StatusRegistered, models.TypeFile, "pending.csv")
	item.ParentPath = &encoded

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT items.id").WithArgs(item.ID).WillReturnRows(itemRows(item))
	mock.ExpectRollback()

	owner := "someone"
	_, err := store.UpdateItem(context.Background(), item.ID, models.UpdateItemRequest{
		Owner: &owner,
	})
	if models.StatusOf(err) != 400 {
		t.Fatalf("expected 400 for a locked registered item, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUpdateItemMergesTags(t *testing.T) {
	store, mock := newMockStore(t)

	encoded := pathcodec.EncodePath("jdoe/docs")
	item := testItem(models.StatusActive, models.TypeFile, "data.csv")
	item.ParentPath = &encoded

	rows := sqlmock.NewRows(itemRowColumns).
		AddRow(itemRowValues(item, `{"tags":["alpha"],"system_tags":[]}`)...)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT items.id").WithArgs(item.ID).WillReturnRows(rows)
	mock.ExpectExec("UPDATE items SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE storage SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE extended SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO provenance").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	bundle, err := store.UpdateItem(context.Background(), item.ID, models.UpdateItemRequest{
		Tags: &[]string{"beta", "alpha"},
	})
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	got := bundle.Extended.Extra.Tags
	if len(got) != 2 || got[0] != "alpha" || got[1] != "beta" {
		t.Errorf("tags = %v, want [alpha beta]", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
