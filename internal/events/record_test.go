// Metacat - Metadata Catalog Service
// Copyright 2026 Datalodge
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/datalodge/metacat

package events

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/datalodge/metacat/internal/database"
	"github.com/datalodge/metacat/internal/models"
	"github.com/datalodge/metacat/internal/pathcodec"
)

func testBundle() *database.ItemBundle {
	id := uuid.New()
	encoded := pathcodec.EncodePath("jdoe/folder one")
	uploadID := "upload-1"
	return &database.ItemBundle{
		Item: models.Item{
			ID:              id,
			ParentPath:      &encoded,
			Status:          models.StatusActive,
			Type:            models.TypeFile,
			Zone:            1,
			Name:            "data.csv",
			Size:            42,
			Owner:           "jdoe",
			ContainerCode:   "proj1",
			ContainerType:   models.ContainerProject,
			CreatedTime:     time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
			LastUpdatedTime: time.Date(2026, 8, 2, 12, 0, 0, 0, time.UTC),
		},
		Storage: models.Storage{ID: uuid.New(), ItemID: id, UploadID: &uploadID},
		Extended: models.Extended{
			ID:     uuid.New(),
			ItemID: id,
			Extra:  models.Extra{Tags: []string{"a"}, SystemTags: []string{}},
		},
	}
}

func TestNewItemRecordDecodesPaths(t *testing.T) {
	record, err := NewItemRecord(testBundle(), "", false)
	if err != nil {
		t.Fatalf("NewItemRecord: %v", err)
	}
	if record.ParentPath != "jdoe/folder one" {
		t.Errorf("ParentPath = %q, want decoded path", record.ParentPath)
	}
	if record.UploadID != "upload-1" {
		t.Errorf("UploadID = %q", record.UploadID)
	}
	if record.ToDelete {
		t.Error("ToDelete should be false")
	}
	if !strings.HasPrefix(record.CreatedTime, "2026-08-01 12:00:00") {
		t.Errorf("CreatedTime = %q", record.CreatedTime)
	}
}

func TestNewItemRecordCarriesTemplate(t *testing.T) {
	bundle := testBundle()
	templateID := uuid.NewString()
	bundle.Extended.Extra.Attributes = map[string]map[string]any{
		templateID: {"species": "mouse"},
	}

	record, err := NewItemRecord(bundle, "samples", false)
	if err != nil {
		t.Fatalf("NewItemRecord: %v", err)
	}
	if record.TemplateID != templateID || record.TemplateName != "samples" {
		t.Errorf("template fields = %q, %q", record.TemplateID, record.TemplateName)
	}
	if !strings.Contains(record.Attributes, "mouse") {
		t.Errorf("Attributes = %q", record.Attributes)
	}
}

func TestItemRecordAvroRoundTrip(t *testing.T) {
	record, err := NewItemRecord(testBundle(), "", true)
	if err != nil {
		t.Fatalf("NewItemRecord: %v", err)
	}

	data, err := record.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	decoded, err := UnmarshalItemRecord(data)
	if err != nil {
		t.Fatalf("UnmarshalItemRecord: %v", err)
	}
	if decoded.ID != record.ID || decoded.Name != "data.csv" || !decoded.ToDelete {
		t.Errorf("round trip mismatch: %+v", decoded)
	}
	if len(decoded.Tags) != 1 || decoded.Tags[0] != "a" {
		t.Errorf("tags lost in round trip: %v", decoded.Tags)
	}
}

func TestNopBus(t *testing.T) {
	var bus Bus = NopBus{}
	if err := bus.PublishItem(context.Background(), &ItemRecord{}); err != nil {
		t.Errorf("NopBus.PublishItem: %v", err)
	}
	if !bus.Healthy() {
		t.Error("NopBus should report healthy")
	}
}
