// Metacat - Metadata Catalog Service
// Copyright 2026 Datalodge
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/datalodge/metacat

// Package events publishes item change records to the message bus.
//
// Every mutation of the item tree emits one Avro-encoded record per affected
// item on a NATS JetStream subject, so downstream consumers (search index,
// notifications, accounting) can follow the catalog without polling it.
package events

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/hamba/avro/v2"

	"github.com/datalodge/metacat/internal/database"
)

// itemRecordSchema is the Avro schema of the item change feed.
const itemRecordSchema = `{
	"type": "record",
	"name": "ItemRecord",
	"namespace": "io.datalodge.metacat",
	"fields": [
		{"name": "id", "type": "string"},
		{"name": "parent", "type": "string", "default": ""},
		{"name": "parent_path", "type": "string", "default": ""},
		{"name": "restore_path", "type": "string", "default": ""},
		{"name": "status", "type": "string"},
		{"name": "type", "type": "string"},
		{"name": "zone", "type": "int"},
		{"name": "name", "type": "string"},
		{"name": "size", "type": "long"},
		{"name": "owner", "type": "string"},
		{"name": "container_code", "type": "string"},
		{"name": "container_type", "type": "string"},
		{"name": "created_time", "type": "string"},
		{"name": "last_updated_time", "type": "string"},
		{"name": "upload_id", "type": "string", "default": ""},
		{"name": "location_uri", "type": "string", "default": ""},
		{"name": "version", "type": "string", "default": ""},
		{"name": "tags", "type": {"type": "array", "items": "string"}, "default": []},
		{"name": "system_tags", "type": {"type": "array", "items": "string"}, "default": []},
		{"name": "template_id", "type": "string", "default": ""},
		{"name": "template_name", "type": "string", "default": ""},
		{"name": "attributes", "type": "string", "default": ""},
		{"name": "to_delete", "type": "boolean", "default": false}
	]
}`

var recordSchema = avro.MustParse(itemRecordSchema)

// ItemRecord is one entry of the item change feed. Paths are decoded and
// timestamps rendered the same way the HTTP API renders them.
type ItemRecord struct {
	ID              string   `avro:"id"`
	Parent          string   `avro:"parent"`
	ParentPath      string   `avro:"parent_path"`
	RestorePath     string   `avro:"restore_path"`
	Status          string   `avro:"status"`
	Type            string   `avro:"type"`
	Zone            int      `avro:"zone"`
	Name            string   `avro:"name"`
	Size            int64    `avro:"size"`
	Owner           string   `avro:"owner"`
	ContainerCode   string   `avro:"container_code"`
	ContainerType   string   `avro:"container_type"`
	CreatedTime     string   `avro:"created_time"`
	LastUpdatedTime string   `avro:"last_updated_time"`
	UploadID        string   `avro:"upload_id"`
	LocationURI     string   `avro:"location_uri"`
	Version         string   `avro:"version"`
	Tags            []string `avro:"tags"`
	SystemTags      []string `avro:"system_tags"`
	TemplateID      string   `avro:"template_id"`
	TemplateName    string   `avro:"template_name"`
	Attributes      string   `avro:"attributes"`
	ToDelete        bool     `avro:"to_delete"`
}

// NewItemRecord flattens an item bundle into a change feed record.
// templateName names the attribute template referenced by the item's
// attributes, when there is one.
func NewItemRecord(bundle *database.ItemBundle, templateName string, toDelete bool) (*ItemRecord, error) {
	view, err := bundle.View()
	if err != nil {
		return nil, err
	}

	record := &ItemRecord{
		ID:              view.ID.String(),
		Status:          string(view.Status),
		Type:            string(view.Type),
		Zone:            view.Zone,
		Name:            view.Name,
		Size:            view.Size,
		Owner:           view.Owner,
		ContainerCode:   view.ContainerCode,
		ContainerType:   string(view.ContainerType),
		CreatedTime:     view.CreatedTime,
		LastUpdatedTime: view.LastUpdatedTime,
		Tags:            view.Extended.Extra.Tags,
		SystemTags:      view.Extended.Extra.SystemTags,
		ToDelete:        toDelete,
	}
	if record.Tags == nil {
		record.Tags = []string{}
	}
	if record.SystemTags == nil {
		record.SystemTags = []string{}
	}

	if view.Parent != nil {
		record.Parent = view.Parent.String()
	}
	if view.ParentPath != nil {
		record.ParentPath = *view.ParentPath
	}
	if view.RestorePath != nil {
		record.RestorePath = *view.RestorePath
	}
	if view.Storage.UploadID != nil {
		record.UploadID = *view.Storage.UploadID
	}
	if view.Storage.LocationURI != nil {
		record.LocationURI = *view.Storage.LocationURI
	}
	if view.Storage.Version != nil {
		record.Version = *view.Storage.Version
	}

	extra := view.Extended.Extra
	if templateID := extra.TemplateID(); templateID != "" {
		record.TemplateID = templateID
		record.TemplateName = templateName
		encoded, err := json.Marshal(extra.Attributes[templateID])
		if err != nil {
			return nil, fmt.Errorf("encode attributes of item %s: %w", view.ID, err)
		}
		record.Attributes = string(encoded)
	}
	return record, nil
}

// Marshal encodes the record with the feed's Avro schema.
func (r *ItemRecord) Marshal() ([]byte, error) {
	data, err := avro.Marshal(recordSchema, r)
	if err != nil {
		return nil, fmt.Errorf("encode item record %s: %w", r.ID, err)
	}
	return data, nil
}

// UnmarshalItemRecord decodes a change feed entry; consumers and tests use
// it to read what Publish wrote.
func UnmarshalItemRecord(data []byte) (*ItemRecord, error) {
	var record ItemRecord
	if err := avro.Unmarshal(recordSchema, data, &record); err != nil {
		return nil, fmt.Errorf("decode item record: %w", err)
	}
	return &record, nil
}
