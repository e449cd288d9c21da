// Metacat - Metadata Catalog Service
// Copyright 2026 Datalodge
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/datalodge/metacat

package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/datalodge/metacat/internal/pathcodec"
)

// Item is a row of the items table. Paths are stored in their encoded ltree
// form; views decode them before serialization.
type Item struct {
	ID              uuid.UUID     `db:"id"`
	Parent          *uuid.UUID    `db:"parent"`
	ParentPath      *string       `db:"parent_path"`
	RestorePath     *string       `db:"restore_path"`
	Status          ItemStatus    `db:"status"`
	Type            ItemType      `db:"type"`
	Zone            int           `db:"zone"`
	Name            string        `db:"name"`
	Size            int64         `db:"size"`
	Owner           string        `db:"owner"`
	ContainerCode   string        `db:"container_code"`
	ContainerType   ContainerType `db:"container_type"`
	Deleted         bool          `db:"deleted"`
	DeletedBy       *string       `db:"deleted_by"`
	DeletedAt       *time.Time    `db:"deleted_at"`
	CreatedTime     time.Time     `db:"created_time"`
	LastUpdatedTime time.Time     `db:"last_updated_time"`
}

// Storage is a row of the storage table (1:1 with items).
type Storage struct {
	ID          uuid.UUID `db:"id"`
	ItemID      uuid.UUID `db:"item_id"`
	UploadID    *string   `db:"upload_id"`
	LocationURI *string   `db:"location_uri"`
	Version     *string   `db:"version"`
}

// Extended is a row of the extended table (1:1 with items).
type Extended struct {
	ID     uuid.UUID `db:"id"`
	ItemID uuid.UUID `db:"item_id"`
	Extra  Extra     `db:"extra"`
}

// Extra is the JSON payload of the extended table: user tags, system tags
// and per-template attribute values keyed by template ID.
type Extra struct {
	Tags       []string                  `json:"tags"`
	SystemTags []string                  `json:"system_tags"`
	Attributes map[string]map[string]any `json:"attributes,omitempty"`
}

// Value implements driver.Valuer for the JSON column.
func (e Extra) Value() (driver.Value, error) {
	return json.Marshal(e)
}

// Scan implements sql.Scanner for the JSON column.
func (e *Extra) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*e = Extra{}
		return nil
	case []byte:
		return json.Unmarshal(v, e)
	case string:
		return json.Unmarshal([]byte(v), e)
	default:
		return fmt.Errorf("unsupported type %T for extra column", src)
	}
}

// TemplateID returns the single attribute template ID referenced by the
// extra payload, or the empty string when no attributes are attached.
func (e Extra) TemplateID() string {
	for id := range e.Attributes {
		return id
	}
	return ""
}

// StorageView is the storage block of an item response.
type StorageView struct {
	ID          uuid.UUID `json:"id"`
	UploadID    *string   `json:"upload_id"`
	LocationURI *string   `json:"location_uri"`
	Version     *string   `json:"version"`
}

// ExtendedView is the extended block of an item response.
type ExtendedView struct {
	ID    uuid.UUID `json:"id"`
	Extra Extra     `json:"extra"`
}

// ItemView is the full item shape returned to clients: the item row with
// decoded paths, nested storage/extended blocks and the caller's favourite
// marker.
type ItemView struct {
	ID              uuid.UUID     `json:"id"`
	Parent          *uuid.UUID    `json:"parent"`
	ParentPath      *string       `json:"parent_path"`
	RestorePath     *string       `json:"restore_path"`
	Status          ItemStatus    `json:"status"`
	Type            ItemType      `json:"type"`
	Zone            int           `json:"zone"`
	Name            string        `json:"name"`
	Size            int64         `json:"size"`
	Owner           string        `json:"owner"`
	ContainerCode   string        `json:"container_code"`
	ContainerType   ContainerType `json:"container_type"`
	Deleted         bool          `json:"deleted"`
	CreatedTime     string        `json:"created_time"`
	LastUpdatedTime string        `json:"last_updated_time"`
	Storage         StorageView   `json:"storage"`
	Extended        ExtendedView  `json:"extended"`
	Favourite       bool          `json:"favourite"`
}

// timeFormat matches the historical timestamp rendering of item responses.
const timeFormat = "2006-01-02 15:04:05.999999"

// NewItemView assembles the client view of an item with decoded paths.
func NewItemView(item *Item, storage *Storage, extended *Extended) (*ItemView, error) {
	view := &ItemView{
		ID:              item.ID,
		Parent:          item.Parent,
		Status:          item.Status,
		Type:            item.Type,
		Zone:            item.Zone,
		Name:            item.Name,
		Size:            item.Size,
		Owner:           item.Owner,
		ContainerCode:   item.ContainerCode,
		ContainerType:   item.ContainerType,
		Deleted:         item.Deleted,
		CreatedTime:     item.CreatedTime.UTC().Format(timeFormat),
		LastUpdatedTime: item.LastUpdatedTime.UTC().Format(timeFormat),
	}

	if item.ParentPath != nil {
		decoded, err := pathcodec.DecodePath(*item.ParentPath)
		if err != nil {
			return nil, fmt.Errorf("item %s: %w", item.ID, err)
		}
		view.ParentPath = &decoded
	}
	if item.RestorePath != nil {
		decoded, err := pathcodec.DecodePath(*item.RestorePath)
		if err != nil {
			return nil, fmt.Errorf("item %s: %w", item.ID, err)
		}
		view.RestorePath = &decoded
	}

	if storage != nil {
		view.Storage = StorageView{
			ID:          storage.ID,
			UploadID:    storage.UploadID,
			LocationURI: storage.LocationURI,
			Version:     storage.Version,
		}
	}
	if extended != nil {
		view.Extended = ExtendedView{ID: extended.ID, Extra: extended.Extra}
	}

	return view, nil
}

// CreateItemRequest is the body of item creation, single or batched.
type CreateItemRequest struct {
	ID                  *uuid.UUID                `json:"id"`
	Parent              *uuid.UUID                `json:"parent"`
	ParentPath          string                    `json:"parent_path"`
	ContainerCode       string                    `json:"container_code" validate:"required"`
	ContainerType       ContainerType             `json:"container_type"`
	Type                ItemType                  `json:"type"`
	Status              ItemStatus                `json:"status"`
	Zone                int                       `json:"zone"`
	Name                string                    `json:"name" validate:"required"`
	Size                int64                     `json:"size"`
	Owner               string                    `json:"owner" validate:"required"`
	UploadID            *string                   `json:"upload_id"`
	LocationURI         *string                   `json:"location_uri"`
	Version             *string                   `json:"version"`
	Tags                []string                  `json:"tags"`
	SystemTags          []string                  `json:"system_tags"`
	AttributeTemplateID *uuid.UUID                `json:"attribute_template_id"`
	Attributes          map[string]any            `json:"attributes"`
	TfrmSource          *uuid.UUID                `json:"tfrm_source"`
	TfrmType            *TransformType            `json:"tfrm_type"`
}

// CreateItemsRequest is the bulk creation body.
type CreateItemsRequest struct {
	Items          []CreateItemRequest `json:"items" validate:"required,min=1"`
	SkipDuplicates bool                `json:"skip_duplicates"`
}

// UpdateItemRequest is the body of item update; nil fields are untouched.
type UpdateItemRequest struct {
	Parent              *uuid.UUID     `json:"parent"`
	ParentPath          *string        `json:"parent_path"`
	ContainerCode       *string        `json:"container_code"`
	ContainerType       *ContainerType `json:"container_type"`
	Type                *ItemType      `json:"type"`
	Status              *ItemStatus    `json:"status"`
	Zone                *int           `json:"zone"`
	Name                *string        `json:"name"`
	Size                *int64         `json:"size"`
	Owner               *string        `json:"owner"`
	UploadID            *string        `json:"upload_id"`
	LocationURI         *string        `json:"location_uri"`
	Version             *string        `json:"version"`
	Tags                *[]string      `json:"tags"`
	SystemTags          *[]string      `json:"system_tags"`
	AttributeTemplateID *uuid.UUID     `json:"attribute_template_id"`
	Attributes          map[string]any `json:"attributes"`
}

// UpdateItemsRequest is the bulk update body; items pair positionally with
// the ids query parameter.
type UpdateItemsRequest struct {
	Items []UpdateItemRequest `json:"items" validate:"required,min=1"`
}

// BequeathRequest pushes properties from a folder onto its subtree.
type BequeathRequest struct {
	AttributeTemplateID *uuid.UUID     `json:"attribute_template_id"`
	Attributes          map[string]any `json:"attributes"`
	SystemTags          *[]string      `json:"system_tags"`
}

// LocationQuery identifies at most one item by its exact location.
type LocationQuery struct {
	Name          string
	ParentPath    string
	ContainerCode string
	ContainerType ContainerType
	Zone          int
	Status        ItemStatus
}

// ItemFilter is the search surface of item listings. Paths come in decoded
// form from clients; the store encodes them.
type ItemFilter struct {
	ContainerCode    string
	ContainerType    string
	Zone             *int
	Recursive        bool
	Status           ItemStatus
	ParentPath       string
	RestorePath      string
	Name             string
	Owner            string
	Type             string
	FavUser          string
	AuthUser         string
	ProjectRole      string
	LastUpdatedStart *time.Time
	LastUpdatedEnd   *time.Time
}
