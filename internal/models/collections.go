// Metacat - Metadata Catalog Service
// Copyright 2026 Datalodge
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/datalodge/metacat

package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Collection is a named set of items owned by one user within a project.
type Collection struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	ContainerCode   string    `db:"container_code" json:"container_code"`
	Owner           string    `db:"owner" json:"owner"`
	CreatedTime     time.Time `db:"created_time" json:"-"`
	LastUpdatedTime time.Time `db:"last_updated_time" json:"-"`
}

// CollectionView is the client shape of a collection.
type CollectionView struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	ContainerCode   string    `json:"container_code"`
	Owner           string    `json:"owner"`
	CreatedTime     string    `json:"created_time"`
	LastUpdatedTime string    `json:"last_updated_time"`
	Favourite       bool      `json:"favourite"`
}

// View renders the collection for responses.
func (c *Collection) View() *CollectionView {
	return &CollectionView{
		ID:              c.ID,
		Name:            c.Name,
		ContainerCode:   c.ContainerCode,
		Owner:           c.Owner,
		CreatedTime:     c.CreatedTime.UTC().Format(timeFormat),
		LastUpdatedTime: c.LastUpdatedTime.UTC().Format(timeFormat),
	}
}

// collectionNameBanned lists characters rejected in collection names.
const collectionNameBanned = `/:?*<>|"'`

// ValidateCollectionName rejects names carrying reserved characters.
func ValidateCollectionName(name string) error {
	if name == "" {
		return BadRequest("collection name cannot be empty")
	}
	if i := strings.IndexAny(name, collectionNameBanned); i >= 0 {
		return BadRequest("cannot use special character %q in collection name", name[i])
	}
	return nil
}

// CreateCollectionRequest is the body of collection creation.
type CreateCollectionRequest struct {
	ID            *uuid.UUID `json:"id"`
	Owner         string     `json:"owner" validate:"required"`
	ContainerCode string     `json:"container_code" validate:"required"`
	Name          string     `json:"name" validate:"required"`
}

// CollectionRename pairs a collection ID with its new name.
type CollectionRename struct {
	ID   uuid.UUID `json:"id" validate:"required"`
	Name string    `json:"name" validate:"required"`
}

// UpdateCollectionsRequest is the bulk rename body.
type UpdateCollectionsRequest struct {
	Owner         string             `json:"owner" validate:"required"`
	ContainerCode string             `json:"container_code" validate:"required"`
	Collections   []CollectionRename `json:"collections" validate:"required,min=1"`
}

// Validate rejects duplicate or reserved names in the batch.
func (r *UpdateCollectionsRequest) Validate() error {
	seen := make(map[string]struct{}, len(r.Collections))
	for _, c := range r.Collections {
		if err := ValidateCollectionName(c.Name); err != nil {
			return err
		}
		if _, dup := seen[c.Name]; dup {
			return BadRequest("cannot use duplicate collection names")
		}
		seen[c.Name] = struct{}{}
	}
	return nil
}

// CollectionItemsRequest adds or removes items from a collection.
type CollectionItemsRequest struct {
	ID      uuid.UUID   `json:"id" validate:"required"`
	ItemIDs []uuid.UUID `json:"item_ids" validate:"required,min=1"`
}
