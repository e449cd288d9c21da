// Metacat - Metadata Catalog Service
// Copyright 2026 Datalodge
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/datalodge/metacat

package models

import (
	"time"

	"github.com/google/uuid"
)

// FavouriteType distinguishes favourited entities.
type FavouriteType string

const (
	FavouriteItem       FavouriteType = "item"
	FavouriteCollection FavouriteType = "collection"
)

// Valid reports whether the favourite type is known.
func (t FavouriteType) Valid() bool {
	return t == FavouriteItem || t == FavouriteCollection
}

// Favourite is a row of the favourites table. Exactly one of ItemID and
// CollectionID is set.
type Favourite struct {
	ID           uuid.UUID  `db:"id"`
	User         string     `db:"user"`
	ItemID       *uuid.UUID `db:"item_id"`
	CollectionID *uuid.UUID `db:"collection_id"`
	Pinned       bool       `db:"pinned"`
	CreatedTime  time.Time  `db:"created_time"`
}

// FavouriteView is the client shape of a favourite: the favourited entity's
// identity plus where it lives.
type FavouriteView struct {
	ID          uuid.UUID `json:"id"`
	Type        string    `json:"type"`
	Name        string    `json:"name"`
	DisplayPath string    `json:"display_path"`
	Pinned      bool      `json:"pinned"`
}

// CreateFavouriteRequest is the body of favourite creation.
type CreateFavouriteRequest struct {
	ID            uuid.UUID     `json:"id" validate:"required"`
	Type          FavouriteType `json:"type"`
	User          string        `json:"user" validate:"required"`
	Zone          int           `json:"zone"`
	ContainerCode string        `json:"container_code" validate:"required"`
}

// FavouriteRef identifies one favourite by entity ID and type.
type FavouriteRef struct {
	ID   uuid.UUID     `json:"id" validate:"required"`
	Type FavouriteType `json:"type"`
}

// PinFavouriteRequest flips the pinned marker of one favourite.
type PinFavouriteRequest struct {
	ID     uuid.UUID     `json:"id" validate:"required"`
	Type   FavouriteType `json:"type"`
	User   string        `json:"user" validate:"required"`
	Pinned bool          `json:"pinned"`
}

// PinFavouritesRequest is the bulk pin body.
type PinFavouritesRequest struct {
	Favourites []PinFavouriteRequest `json:"favourites" validate:"required,min=1"`
}

// DeleteFavouritesRequest is the bulk removal body.
type DeleteFavouritesRequest struct {
	Favourites []FavouriteRef `json:"favourites" validate:"required,min=1"`
}
