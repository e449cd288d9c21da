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

// Lineage is a row of the lineage table: one transformation edge between
// sets of items.
type Lineage struct {
	ID       uuid.UUID     `db:"id"`
	Consumes []uuid.UUID   `db:"consumes"`
	Produces []uuid.UUID   `db:"produces"`
	TfrmType TransformType `db:"tfrm_type"`
}

// Provenance is a row of the provenance table: a point-in-time snapshot of
// a file item taken when a lineage edge touched it.
type Provenance struct {
	ID            uuid.UUID     `db:"id"`
	LineageID     *uuid.UUID    `db:"lineage_id"`
	ItemID        uuid.UUID     `db:"item_id"`
	SnapshotTime  time.Time     `db:"snapshot_time"`
	Parent        *uuid.UUID    `db:"parent"`
	ParentPath    *string       `db:"parent_path"`
	RestorePath   *string       `db:"restore_path"`
	Status        ItemStatus    `db:"status"`
	Type          ItemType      `db:"type"`
	Zone          int           `db:"zone"`
	Name          string        `db:"name"`
	Size          int64         `db:"size"`
	Owner         string        `db:"owner"`
	ContainerCode string        `db:"container_code"`
	ContainerType ContainerType `db:"container_type"`
}

// LineageEdgeView is one lineage entry in the grouped response. The type is
// rendered in its uppercase historical form (COPY_TO_ZONE, ARCHIVE).
type LineageEdgeView struct {
	TfrmType string   `json:"tfrm_type"`
	Consumes []string `json:"consumes"`
	Produces []string `json:"produces"`
}

// ProvenanceView is one snapshot in the grouped response; paths are decoded.
type ProvenanceView struct {
	ID            uuid.UUID     `json:"id"`
	LineageID     *uuid.UUID    `json:"lineage_id"`
	SnapshotTime  string        `json:"snapshot_time"`
	Parent        *uuid.UUID    `json:"parent"`
	ParentPath    *string       `json:"parent_path"`
	RestorePath   *string       `json:"restore_path"`
	Status        ItemStatus    `json:"status"`
	Type          ItemType      `json:"type"`
	Zone          int           `json:"zone"`
	Name          string        `json:"name"`
	Size          int64         `json:"size"`
	Owner         string        `json:"owner"`
	ContainerCode string        `json:"container_code"`
	ContainerType ContainerType `json:"container_type"`
}

// LineageProvenanceView groups lineage edges by lineage ID and snapshots by
// item ID.
type LineageProvenanceView struct {
	Lineage    map[string]LineageEdgeView `json:"lineage"`
	Provenance map[string]ProvenanceView  `json:"provenance"`
}

// TfrmTypeLabel renders a transform type for responses (COPY_TO_ZONE).
func TfrmTypeLabel(t TransformType) string {
	return strings.ToUpper(string(t))
}
