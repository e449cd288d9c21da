// Metacat - Metadata Catalog Service
// Copyright 2026 Datalodge
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/datalodge/metacat

// Package models defines the catalog entities, request/response shapes and
// the typed error taxonomy shared across the service.
package models

// ItemStatus is the lifecycle status of an item.
//
//   - REGISTERED: created by an upload flow but the payload is not complete yet.
//   - ACTIVE: upload complete, item visible at its parent_path.
//   - ARCHIVED: item moved to the trash; restore_path remembers where it was.
type ItemStatus string

const (
	StatusRegistered ItemStatus = "REGISTERED"
	StatusActive     ItemStatus = "ACTIVE"
	StatusArchived   ItemStatus = "ARCHIVED"
)

// Valid reports whether the status is a known lifecycle value.
func (s ItemStatus) Valid() bool {
	switch s {
	case StatusRegistered, StatusActive, StatusArchived:
		return true
	}
	return false
}

// ItemType classifies tree nodes.
type ItemType string

const (
	TypeFile       ItemType = "file"
	TypeFolder     ItemType = "folder"
	TypeNameFolder ItemType = "name_folder"
)

// Valid reports whether the type is a known value.
func (t ItemType) Valid() bool {
	switch t {
	case TypeFile, TypeFolder, TypeNameFolder:
		return true
	}
	return false
}

// ContainerType classifies the owning container of an item.
type ContainerType string

const (
	ContainerProject ContainerType = "project"
	ContainerDataset ContainerType = "dataset"
)

// Valid reports whether the container type is a known value.
func (c ContainerType) Valid() bool {
	return c == ContainerProject || c == ContainerDataset
}

// TransformType classifies lineage edges.
type TransformType string

const (
	TransformCopyToZone TransformType = "copy_to_zone"
	TransformArchive    TransformType = "archive"
)

// Valid reports whether the transform type is a known value.
func (t TransformType) Valid() bool {
	return t == TransformCopyToZone || t == TransformArchive
}

// ZoneLabel returns the human-readable label of a zone value, used in
// favourite display paths.
func ZoneLabel(zone, greenroomValue int) string {
	if zone == greenroomValue {
		return "Greenroom"
	}
	return "Core"
}
