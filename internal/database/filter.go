// Metacat - Metadata Catalog Service
// Copyright 2026 Datalodge
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/datalodge/metacat

package database

import (
	"fmt"
	"strings"

	"github.com/datalodge/metacat/internal/models"
	"github.com/datalodge/metacat/internal/pathcodec"
)

// Condition is a SQL fragment with its bound arguments. Fragments use "?"
// placeholders and are rebound before execution.
type Condition struct {
	SQL  string
	Args []any
}

// And folds conditions into a single WHERE body.
func And(conds []Condition) (string, []any) {
	if len(conds) == 0 {
		return "TRUE", nil
	}
	parts := make([]string, len(conds))
	var args []any
	for i, c := range conds {
		parts[i] = c.SQL
		args = append(args, c.Args...)
	}
	return strings.Join(parts, " AND "), args
}

// sortColumns whitelists the item columns accepted as sorting keys.
var sortColumns = map[string]bool{
	"created_time":      true,
	"last_updated_time": true,
	"name":              true,
	"size":              true,
	"type":              true,
	"status":            true,
	"zone":              true,
	"owner":             true,
}

// orderClause renders the ORDER BY for item listings. Results always group
// name folders first, then folders, then files, before the requested key
// applies within each group.
func orderClause(p models.Pagination) (string, error) {
	if !sortColumns[p.Sorting] {
		return "", models.BadRequest("invalid sorting field %q", p.Sorting)
	}
	dir := strings.ToUpper(p.Order)
	if dir != "ASC" && dir != "DESC" {
		return "", models.BadRequest("invalid order %q", p.Order)
	}
	return fmt.Sprintf("ORDER BY items.type, items.%s %s", p.Sorting, dir), nil
}

// patternCondition matches a text column either exactly or, when the value
// carries "%" wildcards, with a case-insensitive pattern.
func patternCondition(column, value string) Condition {
	if strings.Contains(value, "%") {
		return Condition{SQL: column + " ILIKE ?", Args: []any{value}}
	}
	return Condition{SQL: column + " = ?", Args: []any{value}}
}

// buildItemConditions translates an item filter into WHERE conditions.
//
// Navigation uses parent_path for live items and restore_path for archived
// ones; direct children match the path exactly while recursive listings use
// an lquery over the whole subtree. Without a path, a non-recursive listing
// of live items returns the tree roots.
func buildItemConditions(f models.ItemFilter) ([]Condition, error) {
	conds := []Condition{
		{SQL: "items.container_code = ?", Args: []any{f.ContainerCode}},
		{SQL: "items.deleted = ?", Args: []any{false}},
	}

	if !f.Status.Valid() {
		return nil, models.BadRequest("invalid status %q", f.Status)
	}
	conds = append(conds, Condition{SQL: "items.status = ?", Args: []any{f.Status}})

	if f.Zone != nil {
		conds = append(conds, Condition{SQL: "items.zone = ?", Args: []any{*f.Zone}})
	}
	if f.ContainerType != "" {
		if !models.ContainerType(f.ContainerType).Valid() {
			return nil, models.BadRequest("invalid container_type %q", f.ContainerType)
		}
		conds = append(conds, Condition{SQL: "items.container_type = ?", Args: []any{f.ContainerType}})
	}
	if f.Type != "" {
		if !models.ItemType(f.Type).Valid() {
			return nil, models.BadRequest("invalid type %q", f.Type)
		}
		conds = append(conds, Condition{SQL: "items.type = ?", Args: []any{f.Type}})
	}
	if f.Name != "" {
		// Name always matches as a case-insensitive substring.
		conds = append(conds, Condition{SQL: "items.name ILIKE '%' || ? || '%'", Args: []any{f.Name}})
	}
	if f.Owner != "" {
		conds = append(conds, patternCondition("items.owner", f.Owner))
	}
	if f.LastUpdatedStart != nil {
		conds = append(conds, Condition{SQL: "items.last_updated_time >= ?", Args: []any{*f.LastUpdatedStart}})
	}
	if f.LastUpdatedEnd != nil {
		conds = append(conds, Condition{SQL: "items.last_updated_time <= ?", Args: []any{*f.LastUpdatedEnd}})
	}

	locattr := "items.parent_path"
	path := f.ParentPath
	if f.Status == models.StatusArchived {
		locattr = "items.restore_path"
		path = f.RestorePath
	}

	switch {
	case path != "":
		encoded := pathcodec.EncodePath(path)
		if f.Recursive {
			conds = append(conds, Condition{
				SQL:  locattr + " ~ ?::lquery",
				Args: []any{pathcodec.DescendantQuery(encoded)},
			})
		} else {
			conds = append(conds, Condition{SQL: locattr + " = ?::ltree", Args: []any{encoded}})
		}
	case !f.Recursive && f.Status != models.StatusArchived:
		conds = append(conds, Condition{SQL: "items.parent_path IS NULL"})
	}

	return conds, nil
}
