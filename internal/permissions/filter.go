// Metacat - Metadata Catalog Service
// Copyright 2026 Datalodge
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/datalodge/metacat

package permissions

import (
	"context"

	"github.com/datalodge/metacat/internal/config"
	"github.com/datalodge/metacat/internal/database"
	"github.com/datalodge/metacat/internal/models"
	"github.com/datalodge/metacat/internal/pathcodec"
)

// Filter turns authorization decisions into item listing conditions.
type Filter struct {
	client AuthClient
	zones  config.ZonesConfig
}

// NewFilter builds a filter over the given authorization client.
func NewFilter(client AuthClient, zones config.ZonesConfig) *Filter {
	return &Filter{client: client, zones: zones}
}

type zoneScope struct {
	name  string
	value int
}

// ItemConditions returns the conditions restricting an item search to what
// the authenticated user may see.
//
// Per zone: a user with file_any sees everything; a user with only
// file_in_own_namefolder is confined to their own name folder (by name at
// the tree roots, by path prefix below them); a user with neither is shut
// out of the zone entirely. Dataset listings bypass the filter.
func (f *Filter) ItemConditions(ctx context.Context, filter models.ItemFilter) ([]database.Condition, error) {
	if filter.ContainerType == string(models.ContainerDataset) {
		return nil, nil
	}
	scopes := []zoneScope{
		{name: "core", value: f.zones.Core},
		{name: "greenroom", value: f.zones.Greenroom},
	}
	return f.zoneConditions(ctx, filter, scopes)
}

// CollectionItemConditions restricts collection content listings. Collections
// only ever hold core-zone items, so only that zone is checked.
func (f *Filter) CollectionItemConditions(ctx context.Context, projectCode, username string) ([]database.Condition, error) {
	filter := models.ItemFilter{
		ContainerCode: projectCode,
		AuthUser:      username,
		Status:        models.StatusActive,
		Recursive:     true,
	}
	return f.zoneConditions(ctx, filter, []zoneScope{{name: "core", value: f.zones.Core}})
}

func (f *Filter) zoneConditions(ctx context.Context, filter models.ItemFilter, scopes []zoneScope) ([]database.Condition, error) {
	locattr := "items.parent_path"
	if filter.Status == models.StatusArchived {
		locattr = "items.restore_path"
	}
	// Root listings have no path to match a name folder prefix against, so
	// ownership is checked on the name folder's own name.
	namefolderMode := filter.ParentPath == "" && filter.RestorePath == "" && !filter.Recursive

	var conds []database.Condition
	for _, scope := range scopes {
		fileAny, err := f.client.HasPermission(ctx, filter.ContainerCode, ResourceFileAny, scope.name, "view", filter.AuthUser)
		if err != nil {
			return nil, err
		}
		if fileAny {
			continue
		}

		fileOwn, err := f.client.HasPermission(ctx, filter.ContainerCode, ResourceFileInNamefolder, scope.name, "view", filter.AuthUser)
		if err != nil {
			return nil, err
		}

		switch {
		case !fileOwn:
			conds = append(conds, database.Condition{
				SQL:  "items.zone != ?",
				Args: []any{scope.value},
			})
		case namefolderMode:
			conds = append(conds, database.Condition{
				SQL:  "(items.zone != ? OR items.name = ?)",
				Args: []any{scope.value, filter.AuthUser},
			})
		default:
			conds = append(conds, database.Condition{
				SQL:  "(items.zone != ? OR " + locattr + " ~ ?::lquery)",
				Args: []any{scope.value, pathcodec.DescendantQuery(pathcodec.EncodeLabel(filter.AuthUser))},
			})
		}
	}
	return conds, nil
}
