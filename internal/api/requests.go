// Metacat - Metadata Catalog Service
// Copyright 2026 Datalodge
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/datalodge/metacat

package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/datalodge/metacat/internal/models"
)

// queryID parses a required uuid query parameter.
func queryID(r *http.Request, name string) (uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return uuid.Nil, models.BadRequest("missing %s parameter", name)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, models.BadRequest("invalid %s parameter: %s", name, raw)
	}
	return id, nil
}

// pathID parses a uuid path segment.
func pathID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, models.BadRequest("invalid id in path: %s", raw)
	}
	return id, nil
}

// queryIDs parses a comma-separated uuid list. The parameter may also be
// repeated.
func queryIDs(r *http.Request, name string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, raw := range r.URL.Query()[name] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := uuid.Parse(part)
			if err != nil {
				return nil, models.BadRequest("invalid %s parameter: %s", name, part)
			}
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, models.BadRequest("missing %s parameter", name)
	}
	return ids, nil
}

// parsePagination reads the common listing parameters.
func parsePagination(q url.Values) (models.Pagination, error) {
	p := models.DefaultPagination()
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return p, models.BadRequest("invalid page parameter: %s", raw)
		}
		p.Page = n
	}
	if raw := q.Get("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return p, models.BadRequest("invalid page_size parameter: %s", raw)
		}
		p.PageSize = n
	}
	if raw := q.Get("order"); raw != "" {
		p.Order = raw
	}
	if raw := q.Get("sorting"); raw != "" {
		p.Sorting = raw
	}
	p.Normalize()
	return p, nil
}

// searchTimeLayouts are the accepted formats of the last_updated range.
var searchTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseSearchTime(raw string) (time.Time, error) {
	for _, layout := range searchTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, models.BadRequest("invalid timestamp: %s", raw)
}

// parseItemFilter reads the item search surface from query parameters.
func parseItemFilter(r *http.Request, authUser string) (models.ItemFilter, error) {
	q := r.URL.Query()

	f := models.ItemFilter{
		ContainerCode: q.Get("container_code"),
		ContainerType: q.Get("container_type"),
		ParentPath:    q.Get("parent_path"),
		RestorePath:   q.Get("restore_path"),
		Name:          q.Get("name"),
		Owner:         q.Get("owner"),
		Type:          q.Get("type"),
		FavUser:       q.Get("fav_user"),
		AuthUser:      authUser,
	}
	if f.ContainerCode == "" {
		return f, models.BadRequest("missing container_code parameter")
	}

	status, err := models.ParseStatus(q.Get("status"))
	if err != nil {
		return f, err
	}
	f.Status = status

	if raw := q.Get("zone"); raw != "" {
		zone, err := strconv.Atoi(raw)
		if err != nil {
			return f, models.BadRequest("invalid zone parameter: %s", raw)
		}
		f.Zone = &zone
	}
	if raw := q.Get("recursive"); raw != "" {
		recursive, err := strconv.ParseBool(raw)
		if err != nil {
			return f, models.BadRequest("invalid recursive parameter: %s", raw)
		}
		f.Recursive = recursive
	}
	if raw := q.Get("last_updated_start"); raw != "" {
		t, err := parseSearchTime(raw)
		if err != nil {
			return f, err
		}
		f.LastUpdatedStart = &t
	}
	if raw := q.Get("last_updated_end"); raw != "" {
		t, err := parseSearchTime(raw)
		if err != nil {
			return f, err
		}
		f.LastUpdatedEnd = &t
	}
	return f, nil
}

// parseLocationQuery reads the exact-location lookup parameters.
func parseLocationQuery(r *http.Request) (models.LocationQuery, error) {
	q := r.URL.Query()

	loc := models.LocationQuery{
		Name:          q.Get("name"),
		ParentPath:    q.Get("parent_path"),
		ContainerCode: q.Get("container_code"),
	}
	if loc.Name == "" || loc.ContainerCode == "" {
		return loc, models.BadRequest("name and container_code are required")
	}

	loc.ContainerType = models.ContainerProject
	if raw := q.Get("container_type"); raw != "" {
		loc.ContainerType = models.ContainerType(raw)
		if !loc.ContainerType.Valid() {
			return loc, models.BadRequest("container_type must be project or dataset")
		}
	}

	status, err := models.ParseStatus(q.Get("status"))
	if err != nil {
		return loc, err
	}
	loc.Status = status

	if raw := q.Get("zone"); raw != "" {
		zone, err := strconv.Atoi(raw)
		if err != nil {
			return loc, models.BadRequest("invalid zone parameter: %s", raw)
		}
		loc.Zone = zone
	}
	return loc, nil
}
