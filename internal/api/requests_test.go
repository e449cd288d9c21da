// Metacat - Metadata Catalog Service
// Copyright 2026 Datalodge
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/datalodge/metacat

package api

import (
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/uuid"
)

func TestParsePaginationDefaults(t *testing.T) {
	p, err := parsePagination(url.Values{})
	if err != nil {
		t.Fatalf("parsePagination: %v", err)
	}
	if p.Page != 0 || p.PageSize != 25 || p.Order != "asc" || p.Sorting != "created_time" {
		t.Errorf("pagination = %+v", p)
	}
}

func TestParsePaginationRejectsGarbage(t *testing.T) {
	if _, err := parsePagination(url.Values{"page": {"minus-one"}}); err == nil {
		t.Error("expected error for non-numeric page")
	}
	if _, err := parsePagination(url.Values{"page_size": {"0"}}); err == nil {
		t.Error("expected error for zero page_size")
	}
}

func TestQueryIDsSplitsCommaList(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	r := httptest.NewRequest("GET", "/v1/items/batch/?ids="+a.String()+","+b.String(), nil)

	ids, err := queryIDs(r, "ids")
	if err != nil {
		t.Fatalf("queryIDs: %v", err)
	}
	if len(ids) != 2 || ids[0] != a || ids[1] != b {
		t.Errorf("ids = %v", ids)
	}
}

func TestQueryIDsRejectsInvalid(t *testing.T) {
	r := httptest.NewRequest("GET", "/v1/items/batch/?ids=not-a-uuid", nil)
	if _, err := queryIDs(r, "ids"); err == nil {
		t.Error("expected error for malformed uuid")
	}
}

func TestParseItemFilterTimes(t *testing.T) {
	r := httptest.NewRequest("GET",
		"/v1/items/search/?container_code=proj1&last_updated_start=2026-08-01&last_updated_end=2026-08-02+10:00:00", nil)

	f, err := parseItemFilter(r, "jdoe")
	if err != nil {
		t.Fatalf("parseItemFilter: %v", err)
	}
	if f.LastUpdatedStart == nil || f.LastUpdatedStart.Day() != 1 {
		t.Errorf("start = %v", f.LastUpdatedStart)
	}
	if f.LastUpdatedEnd == nil || f.LastUpdatedEnd.Hour() != 10 {
		t.Errorf("end = %v", f.LastUpdatedEnd)
	}
}

func TestParseItemFilterRejectsBadStatus(t *testing.T) {
	r := httptest.NewRequest("GET", "/v1/items/search/?container_code=proj1&status=TRASHED", nil)
	if _, err := parseItemFilter(r, "jdoe"); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestParseLocationQueryDefaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/v1/item/?name=data.csv&container_code=proj1", nil)

	loc, err := parseLocationQuery(r)
	if err != nil {
		t.Fatalf("parseLocationQuery: %v", err)
	}
	if loc.ContainerType != "project" || loc.Status != "ACTIVE" {
		t.Errorf("location = %+v", loc)
	}
}
