// Metacat - Metadata Catalog Service
// Copyright 2026 Datalodge
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/datalodge/metacat

package models

// Envelope is the uniform response body for every endpoint. The code field
// mirrors the HTTP status so clients can treat the body as self-contained.
type Envelope struct {
	Code       int    `json:"code"`
	ErrorMsg   string `json:"error_msg"`
	Page       int    `json:"page"`
	Total      int    `json:"total"`
	NumOfPages int    `json:"num_of_pages"`
	Result     any    `json:"result"`
}

// NewEnvelope returns a success envelope for a single (or absent) result.
func NewEnvelope(result any) *Envelope {
	return &Envelope{
		Code:       200,
		Page:       0,
		Total:      1,
		NumOfPages: 1,
		Result:     result,
	}
}

// NewPagedEnvelope returns a success envelope for a paginated listing.
// The page count is total/page_size + 1, matching historical client
// expectations even when total is an exact multiple of the page size.
func NewPagedEnvelope(result any, page Pagination, total int) *Envelope {
	return &Envelope{
		Code:       200,
		Page:       page.Page,
		Total:      total,
		NumOfPages: total/page.PageSize + 1,
		Result:     result,
	}
}

// NewErrorEnvelope returns an error envelope; total and num_of_pages are
// zeroed and result is an empty list.
func NewErrorEnvelope(status int, msg string) *Envelope {
	return &Envelope{
		Code:       status,
		ErrorMsg:   msg,
		Page:       0,
		Total:      0,
		NumOfPages: 0,
		Result:     []any{},
	}
}

// Pagination carries listing parameters common to all collection endpoints.
type Pagination struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Order    string `json:"order"`
	Sorting  string `json:"sorting"`
}

// DefaultPagination returns the standard listing defaults.
func DefaultPagination() Pagination {
	return Pagination{
		Page:     0,
		PageSize: 25,
		Order:    "asc",
		Sorting:  "created_time",
	}
}

// Normalize fills zero values with defaults and clamps negatives.
func (p *Pagination) Normalize() {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.PageSize <= 0 {
		p.PageSize = 25
	}
	if p.Order != "desc" {
		p.Order = "asc"
	}
	if p.Sorting == "" {
		p.Sorting = "created_time"
	}
}

// Offset returns the row offset of the requested page.
func (p Pagination) Offset() int {
	return p.Page * p.PageSize
}
