// Metacat - Metadata Catalog Service
// Copyright 2026 Datalodge
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/datalodge/metacat

package models

import (
	"database/sql/driver"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// AttributeType classifies template attribute values.
type AttributeType string

const (
	AttributeText           AttributeType = "text"
	AttributeMultipleChoice AttributeType = "multiple_choice"
)

// Valid reports whether the attribute type is known.
func (t AttributeType) Valid() bool {
	return t == AttributeText || t == AttributeMultipleChoice
}

// TemplateAttribute is one attribute definition inside a template.
type TemplateAttribute struct {
	Name     string        `json:"name" validate:"required"`
	Optional bool          `json:"optional"`
	Type     AttributeType `json:"type"`
	Options  []string      `json:"options,omitempty"`
}

// TemplateAttributes is the JSON column holding a template's definitions.
type TemplateAttributes []TemplateAttribute

// Value implements driver.Valuer for the JSON column.
func (a TemplateAttributes) Value() (driver.Value, error) {
	return json.Marshal(a)
}

// Scan implements sql.Scanner for the JSON column.
func (a *TemplateAttributes) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = nil
		return nil
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return fmt.Errorf("unsupported type %T for attributes column", src)
	}
}

// AttributeTemplate is a row of the attribute_templates table.
type AttributeTemplate struct {
	ID          uuid.UUID          `db:"id" json:"id"`
	Name        string             `db:"name" json:"name"`
	ProjectCode string             `db:"project_code" json:"project_code"`
	Attributes  TemplateAttributes `db:"attributes" json:"attributes"`
}

// CreateTemplateRequest is the body of template creation and update.
type CreateTemplateRequest struct {
	Name        string             `json:"name" validate:"required"`
	ProjectCode string             `json:"project_code" validate:"required"`
	Attributes  TemplateAttributes `json:"attributes" validate:"required,min=1"`
}

// Validate checks attribute definitions beyond struct tags.
func (r *CreateTemplateRequest) Validate() error {
	for _, attr := range r.Attributes {
		if attr.Type != "" && !attr.Type.Valid() {
			return BadRequest("attribute type must be text or multiple_choice")
		}
		if attr.Type == AttributeMultipleChoice && len(attr.Options) == 0 {
			return BadRequest("multiple_choice attribute %q requires options", attr.Name)
		}
	}
	return nil
}

// TemplateFilter narrows template listings.
type TemplateFilter struct {
	ProjectCode string
	Name        string
	Page        int
	PageSize    int
}
