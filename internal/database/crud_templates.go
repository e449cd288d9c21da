// Metacat - Metadata Catalog Service
// Copyright 2026 Datalodge
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/datalodge/metacat

package database

import (
	"context"

	"github.com/google/uuid"

	"github.com/datalodge/metacat/internal/models"
)

const templateColumns = "id, name, project_code, attributes"

// GetTemplate fetches one attribute template by ID.
func (s *Store) GetTemplate(ctx context.Context, id uuid.UUID) (*models.AttributeTemplate, error) {
	var t models.AttributeTemplate
	query := s.rebind("SELECT " + templateColumns + " FROM attribute_templates WHERE id = ?")
	if err := s.db.GetContext(ctx, &t, query, id); err != nil {
		return nil, notFoundErr(err, "attribute template %s not found", id)
	}
	return &t, nil
}

// ListTemplates pages through attribute templates, optionally narrowed by
// project and name pattern.
func (s *Store) ListTemplates(ctx context.Context, f models.TemplateFilter, p models.Pagination) ([]models.AttributeTemplate, int, error) {
	conds := []Condition{}
	if f.ProjectCode != "" {
		conds = append(conds, Condition{SQL: "project_code = ?", Args: []any{f.ProjectCode}})
	}
	if f.Name != "" {
		conds = append(conds, patternCondition("name", f.Name))
	}
	where, args := And(conds)

	var total int
	if err := s.db.GetContext(ctx, &total, s.rebind("SELECT count(*) FROM attribute_templates WHERE "+where), args...); err != nil {
		return nil, 0, models.Internal("database error", err)
	}

	query := "SELECT " + templateColumns + " FROM attribute_templates WHERE " + where +
		" ORDER BY name LIMIT ? OFFSET ?"
	args = append(args, p.PageSize, p.Offset())

	var templates []models.AttributeTemplate
	if err := s.db.SelectContext(ctx, &templates, s.rebind(query), args...); err != nil {
		return nil, 0, models.Internal("database error", err)
	}
	return templates, total, nil
}

// CreateTemplate inserts a new attribute template.
func (s *Store) CreateTemplate(ctx context.Context, req models.CreateTemplateRequest) (*models.AttributeTemplate, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	t := models.AttributeTemplate{
		ID:          uuid.New(),
		Name:        req.Name,
		ProjectCode: req.ProjectCode,
		Attributes:  req.Attributes,
	}
	query := s.rebind("INSERT INTO attribute_templates (" + templateColumns + ") VALUES (?, ?, ?, ?)")
	if _, err := s.db.ExecContext(ctx, query, t.ID, t.Name, t.ProjectCode, t.Attributes); err != nil {
		return nil, models.Internal("database error", err)
	}
	return &t, nil
}

// UpdateTemplate replaces a template's name and attribute definitions.
func (s *Store) UpdateTemplate(ctx context.Context, id uuid.UUID, req models.CreateTemplateRequest) (*models.AttributeTemplate, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	query := s.rebind("UPDATE attribute_templates SET name = ?, project_code = ?, attributes = ? WHERE id = ?")
	res, err := s.db.ExecContext(ctx, query, req.Name, req.ProjectCode, req.Attributes, id)
	if err != nil {
		return nil, models.Internal("database error", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, models.Internal("database error", err)
	}
	if n == 0 {
		return nil, models.NotFound("attribute template %s not found", id)
	}
	return &models.AttributeTemplate{ID: id, Name: req.Name, ProjectCode: req.ProjectCode, Attributes: req.Attributes}, nil
}

// DeleteTemplate removes an attribute template.
func (s *Store) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM attribute_templates WHERE id = ?"), id)
	if err != nil {
		return models.Internal("database error", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.Internal("database error", err)
	}
	if n == 0 {
		return models.NotFound("attribute template %s not found", id)
	}
	return nil
}
