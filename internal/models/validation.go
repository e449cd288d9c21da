// Metacat - Metadata Catalog Service
// Copyright 2026 Datalodge
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/datalodge/metacat

package models

import (
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared validator instance for request structs.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateStruct runs tag validation and converts failures to 400 errors.
func ValidateStruct(s any) error {
	if err := Validator().Struct(s); err != nil {
		var fields []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			return BadRequest("invalid request: %s", strings.Join(fields, ", "))
		}
		return BadRequest("invalid request: %v", err)
	}
	return nil
}

// Limits carries the configured catalog caps into validation.
type Limits struct {
	MaxTags            int
	MaxSystemTags      int
	MaxAttributeLength int
	MaxCollections     int
}

// Validate applies the cross-field rules of item creation.
func (r *CreateItemRequest) Validate(limits Limits) error {
	if err := ValidateStruct(r); err != nil {
		return err
	}

	if r.Type == "" {
		r.Type = TypeFile
	}
	if r.ContainerType == "" {
		r.ContainerType = ContainerProject
	}
	if r.Status == "" {
		r.Status = StatusRegistered
	}

	if !r.Type.Valid() {
		return BadRequest("type must be one of: file, folder, name_folder")
	}
	if !r.ContainerType.Valid() {
		return BadRequest("container_type must be project or dataset")
	}
	if !r.Status.Valid() {
		return BadRequest("status must be one of: REGISTERED, ACTIVE, ARCHIVED")
	}

	switch r.Type {
	case TypeNameFolder:
		if r.Parent != nil {
			return BadRequest("name folders cannot have a parent")
		}
		if r.ParentPath != "" {
			return BadRequest("name folders cannot have a parent_path")
		}
		if r.ContainerType != ContainerProject {
			return BadRequest("name folders are only allowed in projects")
		}
	default:
		// Dataset trees hang directly off the container root.
		if r.ContainerType == ContainerProject {
			if r.Parent == nil {
				return BadRequest("files and folders must have a parent if not part of a dataset")
			}
			if r.ParentPath == "" {
				return BadRequest("files and folders must have a parent_path if not part of a dataset")
			}
		}
	}

	if r.Type == TypeFile && r.Status == StatusActive {
		return BadRequest("files cannot be created with ACTIVE status")
	}
	if r.Type == TypeFolder && strings.Contains(r.Name, "/") {
		return BadRequest("folder name cannot contain reserved character: /")
	}

	if len(r.Tags) > limits.MaxTags {
		return BadRequest("maximum of %d tags", limits.MaxTags)
	}
	if len(r.SystemTags) > limits.MaxSystemTags {
		return BadRequest("maximum of %d system tags", limits.MaxSystemTags)
	}

	if len(r.Attributes) > 0 || r.AttributeTemplateID != nil {
		if r.Type != TypeFile {
			return BadRequest("attributes can only be applied to files")
		}
	}
	if err := validateAttributeLengths(r.Attributes, limits); err != nil {
		return err
	}

	if r.TfrmType != nil {
		if !r.TfrmType.Valid() {
			return BadRequest("tfrm_type must be copy_to_zone or archive")
		}
		if *r.TfrmType == TransformCopyToZone && r.TfrmSource == nil {
			return BadRequest("tfrm_source is required for copy_to_zone lineage")
		}
	}

	return nil
}

// Validate applies the cross-field rules of item update.
func (r *UpdateItemRequest) Validate(limits Limits) error {
	if r.Type != nil && !r.Type.Valid() {
		return BadRequest("type must be one of: file, folder, name_folder")
	}
	if r.Status != nil && !r.Status.Valid() {
		return BadRequest("status must be one of: REGISTERED, ACTIVE, ARCHIVED")
	}
	if r.ContainerType != nil && !r.ContainerType.Valid() {
		return BadRequest("container_type must be project or dataset")
	}
	if r.Name != nil && strings.Contains(*r.Name, "/") {
		return BadRequest("name cannot contain reserved character: /")
	}
	if r.Tags != nil && len(*r.Tags) > limits.MaxTags {
		return BadRequest("maximum of %d tags", limits.MaxTags)
	}
	if r.SystemTags != nil && len(*r.SystemTags) > limits.MaxSystemTags {
		return BadRequest("maximum of %d system tags", limits.MaxSystemTags)
	}
	return validateAttributeLengths(r.Attributes, limits)
}

func validateAttributeLengths(attrs map[string]any, limits Limits) error {
	for name, value := range attrs {
		if s, ok := value.(string); ok && len(s) > limits.MaxAttributeLength {
			return BadRequest(
				"attribute exceeds maximum length of %d characters: %s",
				limits.MaxAttributeLength, name,
			)
		}
	}
	return nil
}

// MatchTemplate checks submitted attribute values against a template's
// definitions: mandatory attributes must be present, multiple-choice values
// must come from the declared options, and the submission may not carry more
// attributes than the template declares. Names the template does not declare
// are otherwise left alone.
func MatchTemplate(template *AttributeTemplate, attrs map[string]any) error {
	if len(attrs) > len(template.Attributes) {
		return BadRequest("attributes do not match template %s", template.Name)
	}

	for _, def := range template.Attributes {
		value, present := attrs[def.Name]
		if !present {
			if !def.Optional {
				return BadRequest("missing mandatory attribute %s", def.Name)
			}
			continue
		}
		if def.Type == AttributeMultipleChoice {
			choice, ok := value.(string)
			if !ok || !containsString(def.Options, choice) {
				return BadRequest("attribute %s must be one of: %s", def.Name, strings.Join(def.Options, ", "))
			}
		}
	}

	return nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ParseStatus converts a query string into an ItemStatus.
func ParseStatus(s string) (ItemStatus, error) {
	if s == "" {
		return StatusActive, nil
	}
	status := ItemStatus(s)
	if !status.Valid() {
		return "", BadRequest("invalid status %q", s)
	}
	return status, nil
}

// ParseFavouriteType converts a body value into a FavouriteType.
func ParseFavouriteType(s string) (FavouriteType, error) {
	if s == "" {
		return FavouriteItem, nil
	}
	t := FavouriteType(s)
	if !t.Valid() {
		return "", BadRequest("type must be item or collection")
	}
	return t, nil
}
