// Metacat - Metadata Catalog Service
// Copyright 2026 Datalodge
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/datalodge/metacat

package database

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// uuidArray binds a []uuid.UUID to a Postgres uuid[] column. database/sql has
// no native array support, so values travel as array literals with an
// explicit ::uuid[] cast in the query.
type uuidArray []uuid.UUID

// Value renders the Postgres array literal. A nil slice becomes SQL NULL.
func (a uuidArray) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	ids := make([]string, len(a))
	for i, id := range a {
		ids[i] = id.String()
	}
	return "{" + strings.Join(ids, ",") + "}", nil
}

// Scan parses the array literal coming back from the driver.
func (a *uuidArray) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*a = nil
		return nil
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		return fmt.Errorf("unsupported type %T for uuid array", src)
	}

	raw = strings.Trim(raw, "{}")
	if raw == "" {
		*a = uuidArray{}
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make(uuidArray, len(parts))
	for i, part := range parts {
		id, err := uuid.Parse(strings.Trim(part, `" `))
		if err != nil {
			return fmt.Errorf("parse uuid array element %q: %w", part, err)
		}
		out[i] = id
	}
	*a = out
	return nil
}
