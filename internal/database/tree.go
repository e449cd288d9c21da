// Metacat - Metadata Catalog Service
// Copyright 2026 Datalodge
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/datalodge/metacat

package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/datalodge/metacat/internal/pathcodec"
)

// spliceLabel replaces the label at the given depth of an encoded path with
// the encoded form of newName. Depth counts from zero at the root label.
func spliceLabel(encodedPath string, depth int, newName string) (string, error) {
	labels := strings.Split(encodedPath, pathcodec.LabelSeparator)
	if depth < 0 || depth >= len(labels) {
		return "", fmt.Errorf("depth %d out of range for path with %d labels", depth, len(labels))
	}
	labels[depth] = pathcodec.EncodeLabel(newName)
	return strings.Join(labels, pathcodec.LabelSeparator), nil
}

// replacePathPrefix rewrites the leading labels of an encoded path, moving a
// subtree from under oldPrefix to under newPrefix. An empty newPrefix lifts
// the remainder to the root; an empty oldPrefix pushes the whole path under
// newPrefix.
func replacePathPrefix(encodedPath, oldPrefix, newPrefix string) (string, error) {
	rest := encodedPath
	if oldPrefix != "" {
		if encodedPath == oldPrefix {
			rest = ""
		} else if strings.HasPrefix(encodedPath, oldPrefix+pathcodec.LabelSeparator) {
			rest = encodedPath[len(oldPrefix)+1:]
		} else {
			return "", fmt.Errorf("path %q is not under %q", encodedPath, oldPrefix)
		}
	}

	switch {
	case newPrefix == "":
		return rest, nil
	case rest == "":
		return newPrefix, nil
	default:
		return newPrefix + pathcodec.LabelSeparator + rest, nil
	}
}

// timestampedName derives a collision-free variant of a name by appending the
// Unix timestamp to the part before the first dot, keeping any extension
// chain intact: "data.tar.gz" becomes "data_1756200000.tar.gz".
func timestampedName(name string, now time.Time) string {
	base, rest, found := strings.Cut(name, ".")
	suffixed := fmt.Sprintf("%s_%d", base, now.Unix())
	if found {
		return suffixed + "." + rest
	}
	return suffixed
}
