// Metacat - Metadata Catalog Service
// Copyright 2026 Datalodge
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/datalodge/metacat

// Package pathcodec maps human-readable item paths onto Postgres ltree labels.
//
// An ltree label only allows [A-Za-z0-9_], so arbitrary folder names (spaces,
// unicode, dots) cannot be stored directly. Each path segment is Base32-encoded
// without padding, and segments are joined with "." to form the ltree value:
//
//	"users/jdoe/folder one"  ->  "OVZWK4TT.JJSG6ZI.MZXWYZDFOIQG63TF"
//
// Base32's alphabet (A-Z, 2-7) is a strict subset of the ltree label charset,
// and stripping "=" padding keeps labels valid. Decoding restores padding to
// the nearest multiple of 8 before reversing.
package pathcodec

import (
	"encoding/base32"
	"fmt"
	"strings"
)

// Separator joins decoded path segments in the human-readable form.
const Separator = "/"

// LabelSeparator joins encoded labels in the ltree form.
const LabelSeparator = "."

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// EncodeLabel encodes a single path segment into a valid ltree label.
func EncodeLabel(raw string) string {
	return encoding.EncodeToString([]byte(raw))
}

// DecodeLabel decodes a single ltree label back into the raw segment.
func DecodeLabel(label string) (string, error) {
	decoded, err := encoding.DecodeString(label)
	if err != nil {
		return "", fmt.Errorf("decode ltree label %q: %w", label, err)
	}
	return string(decoded), nil
}

// EncodePath encodes a "/"-separated path into its ltree representation.
// An empty path encodes to the empty string.
func EncodePath(path string) string {
	if path == "" {
		return ""
	}
	segments := strings.Split(path, Separator)
	labels := make([]string, len(segments))
	for i, segment := range segments {
		labels[i] = EncodeLabel(segment)
	}
	return strings.Join(labels, LabelSeparator)
}

// DecodePath decodes an ltree value back into the "/"-separated path.
// An empty ltree value decodes to the empty string.
func DecodePath(ltreePath string) (string, error) {
	if ltreePath == "" {
		return "", nil
	}
	labels := strings.Split(ltreePath, LabelSeparator)
	segments := make([]string, len(labels))
	for i, label := range labels {
		segment, err := DecodeLabel(label)
		if err != nil {
			return "", err
		}
		segments[i] = segment
	}
	return strings.Join(segments, Separator), nil
}

// Depth returns the number of labels in an ltree value.
// The empty value has depth zero.
func Depth(ltreePath string) int {
	if ltreePath == "" {
		return 0
	}
	return strings.Count(ltreePath, LabelSeparator) + 1
}

// Join appends raw segments to a decoded path, skipping empty parts.
func Join(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, Separator)
}

// SubtreeQuery returns an lquery matching the parent_path of every item in
// the subtree rooted at parentPath/rootName. lquery "*" matches zero or more
// labels, so "A.B.*" covers direct children (parent_path = A.B) and all
// deeper descendants.
func SubtreeQuery(parentPath, rootName string) string {
	root := EncodeLabel(rootName)
	if parentPath != "" {
		return parentPath + LabelSeparator + root + LabelSeparator + "*"
	}
	return root + LabelSeparator + "*"
}

// DescendantQuery returns an lquery matching everything at or below the
// given encoded path, used for recursive listings under a parent.
func DescendantQuery(parentPath string) string {
	if parentPath == "" {
		return "*"
	}
	return parentPath + LabelSeparator + "*"
}
