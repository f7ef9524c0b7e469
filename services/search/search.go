// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package search provides the content-search collaborator backed by
// Weaviate.
//
// Course material is stored as CourseContent objects whose content
// field is vectorized. Search runs a nearText query over that class
// and returns hits with their raw vector distances, lower meaning
// closer. An unreachable or misbehaving Weaviate degrades to an empty
// result set with a logged warning instead of an error, so callers
// keep answering on whatever other context they hold.
package search

import (
	"crypto/sha256"
	"time"

	"github.com/google/uuid"
)

// Content types stored alongside each indexed document.
const (
	TypeAnnouncement = "announcement"
	TypeCoursework   = "coursework"
	TypeMaterial     = "material"
)

// Document is one unit of indexable course content.
type Document struct {
	// ID is the Weaviate object id. Derived from Text when empty.
	ID string

	// Text is the document body. This is the only vectorized field.
	Text string

	// Course is the human-readable course name used for filtering.
	Course string

	// CourseID is the upstream course identifier.
	CourseID string

	// ContentType is announcement, coursework or material.
	ContentType string

	// Title is the item title when the source has one.
	Title string

	// SourceID is the upstream item identifier.
	SourceID string

	// CreatedAt is when the item was created upstream. Defaults to
	// the indexing time when zero.
	CreatedAt time.Time
}

// SearchFilter narrows a search. A nil filter matches everything.
type SearchFilter struct {
	// Course restricts hits to one course by exact name.
	Course string

	// ContentType restricts hits to one content type.
	ContentType string

	// Limit caps the number of hits. Zero uses the searcher default.
	Limit int
}

// SearchResult is one ranked hit.
type SearchResult struct {
	Document string            `json:"document"`
	Metadata map[string]string `json:"metadata"`
	Distance float64           `json:"distance"`
}

// DocumentID derives a stable object id from the document text, so
// re-indexing the same content overwrites instead of duplicating.
func DocumentID(text string) string {
	hash := sha256.Sum256([]byte(text))
	id, _ := uuid.FromBytes(hash[:16])
	return id.String()
}
