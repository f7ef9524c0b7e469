// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package semantic ranks knowledge items by embedding similarity.
//
// It holds the in-memory vector index the query pipeline falls back
// to when no external search backend is configured, plus the plain
// similarity functions the rest of the system shares.
package semantic

import (
	"math"
	"sort"
)

// Item is one entry in the semantic index.
type Item struct {
	ID       string
	Text     string
	Vector   []float32
	Metadata map[string]string
}

// Match pairs an item with its similarity to a query vector.
type Match struct {
	Item       Item
	Similarity float64
}

// CosineSimilarity computes the cosine similarity between two vectors.
//
// Returns a value in [-1, 1], or 0 when the vectors have different
// lengths, are empty, or either has zero magnitude. Never returns NaN.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Search ranks items by cosine similarity to queryVec, most similar
// first, and returns at most topK matches. Ties keep their input
// order. Items without vectors are skipped.
func Search(queryVec []float32, items []Item, topK int) []Match {
	if topK <= 0 || len(items) == 0 {
		return nil
	}

	matches := make([]Match, 0, len(items))
	for _, item := range items {
		if len(item.Vector) == 0 {
			continue
		}
		matches = append(matches, Match{
			Item:       item,
			Similarity: CosineSimilarity(queryVec, item.Vector),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches
}
