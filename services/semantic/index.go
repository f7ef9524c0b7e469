// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package semantic

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultEmbedConcurrency bounds parallel embedding calls.
const DefaultEmbedConcurrency = 4

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Index is an in-memory vector store.
//
// Thread Safety: safe for concurrent use.
type Index struct {
	mu    sync.RWMutex
	items []Item
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{}
}

// Add appends items to the index.
func (ix *Index) Add(items ...Item) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.items = append(ix.items, items...)
}

// RemoveFunc deletes every item for which drop returns true and
// reports how many were removed. Used to evict stale entries before
// re-indexing a changed source.
func (ix *Index) RemoveFunc(drop func(Item) bool) int {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	before := len(ix.items)
	ix.items = slices.DeleteFunc(ix.items, drop)
	return before - len(ix.items)
}

// Search ranks indexed items against queryVec and returns at most
// topK matches, most similar first.
func (ix *Index) Search(queryVec []float32, topK int) []Match {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return Search(queryVec, ix.items, topK)
}

// Len returns the number of indexed items.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.items)
}

// EmbedItems fills in missing vectors by calling the embedder, with
// at most maxConcurrent calls in flight. Items that already carry a
// vector are left alone. The first failure cancels the remaining
// calls and is returned.
func EmbedItems(ctx context.Context, embedder Embedder, items []Item, maxConcurrent int) error {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultEmbedConcurrency
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)

	for i := range items {
		if len(items[i].Vector) > 0 {
			continue
		}
		g.Go(func() error {
			vec, err := embedder.Embed(gCtx, items[i].Text)
			if err != nil {
				return fmt.Errorf("embed item %s: %w", items[i].ID, err)
			}
			items[i].Vector = vec
			return nil
		})
	}

	return g.Wait()
}
