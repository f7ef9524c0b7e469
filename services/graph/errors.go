// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graph provides the in-memory knowledge graph of concepts
// and relationships.
//
// Nodes are concepts (or topics, courses, resources) and directed
// edges carry a named relationship with a strength weight. The graph
// supports hop-minimal shortest paths, bounded neighborhood
// expansion, degree centrality, undirected-view clustering, and
// structural analysis.
//
// # Lookup Semantics
//
// Absence is a normal outcome, never an error: lookups on unknown ids
// return nil or empty results. AddNode and AddEdge never fail; re-adds
// overwrite in place and AddEdge creates missing endpoints as concept
// nodes.
//
// # Thread Safety
//
// Graph is safe for concurrent readers. Mutation (AddNode, AddEdge,
// ImportJSON, Clear) is expected to happen in a distinct build phase;
// writes take the exclusive lock but no mutation-while-reading
// ordering is promised beyond that.
package graph

import "errors"

// Sentinel errors for graph operations.
var (
	// ErrMalformedImport is returned when ImportJSON receives data
	// that does not decode into the export shape.
	ErrMalformedImport = errors.New("malformed graph import")
)
