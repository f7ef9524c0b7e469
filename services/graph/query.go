// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"context"
	"fmt"
	"sort"
)

// Traversal configuration.
const (
	// DefaultMaxDistance is the default neighborhood expansion radius.
	DefaultMaxDistance = 1

	// DefaultMaxRelated is the default cap on RelatedConcepts results.
	DefaultMaxRelated = 10

	// contextCheckInterval is how often to check context during traversal.
	contextCheckInterval = 100
)

// Path is a hop-minimal route between two nodes.
//
// Derived value, not owned by the graph. Length counts hops, so a
// path from a node to itself has Length 0 and a single-node Nodes
// slice.
type Path struct {
	// Nodes lists the node ids along the path, endpoints included.
	Nodes []string `json:"nodes"`

	// Edges lists the edge ids traversed, in order.
	Edges []string `json:"edges"`

	// TotalWeight is the sum of traversed edge weights.
	TotalWeight float64 `json:"totalWeight"`

	// Length is the number of hops (len(Nodes)-1).
	Length int `json:"length"`
}

// Relation describes one edge touching a queried concept.
type Relation struct {
	// ConceptID is the node on the far side of the edge.
	ConceptID string `json:"conceptId"`

	// Relationship is the edge's relationship name.
	Relationship string `json:"relationship"`

	// Weight is the edge weight the ranking sorted by.
	Weight float64 `json:"weight"`
}

// ShortestPath finds a hop-minimal path from start to end.
//
// Description:
//
//	Unweighted breadth-first search over outgoing edges. Neighbors
//	are expanded in edge insertion order, so among equal-hop paths
//	the first-discovered one wins; total weight is reported but not
//	minimized. Absent endpoints and unreachable targets yield (nil,
//	nil). start == end yields a zero-length, zero-weight path.
//
// Inputs:
//
//	ctx - Context for cancellation (checked every 100 expansions).
//	start - Origin node id.
//	end - Destination node id.
//
// Outputs:
//
//	*Path - The discovered path, or nil when there is none.
//	error - Non-nil only when ctx is cancelled mid-traversal.
func (g *Graph) ShortestPath(ctx context.Context, start, end string) (*Path, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.nodes[start]; !ok {
		return nil, nil
	}
	if _, ok := g.nodes[end]; !ok {
		return nil, nil
	}
	if start == end {
		return &Path{Nodes: []string{start}, Edges: []string{}}, nil
	}

	// parent[id] is the edge that first discovered id.
	parent := make(map[string]*Edge)
	visited := map[string]bool{start: true}
	queue := []string{start}
	checkCounter := 0

	for len(queue) > 0 {
		checkCounter++
		if checkCounter%contextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("shortest path %s->%s: %w", start, end, err)
			}
		}

		current := queue[0]
		queue = queue[1:]

		for _, edge := range g.nodes[current].Outgoing {
			if edge.Target == end {
				parent[end] = edge
				return g.buildPathLocked(start, end, parent), nil
			}
			if visited[edge.Target] {
				continue
			}
			visited[edge.Target] = true
			parent[edge.Target] = edge
			queue = append(queue, edge.Target)
		}
	}

	return nil, nil
}

// buildPathLocked reconstructs the path from the parent edges.
// Caller must hold at least the read lock.
func (g *Graph) buildPathLocked(start, end string, parent map[string]*Edge) *Path {
	var nodes []string
	var edges []string
	var total float64

	for current := end; current != start; {
		edge := parent[current]
		nodes = append(nodes, current)
		edges = append(edges, edge.ID)
		total += edge.Weight
		current = edge.Source
	}
	nodes = append(nodes, start)

	// Reverse into start-to-end order.
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
	for i, j := 0, len(edges)-1; i < j; i, j = i+1, j-1 {
		edges[i], edges[j] = edges[j], edges[i]
	}

	return &Path{
		Nodes:       nodes,
		Edges:       edges,
		TotalWeight: total,
		Length:      len(edges),
	}
}

// Neighbors returns the node ids reachable from id within maxDistance
// hops along outgoing edges.
//
// Description:
//
//	Level-by-level breadth-first expansion. The origin is excluded
//	and results are deduplicated, in discovery order. An unknown id
//	or a maxDistance below 1 yields an empty result.
func (g *Graph) Neighbors(id string, maxDistance int) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.nodes[id]; !ok {
		return nil
	}

	seen := make(map[string]bool)
	var out []string
	level := []string{id}

	for distance := 0; distance < maxDistance && len(level) > 0; distance++ {
		var next []string
		for _, current := range level {
			for _, edge := range g.nodes[current].Outgoing {
				if edge.Target == id || seen[edge.Target] {
					continue
				}
				seen[edge.Target] = true
				out = append(out, edge.Target)
				next = append(next, edge.Target)
			}
		}
		level = next
	}

	return out
}

// RelatedConcepts returns the concepts directly connected to id,
// strongest relationships first.
//
// Description:
//
//	Collects the far endpoint of every outgoing edge, then of every
//	incoming edge, and sorts the union descending by edge weight.
//	The sort is stable, so equal-weight entries keep outgoing-first,
//	insertion order. An unknown id yields an empty result.
//
// Inputs:
//
//	id - Node id to query.
//	maxResults - Cap on returned relations. Values below 1 fall back
//	to DefaultMaxRelated.
func (g *Graph) RelatedConcepts(id string, maxResults int) []Relation {
	g.mu.RLock()
	defer g.mu.RUnlock()

	node, ok := g.nodes[id]
	if !ok {
		return nil
	}
	if maxResults < 1 {
		maxResults = DefaultMaxRelated
	}

	related := make([]Relation, 0, len(node.Outgoing)+len(node.Incoming))
	for _, edge := range node.Outgoing {
		related = append(related, Relation{
			ConceptID:    edge.Target,
			Relationship: edge.Relationship,
			Weight:       edge.Weight,
		})
	}
	for _, eid := range g.edgeOrder {
		edge := g.edges[eid]
		if edge.Target == node.ID {
			related = append(related, Relation{
				ConceptID:    edge.Source,
				Relationship: edge.Relationship,
				Weight:       edge.Weight,
			})
		}
	}

	sort.SliceStable(related, func(i, j int) bool {
		return related[i].Weight > related[j].Weight
	})

	if len(related) > maxResults {
		related = related[:maxResults]
	}
	return related
}
