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
	"fmt"
	"sync"
)

// NodeType classifies what a graph node represents.
type NodeType string

const (
	// NodeConcept is a single concept or idea. Endpoints auto-created
	// by AddEdge get this type.
	NodeConcept NodeType = "concept"

	// NodeTopic is a broader study topic that groups concepts.
	NodeTopic NodeType = "topic"

	// NodeCourse is a course a topic or deadline belongs to.
	NodeCourse NodeType = "course"

	// NodeResource is an external learning resource (page, paper, video).
	NodeResource NodeType = "resource"
)

// DefaultNodeWeight is the weight assigned to nodes on creation.
const DefaultNodeWeight = 1.0

// Node is a concept in the knowledge graph.
//
// Nodes are owned by the Graph. The Outgoing and Incoming slices are
// maintained by AddEdge and must not be mutated by callers.
type Node struct {
	// ID is the unique identifier. Identity for overwrite-on-re-add.
	ID string

	// Label is the human-readable name shown in summaries and exports.
	Label string

	// Type classifies the node. Defaults to NodeConcept.
	Type NodeType

	// Properties holds arbitrary metadata (source document, course
	// code, URLs).
	Properties map[string]any

	// Weight is the node's importance. Currently always
	// DefaultNodeWeight for nodes created through AddNode.
	Weight float64

	// Outgoing contains edges where this node is the source.
	Outgoing []*Edge

	// Incoming contains edges where this node is the target.
	Incoming []*Edge
}

// Edge is a directed, named relationship between two nodes.
//
// At most one edge exists per ordered (Source, Target) pair.
// Re-adding the pair overwrites the relationship, weight, and
// properties in place.
type Edge struct {
	// ID is derived from the endpoints as "source->target".
	ID string

	// Source is the id of the origin node.
	Source string

	// Target is the id of the destination node.
	Target string

	// Relationship names the edge ("prerequisite_of", "part_of",
	// "related_to").
	Relationship string

	// Weight is the relationship strength, used to rank related
	// concepts. Defaults to 1.0.
	Weight float64

	// Properties holds arbitrary edge metadata.
	Properties map[string]any
}

// Graph is an in-memory directed knowledge graph of concepts.
//
// Thread Safety:
//
//	All exported methods take the internal lock. Reads run
//	concurrently; mutation (AddNode, AddEdge, ImportJSON, Clear) is
//	exclusive. The usual lifecycle is a build phase followed by
//	concurrent querying.
type Graph struct {
	mu sync.RWMutex

	// nodes maps node id to Node.
	nodes map[string]*Node

	// nodeOrder records node insertion order. Overwrites keep the
	// original position. Centrality tie-breaks and exports depend on
	// this ordering.
	nodeOrder []string

	// edges maps edge id ("source->target") to Edge.
	edges map[string]*Edge

	// edgeOrder records edge insertion order for exports.
	edgeOrder []string
}

// New creates an empty knowledge graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
		edges: make(map[string]*Edge),
	}
}

// AddNode inserts or overwrites a concept node.
//
// Description:
//
//	Idempotent by id. Re-adding an existing id replaces the label,
//	type, properties, and weight but keeps the node's insertion
//	position and its adjacency intact. Never fails.
//
// Inputs:
//
//	id - Unique node identifier.
//	label - Human-readable name. Empty label falls back to the id.
//	nodeType - Classification. Empty falls back to NodeConcept.
//	props - Optional metadata. May be nil.
//
// Outputs:
//
//	The stored node. Callers must not mutate Outgoing/Incoming.
func (g *Graph) AddNode(id, label string, nodeType NodeType, props map[string]any) *Node {
	g.mu.Lock()
	defer g.mu.Unlock()

	if label == "" {
		label = id
	}
	if nodeType == "" {
		nodeType = NodeConcept
	}
	if props == nil {
		props = make(map[string]any)
	}

	if existing, ok := g.nodes[id]; ok {
		existing.Label = label
		existing.Type = nodeType
		existing.Properties = props
		existing.Weight = DefaultNodeWeight
		return existing
	}

	node := &Node{
		ID:         id,
		Label:      label,
		Type:       nodeType,
		Properties: props,
		Weight:     DefaultNodeWeight,
	}
	g.nodes[id] = node
	g.nodeOrder = append(g.nodeOrder, id)
	return node
}

// AddEdge inserts or overwrites a directed relationship.
//
// Description:
//
//	Absent endpoints are auto-created as concept nodes whose label is
//	their id. The edge id is derived from the endpoints, so re-adding
//	the same (source, target) pair overwrites the relationship,
//	weight, and properties without duplicating adjacency entries.
//	Never fails.
//
// Inputs:
//
//	source - Origin node id.
//	target - Destination node id.
//	relationship - Relationship name.
//	weight - Relationship strength. Callers typically pass 1.0.
//	props - Optional metadata. May be nil.
func (g *Graph) AddEdge(source, target, relationship string, weight float64, props map[string]any) *Edge {
	g.mu.Lock()
	defer g.mu.Unlock()

	if props == nil {
		props = make(map[string]any)
	}

	src := g.ensureNodeLocked(source)
	tgt := g.ensureNodeLocked(target)

	id := edgeID(source, target)
	if existing, ok := g.edges[id]; ok {
		existing.Relationship = relationship
		existing.Weight = weight
		existing.Properties = props
		return existing
	}

	edge := &Edge{
		ID:           id,
		Source:       source,
		Target:       target,
		Relationship: relationship,
		Weight:       weight,
		Properties:   props,
	}
	g.edges[id] = edge
	g.edgeOrder = append(g.edgeOrder, id)
	src.Outgoing = append(src.Outgoing, edge)
	tgt.Incoming = append(tgt.Incoming, edge)
	return edge
}

// ensureNodeLocked returns the node for id, creating a bare concept
// node when absent. Caller must hold the write lock.
func (g *Graph) ensureNodeLocked(id string) *Node {
	if node, ok := g.nodes[id]; ok {
		return node
	}
	node := &Node{
		ID:         id,
		Label:      id,
		Type:       NodeConcept,
		Properties: make(map[string]any),
		Weight:     DefaultNodeWeight,
	}
	g.nodes[id] = node
	g.nodeOrder = append(g.nodeOrder, id)
	return node
}

// edgeID derives the edge identity from its endpoints.
func edgeID(source, target string) string {
	return fmt.Sprintf("%s->%s", source, target)
}

// Node returns the node with the given id, or nil when absent.
func (g *Graph) Node(id string) *Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes[id]
}

// Edge returns the edge between source and target, or nil when absent.
func (g *Graph) Edge(source, target string) *Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edges[edgeID(source, target)]
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edges)
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Node, 0, len(g.nodeOrder))
	for _, id := range g.nodeOrder {
		out = append(out, g.nodes[id])
	}
	return out
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []*Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Edge, 0, len(g.edgeOrder))
	for _, id := range g.edgeOrder {
		out = append(out, g.edges[id])
	}
	return out
}

// Clear removes every node and edge, returning the graph to its
// freshly constructed state.
func (g *Graph) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes = make(map[string]*Node)
	g.nodeOrder = nil
	g.edges = make(map[string]*Edge)
	g.edgeOrder = nil
}
