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
	"encoding/json"
	"fmt"
)

// exportNode is the on-disk node shape. Adjacency is derivable from
// the edge list and is not serialized.
type exportNode struct {
	ID         string         `json:"id"`
	Label      string         `json:"label"`
	Type       NodeType       `json:"type"`
	Properties map[string]any `json:"properties"`
	Weight     float64        `json:"weight"`
}

// exportEdge is the on-disk edge shape. The edge id is derived from
// the endpoints on import.
type exportEdge struct {
	Source       string         `json:"source"`
	Target       string         `json:"target"`
	Relationship string         `json:"relationship"`
	Weight       float64        `json:"weight"`
	Properties   map[string]any `json:"properties"`
}

type exportGraph struct {
	Nodes []exportNode `json:"nodes"`
	Edges []exportEdge `json:"edges"`
}

// ExportJSON serializes the graph to indented JSON.
//
// Nodes and edges appear in insertion order, so repeated exports of
// the same graph are byte-identical.
func (g *Graph) ExportJSON() ([]byte, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := exportGraph{
		Nodes: make([]exportNode, 0, len(g.nodeOrder)),
		Edges: make([]exportEdge, 0, len(g.edgeOrder)),
	}
	for _, id := range g.nodeOrder {
		node := g.nodes[id]
		out.Nodes = append(out.Nodes, exportNode{
			ID:         node.ID,
			Label:      node.Label,
			Type:       node.Type,
			Properties: node.Properties,
			Weight:     node.Weight,
		})
	}
	for _, id := range g.edgeOrder {
		edge := g.edges[id]
		out.Edges = append(out.Edges, exportEdge{
			Source:       edge.Source,
			Target:       edge.Target,
			Relationship: edge.Relationship,
			Weight:       edge.Weight,
			Properties:   edge.Properties,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export graph: %w", err)
	}
	return data, nil
}

// ImportJSON replaces the graph contents with a previously exported
// snapshot.
//
// Description:
//
//	Decodes the ExportJSON shape and rebuilds nodes, edges, and
//	adjacency from it. Node weights survive the round trip. Existing
//	contents are discarded; on a decode error the graph is left
//	untouched.
//
// Outputs:
//
//	error - ErrMalformedImport (wrapped) when data does not decode.
func (g *Graph) ImportJSON(data []byte) error {
	var in exportGraph
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.nodes = make(map[string]*Node, len(in.Nodes))
	g.nodeOrder = make([]string, 0, len(in.Nodes))
	g.edges = make(map[string]*Edge, len(in.Edges))
	g.edgeOrder = make([]string, 0, len(in.Edges))

	for _, n := range in.Nodes {
		props := n.Properties
		if props == nil {
			props = make(map[string]any)
		}
		typ := n.Type
		if typ == "" {
			typ = NodeConcept
		}
		label := n.Label
		if label == "" {
			label = n.ID
		}
		weight := n.Weight
		if weight == 0 {
			weight = DefaultNodeWeight
		}
		if existing, ok := g.nodes[n.ID]; ok {
			existing.Label = label
			existing.Type = typ
			existing.Properties = props
			existing.Weight = weight
			continue
		}
		g.nodes[n.ID] = &Node{
			ID:         n.ID,
			Label:      label,
			Type:       typ,
			Properties: props,
			Weight:     weight,
		}
		g.nodeOrder = append(g.nodeOrder, n.ID)
	}

	for _, e := range in.Edges {
		props := e.Properties
		if props == nil {
			props = make(map[string]any)
		}
		src := g.ensureNodeLocked(e.Source)
		tgt := g.ensureNodeLocked(e.Target)

		id := edgeID(e.Source, e.Target)
		if existing, ok := g.edges[id]; ok {
			existing.Relationship = e.Relationship
			existing.Weight = e.Weight
			existing.Properties = props
			continue
		}
		edge := &Edge{
			ID:           id,
			Source:       e.Source,
			Target:       e.Target,
			Relationship: e.Relationship,
			Weight:       e.Weight,
			Properties:   props,
		}
		g.edges[id] = edge
		g.edgeOrder = append(g.edgeOrder, id)
		src.Outgoing = append(src.Outgoing, edge)
		tgt.Incoming = append(tgt.Incoming, edge)
	}

	return nil
}
