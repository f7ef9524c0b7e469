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
	"sort"
	"strings"
)

// Analysis configuration.
const (
	// DefaultTopConcepts is the default number of central concepts
	// reported.
	DefaultTopConcepts = 5

	// DefaultMaxClusters is the default cap on discovered clusters.
	DefaultMaxClusters = 5

	// summaryTopConcepts is how many concepts Summary lists.
	summaryTopConcepts = 3
)

// ConceptScore pairs a node with its degree centrality.
type ConceptScore struct {
	// ConceptID is the node id.
	ConceptID string `json:"conceptId"`

	// Score is (inDegree+outDegree)/max(1, nodeCount-1).
	Score float64 `json:"score"`
}

// Stats summarizes the graph structure.
type Stats struct {
	// Empty is true when the graph had zero nodes. The remaining
	// fields are zero in that case.
	Empty bool `json:"empty,omitempty"`

	// NodeCount is the number of nodes.
	NodeCount int `json:"nodeCount"`

	// EdgeCount is the number of edges.
	EdgeCount int `json:"edgeCount"`

	// Density is edgeCount / max(1, nodeCount*(nodeCount-1)), the
	// fraction of possible directed edges present.
	Density float64 `json:"density"`

	// AverageDegree is the mean outgoing degree.
	AverageDegree float64 `json:"averageDegree"`

	// CentralConcepts lists the top concepts by degree centrality.
	CentralConcepts []ConceptScore `json:"centralConcepts"`

	// ClusterCount is the number of connected components found,
	// capped at DefaultMaxClusters.
	ClusterCount int `json:"clusterCount"`

	// LargestClusterSize is the node count of the biggest cluster.
	LargestClusterSize int `json:"largestClusterSize"`

	// RelationshipTypes is a histogram of edge relationship names.
	RelationshipTypes map[string]int `json:"relationshipTypes"`
}

// CentralConcepts ranks nodes by degree centrality.
//
// Description:
//
//	Score is (inDegree + outDegree) / max(1, nodeCount-1). The sort
//	is stable descending, so nodes with equal scores keep insertion
//	order.
//
// Inputs:
//
//	topK - Number of concepts to return. Values below 1 fall back to
//	DefaultTopConcepts.
func (g *Graph) CentralConcepts(topK int) []ConceptScore {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.centralConceptsLocked(topK)
}

func (g *Graph) centralConceptsLocked(topK int) []ConceptScore {
	if topK < 1 {
		topK = DefaultTopConcepts
	}

	denom := float64(len(g.nodes) - 1)
	if denom < 1 {
		denom = 1
	}

	scores := make([]ConceptScore, 0, len(g.nodeOrder))
	for _, id := range g.nodeOrder {
		node := g.nodes[id]
		degree := float64(len(node.Incoming) + len(node.Outgoing))
		scores = append(scores, ConceptScore{ConceptID: id, Score: degree / denom})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})

	if len(scores) > topK {
		scores = scores[:topK]
	}
	return scores
}

// Clusters groups nodes into connected components.
//
// Description:
//
//	Breadth-first component discovery over an undirected view of the
//	graph: traversal follows outgoing edges and also walks incoming
//	edges backwards. Components are seeded in node insertion order.
//	Once maxClusters components are complete no further component is
//	started, but the one in progress is always finished.
//
// Inputs:
//
//	maxClusters - Cap on components returned. Values below 1 fall
//	back to DefaultMaxClusters.
func (g *Graph) Clusters(maxClusters int) [][]string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.clustersLocked(maxClusters)
}

func (g *Graph) clustersLocked(maxClusters int) [][]string {
	if maxClusters < 1 {
		maxClusters = DefaultMaxClusters
	}

	clusters := make([][]string, 0, maxClusters)
	visited := make(map[string]bool)

	for _, seed := range g.nodeOrder {
		if visited[seed] {
			continue
		}
		if len(clusters) >= maxClusters {
			break
		}

		var cluster []string
		queue := []string{seed}

		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]

			if visited[current] {
				continue
			}
			visited[current] = true
			cluster = append(cluster, current)

			for _, edge := range g.nodes[current].Outgoing {
				if !visited[edge.Target] {
					queue = append(queue, edge.Target)
				}
			}
			for _, eid := range g.edgeOrder {
				edge := g.edges[eid]
				if edge.Target == current && !visited[edge.Source] {
					queue = append(queue, edge.Source)
				}
			}
		}

		if len(cluster) > 0 {
			clusters = append(clusters, cluster)
		}
	}

	return clusters
}

// Analyze computes structural statistics for the whole graph.
//
// A zero-node graph yields Stats{Empty: true} rather than an error;
// an empty graph is a normal state, not a failure.
func (g *Graph) Analyze() Stats {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n := len(g.nodes)
	if n == 0 {
		return Stats{Empty: true}
	}
	e := len(g.edges)

	possible := n * (n - 1)
	if possible < 1 {
		possible = 1
	}

	outDegreeSum := 0
	for _, node := range g.nodes {
		outDegreeSum += len(node.Outgoing)
	}

	clusters := g.clustersLocked(DefaultMaxClusters)
	largest := 0
	for _, cluster := range clusters {
		if len(cluster) > largest {
			largest = len(cluster)
		}
	}

	relTypes := make(map[string]int)
	for _, edge := range g.edges {
		relTypes[edge.Relationship]++
	}

	return Stats{
		NodeCount:          n,
		EdgeCount:          e,
		Density:            float64(e) / float64(possible),
		AverageDegree:      float64(outDegreeSum) / float64(n),
		CentralConcepts:    g.centralConceptsLocked(DefaultTopConcepts),
		ClusterCount:       len(clusters),
		LargestClusterSize: largest,
		RelationshipTypes:  relTypes,
	}
}

// Summary renders a short human-readable description of the graph.
func (g *Graph) Summary() string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if len(g.nodes) == 0 {
		return "Empty knowledge graph"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Knowledge Graph Summary:\n")
	fmt.Fprintf(&b, "- %d concepts\n", len(g.nodes))
	fmt.Fprintf(&b, "- %d relationships", len(g.edges))

	type connected struct {
		id     string
		degree int
	}
	top := make([]connected, 0, len(g.nodeOrder))
	for _, id := range g.nodeOrder {
		node := g.nodes[id]
		top = append(top, connected{id: id, degree: len(node.Outgoing) + len(node.Incoming)})
	}
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].degree > top[j].degree
	})
	if len(top) > summaryTopConcepts {
		top = top[:summaryTopConcepts]
	}

	if len(top) > 0 {
		b.WriteString("\n- Top connected concepts:")
		for _, c := range top {
			fmt.Fprintf(&b, "\n  • %s (%d connections)", c.id, c.degree)
		}
	}

	return b.String()
}
