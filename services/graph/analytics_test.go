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
	"math"
	"strings"
	"testing"
)

func TestCentralConcepts(t *testing.T) {
	t.Run("empty graph yields empty", func(t *testing.T) {
		g := New()
		if got := g.CentralConcepts(5); len(got) != 0 {
			t.Errorf("CentralConcepts = %v, expected empty", got)
		}
	})

	t.Run("degree normalized by node count", func(t *testing.T) {
		// Star: hub connects to 3 leaves, 4 nodes total.
		g := New()
		g.AddEdge("hub", "l1", "related_to", 1.0, nil)
		g.AddEdge("hub", "l2", "related_to", 1.0, nil)
		g.AddEdge("l3", "hub", "related_to", 1.0, nil)

		got := g.CentralConcepts(1)
		if len(got) != 1 {
			t.Fatalf("len = %d, expected 1", len(got))
		}
		if got[0].ConceptID != "hub" {
			t.Errorf("top = %q, expected hub", got[0].ConceptID)
		}
		want := 3.0 / 3.0
		if math.Abs(got[0].Score-want) > 1e-9 {
			t.Errorf("Score = %v, expected %v", got[0].Score, want)
		}
	})

	t.Run("ties keep insertion order", func(t *testing.T) {
		g := New()
		g.AddNode("b", "", "", nil)
		g.AddNode("a", "", "", nil)
		g.AddNode("c", "", "", nil)

		got := g.CentralConcepts(3)
		wantOrder := []string{"b", "a", "c"}
		for i, want := range wantOrder {
			if got[i].ConceptID != want {
				t.Errorf("concepts[%d] = %q, expected insertion order %v", i, got[i].ConceptID, wantOrder)
			}
		}
	})

	t.Run("non-positive topK falls back to default", func(t *testing.T) {
		g := New()
		for _, id := range []string{"a", "b", "c", "d", "e", "f", "g"} {
			g.AddNode(id, "", "", nil)
		}
		if got := g.CentralConcepts(0); len(got) != DefaultTopConcepts {
			t.Errorf("len = %d, expected default %d", len(got), DefaultTopConcepts)
		}
	})

	t.Run("single node avoids zero division", func(t *testing.T) {
		g := New()
		g.AddNode("only", "", "", nil)
		got := g.CentralConcepts(5)
		if len(got) != 1 || got[0].Score != 0 {
			t.Errorf("got %v, expected [{only 0}]", got)
		}
	})
}

func TestClusters(t *testing.T) {
	t.Run("separates disconnected components", func(t *testing.T) {
		g := New()
		g.AddEdge("a", "b", "related_to", 1.0, nil)
		g.AddEdge("b", "c", "related_to", 1.0, nil)
		g.AddEdge("x", "y", "related_to", 1.0, nil)

		got := g.Clusters(5)
		if len(got) != 2 {
			t.Fatalf("len = %d, expected 2 components", len(got))
		}
		if !sameStrings(got[0], []string{"a", "b", "c"}) {
			t.Errorf("cluster[0] = %v, expected [a b c]", got[0])
		}
		if !sameStrings(got[1], []string{"x", "y"}) {
			t.Errorf("cluster[1] = %v, expected [x y]", got[1])
		}
	})

	t.Run("traversal treats edges as undirected", func(t *testing.T) {
		// Only incoming edges connect "sink" to the rest.
		g := New()
		g.AddEdge("a", "sink", "related_to", 1.0, nil)
		g.AddEdge("b", "sink", "related_to", 1.0, nil)

		got := g.Clusters(5)
		if len(got) != 1 {
			t.Fatalf("len = %d, expected a single component", len(got))
		}
		if len(got[0]) != 3 {
			t.Errorf("cluster size = %d, expected 3", len(got[0]))
		}
	})

	t.Run("cap stops new clusters but finishes current one", func(t *testing.T) {
		g := New()
		g.AddEdge("a1", "a2", "related_to", 1.0, nil)
		g.AddEdge("b1", "b2", "related_to", 1.0, nil)
		g.AddEdge("b2", "b3", "related_to", 1.0, nil)
		g.AddEdge("c1", "c2", "related_to", 1.0, nil)

		got := g.Clusters(2)
		if len(got) != 2 {
			t.Fatalf("len = %d, expected cap of 2", len(got))
		}
		if !sameStrings(got[1], []string{"b1", "b2", "b3"}) {
			t.Errorf("cluster[1] = %v, expected fully completed [b1 b2 b3]", got[1])
		}
	})

	t.Run("empty graph yields no clusters", func(t *testing.T) {
		g := New()
		if got := g.Clusters(5); len(got) != 0 {
			t.Errorf("Clusters = %v, expected empty", got)
		}
	})
}

func TestAnalyze(t *testing.T) {
	t.Run("empty graph reports Empty", func(t *testing.T) {
		g := New()
		stats := g.Analyze()
		if !stats.Empty {
			t.Error("Empty = false, expected true for zero-node graph")
		}
		if stats.NodeCount != 0 || stats.EdgeCount != 0 {
			t.Errorf("counts = (%d, %d), expected zeros", stats.NodeCount, stats.EdgeCount)
		}
	})

	t.Run("computes structure statistics", func(t *testing.T) {
		g := New()
		g.AddEdge("a", "b", "prerequisite_of", 1.0, nil)
		g.AddEdge("b", "c", "prerequisite_of", 1.0, nil)
		g.AddEdge("a", "c", "related_to", 1.0, nil)
		g.AddNode("lone", "", "", nil)

		stats := g.Analyze()
		if stats.Empty {
			t.Fatal("Empty = true for populated graph")
		}
		if stats.NodeCount != 4 {
			t.Errorf("NodeCount = %d, expected 4", stats.NodeCount)
		}
		if stats.EdgeCount != 3 {
			t.Errorf("EdgeCount = %d, expected 3", stats.EdgeCount)
		}
		wantDensity := 3.0 / 12.0
		if math.Abs(stats.Density-wantDensity) > 1e-9 {
			t.Errorf("Density = %v, expected %v", stats.Density, wantDensity)
		}
		wantAvg := 3.0 / 4.0
		if math.Abs(stats.AverageDegree-wantAvg) > 1e-9 {
			t.Errorf("AverageDegree = %v, expected %v", stats.AverageDegree, wantAvg)
		}
		if stats.ClusterCount != 2 {
			t.Errorf("ClusterCount = %d, expected 2", stats.ClusterCount)
		}
		if stats.LargestClusterSize != 3 {
			t.Errorf("LargestClusterSize = %d, expected 3", stats.LargestClusterSize)
		}
		if stats.RelationshipTypes["prerequisite_of"] != 2 {
			t.Errorf("RelationshipTypes[prerequisite_of] = %d, expected 2",
				stats.RelationshipTypes["prerequisite_of"])
		}
		if stats.RelationshipTypes["related_to"] != 1 {
			t.Errorf("RelationshipTypes[related_to] = %d, expected 1",
				stats.RelationshipTypes["related_to"])
		}
		if len(stats.CentralConcepts) != 4 {
			t.Errorf("len(CentralConcepts) = %d, expected all 4 nodes", len(stats.CentralConcepts))
		}
		if stats.CentralConcepts[0].ConceptID != "a" {
			t.Errorf("top concept = %q, expected a", stats.CentralConcepts[0].ConceptID)
		}
	})
}

func TestSummary(t *testing.T) {
	t.Run("empty graph", func(t *testing.T) {
		g := New()
		if got := g.Summary(); got != "Empty knowledge graph" {
			t.Errorf("Summary = %q, expected %q", got, "Empty knowledge graph")
		}
	})

	t.Run("lists counts and top concepts", func(t *testing.T) {
		g := New()
		g.AddEdge("ml", "statistics", "builds_on", 1.0, nil)
		g.AddEdge("ml", "calculus", "builds_on", 1.0, nil)

		got := g.Summary()
		wantLines := []string{
			"Knowledge Graph Summary:",
			"- 3 concepts",
			"- 2 relationships",
			"- Top connected concepts:",
			"  • ml (2 connections)",
			"  • statistics (1 connections)",
			"  • calculus (1 connections)",
		}
		want := strings.Join(wantLines, "\n")
		if got != want {
			t.Errorf("Summary =\n%q\nexpected\n%q", got, want)
		}
	})
}
