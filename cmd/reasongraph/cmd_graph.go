// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/reasongraph/pkg/ux"
)

func runGraphAnalyze(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	eng, cleanup := buildEngine(context.Background(), cfg)
	defer cleanup()

	stats := eng.Context().Graph.Analyze()
	if stats.Empty {
		ux.Info("The concept graph is empty")
		ux.Muted("Grow it by ingesting concepts or running queries: reasongraph ingest ./concepts")
		return
	}

	ux.Title("Concept Graph")
	ux.KeyValue("Nodes", fmt.Sprintf("%d", stats.NodeCount))
	ux.KeyValue("Edges", fmt.Sprintf("%d", stats.EdgeCount))
	ux.KeyValue("Density", fmt.Sprintf("%.4f", stats.Density))
	ux.KeyValue("Average degree", fmt.Sprintf("%.2f", stats.AverageDegree))
	ux.KeyValue("Clusters", fmt.Sprintf("%d", stats.ClusterCount))
	ux.KeyValue("Largest cluster", fmt.Sprintf("%d", stats.LargestClusterSize))

	if len(stats.CentralConcepts) > 0 {
		fmt.Println()
		ux.Info("Central concepts")
		for i, concept := range stats.CentralConcepts {
			ux.StepLine(i+1, concept.ConceptID, fmt.Sprintf("score %.3f", concept.Score), ux.IconBullet)
		}
	}

	if len(stats.RelationshipTypes) > 0 {
		fmt.Println()
		ux.Info("Relationships")
		rels := make([]string, 0, len(stats.RelationshipTypes))
		for rel := range stats.RelationshipTypes {
			rels = append(rels, rel)
		}
		sort.Strings(rels)
		for _, rel := range rels {
			ux.KeyValue(rel, fmt.Sprintf("%d", stats.RelationshipTypes[rel]))
		}
	}
}

func runGraphExport(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	eng, cleanup := buildEngine(context.Background(), cfg)
	defer cleanup()

	data, err := eng.Context().Graph.ExportJSON()
	if err != nil {
		fail("Failed to export graph: %v", err)
	}

	if graphOutput == "" {
		fmt.Println(string(data))
		return
	}
	if err := os.WriteFile(graphOutput, data, 0644); err != nil {
		fail("Failed to write %s: %v", graphOutput, err)
	}
	ux.Success(fmt.Sprintf("Exported graph to %s", graphOutput))
}
