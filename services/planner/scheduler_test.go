// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package planner

import (
	"reflect"
	"testing"
)

func TestInferPrerequisites(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		subtopics []string
		want      [][2]string
	}{
		{
			name: "advanced depends on basics and introductions",
			subtopics: []string{
				"Introduction to Go",
				"Basic concepts of Go",
				"Advanced Go techniques",
			},
			want: [][2]string{
				{"Introduction to Go", "Advanced Go techniques"},
				{"Basic concepts of Go", "Advanced Go techniques"},
			},
		},
		{
			name: "applications depend on concepts and theory",
			subtopics: []string{
				"Basic concepts of Go",
				"Theory of computation",
				"Applications of Go",
			},
			want: [][2]string{
				{"Basic concepts of Go", "Applications of Go"},
				{"Theory of computation", "Applications of Go"},
			},
		},
		{
			name: "advanced rule outranks application rule",
			subtopics: []string{
				"Theory of computation",
				"Basic concepts of Go",
				"Advanced applications of Go",
			},
			want: [][2]string{
				{"Basic concepts of Go", "Advanced applications of Go"},
			},
		},
		{
			name: "matching is case-insensitive",
			subtopics: []string{
				"INTRODUCTION TO GO",
				"Advanced Go",
			},
			want: [][2]string{
				{"INTRODUCTION TO GO", "Advanced Go"},
			},
		},
		{
			name: "no self dependency",
			subtopics: []string{
				"Advanced basics",
				"Introduction to Go",
			},
			want: [][2]string{
				{"Introduction to Go", "Advanced basics"},
			},
		},
		{
			name:      "no keywords no edges",
			subtopics: []string{"Alpha", "Beta"},
			want:      [][2]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InferPrerequisites(tt.subtopics)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("InferPrerequisites(%v) = %v, expected %v", tt.subtopics, got, tt.want)
			}
		})
	}
}

func TestBuildDependencyGraph(t *testing.T) {
	t.Parallel()

	t.Run("prerequisites sit below dependents", func(t *testing.T) {
		subtopics := []string{
			"Introduction to Go",
			"Basic concepts of Go",
			"Applications of Go",
			"Advanced Go techniques",
			"Current research in Go",
		}

		depGraph := BuildDependencyGraph(subtopics)

		if !reflect.DeepEqual(depGraph.Nodes, subtopics) {
			t.Errorf("Nodes = %v, expected %v", depGraph.Nodes, subtopics)
		}

		wantEdges := [][2]string{
			{"Basic concepts of Go", "Applications of Go"},
			{"Introduction to Go", "Advanced Go techniques"},
			{"Basic concepts of Go", "Advanced Go techniques"},
		}
		if !reflect.DeepEqual(depGraph.Edges, wantEdges) {
			t.Errorf("Edges = %v, expected %v", depGraph.Edges, wantEdges)
		}

		wantLevels := map[string]int{
			"Introduction to Go":     0,
			"Basic concepts of Go":   0,
			"Current research in Go": 0,
			"Applications of Go":     1,
			"Advanced Go techniques": 1,
		}
		if !reflect.DeepEqual(depGraph.Levels, wantLevels) {
			t.Errorf("Levels = %v, expected %v", depGraph.Levels, wantLevels)
		}
	})

	t.Run("cycle forces lexicographically smallest first", func(t *testing.T) {
		subtopics := []string{"Advanced introduction", "Advanced basics"}

		depGraph := BuildDependencyGraph(subtopics)

		wantLevels := map[string]int{
			"Advanced basics":       0,
			"Advanced introduction": 1,
		}
		if !reflect.DeepEqual(depGraph.Levels, wantLevels) {
			t.Errorf("Levels = %v, expected %v", depGraph.Levels, wantLevels)
		}
	})

	t.Run("empty subtopics", func(t *testing.T) {
		depGraph := BuildDependencyGraph(nil)

		if len(depGraph.Nodes) != 0 {
			t.Errorf("Nodes = %v, expected none", depGraph.Nodes)
		}
		if len(depGraph.Edges) != 0 {
			t.Errorf("Edges = %v, expected none", depGraph.Edges)
		}
		if len(depGraph.Levels) != 0 {
			t.Errorf("Levels = %v, expected none", depGraph.Levels)
		}
	})

	t.Run("duplicates collapse to first occurrence", func(t *testing.T) {
		depGraph := BuildDependencyGraph([]string{"Alpha", "Alpha", "Beta"})

		wantNodes := []string{"Alpha", "Beta"}
		if !reflect.DeepEqual(depGraph.Nodes, wantNodes) {
			t.Errorf("Nodes = %v, expected %v", depGraph.Nodes, wantNodes)
		}
		wantLevels := map[string]int{"Alpha": 0, "Beta": 0}
		if !reflect.DeepEqual(depGraph.Levels, wantLevels) {
			t.Errorf("Levels = %v, expected %v", depGraph.Levels, wantLevels)
		}
	})
}

func TestSequence(t *testing.T) {
	t.Parallel()

	t.Run("flattens levels in original subtopic order", func(t *testing.T) {
		subtopics := []string{
			"Introduction to Go",
			"Basic concepts of Go",
			"Applications of Go",
			"Advanced Go techniques",
			"Current research in Go",
		}

		sequence := Sequence(BuildDependencyGraph(subtopics), subtopics)

		want := []SequenceItem{
			{Topic: "Introduction to Go", Level: 0, EstimatedMinutes: 30, Difficulty: DifficultyBeginner, PrerequisitesMet: true},
			{Topic: "Basic concepts of Go", Level: 0, EstimatedMinutes: 30, Difficulty: DifficultyBeginner, PrerequisitesMet: true},
			{Topic: "Current research in Go", Level: 0, EstimatedMinutes: 30, Difficulty: DifficultyAdvanced, PrerequisitesMet: true},
			{Topic: "Applications of Go", Level: 1, EstimatedMinutes: 30, Difficulty: DifficultyIntermediate, PrerequisitesMet: true},
			{Topic: "Advanced Go techniques", Level: 1, EstimatedMinutes: 30, Difficulty: DifficultyAdvanced, PrerequisitesMet: true},
		}
		if !reflect.DeepEqual(sequence, want) {
			t.Errorf("Sequence = %v, expected %v", sequence, want)
		}
	})

	t.Run("level order beats list order", func(t *testing.T) {
		subtopics := []string{
			"Advanced Go techniques",
			"Introduction to Go",
			"Basic concepts of Go",
		}

		sequence := Sequence(BuildDependencyGraph(subtopics), subtopics)

		wantTopics := []string{
			"Introduction to Go",
			"Basic concepts of Go",
			"Advanced Go techniques",
		}
		gotTopics := make([]string, len(sequence))
		for i, item := range sequence {
			gotTopics[i] = item.Topic
		}
		if !reflect.DeepEqual(gotTopics, wantTopics) {
			t.Errorf("Sequence topics = %v, expected %v", gotTopics, wantTopics)
		}
	})

	t.Run("topics missing from the graph are skipped", func(t *testing.T) {
		depGraph := BuildDependencyGraph([]string{"Introduction to Go"})

		sequence := Sequence(depGraph, []string{"Introduction to Go", "Stray topic"})

		if len(sequence) != 1 {
			t.Fatalf("Sequence returned %d items, expected 1", len(sequence))
		}
		if sequence[0].Topic != "Introduction to Go" {
			t.Errorf("Sequence[0].Topic = %q, expected %q", sequence[0].Topic, "Introduction to Go")
		}
	})

	t.Run("empty graph yields empty sequence", func(t *testing.T) {
		sequence := Sequence(BuildDependencyGraph(nil), nil)
		if len(sequence) != 0 {
			t.Errorf("Sequence = %v, expected none", sequence)
		}
	})
}
