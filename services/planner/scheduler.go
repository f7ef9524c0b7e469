// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package planner turns a raw topic into an ordered study plan.
//
// The pipeline is deterministic end to end: a topic is decomposed into
// subtopics (generative collaborator with a template fallback),
// prerequisites are inferred from subtopic wording, subtopics are
// leveled by dependency, and the leveled sequence expands into
// curriculum modules. Identical inputs always produce identical plans.
package planner

import (
	"strings"
)

// DefaultTopicMinutes is the per-topic time estimate in a study sequence.
const DefaultTopicMinutes = 30

// Difficulty levels used across planning, sequencing, and curricula.
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// DependencyGraph orders subtopics by prerequisite relationships.
//
// Edges run prerequisite -> dependent. Levels assigns each subtopic a
// study level; a subtopic's prerequisites always sit on lower levels
// unless the subtopics form a cycle.
type DependencyGraph struct {
	// Nodes lists the subtopics, first occurrence order, duplicates dropped.
	Nodes []string `json:"nodes"`

	// Edges holds [prerequisite, dependent] pairs.
	Edges [][2]string `json:"edges"`

	// Levels maps each subtopic to its study level, starting at 0.
	Levels map[string]int `json:"levels"`
}

// SequenceItem is one entry of a leveled study sequence.
type SequenceItem struct {
	Topic            string `json:"topic"`
	Level            int    `json:"level"`
	EstimatedMinutes int    `json:"estimatedMinutes"`
	Difficulty       string `json:"difficulty"`
	PrerequisitesMet bool   `json:"prerequisitesMet"`
}

// InferPrerequisites derives prerequisite edges from subtopic wording.
//
// A subtopic containing "advanced" depends on every subtopic containing
// "basic" or "introduction"; otherwise one containing "application"
// depends on every subtopic containing "concept" or "theory". Matching
// is case-insensitive. A subtopic never depends on itself.
func InferPrerequisites(subtopics []string) [][2]string {
	order := dedupe(subtopics)

	edges := make([][2]string, 0)
	for _, subtopic := range order {
		lower := strings.ToLower(subtopic)

		var prereqs []string
		switch {
		case strings.Contains(lower, "advanced"):
			prereqs = matching(order, "basic", "introduction")
		case strings.Contains(lower, "application"):
			prereqs = matching(order, "concept", "theory")
		}

		for _, prereq := range prereqs {
			if prereq == subtopic {
				continue
			}
			edges = append(edges, [2]string{prereq, subtopic})
		}
	}
	return edges
}

// BuildDependencyGraph levels subtopics by prerequisite depth.
//
// Leveling is a Kahn pass over the inferred prerequisite edges: every
// zero-in-degree subtopic joins the current level and then releases its
// dependents. When a cycle leaves no zero-in-degree subtopic, the
// lexicographically smallest remaining one is forced through as a
// singleton level. Cycles are never an error; planning always
// terminates.
func BuildDependencyGraph(subtopics []string) *DependencyGraph {
	order := dedupe(subtopics)
	edges := InferPrerequisites(order)

	inDegree := make(map[string]int, len(order))
	for _, subtopic := range order {
		inDegree[subtopic] = 0
	}
	for _, edge := range edges {
		inDegree[edge[1]]++
	}

	levels := make(map[string]int, len(order))
	remaining := make(map[string]bool, len(order))
	for _, subtopic := range order {
		remaining[subtopic] = true
	}

	for level := 0; len(remaining) > 0; level++ {
		var current []string
		for _, subtopic := range order {
			if remaining[subtopic] && inDegree[subtopic] == 0 {
				current = append(current, subtopic)
			}
		}
		if len(current) == 0 {
			current = []string{smallestOf(remaining)}
		}

		for _, subtopic := range current {
			levels[subtopic] = level
			delete(remaining, subtopic)
			for _, edge := range edges {
				if edge[0] == subtopic && remaining[edge[1]] {
					inDegree[edge[1]]--
				}
			}
		}
	}

	return &DependencyGraph{Nodes: order, Edges: edges, Levels: levels}
}

// Sequence flattens a dependency graph into study order.
//
// Items are emitted level by level; within a level the original
// subtopic order is preserved. Every item carries the default time
// estimate and a difficulty read from the subtopic's wording.
func Sequence(depGraph *DependencyGraph, subtopics []string) []SequenceItem {
	order := dedupe(subtopics)

	maxLevel := -1
	for _, level := range depGraph.Levels {
		if level > maxLevel {
			maxLevel = level
		}
	}

	sequence := make([]SequenceItem, 0, len(order))
	for level := 0; level <= maxLevel; level++ {
		for _, subtopic := range order {
			assigned, ok := depGraph.Levels[subtopic]
			if !ok || assigned != level {
				continue
			}
			sequence = append(sequence, SequenceItem{
				Topic:            subtopic,
				Level:            level,
				EstimatedMinutes: DefaultTopicMinutes,
				Difficulty:       estimateTopicDifficulty(subtopic),
				PrerequisitesMet: true,
			})
		}
	}
	return sequence
}

// estimateTopicDifficulty reads a difficulty level off subtopic wording.
func estimateTopicDifficulty(topic string) string {
	lower := strings.ToLower(topic)
	switch {
	case containsAny(lower, "advanced", "complex", "research"):
		return DifficultyAdvanced
	case containsAny(lower, "intermediate", "application"):
		return DifficultyIntermediate
	default:
		return DifficultyBeginner
	}
}

// matching returns the subtopics whose lowercased text contains any of
// the given words.
func matching(subtopics []string, words ...string) []string {
	var matched []string
	for _, subtopic := range subtopics {
		if containsAny(strings.ToLower(subtopic), words...) {
			matched = append(matched, subtopic)
		}
	}
	return matched
}

// containsAny reports whether s contains any of the given substrings.
func containsAny(s string, words ...string) bool {
	for _, word := range words {
		if strings.Contains(s, word) {
			return true
		}
	}
	return false
}

// dedupe keeps the first occurrence of each subtopic.
func dedupe(subtopics []string) []string {
	seen := make(map[string]bool, len(subtopics))
	order := make([]string, 0, len(subtopics))
	for _, subtopic := range subtopics {
		if seen[subtopic] {
			continue
		}
		seen[subtopic] = true
		order = append(order, subtopic)
	}
	return order
}

// smallestOf returns the lexicographically smallest key.
func smallestOf(set map[string]bool) string {
	smallest := ""
	first := true
	for subtopic := range set {
		if first || subtopic < smallest {
			smallest = subtopic
			first = false
		}
	}
	return smallest
}
