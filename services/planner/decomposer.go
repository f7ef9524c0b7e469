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
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"

	"github.com/AleutianAI/reasongraph/services/llm"
)

var tracer = otel.Tracer("reasongraph.planner")

// Decomposition limits.
const (
	// maxSubtopics caps a generated breakdown.
	maxSubtopics = 8

	// maxTemplateSubtopics caps the fallback breakdown.
	maxTemplateSubtopics = 6

	// decomposeMaxTokens bounds the collaborator response.
	decomposeMaxTokens = 200
)

// Generator is the generative collaborator used for topic breakdowns.
// Any llm client satisfies it.
type Generator interface {
	Generate(ctx context.Context, prompt string, params llm.GenerationParams) (string, error)
}

// Decomposer breaks a topic into subtopics.
//
// The generator is optional. Without one, or whenever a generation
// fails, Decompose falls back to a deterministic template breakdown.
// Decomposition never returns an error.
type Decomposer struct {
	generator Generator
}

// NewDecomposer creates a Decomposer. generator may be nil.
func NewDecomposer(generator Generator) *Decomposer {
	return &Decomposer{generator: generator}
}

// Decompose breaks topic into 5-8 subtopics.
//
// The collaborator is asked for one subtopic per line. Lines are
// trimmed, blank lines dropped, and the result capped at 8 entries.
// Collaborator absence, a generation error, or an all-blank response
// falls back to the template breakdown.
func (d *Decomposer) Decompose(ctx context.Context, topic string) []string {
	ctx, span := tracer.Start(ctx, "Decompose")
	defer span.End()

	slog.Info("Decomposing topic", "topic", topic)

	if d.generator == nil {
		return templateSubtopics(topic)
	}

	prompt := fmt.Sprintf("Break down the topic %q into 5-8 key subtopics that would be essential "+
		"for a comprehensive understanding. List only the subtopic names, one per line.", topic)

	maxTokens := decomposeMaxTokens
	response, err := d.generator.Generate(ctx, prompt, llm.GenerationParams{MaxTokens: &maxTokens})
	if err != nil {
		span.RecordError(err)
		slog.Warn("Topic decomposition falling back to templates", "topic", topic, "error", err)
		return templateSubtopics(topic)
	}

	subtopics := splitSubtopics(response)
	if len(subtopics) == 0 {
		slog.Warn("Topic decomposition got a blank response, falling back to templates", "topic", topic)
		return templateSubtopics(topic)
	}
	if len(subtopics) > maxSubtopics {
		subtopics = subtopics[:maxSubtopics]
	}
	return subtopics
}

// Prioritize orders subtopics for the given difficulty level.
//
// Every subtopic starts at score 1.0. Beginner boosts introductory
// wording and penalizes advanced wording; advanced does the reverse.
// The sort is stable and descending, so equal scores keep their
// original order.
func Prioritize(subtopics []string, difficulty string) []string {
	type scoredTopic struct {
		topic string
		score float64
	}

	scored := make([]scoredTopic, len(subtopics))
	for i, subtopic := range subtopics {
		scored[i] = scoredTopic{topic: subtopic, score: scoreSubtopic(subtopic, difficulty)}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	prioritized := make([]string, len(scored))
	for i, st := range scored {
		prioritized[i] = st.topic
	}
	return prioritized
}

// scoreSubtopic scores one subtopic for prioritization.
func scoreSubtopic(subtopic, difficulty string) float64 {
	score := 1.0
	lower := strings.ToLower(subtopic)

	switch difficulty {
	case DifficultyBeginner:
		if containsAny(lower, "introduction", "basic", "fundamentals") {
			score += 2.0
		} else if containsAny(lower, "advanced", "complex", "research") {
			score -= 1.0
		}
	case DifficultyAdvanced:
		if containsAny(lower, "advanced", "research", "cutting-edge") {
			score += 2.0
		} else if containsAny(lower, "introduction", "basic") {
			score -= 0.5
		}
	}
	return score
}

// templateSubtopics is the deterministic decomposition fallback.
//
// Five generic entries, plus two domain entries when the topic wording
// matches a known domain, capped at 6. The cap means only the first
// domain entry survives.
func templateSubtopics(topic string) []string {
	subtopics := []string{
		"Introduction to " + topic,
		"Basic concepts of " + topic,
		"Applications of " + topic,
		"Advanced " + topic + " techniques",
		"Current research in " + topic,
	}

	lower := strings.ToLower(topic)
	switch {
	case containsAny(lower, "programming", "software", "algorithm"):
		subtopics = append(subtopics, topic+" implementation", topic+" best practices")
	case containsAny(lower, "theory", "mathematics", "physics"):
		subtopics = append(subtopics, "Mathematical foundations of "+topic, "Theoretical framework of "+topic)
	}

	if len(subtopics) > maxTemplateSubtopics {
		subtopics = subtopics[:maxTemplateSubtopics]
	}
	return subtopics
}

// splitSubtopics splits a one-per-line response into trimmed entries.
func splitSubtopics(response string) []string {
	var subtopics []string
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		subtopics = append(subtopics, line)
	}
	return subtopics
}
