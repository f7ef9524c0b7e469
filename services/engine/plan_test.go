// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/reasongraph/services/graph"
	"github.com/AleutianAI/reasongraph/services/planner"
	"github.com/AleutianAI/reasongraph/services/reasoning"
)

func TestPlanTopic_EmptyTopic(t *testing.T) {
	e := testEngine(Options{})

	for _, topic := range []string{"", "   "} {
		plan, err := e.PlanTopic(context.Background(), topic, "")
		assert.ErrorIs(t, err, ErrEmptyTopic)
		assert.Nil(t, plan)
	}
}

// Without a generator the planner decomposes from templates and the
// plan still comes out whole
func TestPlanTopic_TemplateDecomposition(t *testing.T) {
	e := testEngine(Options{})

	plan, err := e.PlanTopic(context.Background(), "graph theory", "")
	require.NoError(t, err)
	require.NotNil(t, plan)

	assert.Equal(t, "graph theory", plan.Topic)
	assert.Equal(t, planner.DifficultyBeginner, plan.Difficulty)
	assert.Contains(t, plan.Subtopics, "Introduction to graph theory")
	assert.Len(t, plan.Sequence, len(plan.Subtopics))

	require.NotNil(t, plan.Curriculum)
	assert.Equal(t, "graph theory", plan.Curriculum.Topic)
	assert.NotEmpty(t, plan.Curriculum.Modules)
	assert.Positive(t, plan.Curriculum.TotalMinutes)
}

func TestPlanTopic_RecordsChain(t *testing.T) {
	e := testEngine(Options{})

	plan, err := e.PlanTopic(context.Background(), "graph theory", planner.DifficultyIntermediate)
	require.NoError(t, err)

	chain := e.Context().Chains.Get(plan.ChainID)
	require.NotNil(t, chain)
	assert.Equal(t, "Create a study plan for graph theory", chain.Query)
	assert.True(t, chain.Completed())

	wantSteps := []reasoning.StepType{
		reasoning.StepStudyPlanning,
		reasoning.StepKnowledgeSynthesis,
		reasoning.StepDecisionMaking,
	}
	require.Len(t, chain.Steps, len(wantSteps))
	for i, step := range chain.Steps {
		assert.Equal(t, wantSteps[i], step.Type)
	}
	assert.Equal(t, "Breaking down topic: graph theory", chain.Steps[0].Description)
}

func TestPlanTopic_RecordsConcepts(t *testing.T) {
	e := testEngine(Options{})

	plan, err := e.PlanTopic(context.Background(), "graph theory", "")
	require.NoError(t, err)

	g := e.Context().Graph

	topicNode := g.Node("graph theory")
	require.NotNil(t, topicNode)
	assert.Equal(t, graph.NodeTopic, topicNode.Type)

	for _, subtopic := range plan.Subtopics {
		node := g.Node(subtopic)
		require.NotNil(t, node, "missing node for %q", subtopic)
		assert.Equal(t, graph.NodeConcept, node.Type)

		edge := g.Edge(subtopic, "graph theory")
		require.NotNil(t, edge, "missing membership edge for %q", subtopic)
		assert.Equal(t, "part_of", edge.Relationship)
	}

	// The template subtopics imply prerequisite structure.
	prereq := g.Edge("Introduction to graph theory", "Advanced graph theory techniques")
	require.NotNil(t, prereq)
	assert.Equal(t, "prerequisite_of", prereq.Relationship)
}

func TestPlanTopic_GeneratorDecomposition(t *testing.T) {
	gen := &fakeGenerator{responses: []string{"Alpha\nBeta\nGamma"}}
	e := testEngine(Options{Generator: gen})

	plan, err := e.PlanTopic(context.Background(), "graph theory", "")
	require.NoError(t, err)

	// One generation for the decomposition; the curriculum assembles
	// deterministically.
	assert.Equal(t, 1, gen.calls)
	assert.ElementsMatch(t, []string{"Alpha", "Beta", "Gamma"}, plan.Subtopics)
}
