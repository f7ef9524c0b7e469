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
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/reasongraph/services/graph"
	"github.com/AleutianAI/reasongraph/services/planner"
	"github.com/AleutianAI/reasongraph/services/reasoning"
)

// StudyPlan is a complete plan for learning one topic.
type StudyPlan struct {
	Topic      string                 `json:"topic"`
	Difficulty string                 `json:"difficulty"`
	Subtopics  []string               `json:"subtopics"`
	Sequence   []planner.SequenceItem `json:"sequence"`
	Curriculum *planner.Curriculum    `json:"curriculum"`
	ChainID    string                 `json:"chainId"`
}

// PlanTopic builds a study plan for a topic and records the planning
// as a reasoning chain.
//
// The topic is decomposed into subtopics and prioritized, the
// prerequisite structure becomes a study sequence and lands on the
// concept graph, and the prioritized subtopics fill a curriculum.
// Decomposition degrades to a template breakdown without a generative
// collaborator, so planning never fails past the empty-topic check.
// An empty difficulty plans for beginners.
func (e *Engine) PlanTopic(ctx context.Context, topic, difficulty string) (*StudyPlan, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, ErrEmptyTopic
	}
	if difficulty == "" {
		difficulty = planner.DifficultyBeginner
	}

	ctx, span := tracer.Start(ctx, "engine.plan_topic")
	defer span.End()
	span.SetAttributes(
		attribute.String("topic", topic),
		attribute.String("difficulty", difficulty),
	)

	chain := e.ec.Chains.CreateChain(fmt.Sprintf("Create a study plan for %s", topic))
	decomposer := planner.NewDecomposer(e.ec.Generator)

	var subtopics []string
	e.step(ctx, chain, reasoning.StepStudyPlanning,
		fmt.Sprintf("Breaking down topic: %s", topic),
		reasoning.Payload{
			"topic":      reasoning.String(topic),
			"difficulty": reasoning.String(difficulty),
		},
		func(ctx context.Context) reasoning.Payload {
			subtopics = planner.Prioritize(decomposer.Decompose(ctx, topic), difficulty)
			return reasoning.Payload{"subtopics": reasoning.StringList(subtopics)}
		})

	var sequence []planner.SequenceItem
	e.step(ctx, chain, reasoning.StepKnowledgeSynthesis,
		"Sequencing subtopics by prerequisite structure",
		reasoning.Payload{"subtopics": reasoning.Int(int64(len(subtopics)))},
		func(ctx context.Context) reasoning.Payload {
			depGraph := planner.BuildDependencyGraph(subtopics)
			sequence = planner.Sequence(depGraph, subtopics)
			e.recordConcepts(topic, subtopics, depGraph)
			return reasoning.Payload{
				"levels":        reasoning.Int(int64(levelCount(sequence))),
				"prerequisites": reasoning.Int(int64(len(depGraph.Edges))),
			}
		})

	var curriculum *planner.Curriculum
	e.step(ctx, chain, reasoning.StepDecisionMaking,
		"Generating curriculum modules",
		reasoning.Payload{"concepts": reasoning.Int(int64(len(subtopics)))},
		func(ctx context.Context) reasoning.Payload {
			curriculum = planner.GenerateCurriculum(topic, subtopics, difficulty)
			return reasoning.Payload{
				"modules":      reasoning.Int(int64(len(curriculum.Modules))),
				"totalMinutes": reasoning.Int(int64(curriculum.TotalMinutes)),
			}
		})

	chain.Complete()
	e.ec.Logger.Info("Study plan generated",
		"topic", topic,
		"subtopics", len(subtopics),
		"chain_id", chain.ChainID)

	return &StudyPlan{
		Topic:      topic,
		Difficulty: difficulty,
		Subtopics:  subtopics,
		Sequence:   sequence,
		Curriculum: curriculum,
		ChainID:    chain.ChainID,
	}, nil
}

// recordConcepts lands the plan's structure on the concept graph: the
// topic, its subtopics, and the prerequisite edges between them.
func (e *Engine) recordConcepts(topic string, subtopics []string, depGraph *planner.DependencyGraph) {
	e.ec.Graph.AddNode(topic, topic, graph.NodeTopic, nil)
	for _, subtopic := range subtopics {
		e.ec.Graph.AddNode(subtopic, subtopic, graph.NodeConcept, nil)
		e.ec.Graph.AddEdge(subtopic, topic, "part_of", 1.0, nil)
	}
	for _, edge := range depGraph.Edges {
		e.ec.Graph.AddEdge(edge[0], edge[1], "prerequisite_of", 1.0, nil)
	}
}

func levelCount(sequence []planner.SequenceItem) int {
	maxLevel := -1
	for _, item := range sequence {
		if item.Level > maxLevel {
			maxLevel = item.Level
		}
	}
	return maxLevel + 1
}
