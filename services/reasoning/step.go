// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package reasoning

// StepType classifies what a reasoning step did.
type StepType string

// Step types, serialized verbatim into the chain wire format.
const (
	StepQueryAnalysis         StepType = "query_analysis"
	StepKnowledgeSearch       StepType = "knowledge_search"
	StepRelevanceRanking      StepType = "relevance_ranking"
	StepInformationExtraction StepType = "information_extraction"
	StepFactVerification      StepType = "fact_verification"
	StepContextIntegration    StepType = "context_integration"
	StepHypothesisGeneration  StepType = "hypothesis_generation"
	StepAnswerFormulation     StepType = "answer_formulation"
	StepSelfReflection        StepType = "self_reflection"
	StepWebResearch           StepType = "web_research"
	StepKnowledgeSynthesis    StepType = "knowledge_synthesis"
	StepDecisionMaking        StepType = "decision_making"
	StepExamPreparation       StepType = "exam_preparation"
	StepStudyPlanning         StepType = "study_planning"
)

var knownStepTypes = map[StepType]struct{}{
	StepQueryAnalysis:         {},
	StepKnowledgeSearch:       {},
	StepRelevanceRanking:      {},
	StepInformationExtraction: {},
	StepFactVerification:      {},
	StepContextIntegration:    {},
	StepHypothesisGeneration:  {},
	StepAnswerFormulation:     {},
	StepSelfReflection:        {},
	StepWebResearch:           {},
	StepKnowledgeSynthesis:    {},
	StepDecisionMaking:        {},
	StepExamPreparation:       {},
	StepStudyPlanning:         {},
}

// Known reports whether t is one of the defined step types.
func (t StepType) Known() bool {
	_, ok := knownStepTypes[t]
	return ok
}

// Step is a single entry in a reasoning chain.
//
// A step is appended with its inputs before the operation runs and
// mutated exactly once when the operation finishes: Outputs and
// DurationMs are filled in, everything else is write-once. DurationMs
// is nil for a step whose operation never finished. Confidence is 0
// unless a caller sets one explicitly.
type Step struct {
	StepID      string   `json:"stepId"`
	Type        StepType `json:"stepType"`
	Description string   `json:"description"`
	Inputs      Payload  `json:"inputs"`
	Outputs     Payload  `json:"outputs"`
	Timestamp   string   `json:"timestamp"`
	Confidence  float64  `json:"confidence"`
	DurationMs  *int64   `json:"durationMs"`
}
