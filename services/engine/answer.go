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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/AleutianAI/reasongraph/services/llm"
	"github.com/AleutianAI/reasongraph/services/search"
)

const studyPlanPromptFormat = `You are an AI study planner helping a student create a structured study plan based on their Google Classroom content.

Student Request: "%s"
Query Analysis: %s

Relevant Classroom Content:
%s

Create a well-formatted study plan using markdown formatting:

## Priority Tasks & Deadlines:
**HIGH PRIORITY** (Immediate Action Required):
- List urgent assignments and deadlines

**MEDIUM PRIORITY**:
- List upcoming but not immediate tasks

**LOW PRIORITY** (But Important):
- List longer-term goals and preparations

## Weekly Study Schedule (Adjust to your needs):
Provide a day-by-day breakdown with time estimates

## Study Strategies:
- Recommend specific approaches for different subjects
- Include review techniques and preparation methods

## Tips for Success:
- Practical advice for staying organized
- Motivational encouragement

Use markdown formatting (##, **, *, bullet points) for clean structure.
Be specific about dates, course names, and requirements.
Keep it realistic and actionable.`

const teachingPromptFormat = `You are an AI teaching assistant helping a student with their Google Classroom content.

Student Query: "%s"
Query Analysis: %s

Relevant Classroom Content:
%s

Please provide a helpful, accurate answer that:
1. Directly addresses the student's question
2. References specific classroom content when relevant
3. Is educational and encouraging
4. Includes specific details from the course materials
5. Suggests next steps if appropriate
6. Is 150-300 words

If the query is about deadlines or assignments, be specific about dates and requirements.
If asking for help understanding concepts, explain clearly with examples from the course content.
Always be supportive and educational in tone.`

// formulateAnswer asks the generative collaborator for an answer
// grounded in the ranked documents. A missing collaborator or a quota
// failure drops to the template fallback for the query type; any
// other generation failure returns a short notice carrying the start
// of the retrieved context.
func (e *Engine) formulateAnswer(ctx context.Context, query string, ranked []search.SearchResult, analysis QueryAnalysis, info extractedInfo) string {
	if e.ec.Generator == nil {
		e.ec.Metrics.Fallback("generator")
		return fallbackAnswer(query, analysis, info)
	}

	contentContext := buildAnswerContext(ranked)
	response, err := e.ec.Generator.Generate(ctx, answerPrompt(query, analysis, contentContext), llm.GenerationParams{})
	if err != nil {
		e.ec.Logger.Warn("Answer generation failed", "error", err)
		e.ec.Metrics.Fallback("generator")
		if isQuotaError(err) {
			return fallbackAnswer(query, analysis, info)
		}
		return fmt.Sprintf("I found some relevant information in your classroom content, but I'm having trouble processing it right now. Here's what I found: %s...", truncate(contentContext, 200))
	}
	return strings.TrimSpace(response)
}

// buildAnswerContext renders the ranked documents as numbered context
// blocks for the answer prompt.
func buildAnswerContext(ranked []search.SearchResult) string {
	var b strings.Builder
	for i, result := range ranked {
		courseName := result.Metadata["course"]
		if courseName == "" {
			courseName = "Unknown"
		}
		contentType := result.Metadata["contentType"]
		if contentType == "" {
			contentType = "unknown"
		}
		fmt.Fprintf(&b, "\nContext %d (Course: %s, Type: %s):\n%s\n", i+1, courseName, contentType, result.Document)
	}
	return b.String()
}

// answerPrompt picks the study-planner prompt for planning queries
// and the teaching-assistant prompt otherwise.
func answerPrompt(query string, analysis QueryAnalysis, contentContext string) string {
	analysisJSON, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		analysisJSON = []byte("{}")
	}

	if isStudyPlanQuery(query) {
		return fmt.Sprintf(studyPlanPromptFormat, query, analysisJSON, contentContext)
	}
	return fmt.Sprintf(teachingPromptFormat, query, analysisJSON, contentContext)
}

func isStudyPlanQuery(query string) bool {
	return containsAny(strings.ToLower(query), "study plan", "plan", "schedule", "organize")
}

// isQuotaError reports whether the generation failure looks like a
// rate or quota limit, in which case the richer template fallback is
// worth building.
func isQuotaError(err error) bool {
	message := err.Error()
	return strings.Contains(message, "429") || strings.Contains(strings.ToLower(message), "quota")
}
