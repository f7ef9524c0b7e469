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
	"regexp"
	"strings"

	"github.com/AleutianAI/reasongraph/services/llm"
)

// Query types assigned during query analysis.
const (
	QueryTypeDeadline     = "deadline"
	QueryTypeMaterial     = "material"
	QueryTypeAssignment   = "assignment"
	QueryTypeAnnouncement = "announcement"
	QueryTypeGeneral      = "general_question"
)

// QueryAnalysis is the structured reading of one query. The JSON tags
// mirror the field names the generative collaborator is prompted to
// return.
type QueryAnalysis struct {
	TargetCourse string   `json:"target_course"`
	QueryType    string   `json:"query_type"`
	Intent       string   `json:"intent"`
	KeyTopics    []string `json:"key_topics"`
	Urgency      string   `json:"urgency"`
	RefinedQuery string   `json:"refined_query"`
}

const analysisPromptFormat = `Respond with valid JSON only. Analyze this query: "%s"

Available courses: %s

Return JSON:
{"target_course": null, "query_type": "general_question", "intent": "understand", "key_topics": ["general"], "urgency": "medium", "refined_query": "%s"}

Adjust the values based on the query content. Return only JSON, no other text.`

// analyzeQuery reads intent, urgency, and the target course out of a
// query. The generative collaborator answers with JSON; any failure
// there, including a missing collaborator, drops to keyword analysis.
func (e *Engine) analyzeQuery(ctx context.Context, query string, courses []string) QueryAnalysis {
	if e.ec.Generator == nil {
		e.ec.Metrics.Fallback("generator")
		return fallbackAnalysis(query, courses)
	}

	prompt := fmt.Sprintf(analysisPromptFormat, query, strings.Join(courses, ", "), query)
	response, err := e.ec.Generator.Generate(ctx, prompt, llm.GenerationParams{})
	if err != nil {
		e.ec.Logger.Warn("Query analysis failed", "error", err)
		e.ec.Metrics.Fallback("generator")
		return fallbackAnalysis(query, courses)
	}

	var analysis QueryAnalysis
	if err := json.Unmarshal([]byte(stripFences(response)), &analysis); err != nil {
		e.ec.Logger.Warn("Query analysis returned malformed JSON", "error", err)
		e.ec.Metrics.Fallback("generator")
		return fallbackAnalysis(query, courses)
	}

	if analysis.QueryType == "" {
		analysis.QueryType = QueryTypeGeneral
	}
	if analysis.Intent == "" {
		analysis.Intent = "understand"
	}
	if analysis.Urgency == "" {
		analysis.Urgency = "medium"
	}
	if analysis.RefinedQuery == "" {
		analysis.RefinedQuery = query
	}
	return analysis
}

// stripFences removes the markdown code fences some models wrap JSON
// in. A ```json fence loses the marker and the trailing fence; a bare
// ``` fence loses its first and last lines.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "```json"):
		s = s[len("```json"):]
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		return strings.TrimSpace(s)
	case strings.HasPrefix(s, "```"):
		lines := strings.Split(s, "\n")
		if len(lines) > 2 {
			s = strings.Join(lines[1:len(lines)-1], "\n")
		}
		return strings.TrimSpace(s)
	default:
		return s
	}
}

// fallbackAnalysis classifies a query by keywords alone. Deadline
// wording outranks planning wording, which outranks assignment and
// announcement wording. The first course whose name appears in the
// query becomes the target.
func fallbackAnalysis(query string, courses []string) QueryAnalysis {
	queryLower := strings.ToLower(query)

	queryType := QueryTypeGeneral
	urgency := "medium"
	switch {
	case containsAny(queryLower, "deadline", "due", "urgent", "prioritize"):
		queryType = QueryTypeDeadline
		urgency = "high"
	case containsAny(queryLower, "study plan", "plan", "schedule", "organize"):
		queryType = QueryTypeMaterial
	case containsAny(queryLower, "assignment", "homework", "submit"):
		queryType = QueryTypeAssignment
	case containsAny(queryLower, "announcement", "notice", "update"):
		queryType = QueryTypeAnnouncement
	}

	targetCourse := ""
	for _, course := range courses {
		if course != "" && strings.Contains(queryLower, strings.ToLower(course)) {
			targetCourse = course
			break
		}
	}

	topics := strings.Fields(query)
	if len(topics) > 3 {
		topics = topics[:3]
	}

	return QueryAnalysis{
		TargetCourse: targetCourse,
		QueryType:    queryType,
		Intent:       "understand",
		KeyTopics:    topics,
		Urgency:      urgency,
		RefinedQuery: query,
	}
}

func containsAny(s string, words ...string) bool {
	for _, word := range words {
		if strings.Contains(s, word) {
			return true
		}
	}
	return false
}

// QuestionAnalysis is the structural reading of a standalone question,
// independent of any course content.
type QuestionAnalysis struct {
	Type             string   `json:"questionType"`
	KeyConcepts      []string `json:"keyConcepts"`
	DifficultyLevel  string   `json:"difficultyLevel"`
	KnowledgeDomains []string `json:"knowledgeDomains"`
	Confidence       float64  `json:"confidence"`
}

var conceptPattern = regexp.MustCompile(`\b[a-zA-Z]{3,}\b`)

var conceptStopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"but": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "of": true, "with": true, "by": true, "is": true,
	"are": true, "was": true, "were": true, "be": true, "been": true,
	"being": true, "have": true, "has": true, "had": true, "do": true,
	"does": true, "did": true, "will": true, "would": true,
	"could": true, "should": true, "may": true, "might": true,
	"can": true, "what": true, "how": true, "why": true,
	"when": true, "where": true,
}

var complexityIndicators = []string{
	"analyze", "synthesize", "evaluate", "compare", "contrast",
	"implications", "consequences", "relationships", "framework",
}

var technicalIndicators = []string{
	"algorithm", "implementation", "optimization", "architecture",
	"quantum", "neural", "molecular", "theoretical",
}

// knowledgeDomains maps domain names to the concept keywords that
// signal them. Order fixes the order of the reported domains.
var knowledgeDomains = []struct {
	name     string
	keywords []string
}{
	{"computer_science", []string{"algorithm", "programming", "software", "computer", "code"}},
	{"mathematics", []string{"equation", "theorem", "proof", "calculation", "formula"}},
	{"physics", []string{"quantum", "energy", "force", "motion", "particle"}},
	{"biology", []string{"cell", "organism", "dna", "evolution", "genetics"}},
	{"chemistry", []string{"molecule", "reaction", "element", "compound", "bond"}},
	{"history", []string{"war", "empire", "civilization", "ancient", "medieval"}},
	{"literature", []string{"novel", "poetry", "author", "narrative", "character"}},
}

// AnalyzeQuestion classifies a question by its opening word, extracts
// its key concepts, and estimates difficulty and knowledge domains.
// Purely deterministic; no collaborator is consulted.
func (e *Engine) AnalyzeQuestion(question string) QuestionAnalysis {
	questionLower := strings.ToLower(strings.TrimSpace(question))

	questionType := "complex"
	switch {
	case hasAnyPrefix(questionLower, "what", "who", "where", "when"):
		questionType = "factual"
	case strings.HasPrefix(questionLower, "how"):
		questionType = "procedural"
	case strings.HasPrefix(questionLower, "why"):
		questionType = "explanatory"
	case hasAnyPrefix(questionLower, "is", "are", "can", "do", "does"):
		questionType = "yes_no"
	}

	concepts := extractKeyConcepts(question)

	return QuestionAnalysis{
		Type:             questionType,
		KeyConcepts:      concepts,
		DifficultyLevel:  estimateDifficulty(question, concepts),
		KnowledgeDomains: identifyDomains(concepts),
		Confidence:       0.8,
	}
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

// extractKeyConcepts pulls the distinct non-stop words of three or
// more letters, first occurrence order, capped at ten.
func extractKeyConcepts(text string) []string {
	words := conceptPattern.FindAllString(strings.ToLower(text), -1)

	seen := make(map[string]bool, len(words))
	concepts := make([]string, 0, len(words))
	for _, word := range words {
		if conceptStopWords[word] || seen[word] {
			continue
		}
		seen[word] = true
		concepts = append(concepts, word)
		if len(concepts) == 10 {
			break
		}
	}
	return concepts
}

func estimateDifficulty(question string, concepts []string) string {
	questionLower := strings.ToLower(question)
	switch {
	case containsAny(questionLower, complexityIndicators...):
		return "advanced"
	case containsAny(questionLower, technicalIndicators...):
		return "intermediate"
	case len(concepts) > 5:
		return "intermediate"
	default:
		return "beginner"
	}
}

func identifyDomains(concepts []string) []string {
	joined := strings.Join(concepts, " ")

	var domains []string
	for _, domain := range knowledgeDomains {
		if containsAny(joined, domain.keywords...) {
			domains = append(domains, domain.name)
		}
	}
	if len(domains) == 0 {
		return []string{"general"}
	}
	return domains
}
