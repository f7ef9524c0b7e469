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
	"log/slog"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/reasongraph/services/reasoning"
	"github.com/AleutianAI/reasongraph/services/search"
	"github.com/AleutianAI/reasongraph/services/telemetry"
)

// QueryOptions adjusts how one query is processed.
type QueryOptions struct {
	// Courses lists the course names available to the analysis and
	// search steps.
	Courses []string

	// ShowReasoning includes a text visualization of the reasoning
	// chain in the result.
	ShowReasoning bool
}

// QueryResult is the outcome of one processed query.
type QueryResult struct {
	Answer        string `json:"answer"`
	ChainID       string `json:"chainId"`
	Visualization string `json:"visualization,omitempty"`
	Steps         int    `json:"steps"`
	Cached        bool   `json:"cached"`
}

// ProcessQuery runs the six-step reasoning pipeline on a query.
//
// # Description
//
//	Each step is recorded on a fresh chain: query analysis, knowledge
//	search, relevance ranking, information extraction, answer
//	formulation, and self-reflection. Collaborator failures inside a
//	step degrade to deterministic fallbacks, so a created chain always
//	runs all six steps and completes. The chain stays available
//	through the manager under the returned ChainID.
//
// # Inputs
//
//	ctx - Bounds collaborator calls. Cancellation fails the current
//	      collaborator call and the step falls back; it does not abort
//	      the pipeline.
//	query - The question to answer. Must be non-blank.
//	opts - Available courses and output options.
//
// # Outputs
//
//	*QueryResult - Answer plus chain metadata.
//	error - ErrEmptyQuery for a blank query, nil otherwise.
func (e *Engine) ProcessQuery(ctx context.Context, query string, opts QueryOptions) (*QueryResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	ctx, span := tracer.Start(ctx, "engine.process_query")
	defer span.End()

	chain := e.ec.Chains.CreateChain(query)
	span.SetAttributes(attribute.String("chain_id", chain.ChainID))
	logger := telemetry.LoggerWithChain(ctx, e.ec.Logger, chain.ChainID)
	logger.Info("Processing query", "query", truncate(query, 80))

	// Step 1: read intent, urgency, and target course.
	var analysis QueryAnalysis
	e.step(ctx, chain, reasoning.StepQueryAnalysis,
		fmt.Sprintf("Analyzing query: %s", query),
		reasoning.Payload{
			"query":            reasoning.String(query),
			"availableCourses": reasoning.StringList(opts.Courses),
		},
		func(ctx context.Context) reasoning.Payload {
			analysis = e.analyzeQuery(ctx, query, opts.Courses)
			return analysisPayload(analysis)
		})

	// Step 2: pull candidate content, filtered to the target course
	// when one was identified.
	var results []search.SearchResult
	e.step(ctx, chain, reasoning.StepKnowledgeSearch,
		"Searching knowledge base for relevant content",
		reasoning.Payload{
			"query":        reasoning.String(analysis.RefinedQuery),
			"courseFilter": reasoning.String(analysis.TargetCourse),
		},
		func(ctx context.Context) reasoning.Payload {
			results = e.searchKnowledge(ctx, logger, analysis)
			return reasoning.Payload{
				"count":        reasoning.Int(int64(len(results))),
				"courseFilter": reasoning.String(analysis.TargetCourse),
			}
		})

	// Step 3: keep the five closest matches.
	var ranked []search.SearchResult
	e.step(ctx, chain, reasoning.StepRelevanceRanking,
		"Ranking and filtering search results",
		reasoning.Payload{"candidates": reasoning.Int(int64(len(results)))},
		func(ctx context.Context) reasoning.Payload {
			ranked = rankResults(results)
			return reasoning.Payload{"count": reasoning.Int(int64(len(ranked)))}
		})

	// Step 4: collect courses, deadlines, and assignments from the
	// ranked documents.
	var info extractedInfo
	e.step(ctx, chain, reasoning.StepInformationExtraction,
		"Extracting key information from classroom content",
		reasoning.Payload{"documents": reasoning.Int(int64(len(ranked)))},
		func(ctx context.Context) reasoning.Payload {
			info = extractInformation(ranked)
			return reasoning.Payload{
				"documents":   reasoning.Int(int64(len(info.Documents))),
				"courses":     reasoning.StringList(info.CourseNames),
				"deadlines":   reasoning.Int(int64(len(info.Deadlines))),
				"assignments": reasoning.Int(int64(len(info.Assignments))),
			}
		})

	// Step 5: generate the answer, or fall back to a template built
	// from the extracted information.
	var answer string
	e.step(ctx, chain, reasoning.StepAnswerFormulation,
		"Formulating detailed answer based on classroom content",
		reasoning.Payload{
			"queryType": reasoning.String(analysis.QueryType),
			"documents": reasoning.Int(int64(len(ranked))),
		},
		func(ctx context.Context) reasoning.Payload {
			answer = e.formulateAnswer(ctx, query, ranked, analysis, info)
			return reasoning.Payload{"answer": reasoning.String(answer)}
		})

	// Step 6: score the answer against the analysis.
	e.step(ctx, chain, reasoning.StepSelfReflection,
		"Reflecting on answer quality and completeness",
		reasoning.Payload{"answerLength": reasoning.Int(int64(len(answer)))},
		func(ctx context.Context) reasoning.Payload {
			scores := reflectOnAnswer(answer, analysis)
			return reasoning.Payload{
				"completeness":     reasoning.Float(scores.Completeness),
				"relevance":        reasoning.Float(scores.Relevance),
				"specificity":      reasoning.Float(scores.Specificity),
				"improvementAreas": reasoning.StringList(scores.ImprovementAreas),
			}
		})

	chain.Complete()

	result := &QueryResult{
		Answer:  answer,
		ChainID: chain.ChainID,
		Steps:   chain.StepCount(),
	}
	if opts.ShowReasoning {
		if viz, err := reasoning.Visualize(chain, reasoning.FormatText); err == nil {
			result.Visualization = viz
		}
	}

	e.ec.Metrics.QueryProcessed("success")
	span.SetAttributes(attribute.Int("steps", result.Steps))
	logger.Info("Query processed", "steps", result.Steps)
	return result, nil
}

// ProcessQueryCached answers through the query cache.
//
// The fingerprint covers the query and the course list. Concurrent
// identical queries collapse into one pipeline run; a hit skips the
// pipeline entirely and the result carries Cached=true. Without a
// cache collaborator every call computes.
func (e *Engine) ProcessQueryCached(ctx context.Context, query string, opts QueryOptions) (*QueryResult, error) {
	if e.ec.Cache == nil {
		return e.ProcessQuery(ctx, query, opts)
	}

	raw, cached, err := e.ec.Cache.GetOrCompute(ctx, query, opts.Courses, func(ctx context.Context) (json.RawMessage, error) {
		result, err := e.ProcessQuery(ctx, query, opts)
		if err != nil {
			return nil, err
		}
		return json.Marshal(result)
	})
	if err != nil {
		return nil, err
	}

	var result QueryResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decoding cached query result: %w", err)
	}
	result.Cached = cached
	if cached {
		e.ec.Metrics.CacheHit()
	} else {
		e.ec.Metrics.CacheMiss()
	}
	return &result, nil
}

// step records one pipeline step and its duration. Step operations
// degrade internally instead of erroring, so recording never fails.
func (e *Engine) step(ctx context.Context, chain *reasoning.Chain, stepType reasoning.StepType, description string, inputs reasoning.Payload, op func(ctx context.Context) reasoning.Payload) {
	start := time.Now()
	_, _ = reasoning.RecordStep(ctx, chain, stepType, description, inputs, func(ctx context.Context) (reasoning.Payload, error) {
		return op(ctx), nil
	})
	e.ec.Metrics.StepRecorded(string(stepType), time.Since(start).Seconds())
}

func analysisPayload(analysis QueryAnalysis) reasoning.Payload {
	return reasoning.Payload{
		"targetCourse": reasoning.String(analysis.TargetCourse),
		"queryType":    reasoning.String(analysis.QueryType),
		"intent":       reasoning.String(analysis.Intent),
		"keyTopics":    reasoning.StringList(analysis.KeyTopics),
		"urgency":      reasoning.String(analysis.Urgency),
		"refinedQuery": reasoning.String(analysis.RefinedQuery),
	}
}

// searchKnowledge queries the search collaborator. Absence or failure
// yields an empty result set, never an error.
func (e *Engine) searchKnowledge(ctx context.Context, logger *slog.Logger, analysis QueryAnalysis) []search.SearchResult {
	if e.ec.Searcher == nil {
		e.ec.Metrics.Fallback("searcher")
		return nil
	}

	var filter *search.SearchFilter
	if analysis.TargetCourse != "" {
		filter = &search.SearchFilter{Course: analysis.TargetCourse}
	}

	results, err := e.ec.Searcher.Search(ctx, analysis.RefinedQuery, filter)
	if err != nil {
		logger.Warn("Knowledge search failed, continuing without results", "error", err)
		e.ec.Metrics.Fallback("searcher")
		return nil
	}
	return results
}

// rankResults keeps the first five results and orders them by
// distance, closest first.
func rankResults(results []search.SearchResult) []search.SearchResult {
	if len(results) == 0 {
		return nil
	}

	top := results
	if len(top) > 5 {
		top = top[:5]
	}

	ranked := make([]search.SearchResult, len(top))
	copy(ranked, top)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Distance < ranked[j].Distance
	})
	return ranked
}

// docInfo is one ranked document prepared for answer formulation.
type docInfo struct {
	Course  string
	Type    string
	Content string
}

// noteItem is a deadline or assignment excerpt tied to a course.
type noteItem struct {
	Course  string
	Content string
}

// extractedInfo gathers what the ranked documents say.
type extractedInfo struct {
	Documents   []docInfo
	CourseNames []string
	Deadlines   []noteItem
	Assignments []noteItem
}

// extractInformation collects course names, deadline excerpts, and
// assignment excerpts from the ranked documents. Courses keep first
// occurrence order; document content is capped at 500 characters and
// excerpts at 200.
func extractInformation(ranked []search.SearchResult) extractedInfo {
	var info extractedInfo
	seenCourses := make(map[string]bool)

	for _, result := range ranked {
		content := result.Document
		courseName := result.Metadata["course"]
		if courseName == "" {
			courseName = "Unknown"
		}
		contentType := result.Metadata["contentType"]
		if contentType == "" {
			contentType = "unknown"
		}

		info.Documents = append(info.Documents, docInfo{
			Course:  courseName,
			Type:    contentType,
			Content: truncate(content, 500),
		})

		if !seenCourses[courseName] {
			seenCourses[courseName] = true
			info.CourseNames = append(info.CourseNames, courseName)
		}

		contentLower := strings.ToLower(content)
		if strings.Contains(contentLower, "due") || strings.Contains(contentLower, "deadline") {
			info.Deadlines = append(info.Deadlines, noteItem{
				Course:  courseName,
				Content: truncate(content, 200),
			})
		}
		if strings.Contains(contentLower, "assignment") || strings.Contains(contentLower, "homework") {
			info.Assignments = append(info.Assignments, noteItem{
				Course:  courseName,
				Content: truncate(content, 200),
			})
		}
	}
	return info
}

// reflection scores one answer.
type reflection struct {
	Completeness     float64
	Relevance        float64
	Specificity      float64
	ImprovementAreas []string
}

// reflectOnAnswer scores the answer against the query analysis.
// Mentioning the intent raises relevance, naming the target course
// raises it further, and an answer over a hundred words counts as
// specific.
func reflectOnAnswer(answer string, analysis QueryAnalysis) reflection {
	scores := reflection{
		Completeness:     0.8,
		Relevance:        0.8,
		Specificity:      0.7,
		ImprovementAreas: []string{},
	}

	if strings.Contains(strings.ToLower(answer), analysis.Intent) {
		scores.Relevance = 0.9
	}
	if len(strings.Fields(answer)) > 100 {
		scores.Specificity = 0.9
	}
	if analysis.TargetCourse != "" && strings.Contains(answer, analysis.TargetCourse) {
		scores.Relevance = 0.95
	}
	return scores
}

// truncate caps s at max runes.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
