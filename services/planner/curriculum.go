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
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Quiz score boundaries for curriculum adaptation.
const (
	strugglingScore = 60
	masteryScore    = 85
)

// Module is one unit of a generated curriculum.
type Module struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Concepts         []string `json:"concepts"`
	Prerequisites    []string `json:"prerequisites"`
	EstimatedMinutes int      `json:"estimatedMinutes"`
	Difficulty       string   `json:"difficulty"`
	Objectives       []string `json:"objectives"`
}

// Curriculum is a structured study program for one topic.
type Curriculum struct {
	Topic              string   `json:"topic"`
	Difficulty         string   `json:"difficulty"`
	TotalMinutes       int      `json:"totalMinutes"`
	Modules            []Module `json:"modules"`
	LearningPath       []string `json:"learningPath"`
	AssessmentStrategy string   `json:"assessmentStrategy"`
}

// moduleTemplate is a fixed curriculum building block.
type moduleTemplate struct {
	kind        string
	title       string
	description string
	minutes     int
	objectives  []string
}

// moduleTemplates holds the four module kinds in teaching order. The
// {topic} placeholder is filled in at generation time.
var moduleTemplates = []moduleTemplate{
	{
		kind:        "introduction",
		title:       "Introduction to {topic}",
		description: "Overview and fundamental concepts",
		minutes:     30,
		objectives:  []string{"Understand basic concepts", "Identify key terminology"},
	},
	{
		kind:        "fundamentals",
		title:       "Fundamental Principles",
		description: "Core principles and theories",
		minutes:     45,
		objectives:  []string{"Learn core principles", "Understand theoretical foundation"},
	},
	{
		kind:        "applications",
		title:       "Practical Applications",
		description: "Real-world applications and examples",
		minutes:     60,
		objectives:  []string{"Apply concepts to real scenarios", "Analyze practical examples"},
	},
	{
		kind:        "advanced",
		title:       "Advanced Topics",
		description: "Complex concepts and cutting-edge developments",
		minutes:     90,
		objectives:  []string{"Master advanced concepts", "Synthesize complex information"},
	},
}

// assessmentStrategies maps difficulty to an assessment plan.
var assessmentStrategies = map[string]string{
	DifficultyBeginner:     "Multiple choice quizzes and basic concept identification exercises",
	DifficultyIntermediate: "Short answer questions, practical applications, and case studies",
	DifficultyAdvanced:     "Complex problem solving, critical analysis, and project-based assessments",
}

// GenerateCurriculum builds a curriculum for topic at the given
// difficulty.
//
// Difficulty selects the module kinds: beginner gets introduction and
// fundamentals, intermediate adds applications, anything else gets all
// four. Concepts are distributed evenly across the modules with the
// remainder going to the last one. Each module lists every earlier
// module as a prerequisite, and the learning path orders modules by
// prerequisite count.
func GenerateCurriculum(topic string, concepts []string, difficulty string) *Curriculum {
	slog.Info("Generating curriculum", "topic", topic, "difficulty", difficulty)

	templates := templatesFor(difficulty)

	perModule := len(concepts) / len(templates)
	if perModule < 1 {
		perModule = 1
	}

	idPrefix := strings.ReplaceAll(strings.ToLower(topic), " ", "_")

	modules := make([]Module, 0, len(templates))
	total := 0
	for i, template := range templates {
		start := i * perModule
		if start > len(concepts) {
			start = len(concepts)
		}
		end := start + perModule
		if end > len(concepts) {
			end = len(concepts)
		}

		moduleConcepts := make([]string, 0, perModule)
		moduleConcepts = append(moduleConcepts, concepts[start:end]...)
		if i == len(templates)-1 {
			moduleConcepts = append(moduleConcepts, concepts[end:]...)
		}

		prerequisites := make([]string, 0, i)
		for _, previous := range modules {
			prerequisites = append(prerequisites, previous.ID)
		}

		module := Module{
			ID:               idPrefix + "_" + template.kind,
			Title:            strings.ReplaceAll(template.title, "{topic}", topic),
			Description:      template.description,
			Concepts:         moduleConcepts,
			Prerequisites:    prerequisites,
			EstimatedMinutes: template.minutes,
			Difficulty:       difficulty,
			Objectives:       append([]string(nil), template.objectives...),
		}
		modules = append(modules, module)
		total += module.EstimatedMinutes
	}

	curriculum := &Curriculum{
		Topic:              topic,
		Difficulty:         difficulty,
		TotalMinutes:       total,
		Modules:            modules,
		LearningPath:       learningPath(modules),
		AssessmentStrategy: assessmentStrategyFor(difficulty),
	}

	slog.Info("Curriculum generated", "topic", topic, "modules", len(modules), "total_minutes", total)
	return curriculum
}

// Adapt rescales module time estimates from quiz performance.
//
// Averages below 60 stretch every estimate by 1.3x; averages above 85
// shrink them to 0.8x. The total is recomputed either way.
func (c *Curriculum) Adapt(averageQuizScore float64) {
	slog.Debug("Adapting curriculum", "topic", c.Topic, "average_quiz_score", averageQuizScore)

	total := 0
	for i := range c.Modules {
		switch {
		case averageQuizScore < strugglingScore:
			c.Modules[i].EstimatedMinutes = int(float64(c.Modules[i].EstimatedMinutes) * 1.3)
		case averageQuizScore > masteryScore:
			c.Modules[i].EstimatedMinutes = int(float64(c.Modules[i].EstimatedMinutes) * 0.8)
		}
		total += c.Modules[i].EstimatedMinutes
	}
	c.TotalMinutes = total
}

// Summary renders a human-readable curriculum overview.
func (c *Curriculum) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Curriculum: %s\n", c.Topic)
	fmt.Fprintf(&b, "Difficulty Level: %s\n", strings.Title(c.Difficulty))
	fmt.Fprintf(&b, "Total Estimated Time: %d minutes\n", c.TotalMinutes)
	fmt.Fprintf(&b, "Number of Modules: %d\n", len(c.Modules))
	b.WriteString("\nLearning Path:\n")
	for i, module := range c.Modules {
		fmt.Fprintf(&b, "  %d. %s (%d min)\n", i+1, module.Title, module.EstimatedMinutes)
	}
	b.WriteString("\nAssessment Strategy: ")
	b.WriteString(c.AssessmentStrategy)
	return b.String()
}

// templatesFor selects module templates by difficulty. Unknown
// difficulties get the full set.
func templatesFor(difficulty string) []moduleTemplate {
	switch difficulty {
	case DifficultyBeginner:
		return moduleTemplates[:2]
	case DifficultyIntermediate:
		return moduleTemplates[:3]
	default:
		return moduleTemplates
	}
}

// learningPath orders module ids by prerequisite count.
func learningPath(modules []Module) []string {
	ordered := make([]Module, len(modules))
	copy(ordered, modules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return len(ordered[i].Prerequisites) < len(ordered[j].Prerequisites)
	})

	path := make([]string, len(ordered))
	for i, module := range ordered {
		path[i] = module.ID
	}
	return path
}

// assessmentStrategyFor picks the assessment plan for a difficulty,
// defaulting to the beginner plan.
func assessmentStrategyFor(difficulty string) string {
	if strategy, ok := assessmentStrategies[difficulty]; ok {
		return strategy
	}
	return assessmentStrategies[DifficultyBeginner]
}
