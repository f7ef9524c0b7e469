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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackAnswer_Routing(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		analysis   QueryAnalysis
		wantHeader string
	}{
		{
			name:       "deadline query type",
			query:      "help me out",
			analysis:   QueryAnalysis{QueryType: QueryTypeDeadline},
			wantHeader: "Deadline Prioritization Help",
		},
		{
			name:       "deadline wording without the type",
			query:      "what is due soon",
			analysis:   QueryAnalysis{QueryType: QueryTypeGeneral},
			wantHeader: "Deadline Prioritization Help",
		},
		{
			name:       "material query type",
			query:      "help me out",
			analysis:   QueryAnalysis{QueryType: QueryTypeMaterial},
			wantHeader: "Your Personalized Study Plan",
		},
		{
			name:       "planning wording without the type",
			query:      "organize my week",
			analysis:   QueryAnalysis{QueryType: QueryTypeGeneral},
			wantHeader: "Your Personalized Study Plan",
		},
		{
			name:       "everything else",
			query:      "explain mitosis",
			analysis:   QueryAnalysis{QueryType: QueryTypeGeneral},
			wantHeader: "Help with: explain mitosis",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answer := fallbackAnswer(tt.query, tt.analysis, extractedInfo{})
			assert.Contains(t, answer, tt.wantHeader)
		})
	}
}

func TestDeadlineFallback(t *testing.T) {
	info := extractedInfo{
		CourseNames: []string{"Physics", "Algebra"},
		Deadlines: []noteItem{
			{Course: "Physics", Content: "Lab report due Thursday"},
			{Course: "Algebra", Content: "Quiz 4 deadline Monday"},
		},
	}

	answer := deadlineFallback(info)

	assert.Contains(t, answer, "URGENT ITEMS FOUND")
	assert.Contains(t, answer, "**1. Physics**")
	assert.Contains(t, answer, "**2. Algebra**")
	assert.Contains(t, answer, "Lab report due Thursday")

	// Courses list alphabetically regardless of arrival order.
	algebraAt := strings.Index(answer, "- **Algebra**")
	physicsAt := strings.Index(answer, "- **Physics**")
	require.GreaterOrEqual(t, algebraAt, 0)
	require.GreaterOrEqual(t, physicsAt, 0)
	assert.Less(t, algebraAt, physicsAt)

	assert.Contains(t, answer, "Quick Prioritization Strategy")
	assert.Contains(t, answer, "Pro Tip")
}

func TestDeadlineFallback_NoData(t *testing.T) {
	answer := deadlineFallback(extractedInfo{})

	assert.NotContains(t, answer, "URGENT ITEMS FOUND")
	assert.NotContains(t, answer, "ACTIVE COURSES")
	assert.Contains(t, answer, "Quick Prioritization Strategy")
}

func TestStudyPlanFallback(t *testing.T) {
	info := extractedInfo{
		CourseNames: []string{"History"},
		Deadlines: []noteItem{
			{Course: "History", Content: strings.Repeat("x", 150)},
		},
	}

	answer := studyPlanFallback(info)

	assert.Contains(t, answer, "PRIORITY TASKS")
	// Task excerpts cap at 100 characters plus the ellipsis.
	assert.Contains(t, answer, "- **History**: "+strings.Repeat("x", 100)+"...")
	assert.NotContains(t, answer, strings.Repeat("x", 101))

	assert.Contains(t, answer, "STUDY SCHEDULE BY COURSE")
	assert.Contains(t, answer, "Review recent materials")
	assert.Contains(t, answer, "WEEKLY PLAN TEMPLATE")
	assert.Contains(t, answer, "SUCCESS TIPS")
	assert.True(t, strings.HasSuffix(answer, "🌟**"), "keeps the closing encouragement")
}

func TestGeneralFallback(t *testing.T) {
	info := extractedInfo{
		CourseNames: []string{"Chemistry"},
		Documents: []docInfo{
			{Course: "Chemistry", Type: "courseWork", Content: "Balance the equations in chapter 3"},
			{Course: "Chemistry", Type: "announcement", Content: "Lab moved to room 204"},
			{Course: "Chemistry", Type: "material", Content: "Stoichiometry notes"},
			{Course: "Chemistry", Type: "material", Content: "Never shown"},
		},
	}

	answer := generalFallback("what should I do for chemistry", info)

	assert.Contains(t, answer, "## 🎓 **Help with: what should I do for chemistry**")

	// Only the first three documents appear, with friendly type labels.
	assert.Contains(t, answer, "**1. Chemistry** (Assignment)")
	assert.Contains(t, answer, "**2. Chemistry** (Announcement)")
	assert.Contains(t, answer, "**3. Chemistry** (Material)")
	assert.NotContains(t, answer, "**4.")
	assert.NotContains(t, answer, "Never shown")

	assert.Contains(t, answer, "From Your Courses")
	assert.Contains(t, answer, "Next Steps")
	assert.Contains(t, answer, "don't hesitate to reach out!")
}

func TestGeneralFallback_NoDocuments(t *testing.T) {
	answer := generalFallback("anything new?", extractedInfo{})

	assert.NotContains(t, answer, "Relevant Information Found")
	assert.Contains(t, answer, "Next Steps")
}

func TestTitleCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"courseWork", "Coursework"},
		{"lab report", "Lab Report"},
		{"ANNOUNCEMENT", "Announcement"},
		{"already Title", "Already Title"},
		{"x", "X"},
		{"", ""},
		{"mid-term exam", "Mid-Term Exam"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, titleCase(tt.in), "titleCase(%q)", tt.in)
	}
}

func TestSortedCourses(t *testing.T) {
	courses := []string{"Physics", "Algebra", "Chemistry"}

	sorted := sortedCourses(courses)

	assert.Equal(t, []string{"Algebra", "Chemistry", "Physics"}, sorted)
	// The input stays untouched.
	assert.Equal(t, []string{"Physics", "Algebra", "Chemistry"}, courses)
}
