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
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// fallbackAnswer builds a deterministic answer from the extracted
// information when no generated answer is available. The query type
// picks the template; keyword checks catch queries the analysis step
// itself had to guess at.
func fallbackAnswer(query string, analysis QueryAnalysis, info extractedInfo) string {
	queryLower := strings.ToLower(query)

	switch {
	case analysis.QueryType == QueryTypeDeadline ||
		containsAny(queryLower, "prioritize", "deadline", "due", "urgent"):
		return deadlineFallback(info)
	case analysis.QueryType == QueryTypeMaterial ||
		containsAny(queryLower, "study plan", "plan", "schedule", "organize"):
		return studyPlanFallback(info)
	default:
		return generalFallback(query, info)
	}
}

func deadlineFallback(info extractedInfo) string {
	var b strings.Builder
	b.WriteString("## 📅 **Deadline Prioritization Help**\n\n")

	if len(info.Deadlines) > 0 {
		b.WriteString("### 🚨 **URGENT ITEMS FOUND:**\n")
		for i, item := range info.Deadlines {
			fmt.Fprintf(&b, "**%d. %s**\n", i+1, item.Course)
			fmt.Fprintf(&b, "   %s\n\n", item.Content)
		}
	}

	if len(info.CourseNames) > 0 {
		b.WriteString("### 📚 **ACTIVE COURSES:**\n")
		for _, course := range sortedCourses(info.CourseNames) {
			fmt.Fprintf(&b, "- **%s**\n", course)
		}
		b.WriteString("\n")
	}

	b.WriteString("### 💡 **Quick Prioritization Strategy:**\n")
	b.WriteString("1. **🔥 Immediate**: Handle anything due in next 1-2 days\n")
	b.WriteString("2. **⚡ This Week**: Plan work for items due within 7 days\n")
	b.WriteString("3. **📋 Upcoming**: Schedule time for longer projects\n")
	b.WriteString("4. **👀 Monitor**: Check for new announcements daily\n\n")
	b.WriteString("**🎯 Pro Tip**: Create a calendar and work backwards from due dates!")
	return b.String()
}

func studyPlanFallback(info extractedInfo) string {
	var b strings.Builder
	b.WriteString("## 📚 **Your Personalized Study Plan**\n\n")

	if len(info.Deadlines) > 0 {
		b.WriteString("### 🎯 **PRIORITY TASKS:**\n")
		for _, item := range info.Deadlines {
			fmt.Fprintf(&b, "- **%s**: %s...\n", item.Course, truncate(item.Content, 100))
		}
		b.WriteString("\n")
	}

	if len(info.CourseNames) > 0 {
		b.WriteString("### 📖 **STUDY SCHEDULE BY COURSE:**\n")
		for _, course := range sortedCourses(info.CourseNames) {
			fmt.Fprintf(&b, "**%s**\n", course)
			b.WriteString("- Review recent materials\n")
			b.WriteString("- Complete pending assignments\n")
			b.WriteString("- Prepare for upcoming deadlines\n\n")
		}
	}

	b.WriteString("### 📅 **WEEKLY PLAN TEMPLATE:**\n")
	b.WriteString("**Monday-Wednesday**: Focus on current assignments\n")
	b.WriteString("**Thursday-Friday**: Review and prepare for next week\n")
	b.WriteString("**Weekend**: Catch up and long-term project work\n\n")
	b.WriteString("### 🎯 **SUCCESS TIPS:**\n")
	b.WriteString("- Break large tasks into smaller chunks\n")
	b.WriteString("- Set specific time blocks for each subject\n")
	b.WriteString("- Review material regularly, not just before deadlines\n")
	b.WriteString("- Keep track of progress and adjust as needed\n\n")
	b.WriteString("**You've got this! Stay organized and take it one step at a time! 🌟**")
	return b.String()
}

func generalFallback(query string, info extractedInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## 🎓 **Help with: %s**\n\n", query)

	if len(info.Documents) > 0 {
		b.WriteString("### 📚 **Relevant Information Found:**\n")
		docs := info.Documents
		if len(docs) > 3 {
			docs = docs[:3]
		}
		for i, doc := range docs {
			label := titleCase(strings.ReplaceAll(doc.Type, "courseWork", "Assignment"))
			fmt.Fprintf(&b, "**%d. %s** (%s)\n", i+1, doc.Course, label)
			fmt.Fprintf(&b, "   %s...\n\n", truncate(doc.Content, 150))
		}
	}

	if len(info.CourseNames) > 0 {
		b.WriteString("### 📖 **From Your Courses:**\n")
		for _, course := range sortedCourses(info.CourseNames) {
			fmt.Fprintf(&b, "- **%s**\n", course)
		}
		b.WriteString("\n")
	}

	b.WriteString("### 💡 **Next Steps:**\n")
	b.WriteString("- Check your Google Classroom for complete details\n")
	b.WriteString("- Review the specific course materials mentioned above\n")
	b.WriteString("- Contact your instructor if you need clarification\n")
	b.WriteString("- Break down complex tasks into manageable steps\n\n")
	b.WriteString("**📧 Remember**: Your instructors are there to help - don't hesitate to reach out!")
	return b.String()
}

func sortedCourses(courses []string) []string {
	out := make([]string, len(courses))
	copy(out, courses)
	sort.Strings(out)
	return out
}

// titleCase uppercases the first letter of every word and lowercases
// the rest.
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		switch {
		case !unicode.IsLetter(r):
			b.WriteRune(r)
			prevLetter = false
		case prevLetter:
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(unicode.ToUpper(r))
			prevLetter = true
		}
	}
	return b.String()
}
