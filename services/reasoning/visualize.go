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

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"
)

// Visualization formats accepted by Visualize.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// maxPreviewChars caps inline input and output previews in the text
// rendering.
const maxPreviewChars = 100

// Visualize renders the chain in the requested format.
//
// Formats are matched case-insensitively. Text is a terminal-friendly
// summary, markdown uses collapsible detail sections, and html is a
// self-contained interactive page safe to write straight to disk. An
// unknown format returns ErrUnsupportedFormat.
func Visualize(chain *Chain, format string) (string, error) {
	if chain == nil {
		return "", ErrNilChain
	}
	snap := chain.snapshot()
	switch strings.ToLower(format) {
	case FormatText:
		return textVisualization(snap), nil
	case FormatMarkdown:
		return markdownVisualization(snap), nil
	case FormatHTML:
		return htmlVisualization(snap), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

func endOrInProgress(end *string) string {
	if end == nil {
		return "In progress"
	}
	return *end
}

func textVisualization(chain *Chain) string {
	lines := []string{
		fmt.Sprintf("🧠 REASONING CHAIN: '%s'", chain.Query),
		fmt.Sprintf("⏱️ %s to %s", chain.StartTime, endOrInProgress(chain.EndTime)),
		strings.Repeat("-", 70),
	}

	for i, step := range chain.Steps {
		lines = append(lines, fmt.Sprintf("STEP %d: %s", i+1, strings.ToUpper(string(step.Type))))
		lines = append(lines, fmt.Sprintf("  🔎 %s", step.Description))

		if step.Confidence > 0 {
			bar := strings.Repeat("▓", int(step.Confidence*10))
			lines = append(lines, fmt.Sprintf("  📊 Confidence: %s (%.2f)", bar, step.Confidence))
		}

		// Inputs inline only when they stay brief.
		if len(step.Inputs) > 0 {
			if preview, err := json.Marshal(step.Inputs); err == nil && len(preview) < maxPreviewChars {
				lines = append(lines, fmt.Sprintf("  ⮕ Input: %s", preview))
			}
		}

		if len(step.Outputs) > 0 {
			lines = append(lines, fmt.Sprintf("  ⮕ Result: %s", formatOutputs(step.Outputs)))
		}

		if step.DurationMs != nil && *step.DurationMs > 0 {
			lines = append(lines, fmt.Sprintf("  ⏱️ Time: %dms", *step.DurationMs))
		}

		lines = append(lines, "")
	}

	lines = append(lines, strings.Repeat("-", 70))
	lines = append(lines, fmt.Sprintf("Total steps: %d", len(chain.Steps)))

	return strings.Join(lines, "\n")
}

// formatOutputs picks the most useful one-line preview: an error
// message wins, then an explicit summary, then compact JSON truncated
// to keep the line readable.
func formatOutputs(outputs Payload) string {
	if len(outputs) == 0 {
		return "No output"
	}
	if v, ok := outputs["error"]; ok {
		return "Error: " + v.text()
	}
	if v, ok := outputs["summary"]; ok {
		return v.text()
	}
	data, err := json.Marshal(outputs)
	if err != nil {
		return "No output"
	}
	s := string(data)
	if len(s) > maxPreviewChars {
		return s[:maxPreviewChars-3] + "..."
	}
	return s
}

func markdownVisualization(chain *Chain) string {
	lines := []string{
		fmt.Sprintf("# Reasoning Chain: '%s'", chain.Query),
		fmt.Sprintf("**Started:** %s  ", chain.StartTime),
		fmt.Sprintf("**Completed:** %s", endOrInProgress(chain.EndTime)),
		"",
		"## Reasoning Steps",
	}

	for i, step := range chain.Steps {
		lines = append(lines, fmt.Sprintf("### Step %d: %s", i+1, strings.Title(string(step.Type))))
		lines = append(lines, step.Description, "")

		if step.Confidence > 0 {
			lines = append(lines, fmt.Sprintf("**Confidence:** %.2f", step.Confidence), "")
		}

		if step.DurationMs != nil && *step.DurationMs > 0 {
			lines = append(lines, fmt.Sprintf("**Processing Time:** %dms", *step.DurationMs), "")
		}

		if len(step.Inputs) > 0 {
			lines = append(lines, collapsibleJSON("Inputs", step.Inputs)...)
		}
		if len(step.Outputs) > 0 {
			lines = append(lines, collapsibleJSON("Outputs", step.Outputs)...)
		}

		lines = append(lines, "---")
	}

	lines = append(lines, fmt.Sprintf("**Total Steps:** %d", len(chain.Steps)))

	return strings.Join(lines, "\n")
}

func collapsibleJSON(summary string, payload Payload) []string {
	return []string{
		"<details>",
		fmt.Sprintf("<summary>%s</summary>", summary),
		"",
		"```json",
		indentJSON(payload),
		"```",
		"</details>",
		"",
	}
}

func indentJSON(payload Payload) string {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

const visualizationCSS = `<style>
.reasoning-container {
    font-family: Arial, sans-serif;
    max-width: 900px;
    margin: 20px auto;
    padding: 20px;
    border-radius: 8px;
    box-shadow: 0 2px 10px rgba(0,0,0,0.1);
    background: #fff;
}
.reasoning-header {
    border-bottom: 2px solid #eee;
    padding-bottom: 15px;
    margin-bottom: 20px;
}
.reasoning-steps {
    position: relative;
}
.reasoning-step {
    border: 1px solid #e0e0e0;
    border-radius: 6px;
    padding: 15px;
    margin-bottom: 20px;
    transition: all 0.3s ease;
}
.reasoning-step:hover {
    box-shadow: 0 5px 15px rgba(0,0,0,0.08);
}
.step-header {
    display: flex;
    justify-content: space-between;
    align-items: center;
    margin-bottom: 10px;
}
.step-type {
    font-weight: bold;
    color: #4285f4;
}
.step-metrics {
    font-size: 0.85em;
    color: #666;
}
.step-description {
    margin-bottom: 10px;
    font-style: italic;
}
.confidence-bar-container {
    height: 10px;
    background: #eee;
    border-radius: 5px;
    margin: 10px 0;
}
.confidence-bar {
    height: 100%;
    background: linear-gradient(90deg, #4285f4, #34a853);
    border-radius: 5px;
}
.step-details {
    margin-top: 15px;
}
.detail-toggle {
    background: #f5f5f5;
    border: none;
    padding: 8px 15px;
    border-radius: 4px;
    cursor: pointer;
    margin-right: 10px;
    font-size: 0.9em;
}
.detail-toggle:hover {
    background: #e0e0e0;
}
.detail-content {
    display: none;
    background: #f9f9f9;
    border-radius: 4px;
    padding: 10px;
    margin-top: 10px;
    overflow: auto;
    max-height: 300px;
}
pre {
    margin: 0;
    white-space: pre-wrap;
}
.timeline {
    position: absolute;
    left: -20px;
    top: 0;
    bottom: 0;
    width: 2px;
    background: #4285f4;
}
.timeline-point {
    position: absolute;
    left: -26px;
    width: 12px;
    height: 12px;
    border-radius: 50%;
    background: #4285f4;
}
.metadata-table {
    width: 100%;
    border-collapse: collapse;
    margin: 10px 0;
}
.metadata-table th, .metadata-table td {
    padding: 8px;
    border: 1px solid #ddd;
    text-align: left;
}
.metadata-table th {
    background: #f5f5f5;
}
</style>`

const visualizationJS = `<script>
function toggleDetail(id) {
    const content = document.getElementById(id);
    if (content.style.display === 'block') {
        content.style.display = 'none';
    } else {
        content.style.display = 'block';
    }
}

function highlightStep(stepId) {
    document.querySelectorAll('.reasoning-step').forEach(step => {
        step.style.background = '#fff';
    });

    const step = document.getElementById('step-' + stepId);
    if (step) {
        step.style.background = '#f0f7ff';
        step.scrollIntoView({behavior: 'smooth', block: 'center'});
    }
}
</script>`

func htmlVisualization(chain *Chain) string {
	query := html.EscapeString(chain.Query)
	lines := []string{
		"<!DOCTYPE html>",
		"<html>",
		"<head>",
		"<meta charset='UTF-8'>",
		fmt.Sprintf("<title>Reasoning Chain: %s</title>", query),
		visualizationCSS,
		"</head>",
		"<body>",
		"<div class='reasoning-container'>",
		"<div class='reasoning-header'>",
		fmt.Sprintf("<h2>Reasoning Chain: '%s'</h2>", query),
		"<table class='metadata-table'>",
		fmt.Sprintf("<tr><th>Started</th><td>%s</td></tr>", chain.StartTime),
		fmt.Sprintf("<tr><th>Completed</th><td>%s</td></tr>", endOrInProgress(chain.EndTime)),
		fmt.Sprintf("<tr><th>Steps</th><td>%d</td></tr>", len(chain.Steps)),
		"</table>",
		"</div>",
		"<div class='reasoning-steps'>",
		"<div class='timeline'></div>",
	}

	for i, step := range chain.Steps {
		n := i + 1
		position := float64(n) / float64(len(chain.Steps)) * 100

		lines = append(lines, fmt.Sprintf("<div id='step-%d' class='reasoning-step'>", n))
		lines = append(lines, fmt.Sprintf("<div class='timeline-point' style='top: %.1f%%'></div>", position))

		lines = append(lines, "<div class='step-header'>")
		lines = append(lines, fmt.Sprintf("<div class='step-type'>Step %d: %s</div>", n, strings.Title(string(step.Type))))

		var metrics []string
		if step.DurationMs != nil && *step.DurationMs > 0 {
			metrics = append(metrics, fmt.Sprintf("%dms", *step.DurationMs))
		}
		if step.Confidence > 0 {
			metrics = append(metrics, fmt.Sprintf("Confidence: %.2f", step.Confidence))
		}
		if len(metrics) > 0 {
			lines = append(lines, fmt.Sprintf("<div class='step-metrics'>%s</div>", strings.Join(metrics, " | ")))
		}
		lines = append(lines, "</div>")

		lines = append(lines, fmt.Sprintf("<div class='step-description'>%s</div>", html.EscapeString(step.Description)))

		if step.Confidence > 0 {
			lines = append(lines, "<div class='confidence-bar-container'>")
			lines = append(lines, fmt.Sprintf("<div class='confidence-bar' style='width:%d%%'></div>", int(step.Confidence*100)))
			lines = append(lines, "</div>")
		}

		lines = append(lines, "<div class='step-details'>")
		if len(step.Inputs) > 0 {
			lines = append(lines, fmt.Sprintf("<button class='detail-toggle' onclick=\"toggleDetail('input-%d')\">Inputs</button>", n))
		}
		if len(step.Outputs) > 0 {
			lines = append(lines, fmt.Sprintf("<button class='detail-toggle' onclick=\"toggleDetail('output-%d')\">Outputs</button>", n))
		}
		if len(step.Inputs) > 0 {
			lines = append(lines, fmt.Sprintf("<div id='input-%d' class='detail-content'>", n))
			lines = append(lines, fmt.Sprintf("<pre>%s</pre>", indentJSON(step.Inputs)))
			lines = append(lines, "</div>")
		}
		if len(step.Outputs) > 0 {
			lines = append(lines, fmt.Sprintf("<div id='output-%d' class='detail-content'>", n))
			lines = append(lines, fmt.Sprintf("<pre>%s</pre>", indentJSON(step.Outputs)))
			lines = append(lines, "</div>")
		}
		lines = append(lines, "</div>")

		lines = append(lines, "</div>")
	}

	lines = append(lines, "</div>")
	lines = append(lines, "</div>")
	lines = append(lines, visualizationJS)
	lines = append(lines, "</body>")
	lines = append(lines, "</html>")

	return strings.Join(lines, "\n")
}
