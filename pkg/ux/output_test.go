// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"
)

// Helper to capture stdout
func captureStdout(f func()) string {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	f()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

// Helper to capture stderr
func captureStderr(f func()) string {
	old := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w

	f()

	w.Close()
	os.Stderr = old

	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

// Helper to run a function with a fixed personality level.
func withLevel(t *testing.T, level PersonalityLevel, f func()) {
	t.Helper()
	prev := GetPersonality()
	SetPersonalityLevel(level)
	t.Cleanup(func() { SetPersonality(prev) })
	f()
}

func TestIcon_Render(t *testing.T) {
	styled := []Icon{IconSuccess, IconWarning, IconError, IconPending, IconStep}
	for _, icon := range styled {
		if result := icon.Render(); result == "" {
			t.Errorf("expected non-empty render for %q", icon)
		}
	}

	plain := []Icon{IconArrow, IconBullet}
	for _, icon := range plain {
		if result := icon.Render(); result != string(icon) {
			t.Errorf("expected %q for %q, got %q", string(icon), icon, result)
		}
	}
}

func TestSuccess_MachineMode(t *testing.T) {
	withLevel(t, PersonalityMachine, func() {
		out := captureStdout(func() { Success("graph exported") })
		if out != "OK: graph exported\n" {
			t.Errorf("got %q, expected machine-readable OK line", out)
		}
	})
}

func TestWarning_MachineModeGoesToStderr(t *testing.T) {
	withLevel(t, PersonalityMachine, func() {
		errOut := captureStderr(func() { Warning("cache miss rate high") })
		if errOut != "WARN: cache miss rate high\n" {
			t.Errorf("got %q, expected WARN line on stderr", errOut)
		}
	})
}

func TestError_MachineModeGoesToStderr(t *testing.T) {
	withLevel(t, PersonalityMachine, func() {
		errOut := captureStderr(func() { Error("ollama unreachable") })
		if errOut != "ERROR: ollama unreachable\n" {
			t.Errorf("got %q, expected ERROR line on stderr", errOut)
		}
	})
}

func TestTitle_SuppressedInMachineMode(t *testing.T) {
	withLevel(t, PersonalityMachine, func() {
		out := captureStdout(func() { Title("Reasoning Chain") })
		if out != "" {
			t.Errorf("got %q, expected no title output in machine mode", out)
		}
	})
}

func TestKeyValue(t *testing.T) {
	withLevel(t, PersonalityMachine, func() {
		out := captureStdout(func() { KeyValue("chainId", "abc-123") })
		if out != "chainId\tabc-123\n" {
			t.Errorf("got %q, expected tab-separated machine output", out)
		}
	})

	withLevel(t, PersonalityFull, func() {
		out := captureStdout(func() { KeyValue("chainId", "abc-123") })
		if !strings.Contains(out, "abc-123") {
			t.Errorf("got %q, expected value present", out)
		}
	})
}

func TestStepLine(t *testing.T) {
	withLevel(t, PersonalityMachine, func() {
		out := captureStdout(func() { StepLine(2, "knowledge_search", "12 hits", IconSuccess) })
		if out != "STEP 2\tknowledge_search\t12 hits\n" {
			t.Errorf("got %q, expected tab-separated step line", out)
		}
	})

	withLevel(t, PersonalityFull, func() {
		out := captureStdout(func() { StepLine(2, "knowledge_search", "", IconSuccess) })
		if !strings.Contains(out, "2.") || !strings.Contains(out, "knowledge_search") {
			t.Errorf("got %q, expected numbered step label", out)
		}
	})
}

func TestConfidenceBar(t *testing.T) {
	withLevel(t, PersonalityMachine, func() {
		if got := ConfidenceBar(0.85, 10); got != "0.85" {
			t.Errorf("got %q, expected raw value in machine mode", got)
		}
	})

	withLevel(t, PersonalityFull, func() {
		got := ConfidenceBar(0.5, 10)
		if !strings.Contains(got, "50%") {
			t.Errorf("got %q, expected percentage", got)
		}

		// Out-of-range input clamps instead of corrupting the bar.
		if got := ConfidenceBar(1.5, 10); !strings.Contains(got, "100%") {
			t.Errorf("got %q, expected clamp to 100%%", got)
		}
		if got := ConfidenceBar(-0.2, 10); !strings.Contains(got, "0%") {
			t.Errorf("got %q, expected clamp to 0%%", got)
		}
	})
}

func TestProgressBar(t *testing.T) {
	withLevel(t, PersonalityMachine, func() {
		if got := ProgressBar(3, 10, 20); got != "3/10" {
			t.Errorf("got %q, expected count form in machine mode", got)
		}
	})

	withLevel(t, PersonalityFull, func() {
		got := ProgressBar(5, 10, 20)
		if !strings.Contains(got, "50%") {
			t.Errorf("got %q, expected percentage", got)
		}
	})
}

func TestRepeatChar(t *testing.T) {
	if got := repeatChar('█', 3); got != "███" {
		t.Errorf("got %q, expected three blocks", got)
	}
	if got := repeatChar('x', 0); got != "" {
		t.Errorf("got %q, expected empty for zero count", got)
	}
	if got := repeatChar('x', -2); got != "" {
		t.Errorf("got %q, expected empty for negative count", got)
	}
}

func TestBox_MachineMode(t *testing.T) {
	withLevel(t, PersonalityMachine, func() {
		out := captureStdout(func() { Box("Answer", "42") })
		if out != "Answer: 42\n" {
			t.Errorf("got %q, expected plain title: content line", out)
		}
	})
}
