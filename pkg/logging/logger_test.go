// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package logging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// =============================================================================
// Level Tests
// =============================================================================

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
		{Level(-1), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := tt.level.String()
			if got != tt.want {
				t.Errorf("Level.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{" Error ", LevelError},
		{"verbose", LevelInfo}, // unknown falls back to Info
	}

	for _, tt := range tests {
		got := ParseLevel(tt.in)
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLevel_toSlogLevel(t *testing.T) {
	tests := []struct {
		level Level
		want  slog.Level
	}{
		{LevelDebug, slog.LevelDebug},
		{LevelInfo, slog.LevelInfo},
		{LevelWarn, slog.LevelWarn},
		{LevelError, slog.LevelError},
		{Level(99), slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			got := tt.level.toSlogLevel()
			if got != tt.want {
				t.Errorf("Level.toSlogLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

// =============================================================================
// Constructor Tests
// =============================================================================

func TestNew_DefaultConfig(t *testing.T) {
	logger := New(Config{})
	if logger == nil {
		t.Fatal("New() returned nil")
	}
	if logger.slog == nil {
		t.Error("logger.slog is nil")
	}
	if logger.file != nil {
		t.Error("file handle should be nil without LogDir")
	}
}

func TestNew_FileLogging(t *testing.T) {
	dir := t.TempDir()

	logger := New(Config{
		Level:   LevelDebug,
		LogDir:  dir,
		Service: "engine",
		Quiet:   true,
	})
	defer logger.Close()

	if logger.file == nil {
		t.Fatal("expected a log file handle")
	}

	logger.Info("chain opened", "chain_id", "abc123")

	wantName := "engine_" + time.Now().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(dir, wantName))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "chain opened") {
		t.Errorf("log file missing message, got: %s", data)
	}
	if !strings.Contains(string(data), `"service":"engine"`) {
		t.Errorf("log file missing service attribute, got: %s", data)
	}
}

func TestNew_FileLoggingDefaultServiceName(t *testing.T) {
	dir := t.TempDir()

	logger := New(Config{LogDir: dir, Quiet: true})
	defer logger.Close()

	logger.Info("hello")

	wantName := "reasongraph_" + time.Now().Format("2006-01-02") + ".log"
	if _, err := os.Stat(filepath.Join(dir, wantName)); err != nil {
		t.Errorf("expected default-named log file: %v", err)
	}
}

func TestDefault(t *testing.T) {
	logger := Default()
	if logger == nil {
		t.Fatal("Default() returned nil")
	}
	if logger.config.Service != "reasongraph" {
		t.Errorf("Default service = %q, want reasongraph", logger.config.Service)
	}
}

// =============================================================================
// Behavior Tests
// =============================================================================

func TestLogger_With(t *testing.T) {
	exporter := NewBufferedExporter()
	logger := New(Config{Quiet: true, Exporter: exporter})

	child := logger.With("chain_id", "c1")
	if child == logger {
		t.Error("With should return a new logger")
	}
	if child.exporter != logger.exporter {
		t.Error("With should share the exporter")
	}
}

func TestLogger_ExporterReceivesEntries(t *testing.T) {
	exporter := NewBufferedExporter()
	logger := New(Config{Quiet: true, Exporter: exporter, Service: "cli"})

	logger.Warn("fallback used", "component", "decomposer")

	// Export is async; poll briefly.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(exporter.Entries()) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	entries := exporter.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 exported entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Message != "fallback used" {
		t.Errorf("Message = %q", e.Message)
	}
	if e.Level != LevelWarn {
		t.Errorf("Level = %v, want Warn", e.Level)
	}
	if e.Service != "cli" {
		t.Errorf("Service = %q", e.Service)
	}
	if e.Attrs["component"] != "decomposer" {
		t.Errorf("Attrs = %v", e.Attrs)
	}
}

func TestLogger_ExporterLevelFilter(t *testing.T) {
	exporter := NewBufferedExporter()
	logger := New(Config{Level: LevelWarn, Quiet: true, Exporter: exporter})

	logger.Debug("too quiet")
	logger.Info("still too quiet")

	time.Sleep(50 * time.Millisecond)
	if got := len(exporter.Entries()); got != 0 {
		t.Errorf("expected 0 exported entries below level, got %d", got)
	}
}

func TestLogger_Close(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{LogDir: dir, Quiet: true})

	logger.Info("before close")
	if err := logger.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}

// =============================================================================
// Helper Tests
// =============================================================================

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir available")
	}

	got := expandPath("~/logs")
	want := filepath.Join(home, "logs")
	if got != want {
		t.Errorf("expandPath(~/logs) = %q, want %q", got, want)
	}

	if got := expandPath("/var/log"); got != "/var/log" {
		t.Errorf("absolute path should pass through, got %q", got)
	}
}

func TestArgsToMap(t *testing.T) {
	got := argsToMap([]any{"key1", "value1", "key2", 123})
	if got["key1"] != "value1" || got["key2"] != 123 {
		t.Errorf("argsToMap = %v", got)
	}

	// Odd trailing value is dropped.
	got = argsToMap([]any{"key1", "value1", "dangling"})
	if len(got) != 1 {
		t.Errorf("expected 1 entry, got %v", got)
	}

	// Non-string key is skipped.
	got = argsToMap([]any{42, "value"})
	if len(got) != 0 {
		t.Errorf("expected 0 entries, got %v", got)
	}
}

// =============================================================================
// Multi-Handler Tests
// =============================================================================

func TestMultiHandler_Enabled(t *testing.T) {
	debugHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	errorHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})

	h := &multiHandler{handlers: []slog.Handler{errorHandler, debugHandler}}
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("should be enabled when any child accepts the level")
	}

	onlyError := &multiHandler{handlers: []slog.Handler{errorHandler}}
	if onlyError.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("should be disabled when no child accepts the level")
	}
}

// =============================================================================
// Exporter Tests
// =============================================================================

func TestNopExporter(t *testing.T) {
	e := &NopExporter{}
	ctx := context.Background()
	if err := e.Export(ctx, LogEntry{}); err != nil {
		t.Errorf("Export: %v", err)
	}
	if err := e.Flush(ctx); err != nil {
		t.Errorf("Flush: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestBufferedExporter_CopyOnRead(t *testing.T) {
	e := NewBufferedExporter()
	_ = e.Export(context.Background(), LogEntry{Message: "one"})

	entries := e.Entries()
	entries[0].Message = "mutated"

	if e.Entries()[0].Message != "one" {
		t.Error("Entries() must return a copy")
	}
}
