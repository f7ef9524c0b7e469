// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/reasongraph/pkg/ux"
	"github.com/AleutianAI/reasongraph/services/graph"
	"github.com/AleutianAI/reasongraph/services/ingest"
)

func runIngest(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	dir := cfg.Ingest.Dir
	if len(args) > 0 {
		dir = args[0]
	}
	if dir == "" {
		fail("A concept directory is required: reasongraph ingest ./concepts")
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		fail("%s is not a directory", dir)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.Default()
	conceptGraph := graph.New()
	loader := ingest.NewLoader(ingest.LoaderOptions{
		Graph:    conceptGraph,
		Embedder: buildEmbedder(cfg, logger),
		Logger:   logger,
	})

	// LoadDir joins per-file failures into its error; the spinner line
	// reports them and the report still counts what succeeded.
	var report ingest.Report
	_ = ux.WithSpinner(fmt.Sprintf("Ingesting concept files from %s", dir), func() error {
		var lerr error
		report, lerr = loader.LoadDir(ctx, dir)
		return lerr
	})

	ux.Title("Ingestion Report")
	ux.KeyValue("Files", fmt.Sprintf("%d", report.Files))
	ux.KeyValue("Concepts", fmt.Sprintf("%d", report.Concepts))
	ux.KeyValue("Chunks", fmt.Sprintf("%d", report.Chunks))
	ux.KeyValue("Edges", fmt.Sprintf("%d", report.Edges))

	if ingestGraphOutput != "" {
		data, err := conceptGraph.ExportJSON()
		if err != nil {
			fail("Failed to export graph: %v", err)
		}
		if err := os.WriteFile(ingestGraphOutput, data, 0644); err != nil {
			fail("Failed to write %s: %v", ingestGraphOutput, err)
		}
		ux.Success(fmt.Sprintf("Wrote concept graph to %s", ingestGraphOutput))
		ux.Muted("Feed it to a running server: POST /v1/graph/import")
	}

	if ingestWatch {
		watcher, err := ingest.NewWatcher(loader, dir, ingest.DefaultWatcherOptions())
		if err != nil {
			fail("Failed to watch %s: %v", dir, err)
		}
		if err := watcher.Start(ctx); err != nil {
			fail("Failed to start watching %s: %v", dir, err)
		}
		defer watcher.Stop()

		ux.Info("Watching for concept file changes. Press Ctrl+C to stop.")
		<-ctx.Done()
	}
}
