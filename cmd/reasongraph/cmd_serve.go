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
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/reasongraph/pkg/ux"
	"github.com/AleutianAI/reasongraph/services/ingest"
	"github.com/AleutianAI/reasongraph/services/reasoning"
	"github.com/AleutianAI/reasongraph/services/server"
	"github.com/AleutianAI/reasongraph/services/telemetry"
)

func runServe(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Telemetry comes up first so engine construction is traced.
	shutdownTelemetry, err := telemetry.Init(ctx, cfg.Telemetry.Resolve())
	if err != nil {
		slog.Warn("Telemetry disabled", "error", err)
	} else {
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTelemetry(flushCtx); err != nil {
				slog.Warn("Telemetry shutdown failed", "error", err)
			}
		}()
	}

	eng, cleanup := buildEngine(ctx, cfg)
	defer cleanup()

	// Mirror finished chains into InfluxDB for dashboards.
	exporter, closeInflux := newChainExporter(cfg, slog.Default())
	if exporter != nil {
		defer closeInflux()
		events, cancelWatch := eng.Context().Chains.Watch(reasoning.DefaultWatchBuffer)
		defer cancelWatch()
		go func() {
			for ev := range events {
				if !ev.Completed {
					continue
				}
				if chain := eng.Context().Chains.Get(ev.ChainID); chain != nil {
					exporter.Export(ctx, chain)
				}
			}
		}()
	}

	// Re-ingest concept files as they change on disk.
	if cfg.Ingest.Watch && cfg.Ingest.Dir != "" {
		watcher, err := ingest.NewWatcher(newLoader(eng, slog.Default()), cfg.Ingest.Dir, ingest.DefaultWatcherOptions())
		if err != nil {
			slog.Warn("Concept watcher unavailable", "dir", cfg.Ingest.Dir, "error", err)
		} else if err := watcher.Start(ctx); err != nil {
			slog.Warn("Concept watcher failed to start", "dir", cfg.Ingest.Dir, "error", err)
		} else {
			defer watcher.Stop()
		}
	}

	srv, err := server.New(server.Options{
		Engine: eng,
		Config: cfg.Server,
		Logger: slog.Default(),
	})
	if err != nil {
		fail("Failed to build server: %v", err)
	}

	ux.Title("ReasonGraph Server")
	ux.KeyValue("Address", cfg.Server.Addr)
	ux.KeyValue("LLM provider", cfg.LLM.Provider)
	ux.KeyValue("Cache backend", cfg.Cache.Backend)
	ux.Info("Press Ctrl+C to stop")

	if err := srv.Run(ctx); err != nil {
		fail("Server error: %v", err)
	}
	ux.Success("Server stopped")
}
