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
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/reasongraph/pkg/ux"
	"github.com/AleutianAI/reasongraph/services/engine"
	"github.com/AleutianAI/reasongraph/services/reasoning"
	"github.com/AleutianAI/reasongraph/services/tui"
)

// loadChainStore builds a minimal engine around the persisted chain
// store. Chain inspection works offline and needs no LLM, cache, or
// search collaborators.
func loadChainStore(cfg engine.Config) *engine.Engine {
	chains := reasoning.NewManager(cfg.MaxChains)
	if chainsFile != "" {
		if _, err := os.Stat(chainsFile); err == nil {
			if err := chains.LoadFile(chainsFile); err != nil {
				fail("Failed to load chains from %s: %v", chainsFile, err)
			}
		}
	}
	return engine.New(engine.Options{Chains: chains, Logger: slog.Default()})
}

func runChainsList(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	eng := loadChainStore(cfg)

	summaries := eng.RecentChains(chainsLimit)
	if len(summaries) == 0 {
		ux.Info("No reasoning chains recorded yet")
		ux.Muted("Run a query first: reasongraph query \"why is the sky blue?\"")
		return
	}

	ux.Title("Recent Reasoning Chains")
	for i, summary := range summaries {
		status := ux.IconPending
		if summary.EndTime != nil {
			status = ux.IconSuccess
		}
		detail := fmt.Sprintf("%d steps, started %s", summary.StepCount, formatChainTime(summary.StartTime))
		ux.StepLine(i+1, summary.Query, detail, status)
		ux.Muted("     " + summary.ChainID)
	}
}

func runChainsShow(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	eng := loadChainStore(cfg)

	out, err := eng.ExportChain(args[0], chainShowFormat)
	if err != nil {
		fail("Failed to render chain: %v", err)
	}
	if out == "" {
		fail("Chain %s not found (is --chains-file pointing at the right store?)", args[0])
	}
	fmt.Println(out)
}

func runChainsExport(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	eng := loadChainStore(cfg)
	chainID := args[0]

	out, err := eng.ExportChain(chainID, chainExportFormat)
	if err != nil {
		fail("Failed to export chain: %v", err)
	}
	if out == "" {
		fail("Chain %s not found", chainID)
	}

	defaultName := chainID + exportExtension(chainExportFormat)
	outputFile := exportOutput
	if outputFile == "" {
		outputFile = defaultName
	} else if info, err := os.Stat(outputFile); err == nil && info.IsDir() {
		outputFile = filepath.Join(outputFile, defaultName)
	}

	if err := os.WriteFile(outputFile, []byte(out), 0644); err != nil {
		fail("Failed to write %s: %v", outputFile, err)
	}
	ux.Success(fmt.Sprintf("Exported chain %s to %s", chainID, outputFile))
}

func runChainsBrowse(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	eng := loadChainStore(cfg)

	browserCfg := tui.DefaultBrowserConfig()
	browserCfg.Limit = browseLimit
	if err := tui.RunBrowser(eng, browserCfg); err != nil {
		fail("%v", err)
	}
}

func runChainsWatch(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	u := url.URL{Scheme: "ws", Host: watchAddr, Path: "/v1/watch"}
	if watchChainID != "" {
		u.RawQuery = url.Values{"chainId": {watchChainID}}.Encode()
	}

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		fail("Failed to connect to %s: %v (is the server running?)", u.String(), err)
	}
	defer ws.Close()

	ux.Title("Watching Reasoning Steps")
	ux.KeyValue("Server", watchAddr)
	if watchChainID != "" {
		ux.KeyValue("Chain", watchChainID)
	}
	ux.Info("Press Ctrl+C to stop")

	// Closing the socket unblocks ReadJSON when interrupted.
	go func() {
		<-ctx.Done()
		ws.Close()
	}()

	stepCounts := make(map[string]int)
	for {
		var ev reasoning.StepEvent
		if err := ws.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil {
				return
			}
			fail("Connection lost: %v", err)
		}
		renderStepEvent(&ev, stepCounts)
	}
}

// renderStepEvent prints one watch event. Step numbers count per
// chain because events from concurrent chains interleave.
func renderStepEvent(ev *reasoning.StepEvent, stepCounts map[string]int) {
	shortID := ev.ChainID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}
	switch {
	case ev.Completed:
		ux.Success(fmt.Sprintf("[%s] completed: %s", shortID, ev.Query))
	case ev.Step == nil:
		ux.Info(fmt.Sprintf("[%s] started: %s", shortID, ev.Query))
	default:
		stepCounts[ev.ChainID]++
		detail := string(ev.Step.Type)
		if ev.Step.DurationMs != nil {
			detail = fmt.Sprintf("%s, %d ms", detail, *ev.Step.DurationMs)
		}
		ux.StepLine(stepCounts[ev.ChainID], ev.Step.Description, detail, ux.IconStep)
	}
}

// exportExtension maps a visualization format to a file extension.
func exportExtension(format string) string {
	switch strings.ToLower(format) {
	case reasoning.FormatMarkdown:
		return ".md"
	case reasoning.FormatHTML:
		return ".html"
	case reasoning.FormatText:
		return ".txt"
	default:
		return ".json"
	}
}

// formatChainTime renders an RFC 3339 chain timestamp for humans,
// falling back to the raw string when it does not parse.
func formatChainTime(ts string) string {
	parsed, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return ts
	}
	return parsed.Local().Format("2006-01-02 15:04:05")
}
