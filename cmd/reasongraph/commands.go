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
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/reasongraph/pkg/logging"
	"github.com/AleutianAI/reasongraph/pkg/ux"
)

// appLogger is the process logger, built once per invocation in the
// root PersistentPreRun and closed in PersistentPostRun.
var appLogger *logging.Logger

// --- Global Command Variables ---
var (
	configPath       string
	chainsFile       string
	personalityLevel string
	logLevel         string
	logFileDir       string
	logJSON          bool

	queryCourses  []string
	showReasoning bool

	planDifficulty string

	chainsLimit       int
	browseLimit       int
	chainShowFormat   string
	chainExportFormat string
	exportOutput      string
	watchAddr         string
	watchChainID      string

	graphOutput string

	ingestWatch       bool
	ingestGraphOutput string

	serveAddr string

	rootCmd = &cobra.Command{
		Use:   "reasongraph",
		Short: "A reasoning engine over course knowledge graphs",
		Long: `Reasongraph answers questions over a course knowledge graph and
records every answer as an inspectable chain of reasoning steps.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Initialize UX personality from flag or environment
			if personalityLevel != "" {
				ux.SetPersonalityLevel(ux.ParsePersonalityLevel(personalityLevel))
			} else {
				ux.InitPersonality()
			}

			appLogger = logging.New(logging.Config{
				Level:   logging.ParseLevel(logLevel),
				LogDir:  logFileDir,
				Service: cmd.Name(),
				JSON:    logJSON,
			})
			slog.SetDefault(appLogger.Slog())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if appLogger != nil {
				_ = appLogger.Close()
			}
		},
	}

	// --- Serve ---
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and websocket chain stream",
		Run:   runServe, // Defined in cmd_serve.go
	}

	// --- Query ---
	queryCmd = &cobra.Command{
		Use:   "query [question]",
		Short: "Ask a question and record the reasoning chain",
		Long: `Runs the six-step reasoning pipeline on a question. With no
arguments on a terminal, an interactive form collects the question.`,
		Run: runQuery, // Defined in cmd_query.go
	}

	// --- Plan ---
	planCmd = &cobra.Command{
		Use:   "plan [topic]",
		Short: "Build a study plan for a topic",
		Run:   runPlan, // Defined in cmd_plan.go
	}

	// --- Chains ---
	chainsCmd = &cobra.Command{
		Use:   "chains",
		Short: "Inspect stored reasoning chains",
	}
	chainsListCmd = &cobra.Command{
		Use:   "list",
		Short: "List recent reasoning chains",
		Run:   runChainsList, // Defined in cmd_chains.go
	}
	chainsShowCmd = &cobra.Command{
		Use:   "show [chain-id]",
		Short: "Render one reasoning chain",
		Args:  cobra.ExactArgs(1),
		Run:   runChainsShow, // Defined in cmd_chains.go
	}
	chainsExportCmd = &cobra.Command{
		Use:   "export [chain-id]",
		Short: "Write one reasoning chain to a file",
		Args:  cobra.ExactArgs(1),
		Run:   runChainsExport, // Defined in cmd_chains.go
	}
	chainsBrowseCmd = &cobra.Command{
		Use:   "browse",
		Short: "Browse reasoning chains interactively",
		Run:   runChainsBrowse, // Defined in cmd_chains.go
	}
	chainsWatchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Stream live chain steps from a running server",
		Run:   runChainsWatch, // Defined in cmd_chains.go
	}

	// --- Graph ---
	graphCmd = &cobra.Command{
		Use:   "graph",
		Short: "Inspect the knowledge graph",
	}
	graphAnalyzeCmd = &cobra.Command{
		Use:   "analyze",
		Short: "Show knowledge graph statistics",
		Run:   runGraphAnalyze, // Defined in cmd_graph.go
	}
	graphExportCmd = &cobra.Command{
		Use:   "export",
		Short: "Export the knowledge graph as JSON",
		Run:   runGraphExport, // Defined in cmd_graph.go
	}

	// --- Ingest ---
	ingestCmd = &cobra.Command{
		Use:   "ingest [dir]",
		Short: "Load course concept files and report what they build",
		Args:  cobra.MaximumNArgs(1),
		Run:   runIngest, // Defined in cmd_ingest.go
	}
)

// init runs when the Go program starts
func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to the configuration file (default: reasongraph.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&chainsFile, "chains-file", "reasongraph_chains.json",
		"File reasoning chains are saved to and loaded from ('' disables)")
	rootCmd.PersistentFlags().StringVar(&personalityLevel, "personality", "",
		"Output style: full (default), standard, minimal, or machine (scripting)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"Log level: debug, info, warn, or error")
	rootCmd.PersistentFlags().StringVar(&logFileDir, "log-dir", "",
		"Also write JSON logs to files in this directory")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false,
		"Emit stderr logs as JSON")

	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address override (e.g. :8085)")

	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringSliceVar(&queryCourses, "course", nil,
		"Course to search (repeatable; defaults to the configured courses)")
	queryCmd.Flags().BoolVar(&showReasoning, "show-reasoning", false,
		"Print the reasoning chain after the answer")

	rootCmd.AddCommand(planCmd)
	planCmd.Flags().StringVar(&planDifficulty, "difficulty", "beginner",
		"Plan difficulty: beginner, intermediate, or advanced")

	rootCmd.AddCommand(chainsCmd)
	chainsCmd.AddCommand(chainsListCmd)
	chainsListCmd.Flags().IntVar(&chainsLimit, "limit", 10, "Maximum chains to list")
	chainsCmd.AddCommand(chainsShowCmd)
	chainsShowCmd.Flags().StringVar(&chainShowFormat, "format", "text",
		"Render format: text, markdown, html, or json")
	chainsCmd.AddCommand(chainsExportCmd)
	chainsExportCmd.Flags().StringVar(&chainExportFormat, "format", "json",
		"Export format: json, text, markdown, or html")
	chainsExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "",
		"Output filename (default: <chain-id>.<format extension>)")
	chainsCmd.AddCommand(chainsBrowseCmd)
	chainsBrowseCmd.Flags().IntVar(&browseLimit, "limit", 50, "Maximum chains to browse")
	chainsCmd.AddCommand(chainsWatchCmd)
	chainsWatchCmd.Flags().StringVar(&watchAddr, "addr", "localhost:8085",
		"Server address to stream from")
	chainsWatchCmd.Flags().StringVar(&watchChainID, "chain", "",
		"Only stream events for this chain id")

	rootCmd.AddCommand(graphCmd)
	graphCmd.AddCommand(graphAnalyzeCmd)
	graphCmd.AddCommand(graphExportCmd)
	graphExportCmd.Flags().StringVarP(&graphOutput, "output", "o", "",
		"Output filename (default: stdout)")

	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().BoolVar(&ingestWatch, "watch", false,
		"Keep watching the directory and re-ingest on change")
	ingestCmd.Flags().StringVar(&ingestGraphOutput, "graph-output", "",
		"Write the graph built from the concept files to this JSON file")
}
