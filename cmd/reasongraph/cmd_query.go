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
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/reasongraph/pkg/ux"
	"github.com/AleutianAI/reasongraph/services/engine"
)

func runQuery(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	ctx := context.Background()

	question := strings.TrimSpace(strings.Join(args, " "))
	courses := append(append([]string{}, cfg.Courses...), queryCourses...)

	if question == "" {
		if !ux.IsInteractive() {
			fail("A question is required: reasongraph query \"why is the sky blue?\"")
		}
		formCourses := promptForQuestion(&question)
		courses = append(courses, formCourses...)
	}

	eng, cleanup := buildEngine(ctx, cfg)
	defer cleanup()

	var result *engine.QueryResult
	err := ux.WithSpinner("Reasoning about your question", func() error {
		var qerr error
		result, qerr = eng.ProcessQueryCached(ctx, question, engine.QueryOptions{
			Courses:       courses,
			ShowReasoning: showReasoning,
		})
		return qerr
	})
	if err != nil {
		// The spinner line already reported the failure.
		os.Exit(1)
	}

	ux.Title("Answer")
	fmt.Println(result.Answer)
	if result.Cached {
		ux.Muted("Served from cache")
	}
	if result.Visualization != "" {
		fmt.Println()
		fmt.Println(result.Visualization)
	}
	fmt.Println()
	ux.KeyValue("Chain ID", result.ChainID)
	ux.Muted(fmt.Sprintf("Inspect with: reasongraph chains show %s", result.ChainID))

	exportChain(ctx, eng, cfg, result.ChainID)
}

// promptForQuestion collects the question interactively. It returns
// any extra courses the user typed as a comma separated list.
func promptForQuestion(question *string) []string {
	var coursesInput string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("What do you want to understand?").
				Value(question).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("question cannot be empty")
					}
					return nil
				}),
			huh.NewInput().
				Title("Courses to focus on (comma separated, optional)").
				Value(&coursesInput),
			huh.NewConfirm().
				Title("Show the reasoning chain?").
				Value(&showReasoning),
		),
	)
	if err := form.Run(); err != nil {
		fail("Prompt aborted: %v", err)
	}

	var courses []string
	for _, course := range strings.Split(coursesInput, ",") {
		if course = strings.TrimSpace(course); course != "" {
			courses = append(courses, course)
		}
	}
	return courses
}

// exportChain mirrors one finished chain into InfluxDB when telemetry
// export is enabled. One-shot commands call it before exiting.
func exportChain(ctx context.Context, eng *engine.Engine, cfg engine.Config, chainID string) {
	exporter, closeInflux := newChainExporter(cfg, slog.Default())
	if exporter == nil {
		return
	}
	defer closeInflux()
	exporter.Export(ctx, eng.Context().Chains.Get(chainID))
}
