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
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/reasongraph/pkg/ux"
	"github.com/AleutianAI/reasongraph/services/engine"
	"github.com/AleutianAI/reasongraph/services/planner"
)

func runPlan(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	ctx := context.Background()

	topic := strings.TrimSpace(strings.Join(args, " "))
	difficulty := planDifficulty

	if topic == "" {
		if !ux.IsInteractive() {
			fail("A topic is required: reasongraph plan \"linear algebra\"")
		}
		promptForTopic(&topic, &difficulty)
	}

	switch difficulty {
	case planner.DifficultyBeginner, planner.DifficultyIntermediate, planner.DifficultyAdvanced:
	default:
		fail("Unknown difficulty %q (use beginner, intermediate, or advanced)", difficulty)
	}

	eng, cleanup := buildEngine(ctx, cfg)
	defer cleanup()

	var plan *engine.StudyPlan
	err := ux.WithSpinner("Building your study plan", func() error {
		var perr error
		plan, perr = eng.PlanTopic(ctx, topic, difficulty)
		return perr
	})
	if err != nil {
		// The spinner line already reported the failure.
		os.Exit(1)
	}

	ux.Title(fmt.Sprintf("Study Plan: %s", plan.Topic))
	ux.KeyValue("Difficulty", plan.Difficulty)
	ux.KeyValue("Subtopics", fmt.Sprintf("%d", len(plan.Subtopics)))
	if plan.Curriculum != nil {
		ux.KeyValue("Estimated time", fmt.Sprintf("%d min", plan.Curriculum.TotalMinutes))
	}

	fmt.Println()
	ux.Info("Study sequence")
	for i, item := range plan.Sequence {
		status := ux.IconPending
		if item.PrerequisitesMet {
			status = ux.IconSuccess
		}
		detail := fmt.Sprintf("level %d, about %d min", item.Level, item.EstimatedMinutes)
		ux.StepLine(i+1, item.Topic, detail, status)
	}

	if plan.Curriculum != nil {
		fmt.Println()
		fmt.Println(plan.Curriculum.Summary())
	}

	fmt.Println()
	ux.KeyValue("Chain ID", plan.ChainID)
	ux.Muted(fmt.Sprintf("Inspect with: reasongraph chains show %s", plan.ChainID))

	exportChain(ctx, eng, cfg, plan.ChainID)
}

// promptForTopic collects the topic and difficulty interactively.
func promptForTopic(topic, difficulty *string) {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("What topic do you want to study?").
				Value(topic).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("topic cannot be empty")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Difficulty").
				Options(
					huh.NewOption("Beginner", planner.DifficultyBeginner),
					huh.NewOption("Intermediate", planner.DifficultyIntermediate),
					huh.NewOption("Advanced", planner.DifficultyAdvanced),
				).
				Value(difficulty),
		),
	)
	if err := form.Run(); err != nil {
		fail("Prompt aborted: %v", err)
	}
}
