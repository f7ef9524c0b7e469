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
	"fmt"
	"sync"
	"time"
)

// Chain is a complete reasoning trail for one query.
//
// Steps are append-only. EndTime stays nil while the chain is in
// progress and is set exactly once by Complete.
type Chain struct {
	ChainID   string         `json:"chainId"`
	Query     string         `json:"query"`
	Steps     []*Step        `json:"steps"`
	StartTime string         `json:"startTime"`
	EndTime   *string        `json:"endTime"`
	Metadata  map[string]any `json:"metadata"`

	mu      sync.Mutex
	created time.Time
	notify  func(StepEvent)
}

// AddStep appends a step to the chain. A step arriving without an id
// gets a sequential one scoped to the chain.
func (c *Chain) AddStep(step *Step) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if step.StepID == "" {
		step.StepID = fmt.Sprintf("%s_step_%d", c.ChainID, len(c.Steps)+1)
	}
	c.Steps = append(c.Steps, step)
}

// Complete marks the chain as finished. Only the first call records an
// end time; later calls are no-ops.
func (c *Chain) Complete() {
	c.mu.Lock()
	if c.EndTime != nil {
		c.mu.Unlock()
		return
	}
	end := time.Now().UTC().Format(time.RFC3339Nano)
	c.EndTime = &end
	notify := c.notify
	c.mu.Unlock()

	if notify != nil {
		notify(StepEvent{ChainID: c.ChainID, Query: c.Query, Completed: true})
	}
}

// Completed reports whether Complete has been called.
func (c *Chain) Completed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.EndTime != nil
}

// StepCount returns the number of recorded steps.
func (c *Chain) StepCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Steps)
}

// SetMetadata attaches an arbitrary key/value to the chain.
func (c *Chain) SetMetadata(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Metadata == nil {
		c.Metadata = make(map[string]any)
	}
	c.Metadata[key] = value
}

// emitStep publishes a finalized step to the manager's watchers. The
// copy is taken under the chain lock so the event sees the finalized
// outputs and duration.
func (c *Chain) emitStep(step *Step) {
	c.mu.Lock()
	notify := c.notify
	copied := *step
	c.mu.Unlock()

	if notify != nil {
		notify(StepEvent{ChainID: c.ChainID, Query: c.Query, Step: &copied})
	}
}

// snapshot returns a consistent copy safe to read without holding the
// chain lock. Step payloads are shared; they are never mutated after
// the recorder finalizes a step.
func (c *Chain) snapshot() *Chain {
	c.mu.Lock()
	defer c.mu.Unlock()

	steps := make([]*Step, len(c.Steps))
	for i, step := range c.Steps {
		copied := *step
		steps[i] = &copied
	}
	var end *string
	if c.EndTime != nil {
		e := *c.EndTime
		end = &e
	}
	meta := make(map[string]any, len(c.Metadata))
	for k, v := range c.Metadata {
		meta[k] = v
	}
	return &Chain{
		ChainID:   c.ChainID,
		Query:     c.Query,
		Steps:     steps,
		StartTime: c.StartTime,
		EndTime:   end,
		Metadata:  meta,
		created:   c.created,
	}
}
