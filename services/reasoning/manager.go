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
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxChains bounds how many chains a Manager retains when the
// caller does not say otherwise.
const DefaultMaxChains = 100

// ChainSummary is the listing row for a stored chain.
type ChainSummary struct {
	ChainID   string  `json:"chainId"`
	Query     string  `json:"query"`
	StartTime string  `json:"startTime"`
	EndTime   *string `json:"endTime"`
	StepCount int     `json:"stepCount"`
}

// Manager stores recent reasoning chains with a bounded capacity.
//
// When an insertion pushes the count past the limit, the chain with
// the oldest start time is dropped in the same critical section, so
// the bound holds at every observable moment.
type Manager struct {
	mu        sync.Mutex
	chains    map[string]*Chain
	maxChains int

	watchMu  sync.Mutex
	watchers map[string]chan StepEvent
}

// NewManager returns a Manager retaining at most maxChains chains.
// Values below one fall back to DefaultMaxChains.
func NewManager(maxChains int) *Manager {
	if maxChains < 1 {
		maxChains = DefaultMaxChains
	}
	return &Manager{
		chains:    make(map[string]*Chain),
		maxChains: maxChains,
	}
}

// CreateChain starts a new chain for the query and registers it.
func (m *Manager) CreateChain(query string) *Chain {
	now := time.Now()
	chain := &Chain{
		ChainID:   uuid.NewString(),
		Query:     query,
		Steps:     make([]*Step, 0),
		StartTime: now.UTC().Format(time.RFC3339Nano),
		Metadata:  make(map[string]any),
		created:   now,
		notify:    m.broadcast,
	}

	m.mu.Lock()
	m.chains[chain.ChainID] = chain
	for len(m.chains) > m.maxChains {
		m.evictOldestLocked()
	}
	stored := len(m.chains)
	m.mu.Unlock()

	slog.Debug("Created reasoning chain", "chain_id", chain.ChainID, "stored_chains", stored)
	m.broadcast(StepEvent{ChainID: chain.ChainID, Query: chain.Query})
	return chain
}

// Get returns the chain with the given id, or nil when it is absent or
// already evicted.
func (m *Manager) Get(chainID string) *Chain {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.chains[chainID]
}

// List returns one summary per stored chain, oldest first.
func (m *Manager) List() []ChainSummary {
	m.mu.Lock()
	chains := make([]*Chain, 0, len(m.chains))
	for _, chain := range m.chains {
		chains = append(chains, chain)
	}
	m.mu.Unlock()

	sort.Slice(chains, func(i, j int) bool {
		if chains[i].created.Equal(chains[j].created) {
			return chains[i].ChainID < chains[j].ChainID
		}
		return chains[i].created.Before(chains[j].created)
	})

	out := make([]ChainSummary, 0, len(chains))
	for _, chain := range chains {
		chain.mu.Lock()
		var end *string
		if chain.EndTime != nil {
			e := *chain.EndTime
			end = &e
		}
		out = append(out, ChainSummary{
			ChainID:   chain.ChainID,
			Query:     chain.Query,
			StartTime: chain.StartTime,
			EndTime:   end,
			StepCount: len(chain.Steps),
		})
		chain.mu.Unlock()
	}
	return out
}

func (m *Manager) evictOldestLocked() {
	var oldest *Chain
	for _, chain := range m.chains {
		if oldest == nil || chain.created.Before(oldest.created) {
			oldest = chain
		}
	}
	if oldest == nil {
		return
	}
	delete(m.chains, oldest.ChainID)
	slog.Debug("Evicted oldest reasoning chain", "chain_id", oldest.ChainID, "start_time", oldest.StartTime)
}
