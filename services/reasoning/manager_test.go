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
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// New chains come back registered, timestamped, and empty
func TestManager_CreateChain(t *testing.T) {
	m := NewManager(10)

	chain := m.CreateChain("what is due this week")
	require.NotNil(t, chain)

	_, err := uuid.Parse(chain.ChainID)
	assert.NoError(t, err, "chain id should be a uuid")
	_, err = time.Parse(time.RFC3339Nano, chain.StartTime)
	assert.NoError(t, err)

	assert.Equal(t, "what is due this week", chain.Query)
	assert.NotNil(t, chain.Steps)
	assert.Empty(t, chain.Steps)
	assert.NotNil(t, chain.Metadata)
	assert.Nil(t, chain.EndTime)

	assert.Same(t, chain, m.Get(chain.ChainID))
}

// Lookups for unknown ids return nil, not an error
func TestManager_GetMissing(t *testing.T) {
	m := NewManager(10)
	assert.Nil(t, m.Get("no-such-chain"))
}

// Insertion past capacity drops the chain with the oldest start
func TestManager_EvictsOldestWhenFull(t *testing.T) {
	m := NewManager(2)

	first := m.CreateChain("first")
	time.Sleep(time.Millisecond)
	second := m.CreateChain("second")
	time.Sleep(time.Millisecond)
	third := m.CreateChain("third")

	assert.Nil(t, m.Get(first.ChainID), "oldest chain should be evicted")
	assert.NotNil(t, m.Get(second.ChainID))
	assert.NotNil(t, m.Get(third.ChainID))
	assert.Len(t, m.List(), 2)
}

// A non-positive limit falls back to the default capacity
func TestManager_DefaultCapacity(t *testing.T) {
	m := NewManager(0)

	for i := 0; i < DefaultMaxChains+1; i++ {
		m.CreateChain("q")
	}
	assert.Len(t, m.List(), DefaultMaxChains)
}

// Summaries list oldest first and reflect chain state
func TestManager_List(t *testing.T) {
	m := NewManager(10)

	first := m.CreateChain("first query")
	time.Sleep(time.Millisecond)
	second := m.CreateChain("second query")

	first.AddStep(&Step{Type: StepQueryAnalysis})
	first.AddStep(&Step{Type: StepAnswerFormulation})
	first.Complete()

	summaries := m.List()
	require.Len(t, summaries, 2)

	assert.Equal(t, first.ChainID, summaries[0].ChainID)
	assert.Equal(t, "first query", summaries[0].Query)
	assert.Equal(t, 2, summaries[0].StepCount)
	require.NotNil(t, summaries[0].EndTime)

	assert.Equal(t, second.ChainID, summaries[1].ChainID)
	assert.Equal(t, 0, summaries[1].StepCount)
	assert.Nil(t, summaries[1].EndTime)
}

// An empty manager lists an empty slice
func TestManager_ListEmpty(t *testing.T) {
	m := NewManager(10)
	assert.Empty(t, m.List())
}
