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
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"
)

// ExportJSON serializes the chain to indented JSON.
//
// The shape is stable: chainId, query, steps (stepId, stepType,
// description, inputs, outputs, timestamp, confidence, durationMs),
// startTime, endTime, metadata. Exporting the same chain twice yields
// identical bytes.
func ExportJSON(chain *Chain) ([]byte, error) {
	if chain == nil {
		return nil, ErrNilChain
	}
	data, err := json.MarshalIndent(chain.snapshot(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export chain: %w", err)
	}
	return data, nil
}

// ImportJSON rebuilds a chain from a previously exported snapshot.
//
// Step types are validated against the known set and absent inputs,
// outputs, and metadata come back as empty rather than nil, so an
// imported chain behaves like a locally built one. Returns
// ErrMalformedChain (wrapped) when the data does not decode or fails
// validation.
func ImportJSON(data []byte) (*Chain, error) {
	var in Chain
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedChain, err)
	}
	if in.ChainID == "" {
		return nil, fmt.Errorf("%w: missing chain id", ErrMalformedChain)
	}
	if in.Steps == nil {
		in.Steps = make([]*Step, 0)
	}
	for i, step := range in.Steps {
		if step == nil {
			return nil, fmt.Errorf("%w: null step at index %d", ErrMalformedChain, i)
		}
		if !step.Type.Known() {
			return nil, fmt.Errorf("%w: unknown step type %q", ErrMalformedChain, step.Type)
		}
		if step.Inputs == nil {
			step.Inputs = Payload{}
		}
		if step.Outputs == nil {
			step.Outputs = Payload{}
		}
	}
	if in.Metadata == nil {
		in.Metadata = make(map[string]any)
	}
	if t, err := time.Parse(time.RFC3339Nano, in.StartTime); err == nil {
		in.created = t
	}
	return &in, nil
}

// chainFile is the on-disk shape holding every chain a Manager knows.
type chainFile struct {
	Chains []*Chain `json:"chains"`
}

// SaveFile writes all stored chains to path as one JSON document.
func (m *Manager) SaveFile(path string) error {
	m.mu.Lock()
	chains := make([]*Chain, 0, len(m.chains))
	for _, chain := range m.chains {
		chains = append(chains, chain)
	}
	m.mu.Unlock()

	file := chainFile{Chains: make([]*Chain, 0, len(chains))}
	for _, chain := range chains {
		file.Chains = append(file.Chains, chain.snapshot())
	}
	sort.Slice(file.Chains, func(i, j int) bool {
		a, b := file.Chains[i], file.Chains[j]
		if a.created.Equal(b.created) {
			return a.ChainID < b.ChainID
		}
		return a.created.Before(b.created)
	})

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("save chains: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save chains: %w", err)
	}
	return nil
}

// LoadFile replaces the stored chains with the contents of path.
// Either every chain in the file loads or none do.
func (m *Manager) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("load chains: %w", err)
	}

	var file struct {
		Chains []json.RawMessage `json:"chains"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedChain, err)
	}

	chains := make(map[string]*Chain, len(file.Chains))
	for _, raw := range file.Chains {
		chain, err := ImportJSON(raw)
		if err != nil {
			return fmt.Errorf("load chains: %w", err)
		}
		chains[chain.ChainID] = chain
	}

	m.mu.Lock()
	m.chains = chains
	m.mu.Unlock()
	return nil
}
