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
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

// A successful operation lands as a step carrying its result
func TestRecordStep_Success(t *testing.T) {
	m := NewManager(10)
	chain := m.CreateChain("why is the sky blue")
	inputs := Payload{"query": String("why is the sky blue")}

	result, err := RecordStep(context.Background(), chain, StepQueryAnalysis, "Analyzing query", inputs,
		func(ctx context.Context) (string, error) {
			return "factual question", nil
		})
	require.NoError(t, err)
	assert.Equal(t, "factual question", result)

	require.Equal(t, 1, chain.StepCount())
	step := chain.Steps[0]
	assert.Equal(t, chain.ChainID+"_step_1", step.StepID)
	assert.Equal(t, StepQueryAnalysis, step.Type)
	assert.Equal(t, "Analyzing query", step.Description)
	assert.JSONEq(t, `{"query":"why is the sky blue"}`, mustJSON(t, step.Inputs))
	assert.JSONEq(t, `{"result":"factual question"}`, mustJSON(t, step.Outputs))
	require.NotNil(t, step.DurationMs)
	assert.GreaterOrEqual(t, *step.DurationMs, int64(0))
	_, err = time.Parse(time.RFC3339Nano, step.Timestamp)
	assert.NoError(t, err)
	assert.Zero(t, step.Confidence)
}

// Slice results are representable directly
func TestRecordStep_SliceResult(t *testing.T) {
	m := NewManager(10)
	chain := m.CreateChain("list courses")

	result, err := RecordStep(context.Background(), chain, StepKnowledgeSearch, "Searching", nil,
		func(ctx context.Context) ([]string, error) {
			return []string{"CS229", "HS103"}, nil
		})
	require.NoError(t, err)
	assert.Equal(t, []string{"CS229", "HS103"}, result)
	assert.JSONEq(t, `{"result":["CS229","HS103"]}`, mustJSON(t, chain.Steps[0].Outputs))
}

// Results with no direct representation record only their type name
func TestRecordStep_UnrepresentableResult(t *testing.T) {
	type rankedDoc struct {
		ID       string
		Distance float64
	}

	m := NewManager(10)
	chain := m.CreateChain("rank docs")

	result, err := RecordStep(context.Background(), chain, StepRelevanceRanking, "Ranking", nil,
		func(ctx context.Context) (*rankedDoc, error) {
			return &rankedDoc{ID: "d1", Distance: 0.2}, nil
		})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "d1", result.ID)

	assert.JSONEq(t, `{"resultType":"*reasoning.rankedDoc"}`, mustJSON(t, chain.Steps[0].Outputs))
}

// A failing operation records the error and returns it unchanged
func TestRecordStep_Error(t *testing.T) {
	m := NewManager(10)
	chain := m.CreateChain("broken")
	opErr := errors.New("backend down")

	result, err := RecordStep(context.Background(), chain, StepKnowledgeSearch, "Searching", Payload{"q": String("x")},
		func(ctx context.Context) (string, error) {
			return "ignored", opErr
		})
	require.ErrorIs(t, err, opErr)
	assert.Empty(t, result, "failed operations return the zero value")

	step := chain.Steps[0]
	assert.JSONEq(t, `{"error":"backend down"}`, mustJSON(t, step.Outputs))
	require.NotNil(t, step.DurationMs, "duration is recorded on the error path too")
}

// No chain means the operation simply runs unrecorded
func TestRecordStep_NilChain(t *testing.T) {
	ran := false
	result, err := RecordStep(context.Background(), nil, StepQueryAnalysis, "unrecorded", nil,
		func(ctx context.Context) (int, error) {
			ran = true
			return 7, nil
		})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, 7, result)
}

// The operation sees the caller's context values
func TestRecordStep_ContextPassthrough(t *testing.T) {
	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "carried")

	m := NewManager(10)
	chain := m.CreateChain("ctx")

	_, err := RecordStep(ctx, chain, StepFactVerification, "Verifying", nil,
		func(ctx context.Context) (string, error) {
			assert.Equal(t, "carried", ctx.Value(ctxKey{}))
			return "", nil
		})
	require.NoError(t, err)
}

// Caller mutations after recording do not leak into the step
func TestRecordStep_InputIsolation(t *testing.T) {
	m := NewManager(10)
	chain := m.CreateChain("isolation")
	inputs := Payload{"query": String("original")}

	_, err := RecordStep(context.Background(), chain, StepQueryAnalysis, "Analyzing", inputs,
		func(ctx context.Context) (string, error) { return "ok", nil })
	require.NoError(t, err)

	inputs["query"] = String("mutated")
	inputs["extra"] = Int(1)

	assert.JSONEq(t, `{"query":"original"}`, mustJSON(t, chain.Steps[0].Inputs))
}

// A mid-pipeline failure leaves the earlier steps in place and the
// caller's error handler completes the chain
func TestRecordStep_FailureThenCallerCompletes(t *testing.T) {
	m := NewManager(10)
	chain := m.CreateChain("pipeline")
	ctx := context.Background()

	_, err := RecordStep(ctx, chain, StepQueryAnalysis, "Analyzing", nil,
		func(ctx context.Context) (string, error) { return "analysis", nil })
	require.NoError(t, err)

	_, err = RecordStep(ctx, chain, StepKnowledgeSearch, "Searching", nil,
		func(ctx context.Context) (string, error) {
			return "", errors.New("search exploded")
		})
	require.Error(t, err)
	chain.Complete()

	assert.Equal(t, 2, chain.StepCount())
	assert.True(t, chain.Completed())
	assert.JSONEq(t, `{"error":"search exploded"}`, mustJSON(t, chain.Steps[1].Outputs))
	assert.JSONEq(t, `{"result":"analysis"}`, mustJSON(t, chain.Steps[0].Outputs))
}
