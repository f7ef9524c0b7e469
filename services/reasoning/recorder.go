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
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("reasongraph.reasoning")

// RecordStep runs op and records it as one step on the chain.
//
// # Description
//
//	The step is appended with a copy of the inputs before op runs, then
//	finalized once op returns: on success the outputs carry the result
//	(or just its type name when the result has no direct
//	representation), on failure they carry the error message. Both
//	paths set DurationMs. Recording never changes control flow: the
//	caller sees exactly the value and error op produced, and a nil
//	chain simply runs the operation unrecorded.
//
// # Inputs
//
//	ctx - Context passed through to op; also carries the step span.
//	chain - Chain to record on. May be nil.
//	stepType - Classification of the step.
//	description - Human-readable account of what the step does.
//	inputs - Values the operation starts from. May be nil.
//	op - The operation itself.
//
// # Outputs
//
//	T - op's result, unchanged.
//	error - op's error, unchanged.
func RecordStep[T any](ctx context.Context, chain *Chain, stepType StepType, description string, inputs Payload, op func(ctx context.Context) (T, error)) (T, error) {
	if chain == nil {
		return op(ctx)
	}

	ctx, span := tracer.Start(ctx, "RecordStep")
	defer span.End()
	span.SetAttributes(
		attribute.String("chain_id", chain.ChainID),
		attribute.String("step_type", string(stepType)),
	)

	step := &Step{
		Type:        stepType,
		Description: description,
		Inputs:      clonePayload(inputs),
		Outputs:     Payload{},
		Timestamp:   time.Now().UTC().Format(time.RFC3339Nano),
	}
	chain.AddStep(step)

	start := time.Now()
	result, err := op(ctx)
	duration := time.Since(start).Milliseconds()

	chain.mu.Lock()
	step.DurationMs = &duration
	switch {
	case err != nil:
		step.Outputs = Payload{"error": String(err.Error())}
	default:
		if v, ok := valueOf(result); ok {
			step.Outputs = Payload{"result": v}
		} else {
			step.Outputs = Payload{"resultType": TypeNameOf(result)}
		}
	}
	chain.mu.Unlock()

	chain.emitStep(step)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		var zero T
		return zero, err
	}
	return result, nil
}
