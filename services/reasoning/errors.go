// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package reasoning records the step-by-step trail behind every answer
// the system produces.
//
// A Chain is an append-only sequence of typed Steps. RecordStep wraps
// an arbitrary operation so its inputs, outputs, duration, and failure
// mode land on the chain without changing what the operation returns.
// A Manager holds recent chains with a bounded capacity, and a chain
// can be rendered as text, markdown, or a self-contained HTML page, or
// serialized to a stable JSON shape that survives a round trip.
//
// # Recording Semantics
//
// Recording is observability, not control flow: a failed operation
// still returns its original error, a nil chain means the operation
// runs unrecorded, and a chain with no EndTime reads as in progress.
//
// # Thread Safety
//
// Chains and the Manager are safe for concurrent use. Steps within one
// chain are expected to be recorded sequentially; concurrent readers
// (listing, export, visualization) see a consistent snapshot.
package reasoning

import "errors"

// Sentinel errors for chain operations.
var (
	// ErrUnsupportedFormat is returned by Visualize for a format it
	// does not know how to render.
	ErrUnsupportedFormat = errors.New("unsupported visualization format")

	// ErrMalformedChain is returned when ImportJSON receives data that
	// does not decode into the export shape.
	ErrMalformedChain = errors.New("malformed reasoning chain")

	// ErrNilChain is returned by operations that require a chain.
	ErrNilChain = errors.New("nil reasoning chain")
)
