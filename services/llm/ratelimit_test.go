// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

// countingClient records calls and returns a fixed response or error.
type countingClient struct {
	calls    int
	response string
	err      error
}

func (c *countingClient) Generate(_ context.Context, _ string, _ GenerationParams) (string, error) {
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	return c.response, nil
}

func TestRateLimitedClientPassesThrough(t *testing.T) {
	t.Parallel()

	inner := &countingClient{response: "answer"}
	client := NewRateLimitedClient(inner, 100, 10)

	got, err := client.Generate(context.Background(), "p", GenerationParams{})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if got != "answer" {
		t.Errorf("Generate = %q, expected %q", got, "answer")
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, expected 1", inner.calls)
	}
}

func TestRateLimitedClientPropagatesErrors(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("backend down")
	client := NewRateLimitedClient(&countingClient{err: wantErr}, 100, 10)

	_, err := client.Generate(context.Background(), "p", GenerationParams{})
	if !errors.Is(err, wantErr) {
		t.Errorf("Generate error = %v, expected to wrap %v", err, wantErr)
	}
}

func TestRateLimitedClientHonorsContext(t *testing.T) {
	t.Parallel()

	inner := &countingClient{response: "answer"}
	client := NewRateLimitedClient(inner, 0.001, 1)

	// First call consumes the burst token.
	if _, err := client.Generate(context.Background(), "p", GenerationParams{}); err != nil {
		t.Fatalf("first Generate returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Generate(ctx, "p", GenerationParams{})
	if err == nil {
		t.Fatal("second Generate succeeded despite an exhausted limiter")
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, expected 1", inner.calls)
	}
}

func TestRateLimitedClientRaisesZeroBurst(t *testing.T) {
	t.Parallel()

	inner := &countingClient{response: "answer"}
	client := NewRateLimitedClient(inner, 1, 0)

	if _, err := client.Generate(context.Background(), "p", GenerationParams{}); err != nil {
		t.Fatalf("Generate returned error with zero burst: %v", err)
	}
}
