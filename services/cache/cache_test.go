// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{}

func (failingStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, errors.New("store offline")
}

func (failingStore) Put(ctx context.Context, key string, value []byte) error {
	return errors.New("store offline")
}

func newTestCache(t *testing.T, opts ...Option) (*QueryCache, *BadgerStore) {
	t.Helper()
	store, err := NewBadgerStore(InMemoryBadgerConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return New(store, opts...), store
}

// Identical inputs always map to the same key
func TestFingerprint_Deterministic(t *testing.T) {
	first := Fingerprint("what is due", []string{"CS229", "HS103"})
	second := Fingerprint("what is due", []string{"CS229", "HS103"})

	assert.Equal(t, first, second)
	assert.Len(t, first, 32)
}

// Any change to the query or context produces a different key
func TestFingerprint_ContextSensitive(t *testing.T) {
	base := Fingerprint("what is due", []string{"CS229", "HS103"})

	assert.NotEqual(t, base, Fingerprint("what is due?", []string{"CS229", "HS103"}))
	assert.NotEqual(t, base, Fingerprint("what is due", []string{"HS103", "CS229"}))
	assert.NotEqual(t, base, Fingerprint("what is due", []string{"CS229"}))

	// Boundaries stay unambiguous when content shifts between parts.
	assert.NotEqual(t, Fingerprint("ab", []string{"c"}), Fingerprint("a", []string{"bc"}))
}

func TestFingerprint_NilAndEmptyContextAgree(t *testing.T) {
	assert.Equal(t, Fingerprint("q", nil), Fingerprint("q", []string{}))
}

func TestEntry_Expired(t *testing.T) {
	now := time.Now()
	fresh := Entry{CachedAt: now.Add(-30 * time.Minute).Unix()}
	stale := Entry{CachedAt: now.Add(-2 * time.Hour).Unix()}

	assert.False(t, fresh.Expired(now, time.Hour))
	assert.True(t, stale.Expired(now, time.Hour))

	// Zero TTL disables expiry entirely.
	assert.False(t, stale.Expired(now, 0))
}

func TestQueryCache_PutGet(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	courses := []string{"CS229"}

	cache.Put(ctx, "what is due", courses, json.RawMessage(`{"answer":"the problem set"}`))

	value, ok := cache.Get(ctx, "what is due", courses)
	require.True(t, ok)
	assert.JSONEq(t, `{"answer":"the problem set"}`, string(value))
}

func TestQueryCache_GetMissing(t *testing.T) {
	cache, _ := newTestCache(t)

	value, ok := cache.Get(context.Background(), "never asked", nil)
	assert.False(t, ok)
	assert.Nil(t, value)
}

// An expired entry stops being served but stays in the store until
// the next Put overwrites it
func TestQueryCache_ExpiredEntryMissesButStays(t *testing.T) {
	cache, store := newTestCache(t, WithTTL(time.Hour))
	ctx := context.Background()
	key := Fingerprint("old question", nil)

	stale := Entry{
		Key:      key,
		CachedAt: time.Now().Add(-2 * time.Hour).Unix(),
		Value:    json.RawMessage(`{"answer":"stale"}`),
	}
	data, err := json.Marshal(stale)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, key, data))

	_, ok := cache.Get(ctx, "old question", nil)
	assert.False(t, ok)

	_, stillThere, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, stillThere)

	cache.Put(ctx, "old question", nil, json.RawMessage(`{"answer":"fresh"}`))
	value, ok := cache.Get(ctx, "old question", nil)
	require.True(t, ok)
	assert.JSONEq(t, `{"answer":"fresh"}`, string(value))
}

func TestQueryCache_CorruptEntryIsMiss(t *testing.T) {
	cache, store := newTestCache(t)
	ctx := context.Background()
	key := Fingerprint("corrupted", nil)

	require.NoError(t, store.Put(ctx, key, []byte("not json")))

	_, ok := cache.Get(ctx, "corrupted", nil)
	assert.False(t, ok)
}

// Store failures degrade to misses and dropped writes, never errors
func TestQueryCache_StoreFailuresAreMisses(t *testing.T) {
	var buf bytes.Buffer
	cache := New(failingStore{}, WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	ctx := context.Background()

	_, ok := cache.Get(ctx, "anything", nil)
	assert.False(t, ok)
	cache.Put(ctx, "anything", nil, json.RawMessage(`{"answer":"lost"}`))

	assert.Contains(t, buf.String(), "Cache read failed")
	assert.Contains(t, buf.String(), "Cache write failed")
}

func TestQueryCache_GetOrCompute(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	var computes int
	compute := func(ctx context.Context) (json.RawMessage, error) {
		computes++
		return json.RawMessage(`{"answer":"computed"}`), nil
	}

	value, cached, err := cache.GetOrCompute(ctx, "fresh question", nil, compute)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.JSONEq(t, `{"answer":"computed"}`, string(value))
	assert.Equal(t, 1, computes)

	value, cached, err = cache.GetOrCompute(ctx, "fresh question", nil, compute)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.JSONEq(t, `{"answer":"computed"}`, string(value))
	assert.Equal(t, 1, computes)
}

// Compute errors propagate and are not cached, so callers retry
func TestQueryCache_GetOrComputeError(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	var computes int
	computeErr := errors.New("pipeline down")
	compute := func(ctx context.Context) (json.RawMessage, error) {
		computes++
		return nil, computeErr
	}

	_, _, err := cache.GetOrCompute(ctx, "failing question", nil, compute)
	require.ErrorIs(t, err, computeErr)

	_, ok := cache.Get(ctx, "failing question", nil)
	assert.False(t, ok)

	_, _, err = cache.GetOrCompute(ctx, "failing question", nil, compute)
	require.ErrorIs(t, err, computeErr)
	assert.Equal(t, 2, computes)
}

// Concurrent callers for the same fingerprint share one computation
func TestQueryCache_GetOrComputeCollapses(t *testing.T) {
	cache, _ := newTestCache(t)

	var computes atomic.Int64
	compute := func(ctx context.Context) (json.RawMessage, error) {
		computes.Add(1)
		time.Sleep(50 * time.Millisecond)
		return json.RawMessage(`{"answer":"shared"}`), nil
	}

	var wg sync.WaitGroup
	results := make([]json.RawMessage, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			value, _, err := cache.GetOrCompute(context.Background(), "popular question", nil, compute)
			assert.NoError(t, err)
			results[i] = value
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), computes.Load())
	for _, value := range results {
		assert.JSONEq(t, `{"answer":"shared"}`, string(value))
	}
}

func TestQueryCache_Stats(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	cache.Put(ctx, "q", nil, json.RawMessage(`{}`))
	cache.Get(ctx, "q", nil)
	cache.Get(ctx, "missing", nil)

	stats := cache.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 50.0, stats.HitRate(), 0.001)

	assert.Equal(t, 0.0, Stats{}.HitRate())
}
