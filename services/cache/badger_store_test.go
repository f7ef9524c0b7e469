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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadgerStore_PutGetRoundTrip(t *testing.T) {
	store, err := NewBadgerStore(InMemoryBadgerConfig())
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "k1", []byte("v1")))

	value, ok, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v1"), value)
}

// A missing key is not an error
func TestBadgerStore_MissingKey(t *testing.T) {
	store, err := NewBadgerStore(InMemoryBadgerConfig())
	require.NoError(t, err)
	defer store.Close()

	value, ok, err := store.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, value)
}

func TestBadgerStore_Overwrite(t *testing.T) {
	store, err := NewBadgerStore(InMemoryBadgerConfig())
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "k1", []byte("old")))
	require.NoError(t, store.Put(ctx, "k1", []byte("new")))

	value, ok, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("new"), value)
}

func TestBadgerStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewBadgerStore(DefaultBadgerConfig(dir))
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "durable", []byte("survives")))
	require.NoError(t, store.Close())

	reopened, err := NewBadgerStore(DefaultBadgerConfig(dir))
	require.NoError(t, err)
	defer reopened.Close()

	value, ok, err := reopened.Get(ctx, "durable")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("survives"), value)
}

func TestBadgerStore_RequiresPath(t *testing.T) {
	_, err := NewBadgerStore(BadgerConfig{})
	assert.Error(t, err)
}

func TestBadgerStore_ContextCancelled(t *testing.T) {
	store, err := NewBadgerStore(InMemoryBadgerConfig())
	require.NoError(t, err)
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err = store.Get(ctx, "k1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, store.Put(ctx, "k1", []byte("v1")), context.Canceled)
}
