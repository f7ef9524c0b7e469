// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package server

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/reasongraph/services/reasoning"
)

// dialWatch connects a websocket client to the watch endpoint of a
// test server. The pause afterwards lets the handler register its
// watcher before the test emits events.
func dialWatch(t *testing.T, s *Server, query string) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/watch" + query
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })

	time.Sleep(150 * time.Millisecond)
	return ws
}

func readEvent(t *testing.T, ws *websocket.Conn) reasoning.StepEvent {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(3*time.Second)))
	var ev reasoning.StepEvent
	require.NoError(t, ws.ReadJSON(&ev))
	return ev
}

func TestHandleWatch_StreamsChainLifecycle(t *testing.T) {
	s := newTestServer(t)
	ws := dialWatch(t, s, "")

	chains := s.engine.Context().Chains
	chain := chains.CreateChain("how do b-trees balance?")

	ev := readEvent(t, ws)
	assert.Equal(t, chain.ChainID, ev.ChainID)
	assert.Equal(t, "how do b-trees balance?", ev.Query)
	assert.Nil(t, ev.Step)
	assert.False(t, ev.Completed)

	_, err := reasoning.RecordStep(context.Background(), chain,
		reasoning.StepQueryAnalysis, "Inspecting the question",
		reasoning.Payload{"query": reasoning.String("how do b-trees balance?")},
		func(ctx context.Context) (string, error) { return "done", nil })
	require.NoError(t, err)

	ev = readEvent(t, ws)
	assert.Equal(t, chain.ChainID, ev.ChainID)
	require.NotNil(t, ev.Step)
	assert.Equal(t, reasoning.StepQueryAnalysis, ev.Step.Type)
	assert.False(t, ev.Completed)

	chain.Complete()

	ev = readEvent(t, ws)
	assert.Equal(t, chain.ChainID, ev.ChainID)
	assert.Nil(t, ev.Step)
	assert.True(t, ev.Completed)
}

func TestHandleWatch_FiltersByChainID(t *testing.T) {
	s := newTestServer(t)
	chains := s.engine.Context().Chains
	watched := chains.CreateChain("watched query")
	other := chains.CreateChain("other query")

	ws := dialWatch(t, s, "?chainId="+watched.ChainID)

	// The other chain's events must not reach this client.
	other.Complete()
	watched.Complete()

	ev := readEvent(t, ws)
	assert.Equal(t, watched.ChainID, ev.ChainID)
	assert.True(t, ev.Completed)
}

func TestHandleWatch_QueryPipelineStreams(t *testing.T) {
	s := newTestServer(t)
	ws := dialWatch(t, s, "")

	postQuery(t, s, "what is memoization?")

	// Announcement, six steps, completion.
	sawSteps := 0
	var completed bool
	for i := 0; i < 8; i++ {
		ev := readEvent(t, ws)
		if ev.Step != nil {
			sawSteps++
		}
		completed = ev.Completed
	}
	assert.Equal(t, 6, sawSteps)
	assert.True(t, completed)
}
