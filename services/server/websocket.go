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
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/AleutianAI/reasongraph/services/reasoning"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleWatch streams chain step events to the client as JSON frames.
// An optional chainId query parameter narrows the stream to one chain.
func (s *Server) handleWatch(c *gin.Context) {
	chainID := c.Query("chainId")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("Failed to upgrade websocket", "error", err)
		return
	}
	defer ws.Close()

	events, cancel := s.engine.Context().Chains.Watch(reasoning.DefaultWatchBuffer)
	defer cancel()

	// The read loop only detects the client going away. Incoming
	// frames are discarded.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	s.logger.Info("Watch client connected", "chain_id", chainID)
	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if chainID != "" && ev.ChainID != chainID {
				continue
			}
			if err := ws.WriteJSON(ev); err != nil {
				slog.Warn("Failed to write watch event", "error", err)
				return
			}
		}
	}
}
