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
	"sync"

	"github.com/google/uuid"
)

// DefaultWatchBuffer is the per-watcher event buffer used when Watch
// is called with a non-positive size.
const DefaultWatchBuffer = 64

// StepEvent is one live notification from a chain this manager
// created. A nil Step with Completed false announces a new chain; a
// non-nil Step carries a finalized step; Completed true marks the end
// of the chain.
type StepEvent struct {
	ChainID   string `json:"chainId"`
	Query     string `json:"query"`
	Step      *Step  `json:"step,omitempty"`
	Completed bool   `json:"completed"`
}

// Watch registers a live feed of chain events.
//
// Events are delivered with a non-blocking send: a receiver that falls
// more than buffer events behind misses the overflow rather than
// stalling chain recording. cancel unregisters the watcher and closes
// the channel; it is safe to call more than once.
func (m *Manager) Watch(buffer int) (events <-chan StepEvent, cancel func()) {
	if buffer <= 0 {
		buffer = DefaultWatchBuffer
	}
	ch := make(chan StepEvent, buffer)
	id := uuid.NewString()

	m.watchMu.Lock()
	if m.watchers == nil {
		m.watchers = make(map[string]chan StepEvent)
	}
	m.watchers[id] = ch
	m.watchMu.Unlock()

	var once sync.Once
	cancel = func() {
		once.Do(func() {
			m.watchMu.Lock()
			delete(m.watchers, id)
			m.watchMu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// broadcast fans an event out to every watcher. Sends happen under the
// watcher lock so a concurrent cancel cannot close a channel while a
// send is in flight.
func (m *Manager) broadcast(event StepEvent) {
	m.watchMu.Lock()
	defer m.watchMu.Unlock()
	for _, ch := range m.watchers {
		select {
		case ch <- event:
		default:
		}
	}
}
