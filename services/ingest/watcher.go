// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatcherOptions configures a Watcher.
type WatcherOptions struct {
	// Debounce is the quiet window after the last event before a
	// reload runs. Editors emit bursts of writes per save; the window
	// coalesces them into one reload.
	Debounce time.Duration

	// Buffer is the pending-event channel capacity. Events beyond it
	// are dropped with a warning.
	Buffer int
}

// DefaultWatcherOptions returns the standard watcher tuning.
func DefaultWatcherOptions() WatcherOptions {
	return WatcherOptions{
		Debounce: 500 * time.Millisecond,
		Buffer:   256,
	}
}

// Watcher reloads concept files when they change on disk.
//
// It watches a single directory (not subdirectories), debounces the
// raw filesystem events, and then re-ingests each changed file that
// still exists and evicts the index entries of each one that does not.
type Watcher struct {
	loader   *Loader
	dir      string
	fsw      *fsnotify.Watcher
	debounce time.Duration
	logger   *slog.Logger

	changes chan string
	done    chan struct{}

	mu       sync.Mutex
	watching bool
	stopOnce sync.Once
}

// NewWatcher builds a Watcher over dir. The watcher does not perform
// an initial load; call Loader.LoadDir first.
func NewWatcher(loader *Loader, dir string, opts WatcherOptions) (*Watcher, error) {
	if loader == nil {
		return nil, errors.New("ingest: loader is required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultWatcherOptions().Debounce
	}
	if opts.Buffer <= 0 {
		opts.Buffer = DefaultWatcherOptions().Buffer
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create filesystem watcher: %w", err)
	}

	return &Watcher{
		loader:   loader,
		dir:      dir,
		fsw:      fsw,
		debounce: opts.Debounce,
		logger:   loader.logger,
		changes:  make(chan string, opts.Buffer),
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching. It returns once the directory is registered;
// reloads run on background goroutines until Stop is called or ctx is
// cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watching {
		return errors.New("ingest: watcher already started")
	}

	if err := w.fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.watching = true

	go w.forwardEvents(ctx)
	go w.debounceLoop(ctx)

	w.logger.Info("Watching concept directory", "dir", w.dir, "debounce", w.debounce)
	return nil
}

// Stop ends watching and releases the filesystem watcher. Safe to
// call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("Closing filesystem watcher failed", "error", err)
		}
	})
}

// forwardEvents filters raw filesystem events down to concept-file
// changes and feeds them to the debounce loop.
func (w *Watcher) forwardEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			select {
			case w.changes <- event.Name:
			default:
				w.logger.Warn("Change buffer full, dropping event", "path", event.Name)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Filesystem watcher error", "error", err)
		}
	}
}

// relevant reports whether an event should trigger a reload.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !isConceptFile(event.Name) {
		return false
	}
	return event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Remove) ||
		event.Has(fsnotify.Rename)
}

// debounceLoop coalesces change paths and flushes them after a quiet
// window.
func (w *Watcher) debounceLoop(ctx context.Context) {
	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case path := <-w.changes:
			pending[path] = struct{}{}
			timer.Reset(w.debounce)
		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			paths := make([]string, 0, len(pending))
			for path := range pending {
				paths = append(paths, path)
			}
			clear(pending)
			slices.Sort(paths)
			w.flush(ctx, paths)
		}
	}
}

// flush re-ingests each changed file, or evicts its index entries when
// the file is gone. A rename shows up as the old path vanishing and
// the new one appearing, so stat decides which side each path is on.
func (w *Watcher) flush(ctx context.Context, paths []string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			evicted := w.loader.RemoveFile(path)
			w.logger.Info("Concept file removed",
				"file", filepath.Base(path), "evicted", evicted)
			continue
		}

		report, err := w.loader.LoadFile(ctx, path)
		if err != nil {
			w.logger.Warn("Reloading concept file failed",
				"file", filepath.Base(path), "error", err)
			continue
		}
		w.logger.Info("Concept file reloaded",
			"file", filepath.Base(path),
			"concepts", report.Concepts,
			"chunks", report.Chunks)
	}
}
