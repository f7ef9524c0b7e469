// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ingest loads course concept files into the knowledge graph
// and the semantic index.
//
// A concept file is a YAML document describing the concepts of one
// course: each concept carries a description plus optional related
// concepts, prerequisites, and resources. Descriptions longer than the
// chunk size are split before embedding so each indexed item stays
// within a useful retrieval window. Re-ingesting a file evicts the
// items it produced earlier, so edits converge instead of accumulating.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/reasongraph/services/graph"
	"github.com/AleutianAI/reasongraph/services/semantic"
)

const (
	// DefaultChunkSize is the target chunk length in characters for
	// long concept descriptions.
	DefaultChunkSize = 1000

	// DefaultChunkOverlap keeps 10% continuity between adjacent chunks.
	DefaultChunkOverlap = DefaultChunkSize / 10
)

// conceptSeparators orders split points from strongest to weakest:
// paragraph breaks, line breaks, word breaks, then raw characters.
var conceptSeparators = []string{"\n\n", "\n", " ", ""}

// ConceptFile is the on-disk format for one course's concept set.
type ConceptFile struct {
	Course   string    `yaml:"course"`
	Concepts []Concept `yaml:"concepts"`
}

// Concept describes a single teachable idea within a course.
type Concept struct {
	Name          string   `yaml:"name"`
	Description   string   `yaml:"description"`
	Related       []string `yaml:"related"`
	Prerequisites []string `yaml:"prerequisites"`
	Resources     []string `yaml:"resources"`
}

// Report tallies what one ingestion pass produced.
type Report struct {
	Files    int `json:"files"`
	Concepts int `json:"concepts"`
	Chunks   int `json:"chunks"`
	Edges    int `json:"edges"`
}

func (r *Report) merge(other Report) {
	r.Files += other.Files
	r.Concepts += other.Concepts
	r.Chunks += other.Chunks
	r.Edges += other.Edges
}

// LoaderOptions configures NewLoader. Zero-value fields fall back to
// defaults; a nil Embedder leaves indexed items without vectors.
type LoaderOptions struct {
	Graph         *graph.Graph
	Index         *semantic.Index
	Embedder      semantic.Embedder
	Logger        *slog.Logger
	ChunkSize     int
	ChunkOverlap  int
	MaxConcurrent int
}

// Loader parses concept files and populates the graph and the index.
type Loader struct {
	graph         *graph.Graph
	index         *semantic.Index
	embedder      semantic.Embedder
	splitter      textsplitter.RecursiveCharacter
	chunkSize     int
	maxConcurrent int
	logger        *slog.Logger
}

// NewLoader builds a Loader.
func NewLoader(opts LoaderOptions) *Loader {
	if opts.Graph == nil {
		opts.Graph = graph.New()
	}
	if opts.Index == nil {
		opts.Index = semantic.NewIndex()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default().With(slog.String("component", "ingest"))
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.ChunkOverlap <= 0 {
		opts.ChunkOverlap = opts.ChunkSize / 10
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = semantic.DefaultEmbedConcurrency
	}

	return &Loader{
		graph:    opts.Graph,
		index:    opts.Index,
		embedder: opts.Embedder,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(opts.ChunkSize),
			textsplitter.WithChunkOverlap(opts.ChunkOverlap),
			textsplitter.WithSeparators(conceptSeparators),
		),
		chunkSize:     opts.ChunkSize,
		maxConcurrent: opts.MaxConcurrent,
		logger:        opts.Logger,
	}
}

// LoadDir ingests every concept file directly under dir. Files that
// fail to ingest are skipped and their errors joined into the returned
// error; the report counts what succeeded.
func (l *Loader) LoadDir(ctx context.Context, dir string) (Report, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Report{}, fmt.Errorf("read concepts dir: %w", err)
	}

	var (
		report Report
		errs   []error
	)
	for _, entry := range entries {
		if entry.IsDir() || !isConceptFile(entry.Name()) {
			continue
		}
		rep, err := l.LoadFile(ctx, filepath.Join(dir, entry.Name()))
		if err != nil {
			l.logger.Warn("Skipping concept file", "file", entry.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", entry.Name(), err))
			continue
		}
		report.merge(rep)
	}

	l.logger.Info("Concept directory ingested",
		"dir", dir,
		"files", report.Files,
		"concepts", report.Concepts,
		"chunks", report.Chunks,
		"failed", len(errs))
	return report, errors.Join(errs...)
}

// LoadFile ingests one concept file.
//
// Description:
//
//	Parses the YAML, writes concept nodes and relationship edges into
//	the graph, splits long descriptions, embeds the chunks, and swaps
//	the file's items into the index. The swap happens last: when
//	embedding fails the index keeps whatever an earlier ingest of this
//	file produced. Graph writes are idempotent by node id, so repeated
//	loads converge there too.
//
// Inputs:
//
//	ctx - Governs embedding calls.
//	path - Concept file location. The base name keys index eviction.
//
// Outputs:
//
//	A report for this file, or an error when the file cannot be read,
//	parsed, or embedded.
func (l *Loader) LoadFile(ctx context.Context, path string) (Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Report{}, fmt.Errorf("read concept file: %w", err)
	}

	var file ConceptFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Report{}, fmt.Errorf("parse concept file %s: %w", filepath.Base(path), err)
	}

	source := filepath.Base(path)
	course := strings.TrimSpace(file.Course)
	if course == "" {
		course = strings.TrimSuffix(source, filepath.Ext(source))
	}

	report := Report{Files: 1}
	var items []semantic.Item

	l.graph.AddNode(course, course, graph.NodeCourse, nil)

	for _, concept := range file.Concepts {
		name := strings.TrimSpace(concept.Name)
		if name == "" {
			l.logger.Warn("Skipping concept without a name", "file", source)
			continue
		}
		report.Concepts++
		report.Edges += l.addConceptToGraph(name, course, source, concept)
		items = append(items, l.conceptItems(name, course, source, concept)...)
	}
	report.Chunks = len(items)

	if l.embedder != nil {
		if err := semantic.EmbedItems(ctx, l.embedder, items, l.maxConcurrent); err != nil {
			return Report{}, fmt.Errorf("embed concepts from %s: %w", source, err)
		}
	}

	l.RemoveFile(path)
	l.index.Add(items...)

	l.logger.Info("Concept file ingested",
		"file", source,
		"course", course,
		"concepts", report.Concepts,
		"chunks", report.Chunks)
	return report, nil
}

// RemoveFile evicts the index items a file produced and returns how
// many were removed. Only the index is affected; graph nodes stay.
func (l *Loader) RemoveFile(path string) int {
	source := filepath.Base(path)
	return l.index.RemoveFunc(func(item semantic.Item) bool {
		return item.Metadata["source"] == source
	})
}

// addConceptToGraph writes the concept node and its relationship
// edges, returning the number of edges added.
func (l *Loader) addConceptToGraph(name, course, source string, concept Concept) int {
	props := map[string]any{
		"course": course,
		"source": source,
	}
	if len(concept.Resources) > 0 {
		props["resources"] = concept.Resources
	}
	l.graph.AddNode(name, name, graph.NodeConcept, props)

	edges := 0
	if course != "" {
		l.graph.AddEdge(name, course, "part_of", 1.0, nil)
		edges++
	}
	for _, related := range concept.Related {
		related = strings.TrimSpace(related)
		if related == "" || related == name {
			continue
		}
		l.graph.AddEdge(name, related, "related_to", 1.0, nil)
		edges++
	}
	for _, prereq := range concept.Prerequisites {
		prereq = strings.TrimSpace(prereq)
		if prereq == "" || prereq == name {
			continue
		}
		l.graph.AddEdge(prereq, name, "prerequisite_of", 1.0, nil)
		edges++
	}
	return edges
}

// conceptItems turns a concept description into index items, chunking
// when the description exceeds the configured chunk size.
func (l *Loader) conceptItems(name, course, source string, concept Concept) []semantic.Item {
	description := strings.TrimSpace(concept.Description)
	if description == "" {
		return nil
	}

	metadata := func() map[string]string {
		return map[string]string{
			"source":  source,
			"course":  course,
			"concept": name,
		}
	}

	if len(description) <= l.chunkSize {
		return []semantic.Item{{ID: name, Text: description, Metadata: metadata()}}
	}

	chunks, err := l.splitter.SplitText(description)
	if err != nil || len(chunks) == 0 {
		l.logger.Warn("Splitting description failed, indexing it whole",
			"concept", name, "error", err)
		return []semantic.Item{{ID: name, Text: description, Metadata: metadata()}}
	}

	items := make([]semantic.Item, 0, len(chunks))
	for i, chunk := range chunks {
		items = append(items, semantic.Item{
			ID:       fmt.Sprintf("%s_part_%d", name, i+1),
			Text:     chunk,
			Metadata: metadata(),
		})
	}
	return items
}

// isConceptFile reports whether name looks like a concept file: a
// visible .yaml or .yml file.
func isConceptFile(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
