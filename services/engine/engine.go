// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package engine runs the reasoning pipeline over course content.
//
// A query moves through six recorded steps: analysis, knowledge
// search, relevance ranking, information extraction, answer
// formulation, and self-reflection. Every step lands on a reasoning
// chain, so the path from question to answer stays inspectable after
// the fact.
//
// The engine degrades instead of failing. A missing or erroring
// generative collaborator drops the pipeline onto keyword analysis and
// template answers; a missing or erroring search collaborator yields
// an empty result set. The only hard errors are invariant violations
// such as an empty query.
package engine

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"

	"github.com/AleutianAI/reasongraph/services/cache"
	"github.com/AleutianAI/reasongraph/services/graph"
	"github.com/AleutianAI/reasongraph/services/llm"
	"github.com/AleutianAI/reasongraph/services/reasoning"
	"github.com/AleutianAI/reasongraph/services/search"
	"github.com/AleutianAI/reasongraph/services/semantic"
)

var tracer = otel.Tracer("reasongraph.engine")

// DefaultChainLimit bounds the chain manager an Engine creates for
// itself when the caller does not supply one.
const DefaultChainLimit = 50

var (
	// ErrEmptyQuery reports a blank query.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrEmptyTopic reports a blank study-plan topic.
	ErrEmptyTopic = errors.New("topic cannot be empty")
)

// Generator produces text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, params llm.GenerationParams) (string, error)
}

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	BatchEmbed(ctx context.Context, texts []string) ([][]float32, error)
}

// Searcher retrieves course content relevant to a query.
type Searcher interface {
	Search(ctx context.Context, query string, filter *search.SearchFilter) ([]search.SearchResult, error)
}

// Context carries the collaborators every pipeline component shares.
// Components receive it by reference; there are no package globals.
type Context struct {
	Graph     *graph.Graph
	Chains    *reasoning.Manager
	Cache     *cache.QueryCache
	Index     *semantic.Index
	Generator Generator
	Embedder  Embedder
	Searcher  Searcher
	Logger    *slog.Logger
	Metrics   *Metrics
}

// Options configures New. Zero-value fields fall back to defaults;
// collaborators left nil stay nil and the pipeline degrades around
// them.
type Options struct {
	Graph     *graph.Graph
	Chains    *reasoning.Manager
	Cache     *cache.QueryCache
	Index     *semantic.Index
	Generator Generator
	Embedder  Embedder
	Searcher  Searcher
	Logger    *slog.Logger
	Metrics   *Metrics
}

// Engine runs recorded reasoning pipelines against a shared Context.
type Engine struct {
	ec *Context
}

// New builds an Engine.
//
// Graph, Chains, Index, and Logger get working defaults when nil.
// Generator, Embedder, Searcher, Cache, and Metrics are optional:
// without a Generator the pipeline uses keyword analysis and template
// answers, without a Searcher every search is empty, without a Cache
// ProcessQueryCached computes every time, and without Metrics nothing
// is counted.
func New(opts Options) *Engine {
	ec := &Context{
		Graph:     opts.Graph,
		Chains:    opts.Chains,
		Cache:     opts.Cache,
		Index:     opts.Index,
		Generator: opts.Generator,
		Embedder:  opts.Embedder,
		Searcher:  opts.Searcher,
		Logger:    opts.Logger,
		Metrics:   opts.Metrics,
	}
	if ec.Graph == nil {
		ec.Graph = graph.New()
	}
	if ec.Chains == nil {
		ec.Chains = reasoning.NewManager(DefaultChainLimit)
	}
	if ec.Index == nil {
		ec.Index = semantic.NewIndex()
	}
	if ec.Logger == nil {
		ec.Logger = slog.Default().With(slog.String("component", "engine"))
	}
	return &Engine{ec: ec}
}

// Context exposes the shared collaborators, primarily for surfaces
// that need direct access to the graph or chain manager.
func (e *Engine) Context() *Context {
	return e.ec
}
