// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"

	"github.com/AleutianAI/reasongraph/pkg/ux"
	"github.com/AleutianAI/reasongraph/services/cache"
	"github.com/AleutianAI/reasongraph/services/engine"
	"github.com/AleutianAI/reasongraph/services/ingest"
	"github.com/AleutianAI/reasongraph/services/llm"
	"github.com/AleutianAI/reasongraph/services/reasoning"
	"github.com/AleutianAI/reasongraph/services/search"
)

// fail prints an error through the ux layer and exits. Run functions
// use it for unrecoverable setup problems; recoverable ones degrade.
func fail(format string, args ...any) {
	ux.Error(fmt.Sprintf(format, args...))
	os.Exit(1)
}

// defaultConfigFile is picked up from the working directory when
// --config is not given.
const defaultConfigFile = "reasongraph.yaml"

// loadConfig resolves the effective configuration from defaults, the
// optional --config file, and environment overrides.
func loadConfig() engine.Config {
	path := configPath
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		}
	}
	cfg, err := engine.LoadConfig(path)
	if err != nil {
		fail("Invalid configuration: %v", err)
	}
	return cfg
}

// buildEngine assembles the reasoning engine from the configuration.
// Optional collaborators that fail to initialize are logged and
// dropped so the engine starts degraded instead of not at all.
//
// The returned cleanup function persists the chain store and closes
// any cache backend. Callers must invoke it before exiting.
func buildEngine(ctx context.Context, cfg engine.Config) (*engine.Engine, func()) {
	logger := slog.Default()

	var closers []func()

	queryCache, closeCache := buildCache(ctx, cfg, logger)
	if closeCache != nil {
		closers = append(closers, closeCache)
	}

	chains := reasoning.NewManager(cfg.MaxChains)
	if chainsFile != "" {
		if _, err := os.Stat(chainsFile); err == nil {
			if err := chains.LoadFile(chainsFile); err != nil {
				logger.Warn("Failed to load saved chains", "path", chainsFile, "error", err)
			}
		}
	}

	eng := engine.New(engine.Options{
		Chains:    chains,
		Cache:     queryCache,
		Generator: buildGenerator(cfg, logger),
		Embedder:  buildEmbedder(cfg, logger),
		Searcher:  buildSearcher(cfg, logger),
		Logger:    logger,
		Metrics:   engine.NewMetrics(),
	})

	loadConcepts(ctx, eng, cfg, logger)

	cleanup := func() {
		saveChains(eng, logger)
		for _, closeFn := range closers {
			closeFn()
		}
	}
	return eng, cleanup
}

// buildGenerator returns the text generation client for the configured
// provider, or nil when generation is disabled or unavailable.
func buildGenerator(cfg engine.Config, logger *slog.Logger) engine.Generator {
	var (
		client llm.LLMClient
		err    error
	)
	switch cfg.LLM.Provider {
	case "ollama":
		client, err = llm.NewOllamaClient()
	case "openai":
		client, err = llm.NewOpenAIClient()
	case "anthropic":
		client, err = llm.NewAnthropicClient()
	default:
		return nil
	}
	if err != nil {
		logger.Warn("LLM client unavailable, answers fall back to templates",
			"provider", cfg.LLM.Provider, "error", err)
		return nil
	}
	if cfg.LLM.RequestsPerSecond > 0 {
		client = llm.NewRateLimitedClient(client, cfg.LLM.RequestsPerSecond, cfg.LLM.Burst)
	}
	return client
}

// buildEmbedder returns an embedding client when the provider has one.
// Ollama generation runs without embeddings, which leaves the semantic
// index empty but keeps graph and keyword retrieval working.
func buildEmbedder(cfg engine.Config, logger *slog.Logger) engine.Embedder {
	if cfg.LLM.Provider != "openai" {
		return nil
	}
	embedder, err := llm.NewOpenAIEmbedder()
	if err != nil {
		logger.Warn("Embedding client unavailable, semantic retrieval disabled", "error", err)
		return nil
	}
	return embedder
}

// buildSearcher connects to Weaviate when a URL is configured.
func buildSearcher(cfg engine.Config, logger *slog.Logger) engine.Searcher {
	if cfg.Search.URL == "" {
		return nil
	}
	searcher, err := search.NewWeaviateSearcher(search.Config{
		URL:        cfg.Search.URL,
		MaxResults: cfg.Search.MaxResults,
		Logger:     logger,
	})
	if err != nil {
		logger.Warn("Weaviate unavailable, course search disabled",
			"url", cfg.Search.URL, "error", err)
		return nil
	}
	return searcher
}

// buildCache opens the configured cache backend. The second return
// value closes the underlying store and is nil when there is nothing
// to close.
func buildCache(ctx context.Context, cfg engine.Config, logger *slog.Logger) (*cache.QueryCache, func()) {
	var (
		store cache.BlobStore
		err   error
	)
	switch cfg.Cache.Backend {
	case "badger":
		store, err = cache.NewBadgerStore(cache.BadgerConfig{Path: cfg.Cache.Dir, Logger: logger})
	case "memory":
		store, err = cache.NewBadgerStore(cache.BadgerConfig{InMemory: true, Logger: logger})
	case "gcs":
		store, err = cache.NewGCSStore(ctx, cache.GCSConfig{Bucket: cfg.Cache.Bucket})
	default:
		return nil, nil
	}
	if err != nil {
		logger.Warn("Cache backend unavailable, queries run uncached",
			"backend", cfg.Cache.Backend, "error", err)
		return nil, nil
	}

	closeStore := func() {
		if closer, ok := store.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				logger.Warn("Failed to close cache store", "error", err)
			}
		}
	}
	return cache.New(store, cache.WithTTL(cfg.Cache.TTL), cache.WithLogger(logger)), closeStore
}

// loadConcepts ingests the configured concept directory into the
// engine's graph and index. A missing directory is not an error; the
// engine simply starts with an empty knowledge base.
func loadConcepts(ctx context.Context, eng *engine.Engine, cfg engine.Config, logger *slog.Logger) {
	if cfg.Ingest.Dir == "" {
		return
	}
	info, err := os.Stat(cfg.Ingest.Dir)
	if err != nil || !info.IsDir() {
		return
	}

	report, err := newLoader(eng, logger).LoadDir(ctx, cfg.Ingest.Dir)
	if err != nil {
		logger.Warn("Concept ingestion had failures", "dir", cfg.Ingest.Dir, "error", err)
	}
	logger.Info("Loaded concept files",
		"dir", cfg.Ingest.Dir,
		"files", report.Files,
		"concepts", report.Concepts,
		"chunks", report.Chunks)
}

// newLoader builds an ingestion loader backed by the engine's graph,
// index, and embedder.
func newLoader(eng *engine.Engine, logger *slog.Logger) *ingest.Loader {
	ec := eng.Context()
	return ingest.NewLoader(ingest.LoaderOptions{
		Graph:    ec.Graph,
		Index:    ec.Index,
		Embedder: ec.Embedder,
		Logger:   logger,
	})
}

// saveChains persists the chain store to the --chains-file path.
// An empty path disables persistence.
func saveChains(eng *engine.Engine, logger *slog.Logger) {
	if chainsFile == "" {
		return
	}
	if err := eng.Context().Chains.SaveFile(chainsFile); err != nil {
		logger.Warn("Failed to save reasoning chains", "path", chainsFile, "error", err)
	}
}

// newChainExporter builds the InfluxDB exporter when telemetry export
// is enabled. The returned close function flushes the client; both
// returns are nil when export is off, which Export handles safely.
func newChainExporter(cfg engine.Config, logger *slog.Logger) (*reasoning.InfluxExporter, func()) {
	if !cfg.Influx.Enabled {
		return nil, nil
	}
	client := influxdb2.NewClient(cfg.Influx.URL, cfg.Influx.Token)
	writeAPI := client.WriteAPIBlocking(cfg.Influx.Org, cfg.Influx.Bucket)
	return reasoning.NewInfluxExporter(writeAPI, logger), client.Close
}
