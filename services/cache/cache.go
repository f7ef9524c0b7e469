// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package cache stores end-to-end query results keyed by their
// semantic content.
//
// A result is addressed by a fingerprint of the query text plus the
// context it was answered against, so the same question over a
// different course list never aliases. Entries expire lazily: an
// expired entry simply stops being returned and sits in the store
// until the next Put overwrites it.
//
// Storage is pluggable through BlobStore. BadgerStore keeps entries
// in an embedded local database, GCSStore shares them through a
// Cloud Storage bucket.
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"
)

var tracer = otel.Tracer("reasongraph.cache")

// DefaultTTL is how long cached results stay valid.
const DefaultTTL = time.Hour

// Entry is the stored form of one cached result.
type Entry struct {
	// Key is the fingerprint the entry was stored under.
	Key string `json:"key"`

	// CachedAt is when the entry was written, in Unix seconds.
	CachedAt int64 `json:"cachedAt"`

	// Value is the cached result, kept as raw JSON.
	Value json.RawMessage `json:"value"`
}

// Expired reports whether the entry is older than ttl at the given
// time. A zero ttl means entries never expire.
func (e Entry) Expired(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return now.Unix()-e.CachedAt > int64(ttl/time.Second)
}

// BlobStore is the storage collaborator behind QueryCache.
//
// Get returns the stored bytes and whether the key exists; absence is
// not an error. Put overwrites unconditionally. Implementations must
// be safe for concurrent use.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
}

// Fingerprint derives the cache key for a query and its context.
//
// The key is an MD5 hex digest over the query and the context items
// in order, so identical inputs always map to the same key and any
// reordering or change of context produces a different one. A NUL
// byte separates the parts to keep boundaries unambiguous.
func Fingerprint(query string, contextItems []string) string {
	h := md5.New()
	io.WriteString(h, query)
	for _, item := range contextItems {
		io.WriteString(h, "\x00")
		io.WriteString(h, item)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Options configures QueryCache behavior.
type Options struct {
	// TTL is how long entries stay valid. Zero means forever.
	TTL time.Duration

	// Logger receives store failures. Defaults to slog.Default.
	Logger *slog.Logger
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{TTL: DefaultTTL}
}

// Option is a functional option for configuring QueryCache.
type Option func(*Options)

// WithTTL sets the entry time-to-live.
func WithTTL(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.TTL = d
		}
	}
}

// WithLogger sets the logger for store failures.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// QueryCache caches query results in a BlobStore.
//
// Store failures never surface to callers: a failed read is a miss
// and a failed write is logged and dropped. The query path stays
// correct without the cache, just slower.
//
// Thread Safety: safe for concurrent use when the BlobStore is.
type QueryCache struct {
	store  BlobStore
	ttl    time.Duration
	logger *slog.Logger
	flight singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a QueryCache over the given store. The store must not
// be nil.
func New(store BlobStore, opts ...Option) *QueryCache {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	return &QueryCache{
		store:  store,
		ttl:    options.TTL,
		logger: options.Logger,
	}
}

// Get returns the cached result for the query and context, if a fresh
// one exists. Expired entries are treated as misses and left in place
// for the next Put to overwrite.
func (c *QueryCache) Get(ctx context.Context, query string, contextItems []string) (json.RawMessage, bool) {
	ctx, span := tracer.Start(ctx, "QueryCache.Get")
	defer span.End()

	key := Fingerprint(query, contextItems)
	value, ok := c.getKey(ctx, key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	span.SetAttributes(attribute.Bool("cache.hit", ok), attribute.String("cache.key", key))
	return value, ok
}

// Put stores the result for the query and context, overwriting any
// previous entry. Write failures are logged and dropped.
func (c *QueryCache) Put(ctx context.Context, query string, contextItems []string, value json.RawMessage) {
	ctx, span := tracer.Start(ctx, "QueryCache.Put")
	defer span.End()

	c.putKey(ctx, Fingerprint(query, contextItems), value)
}

// ComputeFunc produces the result to cache on a miss.
type ComputeFunc func(ctx context.Context) (json.RawMessage, error)

// GetOrCompute returns the cached result or computes and stores it.
//
// Concurrent calls for the same fingerprint collapse into a single
// computation; the rest share its result. The returned flag reports
// whether the value came from the cache. Compute errors are returned
// as-is and nothing is stored, so the next caller retries.
func (c *QueryCache) GetOrCompute(ctx context.Context, query string, contextItems []string, compute ComputeFunc) (json.RawMessage, bool, error) {
	ctx, span := tracer.Start(ctx, "QueryCache.GetOrCompute")
	defer span.End()

	key := Fingerprint(query, contextItems)
	span.SetAttributes(attribute.String("cache.key", key))

	if value, ok := c.getKey(ctx, key); ok {
		c.hits.Add(1)
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return value, true, nil
	}
	c.misses.Add(1)
	span.SetAttributes(attribute.Bool("cache.hit", false))

	result, err, _ := c.flight.Do(key, func() (interface{}, error) {
		// Another caller may have filled the entry between our miss
		// and the flight starting.
		if value, ok := c.getKey(ctx, key); ok {
			return flightResult{value: value, cached: true}, nil
		}

		value, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		c.putKey(ctx, key, value)
		return flightResult{value: value}, nil
	})
	if err != nil {
		return nil, false, err
	}

	fr := result.(flightResult)
	return fr.value, fr.cached, nil
}

type flightResult struct {
	value  json.RawMessage
	cached bool
}

// Stats contains cache hit statistics.
type Stats struct {
	Hits   int64
	Misses int64
}

// HitRate returns the cache hit rate as a percentage.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// Stats returns current hit and miss counts.
func (c *QueryCache) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
	}
}

func (c *QueryCache) getKey(ctx context.Context, key string) (json.RawMessage, bool) {
	data, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("Cache read failed", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.logger.Warn("Discarding undecodable cache entry", "key", key, "error", err)
		return nil, false
	}
	if entry.Expired(time.Now(), c.ttl) {
		return nil, false
	}
	return entry.Value, true
}

func (c *QueryCache) putKey(ctx context.Context, key string, value json.RawMessage) {
	entry := Entry{
		Key:      key,
		CachedAt: time.Now().Unix(),
		Value:    value,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		c.logger.Warn("Failed to encode cache entry", "key", key, "error", err)
		return
	}
	if err := c.store.Put(ctx, key, data); err != nil {
		c.logger.Warn("Cache write failed", "key", key, "error", err)
	}
}
