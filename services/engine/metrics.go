// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// queriesTotal counts processed queries by outcome.
	// Labels: "success", "error"
	queriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reasongraph_engine_queries_total",
		Help: "Total queries processed by outcome",
	}, []string{"outcome"})

	stepsRecordedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reasongraph_engine_steps_recorded_total",
		Help: "Total reasoning steps recorded by step type",
	}, []string{"step"})

	// collaboratorFallbacksTotal counts the times a collaborator failed
	// or was absent and a deterministic fallback answered instead.
	// Labels: "generator", "searcher"
	collaboratorFallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reasongraph_engine_collaborator_fallbacks_total",
		Help: "Total deterministic fallbacks by collaborator",
	}, []string{"collaborator"})

	cacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reasongraph_engine_cache_lookups_total",
		Help: "Total query cache lookups by result",
	}, []string{"result"})

	stepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reasongraph_engine_step_duration_seconds",
		Help:    "Reasoning step duration by step type",
		Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10, 30},
	}, []string{"step"})
)

// Metrics records pipeline activity on the process-wide collectors.
// A nil *Metrics disables recording, so callers never guard.
type Metrics struct {
	queries   *prometheus.CounterVec
	steps     *prometheus.CounterVec
	fallbacks *prometheus.CounterVec
	cache     *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

// NewMetrics returns a Metrics bound to the shared collectors. The
// collectors register once at package load, so NewMetrics may be
// called any number of times.
func NewMetrics() *Metrics {
	return &Metrics{
		queries:   queriesTotal,
		steps:     stepsRecordedTotal,
		fallbacks: collaboratorFallbacksTotal,
		cache:     cacheLookupsTotal,
		durations: stepDuration,
	}
}

// QueryProcessed counts one finished query.
func (m *Metrics) QueryProcessed(outcome string) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(outcome).Inc()
}

// StepRecorded counts one recorded step and observes its duration.
func (m *Metrics) StepRecorded(step string, seconds float64) {
	if m == nil {
		return
	}
	m.steps.WithLabelValues(step).Inc()
	m.durations.WithLabelValues(step).Observe(seconds)
}

// Fallback counts one deterministic fallback for a collaborator.
func (m *Metrics) Fallback(collaborator string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(collaborator).Inc()
}

// CacheHit counts one query answered from the cache.
func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.cache.WithLabelValues("hit").Inc()
}

// CacheMiss counts one query that had to be computed.
func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.cache.WithLabelValues("miss").Inc()
}
