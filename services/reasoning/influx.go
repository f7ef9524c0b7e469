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
	"context"
	"log/slog"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// stepMeasurement is the InfluxDB measurement chain steps land in.
const stepMeasurement = "reasoning_step"

// InfluxExporter mirrors finished chain steps into InfluxDB for
// dashboarding. It is an optional sink: write failures are logged and
// swallowed, never surfaced to the reasoning path.
type InfluxExporter struct {
	writeAPI api.WriteAPIBlocking
	logger   *slog.Logger
}

// NewInfluxExporter wraps a blocking write API, typically
// client.WriteAPIBlocking(org, bucket). A nil logger falls back to the
// process default.
func NewInfluxExporter(writeAPI api.WriteAPIBlocking, logger *slog.Logger) *InfluxExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &InfluxExporter{writeAPI: writeAPI, logger: logger}
}

// Export writes one point per finished step of the chain. A step
// counts as finished once its duration is recorded; steps still
// running are skipped. Safe to call on a nil exporter or chain.
func (e *InfluxExporter) Export(ctx context.Context, chain *Chain) {
	if e == nil || e.writeAPI == nil || chain == nil {
		return
	}
	snap := chain.snapshot()

	points := make([]*write.Point, 0, len(snap.Steps))
	for _, step := range snap.Steps {
		if step.DurationMs == nil {
			continue
		}
		ts, err := time.Parse(time.RFC3339Nano, step.Timestamp)
		if err != nil {
			ts = time.Now()
		}
		points = append(points, influxdb2.NewPoint(
			stepMeasurement,
			map[string]string{
				"chain_id":  snap.ChainID,
				"step_type": string(step.Type),
			},
			map[string]interface{}{
				"duration_ms": *step.DurationMs,
				"confidence":  step.Confidence,
			},
			ts,
		))
	}
	if len(points) == 0 {
		return
	}

	if err := e.writeAPI.WritePoint(ctx, points...); err != nil {
		e.logger.Error("Failed to write reasoning steps to InfluxDB",
			"chain_id", snap.ChainID, "points", len(points), "error", err)
	}
}
