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
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/reasongraph/services/engine"
	"github.com/AleutianAI/reasongraph/services/reasoning"
	"github.com/AleutianAI/reasongraph/services/telemetry"
)

// QueryRequest is the body of POST /v1/query.
type QueryRequest struct {
	Query         string   `json:"query" binding:"required"`
	Courses       []string `json:"courses"`
	ShowReasoning bool     `json:"showReasoning"`
}

// PlanRequest is the body of POST /v1/plan.
type PlanRequest struct {
	Topic      string `json:"topic" binding:"required"`
	Difficulty string `json:"difficulty" binding:"omitempty,oneof=beginner intermediate advanced"`
}

// AnalyzeRequest is the body of POST /v1/questions/analyze.
type AnalyzeRequest struct {
	Question string `json:"question" binding:"required"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleMetrics resolves the Prometheus handler per request, so a
// telemetry bootstrap that runs after server construction still takes
// effect.
func (s *Server) handleMetrics(c *gin.Context) {
	h := telemetry.MetricsHandler()
	if h == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "metrics exporter not enabled"})
		return
	}
	h.ServeHTTP(c.Writer, c.Request)
}

func (s *Server) handleQuery(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "HandleQuery")
	defer span.End()

	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request body")
		slog.Error("Failed to bind query request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := s.engine.ProcessQueryCached(ctx, req.Query, engine.QueryOptions{
		Courses:       req.Courses,
		ShowReasoning: req.ShowReasoning,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query processing failed")
		if errors.Is(err, engine.ErrEmptyQuery) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		slog.Error("Query processing failed", "query", req.Query, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) handlePlan(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "HandlePlan")
	defer span.End()

	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request body")
		slog.Error("Failed to bind plan request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	plan, err := s.engine.PlanTopic(ctx, req.Topic, req.Difficulty)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "planning failed")
		if errors.Is(err, engine.ErrEmptyTopic) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		slog.Error("Topic planning failed", "topic", req.Topic, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, plan)
}

func (s *Server) handleAnalyzeQuestion(c *gin.Context) {
	_, span := tracer.Start(c.Request.Context(), "HandleAnalyzeQuestion")
	defer span.End()

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request body")
		slog.Error("Failed to bind analyze request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	c.JSON(http.StatusOK, s.engine.AnalyzeQuestion(req.Question))
}

func (s *Server) handleListChains(c *gin.Context) {
	_, span := tracer.Start(c.Request.Context(), "HandleListChains")
	defer span.End()

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			span.SetStatus(codes.Error, "invalid limit")
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
			return
		}
		limit = parsed
	}

	c.JSON(http.StatusOK, gin.H{"chains": s.engine.RecentChains(limit)})
}

func (s *Server) handleGetChain(c *gin.Context) {
	_, span := tracer.Start(c.Request.Context(), "HandleGetChain")
	defer span.End()

	chainID := c.Param("chainId")
	out, err := s.engine.ExportChain(chainID, "json")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "chain export failed")
		slog.Error("Chain export failed", "chain_id", chainID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if out == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "chain not found"})
		return
	}

	c.Data(http.StatusOK, "application/json", []byte(out))
}

func (s *Server) handleExportChain(c *gin.Context) {
	_, span := tracer.Start(c.Request.Context(), "HandleExportChain")
	defer span.End()

	chainID := c.Param("chainId")
	format := c.DefaultQuery("format", "json")
	out, err := s.engine.ExportChain(chainID, format)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "chain export failed")
		if errors.Is(err, reasoning.ErrUnsupportedFormat) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		slog.Error("Chain export failed", "chain_id", chainID, "format", format, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if out == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "chain not found"})
		return
	}

	c.Data(http.StatusOK, exportContentType(format), []byte(out))
}

func (s *Server) handleGraphStats(c *gin.Context) {
	_, span := tracer.Start(c.Request.Context(), "HandleGraphStats")
	defer span.End()

	c.JSON(http.StatusOK, s.engine.Context().Graph.Analyze())
}

func (s *Server) handleGraphExport(c *gin.Context) {
	_, span := tracer.Start(c.Request.Context(), "HandleGraphExport")
	defer span.End()

	data, err := s.engine.Context().Graph.ExportJSON()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "graph export failed")
		slog.Error("Graph export failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Data(http.StatusOK, "application/json", data)
}

func (s *Server) handleGraphImport(c *gin.Context) {
	_, span := tracer.Start(c.Request.Context(), "HandleGraphImport")
	defer span.End()

	data, err := c.GetRawData()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read body failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	g := s.engine.Context().Graph
	if err := g.ImportJSON(data); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "graph import failed")
		slog.Error("Graph import failed", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"nodes": g.NodeCount(), "edges": g.EdgeCount()})
}

func exportContentType(format string) string {
	switch strings.ToLower(format) {
	case reasoning.FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case reasoning.FormatHTML:
		return "text/html; charset=utf-8"
	case reasoning.FormatText:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}
