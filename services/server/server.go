// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package server exposes the reasoning engine over HTTP: a JSON API
// under /v1, a websocket feed of live chain events, and the usual
// health and metrics endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"

	"github.com/AleutianAI/reasongraph/services/engine"
)

var tracer = otel.Tracer("reasongraph.server")

// Options configures New.
type Options struct {
	Engine *engine.Engine
	Config engine.ServerConfig
	Logger *slog.Logger
}

// Server hosts the REST and websocket surface over an Engine.
type Server struct {
	engine *engine.Engine
	cfg    engine.ServerConfig
	router *gin.Engine
	logger *slog.Logger
}

// New builds a Server with its routes registered. The Engine is
// required; everything else falls back to defaults.
func New(opts Options) (*Server, error) {
	if opts.Engine == nil {
		return nil, errors.New("server: engine is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default().With(slog.String("component", "server"))
	}
	def := engine.DefaultConfig().Server
	if opts.Config.Addr == "" {
		opts.Config.Addr = def.Addr
	}
	if opts.Config.ShutdownTimeout <= 0 {
		opts.Config.ShutdownTimeout = def.ShutdownTimeout
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("reasongraph"))

	s := &Server{
		engine: opts.Engine,
		cfg:    opts.Config,
		router: router,
		logger: opts.Logger,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", s.handleMetrics)

	v1 := s.router.Group("/v1")
	{
		v1.POST("/query", s.handleQuery)
		v1.POST("/plan", s.handlePlan)
		v1.POST("/questions/analyze", s.handleAnalyzeQuestion)
		v1.GET("/watch", s.handleWatch)

		chains := v1.Group("/chains")
		{
			chains.GET("", s.handleListChains)
			chains.GET("/:chainId", s.handleGetChain)
			chains.GET("/:chainId/export", s.handleExportChain)
		}

		graphRoutes := v1.Group("/graph")
		{
			graphRoutes.GET("/stats", s.handleGraphStats)
			graphRoutes.GET("/export", s.handleGraphExport)
			graphRoutes.POST("/import", s.handleGraphImport)
		}
	}
}

// Handler returns the assembled HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then drains in-flight requests
// within the configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
