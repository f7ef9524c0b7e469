// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ContentClassName is the Weaviate class storing course content.
const ContentClassName = "CourseContent"

// ErrUnavailable is returned by Ready when Weaviate reports not ready.
var ErrUnavailable = errors.New("weaviate is not ready")

var tracer = otel.Tracer("reasongraph.search")

// Config configures the Weaviate-backed searcher.
type Config struct {
	// URL is the Weaviate endpoint, e.g. "http://localhost:8080".
	URL string

	// MaxResults caps search hits when the filter sets no limit.
	MaxResults int

	// Logger receives degradation warnings. Defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns settings for a local Weaviate instance.
func DefaultConfig() Config {
	return Config{
		URL:        "http://localhost:8080",
		MaxResults: 10,
	}
}

// WeaviateSearcher runs nearText queries against indexed course
// content. Methods are safe for concurrent use.
type WeaviateSearcher struct {
	client     *weaviate.Client
	logger     *slog.Logger
	maxResults int
}

// NewWeaviateSearcher creates a searcher for the given endpoint. No
// connection is made until the first call.
func NewWeaviateSearcher(cfg Config) (*WeaviateSearcher, error) {
	if cfg.URL == "" {
		return nil, errors.New("weaviate URL must not be empty")
	}

	client, err := weaviate.NewClient(clientConfig(cfg.URL))
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultConfig().MaxResults
	}

	return &WeaviateSearcher{
		client:     client,
		logger:     logger.With(slog.String("component", "search")),
		maxResults: maxResults,
	}, nil
}

// clientConfig splits an endpoint URL into the host and scheme the
// client library wants.
func clientConfig(url string) weaviate.Config {
	cfg := weaviate.Config{
		Host:   url,
		Scheme: "http",
	}

	if len(url) > 8 && url[:8] == "https://" {
		cfg.Scheme = "https"
		cfg.Host = url[8:]
	} else if len(url) > 7 && url[:7] == "http://" {
		cfg.Host = url[7:]
	}

	return cfg
}

// Ready checks that Weaviate is reachable and reports ready.
func (s *WeaviateSearcher) Ready(ctx context.Context) error {
	isReady, err := s.client.Misc().ReadyChecker().Do(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if !isReady {
		return ErrUnavailable
	}
	return nil
}

// EnsureSchema creates the CourseContent class if it does not exist.
// Idempotent.
func (s *WeaviateSearcher) EnsureSchema(ctx context.Context) error {
	_, err := s.client.Schema().ClassGetter().WithClassName(ContentClassName).Do(ctx)
	if err == nil {
		s.logger.Debug("CourseContent schema already exists")
		return nil
	}

	s.logger.Info("Creating CourseContent schema")
	if err := s.client.Schema().ClassCreator().WithClass(contentSchema()).Do(ctx); err != nil {
		return fmt.Errorf("creating CourseContent schema: %w", err)
	}

	return nil
}

// contentSchema defines the CourseContent class. Only the content
// field is vectorized; everything else is filter metadata.
func contentSchema() *models.Class {
	indexFilterable := new(bool)
	*indexFilterable = true

	indexSearchable := new(bool)
	*indexSearchable = true

	return &models.Class{
		Class:       ContentClassName,
		Description: "Indexed course announcements, coursework and materials",
		Vectorizer:  "text2vec-transformers",
		ModuleConfig: map[string]interface{}{
			"text2vec-transformers": map[string]interface{}{
				"vectorizeClassName": false,
			},
		},
		InvertedIndexConfig: &models.InvertedIndexConfig{
			IndexTimestamps: true,
		},
		Properties: []*models.Property{
			{
				Name:            "docId",
				DataType:        []string{"text"},
				Description:     "Stable document id",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
				ModuleConfig: map[string]interface{}{
					"text2vec-transformers": map[string]interface{}{
						"skip": true,
					},
				},
			},
			{
				Name:            "content",
				DataType:        []string{"text"},
				Description:     "The document body",
				IndexSearchable: indexSearchable,
				Tokenization:    "word",
				// Content is vectorized for semantic search
			},
			{
				Name:            "course",
				DataType:        []string{"text"},
				Description:     "Course name",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
				ModuleConfig: map[string]interface{}{
					"text2vec-transformers": map[string]interface{}{
						"skip": true,
					},
				},
			},
			{
				Name:            "courseId",
				DataType:        []string{"text"},
				Description:     "Upstream course identifier",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
				ModuleConfig: map[string]interface{}{
					"text2vec-transformers": map[string]interface{}{
						"skip": true,
					},
				},
			},
			{
				Name:            "contentType",
				DataType:        []string{"text"},
				Description:     "Type: announcement, coursework, material",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
				ModuleConfig: map[string]interface{}{
					"text2vec-transformers": map[string]interface{}{
						"skip": true,
					},
				},
			},
			{
				Name:            "title",
				DataType:        []string{"text"},
				Description:     "Item title when the source has one",
				IndexSearchable: indexSearchable,
				Tokenization:    "word",
				ModuleConfig: map[string]interface{}{
					"text2vec-transformers": map[string]interface{}{
						"skip": true,
					},
				},
			},
			{
				Name:            "sourceId",
				DataType:        []string{"text"},
				Description:     "Upstream item identifier",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
				ModuleConfig: map[string]interface{}{
					"text2vec-transformers": map[string]interface{}{
						"skip": true,
					},
				},
			},
			{
				Name:        "createdAt",
				DataType:    []string{"date"},
				Description: "When the item was created upstream",
				ModuleConfig: map[string]interface{}{
					"text2vec-transformers": map[string]interface{}{
						"skip": true,
					},
				},
			},
		},
	}
}

// Index stores documents in one batch, overwriting objects that share
// an id. Per-item failures are logged rather than aborting the import.
func (s *WeaviateSearcher) Index(ctx context.Context, docs ...Document) error {
	if len(docs) == 0 {
		return nil
	}

	ctx, span := tracer.Start(ctx, "search.index")
	defer span.End()

	objects := make([]*models.Object, len(docs))
	for i, doc := range docs {
		id := doc.ID
		if id == "" {
			id = DocumentID(doc.Text)
		}
		createdAt := doc.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}

		objects[i] = &models.Object{
			Class: ContentClassName,
			ID:    strfmt.UUID(id),
			Properties: map[string]interface{}{
				"docId":       id,
				"content":     doc.Text,
				"course":      doc.Course,
				"courseId":    doc.CourseID,
				"contentType": doc.ContentType,
				"title":       doc.Title,
				"sourceId":    doc.SourceID,
				"createdAt":   createdAt.Format(time.RFC3339),
			},
		}
	}

	resp, err := s.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "batch import failed")
		return fmt.Errorf("indexing course content: %w", err)
	}

	stored := 0
	for _, item := range resp {
		if item.Result != nil && item.Result.Status != nil && *item.Result.Status == "SUCCESS" {
			stored++
			continue
		}
		if item.Result != nil && item.Result.Errors != nil && len(item.Result.Errors.Error) > 0 {
			s.logger.Warn("Failed to index document",
				"error", item.Result.Errors.Error[0].Message)
		} else {
			var status string
			if item.Result != nil && item.Result.Status != nil {
				status = *item.Result.Status
			}
			s.logger.Warn("Failed to index document", "status", status)
		}
	}

	span.SetAttributes(attribute.Int("search.indexed", stored))
	s.logger.Info("Indexed course content", "stored", stored, "total", len(docs))
	return nil
}

// Search runs a nearText query over the indexed content. Hits come
// back ordered by ascending distance. Transport and query failures
// degrade to an empty result set with a logged warning; only an empty
// query is an error.
func (s *WeaviateSearcher) Search(ctx context.Context, query string, filter *SearchFilter) ([]SearchResult, error) {
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	ctx, span := tracer.Start(ctx, "search.near_text")
	defer span.End()

	limit := s.maxResults
	if filter != nil && filter.Limit > 0 {
		limit = filter.Limit
	}

	nearText := s.client.GraphQL().NearTextArgBuilder().
		WithConcepts([]string{query})

	fields := []graphql.Field{
		{Name: "docId"},
		{Name: "content"},
		{Name: "course"},
		{Name: "courseId"},
		{Name: "contentType"},
		{Name: "title"},
		{Name: "sourceId"},
		{Name: "createdAt"},
		{Name: "_additional { distance }"},
	}

	builder := s.client.GraphQL().Get().
		WithClassName(ContentClassName).
		WithFields(fields...).
		WithNearText(nearText).
		WithLimit(limit)

	if where := whereFilter(filter); where != nil {
		builder = builder.WithWhere(where)
	}

	result, err := builder.Do(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		s.logger.Warn("Knowledge search unavailable, continuing without results",
			"query", query,
			"error", err)
		return []SearchResult{}, nil
	}

	if result.Errors != nil && len(result.Errors) > 0 {
		span.SetStatus(codes.Error, "search returned errors")
		s.logger.Warn("Knowledge search returned errors, continuing without results",
			"query", query,
			"error", result.Errors[0].Message)
		return []SearchResult{}, nil
	}

	results := parseResults(result)
	span.SetAttributes(attribute.Int("search.results", len(results)))
	return results, nil
}

// whereFilter translates a SearchFilter into a where clause. Nil when
// the filter matches everything.
func whereFilter(filter *SearchFilter) *filters.WhereBuilder {
	if filter == nil {
		return nil
	}

	var operands []*filters.WhereBuilder
	if filter.Course != "" {
		operands = append(operands, filters.Where().
			WithPath([]string{"course"}).
			WithOperator(filters.Equal).
			WithValueString(filter.Course))
	}
	if filter.ContentType != "" {
		operands = append(operands, filters.Where().
			WithPath([]string{"contentType"}).
			WithOperator(filters.Equal).
			WithValueString(filter.ContentType))
	}

	switch len(operands) {
	case 0:
		return nil
	case 1:
		return operands[0]
	default:
		return filters.Where().
			WithOperator(filters.And).
			WithOperands(operands)
	}
}

// metadataKeys are the properties carried into SearchResult.Metadata.
var metadataKeys = []string{"docId", "course", "courseId", "contentType", "title", "sourceId", "createdAt"}

// parseResults flattens the GraphQL response into ranked hits.
func parseResults(result *models.GraphQLResponse) []SearchResult {
	data, ok := result.Data["Get"].(map[string]interface{})
	if !ok {
		return []SearchResult{}
	}

	objects, ok := data[ContentClassName].([]interface{})
	if !ok {
		return []SearchResult{}
	}

	results := make([]SearchResult, 0, len(objects))
	for _, obj := range objects {
		m, ok := obj.(map[string]interface{})
		if !ok {
			continue // skip malformed objects
		}

		metadata := map[string]string{}
		for _, key := range metadataKeys {
			if v := getString(m, key); v != "" {
				metadata[key] = v
			}
		}

		distance := 0.0
		if additional, ok := m["_additional"].(map[string]interface{}); ok {
			distance = getFloat64(additional, "distance")
		}

		results = append(results, SearchResult{
			Document: getString(m, "content"),
			Metadata: metadata,
			Distance: distance,
		})
	}

	return results
}

// getString safely extracts a string from a map.
func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// getFloat64 safely extracts a float64 from a map.
func getFloat64(m map[string]interface{}, key string) float64 {
	if v, ok := m[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case float32:
			return float64(n)
		case int:
			return float64(n)
		}
	}
	return 0
}
