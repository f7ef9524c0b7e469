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
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weaviate/weaviate/entities/models"
)

func TestClientConfig(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		wantHost   string
		wantScheme string
	}{
		{
			name:       "http URL",
			url:        "http://localhost:8080",
			wantHost:   "localhost:8080",
			wantScheme: "http",
		},
		{
			name:       "https URL",
			url:        "https://weaviate.internal:443",
			wantHost:   "weaviate.internal:443",
			wantScheme: "https",
		},
		{
			name:       "bare host defaults to http",
			url:        "localhost:8080",
			wantHost:   "localhost:8080",
			wantScheme: "http",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := clientConfig(tt.url)
			assert.Equal(t, tt.wantHost, cfg.Host)
			assert.Equal(t, tt.wantScheme, cfg.Scheme)
		})
	}
}

func TestContentSchema_ReturnsValidClass(t *testing.T) {
	schema := contentSchema()

	require.NotNil(t, schema)
	assert.Equal(t, ContentClassName, schema.Class)
	assert.Equal(t, "text2vec-transformers", schema.Vectorizer)
	assert.Contains(t, schema.Description, "course")
	require.NotNil(t, schema.InvertedIndexConfig)
	assert.True(t, schema.InvertedIndexConfig.IndexTimestamps)
}

func TestContentSchema_HasRequiredProperties(t *testing.T) {
	schema := contentSchema()

	expectedProperties := []string{
		"docId",
		"content",
		"course",
		"courseId",
		"contentType",
		"title",
		"sourceId",
		"createdAt",
	}

	require.NotNil(t, schema.Properties)
	assert.Len(t, schema.Properties, len(expectedProperties))

	propertyNames := make(map[string]bool)
	for _, prop := range schema.Properties {
		propertyNames[prop.Name] = true
	}

	for _, expected := range expectedProperties {
		assert.True(t, propertyNames[expected], "Missing property: %s", expected)
	}
}

func TestContentSchema_PropertyDataTypes(t *testing.T) {
	schema := contentSchema()

	propertyDataTypes := map[string]string{
		"docId":       "text",
		"content":     "text",
		"course":      "text",
		"courseId":    "text",
		"contentType": "text",
		"title":       "text",
		"sourceId":    "text",
		"createdAt":   "date",
	}

	for _, prop := range schema.Properties {
		expectedType, exists := propertyDataTypes[prop.Name]
		if exists {
			require.NotEmpty(t, prop.DataType, "DataType for %s should not be empty", prop.Name)
			assert.Equal(t, expectedType, prop.DataType[0], "DataType mismatch for %s", prop.Name)
		}
	}
}

func TestContentSchema_OnlyContentVectorized(t *testing.T) {
	schema := contentSchema()

	for _, prop := range schema.Properties {
		if prop.Name == "content" {
			assert.Nil(t, prop.ModuleConfig, "content must stay vectorized")
			continue
		}

		mc, ok := prop.ModuleConfig.(map[string]interface{})
		require.True(t, ok, "ModuleConfig missing for %s", prop.Name)
		tv, ok := mc["text2vec-transformers"].(map[string]interface{})
		require.True(t, ok, "transformer config missing for %s", prop.Name)
		assert.Equal(t, true, tv["skip"], "vectorization not skipped for %s", prop.Name)
	}
}

func TestWhereFilter(t *testing.T) {
	assert.Nil(t, whereFilter(nil))
	assert.Nil(t, whereFilter(&SearchFilter{}))
	assert.Nil(t, whereFilter(&SearchFilter{Limit: 5}))

	assert.NotNil(t, whereFilter(&SearchFilter{Course: "CS229"}))
	assert.NotNil(t, whereFilter(&SearchFilter{ContentType: TypeCoursework}))
	assert.NotNil(t, whereFilter(&SearchFilter{Course: "CS229", ContentType: TypeAnnouncement}))
}

func TestParseResults(t *testing.T) {
	resp := &models.GraphQLResponse{
		Data: map[string]models.JSONObject{
			"Get": map[string]interface{}{
				ContentClassName: []interface{}{
					map[string]interface{}{
						"docId":       "doc-1",
						"content":     "Problem Set 1 is due Friday at midnight",
						"course":      "CS229",
						"courseId":    "c-1",
						"contentType": "coursework",
						"title":       "Problem Set 1",
						"sourceId":    "cw-17",
						"createdAt":   "2025-06-01T10:00:00Z",
						"_additional": map[string]interface{}{
							"distance": 0.12,
						},
					},
					map[string]interface{}{
						"docId":       "doc-2",
						"content":     "Office hours moved to Thursday",
						"course":      "CS229",
						"contentType": "announcement",
						"_additional": map[string]interface{}{
							"distance": 0.34,
						},
					},
				},
			},
		},
	}

	results := parseResults(resp)
	require.Len(t, results, 2)

	first := results[0]
	assert.Equal(t, "Problem Set 1 is due Friday at midnight", first.Document)
	assert.InDelta(t, 0.12, first.Distance, 1e-9)
	assert.Equal(t, "CS229", first.Metadata["course"])
	assert.Equal(t, "coursework", first.Metadata["contentType"])
	assert.Equal(t, "Problem Set 1", first.Metadata["title"])
	assert.Equal(t, "cw-17", first.Metadata["sourceId"])
	assert.Equal(t, "2025-06-01T10:00:00Z", first.Metadata["createdAt"])

	second := results[1]
	assert.Equal(t, "Office hours moved to Thursday", second.Document)
	assert.InDelta(t, 0.34, second.Distance, 1e-9)
	assert.NotContains(t, second.Metadata, "title")
	assert.NotContains(t, second.Metadata, "sourceId")
}

func TestParseResults_SkipsMalformedObjects(t *testing.T) {
	resp := &models.GraphQLResponse{
		Data: map[string]models.JSONObject{
			"Get": map[string]interface{}{
				ContentClassName: []interface{}{
					"not an object",
					map[string]interface{}{
						"content": "the one valid hit",
					},
				},
			},
		},
	}

	results := parseResults(resp)
	require.Len(t, results, 1)
	assert.Equal(t, "the one valid hit", results[0].Document)
	assert.Zero(t, results[0].Distance)
}

func TestParseResults_EmptyShapes(t *testing.T) {
	tests := []struct {
		name string
		resp *models.GraphQLResponse
	}{
		{
			name: "no data",
			resp: &models.GraphQLResponse{},
		},
		{
			name: "get is not an object",
			resp: &models.GraphQLResponse{
				Data: map[string]models.JSONObject{"Get": "nope"},
			},
		},
		{
			name: "class missing",
			resp: &models.GraphQLResponse{
				Data: map[string]models.JSONObject{
					"Get": map[string]interface{}{"OtherClass": []interface{}{}},
				},
			},
		},
		{
			name: "class is not a list",
			resp: &models.GraphQLResponse{
				Data: map[string]models.JSONObject{
					"Get": map[string]interface{}{ContentClassName: 42},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := parseResults(tt.resp)
			require.NotNil(t, results)
			assert.Empty(t, results)
		})
	}
}

func TestNewWeaviateSearcher(t *testing.T) {
	t.Run("empty URL fails", func(t *testing.T) {
		_, err := NewWeaviateSearcher(Config{})
		require.Error(t, err)
	})

	t.Run("defaults applied", func(t *testing.T) {
		s, err := NewWeaviateSearcher(Config{URL: "http://localhost:8080"})
		require.NoError(t, err)
		assert.Equal(t, 10, s.maxResults)
		assert.NotNil(t, s.logger)
	})

	t.Run("custom max results", func(t *testing.T) {
		s, err := NewWeaviateSearcher(Config{URL: "http://localhost:8080", MaxResults: 3})
		require.NoError(t, err)
		assert.Equal(t, 3, s.maxResults)
	})
}

func TestSearch_EmptyQueryFails(t *testing.T) {
	s, err := NewWeaviateSearcher(Config{URL: "http://localhost:8080"})
	require.NoError(t, err)

	_, err = s.Search(context.Background(), "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestSearch_DegradesToEmptyWhenUnreachable(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	s, err := NewWeaviateSearcher(Config{URL: "http://127.0.0.1:1", Logger: logger})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := s.Search(ctx, "when is the assignment due", nil)
	require.NoError(t, err)
	require.NotNil(t, results)
	assert.Empty(t, results)
	assert.Contains(t, buf.String(), "Knowledge search unavailable")
}

func TestIndex_NoDocumentsIsNoop(t *testing.T) {
	s, err := NewWeaviateSearcher(Config{URL: "http://127.0.0.1:1"})
	require.NoError(t, err)

	assert.NoError(t, s.Index(context.Background()))
}

func TestIndex_UnreachableFails(t *testing.T) {
	s, err := NewWeaviateSearcher(Config{URL: "http://127.0.0.1:1", Logger: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = s.Index(ctx, Document{Text: "some content", Course: "CS229"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "indexing course content")
}

func TestReady_UnreachableFails(t *testing.T) {
	s, err := NewWeaviateSearcher(Config{URL: "http://127.0.0.1:1"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.Error(t, s.Ready(ctx))
}
