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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/reasongraph/services/telemetry"
)

// Config is the application configuration.
//
// Thread Safety: Safe to read concurrently. Not safe to modify after
// creation.
type Config struct {
	// Server holds the HTTP surface settings.
	Server ServerConfig `json:"server" yaml:"server"`

	// LLM selects and limits the generative collaborator.
	LLM LLMConfig `json:"llm" yaml:"llm"`

	// Search holds the content-search settings.
	Search SearchConfig `json:"search" yaml:"search"`

	// Cache holds the query cache settings.
	Cache CacheConfig `json:"cache" yaml:"cache"`

	// Influx holds the optional step telemetry sink settings.
	Influx InfluxConfig `json:"influx" yaml:"influx"`

	// Telemetry holds the tracing and metrics exporter settings.
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry"`

	// Ingest holds the concept ingestion settings.
	Ingest IngestConfig `json:"ingest" yaml:"ingest"`

	// MaxChains bounds the reasoning chain manager.
	MaxChains int `json:"max_chains" yaml:"max_chains" validate:"gte=1"`

	// Courses lists the course names offered to query analysis.
	Courses []string `json:"courses" yaml:"courses"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Addr            string        `json:"addr" yaml:"addr" validate:"required"`
	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// LLMConfig selects the generative backend. The backends themselves
// read their endpoints and credentials from the environment. A zero
// RequestsPerSecond disables client-side rate limiting.
type LLMConfig struct {
	Provider          string  `json:"provider" yaml:"provider" validate:"oneof=ollama openai anthropic none"`
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" validate:"gte=0"`
	Burst             int     `json:"burst" yaml:"burst" validate:"gte=0"`
}

// SearchConfig contains content-search settings. An empty URL
// disables search and the pipeline runs without results.
type SearchConfig struct {
	URL        string `json:"url" yaml:"url"`
	MaxResults int    `json:"max_results" yaml:"max_results" validate:"gte=0"`
}

// CacheConfig contains query cache settings.
type CacheConfig struct {
	Backend string        `json:"backend" yaml:"backend" validate:"oneof=badger gcs memory none"`
	Dir     string        `json:"dir" yaml:"dir"`
	Bucket  string        `json:"bucket" yaml:"bucket"`
	TTL     time.Duration `json:"ttl" yaml:"ttl" validate:"gte=0"`
}

// InfluxConfig contains the optional InfluxDB step telemetry sink
// settings. Disabled by default.
type InfluxConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	URL     string `json:"url" yaml:"url"`
	Token   string `json:"token" yaml:"token"`
	Org     string `json:"org" yaml:"org"`
	Bucket  string `json:"bucket" yaml:"bucket"`
}

// TelemetryConfig contains tracing and metrics exporter settings.
type TelemetryConfig struct {
	ServiceName    string `json:"service_name" yaml:"service_name"`
	ServiceVersion string `json:"service_version" yaml:"service_version"`
	Environment    string `json:"environment" yaml:"environment"`
	TraceExporter  string `json:"trace_exporter" yaml:"trace_exporter" validate:"oneof=otlp stdout none"`
	MetricExporter string `json:"metric_exporter" yaml:"metric_exporter" validate:"oneof=prometheus stdout none"`
	OTLPEndpoint   string `json:"otlp_endpoint" yaml:"otlp_endpoint"`
	OTLPInsecure   bool   `json:"otlp_insecure" yaml:"otlp_insecure"`
}

// Resolve maps the settings onto the telemetry bootstrap config.
func (t TelemetryConfig) Resolve() telemetry.Config {
	return telemetry.Config{
		ServiceName:    t.ServiceName,
		ServiceVersion: t.ServiceVersion,
		Environment:    t.Environment,
		TraceExporter:  t.TraceExporter,
		MetricExporter: t.MetricExporter,
		OTLPEndpoint:   t.OTLPEndpoint,
		OTLPInsecure:   t.OTLPInsecure,
	}
}

// IngestConfig contains concept ingestion settings.
type IngestConfig struct {
	// Dir is the directory of concept YAML files.
	Dir string `json:"dir" yaml:"dir"`

	// Watch reloads concept files on change.
	Watch bool `json:"watch" yaml:"watch"`
}

// configValidate is the validator instance for engine configuration.
var configValidate *validator.Validate

func init() {
	configValidate = validator.New()
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8085",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    2 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
		},
		LLM: LLMConfig{
			Provider:          "ollama",
			RequestsPerSecond: 1,
			Burst:             3,
		},
		Search: SearchConfig{
			URL:        "http://localhost:8080",
			MaxResults: 10,
		},
		Cache: CacheConfig{
			Backend: "badger",
			Dir:     filepath.Join(os.TempDir(), "reasongraph-cache"),
			TTL:     time.Hour,
		},
		Influx: InfluxConfig{
			URL:    "http://localhost:8086",
			Org:    "reasongraph",
			Bucket: "reasoning",
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "reasongraph",
			ServiceVersion: "1.0.0",
			Environment:    "development",
			TraceExporter:  "otlp",
			MetricExporter: "prometheus",
			OTLPEndpoint:   "localhost:4317",
			OTLPInsecure:   true,
		},
		Ingest: IngestConfig{
			Dir: "concepts",
		},
		MaxChains: DefaultChainLimit,
	}
}

// LoadConfig loads configuration with priority: env > file > defaults.
//
// Inputs:
//   - configPath: Path to a YAML or JSON config file. May be empty,
//     and a missing file is not an error.
//
// Outputs:
//   - Config: Merged configuration.
//   - error: Non-nil if the file exists but is invalid, or the merged
//     configuration fails validation.
func LoadConfig(configPath string) (Config, error) {
	config := DefaultConfig()

	if configPath != "" {
		if err := loadConfigFile(configPath, &config); err != nil {
			return config, fmt.Errorf("load config file: %w", err)
		}
	}

	loadConfigFromEnv(&config)

	if err := config.Validate(); err != nil {
		return config, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	return configValidate.Struct(c)
}

func loadConfigFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	// Try YAML first, then JSON
	if err := yaml.Unmarshal(data, config); err != nil {
		if jsonErr := json.Unmarshal(data, config); jsonErr != nil {
			return fmt.Errorf("parse config (tried YAML and JSON): YAML error: %v, JSON error: %w", err, jsonErr)
		}
	}
	return nil
}

func loadConfigFromEnv(config *Config) {
	if v := os.Getenv("REASONGRAPH_ADDR"); v != "" {
		config.Server.Addr = v
	}
	if v := os.Getenv("REASONGRAPH_LLM_PROVIDER"); v != "" {
		config.LLM.Provider = v
	}
	if v := os.Getenv("REASONGRAPH_LLM_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.LLM.RequestsPerSecond = f
		}
	}
	if v := os.Getenv("WEAVIATE_URL"); v != "" {
		config.Search.URL = v
	}
	if v := os.Getenv("REASONGRAPH_CACHE_BACKEND"); v != "" {
		config.Cache.Backend = v
	}
	if v := os.Getenv("REASONGRAPH_CACHE_DIR"); v != "" {
		config.Cache.Dir = v
	}
	if v := os.Getenv("REASONGRAPH_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.Cache.TTL = d
		}
	}
	if v := os.Getenv("REASONGRAPH_MAX_CHAINS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			config.MaxChains = i
		}
	}
	if v := os.Getenv("REASONGRAPH_COURSES"); v != "" {
		config.Courses = splitCourses(v)
	}
	if v := os.Getenv("REASONGRAPH_CONCEPTS_DIR"); v != "" {
		config.Ingest.Dir = v
	}

	if v := os.Getenv("INFLUX_URL"); v != "" {
		config.Influx.URL = v
	}
	if v := os.Getenv("INFLUX_TOKEN"); v != "" {
		config.Influx.Token = v
	}
	if v := os.Getenv("INFLUX_ORG"); v != "" {
		config.Influx.Org = v
	}
	if v := os.Getenv("INFLUX_BUCKET"); v != "" {
		config.Influx.Bucket = v
	}
	if v := os.Getenv("REASONGRAPH_INFLUX_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Influx.Enabled = b
		}
	}

	if v := os.Getenv("REASONGRAPH_ENV"); v != "" {
		config.Telemetry.Environment = v
	}
	if v := os.Getenv("OTEL_TRACES_EXPORTER"); v != "" {
		config.Telemetry.TraceExporter = v
	}
	if v := os.Getenv("OTEL_METRICS_EXPORTER"); v != "" {
		config.Telemetry.MetricExporter = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		config.Telemetry.OTLPEndpoint = v
	}
}

func splitCourses(v string) []string {
	parts := strings.Split(v, ",")
	courses := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			courses = append(courses, trimmed)
		}
	}
	return courses
}
