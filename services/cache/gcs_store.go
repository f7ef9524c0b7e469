// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cache

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSConfig holds configuration for a GCSStore.
type GCSConfig struct {
	// Bucket is the bucket entries are stored in. Required.
	Bucket string

	// Prefix is prepended to every object name, e.g. "query-cache/".
	Prefix string

	// CredentialsFile is an optional service account key path.
	// When empty, application default credentials are used.
	CredentialsFile string
}

// GCSStore is a BlobStore backed by a Google Cloud Storage bucket,
// for cache entries shared across instances.
//
// Thread Safety: safe for concurrent use.
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSStore creates a GCS-backed store. Callers must Close the
// store when done.
func NewGCSStore(ctx context.Context, cfg GCSConfig) (*GCSStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("bucket is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS storage client: %w", err)
	}

	return &GCSStore{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

func (s *GCSStore) objectPath(key string) string {
	return s.prefix + key + ".json"
}

// Get downloads the object for key. A missing object is (nil, false,
// nil), not an error.
func (s *GCSStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	obj := s.client.Bucket(s.bucket).Object(s.objectPath(key))
	reader, err := obj.NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cache object %s: %w", s.objectPath(key), err)
	}
	defer func() { _ = reader.Close() }()

	value, err := io.ReadAll(reader)
	if err != nil {
		return nil, false, fmt.Errorf("read cache object %s: %w", s.objectPath(key), err)
	}
	return value, true, nil
}

// Put uploads value under key, replacing any previous object.
func (s *GCSStore) Put(ctx context.Context, key string, value []byte) error {
	obj := s.client.Bucket(s.bucket).Object(s.objectPath(key))
	writer := obj.NewWriter(ctx)
	writer.ContentType = "application/json"
	writer.CacheControl = "no-cache, no-store, must-revalidate"

	if _, err := writer.Write(value); err != nil {
		_ = writer.Close()
		return fmt.Errorf("write cache object %s: %w", s.objectPath(key), err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close GCS writer for %s: %w", s.objectPath(key), err)
	}
	return nil
}

// Close closes the GCS client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}
