//
// Tencent is pleased to support the open source community by making trpc-rag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-rag-go is licensed under the Apache License Version 2.0.
//
//

// Package elasticsearch provides a minimal Elasticsearch client.
// []byte payloads decouple callers from SDK typed APIs.
package elasticsearch

import "context"

// Client defines the index and query operations the vector store needs.
type Client interface {
	// Ping checks if Elasticsearch is available.
	Ping(ctx context.Context) error
	// CreateIndex creates an index with the provided mapping body.
	CreateIndex(ctx context.Context, indexName string, body []byte) error
	// DeleteIndex deletes the specified index.
	DeleteIndex(ctx context.Context, indexName string) error
	// IndexExists returns whether the specified index exists.
	IndexExists(ctx context.Context, indexName string) (bool, error)
	// Bulk executes a bulk request body against an index.
	Bulk(ctx context.Context, indexName string, body []byte) error
	// Search executes a query and returns the raw response body.
	Search(ctx context.Context, indexName string, body []byte) ([]byte, error)
	// Count returns the number of documents in an index.
	Count(ctx context.Context, indexName string) (int, error)
	// Refresh refreshes an index.
	Refresh(ctx context.Context, indexName string) error
}
