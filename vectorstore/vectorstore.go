//
// Tencent is pleased to support the open source community by making trpc-rag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-rag-go is licensed under the Apache License Version 2.0.
//
//

// Package vectorstore defines the document index the search service queries.
package vectorstore

import "context"

// Chunk is one indexed passage of a source page.
type Chunk struct {
	ID         string
	SourcePath string
	Text       string
}

// ScoredChunk is a search hit. Score follows distance semantics: lower is
// better. Implementations over similarity backends must convert so ascending
// sort always ranks best hits first.
type ScoredChunk struct {
	Chunk *Chunk
	Score float64
}

// Query is a hybrid search request. Vector drives the semantic part, Text
// the lexical part; either may be empty.
type Query struct {
	Text   string
	Vector []float64
	Limit  int
}

// Store indexes chunks and serves hybrid queries.
type Store interface {
	// EnsureIndex creates the backing index if needed. With recreate set,
	// an existing index is dropped first.
	EnsureIndex(ctx context.Context, recreate bool) error

	// AddBatch indexes chunks with their embedding vectors, one vector per
	// chunk in matching order.
	AddBatch(ctx context.Context, chunks []*Chunk, vectors [][]float64) error

	// Search returns up to query.Limit hits ordered by ascending score.
	Search(ctx context.Context, query *Query) ([]*ScoredChunk, error)

	// Count returns the number of indexed chunks.
	Count(ctx context.Context) (int, error)
}
