//
// Tencent is pleased to support the open source community by making trpc-rag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-rag-go is licensed under the Apache License Version 2.0.
//
//

// Package elasticsearch implements the vector store on Elasticsearch with
// hybrid lexical plus kNN retrieval.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	storage "trpc.group/trpc-go/trpc-rag-go/storage/elasticsearch"
	"trpc.group/trpc-go/trpc-rag-go/vectorstore"
)

var _ vectorstore.Store = (*VectorStore)(nil)

const (
	defaultVectorDimension = 1536
	defaultLimit           = 10

	fieldSourcePath = "source_path"
	fieldText       = "text"
	fieldEmbedding  = "embedding"
)

// VectorStore stores page chunks in one Elasticsearch index per
// (region, language) corpus.
type VectorStore struct {
	client    storage.Client
	indexName string
	dimension int
}

// Option represents a functional option for configuring the VectorStore.
type Option func(*VectorStore)

// WithVectorDimension sets the embedding dimension of the index mapping.
func WithVectorDimension(dim int) Option {
	return func(vs *VectorStore) {
		vs.dimension = dim
	}
}

// New creates a vector store over the given index.
func New(client storage.Client, indexName string, opts ...Option) *VectorStore {
	vs := &VectorStore{
		client:    client,
		indexName: indexName,
		dimension: defaultVectorDimension,
	}
	for _, opt := range opts {
		opt(vs)
	}
	return vs
}

// IndexName returns the backing index name.
func (vs *VectorStore) IndexName() string {
	return vs.indexName
}

// EnsureIndex implements the vectorstore.Store interface.
func (vs *VectorStore) EnsureIndex(ctx context.Context, recreate bool) error {
	exists, err := vs.client.IndexExists(ctx, vs.indexName)
	if err != nil {
		return fmt.Errorf("vectorstore: check index %s: %w", vs.indexName, err)
	}
	if exists {
		if !recreate {
			return nil
		}
		if err := vs.client.DeleteIndex(ctx, vs.indexName); err != nil {
			return fmt.Errorf("vectorstore: drop index %s: %w", vs.indexName, err)
		}
	}
	mapping := map[string]any{
		"mappings": map[string]any{
			"properties": map[string]any{
				fieldSourcePath: map[string]any{"type": "keyword"},
				fieldText:       map[string]any{"type": "text"},
				fieldEmbedding: map[string]any{
					"type":       "dense_vector",
					"dims":       vs.dimension,
					"index":      true,
					"similarity": "cosine",
				},
			},
		},
	}
	body, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("vectorstore: marshal mapping: %w", err)
	}
	if err := vs.client.CreateIndex(ctx, vs.indexName, body); err != nil {
		return fmt.Errorf("vectorstore: create index %s: %w", vs.indexName, err)
	}
	return nil
}

// AddBatch implements the vectorstore.Store interface using one bulk request.
func (vs *VectorStore) AddBatch(ctx context.Context, chunks []*vectorstore.Chunk, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("vectorstore: %d chunks but %d vectors", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}
	var buf bytes.Buffer
	for i, chunk := range chunks {
		action := map[string]any{"index": map[string]any{"_id": chunk.ID}}
		doc := map[string]any{
			fieldSourcePath: chunk.SourcePath,
			fieldText:       chunk.Text,
			fieldEmbedding:  vectors[i],
		}
		for _, line := range []any{action, doc} {
			encoded, err := json.Marshal(line)
			if err != nil {
				return fmt.Errorf("vectorstore: marshal bulk line: %w", err)
			}
			buf.Write(encoded)
			buf.WriteByte('\n')
		}
	}
	if err := vs.client.Bulk(ctx, vs.indexName, buf.Bytes()); err != nil {
		return fmt.Errorf("vectorstore: bulk index %s: %w", vs.indexName, err)
	}
	if err := vs.client.Refresh(ctx, vs.indexName); err != nil {
		return fmt.Errorf("vectorstore: refresh %s: %w", vs.indexName, err)
	}
	return nil
}

// Search implements the vectorstore.Store interface. The backend reports
// similarity scores (higher is better); hits are normalized and converted to
// distances in [0,1], sorted ascending.
func (vs *VectorStore) Search(ctx context.Context, query *vectorstore.Query) ([]*vectorstore.ScoredChunk, error) {
	if query == nil {
		return nil, fmt.Errorf("vectorstore: query cannot be nil")
	}
	limit := query.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	body := map[string]any{
		"size":    limit,
		"_source": []string{fieldSourcePath, fieldText},
	}
	if len(query.Vector) > 0 {
		body["knn"] = map[string]any{
			"field":          fieldEmbedding,
			"query_vector":   query.Vector,
			"k":              limit,
			"num_candidates": limit * 10,
		}
	}
	if query.Text != "" {
		body["query"] = map[string]any{
			"match": map[string]any{
				fieldText: map[string]any{"query": query.Text},
			},
		}
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: marshal query: %w", err)
	}
	raw, err := vs.client.Search(ctx, vs.indexName, encoded)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: search %s: %w", vs.indexName, err)
	}
	return parseHits(raw)
}

// Count implements the vectorstore.Store interface.
func (vs *VectorStore) Count(ctx context.Context) (int, error) {
	count, err := vs.client.Count(ctx, vs.indexName)
	if err != nil {
		return 0, fmt.Errorf("vectorstore: count %s: %w", vs.indexName, err)
	}
	return count, nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string  `json:"_id"`
			Score  float64 `json:"_score"`
			Source struct {
				SourcePath string `json:"source_path"`
				Text       string `json:"text"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// parseHits converts backend similarity to distance. Hybrid hits sum an
// unbounded lexical component onto the cosine similarity, so raw scores are
// min-max normalized into [0,1] first (as OpenSearch's hybrid normalization
// processor does) and the distance is 1 - normalized. Equal-scored result
// sets, including a single hit, normalize to distance 0.
func parseHits(raw []byte) ([]*vectorstore.ScoredChunk, error) {
	var response searchResponse
	if err := json.Unmarshal(raw, &response); err != nil {
		return nil, fmt.Errorf("vectorstore: parse search response: %w", err)
	}
	hits := response.Hits.Hits
	results := make([]*vectorstore.ScoredChunk, 0, len(hits))
	if len(hits) == 0 {
		return results, nil
	}
	minScore, maxScore := hits[0].Score, hits[0].Score
	for _, hit := range hits[1:] {
		minScore = min(minScore, hit.Score)
		maxScore = max(maxScore, hit.Score)
	}
	for _, hit := range hits {
		normalized := 1.0
		if maxScore > minScore {
			normalized = (hit.Score - minScore) / (maxScore - minScore)
		}
		results = append(results, &vectorstore.ScoredChunk{
			Chunk: &vectorstore.Chunk{
				ID:         hit.ID,
				SourcePath: hit.Source.SourcePath,
				Text:       hit.Source.Text,
			},
			Score: 1 - normalized,
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score < results[j].Score
	})
	return results, nil
}
