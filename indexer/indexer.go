//
// Tencent is pleased to support the open source community by making trpc-rag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-rag-go is licensed under the Apache License Version 2.0.
//
//

// Package indexer builds a (region, language) corpus index from CMS pages.
package indexer

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/panjf2000/ants/v2"

	"trpc.group/trpc-go/trpc-rag-go/chunking"
	"trpc.group/trpc-go/trpc-rag-go/cms"
	"trpc.group/trpc-go/trpc-rag-go/embedder"
	"trpc.group/trpc-go/trpc-rag-go/log"
	"trpc.group/trpc-go/trpc-rag-go/vectorstore"
)

// ErrUnsupportedLanguage is returned when the region does not offer the
// requested language.
var ErrUnsupportedLanguage = errors.New("indexer: language not supported in region")

const (
	defaultConcurrency = 4
	defaultBatchSize   = 64
)

// Stats summarizes one index build.
type Stats struct {
	NumPages        int `json:"num_pages"`
	NumDocuments    int `json:"num_documents"`
	NumDeduplicated int `json:"num_deduplicated_documents"`
}

// PageSource is the slice of the CMS client the indexer needs.
type PageSource interface {
	FetchPages(ctx context.Context, region, language string) ([]*cms.Page, error)
	GetRegionLanguages(ctx context.Context, region string) ([]string, error)
}

// Indexer rebuilds the index of one corpus.
type Indexer struct {
	pages       PageSource
	embedder    embedder.Embedder
	store       vectorstore.Store
	region      string
	language    string
	concurrency int
	batchSize   int
}

// Option represents a functional option for configuring the Indexer.
type Option func(*Indexer)

// WithConcurrency caps the parallel page-splitting workers.
func WithConcurrency(n int) Option {
	return func(ix *Indexer) {
		ix.concurrency = n
	}
}

// WithBatchSize sets how many chunks are embedded and indexed per request.
func WithBatchSize(n int) Option {
	return func(ix *Indexer) {
		ix.batchSize = n
	}
}

// New creates an indexer for one (region, language) corpus.
func New(region, language string, pages PageSource, emb embedder.Embedder, store vectorstore.Store, opts ...Option) *Indexer {
	ix := &Indexer{
		pages:       pages,
		embedder:    emb,
		store:       store,
		region:      region,
		language:    language,
		concurrency: defaultConcurrency,
		batchSize:   defaultBatchSize,
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Run rebuilds the corpus index from scratch: fetch all pages, split them at
// headlines, drop duplicate chunks, embed and bulk-index the rest.
func (ix *Indexer) Run(ctx context.Context) (*Stats, error) {
	languages, err := ix.pages.GetRegionLanguages(ctx, ix.region)
	if err != nil {
		return nil, fmt.Errorf("indexer: list region languages: %w", err)
	}
	if !slices.Contains(languages, ix.language) {
		return nil, ErrUnsupportedLanguage
	}

	pages, err := ix.pages.FetchPages(ctx, ix.region, ix.language)
	if err != nil {
		return nil, fmt.Errorf("indexer: fetch pages: %w", err)
	}
	log.Infof("indexing %d pages for %s/%s", len(pages), ix.region, ix.language)

	chunks, err := ix.splitPages(pages)
	if err != nil {
		return nil, err
	}
	unique, deduplicated := deduplicateChunks(chunks)

	if err := ix.store.EnsureIndex(ctx, true); err != nil {
		return nil, fmt.Errorf("indexer: recreate index: %w", err)
	}
	if err := ix.indexChunks(ctx, unique); err != nil {
		return nil, err
	}

	stats := &Stats{
		NumPages:        len(pages),
		NumDocuments:    len(unique),
		NumDeduplicated: deduplicated,
	}
	log.Infof("indexed %d chunks for %s/%s, %d duplicates dropped",
		stats.NumDocuments, ix.region, ix.language, stats.NumDeduplicated)
	return stats, nil
}

// splitPages cuts page HTML into chunks through a bounded worker pool,
// keeping page order in the result.
func (ix *Indexer) splitPages(pages []*cms.Page) ([]*vectorstore.Chunk, error) {
	pool, err := ants.NewPool(ix.concurrency)
	if err != nil {
		return nil, fmt.Errorf("indexer: create worker pool: %w", err)
	}
	defer pool.Release()

	perPage := make([][]*vectorstore.Chunk, len(pages))
	var wg sync.WaitGroup
	for i, page := range pages {
		wg.Add(1)
		idx, p := i, page
		task := func() {
			defer wg.Done()
			sections := chunking.SplitByHeaders(p.Content)
			chunks := make([]*vectorstore.Chunk, 0, len(sections))
			for _, section := range sections {
				chunks = append(chunks, &vectorstore.Chunk{
					ID:         chunkID(section.Text),
					SourcePath: p.Path,
					Text:       section.Text,
				})
			}
			perPage[idx] = chunks
		}
		if err := pool.Submit(task); err != nil {
			wg.Done()
			log.Warnf("split task submit failed for %s: %v", p.Path, err)
		}
	}
	wg.Wait()

	var all []*vectorstore.Chunk
	for _, chunks := range perPage {
		all = append(all, chunks...)
	}
	return all, nil
}

func (ix *Indexer) indexChunks(ctx context.Context, chunks []*vectorstore.Chunk) error {
	for start := 0; start < len(chunks); start += ix.batchSize {
		end := min(start+ix.batchSize, len(chunks))
		batch := chunks[start:end]
		texts := make([]string, 0, len(batch))
		for _, chunk := range batch {
			texts = append(texts, chunk.Text)
		}
		vectors, err := ix.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("indexer: embed batch: %w", err)
		}
		if err := ix.store.AddBatch(ctx, batch, vectors); err != nil {
			return fmt.Errorf("indexer: index batch: %w", err)
		}
	}
	return nil
}

// deduplicateChunks drops chunks with identical text, returning the unique
// chunks in order and the number dropped.
func deduplicateChunks(chunks []*vectorstore.Chunk) ([]*vectorstore.Chunk, int) {
	seen := make(map[string]bool, len(chunks))
	unique := make([]*vectorstore.Chunk, 0, len(chunks))
	dropped := 0
	for _, chunk := range chunks {
		if seen[chunk.ID] {
			dropped++
			continue
		}
		seen[chunk.ID] = true
		unique = append(unique, chunk)
	}
	return unique, dropped
}

func chunkID(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}
