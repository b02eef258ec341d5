//
// Tencent is pleased to support the open source community by making trpc-rag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-rag-go is licensed under the Apache License Version 2.0.
//
//

// Package search retrieves document chunks for a query and reduces them to
// the best chunk per source page.
package search

import (
	"context"
	"fmt"
	"slices"

	"trpc.group/trpc-go/trpc-rag-go/cms"
	"trpc.group/trpc-go/trpc-rag-go/document"
	"trpc.group/trpc-go/trpc-rag-go/embedder"
	"trpc.group/trpc-go/trpc-rag-go/log"
	"trpc.group/trpc-go/trpc-rag-go/vectorstore"
)

// DefaultMaxDocuments is the retrieval depth before deduplication.
const DefaultMaxDocuments = 15

// PageFetcher is the slice of the CMS client the search service needs.
type PageFetcher interface {
	GetPage(ctx context.Context, region, language, path string) (*cms.Page, error)
}

// ChooseLanguage returns language when it is in the supported set, the
// fallback otherwise.
func ChooseLanguage(language string, supported []string, fallback string) string {
	if slices.Contains(supported, language) {
		return language
	}
	return fallback
}

// Service searches one (region, language) corpus and enriches hits with page
// metadata in the requester's display language.
type Service struct {
	embedder        embedder.Embedder
	store           vectorstore.Store
	pages           PageFetcher
	region          string
	language        string
	displayLanguage string
	maxDocuments    int
}

// Option represents a functional option for configuring the Service.
type Option func(*Service)

// WithMaxDocuments sets the retrieval depth before deduplication.
func WithMaxDocuments(n int) Option {
	return func(s *Service) {
		s.maxDocuments = n
	}
}

// WithDisplayLanguage sets the requester's display language. Defaults to the
// corpus language.
func WithDisplayLanguage(language string) Option {
	return func(s *Service) {
		s.displayLanguage = language
	}
}

// New creates a search service over a corpus index.
func New(region, language string, emb embedder.Embedder, store vectorstore.Store, pages PageFetcher, opts ...Option) *Service {
	s := &Service{
		embedder:        emb,
		store:           store,
		pages:           pages,
		region:          region,
		language:        language,
		displayLanguage: language,
		maxDocuments:    DefaultMaxDocuments,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search embeds the query, runs a hybrid search and returns documents sorted
// best-first. With includeText set, each document also carries the page
// excerpt in the display language. Enrichment failures degrade the affected
// document instead of dropping it.
func (s *Service) Search(ctx context.Context, query string, maxResults int, includeText bool) ([]*document.Document, error) {
	if maxResults <= 0 {
		maxResults = s.maxDocuments
	}
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search: embed query: %w", err)
	}
	hits, err := s.store.Search(ctx, &vectorstore.Query{
		Text:   query,
		Vector: vector,
		Limit:  maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("search: query index: %w", err)
	}

	docs := make([]*document.Document, 0, len(hits))
	for _, hit := range hits {
		docs = append(docs, &document.Document{
			SourcePath: hit.Chunk.SourcePath,
			Chunk:      hit.Chunk.Text,
			Score:      hit.Score,
		})
	}
	document.SortByScore(docs)
	for _, doc := range docs {
		s.enrich(ctx, doc, includeText)
	}
	return docs, nil
}

// DeduplicatePages walks score-ordered documents and keeps the first chunk
// per distinct source page, skipping documents scored worse than maxScore and
// stopping once maxPages unique pages are collected.
func DeduplicatePages(docs []*document.Document, maxPages int, maxScore float64) []*document.Document {
	unique := make([]*document.Document, 0, maxPages)
	seen := make(map[string]bool, maxPages)
	for _, doc := range docs {
		if len(unique) == maxPages {
			break
		}
		if doc.Score > maxScore || seen[doc.SourcePath] {
			continue
		}
		seen[doc.SourcePath] = true
		unique = append(unique, doc)
	}
	return unique
}

// enrich fills display path, title and optionally the page excerpt. Any
// failure leaves the document with its chunk text only.
func (s *Service) enrich(ctx context.Context, doc *document.Document, includeText bool) {
	doc.DisplayPath = doc.SourcePath
	page, err := s.pages.GetPage(ctx, s.region, s.language, doc.SourcePath)
	if err != nil {
		log.Warnf("page enrichment failed for %s: %v", doc.SourcePath, err)
		return
	}
	display := page
	if s.displayLanguage != s.language {
		path, ok := page.VariantPath(s.displayLanguage)
		if !ok {
			log.Warnf("no %s variant for %s", s.displayLanguage, doc.SourcePath)
			return
		}
		doc.DisplayPath = path
		displayPage, err := s.pages.GetPage(ctx, s.region, s.displayLanguage, path)
		if err != nil {
			log.Warnf("display-language page fetch failed for %s: %v", path, err)
			return
		}
		display = displayPage
	}
	doc.Title = display.Title
	if includeText {
		doc.Content = display.Excerpt
	}
}
