//
// Tencent is pleased to support the open source community by making trpc-rag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-rag-go is licensed under the Apache License Version 2.0.
//
//

// Package registry wires and caches the per-corpus service graph. Expensive
// objects (index handles, service pipelines) are built once per
// (region, language) and reused across requests.
package registry

import (
	"fmt"
	"sync"

	"trpc.group/trpc-go/trpc-rag-go/answer"
	"trpc.group/trpc-go/trpc-rag-go/chat"
	"trpc.group/trpc-go/trpc-rag-go/config"
	"trpc.group/trpc-go/trpc-rag-go/embedder"
	"trpc.group/trpc-go/trpc-rag-go/indexer"
	"trpc.group/trpc-go/trpc-rag-go/llm"
	"trpc.group/trpc-go/trpc-rag-go/relevance"
	"trpc.group/trpc-go/trpc-rag-go/search"
	storage "trpc.group/trpc-go/trpc-rag-go/storage/elasticsearch"
	"trpc.group/trpc-go/trpc-rag-go/transform"
	esstore "trpc.group/trpc-go/trpc-rag-go/vectorstore/elasticsearch"
)

// CMS combines the page-fetch capabilities the pipeline needs.
type CMS interface {
	search.PageFetcher
	indexer.PageSource
}

// IndexName returns the index holding one corpus.
func IndexName(region, language string) string {
	return fmt.Sprintf("ig_pages_%s_%s", region, language)
}

// Registry builds and caches service pipelines.
type Registry struct {
	cfg       *config.Config
	completer llm.Completer
	languages chat.LanguageService
	embedder  embedder.Embedder
	es        storage.Client
	cms       CMS

	mu      sync.Mutex
	answers map[string]*answer.Service
	search  map[string]*search.Service
}

// New creates a registry over the shared collaborators.
func New(cfg *config.Config, completer llm.Completer, languages chat.LanguageService,
	emb embedder.Embedder, es storage.Client, cms CMS) *Registry {
	return &Registry{
		cfg:       cfg,
		completer: completer,
		languages: languages,
		embedder:  emb,
		es:        es,
		cms:       cms,
		answers:   make(map[string]*answer.Service),
		search:    make(map[string]*search.Service),
	}
}

// SearchService returns the search pipeline for a region and display
// language. The corpus language falls back when the display language is
// unsupported.
func (r *Registry) SearchService(region, displayLanguage string) *search.Service {
	key := region + "|" + displayLanguage
	r.mu.Lock()
	defer r.mu.Unlock()
	if svc, ok := r.search[key]; ok {
		return svc
	}
	svc := r.buildSearch(region, displayLanguage)
	r.search[key] = svc
	return svc
}

// AnswerService returns the full answer pipeline for a region and display
// language.
func (r *Registry) AnswerService(region, displayLanguage string) *answer.Service {
	key := region + "|" + displayLanguage
	r.mu.Lock()
	defer r.mu.Unlock()
	if svc, ok := r.answers[key]; ok {
		return svc
	}

	searchSvc, ok := r.search[key]
	if !ok {
		searchSvc = r.buildSearch(region, displayLanguage)
		r.search[key] = searchSvc
	}

	opts := []answer.Option{
		answer.WithModel(r.cfg.RAGModel),
		answer.WithMaxPages(r.cfg.RAGMaxPages),
		answer.WithDistanceThreshold(r.cfg.RAGDistanceThreshold),
		answer.WithContextMaxLength(r.cfg.RAGContextMaxLength),
	}
	if r.cfg.RAGQueryOptimization {
		opts = append(opts, answer.WithQueryTransformer(
			transform.New(r.completer, transform.WithModel(r.cfg.OptimizationModel))))
	}
	if r.cfg.RAGRelevanceCheck {
		opts = append(opts, answer.WithRelevanceFilter(
			relevance.New(r.completer,
				relevance.WithModel(r.cfg.RAGModel),
				relevance.WithConcurrency(r.cfg.RelevanceConcurrency))))
	}
	svc := answer.New(r.completer, searchSvc, r.languages, opts...)
	r.answers[key] = svc
	return svc
}

// Indexer builds an index pipeline for the exact requested corpus language.
// Indexers are not cached; index builds are rare.
func (r *Registry) Indexer(region, language string) *indexer.Indexer {
	store := esstore.New(r.es, IndexName(region, language),
		esstore.WithVectorDimension(r.cfg.EmbeddingDimensions))
	return indexer.New(region, language, r.cms, r.embedder, store)
}

func (r *Registry) buildSearch(region, displayLanguage string) *search.Service {
	corpusLanguage := search.ChooseLanguage(displayLanguage,
		r.cfg.RAGSupportedLanguages, r.cfg.RAGFallbackLanguage)
	store := esstore.New(r.es, IndexName(region, corpusLanguage),
		esstore.WithVectorDimension(r.cfg.EmbeddingDimensions))
	return search.New(region, corpusLanguage, r.embedder, store, r.cms,
		search.WithDisplayLanguage(displayLanguage),
		search.WithMaxDocuments(r.cfg.SearchMaxDocuments))
}
