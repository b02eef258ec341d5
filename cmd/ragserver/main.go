//
// Tencent is pleased to support the open source community by making trpc-rag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-rag-go is licensed under the Apache License Version 2.0.
//
//

// Command ragserver runs the retrieval-augmented answering service.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"trpc.group/trpc-go/trpc-rag-go/cache"
	"trpc.group/trpc-go/trpc-rag-go/cms"
	"trpc.group/trpc-go/trpc-rag-go/config"
	openaiembed "trpc.group/trpc-go/trpc-rag-go/embedder/openai"
	"trpc.group/trpc-go/trpc-rag-go/language"
	"trpc.group/trpc-go/trpc-rag-go/llm"
	"trpc.group/trpc-go/trpc-rag-go/log"
	"trpc.group/trpc-go/trpc-rag-go/registry"
	"trpc.group/trpc-go/trpc-rag-go/server"
	storage "trpc.group/trpc-go/trpc-rag-go/storage/elasticsearch"
)

func main() {
	cfg := config.Load()
	log.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("ragserver: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	completer := llm.New(
		llm.WithAPIKey(cfg.OpenAIAPIKey),
		llm.WithBaseURL(cfg.OpenAIBaseURL),
		llm.WithDefaultModel(cfg.RAGModel),
		llm.WithRequestTimeout(cfg.LLMRequestTimeout),
	)

	translationCache, err := newTranslationCache(cfg)
	if err != nil {
		return err
	}
	languages := language.New(completer,
		language.WithCache(translationCache),
		language.WithClassificationModel(cfg.ClassificationModel),
		language.WithTranslationModel(cfg.TranslationModel),
		language.WithCacheTTL(cfg.TranslationCacheTTL),
	)

	emb := openaiembed.New(
		openaiembed.WithAPIKey(cfg.OpenAIAPIKey),
		openaiembed.WithBaseURL(cfg.OpenAIBaseURL),
		openaiembed.WithModel(cfg.EmbeddingModel),
		openaiembed.WithDimensions(cfg.EmbeddingDimensions),
		openaiembed.WithRequestTimeout(cfg.LLMRequestTimeout),
	)

	es, err := storage.New(
		storage.WithAddresses(cfg.ESAddresses),
		storage.WithBasicAuth(cfg.ESUsername, cfg.ESPassword),
		storage.WithRequestTimeout(cfg.ESRequestTimeout),
	)
	if err != nil {
		return err
	}
	if err := es.Ping(ctx); err != nil {
		log.Warnf("elasticsearch not reachable at startup: %v", err)
	}

	pages := cms.New(cfg.CMSDomain, cms.WithAppDomain(cfg.AppDomain))
	reg := registry.New(cfg, completer, languages, emb, es, pages)

	srv := server.New(cfg, &provider{registry: reg}, languages)
	if err := srv.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info("server stopped")
	return nil
}

// newTranslationCache picks redis when configured, an in-process cache
// otherwise.
func newTranslationCache(cfg *config.Config) (cache.Cache, error) {
	if cfg.RedisURL == "" {
		log.Debug("no redis url configured, using in-memory translation cache")
		return cache.NewInMemory(), nil
	}
	return cache.NewRedis(cfg.RedisURL)
}

// provider adapts the registry to the server's per-corpus lookup interface.
type provider struct {
	registry *registry.Registry
}

func (p *provider) Answerer(region, language string) server.Answerer {
	return p.registry.AnswerService(region, language)
}

func (p *provider) Searcher(region, language string) server.Searcher {
	return p.registry.SearchService(region, language)
}

func (p *provider) Indexer(region, language string) server.IndexRunner {
	return p.registry.Indexer(region, language)
}
