//
// Tencent is pleased to support the open source community by making trpc-rag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-rag-go is licensed under the Apache License Version 2.0.
//
//

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 3, cfg.RAGMaxPages)
	assert.Equal(t, 8000, cfg.RAGContextMaxLength)
	assert.Equal(t, []string{"en", "de"}, cfg.RAGSupportedLanguages)
	assert.Equal(t, "en", cfg.RAGFallbackLanguage)
	assert.True(t, cfg.RAGRelevanceCheck)
	assert.Equal(t, 24*time.Hour, cfg.TranslationCacheTTL)
	assert.Equal(t, 120*time.Second, cfg.LLMRequestTimeout)
	assert.Equal(t, 15*time.Second, cfg.ESRequestTimeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("RAG_MAX_PAGES", "5")
	t.Setenv("RAG_SUPPORTED_LANGUAGES", "en, de ,fr")
	t.Setenv("RAG_RELEVANCE_CHECK", "false")
	t.Setenv("RAG_DISTANCE_THRESHOLD", "0.33")
	t.Setenv("RAG_TRANSLATION_CACHE_TTL", "1h")

	cfg := Load()
	assert.Equal(t, 5, cfg.RAGMaxPages)
	assert.Equal(t, []string{"en", "de", "fr"}, cfg.RAGSupportedLanguages)
	assert.False(t, cfg.RAGRelevanceCheck)
	assert.Equal(t, 0.33, cfg.RAGDistanceThreshold)
	assert.Equal(t, time.Hour, cfg.TranslationCacheTTL)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("RAG_MAX_PAGES", "many")
	t.Setenv("RAG_RELEVANCE_CHECK", "maybe")

	cfg := Load()
	assert.Equal(t, 3, cfg.RAGMaxPages)
	assert.True(t, cfg.RAGRelevanceCheck)
}
