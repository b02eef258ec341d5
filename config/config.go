//
// Tencent is pleased to support the open source community by making trpc-rag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-rag-go is licensed under the Apache License Version 2.0.
//
//

// Package config loads process configuration from the environment, with an
// optional .env file for development setups.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"trpc.group/trpc-go/trpc-rag-go/log"
)

// Config holds everything the service needs to run.
type Config struct {
	// HTTP server.
	HTTPAddr string
	LogLevel string

	// Collaborators.
	CMSDomain         string
	AppDomain         string
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	LLMRequestTimeout time.Duration
	ESAddresses       []string
	ESUsername        string
	ESPassword        string
	ESRequestTimeout  time.Duration
	RedisURL          string

	// Models.
	RAGModel            string
	ClassificationModel string
	TranslationModel    string
	OptimizationModel   string
	EmbeddingModel      string
	EmbeddingDimensions int

	// Pipeline tuning.
	RAGMaxPages             int
	RAGContextMaxLength     int
	RAGDistanceThreshold    float64
	RAGSupportedLanguages   []string
	RAGFallbackLanguage     string
	RAGRelevanceCheck       bool
	RAGQueryOptimization    bool
	RelevanceConcurrency    int
	SearchMaxDocuments      int
	SearchMaxPages          int
	SearchDistanceThreshold float64
	TranslationCacheTTL     time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		log.Debug("loaded configuration from .env")
	}
	return &Config{
		HTTPAddr: envString("RAG_HTTP_ADDR", ":8080"),
		LogLevel: envString("RAG_LOG_LEVEL", "info"),

		CMSDomain:         envString("RAG_CMS_DOMAIN", ""),
		AppDomain:         envString("RAG_APP_DOMAIN", ""),
		OpenAIAPIKey:      envString("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     envString("OPENAI_BASE_URL", ""),
		LLMRequestTimeout: envDuration("RAG_LLM_TIMEOUT", 120*time.Second),
		ESAddresses:       envList("RAG_ELASTICSEARCH_ADDRESSES", []string{"http://127.0.0.1:9200"}),
		ESUsername:        envString("RAG_ELASTICSEARCH_USERNAME", ""),
		ESPassword:        envString("RAG_ELASTICSEARCH_PASSWORD", ""),
		ESRequestTimeout:  envDuration("RAG_ELASTICSEARCH_TIMEOUT", 15*time.Second),
		RedisURL:          envString("RAG_REDIS_URL", ""),

		RAGModel:            envString("RAG_MODEL", "gpt-4o-mini"),
		ClassificationModel: envString("RAG_CLASSIFICATION_MODEL", "gpt-4o-mini"),
		TranslationModel:    envString("RAG_TRANSLATION_MODEL", "gpt-4o-mini"),
		OptimizationModel:   envString("RAG_OPTIMIZATION_MODEL", "gpt-4o-mini"),
		EmbeddingModel:      envString("RAG_EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingDimensions: envInt("RAG_EMBEDDING_DIMENSIONS", 1536),

		RAGMaxPages:             envInt("RAG_MAX_PAGES", 3),
		RAGContextMaxLength:     envInt("RAG_CONTEXT_MAX_LENGTH", 8000),
		RAGDistanceThreshold:    envFloat("RAG_DISTANCE_THRESHOLD", 0.5),
		RAGSupportedLanguages:   envList("RAG_SUPPORTED_LANGUAGES", []string{"en", "de"}),
		RAGFallbackLanguage:     envString("RAG_FALLBACK_LANGUAGE", "en"),
		RAGRelevanceCheck:       envBool("RAG_RELEVANCE_CHECK", true),
		RAGQueryOptimization:    envBool("RAG_QUERY_OPTIMIZATION", true),
		RelevanceConcurrency:    envInt("RAG_RELEVANCE_CONCURRENCY", 4),
		SearchMaxDocuments:      envInt("SEARCH_MAX_DOCUMENTS", 15),
		SearchMaxPages:          envInt("SEARCH_MAX_PAGES", 10),
		SearchDistanceThreshold: envFloat("SEARCH_DISTANCE_THRESHOLD", 0.75),
		TranslationCacheTTL:     envDuration("RAG_TRANSLATION_CACHE_TTL", 24*time.Hour),
	}
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Warnf("invalid integer for %s: %q, using %d", key, value, fallback)
		return fallback
	}
	return parsed
}

func envFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Warnf("invalid float for %s: %q, using %g", key, value, fallback)
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		log.Warnf("invalid boolean for %s: %q, using %t", key, value, fallback)
		return fallback
	}
	return parsed
}

func envList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func envDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		log.Warnf("invalid duration for %s: %q, using %s", key, value, fallback)
		return fallback
	}
	return parsed
}
