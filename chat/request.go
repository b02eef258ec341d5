//
// Tencent is pleased to support the open source community by making trpc-rag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-rag-go is licensed under the Apache License Version 2.0.
//
//

// Package chat carries the request and response envelopes of the answer
// pipeline.
package chat

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// LanguageService is the slice of the language service the envelopes need.
type LanguageService interface {
	Detect(ctx context.Context, message string) (string, error)
	Translate(ctx context.Context, source, target, message string) (string, error)
}

// Request is one incoming user message. It is immutable after construction
// except for memoized derived fields, which are computed once on first use.
type Request struct {
	OriginalMessage string
	GUILanguage     string
	Region          string

	languages          LanguageService
	supportedLanguages []string
	fallbackLanguage   string

	mu            sync.Mutex
	detected      string
	translated    string
	hasTranslated bool
}

// NewRequest validates the incoming fields and builds a request envelope.
// The supported set and fallback bound the pipeline language.
func NewRequest(message, guiLanguage, region string, languages LanguageService, supported []string, fallback string) (*Request, error) {
	if message == "" || guiLanguage == "" || region == "" {
		return nil, errors.New("chat: message, language and region are required")
	}
	return &Request{
		OriginalMessage:    message,
		GUILanguage:        guiLanguage,
		Region:             region,
		languages:          languages,
		supportedLanguages: supported,
		fallbackLanguage:   fallback,
	}, nil
}

// DetectedLanguage classifies the message language once and memoizes it.
func (r *Request) DetectedLanguage(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.detected != "" {
		return r.detected, nil
	}
	detected, err := r.languages.Detect(ctx, r.OriginalMessage)
	if err != nil {
		return "", err
	}
	r.detected = detected
	return detected, nil
}

// PipelineLanguage selects the language the retrieval pipeline runs in: the
// detected language when supported, the fallback otherwise.
func (r *Request) PipelineLanguage(ctx context.Context) (string, error) {
	detected, err := r.DetectedLanguage(ctx)
	if err != nil {
		return "", err
	}
	if slices.Contains(r.supportedLanguages, detected) {
		return detected, nil
	}
	return r.fallbackLanguage, nil
}

// PipelineMessage returns the message in the pipeline language, translating
// once when the detected language is unsupported.
func (r *Request) PipelineMessage(ctx context.Context) (string, error) {
	r.mu.Lock()
	if r.hasTranslated {
		defer r.mu.Unlock()
		return r.translated, nil
	}
	r.mu.Unlock()

	detected, err := r.DetectedLanguage(ctx)
	if err != nil {
		return "", err
	}
	message := r.OriginalMessage
	if !slices.Contains(r.supportedLanguages, detected) {
		message, err = r.languages.Translate(ctx, detected, r.fallbackLanguage, r.OriginalMessage)
		if err != nil {
			return "", err
		}
	}
	r.mu.Lock()
	r.translated = message
	r.hasTranslated = true
	r.mu.Unlock()
	return message, nil
}
