//
// Tencent is pleased to support the open source community by making trpc-rag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-rag-go is licensed under the Apache License Version 2.0.
//
//

// Package language provides message language detection and translation with
// sentence-aware chunking and a shared translation cache.
package language

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	xlanguage "golang.org/x/text/language"

	"trpc.group/trpc-go/trpc-rag-go/cache"
	"trpc.group/trpc-go/trpc-rag-go/llm"
	"trpc.group/trpc-go/trpc-rag-go/log"
)

const classificationPrompt = `
Identify the language of the provided message.
Only return the most likely BCP47 language tag that represents the message's language.
Do not add any additional words.

Message: %s
`

const translationPrompt = `
Translate the following message from the language tagged as "%s" to the language tagged as "%s".
Please return only the translated message without any additional text.

Message: %s
`

const (
	defaultChunkSize = 200
	defaultCacheTTL  = 24 * time.Hour
)

// Service detects message languages and translates messages between them.
type Service struct {
	completer           llm.Completer
	cache               cache.Cache
	classificationModel string
	translationModel    string
	chunkSize           int
	cacheTTL            time.Duration
}

// Option represents a functional option for configuring the Service.
type Option func(*Service)

// WithCache sets the translation cache. Without one, results are not cached.
func WithCache(c cache.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithClassificationModel sets the model used for language detection.
func WithClassificationModel(model string) Option {
	return func(s *Service) {
		s.classificationModel = model
	}
}

// WithTranslationModel sets the model used for translation.
func WithTranslationModel(model string) Option {
	return func(s *Service) {
		s.translationModel = model
	}
}

// WithChunkSize sets the character budget per translation chunk.
func WithChunkSize(n int) Option {
	return func(s *Service) {
		s.chunkSize = n
	}
}

// WithCacheTTL sets the time-to-live for cached translations.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.cacheTTL = ttl
	}
}

// New creates a language service backed by the given completer.
func New(completer llm.Completer, opts ...Option) *Service {
	s := &Service{
		completer: completer,
		chunkSize: defaultChunkSize,
		cacheTTL:  defaultCacheTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Detect classifies the language of message and returns a normalized primary
// BCP47 subtag ("en-US" becomes "en"). Malformed model output degrades to a
// best-effort tag; callers must tolerate tags outside their supported set.
func (s *Service) Detect(ctx context.Context, message string) (string, error) {
	prompt := fmt.Sprintf(classificationPrompt, message)
	var opts []llm.CompleteOption
	if s.classificationModel != "" {
		opts = append(opts, llm.WithModel(s.classificationModel))
	}
	answer, err := s.completer.Complete(ctx, []llm.Message{llm.UserMessage(prompt)}, opts...)
	if err != nil {
		return "", fmt.Errorf("language: classify: %w", err)
	}
	return NormalizeTag(answer), nil
}

// NormalizeTag reduces a raw language tag to its primary subtag and applies
// classification corrections. It never fails; unparseable input falls back to
// the lowercased first subtag.
func NormalizeTag(raw string) string {
	tag := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.IndexFunc(tag, unicode.IsSpace); i >= 0 {
		tag = tag[:i]
	}
	if tag == "" {
		return ""
	}
	if parsed, err := xlanguage.Parse(tag); err == nil {
		base, _ := parsed.Base()
		tag = base.String()
	} else {
		tag = strings.FieldsFunc(tag, func(r rune) bool {
			return r == '-' || r == '_'
		})[0]
	}
	if corrected, ok := classificationCorrections[tag]; ok {
		return corrected
	}
	return tag
}

// Translate translates message from source to target language. It is the
// identity when the languages match or the message carries no letters, and
// returns an UnsupportedLanguagePairError when the backend cannot map the
// pair. Results are cached by content hash.
func (s *Service) Translate(ctx context.Context, source, target, message string) (string, error) {
	if source == target {
		return message, nil
	}
	if !containsLetter(message) {
		return message, nil
	}
	srcCode, tgtCode, err := pairCodes(source, target)
	if err != nil {
		return "", err
	}

	key := translationKey(source, target, message)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key); err == nil {
			return cached, nil
		} else if !errors.Is(err, cache.ErrNotFound) {
			log.Warnf("translation cache get failed: %v", err)
		}
	}

	chunks := ChunkSentences(message, s.chunkSize)
	translated := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		out, err := s.translateChunk(ctx, srcCode, tgtCode, chunk)
		if err != nil {
			return "", err
		}
		translated = append(translated, out)
	}
	result := strings.Join(translated, " ")

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, result, s.cacheTTL); err != nil {
			log.Warnf("translation cache set failed: %v", err)
		}
	}
	return result, nil
}

// OpportunisticTranslate detects the message language and translates only
// when it differs from the expected language.
func (s *Service) OpportunisticTranslate(ctx context.Context, expected, message string) (string, error) {
	detected, err := s.Detect(ctx, message)
	if err != nil {
		return "", err
	}
	if detected == expected {
		return message, nil
	}
	return s.Translate(ctx, detected, expected, message)
}

func (s *Service) translateChunk(ctx context.Context, srcCode, tgtCode, chunk string) (string, error) {
	prompt := fmt.Sprintf(translationPrompt, srcCode, tgtCode, chunk)
	var opts []llm.CompleteOption
	if s.translationModel != "" {
		opts = append(opts, llm.WithModel(s.translationModel))
	}
	out, err := s.completer.Complete(ctx, []llm.Message{llm.UserMessage(prompt)}, opts...)
	if err != nil {
		return "", fmt.Errorf("language: translate chunk: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// translationKey builds the stable cache key for a translation triple.
func translationKey(source, target, message string) string {
	h := sha256.New()
	h.Write([]byte(source))
	h.Write([]byte{0})
	h.Write([]byte(target))
	h.Write([]byte{0})
	h.Write([]byte(message))
	return "translation:" + hex.EncodeToString(h.Sum(nil))
}

// containsLetter reports whether the message has any letter in any script.
// Purely numeric or punctuation content is never worth a translation call.
func containsLetter(message string) bool {
	return strings.ContainsFunc(message, unicode.IsLetter)
}
