//
// Tencent is pleased to support the open source community by making trpc-rag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-rag-go is licensed under the Apache License Version 2.0.
//
//

// Package transform condenses compound or run-on user queries into a single
// terse question before retrieval.
package transform

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"trpc.group/trpc-go/trpc-rag-go/llm"
)

const optimizePrompt = `Rewrite the following message as a single short sentence or question that preserves its main intent.
Drop greetings, background stories and repeated information.
Please return only the rewritten message without any additional text.

Message: %s
`

const (
	maxPeriods       = 1
	maxQuestionMarks = 1
	maxCommas        = 2

	defaultLengthThreshold = 150
)

// Punctuation classes across the scripts the service handles.
var (
	periodRunes       = ".。"
	commaRunes        = ",،，、"
	questionMarkRunes = "?؟？"
)

// Result carries the original query next to its optimized form.
type Result struct {
	OriginalQuery string `json:"original_query"`
	ModifiedQuery string `json:"modified_query"`
}

// Transformer decides whether a query needs optimization and performs it.
type Transformer struct {
	completer       llm.Completer
	model           string
	lengthThreshold int
}

// Option represents a functional option for configuring the Transformer.
type Option func(*Transformer)

// WithModel sets the model used for query optimization.
func WithModel(model string) Option {
	return func(t *Transformer) {
		t.model = model
	}
}

// WithLengthThreshold overrides the character length above which a query is
// considered transformation-worthy.
func WithLengthThreshold(n int) Option {
	return func(t *Transformer) {
		t.lengthThreshold = n
	}
}

// New creates a query transformer backed by the given completer.
func New(completer llm.Completer, opts ...Option) *Transformer {
	t := &Transformer{
		completer:       completer,
		lengthThreshold: defaultLengthThreshold,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Required reports whether the query's punctuation density or length suggests
// a compound question that will retrieve poorly. This is a cheap gate that
// lets callers skip the optimization call entirely.
func (t *Transformer) Required(query string) bool {
	if countAny(query, periodRunes) > maxPeriods {
		return true
	}
	if countAny(query, questionMarkRunes) > maxQuestionMarks {
		return true
	}
	if countAny(query, commaRunes) > maxCommas {
		return true
	}
	// Characters, not bytes; non-Latin scripts would otherwise trip the
	// threshold at a fraction of the intended length.
	return utf8.RuneCountInString(query) > t.lengthThreshold
}

// Transform invokes the model to compress the query into one terse question.
func (t *Transformer) Transform(ctx context.Context, query string) (Result, error) {
	prompt := fmt.Sprintf(optimizePrompt, query)
	var opts []llm.CompleteOption
	if t.model != "" {
		opts = append(opts, llm.WithModel(t.model))
	}
	modified, err := t.completer.Complete(ctx, []llm.Message{llm.UserMessage(prompt)}, opts...)
	if err != nil {
		return Result{}, fmt.Errorf("transform: optimize query: %w", err)
	}
	return Result{
		OriginalQuery: query,
		ModifiedQuery: strings.TrimSpace(modified),
	}, nil
}

func countAny(s, runes string) int {
	count := 0
	for _, r := range s {
		if strings.ContainsRune(runes, r) {
			count++
		}
	}
	return count
}
