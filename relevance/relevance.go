//
// Tencent is pleased to support the open source community by making trpc-rag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-rag-go is licensed under the Apache License Version 2.0.
//
//

// Package relevance grades retrieved chunks against the question and drops
// the erroneous retrievals.
package relevance

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"trpc.group/trpc-go/trpc-rag-go/document"
	"trpc.group/trpc-go/trpc-rag-go/llm"
	"trpc.group/trpc-go/trpc-rag-go/log"
)

const relevancePrompt = `You are a grader assessing relevance of a retrieved document to a user question.
If the document contains keyword(s) or semantic meaning related to the user question, grade it as relevant.
It does not need to be a stringent test. The goal is to filter out erroneous retrievals.
Give a binary score 'yes' or 'no' score to indicate whether the document is relevant to the question and only answer with either 'yes' or 'no'.

User question: %s

Retrieved document: %s
`

const (
	defaultConcurrency = 4
	defaultTimeout     = 30 * time.Second
)

// Filter grades documents concurrently and keeps the relevant ones.
type Filter struct {
	completer   llm.Completer
	model       string
	concurrency int
	timeout     time.Duration
}

// Option represents a functional option for configuring the Filter.
type Option func(*Filter)

// WithModel sets the grading model.
func WithModel(model string) Option {
	return func(f *Filter) {
		f.model = model
	}
}

// WithConcurrency caps the in-flight grading calls.
func WithConcurrency(n int) Option {
	return func(f *Filter) {
		f.concurrency = n
	}
}

// WithTimeout sets the per-document grading timeout. A timed-out check
// counts as not relevant.
func WithTimeout(d time.Duration) Option {
	return func(f *Filter) {
		f.timeout = d
	}
}

// New creates a relevance filter backed by the given completer.
func New(completer llm.Completer, opts ...Option) *Filter {
	f := &Filter{
		completer:   completer,
		concurrency: defaultConcurrency,
		timeout:     defaultTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Filter fans one grading call out per document through a bounded worker
// pool and fans back in preserving input order. A document is kept when the
// trimmed, case-normalized response starts with "yes". Grading failures and
// timeouts drop only the affected document.
func (f *Filter) Filter(ctx context.Context, question string, docs []*document.Document) ([]*document.Document, error) {
	if len(docs) == 0 {
		return docs, nil
	}
	pool, err := ants.NewPool(f.concurrency)
	if err != nil {
		return nil, fmt.Errorf("relevance: create worker pool: %w", err)
	}
	defer pool.Release()

	keep := make([]bool, len(docs))
	var wg sync.WaitGroup
	for i, doc := range docs {
		wg.Add(1)
		idx, d := i, doc
		task := func() {
			defer wg.Done()
			keep[idx] = f.grade(ctx, question, d)
		}
		if err := pool.Submit(task); err != nil {
			wg.Done()
			log.Warnf("relevance task submit failed for %s: %v", d.SourcePath, err)
		}
	}
	wg.Wait()

	kept := make([]*document.Document, 0, len(docs))
	for i, doc := range docs {
		if keep[i] {
			kept = append(kept, doc)
		}
	}
	return kept, nil
}

func (f *Filter) grade(ctx context.Context, question string, doc *document.Document) bool {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	prompt := fmt.Sprintf(relevancePrompt, question, doc.Text())
	var opts []llm.CompleteOption
	if f.model != "" {
		opts = append(opts, llm.WithModel(f.model))
	}
	response, err := f.completer.Complete(ctx, []llm.Message{llm.UserMessage(prompt)}, opts...)
	if err != nil {
		log.Warnf("relevance check failed for %s, dropping document: %v", doc.SourcePath, err)
		return false
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(response)), "yes")
}
