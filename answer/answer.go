//
// Tencent is pleased to support the open source community by making trpc-rag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-rag-go is licensed under the Apache License Version 2.0.
//
//

// Package answer orchestrates the retrieval pipeline: intent check, query
// optimization, search, deduplication, relevance filtering, context assembly,
// generation and response translation.
package answer

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"trpc.group/trpc-go/trpc-rag-go/chat"
	"trpc.group/trpc-go/trpc-rag-go/document"
	"trpc.group/trpc-go/trpc-rag-go/llm"
	"trpc.group/trpc-go/trpc-rag-go/log"
	"trpc.group/trpc-go/trpc-rag-go/search"
	"trpc.group/trpc-go/trpc-rag-go/transform"
)

const checkQuestionPrompt = `Does the following message express a question or indicate a need? Respond with only "yes" or "no".

Message: %s
`

const ragPrompt = `You are an assistant for question-answering tasks.
Use the following pieces of retrieved context to answer the question.
If you don't know the answer, just say that you don't know.
Use three sentences maximum and keep the answer concise.
Answer in the language tagged as "%s".

Question: %s

Context: %s

Answer:
`

// noAnswerMessage is sent when nothing relevant was retrieved. It is written
// in the pipeline fallback language and translated for the requester.
const (
	noAnswerMessage  = "Sorry, we could not find an answer for you in the available content. Please wait for a message from a human counselor."
	noAnswerLanguage = "en"
)

const (
	defaultMaxPages          = 3
	defaultDistanceThreshold = 0.5
	defaultContextMaxLength  = 8000
)

// Searcher is the retrieval capability the orchestrator depends on.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int, includeText bool) ([]*document.Document, error)
}

// QueryTransformer gates and performs query optimization.
type QueryTransformer interface {
	Required(query string) bool
	Transform(ctx context.Context, query string) (transform.Result, error)
}

// RelevanceFilter drops retrieved documents unrelated to the question.
type RelevanceFilter interface {
	Filter(ctx context.Context, question string, docs []*document.Document) ([]*document.Document, error)
}

// Service answers one region's questions over its indexed content.
type Service struct {
	completer         llm.Completer
	searcher          Searcher
	languages         chat.LanguageService
	transformer       QueryTransformer
	filter            RelevanceFilter
	model             string
	maxPages          int
	distanceThreshold float64
	contextMaxLength  int
}

// Option represents a functional option for configuring the Service.
type Option func(*Service)

// WithModel sets the generation model.
func WithModel(model string) Option {
	return func(s *Service) {
		s.model = model
	}
}

// WithQueryTransformer enables query optimization.
func WithQueryTransformer(t QueryTransformer) Option {
	return func(s *Service) {
		s.transformer = t
	}
}

// WithRelevanceFilter enables relevance filtering. Without one the stage is
// the identity.
func WithRelevanceFilter(f RelevanceFilter) Option {
	return func(s *Service) {
		s.filter = f
	}
}

// WithMaxPages caps the unique source pages feeding the answer.
func WithMaxPages(n int) Option {
	return func(s *Service) {
		s.maxPages = n
	}
}

// WithDistanceThreshold drops retrievals scored worse than the threshold.
func WithDistanceThreshold(score float64) Option {
	return func(s *Service) {
		s.distanceThreshold = score
	}
}

// WithContextMaxLength caps the assembled context in bytes.
func WithContextMaxLength(n int) Option {
	return func(s *Service) {
		s.contextMaxLength = n
	}
}

// New creates the pipeline orchestrator.
func New(completer llm.Completer, searcher Searcher, languages chat.LanguageService, opts ...Option) *Service {
	s := &Service{
		completer:         completer,
		searcher:          searcher,
		languages:         languages,
		maxPages:          defaultMaxPages,
		distanceThreshold: defaultDistanceThreshold,
		contextMaxLength:  defaultContextMaxLength,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NeedsAnswer classifies whether the message asks a question or expresses a
// need. A negative result short-circuits the whole pipeline.
func (s *Service) NeedsAnswer(ctx context.Context, message string) (bool, error) {
	prompt := fmt.Sprintf(checkQuestionPrompt, message)
	response, err := s.complete(ctx, prompt)
	if err != nil {
		return false, fmt.Errorf("answer: intent check: %w", err)
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(response)), "yes"), nil
}

// ExtractAnswer runs the full pipeline for one request.
func (s *Service) ExtractAnswer(ctx context.Context, req *chat.Request) (*chat.Response, error) {
	pipelineLanguage, err := req.PipelineLanguage(ctx)
	if err != nil {
		return nil, fmt.Errorf("answer: resolve pipeline language: %w", err)
	}
	question, err := req.PipelineMessage(ctx)
	if err != nil {
		return nil, fmt.Errorf("answer: prepare message: %w", err)
	}

	needed, err := s.NeedsAnswer(ctx, question)
	if err != nil {
		return nil, err
	}
	if !needed {
		return &chat.Response{
			Status:          chat.StatusNotQuestion,
			OriginalMessage: req.OriginalMessage,
		}, nil
	}

	query := s.prepareQuery(ctx, question)
	docs, err := s.retrieve(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return s.noAnswerResponse(ctx, req, pipelineLanguage, question)
	}

	generated, err := s.generate(ctx, pipelineLanguage, question, docs)
	if err != nil {
		return nil, err
	}
	if req.GUILanguage != pipelineLanguage {
		generated, err = s.languages.Translate(ctx, pipelineLanguage, req.GUILanguage, generated)
		if err != nil {
			return nil, fmt.Errorf("answer: translate response: %w", err)
		}
	}
	return &chat.Response{
		Answer:           generated,
		Documents:        docs,
		Status:           chat.StatusSuccess,
		OriginalMessage:  req.OriginalMessage,
		PipelineLanguage: pipelineLanguage,
		PipelineMessage:  question,
	}, nil
}

// prepareQuery optionally compresses the question for retrieval. The
// optimization is best-effort: on failure the original question is used.
func (s *Service) prepareQuery(ctx context.Context, question string) string {
	if s.transformer == nil || !s.transformer.Required(question) {
		return question
	}
	result, err := s.transformer.Transform(ctx, question)
	if err != nil {
		log.Warnf("query optimization failed, using original query: %v", err)
		return question
	}
	log.Debugf("optimized query %q to %q", question, result.ModifiedQuery)
	return result.ModifiedQuery
}

func (s *Service) retrieve(ctx context.Context, query string) ([]*document.Document, error) {
	docs, err := s.searcher.Search(ctx, query, 0, true)
	if err != nil {
		return nil, fmt.Errorf("answer: retrieve documents: %w", err)
	}
	docs = search.DeduplicatePages(docs, s.maxPages, s.distanceThreshold)
	log.Debugf("retrieved %d unique pages", len(docs))
	if s.filter != nil {
		docs, err = s.filter.Filter(ctx, query, docs)
		if err != nil {
			return nil, fmt.Errorf("answer: relevance filter: %w", err)
		}
		log.Debugf("%d pages survived the relevance check", len(docs))
	}
	return docs, nil
}

func (s *Service) generate(ctx context.Context, language, question string, docs []*document.Document) (string, error) {
	texts := make([]string, 0, len(docs))
	for _, doc := range docs {
		texts = append(texts, doc.Text())
	}
	context := hardCut(strings.Join(texts, "\n"), s.contextMaxLength)

	prompt := fmt.Sprintf(ragPrompt, language, question, context)
	generated, err := s.complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("answer: generate: %w", err)
	}
	return strings.TrimSpace(generated), nil
}

// noAnswerResponse is the defined empty-result branch: a localized fallback
// message and no citations.
func (s *Service) noAnswerResponse(ctx context.Context, req *chat.Request, pipelineLanguage, question string) (*chat.Response, error) {
	message, err := s.languages.Translate(ctx, noAnswerLanguage, req.GUILanguage, noAnswerMessage)
	if err != nil {
		return nil, fmt.Errorf("answer: translate fallback message: %w", err)
	}
	return &chat.Response{
		Answer:           message,
		Documents:        []*document.Document{},
		Status:           chat.StatusSuccess,
		OriginalMessage:  req.OriginalMessage,
		PipelineLanguage: pipelineLanguage,
		PipelineMessage:  question,
	}, nil
}

func (s *Service) complete(ctx context.Context, prompt string) (string, error) {
	var opts []llm.CompleteOption
	if s.model != "" {
		opts = append(opts, llm.WithModel(s.model))
	}
	return s.completer.Complete(ctx, []llm.Message{llm.UserMessage(prompt)}, opts...)
}

// hardCut truncates at the budget boundary without splitting a UTF-8
// sequence.
func hardCut(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	cut := s[:limit]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}
