//
// Tencent is pleased to support the open source community by making trpc-rag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-rag-go is licensed under the Apache License Version 2.0.
//
//

package answer

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-rag-go/chat"
	"trpc.group/trpc-go/trpc-rag-go/document"
	"trpc.group/trpc-go/trpc-rag-go/llm"
	"trpc.group/trpc-go/trpc-rag-go/transform"
)

// scriptedCompleter answers the intent check and the generation prompt.
type scriptedCompleter struct {
	intent   string
	answer   string
	detected string
}

func (s *scriptedCompleter) Complete(ctx context.Context, messages []llm.Message, opts ...llm.CompleteOption) (string, error) {
	prompt := messages[0].Content
	switch {
	case strings.Contains(prompt, "express a question or indicate a need"):
		return s.intent, nil
	case strings.Contains(prompt, "question-answering tasks"):
		return s.answer, nil
	default:
		return "", nil
	}
}

type fakeSearcher struct {
	docs  []*document.Document
	calls atomic.Int64
}

func (f *fakeSearcher) Search(ctx context.Context, query string, maxResults int, includeText bool) ([]*document.Document, error) {
	f.calls.Add(1)
	return f.docs, nil
}

type fakeLanguages struct {
	detected string
}

func (f *fakeLanguages) Detect(ctx context.Context, message string) (string, error) {
	return f.detected, nil
}

func (f *fakeLanguages) Translate(ctx context.Context, source, target, message string) (string, error) {
	return "[" + target + "] " + message, nil
}

func newRequest(t *testing.T, message, guiLanguage string, langs chat.LanguageService) *chat.Request {
	t.Helper()
	req, err := chat.NewRequest(message, guiLanguage, "x", langs, []string{"en", "de"}, "en")
	require.NoError(t, err)
	return req
}

func TestExtractAnswerHappyPath(t *testing.T) {
	docs := []*document.Document{
		{SourcePath: "/x/en/school/", Chunk: "chunk", Score: 0.1, Title: "School", Content: "Register at the school office."},
	}
	searcher := &fakeSearcher{docs: docs}
	svc := New(&scriptedCompleter{intent: "yes", answer: "You can register at the school office."}, searcher, &fakeLanguages{detected: "en"})

	resp, err := svc.ExtractAnswer(context.Background(), newRequest(t, "Where can I register my child for school?", "en", &fakeLanguages{detected: "en"}))
	require.NoError(t, err)
	assert.Equal(t, chat.StatusSuccess, resp.Status)
	assert.Equal(t, "You can register at the school office.", resp.Answer)
	require.NotEmpty(t, resp.Documents, "answer must reference at least one source")
	assert.Equal(t, "/x/en/school/", resp.Documents[0].SourcePath)
	assert.Equal(t, "en", resp.PipelineLanguage)
}

func TestExtractAnswerNotAQuestion(t *testing.T) {
	searcher := &fakeSearcher{}
	svc := New(&scriptedCompleter{intent: "no"}, searcher, &fakeLanguages{detected: "en"})

	resp, err := svc.ExtractAnswer(context.Background(), newRequest(t, "Thank you very much!", "en", &fakeLanguages{detected: "en"}))
	require.NoError(t, err)
	assert.Equal(t, chat.StatusNotQuestion, resp.Status)
	assert.Empty(t, resp.Answer)
	assert.Zero(t, searcher.calls.Load(), "no retrieval after the intent short-circuit")
}

func TestExtractAnswerNoDocumentsFallback(t *testing.T) {
	svc := New(&scriptedCompleter{intent: "yes"}, &fakeSearcher{}, &fakeLanguages{detected: "de"})

	resp, err := svc.ExtractAnswer(context.Background(), newRequest(t, "Wo kann ich heiraten?", "de", &fakeLanguages{detected: "de"}))
	require.NoError(t, err)
	assert.Equal(t, chat.StatusSuccess, resp.Status)
	assert.Empty(t, resp.Documents)
	assert.True(t, strings.HasPrefix(resp.Answer, "[de] "), "fallback message is localized, got %q", resp.Answer)
}

func TestExtractAnswerBackTranslation(t *testing.T) {
	docs := []*document.Document{{SourcePath: "/x/en/a/", Chunk: "c", Score: 0.1, Content: "text"}}
	langs := &fakeLanguages{detected: "uk"}
	svc := New(&scriptedCompleter{intent: "yes", answer: "The office opens at nine."}, &fakeSearcher{docs: docs}, langs)

	resp, err := svc.ExtractAnswer(context.Background(), newRequest(t, "Коли відкрито?", "uk", langs))
	require.NoError(t, err)
	assert.Equal(t, "en", resp.PipelineLanguage, "unsupported language falls back")
	assert.Equal(t, "[uk] The office opens at nine.", resp.Answer)
}

func TestExtractAnswerDeduplicatesAndThresholds(t *testing.T) {
	docs := []*document.Document{
		{SourcePath: "/a", Chunk: "best a", Score: 0.1, Content: "a"},
		{SourcePath: "/a", Chunk: "worse a", Score: 0.2, Content: "a2"},
		{SourcePath: "/b", Chunk: "b", Score: 0.3, Content: "b"},
		{SourcePath: "/c", Chunk: "too far", Score: 0.9, Content: "c"},
	}
	svc := New(&scriptedCompleter{intent: "yes", answer: "ok"}, &fakeSearcher{docs: docs}, &fakeLanguages{detected: "en"},
		WithMaxPages(3), WithDistanceThreshold(0.5))

	resp, err := svc.ExtractAnswer(context.Background(), newRequest(t, "Question?", "en", &fakeLanguages{detected: "en"}))
	require.NoError(t, err)
	require.Len(t, resp.Documents, 2)
	assert.Equal(t, "best a", resp.Documents[0].Chunk)
	assert.Equal(t, "/b", resp.Documents[1].SourcePath)
}

type identityFilter struct {
	seen atomic.Int64
}

func (f *identityFilter) Filter(ctx context.Context, question string, docs []*document.Document) ([]*document.Document, error) {
	f.seen.Add(1)
	return docs, nil
}

func TestExtractAnswerAppliesRelevanceFilter(t *testing.T) {
	docs := []*document.Document{{SourcePath: "/a", Chunk: "a", Score: 0.1, Content: "a"}}
	filter := &identityFilter{}
	svc := New(&scriptedCompleter{intent: "yes", answer: "ok"}, &fakeSearcher{docs: docs}, &fakeLanguages{detected: "en"},
		WithRelevanceFilter(filter))

	_, err := svc.ExtractAnswer(context.Background(), newRequest(t, "Question?", "en", &fakeLanguages{detected: "en"}))
	require.NoError(t, err)
	assert.Equal(t, int64(1), filter.seen.Load())
}

type fixedTransformer struct {
	used atomic.Int64
}

func (f *fixedTransformer) Required(query string) bool { return len(query) > 30 }
func (f *fixedTransformer) Transform(ctx context.Context, query string) (transform.Result, error) {
	f.used.Add(1)
	return transform.Result{OriginalQuery: query, ModifiedQuery: "short query"}, nil
}

func TestExtractAnswerOptimizesLongQueries(t *testing.T) {
	tr := &fixedTransformer{}
	svc := New(&scriptedCompleter{intent: "yes", answer: "ok"},
		&fakeSearcher{docs: []*document.Document{{SourcePath: "/a", Score: 0.1, Content: "a"}}},
		&fakeLanguages{detected: "en"}, WithQueryTransformer(tr))

	t.Run("short query skips the optimization call", func(t *testing.T) {
		_, err := svc.ExtractAnswer(context.Background(), newRequest(t, "Short question?", "en", &fakeLanguages{detected: "en"}))
		require.NoError(t, err)
		assert.Zero(t, tr.used.Load())
	})

	t.Run("long query is optimized", func(t *testing.T) {
		_, err := svc.ExtractAnswer(context.Background(), newRequest(t, "This is a rather long and rambling question about many things?", "en", &fakeLanguages{detected: "en"}))
		require.NoError(t, err)
		assert.Equal(t, int64(1), tr.used.Load())
	})
}

func TestHardCut(t *testing.T) {
	assert.Equal(t, "abc", hardCut("abc", 10))
	assert.Equal(t, "ab", hardCut("abcdef", 2))
	assert.Equal(t, "abcdef", hardCut("abcdef", 0), "non-positive budget means unlimited")
	// Never splits a multi-byte rune.
	cut := hardCut("aä", 2)
	assert.Equal(t, "a", cut)
}
