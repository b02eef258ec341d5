//
// Tencent is pleased to support the open source community by making trpc-rag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-rag-go is licensed under the Apache License Version 2.0.
//
//

package chat

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-rag-go/document"
)

type fakeLanguages struct {
	detected       string
	detectCalls    atomic.Int64
	translateCalls atomic.Int64
}

func (f *fakeLanguages) Detect(ctx context.Context, message string) (string, error) {
	f.detectCalls.Add(1)
	return f.detected, nil
}

func (f *fakeLanguages) Translate(ctx context.Context, source, target, message string) (string, error) {
	f.translateCalls.Add(1)
	return "[" + target + "] " + message, nil
}

var (
	supported = []string{"en", "de"}
	fallback  = "en"
)

func TestNewRequestValidation(t *testing.T) {
	langs := &fakeLanguages{detected: "en"}
	_, err := NewRequest("", "en", "x", langs, supported, fallback)
	require.Error(t, err)
	_, err = NewRequest("hi", "", "x", langs, supported, fallback)
	require.Error(t, err)
	_, err = NewRequest("hi", "en", "", langs, supported, fallback)
	require.Error(t, err)
}

func TestDetectedLanguageMemoized(t *testing.T) {
	langs := &fakeLanguages{detected: "de"}
	req, err := NewRequest("Wo ist das Rathaus?", "de", "x", langs, supported, fallback)
	require.NoError(t, err)

	for range 3 {
		detected, err := req.DetectedLanguage(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "de", detected)
	}
	assert.Equal(t, int64(1), langs.detectCalls.Load(), "detection runs once")
}

func TestPipelineLanguage(t *testing.T) {
	t.Run("supported detected language", func(t *testing.T) {
		req, err := NewRequest("m", "de", "x", &fakeLanguages{detected: "de"}, supported, fallback)
		require.NoError(t, err)
		lang, err := req.PipelineLanguage(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "de", lang)
	})

	t.Run("unsupported falls back", func(t *testing.T) {
		req, err := NewRequest("m", "uk", "x", &fakeLanguages{detected: "uk"}, supported, fallback)
		require.NoError(t, err)
		lang, err := req.PipelineLanguage(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "en", lang)
	})
}

func TestPipelineMessage(t *testing.T) {
	t.Run("supported language keeps original", func(t *testing.T) {
		langs := &fakeLanguages{detected: "en"}
		req, err := NewRequest("Where is the town hall?", "en", "x", langs, supported, fallback)
		require.NoError(t, err)
		msg, err := req.PipelineMessage(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Where is the town hall?", msg)
		assert.Zero(t, langs.translateCalls.Load())
	})

	t.Run("unsupported language translates once", func(t *testing.T) {
		langs := &fakeLanguages{detected: "uk"}
		req, err := NewRequest("Де ратуша?", "uk", "x", langs, supported, fallback)
		require.NoError(t, err)
		for range 2 {
			msg, err := req.PipelineMessage(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "[en] Де ратуша?", msg)
		}
		assert.Equal(t, int64(1), langs.translateCalls.Load(), "translation memoized")
	})
}

func TestResponseCitations(t *testing.T) {
	resp := &Response{Documents: []*document.Document{
		{SourcePath: "/x/en/a/", DisplayPath: "/x/uk/a/", Title: "A"},
		{SourcePath: "/x/en/b/"},
		{SourcePath: "/x/en/c/", Title: "C"},
	}}
	citations := resp.Citations()
	require.Len(t, citations, 2, "untitled documents are omitted")
	assert.Equal(t, Citation{Path: "/x/uk/a/", Title: "A"}, citations[0])
	assert.Equal(t, Citation{Path: "/x/en/c/", Title: "C"}, citations[1])
}

func TestResponsePayload(t *testing.T) {
	resp := &Response{
		Answer:          "The office is at Main Street 1.",
		Status:          StatusSuccess,
		OriginalMessage: "Where is the office?",
		Documents: []*document.Document{
			{SourcePath: "/x/en/a/", Chunk: "chunk a", Score: 0.2, Content: "excerpt a", Title: "A"},
		},
	}
	payload := resp.Payload()
	assert.Equal(t, "success", payload.Status)
	assert.Equal(t, []string{"/x/en/a/"}, payload.Sources)
	require.Len(t, payload.Details, 1)
	assert.Equal(t, "excerpt a", payload.Details[0].Context)
	assert.Equal(t, 0.2, payload.Details[0].Score)
}

func TestResponsePayloadOmitsUntitledSources(t *testing.T) {
	resp := &Response{
		Status: StatusSuccess,
		Documents: []*document.Document{
			{SourcePath: "/x/en/a/", DisplayPath: "/x/uk/a/", Title: "A", Chunk: "chunk a", Score: 0.1},
			{SourcePath: "/x/en/b/", Chunk: "chunk b", Score: 0.3},
		},
	}
	payload := resp.Payload()
	assert.Equal(t, []string{"/x/uk/a/"}, payload.Sources,
		"sources are citations, unresolved titles are omitted")
	require.Len(t, payload.Details, 2, "context details cover every document")
	assert.Equal(t, "/x/en/b/", payload.Details[1].Source)
}
