//
// Tencent is pleased to support the open source community by making trpc-rag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-rag-go is licensed under the Apache License Version 2.0.
//
//

package language

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-rag-go/cache"
	"trpc.group/trpc-go/trpc-rag-go/llm"
)

// fakeCompleter returns canned responses and counts calls.
type fakeCompleter struct {
	response string
	fn       func(messages []llm.Message) (string, error)
	calls    atomic.Int64
}

func (f *fakeCompleter) Complete(ctx context.Context, messages []llm.Message, opts ...llm.CompleteOption) (string, error) {
	f.calls.Add(1)
	if f.fn != nil {
		return f.fn(messages)
	}
	return f.response, nil
}

func TestNormalizeTag(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"en", "en"},
		{"en-US", "en"},
		{"EN-GB", "en"},
		{"eng", "en"},
		{"de_DE", "de"},
		{"ku", "kmr"},
		{"fa-IR", "fa"},
		{" uk \n", "uk"},
		{"de (German)", "de"},
		{"", ""},
		{"gibberishtag", "gibberishtag"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeTag(tt.raw), "raw=%q", tt.raw)
	}
}

func TestDetectNormalizesModelOutput(t *testing.T) {
	svc := New(&fakeCompleter{response: "de-DE\n"})
	got, err := svc.Detect(context.Background(), "Wo ist das Rathaus?")
	require.NoError(t, err)
	assert.Equal(t, "de", got)
}

func TestTranslateIdentityWhenLanguagesMatch(t *testing.T) {
	completer := &fakeCompleter{response: "should never be called"}
	svc := New(completer)
	got, err := svc.Translate(context.Background(), "en", "en", "Hello there.")
	require.NoError(t, err)
	assert.Equal(t, "Hello there.", got)
	assert.Zero(t, completer.calls.Load())
}

func TestTranslateSkipsNumericContent(t *testing.T) {
	completer := &fakeCompleter{response: "should never be called"}
	svc := New(completer)
	got, err := svc.Translate(context.Background(), "de", "en", "42")
	require.NoError(t, err)
	assert.Equal(t, "42", got)
	assert.Zero(t, completer.calls.Load())
}

func TestTranslateUnsupportedPair(t *testing.T) {
	svc := New(&fakeCompleter{response: "x"})
	_, err := svc.Translate(context.Background(), "xx", "en", "hello world")
	require.Error(t, err)
	var pairErr *UnsupportedLanguagePairError
	require.ErrorAs(t, err, &pairErr)
	assert.Equal(t, "xx", pairErr.Source)
	assert.Equal(t, "en", pairErr.Target)
}

func TestTranslateCachesResult(t *testing.T) {
	completer := &fakeCompleter{response: "Hallo Welt."}
	svc := New(completer, WithCache(cache.NewInMemory()))

	first, err := svc.Translate(context.Background(), "en", "de", "Hello world.")
	require.NoError(t, err)
	second, err := svc.Translate(context.Background(), "en", "de", "Hello world.")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), completer.calls.Load(), "second call must hit the cache")
}

func TestTranslateJoinsChunksWithSpaces(t *testing.T) {
	completer := &fakeCompleter{fn: func(messages []llm.Message) (string, error) {
		return "X.", nil
	}}
	svc := New(completer, WithChunkSize(25))
	got, err := svc.Translate(context.Background(), "en", "de",
		"First sentence here okay. Second sentence here okay. Third sentence here okay.")
	require.NoError(t, err)
	assert.Equal(t, "X. X. X.", got)
	assert.Equal(t, int64(3), completer.calls.Load())
}

func TestOpportunisticTranslate(t *testing.T) {
	t.Run("matching language returns input", func(t *testing.T) {
		completer := &fakeCompleter{response: "en"}
		svc := New(completer)
		got, err := svc.OpportunisticTranslate(context.Background(), "en", "Hello there.")
		require.NoError(t, err)
		assert.Equal(t, "Hello there.", got)
		assert.Equal(t, int64(1), completer.calls.Load(), "only the detection call")
	})

	t.Run("mismatch triggers translation", func(t *testing.T) {
		completer := &fakeCompleter{fn: func(messages []llm.Message) (string, error) {
			return "de", nil
		}}
		svc := New(completer)
		got, err := svc.OpportunisticTranslate(context.Background(), "en", "Hallo.")
		require.NoError(t, err)
		assert.Equal(t, "de", got)
		assert.Equal(t, int64(2), completer.calls.Load())
	})
}
