//
// Tencent is pleased to support the open source community by making trpc-rag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-rag-go is licensed under the Apache License Version 2.0.
//
//

package transform

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-rag-go/llm"
)

type fakeCompleter struct {
	response string
}

func (f *fakeCompleter) Complete(ctx context.Context, messages []llm.Message, opts ...llm.CompleteOption) (string, error) {
	return f.response, nil
}

func TestRequired(t *testing.T) {
	tr := New(&fakeCompleter{})
	tests := []struct {
		name  string
		query string
		want  bool
	}{
		{"short simple question", "Where is the town hall?", false},
		{"two periods", "I arrived last week. I need a doctor. Where do I go", true},
		{"single period ok", "I need a doctor.", false},
		{"two question marks", "Where is it? When does it open?", true},
		{"three commas", "I need help with rent, school, work, and insurance", true},
		{"two commas ok", "I need help with rent, school, and work", false},
		{"arabic question marks", "أين المدرسة؟ ومتى تفتح؟", true},
		{"cjk punctuation", "你好。我需要帮助。", true},
		{"over length threshold", strings.Repeat("a", 151), true},
		{"at length threshold", strings.Repeat("a", 150), false},
		{"multibyte at threshold", strings.Repeat("ق", 150), false},
		{"multibyte over threshold", strings.Repeat("ق", 151), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tr.Required(tt.query))
		})
	}
}

func TestTransform(t *testing.T) {
	tr := New(&fakeCompleter{response: "Where can I register for school?\n"})
	got, err := tr.Transform(context.Background(), "Hello! I arrived last month. My son is six. Where can I register him for school?")
	require.NoError(t, err)
	assert.Equal(t, "Hello! I arrived last month. My son is six. Where can I register him for school?", got.OriginalQuery)
	assert.Equal(t, "Where can I register for school?", got.ModifiedQuery)
}
