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
	"strings"
	"unicode/utf8"
)

// sentenceTerminators are the sentence-ending marks recognized across the
// scripts the service handles. Latin, CJK, Arabic, Urdu and Devanagari forms.
var sentenceTerminators = map[rune]bool{
	'.': true, '!': true, '?': true,
	'。': true, '！': true, '？': true,
	'؟': true, '۔': true, '।': true,
	'…': true,
}

// SplitSentences breaks text at sentence-terminal punctuation. Terminators
// stay attached to their sentence and no empty sentences are produced.
func SplitSentences(text string) []string {
	var sentences []string
	var b strings.Builder
	for _, r := range text {
		b.WriteRune(r)
		if sentenceTerminators[r] {
			if s := strings.TrimSpace(b.String()); s != "" {
				sentences = append(sentences, s)
			}
			b.Reset()
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// ChunkSentences packs sentences into chunks of at most maxLen characters
// (runes, not bytes) without ever splitting inside a sentence. A single
// sentence longer than maxLen becomes its own chunk.
func ChunkSentences(text string, maxLen int) []string {
	sentences := SplitSentences(text)
	var chunks []string
	var current strings.Builder
	length := 0
	for _, sentence := range sentences {
		runes := utf8.RuneCountInString(sentence)
		if length > 0 && length+1+runes > maxLen {
			chunks = append(chunks, current.String())
			current.Reset()
			length = 0
		}
		if length > 0 {
			current.WriteByte(' ')
			length++
		}
		current.WriteString(sentence)
		length += runes
	}
	if length > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
