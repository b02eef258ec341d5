//
// Tencent is pleased to support the open source community by making trpc-rag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-rag-go is licensed under the Apache License Version 2.0.
//
//

package chat

import "trpc.group/trpc-go/trpc-rag-go/document"

// Pipeline status values surfaced to callers.
const (
	StatusSuccess     = "success"
	StatusError       = "error"
	StatusNotQuestion = "not a question"
)

// Response is the outcome of one answer pipeline run. Documents are ordered
// and hold at most one chunk per source page.
type Response struct {
	Answer           string
	Documents        []*document.Document
	Status           string
	OriginalMessage  string
	PipelineLanguage string
	PipelineMessage  string
}

// Citation points a reader at one source page.
type Citation struct {
	Path  string `json:"source"`
	Title string `json:"title"`
}

// Citations maps the response documents to display-language citations.
// Documents whose title could not be resolved are omitted.
func (r *Response) Citations() []Citation {
	citations := make([]Citation, 0, len(r.Documents))
	for _, doc := range r.Documents {
		if doc.Title == "" {
			continue
		}
		path := doc.DisplayPath
		if path == "" {
			path = doc.SourcePath
		}
		citations = append(citations, Citation{Path: path, Title: doc.Title})
	}
	return citations
}

// Detail is the per-document context surfaced with an answer.
type Detail struct {
	Source  string  `json:"source"`
	Score   float64 `json:"score"`
	Context string  `json:"context"`
}

// AnswerPayload is the JSON body of a successful extract_answer call.
// Sources carries the citation paths (titled documents only); Details carries
// the retrieval context for every document that fed the answer.
type AnswerPayload struct {
	Answer           string   `json:"answer"`
	Status           string   `json:"status"`
	Message          string   `json:"message"`
	PipelineLanguage string   `json:"rag_language,omitempty"`
	PipelineMessage  string   `json:"rag_message,omitempty"`
	Sources          []string `json:"sources"`
	Details          []Detail `json:"details"`
}

// Payload flattens the response into its wire shape.
func (r *Response) Payload() *AnswerPayload {
	citations := r.Citations()
	payload := &AnswerPayload{
		Answer:           r.Answer,
		Status:           r.Status,
		Message:          r.OriginalMessage,
		PipelineLanguage: r.PipelineLanguage,
		PipelineMessage:  r.PipelineMessage,
		Sources:          make([]string, 0, len(citations)),
		Details:          make([]Detail, 0, len(r.Documents)),
	}
	for _, citation := range citations {
		payload.Sources = append(payload.Sources, citation.Path)
	}
	for _, doc := range r.Documents {
		payload.Details = append(payload.Details, Detail{
			Source:  doc.SourcePath,
			Score:   doc.Score,
			Context: doc.Text(),
		})
	}
	return payload
}
