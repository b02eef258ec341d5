//
// Tencent is pleased to support the open source community by making trpc-rag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-rag-go is licensed under the Apache License Version 2.0.
//
//

// Package document defines the retrieved-passage value object shared by the
// retrieval pipeline.
package document

import "sort"

// Document represents one retrieved chunk of a CMS page together with the
// metadata needed for answering and citation.
//
// Score follows distance semantics throughout the pipeline: lower is more
// relevant. Backends that report similarity must convert before handing
// documents to callers.
type Document struct {
	// SourcePath is the canonical path of the page the chunk was taken from,
	// in the language the index was built for.
	SourcePath string `json:"source"`

	// Chunk is the text of the passage as stored in the index.
	Chunk string `json:"found_chunk"`

	// Score is the retrieval distance. Lower is better.
	Score float64 `json:"score"`

	// DisplayPath is the page path in the requester's display language.
	// Filled during enrichment; falls back to SourcePath.
	DisplayPath string `json:"display_path,omitempty"`

	// Title is the page title in the display language. Empty when enrichment
	// failed or was skipped.
	Title string `json:"title,omitempty"`

	// Content is the page excerpt in the display language. Empty when
	// enrichment failed or was skipped.
	Content string `json:"content,omitempty"`
}

// Enriched reports whether title and content were resolved for the document.
func (d *Document) Enriched() bool {
	return d.Title != "" && d.Content != ""
}

// Text returns the best text available for building answer context: the
// enriched page excerpt when present, the raw chunk otherwise.
func (d *Document) Text() string {
	if d.Content != "" {
		return d.Content
	}
	return d.Chunk
}

// SortByScore orders documents best-first (ascending distance). The sort is
// stable so equal-scored documents keep their backend order.
func SortByScore(docs []*Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].Score < docs[j].Score
	})
}
