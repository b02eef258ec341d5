//
// Tencent is pleased to support the open source community by making trpc-rag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-rag-go is licensed under the Apache License Version 2.0.
//
//

// Package chunking splits CMS page HTML into indexable sections.
package chunking

import (
	"strings"

	"golang.org/x/net/html"
)

// Section is one contiguous stretch of page text under a headline. Pages
// without headlines produce a single section with an empty headline.
type Section struct {
	Headline string
	Text     string
}

// headerTags are the headline levels that open a new section.
var headerTags = map[string]bool{
	"h1": true,
	"h2": true,
}

// ignoredTags hold no prose.
var ignoredTags = map[string]bool{
	"script": true,
	"style":  true,
}

// SplitByHeaders tokenizes page HTML and cuts it into sections at h1 and h2
// headlines. Markup is stripped; sections with no text are dropped.
func SplitByHeaders(content string) []Section {
	if strings.TrimSpace(content) == "" {
		return nil
	}
	tokenizer := html.NewTokenizer(strings.NewReader(content))

	var sections []Section
	var headline string
	var text strings.Builder
	var headlineBuf strings.Builder
	inHeader := false
	skip := ""

	flush := func() {
		body := collapseWhitespace(text.String())
		if body != "" {
			sections = append(sections, Section{Headline: headline, Text: body})
		}
		text.Reset()
	}

	for {
		tokenType := tokenizer.Next()
		if tokenType == html.ErrorToken {
			break
		}
		switch tokenType {
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := tokenizer.TagName()
			tag := string(name)
			if ignoredTags[tag] {
				skip = tag
				continue
			}
			if headerTags[tag] {
				flush()
				inHeader = true
				headlineBuf.Reset()
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			tag := string(name)
			if tag == skip {
				skip = ""
				continue
			}
			if headerTags[tag] && inHeader {
				inHeader = false
				headline = collapseWhitespace(headlineBuf.String())
			}
		case html.TextToken:
			if skip != "" {
				continue
			}
			if inHeader {
				headlineBuf.Write(tokenizer.Text())
				continue
			}
			text.Write(tokenizer.Text())
			text.WriteByte(' ')
		}
	}
	flush()
	return sections
}

// Texts returns only the section bodies, in page order.
func Texts(sections []Section) []string {
	texts := make([]string, 0, len(sections))
	for _, s := range sections {
		texts = append(texts, s.Text)
	}
	return texts
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
