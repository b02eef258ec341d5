//
// Tencent is pleased to support the open source community by making trpc-rag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-rag-go is licensed under the Apache License Version 2.0.
//
//

// Package llm provides the chat-completion client used by every prompting
// stage of the pipeline.
package llm

import "context"

// Message roles understood by OpenAI-compatible chat endpoints.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents one chat message in a prompt.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UserMessage builds a user-role message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// SystemMessage builds a system-role message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// Completer is the prompting capability the pipeline depends on. Production
// code uses the OpenAI-compatible Client; tests substitute fakes.
type Completer interface {
	// Complete sends the messages to the model and returns the assistant
	// response text.
	Complete(ctx context.Context, messages []Message, opts ...CompleteOption) (string, error)
}

// CompleteOption represents a per-call option for Complete.
type CompleteOption func(*completeConfig)

type completeConfig struct {
	model       string
	maxTokens   int
	temperature *float64
	schemaName  string
	schema      map[string]any
}

// WithModel overrides the client default model for one call.
func WithModel(model string) CompleteOption {
	return func(c *completeConfig) {
		c.model = model
	}
}

// WithMaxTokens caps the completion length for one call.
func WithMaxTokens(n int) CompleteOption {
	return func(c *completeConfig) {
		c.maxTokens = n
	}
}

// WithTemperature sets the sampling temperature for one call.
func WithTemperature(t float64) CompleteOption {
	return func(c *completeConfig) {
		c.temperature = &t
	}
}

// WithJSONSchema constrains the response to the given JSON schema.
func WithJSONSchema(name string, schema map[string]any) CompleteOption {
	return func(c *completeConfig) {
		c.schemaName = name
		c.schema = schema
	}
}

func applyCompleteOptions(opts []CompleteOption) *completeConfig {
	config := &completeConfig{}
	for _, opt := range opts {
		opt(config)
	}
	return config
}
