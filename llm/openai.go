//
// Tencent is pleased to support the open source community by making trpc-rag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-rag-go is licensed under the Apache License Version 2.0.
//
//

package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

var _ Completer = (*Client)(nil)

// DefaultModel is used when neither the client nor the call specifies one.
const DefaultModel = "gpt-4o-mini"

// DefaultRequestTimeout bounds every completion request. The SDK itself sets
// no deadline, so an unset timeout would let a hung endpoint hang the caller.
const DefaultRequestTimeout = 120 * time.Second

// Client implements Completer against any OpenAI-compatible chat-completion
// endpoint (OpenAI itself, LiteLLM, vLLM, Ollama in OpenAI mode, ...).
type Client struct {
	client  openai.Client
	model   string
	apiKey  string
	baseURL string
	timeout time.Duration
}

// Option represents a functional option for configuring the Client.
type Option func(*Client)

// WithAPIKey sets the API key. If not provided, the OPENAI_API_KEY
// environment variable is used by the underlying SDK.
func WithAPIKey(apiKey string) Option {
	return func(c *Client) {
		c.apiKey = apiKey
	}
}

// WithBaseURL sets the base URL for OpenAI-compatible APIs.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithDefaultModel sets the model used when a call does not override it.
func WithDefaultModel(model string) Option {
	return func(c *Client) {
		c.model = model
	}
}

// WithRequestTimeout overrides the per-request timeout. Non-positive values
// keep the default.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// New creates a new chat-completion client with the given options.
func New(opts ...Option) *Client {
	c := &Client{
		model:   DefaultModel,
		timeout: DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	clientOpts := []option.RequestOption{
		option.WithRequestTimeout(c.timeout),
	}
	if c.apiKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(c.apiKey))
	}
	if c.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(c.baseURL))
	}
	c.client = openai.NewClient(clientOpts...)
	return c
}

// Complete implements the Completer interface.
func (c *Client) Complete(ctx context.Context, messages []Message, opts ...CompleteOption) (string, error) {
	if len(messages) == 0 {
		return "", errors.New("llm: messages cannot be empty")
	}
	config := applyCompleteOptions(opts)

	model := config.model
	if model == "" {
		model = c.model
	}

	request := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(model),
		Messages: convertMessages(messages),
	}
	if config.maxTokens > 0 {
		request.MaxCompletionTokens = openai.Int(int64(config.maxTokens))
	}
	if config.temperature != nil {
		request.Temperature = openai.Float(*config.temperature)
	}
	if config.schema != nil {
		request.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   config.schemaName,
					Schema: config.schema,
					Strict: openai.Bool(true),
				},
			},
		}
	}

	completion, err := c.client.Chat.Completions.New(ctx, request)
	if err != nil {
		return "", fmt.Errorf("llm: chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("llm: chat completion returned no choices")
	}
	return completion.Choices[0].Message.Content, nil
}

// convertMessages converts our Message format to OpenAI's format.
func convertMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			result = append(result, openai.SystemMessage(msg.Content))
		case RoleAssistant:
			result = append(result, openai.AssistantMessage(msg.Content))
		default:
			result = append(result, openai.UserMessage(msg.Content))
		}
	}
	return result
}
