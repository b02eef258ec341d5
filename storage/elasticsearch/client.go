//
// Tencent is pleased to support the open source community by making trpc-rag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-rag-go is licensed under the Apache License Version 2.0.
//
//

package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	esv9 "github.com/elastic/go-elasticsearch/v9"
)

var _ Client = (*client)(nil)

// DefaultRequestTimeout bounds every call against the cluster.
const DefaultRequestTimeout = 15 * time.Second

// client implements Client on top of the official v9 SDK.
type client struct {
	esClient *esv9.Client
	timeout  time.Duration
}

// options holds connection settings for New.
type options struct {
	addresses []string
	username  string
	password  string
	timeout   time.Duration
}

// Option represents a functional option for configuring the client.
type Option func(*options)

// WithAddresses sets the Elasticsearch node addresses.
func WithAddresses(addresses []string) Option {
	return func(o *options) {
		o.addresses = addresses
	}
}

// WithBasicAuth sets basic authentication credentials.
func WithBasicAuth(username, password string) Option {
	return func(o *options) {
		o.username = username
		o.password = password
	}
}

// WithRequestTimeout overrides the per-call timeout. Non-positive values keep
// the default.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// New creates a Client connected to the configured nodes.
func New(opts ...Option) (Client, error) {
	o := &options{timeout: DefaultRequestTimeout}
	for _, opt := range opts {
		opt(o)
	}
	esClient, err := esv9.NewClient(esv9.Config{
		Addresses: o.addresses,
		Username:  o.username,
		Password:  o.password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch new client: %w", err)
	}
	return &client{esClient: esClient, timeout: o.timeout}, nil
}

// NewFromClient wraps an existing SDK client. Used in tests.
func NewFromClient(esClient *esv9.Client) Client {
	return &client{esClient: esClient, timeout: DefaultRequestTimeout}
}

// opContext attaches the per-call deadline to ctx.
func (c *client) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// Ping checks if Elasticsearch is available.
func (c *client) Ping(ctx context.Context) error {
	ctx, cancel := c.opContext(ctx)
	defer cancel()
	res, err := c.esClient.Ping(c.esClient.Ping.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch ping failed: %s", res.Status())
	}
	return nil
}

// CreateIndex creates an index with the provided mapping body.
func (c *client) CreateIndex(ctx context.Context, indexName string, body []byte) error {
	ctx, cancel := c.opContext(ctx)
	defer cancel()
	res, err := c.esClient.Indices.Create(
		indexName,
		c.esClient.Indices.Create.WithContext(ctx),
		c.esClient.Indices.Create.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch create index failed: %s", res.Status())
	}
	return nil
}

// DeleteIndex deletes an index.
func (c *client) DeleteIndex(ctx context.Context, indexName string) error {
	ctx, cancel := c.opContext(ctx)
	defer cancel()
	res, err := c.esClient.Indices.Delete(
		[]string{indexName},
		c.esClient.Indices.Delete.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch delete index failed: %s", res.Status())
	}
	return nil
}

// IndexExists checks if an index exists.
func (c *client) IndexExists(ctx context.Context, indexName string) (bool, error) {
	ctx, cancel := c.opContext(ctx)
	defer cancel()
	res, err := c.esClient.Indices.Exists(
		[]string{indexName},
		c.esClient.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return false, err
	}
	defer res.Body.Close()
	return res.StatusCode == http.StatusOK, nil
}

// Bulk executes a bulk request body against an index.
func (c *client) Bulk(ctx context.Context, indexName string, body []byte) error {
	ctx, cancel := c.opContext(ctx)
	defer cancel()
	res, err := c.esClient.Bulk(
		bytes.NewReader(body),
		c.esClient.Bulk.WithContext(ctx),
		c.esClient.Bulk.WithIndex(indexName),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	responseBody, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	if res.IsError() {
		return fmt.Errorf("elasticsearch bulk failed: %s: %s", res.Status(), string(responseBody))
	}
	// Item-level failures come back with a 200 status.
	var bulkResponse struct {
		Errors bool `json:"errors"`
	}
	if err := json.Unmarshal(responseBody, &bulkResponse); err != nil {
		return fmt.Errorf("elasticsearch parse bulk response: %w", err)
	}
	if bulkResponse.Errors {
		return fmt.Errorf("elasticsearch bulk reported item errors")
	}
	return nil
}

// Search performs a search query.
func (c *client) Search(ctx context.Context, indexName string, body []byte) ([]byte, error) {
	ctx, cancel := c.opContext(ctx)
	defer cancel()
	res, err := c.esClient.Search(
		c.esClient.Search.WithContext(ctx),
		c.esClient.Search.WithIndex(indexName),
		c.esClient.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	bodyBytes, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch search failed: %s: %s", res.Status(), string(bodyBytes))
	}
	return bodyBytes, nil
}

// Count returns the number of documents in an index.
func (c *client) Count(ctx context.Context, indexName string) (int, error) {
	ctx, cancel := c.opContext(ctx)
	defer cancel()
	res, err := c.esClient.Count(
		c.esClient.Count.WithContext(ctx),
		c.esClient.Count.WithIndex(indexName),
	)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()
	responseBody, err := io.ReadAll(res.Body)
	if err != nil {
		return 0, err
	}
	if res.IsError() {
		return 0, fmt.Errorf("elasticsearch count failed: %s: %s", res.Status(), string(responseBody))
	}
	var countResponse struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(responseBody, &countResponse); err != nil {
		return 0, fmt.Errorf("elasticsearch parse count response: %w", err)
	}
	return countResponse.Count, nil
}

// Refresh refreshes an index.
func (c *client) Refresh(ctx context.Context, indexName string) error {
	ctx, cancel := c.opContext(ctx)
	defer cancel()
	res, err := c.esClient.Indices.Refresh(
		c.esClient.Indices.Refresh.WithContext(ctx),
		c.esClient.Indices.Refresh.WithIndex(indexName),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch refresh index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("elasticsearch refresh index failed: %s: %s", res.Status(), string(body))
	}
	return nil
}
