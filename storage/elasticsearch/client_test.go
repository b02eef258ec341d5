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
	"context"
	"testing"
	"time"

	esv9 "github.com/elastic/go-elasticsearch/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpContextAppliesDeadline(t *testing.T) {
	c := &client{timeout: 10 * time.Second}
	ctx, cancel := c.opContext(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok, "every call must carry a bounded deadline")
	assert.WithinDuration(t, time.Now().Add(10*time.Second), deadline, time.Second)
}

func TestOpContextKeepsEarlierDeadline(t *testing.T) {
	c := &client{timeout: time.Hour}
	parent, parentCancel := context.WithTimeout(context.Background(), time.Second)
	defer parentCancel()

	ctx, cancel := c.opContext(parent)
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, 500*time.Millisecond,
		"the tighter parent deadline wins")
}

func TestOpContextZeroTimeoutUnbounded(t *testing.T) {
	c := &client{}
	ctx, cancel := c.opContext(context.Background())
	defer cancel()

	_, ok := ctx.Deadline()
	assert.False(t, ok)
}

func TestNewFromClientDefaultTimeout(t *testing.T) {
	esClient, err := esv9.NewClient(esv9.Config{})
	require.NoError(t, err)
	wrapped := NewFromClient(esClient).(*client)
	assert.Equal(t, DefaultRequestTimeout, wrapped.timeout)
}
