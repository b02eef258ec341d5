//
// Tencent is pleased to support the open source community by making trpc-rag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-rag-go is licensed under the Apache License Version 2.0.
//
//

package openai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewDefaults(t *testing.T) {
	e := New()
	assert.Equal(t, DefaultModel, e.model)
	assert.Equal(t, DefaultDimensions, e.Dimensions())
	assert.Equal(t, DefaultRequestTimeout, e.timeout, "embedding calls must be bounded")
}

func TestNewOptions(t *testing.T) {
	e := New(
		WithModel("text-embedding-3-large"),
		WithDimensions(3072),
		WithRequestTimeout(time.Minute),
	)
	assert.Equal(t, "text-embedding-3-large", e.model)
	assert.Equal(t, 3072, e.Dimensions())
	assert.Equal(t, time.Minute, e.timeout)
}
