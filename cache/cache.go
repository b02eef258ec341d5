//
// Tencent is pleased to support the open source community by making trpc-rag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-rag-go is licensed under the Apache License Version 2.0.
//
//

// Package cache provides the key-value store used for memoizing expensive
// translation results.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key is absent or expired.
var ErrNotFound = errors.New("cache: key not found")

// Cache is a minimal TTL key-value store. Values are opaque strings keyed by
// content hashes, so concurrent writers at worst recompute the same value;
// last-writer-wins is acceptable.
type Cache interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key for the given time-to-live.
	// A non-positive ttl stores the value without expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Contains reports whether key is present and not expired.
	Contains(ctx context.Context, key string) bool
}
