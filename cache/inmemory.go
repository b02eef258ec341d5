//
// Tencent is pleased to support the open source community by making trpc-rag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-rag-go is licensed under the Apache License Version 2.0.
//
//

package cache

import (
	"context"
	"sync"
	"time"
)

var _ Cache = (*InMemory)(nil)

// entry holds a value and its absolute expiry time. A zero expiry means the
// entry never expires.
type entry struct {
	value    string
	expireAt time.Time
}

// InMemory is a process-local Cache implementation. It is safe for
// concurrent use and suitable for single-instance deployments and tests.
type InMemory struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// InMemoryOption represents a functional option for configuring InMemory.
type InMemoryOption func(*InMemory)

// WithClock overrides the time source. Used in tests to control expiry.
func WithClock(now func() time.Time) InMemoryOption {
	return func(c *InMemory) {
		c.now = now
	}
}

// NewInMemory creates a new in-memory cache with the given options.
func NewInMemory(opts ...InMemoryOption) *InMemory {
	c := &InMemory{
		entries: make(map[string]entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the value stored under key, or ErrNotFound.
func (c *InMemory) Get(ctx context.Context, key string) (string, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.expired(e) {
		return "", ErrNotFound
	}
	return e.value, nil
}

// Set stores value under key for the given time-to-live.
func (c *InMemory) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	e := entry{value: value}
	if ttl > 0 {
		e.expireAt = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return nil
}

// Contains reports whether key is present and not expired.
func (c *InMemory) Contains(ctx context.Context, key string) bool {
	_, err := c.Get(ctx, key)
	return err == nil
}

func (c *InMemory) expired(e entry) bool {
	return !e.expireAt.IsZero() && c.now().After(e.expireAt)
}
