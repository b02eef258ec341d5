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
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var _ Cache = (*Redis)(nil)

// Redis is a Cache implementation backed by a Redis instance, for
// deployments where several service replicas share one translation cache.
type Redis struct {
	client    redis.UniversalClient
	keyPrefix string
}

// RedisOption represents a functional option for configuring Redis.
type RedisOption func(*Redis)

// WithKeyPrefix sets the prefix prepended to every cache key.
func WithKeyPrefix(prefix string) RedisOption {
	return func(c *Redis) {
		c.keyPrefix = prefix
	}
}

// WithClient sets a pre-built redis client, bypassing URL parsing.
func WithClient(client redis.UniversalClient) RedisOption {
	return func(c *Redis) {
		c.client = client
	}
}

// NewRedis creates a Redis cache from a redis URL
// (redis://<user>:<password>@<host>:<port>/<db>).
func NewRedis(url string, opts ...RedisOption) (*Redis, error) {
	c := &Redis{keyPrefix: "trpc-rag:"}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		if url == "" {
			return nil, fmt.Errorf("redis cache: url is empty")
		}
		parsed, err := redis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("redis cache: parse url %s: %w", url, err)
		}
		c.client = redis.NewClient(parsed)
	}
	return c, nil
}

// Get returns the value stored under key, or ErrNotFound.
func (c *Redis) Get(ctx context.Context, key string) (string, error) {
	value, err := c.client.Get(ctx, c.keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis cache: get %s: %w", key, err)
	}
	return value, nil
}

// Set stores value under key for the given time-to-live.
func (c *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, c.keyPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis cache: set %s: %w", key, err)
	}
	return nil
}

// Contains reports whether key is present and not expired.
func (c *Redis) Contains(ctx context.Context, key string) bool {
	n, err := c.client.Exists(ctx, c.keyPrefix+key).Result()
	return err == nil && n > 0
}

// Close releases the underlying redis connection.
func (c *Redis) Close() error {
	return c.client.Close()
}
