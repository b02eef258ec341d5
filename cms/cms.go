//
// Tencent is pleased to support the open source community by making trpc-rag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-rag-go is licensed under the Apache License Version 2.0.
//
//

// Package cms is the client for the content management system's page API.
// The pipeline treats the CMS as a page-fetch collaborator keyed by
// (region, language, path).
package cms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 15 * time.Second

// LanguageVariant points at a page's translation in another language.
type LanguageVariant struct {
	Path string `json:"path"`
}

// Page is one CMS content page.
type Page struct {
	Path               string                     `json:"path"`
	Title              string                     `json:"title"`
	Excerpt            string                     `json:"excerpt"`
	Content            string                     `json:"content"`
	AvailableLanguages map[string]LanguageVariant `json:"available_languages"`
}

// VariantPath resolves the page's path in another language, URL-decoded.
// The second return is false when the page has no variant in that language.
func (p *Page) VariantPath(language string) (string, bool) {
	variant, ok := p.AvailableLanguages[language]
	if !ok {
		return "", false
	}
	path, err := url.PathUnescape(variant.Path)
	if err != nil {
		return variant.Path, true
	}
	return path, true
}

// Client talks to the CMS v3 API.
type Client struct {
	httpClient *http.Client
	cmsDomain  string
	appDomain  string
}

// Option represents a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithAppDomain sets the public app domain stripped from incoming paths.
func WithAppDomain(domain string) Option {
	return func(cl *Client) {
		cl.appDomain = domain
	}
}

// New creates a CMS client for the given CMS domain. The domain may carry a
// scheme; without one https is assumed.
func New(cmsDomain string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		cmsDomain:  strings.TrimSuffix(cmsDomain, "/"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if !strings.Contains(c.cmsDomain, "://") {
		c.cmsDomain = "https://" + c.cmsDomain
	}
	return c
}

// GetPage fetches one page via the children endpoint, which resolves a page
// path to its full object including title, excerpt and language variants.
func (c *Client) GetPage(ctx context.Context, region, language, path string) (*Page, error) {
	path = c.stripDomains(path)
	endpoint := fmt.Sprintf("%s/api/v3/%s/%s/children/?url=%s&depth=0",
		c.cmsDomain, region, language, url.QueryEscape(path))
	var pages []*Page
	if err := c.getJSON(ctx, endpoint, &pages); err != nil {
		return nil, fmt.Errorf("cms: get page %s: %w", path, err)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("cms: get page %s: not found", path)
	}
	return pages[0], nil
}

// FetchPages returns all pages of a region in one language. Used by index
// builds.
func (c *Client) FetchPages(ctx context.Context, region, language string) ([]*Page, error) {
	endpoint := fmt.Sprintf("%s/api/v3/%s/%s/pages", c.cmsDomain, region, language)
	var pages []*Page
	if err := c.getJSON(ctx, endpoint, &pages); err != nil {
		return nil, fmt.Errorf("cms: fetch pages %s/%s: %w", region, language, err)
	}
	return pages, nil
}

// GetRegionLanguages returns the language slugs available in a region.
func (c *Client) GetRegionLanguages(ctx context.Context, region string) ([]string, error) {
	endpoint := fmt.Sprintf("%s/api/v3/%s/languages/", c.cmsDomain, region)
	var languages []struct {
		Code string `json:"code"`
	}
	if err := c.getJSON(ctx, endpoint, &languages); err != nil {
		return nil, fmt.Errorf("cms: get region languages %s: %w", region, err)
	}
	codes := make([]string, 0, len(languages))
	for _, l := range languages {
		codes = append(codes, l.Code)
	}
	return codes, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// stripDomains reduces an absolute page URL to its CMS path.
func (c *Client) stripDomains(path string) string {
	path = strings.TrimPrefix(path, c.cmsDomain)
	if c.appDomain != "" {
		path = strings.TrimPrefix(path, "https://"+c.appDomain)
	}
	return path
}
