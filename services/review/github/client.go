// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package github retrieves the file tree and contents of a repository via
// the GitHub contents API.
//
// # Description
//
// The client walks a repository recursively: directory listings are paged
// (per_page=100) and every listed entry is processed concurrently, files
// through the content fetcher and directories through a recursive walk.
// Each recursive call returns an owned map that its parent merges after the
// page's goroutines join, so no two goroutines ever write the same map.
//
// All remote calls run under pkg/retry: 403 responses carrying an
// X-RateLimit-Reset header wait out the quota window, 429/500 back off
// exponentially up to five attempts, anything else fails the whole walk.
//
// # Thread Safety
//
// A Client is safe for concurrent use. In-flight requests across all
// concurrent walks of one client are bounded by a semaphore and a shared
// client-side rate limiter.
package github

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/AleutianAI/ReviewService/pkg/retry"
)

const (
	defaultBaseURL = "https://api.github.com"
	defaultPerPage = 100

	// defaultMaxInFlight bounds concurrent requests per client.
	defaultMaxInFlight = 8

	// Status codes mirrored from the GitHub REST API behavior we classify.
	statusRateLimited = http.StatusForbidden
)

// retryableStatuses are transient upstream failures worth a bounded retry.
var retryableStatuses = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
}

// HTTPClient interface allows injecting mock HTTP clients for testing
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config configures a Client.
type Config struct {
	// Token is the bearer token for the GitHub API. Required.
	Token string

	// BaseURL overrides the API root, used by tests and GHE deployments.
	// Default: https://api.github.com
	BaseURL string

	// HTTPClient issues the requests. Default: http.Client with a
	// 30-second timeout, owned by this client (not shared process-wide).
	HTTPClient HTTPClient

	// PerPage is the directory listing page size. Default: 100.
	PerPage int

	// MaxInFlight bounds concurrent requests across the whole recursive
	// walk. Default: 8.
	MaxInFlight int

	// RequestsPerSecond is the client-side rate limit. Default: 10.
	RequestsPerSecond float64

	// Policy is the retry policy applied to every remote call.
	Policy retry.Policy
}

// Client talks to the GitHub contents API.
type Client struct {
	token      string
	baseURL    string
	httpClient HTTPClient
	perPage    int
	policy     retry.Policy
	limiter    *rate.Limiter
	sem        chan struct{}
}

// NewClient creates a Client from the given configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("GitHub token is not set")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.PerPage <= 0 {
		cfg.PerPage = defaultPerPage
	}
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = defaultMaxInFlight
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 10
	}

	return &Client{
		token:      cfg.Token,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: cfg.HTTPClient,
		perPage:    cfg.PerPage,
		policy:     cfg.Policy.WithDefaults(),
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.MaxInFlight),
		sem:        make(chan struct{}, cfg.MaxInFlight),
	}, nil
}

// NewClientFromEnv creates a Client configured from GITHUB_TOKEN and
// GITHUB_API_URL, falling back to the Podman secret for the token.
func NewClientFromEnv() (*Client, error) {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		secretPath := "/run/secrets/github_token"
		tokenBytes, err := os.ReadFile(secretPath)
		if err == nil {
			token = strings.TrimSpace(string(tokenBytes))
			slog.Info("Read the GitHub token from Podman Secrets")
		} else {
			slog.Error("GITHUB_TOKEN environment variable not set and secret not found", "path", secretPath)
			return nil, fmt.Errorf("GITHUB_TOKEN environment variable not set")
		}
	}

	return NewClient(Config{
		Token:   token,
		BaseURL: os.Getenv("GITHUB_API_URL"),
	})
}

// response is the slice of one remote call's result the classifiers need.
type response struct {
	status int
	header http.Header
	body   []byte
}

// get performs one bounded, rate-limited GET and reads the full body.
// The concurrency semaphore is held until the body has been read so
// MaxInFlight reflects real connection usage.
func (c *Client) get(ctx context.Context, url string) (*response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	select {
	case c.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-c.sem }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "token "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &response{status: resp.StatusCode, header: resp.Header, body: body}, nil
}

// classify maps a response status to a retry outcome shared by the listing
// and content endpoints. fatalMessage is the fixed message attached to
// non-retryable upstream failures.
func classify(resp *response, fatalMessage string) retry.Outcome {
	switch {
	case resp.status == statusRateLimited:
		if reset := parseRateLimitReset(resp.header); !reset.IsZero() {
			return retry.RateLimitedUntil(reset)
		}
		// 403 without a reset header is indistinguishable from a plain
		// permission error on some proxies; give it the bounded treatment.
		return retry.Retryable(fmt.Errorf("status %d without rate limit reset", resp.status))
	case retryableStatuses[resp.status]:
		return retry.Retryable(fmt.Errorf("status %d", resp.status))
	default:
		return retry.Fatal(resp.status, fatalMessage)
	}
}

// parseRateLimitReset reads the X-RateLimit-Reset header (unix seconds).
// Returns the zero time when absent or unparsable.
func parseRateLimitReset(header http.Header) time.Time {
	raw := header.Get("X-RateLimit-Reset")
	if raw == "" {
		return time.Time{}
	}
	var unix int64
	if _, err := fmt.Sscanf(raw, "%d", &unix); err != nil || unix <= 0 {
		return time.Time{}
	}
	return time.Unix(unix, 0)
}
