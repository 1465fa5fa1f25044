// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/ReviewService/pkg/retry"
	"github.com/AleutianAI/ReviewService/services/review/cache"
	"github.com/AleutianAI/ReviewService/services/review/datatypes"
	"github.com/AleutianAI/ReviewService/services/review/generate"
	"github.com/AleutianAI/ReviewService/services/review/observability"
)

var reviewTracer = otel.Tracer("aleutian.review.handlers")

// defaultReviewTimeout bounds one review end to end so a sustained GitHub
// rate limit cannot hold the request open forever.
const defaultReviewTimeout = 10 * time.Minute

// TreeWalker retrieves a repository's full file content map.
type TreeWalker interface {
	WalkTree(ctx context.Context, owner, repo string) (datatypes.ContentMap, error)
}

// ReviewGenerator turns a content map into a structured review.
type ReviewGenerator interface {
	GenerateReview(ctx context.Context, files datatypes.ContentMap, level datatypes.CandidateLevel) (*datatypes.ReviewResponse, error)
}

// ResultCache is the get/set surface of the review cache.
type ResultCache interface {
	GetReview(key string) (*datatypes.ReviewResponse, bool, error)
	SetReview(key string, review *datatypes.ReviewResponse, ttl time.Duration) error
}

// Deps bundles the handler's collaborators.
type Deps struct {
	Walker    TreeWalker
	Generator ReviewGenerator
	Cache     ResultCache
	Metrics   *observability.ReviewMetrics

	// Timeout bounds one review request. Default: 10 minutes.
	Timeout time.Duration
}

// HandleReviewRequest serves POST /v1/review.
//
// Flow: bind and validate the request, try the cache, walk the repository,
// generate the review, cache it, respond. Every failure path maps the
// typed error to an HTTP status: upstream failures keep their upstream
// status, safety blocks are 400, everything else is 500.
func HandleReviewRequest(deps Deps) gin.HandlerFunc {
	timeout := deps.Timeout
	if timeout <= 0 {
		timeout = defaultReviewTimeout
	}

	return func(c *gin.Context) {
		ctx, span := reviewTracer.Start(c.Request.Context(), "HandleReviewRequest")
		defer span.End()

		var request datatypes.ReviewRequest
		if err := c.BindJSON(&request); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Failed to bind review request JSON", "error", err)
			deps.Metrics.RequestsTotal.WithLabelValues("client_error").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		reviewID := uuid.New().String()
		span.SetAttributes(
			attribute.String("review_id", reviewID),
			attribute.String("candidate_level", string(request.CandidateLevel)),
		)

		if err := request.Validate(); err != nil {
			span.SetStatus(codes.Error, err.Error())
			slog.Warn("Rejected invalid review request", "review_id", reviewID, "error", err)
			deps.Metrics.RequestsTotal.WithLabelValues("client_error").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		owner, repo, _ := request.RepoRef()
		slog.Info("Received review request", "review_id", reviewID,
			"owner", owner, "repo", repo, "candidate_level", request.CandidateLevel)

		cacheKey := cache.Key(request.GithubRepoURL, request.CandidateLevel)
		if cached, found := deps.lookupCache(cacheKey); found {
			slog.Info("Serving review from cache", "review_id", reviewID, "cache_key", cacheKey)
			deps.Metrics.RequestsTotal.WithLabelValues("cached").Inc()
			c.JSON(http.StatusOK, cached)
			return
		}

		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		walkStart := time.Now()
		files, err := deps.Walker.WalkTree(ctx, owner, repo)
		if err != nil {
			deps.failRequest(c, span, reviewID, "tree walk failed", err)
			return
		}
		deps.Metrics.WalkDurationSeconds.Observe(time.Since(walkStart).Seconds())
		deps.Metrics.FilesFetched.Observe(float64(len(files)))
		span.SetAttributes(attribute.Int("files_fetched", len(files)))

		genStart := time.Now()
		review, err := deps.Generator.GenerateReview(ctx, files, request.CandidateLevel)
		if err != nil {
			deps.failRequest(c, span, reviewID, "review generation failed", err)
			return
		}
		deps.Metrics.GenerationDurationSeconds.Observe(time.Since(genStart).Seconds())

		if err := deps.Cache.SetReview(cacheKey, review, cache.DefaultTTL); err != nil {
			// Caching is best effort; the review itself succeeded.
			slog.Warn("Failed to cache review result", "review_id", reviewID, "error", err)
		}

		slog.Info("Review complete", "review_id", reviewID, "files", len(files))
		deps.Metrics.RequestsTotal.WithLabelValues("success").Inc()
		c.JSON(http.StatusOK, review)
	}
}

func (d Deps) lookupCache(key string) (*datatypes.ReviewResponse, bool) {
	cached, found, err := d.Cache.GetReview(key)
	switch {
	case err != nil:
		slog.Warn("Review cache lookup failed", "cache_key", key, "error", err)
		d.Metrics.CacheLookupsTotal.WithLabelValues("error").Inc()
		return nil, false
	case found:
		d.Metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
		return cached, true
	default:
		d.Metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
		return nil, false
	}
}

// failRequest maps a typed failure to its HTTP response and metrics label.
func (d Deps) failRequest(c *gin.Context, span trace.Span, reviewID, phase string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	status := http.StatusInternalServerError
	detail := "Internal server error"
	label := "internal_error"

	var rerr *retry.Error
	switch {
	case errors.Is(err, generate.ErrSafetyBlocked):
		status = http.StatusBadRequest
		detail = generate.ErrSafetyBlocked.Error()
		label = "safety_blocked"
	case errors.As(err, &rerr) && rerr.Class == retry.ClassFatal:
		status = rerr.Status
		detail = rerr.Message
		label = "upstream_error"
	case errors.As(err, &rerr):
		detail = rerr.Message
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
		detail = "Review timed out"
		label = "timeout"
	}

	slog.Error("Review request failed", "review_id", reviewID, "phase", phase,
		"status", status, "error", err)
	d.Metrics.RequestsTotal.WithLabelValues(label).Inc()
	c.JSON(status, gin.H{"error": detail})
}
