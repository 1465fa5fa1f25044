// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the review service.
//
// # Description
//
// Metrics cover the request lifecycle (counts by status), cache
// effectiveness (hit/miss), and the expensive phases (tree walk duration,
// files fetched, generation duration and safety retries).
//
// # Integration
//
// Metrics are exposed via the /metrics endpoint. Use with Prometheus +
// Grafana for dashboards and alerting.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics
const metricsNamespace = "aleutian"

// Subsystem for review metrics
const reviewSubsystem = "review"

// ReviewMetrics holds all Prometheus metrics for review operations.
type ReviewMetrics struct {
	// RequestsTotal counts review requests by outcome.
	// Labels: status (success, cached, client_error, upstream_error,
	// safety_blocked, internal_error)
	RequestsTotal *prometheus.CounterVec

	// CacheLookupsTotal counts cache lookups by result.
	// Labels: result (hit, miss, error)
	CacheLookupsTotal *prometheus.CounterVec

	// WalkDurationSeconds measures the repository tree walk duration.
	WalkDurationSeconds prometheus.Histogram

	// FilesFetched measures files retrieved per walk.
	FilesFetched prometheus.Histogram

	// GenerationDurationSeconds measures the inference phase duration,
	// safety retries included.
	GenerationDurationSeconds prometheus.Histogram
}

// DefaultMetrics is the singleton instance of ReviewMetrics.
// Initialized by InitMetrics().
var DefaultMetrics *ReviewMetrics

// InitMetrics initializes and registers the default metrics instance.
// Call once at startup; a second call panics on duplicate registration.
func InitMetrics() *ReviewMetrics {
	DefaultMetrics = &ReviewMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: reviewSubsystem,
				Name:      "requests_total",
				Help:      "Total review requests by outcome status",
			},
			[]string{"status"},
		),

		CacheLookupsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: reviewSubsystem,
				Name:      "cache_lookups_total",
				Help:      "Total review cache lookups by result",
			},
			[]string{"result"},
		),

		WalkDurationSeconds: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: reviewSubsystem,
				Name:      "walk_duration_seconds",
				Help:      "Repository tree walk duration in seconds",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
		),

		FilesFetched: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: reviewSubsystem,
				Name:      "files_fetched",
				Help:      "Files retrieved per repository walk",
				Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
			},
		),

		GenerationDurationSeconds: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: reviewSubsystem,
				Name:      "generation_duration_seconds",
				Help:      "Review generation duration in seconds, retries included",
				Buckets:   []float64{1, 2.5, 5, 10, 30, 60, 120},
			},
		),
	}
	return DefaultMetrics
}
