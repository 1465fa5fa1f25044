// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/AleutianAI/ReviewService/pkg/logging"
	"github.com/AleutianAI/ReviewService/services/llm"
	"github.com/AleutianAI/ReviewService/services/review/cache"
	"github.com/AleutianAI/ReviewService/services/review/generate"
	"github.com/AleutianAI/ReviewService/services/review/github"
	"github.com/AleutianAI/ReviewService/services/review/handlers"
	"github.com/AleutianAI/ReviewService/services/review/observability"
)

func initTracer() (func(context.Context), error) {
	ctx := context.Background()

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		otelEndpoint = "aleutian-otel-collector:4317"
	}
	conn, err := grpc.NewClient(otelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("review-service")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

// openCache opens the persistent review cache, falling back to an
// in-memory store so a bad volume mount degrades to cold reviews instead
// of a crash loop.
func openCache() *cache.Store {
	cachePath := os.Getenv("REVIEW_CACHE_PATH")
	if cachePath == "" {
		cachePath = "/var/lib/aleutian/review-cache"
	}

	store, err := cache.OpenWithPath(cachePath)
	if err != nil {
		slog.Warn("Failed to open persistent review cache, using in-memory cache",
			"path", cachePath, "error", err)
		store, err = cache.OpenInMemory()
		if err != nil {
			log.Fatalf("FATAL: Could not open the review cache: %v", err)
		}
	}
	return store
}

func main() {
	logger := logging.New(logging.Config{
		Service: "review",
		LogDir:  os.Getenv("REVIEW_LOG_DIR"),
	})
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	slog.Info("Starting Aleutian Review Service")

	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	metrics := observability.InitMetrics()

	githubClient, err := github.NewClientFromEnv()
	if err != nil {
		log.Fatalf("FATAL: Could not configure the GitHub client: %v", err)
	}

	slog.Info("Configuring the LLM Client")
	llmClient, err := llm.NewOpenAIClient()
	if err != nil {
		log.Fatalf("FATAL: Could not configure the LLM client: %v", err)
	}

	store := openCache()
	defer store.Close()

	// Periodic value log GC keeps expired reviews from accumulating.
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			if err := store.RunGC(0.5); err != nil {
				slog.Warn("Review cache GC failed", "error", err)
			}
		}
	}()

	router := gin.Default()
	router.Use(otelgin.Middleware("review-service"))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "aleutian-review-service"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/v1/review", handlers.HandleReviewRequest(handlers.Deps{
		Walker:    githubClient,
		Generator: generate.NewGenerator(llmClient),
		Cache:     store,
		Metrics:   metrics,
	}))

	port := os.Getenv("REVIEW_PORT")
	if port == "" {
		port = "8002"
	}

	slog.Info("Starting review API server", "port", port)
	if err := router.Run(":" + port); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
