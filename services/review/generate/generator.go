// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/AleutianAI/ReviewService/pkg/retry"
	"github.com/AleutianAI/ReviewService/services/llm"
	"github.com/AleutianAI/ReviewService/services/review/datatypes"
)

const (
	safetyRetryLimit    = 3
	safetyBackoffFactor = 2
)

// ErrSafetyBlocked is surfaced when every safety retry came back flagged.
// Distinct from transport failures: the caller maps it to a 400, not a 502.
var ErrSafetyBlocked = errors.New("review generation blocked by safety filters after multiple attempts")

// Generator issues the inference call with the safety retry policy applied.
//
// The safety policy is a second configuration of pkg/retry: a flagged or
// empty completion classifies as retryable with a 3-attempt budget, and
// exhausting the budget converts to ErrSafetyBlocked. Transport errors from
// the backend are internal and fail immediately.
type Generator struct {
	Client llm.LLMClient
	Policy retry.Policy
}

// NewGenerator creates a Generator with the production safety policy.
func NewGenerator(client llm.LLMClient) *Generator {
	return &Generator{
		Client: client,
		Policy: retry.Policy{
			MaxAttempts:   safetyRetryLimit,
			BackoffFactor: safetyBackoffFactor,
		},
	}
}

// GenerateReview builds the prompt, runs the safety-retried inference call,
// and parses the completion into a structured review.
//
// The returned FileTree in the response is the one built from the content
// map, not anything the model produced.
func (g *Generator) GenerateReview(ctx context.Context, files datatypes.ContentMap, level datatypes.CandidateLevel) (*datatypes.ReviewResponse, error) {
	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	tree := datatypes.BuildFileTree(paths)
	prompt := BuildPrompt(level, tree, files)

	slog.Info("Generating review", "files", len(files), "candidate_level", level,
		"prompt_bytes", len(prompt))

	op := func(ctx context.Context) (llm.Completion, retry.Outcome) {
		completion, err := g.Client.Generate(ctx, prompt, llm.GenerationParams{})
		if err != nil {
			return llm.Completion{}, retry.Internal("An error occurred while generating the review.", err)
		}
		if completion.Flagged() {
			slog.Warn("Safety filter triggered, retrying after backoff",
				"finish_reason", completion.FinishReason)
			return llm.Completion{}, retry.Retryable(fmt.Errorf("completion flagged by safety classifier"))
		}
		return completion, retry.Success()
	}

	completion, err := retry.Do(ctx, g.Policy, op)
	if err != nil {
		if errors.Is(err, retry.ErrMaxAttempts) {
			slog.Error("Review generation blocked by safety filters", "attempts", safetyRetryLimit)
			return nil, &retry.Error{Class: retry.ClassFatal, Status: 400,
				Message: ErrSafetyBlocked.Error(), Err: ErrSafetyBlocked}
		}
		return nil, err
	}

	return ParseReviewResponse(completion.Text, tree), nil
}
