// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package retry implements the outcome-classified retry policy shared by the
// GitHub content client and the review generation pipeline.
//
// # Description
//
// A caller wraps a remote operation in an Op that reports one Outcome per
// invocation. Do then applies the policy:
//
//   - RateLimited: sleep until the remote-supplied reset time (clamped to
//     MaxRateLimitWait), then retry. Does not consume an attempt.
//   - Retryable: sleep BackoffUnit * BackoffFactor^attempt, then retry.
//     Consumes an attempt; exhausting MaxAttempts returns ErrMaxAttempts
//     wrapped in an *Error with upstream-500 semantics.
//   - Fatal: fail immediately, carrying the upstream status code.
//   - Internal: fail immediately with no status semantics.
//
// Both call sites are configurations of this single policy so the transport
// and safety retry behavior cannot drift apart.
//
// # Thread Safety
//
// A Policy is a value and carries no mutable state; the attempt counter is
// local to each Do call. Safe for concurrent use.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"
)

// Class labels the classification of a single remote-call outcome.
type Class int

const (
	// ClassSuccess means the call succeeded and its value should be returned.
	ClassSuccess Class = iota

	// ClassRateLimited means the remote signalled quota exhaustion together
	// with a reset timestamp.
	ClassRateLimited

	// ClassRetryable means a transient failure worth a bounded retry.
	ClassRetryable

	// ClassFatal means a non-recoverable upstream failure.
	ClassFatal

	// ClassInternal means a local failure not tied to a remote status
	// (network error, decode error).
	ClassInternal
)

// String returns a human-readable class name.
func (c Class) String() string {
	switch c {
	case ClassSuccess:
		return "SUCCESS"
	case ClassRateLimited:
		return "RATE_LIMITED"
	case ClassRetryable:
		return "RETRYABLE"
	case ClassFatal:
		return "FATAL"
	case ClassInternal:
		return "INTERNAL"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(c))
	}
}

// ErrMaxAttempts is returned (wrapped in *Error) when the bounded retry
// budget is exhausted.
var ErrMaxAttempts = errors.New("max retries exceeded")

// Outcome is the classification of one Op invocation.
type Outcome struct {
	// Class selects the branch of the policy.
	Class Class

	// ResetAt is the remote-supplied quota reset time.
	// Only meaningful for ClassRateLimited.
	ResetAt time.Time

	// Status is the upstream HTTP status code for ClassFatal.
	Status int

	// Message is a fixed human-readable description for failures.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Success classifies a successful call.
func Success() Outcome { return Outcome{Class: ClassSuccess} }

// RateLimitedUntil classifies a throttled call with a known reset time.
func RateLimitedUntil(resetAt time.Time) Outcome {
	return Outcome{Class: ClassRateLimited, ResetAt: resetAt}
}

// Retryable classifies a transient failure.
func Retryable(err error) Outcome {
	return Outcome{Class: ClassRetryable, Err: err}
}

// Fatal classifies a non-recoverable upstream failure.
func Fatal(status int, message string) Outcome {
	return Outcome{Class: ClassFatal, Status: status, Message: message}
}

// Internal classifies a local failure with no upstream status.
func Internal(message string, err error) Outcome {
	return Outcome{Class: ClassInternal, Message: message, Err: err}
}

// Error is the typed failure surfaced by Do.
//
// Status carries HTTP semantics only when Class is ClassFatal; internal
// failures report 500 without claiming an upstream origin.
type Error struct {
	Class   Class
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%d): %s: %v", e.Class, e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("%s (%d): %s", e.Class, e.Status, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Sleeper abstracts backoff sleeps so tests can record them instead of
// waiting.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// ctxSleeper sleeps for real but aborts when the context is cancelled.
type ctxSleeper struct{}

func (ctxSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Policy configures the retry behavior for one call site.
//
// # Example
//
//	policy := retry.Policy{MaxAttempts: 5}.WithDefaults()
//	body, err := retry.Do(ctx, policy, fetchOp)
type Policy struct {
	// MaxAttempts is the bound on the transient-retry counter.
	// Default: 5
	MaxAttempts int

	// BackoffFactor is the exponential base for transient backoff.
	// Default: 2
	BackoffFactor float64

	// BackoffUnit is the duration multiplied by BackoffFactor^attempt.
	// Default: 1 second
	BackoffUnit time.Duration

	// MaxRateLimitWait caps a single rate-limit wait so a sustained
	// throttle cannot stall the caller indefinitely.
	// Default: 5 minutes
	MaxRateLimitWait time.Duration

	// Sleeper performs backoff sleeps. Default: context-aware real sleep.
	Sleeper Sleeper

	// Now supplies the current time for reset-delta math. Default: time.Now.
	Now func() time.Time
}

// WithDefaults fills zero fields with production defaults.
func (p Policy) WithDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 5
	}
	if p.BackoffFactor <= 0 {
		p.BackoffFactor = 2
	}
	if p.BackoffUnit <= 0 {
		p.BackoffUnit = time.Second
	}
	if p.MaxRateLimitWait <= 0 {
		p.MaxRateLimitWait = 5 * time.Minute
	}
	if p.Sleeper == nil {
		p.Sleeper = ctxSleeper{}
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	return p
}

// backoff returns BackoffUnit * BackoffFactor^attempt.
func (p Policy) backoff(attempt int) time.Duration {
	return time.Duration(math.Pow(p.BackoffFactor, float64(attempt)) * float64(p.BackoffUnit))
}

// Op issues one remote call and classifies its outcome. The returned value
// is only consulted when the Outcome class is ClassSuccess.
type Op[T any] func(ctx context.Context) (T, Outcome)

// Do executes op under the policy until it succeeds or fails terminally.
//
// # Description
//
// Rate-limit waits do not consume attempts; the attempt counter only
// advances on ClassRetryable outcomes. Context cancellation during any
// sleep aborts with an internal-classified error.
//
// Outputs:
//
//	T - op's value on success; the zero value otherwise.
//	error - nil, or an *Error carrying the failure classification.
func Do[T any](ctx context.Context, p Policy, op Op[T]) (T, error) {
	p = p.WithDefaults()
	var zero T
	attempt := 0

	for {
		value, outcome := op(ctx)

		switch outcome.Class {
		case ClassSuccess:
			return value, nil

		case ClassRateLimited:
			wait := outcome.ResetAt.Sub(p.Now())
			if wait < 0 {
				wait = 0
			}
			if wait > p.MaxRateLimitWait {
				wait = p.MaxRateLimitWait
			}
			slog.Warn("Rate limit reached, waiting for reset",
				"wait_seconds", wait.Seconds())
			if err := p.Sleeper.Sleep(ctx, wait); err != nil {
				return zero, &Error{Class: ClassInternal, Status: 500,
					Message: "rate limit wait interrupted", Err: err}
			}

		case ClassRetryable:
			attempt++
			if attempt >= p.MaxAttempts {
				return zero, &Error{Class: ClassFatal, Status: 500,
					Message: ErrMaxAttempts.Error(), Err: ErrMaxAttempts}
			}
			wait := p.backoff(attempt)
			slog.Warn("Transient failure, backing off",
				"attempt", attempt, "max_attempts", p.MaxAttempts,
				"wait_seconds", wait.Seconds(), "error", outcome.Err)
			if err := p.Sleeper.Sleep(ctx, wait); err != nil {
				return zero, &Error{Class: ClassInternal, Status: 500,
					Message: "backoff interrupted", Err: err}
			}

		case ClassFatal:
			return zero, &Error{Class: ClassFatal, Status: outcome.Status,
				Message: outcome.Message, Err: outcome.Err}

		default:
			return zero, &Error{Class: ClassInternal, Status: 500,
				Message: outcome.Message, Err: outcome.Err}
		}
	}
}
