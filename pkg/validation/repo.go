// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation utilities for security-critical operations.
//
// This package contains validators for user-provided inputs that are used in
// remote API URLs and cache keys. Using these validators prevents injection
// attacks (URL path injection, path traversal).
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// ownerPattern matches valid GitHub account names.
// Allows: alphanumerics and single interior hyphens, max 39 characters.
var ownerPattern = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9]|-[A-Za-z0-9]){0,38}$`)

// repoPattern matches valid repository names.
// Allows: alphanumerics, dots, underscores, hyphens, max 100 characters.
var repoPattern = regexp.MustCompile(`^[A-Za-z0-9._\-]{1,100}$`)

// ValidateOwner validates a repository owner name before it is interpolated
// into an API URL.
//
// Valid owners:
//   - 1-39 characters
//   - Letters and digits
//   - Interior hyphens (no leading/trailing, no doubles)
//
// Returns an error if the owner is invalid.
//
// Example:
//
//	if err := validation.ValidateOwner(owner); err != nil {
//	    return nil, fmt.Errorf("invalid owner: %w", err)
//	}
//	// Safe to use in a request URL
func ValidateOwner(owner string) error {
	if owner == "" {
		return fmt.Errorf("owner cannot be empty")
	}

	if !ownerPattern.MatchString(owner) {
		return fmt.Errorf("invalid owner format: %q (must be 1-39 alphanumeric chars with interior hyphens)", owner)
	}

	return nil
}

// ValidateRepo validates a repository name before it is interpolated into an
// API URL.
//
// Valid names:
//   - 1-100 characters
//   - Letters, digits, dots, underscores, hyphens
//   - Not "." or ".."
//
// Returns an error if the name is invalid.
func ValidateRepo(repo string) error {
	if repo == "" {
		return fmt.Errorf("repository name cannot be empty")
	}

	if repo == "." || repo == ".." {
		return fmt.Errorf("invalid repository name: %q", repo)
	}

	if !repoPattern.MatchString(repo) {
		return fmt.Errorf("invalid repository name format: %q (must be 1-100 alphanumeric chars, dots, underscores, or hyphens)", repo)
	}

	return nil
}

// ValidateContentPath validates a repository-relative content path before it
// is appended to a listing URL. Rejects traversal segments, absolute paths,
// and control characters.
func ValidateContentPath(path string) error {
	if path == "" {
		return nil // Repository root
	}

	if strings.HasPrefix(path, "/") {
		return fmt.Errorf("content path must be repository-relative: %q", path)
	}

	for _, segment := range strings.Split(path, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return fmt.Errorf("invalid content path segment in %q", path)
		}
	}

	for _, r := range path {
		if r < 0x20 || r == 0x7f || r == '\\' {
			return fmt.Errorf("content path contains illegal character: %q", path)
		}
	}

	return nil
}

// SanitizeRepoRef normalizes and validates an "owner/repo" pair.
// Returns the trimmed owner and repo if valid, or an error if either part is
// invalid.
//
// Use this when both parts arrive from a parsed user URL:
//
//	owner, repo, err := validation.SanitizeRepoRef(rawOwner, rawRepo)
//	if err != nil {
//	    return err
//	}
//	// owner and repo are validated
func SanitizeRepoRef(owner, repo string) (string, string, error) {
	owner = strings.TrimSpace(owner)
	repo = strings.TrimSpace(strings.TrimSuffix(repo, ".git"))

	if err := ValidateOwner(owner); err != nil {
		return "", "", err
	}
	if err := ValidateRepo(repo); err != nil {
		return "", "", err
	}
	return owner, repo, nil
}
