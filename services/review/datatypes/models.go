// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes holds the request/response models and the file-tree
// representation shared by the review service packages.
package datatypes

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/AleutianAI/ReviewService/pkg/validation"
)

// CandidateLevel is the seniority the review is calibrated against.
type CandidateLevel string

const (
	LevelJunior CandidateLevel = "Junior"
	LevelMiddle CandidateLevel = "Middle"
	LevelSenior CandidateLevel = "Senior"
)

// IsValid reports whether the level is one of the supported values.
func (l CandidateLevel) IsValid() bool {
	switch l {
	case LevelJunior, LevelMiddle, LevelSenior:
		return true
	}
	return false
}

// ContentMap maps a repository-relative file path to its decoded content.
// A nil value marks an entry whose content could not be retrieved as text
// (binary or oversized); the path still counts as a file.
type ContentMap map[string]*string

// ReviewRequest is the body of POST /v1/review.
type ReviewRequest struct {
	AssignmentDescription string         `json:"assignment_description"`
	GithubRepoURL         string         `json:"github_repo_url" binding:"required"`
	CandidateLevel        CandidateLevel `json:"candidate_level" binding:"required"`
}

// Validate checks the request fields beyond what gin binding covers.
func (r *ReviewRequest) Validate() error {
	if strings.TrimSpace(r.GithubRepoURL) == "" {
		return fmt.Errorf("github_repo_url is required")
	}
	if !r.CandidateLevel.IsValid() {
		return fmt.Errorf("candidate_level must be one of Junior, Middle, Senior")
	}
	if _, _, err := r.RepoRef(); err != nil {
		return err
	}
	return nil
}

// RepoRef derives the (owner, repo) pair from the request URL.
//
// The URL must have at least two path segments; anything after owner/repo
// (tree refs, trailing slashes) is ignored, matching how users paste repo
// links.
func (r *ReviewRequest) RepoRef() (string, string, error) {
	parsed, err := url.Parse(strings.TrimSpace(r.GithubRepoURL))
	if err != nil {
		return "", "", fmt.Errorf("invalid GitHub repository URL")
	}

	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GitHub repository URL")
	}

	owner, repo, err := validation.SanitizeRepoRef(parts[0], parts[1])
	if err != nil {
		return "", "", fmt.Errorf("invalid GitHub repository URL")
	}
	return owner, repo, nil
}

// ReviewResponse is the structured review returned to the caller.
// Section fields default to empty strings when the model output omitted the
// corresponding marker.
type ReviewResponse struct {
	FoundFiles        FileTree `json:"found_files"`
	DownsidesComments string   `json:"downsides_comments"`
	Rating            string   `json:"rating"`
	Conclusion        string   `json:"conclusion"`
}
