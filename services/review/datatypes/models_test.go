// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// ReviewRequest.Validate() Tests
// =============================================================================

// TestReviewRequest_Validate verifies URL and candidate level validation.
// The repo URL must carry at least owner and repository path segments, and
// the level must be one of the three supported values.
func TestReviewRequest_Validate(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		level       CandidateLevel
		expectError bool
	}{
		{
			name:  "valid request passes",
			url:   "https://github.com/testuser/testrepo",
			level: LevelJunior,
		},
		{
			name:  "trailing segments are tolerated",
			url:   "https://github.com/testuser/testrepo/tree/main/src",
			level: LevelSenior,
		},
		{
			name:        "missing repo segment fails",
			url:         "https://github.com/testuser",
			level:       LevelJunior,
			expectError: true,
		},
		{
			name:        "host-only URL fails",
			url:         "https://invalid_url",
			level:       LevelJunior,
			expectError: true,
		},
		{
			name:        "empty URL fails",
			url:         "",
			level:       LevelJunior,
			expectError: true,
		},
		{
			name:        "unknown level fails",
			url:         "https://github.com/testuser/testrepo",
			level:       CandidateLevel("Principal"),
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &ReviewRequest{GithubRepoURL: tt.url, CandidateLevel: tt.level}
			err := req.Validate()

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestReviewRequest_RepoRef verifies owner/repo derivation from pasted URLs,
// including .git suffixes and extra path segments.
func TestReviewRequest_RepoRef(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		wantOwner string
		wantRepo  string
	}{
		{"plain", "https://github.com/t-s-e-z-a-r/GraphQL", "t-s-e-z-a-r", "GraphQL"},
		{"trailing slash", "https://github.com/testuser/testrepo/", "testuser", "testrepo"},
		{"git suffix", "https://github.com/testuser/testrepo.git", "testuser", "testrepo"},
		{"tree ref ignored", "https://github.com/testuser/testrepo/tree/main", "testuser", "testrepo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &ReviewRequest{GithubRepoURL: tt.url, CandidateLevel: LevelMiddle}
			owner, repo, err := req.RepoRef()

			require.NoError(t, err)
			assert.Equal(t, tt.wantOwner, owner)
			assert.Equal(t, tt.wantRepo, repo)
		})
	}
}

func TestCandidateLevel_IsValid(t *testing.T) {
	assert.True(t, LevelJunior.IsValid())
	assert.True(t, LevelMiddle.IsValid())
	assert.True(t, LevelSenior.IsValid())
	assert.False(t, CandidateLevel("junior").IsValid())
	assert.False(t, CandidateLevel("").IsValid())
}
