// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package validation

import (
	"testing"
)

func TestValidateOwner(t *testing.T) {
	tests := []struct {
		name    string
		owner   string
		wantErr bool
	}{
		// Valid owners
		{"simple", "torvalds", false},
		{"single char", "a", false},
		{"with digits", "user123", false},
		{"interior hyphen", "my-org", false},
		{"multiple hyphens", "a-b-c", false},

		// Invalid owners - injection attempts
		{"empty", "", true},
		{"path traversal", "../etc", true},
		{"url injection", "owner/other", true},
		{"query injection", "owner?per_page=1", true},
		{"leading hyphen", "-owner", true},
		{"trailing hyphen", "owner-", true},
		{"double hyphen", "a--b", true},
		{"spaces", "an owner", true},
		{"too long", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOwner(tt.owner)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateOwner(%q) error = %v, wantErr %v", tt.owner, err, tt.wantErr)
			}
		})
	}
}

func TestValidateRepo(t *testing.T) {
	tests := []struct {
		name    string
		repo    string
		wantErr bool
	}{
		{"simple", "linux", false},
		{"with dots", "my.repo", false},
		{"with underscore", "my_repo", false},
		{"with hyphen", "my-repo", false},
		{"leading dot allowed", ".github", false},

		{"empty", "", true},
		{"dot", ".", true},
		{"dotdot", "..", true},
		{"slash", "a/b", true},
		{"spaces", "my repo", true},
		{"query injection", "repo?page=2", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRepo(tt.repo)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRepo(%q) error = %v, wantErr %v", tt.repo, err, tt.wantErr)
			}
		})
	}
}

func TestValidateContentPath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"root", "", false},
		{"single file", "main.go", false},
		{"nested", "src/app/main.go", false},
		{"hidden dir", ".github/workflows", false},

		{"absolute", "/etc/passwd", true},
		{"traversal", "../secrets", true},
		{"interior traversal", "src/../../etc", true},
		{"double slash", "src//app", true},
		{"backslash", `src\app`, true},
		{"newline", "src\npath", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateContentPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateContentPath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeRepoRef(t *testing.T) {
	tests := []struct {
		name      string
		owner     string
		repo      string
		wantOwner string
		wantRepo  string
		wantErr   bool
	}{
		{"passthrough", "torvalds", "linux", "torvalds", "linux", false},
		{"trims spaces", " torvalds ", " linux ", "torvalds", "linux", false},
		{"strips git suffix", "torvalds", "linux.git", "torvalds", "linux", false},
		{"invalid owner rejected", "bad owner", "linux", "", "", true},
		{"invalid repo rejected", "torvalds", "li nux", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, repo, err := SanitizeRepoRef(tt.owner, tt.repo)
			if (err != nil) != tt.wantErr {
				t.Errorf("SanitizeRepoRef(%q, %q) error = %v, wantErr %v", tt.owner, tt.repo, err, tt.wantErr)
				return
			}
			if owner != tt.wantOwner || repo != tt.wantRepo {
				t.Errorf("SanitizeRepoRef(%q, %q) = (%q, %q), want (%q, %q)",
					tt.owner, tt.repo, owner, repo, tt.wantOwner, tt.wantRepo)
			}
		})
	}
}
