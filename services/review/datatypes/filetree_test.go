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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// BuildFileTree Tests
// =============================================================================

// TestBuildFileTree_Nesting verifies that flat paths become nested maps with
// nil leaves for files and FileTree values for directories.
func TestBuildFileTree_Nesting(t *testing.T) {
	tests := []struct {
		name  string
		paths []string
		want  FileTree
	}{
		{
			name:  "empty input yields empty tree",
			paths: nil,
			want:  FileTree{},
		},
		{
			name:  "single root file",
			paths: []string{"a.py"},
			want:  FileTree{"a.py": nil},
		},
		{
			name:  "file and nested file",
			paths: []string{"a.py", "dir/b.py"},
			want:  FileTree{"a.py": nil, "dir": FileTree{"b.py": nil}},
		},
		{
			name:  "deep nesting",
			paths: []string{"src/app/handlers/review.go"},
			want: FileTree{
				"src": FileTree{
					"app": FileTree{
						"handlers": FileTree{"review.go": nil},
					},
				},
			},
		},
		{
			name:  "siblings share a directory node",
			paths: []string{"dir/a.py", "dir/b.py", "dir/sub/c.py"},
			want: FileTree{
				"dir": FileTree{
					"a.py": nil,
					"b.py": nil,
					"sub":  FileTree{"c.py": nil},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildFileTree(tt.paths)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestBuildFileTree_PermutationInvariant verifies that input order does not
// affect the structure for collision-free path sets.
func TestBuildFileTree_PermutationInvariant(t *testing.T) {
	orders := [][]string{
		{"a.py", "dir/b.py", "dir/sub/c.py", "dir/d.py"},
		{"dir/sub/c.py", "dir/d.py", "a.py", "dir/b.py"},
		{"dir/d.py", "dir/b.py", "dir/sub/c.py", "a.py"},
	}

	want := BuildFileTree(orders[0])
	for _, order := range orders[1:] {
		assert.Equal(t, want, BuildFileTree(order))
	}
}

// TestBuildFileTree_CollisionTieBreak verifies that when a prefix was
// recorded as a file and a later path treats it as a directory (or vice
// versa), the first-recorded type wins and no error occurs.
func TestBuildFileTree_CollisionTieBreak(t *testing.T) {
	// File first: "a" stays a nil leaf, "a/b.py" is dropped at the clash.
	fileFirst := BuildFileTree([]string{"a", "a/b.py"})
	assert.Equal(t, FileTree{"a": nil}, fileFirst)

	// Directory first: "a" stays a directory.
	dirFirst := BuildFileTree([]string{"a/b.py", "a"})
	assert.Equal(t, FileTree{"a": FileTree{"b.py": nil}}, dirFirst)
}

// TestBuildFileTree_EveryLeafIsAFilePath verifies the round-trip property:
// the leaf set of the built tree equals the input path set.
func TestBuildFileTree_EveryLeafIsAFilePath(t *testing.T) {
	paths := []string{"a.py", "dir/b.py", "dir/sub/c.py", "other/d.txt"}
	tree := BuildFileTree(paths)

	got := tree.Paths()
	assert.ElementsMatch(t, paths, got)
}

// TestFileTree_JSONShape verifies the wire shape: directories as objects,
// files as null.
func TestFileTree_JSONShape(t *testing.T) {
	tree := BuildFileTree([]string{"a.py", "dir/b.py"})

	raw, err := json.Marshal(tree)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a.py": null, "dir": {"b.py": null}}`, string(raw))

	empty, err := json.Marshal(BuildFileTree(nil))
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(empty))
}

// =============================================================================
// Render Tests
// =============================================================================

// TestFileTree_Render verifies deterministic, sorted, indented output with
// a trailing slash on directories.
func TestFileTree_Render(t *testing.T) {
	tree := BuildFileTree([]string{"b.py", "a.py", "dir/c.py"})

	want := "a.py\nb.py\ndir/\n  c.py\n"
	assert.Equal(t, want, tree.Render())
}

func TestFileTree_RenderEmpty(t *testing.T) {
	assert.Equal(t, "", FileTree{}.Render())
}
