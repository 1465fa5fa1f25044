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
	"sort"
	"strings"
)

// FileTree is the nested representation of a repository hierarchy.
// Directories map to a child FileTree; files map to nil. It marshals to the
// JSON shape callers expect: {"dir": {"b.py": null}, "a.py": null}.
type FileTree map[string]any

// BuildFileTree converts a flat set of file paths into a nested FileTree.
//
// # Description
//
// Each path is split on "/"; interior segments become (or reuse) nested
// maps and the final segment becomes a nil leaf. For collision-free input
// (no path is both a file and a directory prefix, which the tree walk
// guarantees) the result is invariant under permuting the input order.
//
// Tie-break on malformed input: whichever type a segment was recorded with
// first wins. A later path that would turn an existing nil leaf into a
// directory is dropped from that point; a later file path landing on an
// existing directory leaves the directory in place.
func BuildFileTree(paths []string) FileTree {
	tree := FileTree{}
	for _, path := range paths {
		if path == "" {
			continue
		}
		parts := strings.Split(path, "/")
		level := tree
		for i, part := range parts {
			last := i == len(parts)-1
			existing, ok := level[part]
			if !ok {
				if last {
					level[part] = nil
					break
				}
				child := FileTree{}
				level[part] = child
				level = child
				continue
			}
			child, isDir := existing.(FileTree)
			if last || !isDir {
				// Existing entry's type takes precedence.
				break
			}
			level = child
		}
	}
	return tree
}

// Paths returns the file paths represented by the tree, sorted.
func (t FileTree) Paths() []string {
	var out []string
	var walk func(prefix string, level FileTree)
	walk = func(prefix string, level FileTree) {
		for name, child := range level {
			full := name
			if prefix != "" {
				full = prefix + "/" + name
			}
			if sub, ok := child.(FileTree); ok {
				walk(full, sub)
			} else {
				out = append(out, full)
			}
		}
	}
	walk("", t)
	sort.Strings(out)
	return out
}

// Render produces the deterministic textual form embedded into the review
// prompt: one entry per line, sorted, directories suffixed with "/" and
// children indented two spaces.
func (t FileTree) Render() string {
	var b strings.Builder
	var walk func(level FileTree, depth int)
	walk = func(level FileTree, depth int) {
		names := make([]string, 0, len(level))
		for name := range level {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			b.WriteString(strings.Repeat("  ", depth))
			if sub, ok := level[name].(FileTree); ok {
				b.WriteString(name)
				b.WriteString("/\n")
				walk(sub, depth+1)
			} else {
				b.WriteString(name)
				b.WriteString("\n")
			}
		}
	}
	walk(t, 0)
	return b.String()
}
