// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package generate drives the inference call that turns fetched repository
// content into a structured review, including the safety retry policy and
// the marker-based response parser.
package generate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AleutianAI/ReviewService/services/review/datatypes"
)

// promptFormat is the fixed instruction block the parser's markers depend
// on. Changing a label here requires the matching change in parser.go.
const promptFormat = "Provide feedback exactly in the following format, ensuring each section starts with the specified label:\n" +
	"### Start of Review\n" +
	"### Downsides:\n- List any issues or missing features in the code.\n\n" +
	"### Rating:\n- Provide a rating out of 5 and briefly justify the score.\n\n" +
	"### Conclusion:\n- Summarize the main points and give recommendations for improvements.\n" +
	"### End of Review"

// BuildPrompt composes the review prompt from the candidate level, the
// rendered file tree, and every path/content pair. Entries with nil content
// keep their path label with an empty body so the model still sees the
// file. Paths are sorted so the prompt is deterministic for a given map.
func BuildPrompt(level datatypes.CandidateLevel, tree datatypes.FileTree, files datatypes.ContentMap) string {
	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var snippets strings.Builder
	for i, path := range paths {
		if i > 0 {
			snippets.WriteString("\n")
		}
		snippets.WriteString("File: ")
		snippets.WriteString(path)
		snippets.WriteString("\n")
		if content := files[path]; content != nil {
			snippets.WriteString(*content)
		}
	}

	return fmt.Sprintf(
		"Review this code for a %s level assignment.\n\n"+
			"Files found in the repository:\n%s\n\n"+
			"Code snippets:\n%s\n\n%s",
		level, tree.Render(), snippets.String(), promptFormat)
}
