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
	"regexp"
	"strings"

	"github.com/AleutianAI/ReviewService/services/review/datatypes"
)

// Marker-based extraction is a compatibility shim for models that cannot be
// trusted with structured output. Each section runs from its label to the
// next "###" marker or end of text. Keep all format knowledge inside this
// file so a structured-output contract can replace it without touching
// callers.
var (
	downsidesPattern  = regexp.MustCompile(`(?s)### Downsides:\n(.*?)(?:\n###|$)`)
	ratingPattern     = regexp.MustCompile(`(?s)### Rating:\n(.*?)(?:\n###|$)`)
	conclusionPattern = regexp.MustCompile(`(?s)### Conclusion:\n(.*?)(?:\n###|$)`)
)

// ParseReviewResponse extracts the three labeled sections from the raw
// completion text and combines them with the already-built file tree.
//
// A missing marker yields an empty string for that field, never an error;
// text before the first marker and after the last is discarded.
func ParseReviewResponse(text string, tree datatypes.FileTree) *datatypes.ReviewResponse {
	return &datatypes.ReviewResponse{
		FoundFiles:        tree,
		DownsidesComments: extractSection(downsidesPattern, text),
		Rating:            extractSection(ratingPattern, text),
		Conclusion:        extractSection(conclusionPattern, text),
	}
}

func extractSection(pattern *regexp.Regexp, text string) string {
	match := pattern.FindStringSubmatch(text)
	if match == nil {
		return ""
	}
	return strings.TrimSpace(match[1])
}
