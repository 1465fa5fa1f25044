// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/AleutianAI/ReviewService/pkg/retry"
)

// filePayload is the content endpoint's response body. Content is absent
// for entries GitHub cannot inline (binary blobs, oversized files).
type filePayload struct {
	Content  *string `json:"content"`
	Encoding string  `json:"encoding"`
}

// fetchFileContent retrieves and decodes one file entry's content through
// the retry policy.
//
// A payload without a content field is a success with a nil result: the
// file exists but has no retrievable text, and the caller records the path
// with an empty body.
func (c *Client) fetchFileContent(ctx context.Context, contentURL string) (*string, error) {
	op := func(ctx context.Context) (*string, retry.Outcome) {
		resp, err := c.get(ctx, contentURL)
		if err != nil {
			return nil, retry.Internal("Unexpected error fetching file content.", err)
		}
		if resp.status == 200 {
			var payload filePayload
			if err := json.Unmarshal(resp.body, &payload); err != nil {
				return nil, retry.Internal("Unexpected error fetching file content.", err)
			}
			if payload.Content == nil {
				return nil, retry.Success()
			}
			decoded, err := decodeContent(*payload.Content)
			if err != nil {
				return nil, retry.Internal("Unexpected error fetching file content.", err)
			}
			return &decoded, retry.Success()
		}
		return nil, classify(resp, "Failed to fetch file content.")
	}

	return retry.Do(ctx, c.policy, op)
}

// decodeContent decodes the base64 content field. GitHub wraps the payload
// in newlines, which the standard decoder rejects, so they are stripped
// first.
func decodeContent(raw string) (string, error) {
	raw = strings.ReplaceAll(raw, "\n", "")
	raw = strings.ReplaceAll(raw, "\r", "")
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
