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
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/ReviewService/pkg/retry"
	"github.com/AleutianAI/ReviewService/pkg/validation"
	"github.com/AleutianAI/ReviewService/services/review/datatypes"
)

// RepositoryEntry is one row of a directory listing page.
type RepositoryEntry struct {
	Path string `json:"path"`
	Type string `json:"type"` // "file" or "dir"
	URL  string `json:"url"`  // content URL for the entry
}

// WalkTree retrieves the content of every file reachable from the
// repository root.
//
// # Description
//
// Directory listings are paged until a page returns fewer than PerPage
// entries. Within a page, entries fan out one goroutine each under an
// errgroup bound to ctx: files fetch their content, directories recurse.
// The first failure cancels the group's context, aborting in-flight
// siblings, and surfaces as the walk's single typed error; no partial map
// is ever returned.
//
// Outputs:
//
//	datatypes.ContentMap - path to decoded content (nil for binary entries)
//	error - *retry.Error describing the first terminal failure
func (c *Client) WalkTree(ctx context.Context, owner, repo string) (datatypes.ContentMap, error) {
	if err := validation.ValidateOwner(owner); err != nil {
		return nil, &retry.Error{Class: retry.ClassFatal, Status: 400,
			Message: "Invalid GitHub repository URL.", Err: err}
	}
	if err := validation.ValidateRepo(repo); err != nil {
		return nil, &retry.Error{Class: retry.ClassFatal, Status: 400,
			Message: "Invalid GitHub repository URL.", Err: err}
	}

	slog.Info("Walking repository tree", "owner", owner, "repo", repo)
	return c.walk(ctx, owner, repo, "")
}

func (c *Client) walk(ctx context.Context, owner, repo, path string) (datatypes.ContentMap, error) {
	if err := validation.ValidateContentPath(path); err != nil {
		return nil, &retry.Error{Class: retry.ClassInternal, Status: 500,
			Message: "Unexpected error fetching repository content.", Err: err}
	}

	out := datatypes.ContentMap{}
	for page := 1; ; page++ {
		entries, err := c.listPage(ctx, owner, repo, path, page)
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			return out, nil
		}

		g, gctx := errgroup.WithContext(ctx)
		results := make([]datatypes.ContentMap, len(entries))
		for i, entry := range entries {
			i, entry := i, entry
			g.Go(func() error {
				switch entry.Type {
				case "file":
					content, err := c.fetchFileContent(gctx, entry.URL)
					if err != nil {
						return err
					}
					results[i] = datatypes.ContentMap{entry.Path: content}
				case "dir":
					sub, err := c.walk(gctx, owner, repo, entry.Path)
					if err != nil {
						return err
					}
					results[i] = sub
				default:
					// Symlinks and submodules have no retrievable content.
					slog.Debug("Skipping non-file entry", "path", entry.Path, "type", entry.Type)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		// Merge after join: this goroutine is the only writer of out.
		for _, m := range results {
			for k, v := range m {
				out[k] = v
			}
		}

		if len(entries) < c.perPage {
			return out, nil
		}
	}
}

// listPage fetches one directory listing page through the retry policy.
func (c *Client) listPage(ctx context.Context, owner, repo, path string, page int) ([]RepositoryEntry, error) {
	listURL := fmt.Sprintf("%s/repos/%s/%s/contents/%s?page=%d&per_page=%d",
		c.baseURL, owner, repo, escapePath(path), page, c.perPage)

	op := func(ctx context.Context) ([]RepositoryEntry, retry.Outcome) {
		resp, err := c.get(ctx, listURL)
		if err != nil {
			return nil, retry.Internal("Unexpected error fetching repository content.", err)
		}
		if resp.status == 200 {
			var entries []RepositoryEntry
			if err := json.Unmarshal(resp.body, &entries); err != nil {
				return nil, retry.Internal("Unexpected error fetching repository content.", err)
			}
			return entries, retry.Success()
		}
		return nil, classify(resp, "Failed to fetch repository content.")
	}

	return retry.Do(ctx, c.policy, op)
}

// escapePath escapes each path segment while keeping the separators.
func escapePath(path string) string {
	if path == "" {
		return ""
	}
	segments := strings.Split(path, "/")
	for i := range segments {
		segments[i] = url.PathEscape(segments[i])
	}
	return strings.Join(segments, "/")
}
