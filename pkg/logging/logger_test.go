// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// multiHandler Tests
// =============================================================================

// TestMultiHandler_FansOutToAllHandlers verifies a record reaches every
// enabled handler.
func TestMultiHandler_FansOutToAllHandlers(t *testing.T) {
	var first, second bytes.Buffer
	handler := &multiHandler{handlers: []slog.Handler{
		slog.NewJSONHandler(&first, nil),
		slog.NewTextHandler(&second, nil),
	}}

	logger := slog.New(handler)
	logger.Info("fan out", "key", "value")

	assert.Contains(t, first.String(), `"msg":"fan out"`)
	assert.Contains(t, second.String(), `msg="fan out"`)
}

// TestMultiHandler_RespectsPerHandlerLevels verifies a debug record only
// reaches handlers whose level admits it.
func TestMultiHandler_RespectsPerHandlerLevels(t *testing.T) {
	var debugOut, infoOut bytes.Buffer
	handler := &multiHandler{handlers: []slog.Handler{
		slog.NewJSONHandler(&debugOut, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewJSONHandler(&infoOut, &slog.HandlerOptions{Level: slog.LevelInfo}),
	}}

	logger := slog.New(handler)
	logger.Debug("verbose detail")

	assert.Contains(t, debugOut.String(), "verbose detail")
	assert.Empty(t, infoOut.String())
}

// TestMultiHandler_WithAttrsPropagates verifies attributes added via
// WithAttrs appear in every destination.
func TestMultiHandler_WithAttrsPropagates(t *testing.T) {
	var first, second bytes.Buffer
	base := &multiHandler{handlers: []slog.Handler{
		slog.NewJSONHandler(&first, nil),
		slog.NewJSONHandler(&second, nil),
	}}
	handler := base.WithAttrs([]slog.Attr{slog.String("service", "review")})

	slog.New(handler).Info("tagged")

	for _, out := range []string{first.String(), second.String()} {
		assert.Contains(t, out, `"service":"review"`)
	}
}

// =============================================================================
// Logger Tests
// =============================================================================

// TestNew_FileLogging verifies the file handler writes JSON entries to a
// dated, service-named file.
func TestNew_FileLogging(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{Service: "review", LogDir: dir})
	logger.Info("persisted entry", "request_id", "abc123")
	require.NoError(t, logger.Close())

	expected := filepath.Join(dir,
		"review_"+time.Now().Format("2006-01-02")+".log")
	data, err := os.ReadFile(expected)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry))
	assert.Equal(t, "persisted entry", entry["msg"])
	assert.Equal(t, "abc123", entry["request_id"])
	assert.Equal(t, "review", entry["service"])
}

// TestNew_BadLogDirDegradesToStdout verifies an unwritable log directory
// does not prevent logger construction.
func TestNew_BadLogDirDegradesToStdout(t *testing.T) {
	occupied := filepath.Join(t.TempDir(), "occupied")
	require.NoError(t, os.WriteFile(occupied, []byte("x"), 0600))

	// LogDir points at a regular file, so MkdirAll fails.
	logger := New(Config{Service: "review", LogDir: occupied})
	require.NotNil(t, logger)
	assert.Nil(t, logger.file)
	require.NoError(t, logger.Close())
}

// TestWith_ChildDoesNotOwnFile verifies closing a child logger leaves the
// parent's file handle open.
func TestWith_ChildDoesNotOwnFile(t *testing.T) {
	logger := New(Config{Service: "review", LogDir: t.TempDir()})
	defer logger.Close()

	child := logger.With("request_id", "abc123")
	require.NoError(t, child.Close())

	logger.Info("still open")
	require.NotNil(t, logger.file)
	require.NoError(t, logger.file.Sync())
}

// TestExpandPath verifies the home-directory shorthand.
func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".aleutian/logs"), expandPath("~/.aleutian/logs"))
	assert.Equal(t, "/var/log/aleutian", expandPath("/var/log/aleutian"))
	assert.Equal(t, "relative/path", expandPath("relative/path"))
}
