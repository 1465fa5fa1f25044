// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package cache persists finished reviews in a local BadgerDB so repeated
// requests for the same repository and level skip the walk and the
// inference call entirely.
//
// Entries are written with a TTL; BadgerDB expires them natively, so there
// is no sweeper to run. A cache read that races an expiry simply misses.
//
// License: BadgerDB is Apache 2.0 licensed (github.com/dgraph-io/badger).
package cache

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/ReviewService/services/review/datatypes"
)

// DefaultTTL matches the original service's one-hour result lifetime.
const DefaultTTL = time.Hour

// Config holds configuration for the review cache store.
type Config struct {
	// Path is the directory for BadgerDB files.
	// Ignored when InMemory is true.
	Path string

	// InMemory enables in-memory mode (no disk persistence).
	// Useful for testing.
	InMemory bool

	// SyncWrites enables synchronous writes for durability. A lost cache
	// entry only costs a re-review, so this defaults off.
	SyncWrites bool

	// Logger is the logger for BadgerDB operations.
	// If nil, BadgerDB's internal logging is disabled.
	Logger *slog.Logger
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Store is a TTL'd review cache backed by BadgerDB.
//
// Thread Safety: safe for concurrent use; BadgerDB handles its own locking.
type Store struct {
	db *badger.DB
}

// Open creates and opens a review cache with the given configuration.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent cache")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create cache directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}

	opts = opts.WithSyncWrites(cfg.SyncWrites)
	opts = opts.WithNumVersionsToKeep(1)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil) // Disable BadgerDB's internal logging
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open review cache: %w", err)
	}

	return &Store{db: db}, nil
}

// OpenWithPath opens a persistent cache at the given path with defaults.
func OpenWithPath(path string) (*Store, error) {
	return Open(Config{Path: path})
}

// OpenInMemory opens an in-memory cache for testing.
func OpenInMemory() (*Store, error) {
	return Open(Config{InMemory: true})
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Key derives the cache key for one (repository URL, candidate level) pair.
func Key(repoURL string, level datatypes.CandidateLevel) string {
	sum := md5.Sum([]byte(repoURL + " " + string(level)))
	return hex.EncodeToString(sum[:])
}

// GetReview returns the cached review for key, or found=false on a miss.
func (s *Store) GetReview(key string) (*datatypes.ReviewResponse, bool, error) {
	var review datatypes.ReviewResponse
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &review)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cached review: %w", err)
	}
	return &review, true, nil
}

// SetReview stores a review under key for the given TTL.
func (s *Store) SetReview(key string, review *datatypes.ReviewResponse, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	payload, err := json.Marshal(review)
	if err != nil {
		return fmt.Errorf("encode review for cache: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), payload).WithTTL(ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("write cached review: %w", err)
	}
	return nil
}

// RunGC triggers one value log garbage collection pass. Callers run this
// periodically from main; an ErrNoRewrite result just means there was
// nothing to collect.
func (s *Store) RunGC(ratio float64) error {
	if ratio <= 0 || ratio > 1 {
		ratio = 0.5
	}
	err := s.db.RunValueLogGC(ratio)
	if errors.Is(err, badger.ErrNoRewrite) {
		return nil
	}
	return err
}
