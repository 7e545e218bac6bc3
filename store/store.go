// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package store loads directories of test artifacts into datasets.
//
// A Loader lists the files of a directory in sorted order, routes each
// candidate file to the parser for its format, and accumulates the
// resulting batches in a Store. Per-file and per-line failures are
// logged and counted; only a directory without a single usable record
// is an error.
package store

import "github.com/hcache/cachestat/record"

// A Store accumulates the batches parsed from one directory.
type Store struct {
	dir     string
	records []*record.Record
	stats   record.LoadStats
}

// New returns an empty Store for the directory dir.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Add adds the records of b to s and counts its partial errors.
func (s *Store) Add(b *record.Batch) {
	s.records = append(s.records, b.Records...)
	s.stats.Partial += len(b.Partial)
}

// Count adds t to the load statistics of s.
func (s *Store) Count(t record.LoadStats) {
	s.stats = s.stats.Add(t)
}

// Stats returns the load statistics so far.
func (s *Store) Stats() record.LoadStats {
	return s.stats
}

// Dataset returns the records added to s as a Dataset, in the order
// they were added. If no records were added, it returns a
// *record.DatasetEmptyError.
func (s *Store) Dataset() (*record.Dataset, error) {
	if len(s.records) == 0 {
		return nil, &record.DatasetEmptyError{Dir: s.dir}
	}
	return record.NewDataset(s.dir, s.records, s.stats), nil
}
