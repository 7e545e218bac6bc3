// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/hcache/cachestat/benchfmt"
	"github.com/hcache/cachestat/hitratio"
	"github.com/hcache/cachestat/loadtest"
	"github.com/hcache/cachestat/metadata"
	"github.com/hcache/cachestat/metrics"
	"github.com/hcache/cachestat/profile"
	"github.com/hcache/cachestat/record"
	"github.com/hcache/cachestat/storage/fs"
)

// A Loader reads artifact directories.
type Loader struct {
	// Profiles analyzes binary profiles. If nil, profiles are
	// analyzed in profile.ModeAuto with default tool settings.
	Profiles *profile.Analyzer

	// HitRatio parses hit-ratio logs. If nil, the default resolver
	// is used.
	HitRatio *hitratio.Parser

	// Metrics, if non-nil, counts files, records and errors.
	Metrics *metrics.Metrics

	// Logger receives per-file diagnostics. If nil, slog.Default()
	// is used.
	Logger *slog.Logger

	// Recursive makes Load descend into subdirectories. By default
	// only the files directly in the loaded directory are read.
	Recursive bool
}

// LibraryParam is the parameter LoadLibraries sets to the name of the
// cache library a record belongs to.
const LibraryParam = "cache_lib"

func (l *Loader) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}

// LoadLocation opens location with fs.Open and loads it.
func (l *Loader) LoadLocation(ctx context.Context, location string, opts fs.Options) (*record.Dataset, error) {
	return loadLocation(ctx, location, opts, l.Load)
}

// LoadLibrariesLocation opens location with fs.Open and loads it with
// LoadLibraries.
func (l *Loader) LoadLibrariesLocation(ctx context.Context, location string, opts fs.Options) (*record.Dataset, error) {
	return loadLocation(ctx, location, opts, l.LoadLibraries)
}

func loadLocation(ctx context.Context, location string, opts fs.Options, load func(context.Context, fs.FS, string, string) (*record.Dataset, error)) (*record.Dataset, error) {
	fsys, prefix, err := fs.Open(ctx, location, opts)
	if err != nil {
		return nil, err
	}
	defer fsys.Close()
	return load(ctx, fsys, prefix, location)
}

// Load parses every candidate file directly under prefix in fsys, or
// anywhere below it if l.Recursive is set, in sorted name order, and returns the records as a Dataset named dir. Files
// that cannot be read, that yield no records, or that need an
// unavailable external tool are logged, counted in the dataset's
// LoadStats and skipped. If no file yields a record, Load returns a
// *record.DatasetEmptyError naming dir.
func (l *Loader) Load(ctx context.Context, fsys fs.FS, prefix, dir string) (*record.Dataset, error) {
	names, err := fsys.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	s := New(dir)
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !l.Recursive && strings.Contains(strings.TrimPrefix(name, prefix), "/") {
			continue
		}
		format := metadata.Classify(name)
		if format == metadata.NotCandidate {
			continue
		}
		kind := format.Kind()
		b, err := l.loadFile(ctx, fsys, name, format)
		s.Count(record.LoadStats{Files: 1})
		log := l.logger().With("file", name, "kind", kind)

		var tue *record.ToolUnavailableError
		switch {
		case errors.As(err, &tue):
			log.Warn("skipping profile", "err", err)
			s.Count(record.LoadStats{Skipped: 1})
			l.Metrics.File(kind, metrics.Skipped)
			continue
		case err != nil:
			log.Warn("skipping unreadable file", "err", err)
			s.Count(record.LoadStats{Unreadable: 1})
			l.Metrics.File(kind, metrics.Unreadable)
			continue
		}

		for _, pe := range b.Partial {
			log.Warn("dropped malformed entry", "line", pe.Line, "err", pe.Msg)
		}
		s.Add(b)
		l.Metrics.Batch(b)
		if len(b.Records) == 0 {
			log.Warn("skipping file", "err", &record.FormatMismatchError{File: name, Kind: kind})
			s.Count(record.LoadStats{Mismatched: 1})
			l.Metrics.File(kind, metrics.Mismatched)
			continue
		}
		log.Debug("parsed file", "records", len(b.Records), "partial", len(b.Partial))
		s.Count(record.LoadStats{Parsed: 1})
		l.Metrics.File(kind, metrics.Parsed)
	}
	return s.Dataset()
}

// LoadLibraries loads each immediate subdirectory of prefix in fsys as
// the results of one cache library, named by the subdirectory, and
// tags every record with that name as its LibraryParam parameter.
// Files directly under prefix are ignored. Libraries are loaded in
// name order and those without records are logged and skipped. The
// returned dataset is named dir; if no library yields a record,
// LoadLibraries returns a *record.DatasetEmptyError naming dir.
func (l *Loader) LoadLibraries(ctx context.Context, fsys fs.FS, prefix, dir string) (*record.Dataset, error) {
	names, err := fsys.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	var libs []string
	seen := map[string]bool{}
	for _, name := range names {
		lib, _, ok := strings.Cut(strings.TrimPrefix(name, prefix), "/")
		if ok && lib != "" && !seen[lib] {
			seen[lib] = true
			libs = append(libs, lib)
		}
	}
	sort.Strings(libs)

	var recs []*record.Record
	var stats record.LoadStats
	for _, lib := range libs {
		ds, err := l.Load(ctx, fsys, prefix+lib+"/", path.Join(dir, lib))
		var empty *record.DatasetEmptyError
		if errors.As(err, &empty) {
			l.logger().Warn("skipping library", "lib", lib, "err", err)
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, r := range ds.Records() {
			r = r.Clone()
			r.Params[LibraryParam] = record.Str(lib)
			recs = append(recs, r)
		}
		stats = stats.Add(ds.Stats())
		l.logger().Debug("loaded library", "lib", lib, "records", ds.Len())
	}
	if len(recs) == 0 {
		return nil, &record.DatasetEmptyError{Dir: dir}
	}
	return record.NewDataset(dir, recs, stats), nil
}

func (l *Loader) loadFile(ctx context.Context, fsys fs.FS, name string, format metadata.Format) (*record.Batch, error) {
	f, err := fsys.Open(ctx, name)
	if err != nil {
		return nil, &record.FileReadError{File: name, Err: err}
	}
	defer f.Close()
	return l.parse(ctx, f, name, format)
}

func (l *Loader) parse(ctx context.Context, r io.Reader, name string, format metadata.Format) (*record.Batch, error) {
	switch format {
	case metadata.BenchmarkText:
		return benchfmt.Parse(r, name)
	case metadata.LoadTestJSON:
		return loadtest.Parse(r, name)
	case metadata.HitRatioLog:
		p := l.HitRatio
		if p == nil {
			p = new(hitratio.Parser)
		}
		return p.Parse(r, name)
	case metadata.ProfileTable:
		return profile.ParseTable(r, name)
	case metadata.ProfileBinary:
		return l.analyzer().Analyze(ctx, r, name)
	}
	return nil, fmt.Errorf("%s: unsupported format %v", name, format)
}

// analyzer returns the profile analyzer, with tool failures counted
// in l.Metrics.
func (l *Loader) analyzer() *profile.Analyzer {
	a := profile.Analyzer{Mode: profile.ModeAuto}
	if l.Profiles != nil {
		a = *l.Profiles
	}
	if a.Tool.Logger == nil {
		a.Tool.Logger = l.Logger
	}
	next := a.ToolFailed
	a.ToolFailed = func(err *record.ToolUnavailableError) {
		l.Metrics.ToolFailed(err)
		if next != nil {
			next(err)
		}
	}
	return &a
}
