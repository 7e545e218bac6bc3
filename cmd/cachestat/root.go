// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hcache/cachestat/config"
	"github.com/hcache/cachestat/metrics"
	"github.com/hcache/cachestat/profile"
	"github.com/hcache/cachestat/record"
	"github.com/hcache/cachestat/storage/fs"
	"github.com/hcache/cachestat/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// A cli holds the state shared by all commands of one invocation.
type cli struct {
	stdout, stderr io.Writer

	cfgPath   string
	verbose   bool
	output    string
	recursive bool

	cfg     *config.Config
	log     *slog.Logger
	metrics *metrics.Metrics
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stdout: stdout, stderr: stderr}
	root := &cobra.Command{
		Use:           "cachestat",
		Short:         "Normalize and compare cache performance-test artifacts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.MetricsFile == "" {
				return nil
			}
			return c.metrics.WriteTextfile(c.cfg.MetricsFile)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	pf := root.PersistentFlags()
	pf.StringVar(&c.cfgPath, "config", "", "read configuration from `file`")
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "log debug messages")
	pf.StringVarP(&c.output, "output", "o", "", "write output files to `dir` (- for standard output)")
	pf.BoolVarP(&c.recursive, "recursive", "r", false, "also read files in subdirectories")

	root.AddCommand(
		c.aggregateCmd(),
		c.compareCmd(),
		c.pivotCmd(),
		c.bestCmd(),
		c.exportCmd(),
		c.uploadCmd(),
		c.serveCmd(),
	)
	return root
}

func (c *cli) setup() error {
	cfg, err := config.Load(c.cfgPath)
	if err != nil {
		return err
	}
	if c.output != "" {
		cfg.Output.Dir = c.output
	}
	c.cfg = cfg

	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	}
	c.log = slog.New(slog.NewTextHandler(c.stderr, &slog.HandlerOptions{Level: level}))
	c.metrics = metrics.New(prometheus.NewRegistry())
	return nil
}

func (c *cli) loader() *store.Loader {
	p := c.cfg.Profile
	return &store.Loader{
		Profiles: &profile.Analyzer{
			Mode: p.Mode,
			Tool: profile.Tool{Go: p.Tool, NodeCount: p.NodeCount, Timeout: p.Timeout, Logger: c.log},
		},
		Metrics:   c.metrics,
		Logger:    c.log,
		Recursive: c.recursive,
	}
}

// load loads the artifact directory dir and reports what was skipped.
func (c *cli) load(ctx context.Context, dir string) (*record.Dataset, error) {
	return c.report(ctx, dir, c.loader().LoadLocation)
}

// loadLibraries loads each subdirectory of dir as one cache library.
func (c *cli) loadLibraries(ctx context.Context, dir string) (*record.Dataset, error) {
	return c.report(ctx, dir, c.loader().LoadLibrariesLocation)
}

func (c *cli) report(ctx context.Context, dir string, load func(context.Context, string, fs.Options) (*record.Dataset, error)) (*record.Dataset, error) {
	opts := fs.Options{S3: c.cfg.Source.S3()}
	ds, err := load(ctx, c.cfg.Source.Location(dir), opts)
	if err != nil {
		return nil, err
	}
	st := ds.Stats()
	fmt.Fprintf(c.stderr, "%s: %d records from %d of %d files; skipped %d mismatched, %d unreadable, %d without tool; %d malformed entries\n",
		dir, ds.Len(), st.Parsed, st.Files, st.Mismatched, st.Unreadable, st.Skipped, st.Partial)
	return ds, nil
}

// kinds returns the kinds of the records in ds, in order of first
// appearance, restricted to only if it is set.
func kinds(ds *record.Dataset, only string) ([]record.Kind, error) {
	if only != "" {
		k, err := parseKind(only)
		if err != nil {
			return nil, err
		}
		return []record.Kind{k}, nil
	}
	var out []record.Kind
	seen := map[record.Kind]bool{}
	for _, r := range ds.Records() {
		if !seen[r.Kind] {
			seen[r.Kind] = true
			out = append(out, r.Kind)
		}
	}
	return out, nil
}

func parseKind(s string) (record.Kind, error) {
	k, ok := record.ParseKind(s)
	if !ok {
		return k, fmt.Errorf("unknown kind %q", s)
	}
	return k, nil
}

// writeOutput calls write with the output file name, or with standard
// output if the output directory is "-".
func (c *cli) writeOutput(name string, write func(io.Writer) error) error {
	dir := c.cfg.Output.Dir
	if dir == "-" {
		return write(c.stdout)
	}
	if err := os.MkdirAll(dir, 0o777); err != nil {
		return err
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	err = write(f)
	if err2 := f.Close(); err == nil {
		err = err2
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	c.log.Info("wrote output", "file", path)
	return nil
}
