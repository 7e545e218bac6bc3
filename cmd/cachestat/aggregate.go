// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/hcache/cachestat/aggregate"
	"github.com/hcache/cachestat/store"
	"github.com/spf13/cobra"
)

func (c *cli) aggregateCmd() *cobra.Command {
	var kind string
	var keys, metrics []string
	var byLib bool
	cmd := &cobra.Command{
		Use:   "aggregate dir",
		Short: "Write summary statistics per kind",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			load := c.load
			if byLib {
				load = c.loadLibraries
			}
			ds, err := load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			ks, err := kinds(ds, kind)
			if err != nil {
				return err
			}
			for _, k := range ks {
				spec := aggregate.Spec{Kind: k, Keys: keys, Metrics: metrics}
				if len(spec.Keys) == 0 {
					spec.Keys = c.cfg.GroupKeys(k)
					if byLib {
						spec.Keys = append([]string{store.LibraryParam}, spec.Keys...)
					}
				}
				if len(spec.Metrics) == 0 {
					spec.Metrics = c.cfg.MetricNames(k)
				}
				res := aggregate.Aggregate(spec, ds)
				c.log.Debug("aggregated", "kind", k, "groups", len(res.Groups))
				err := c.writeOutput(k.String()+"_summary.csv", func(w io.Writer) error {
					return aggregate.WriteCSV(w, res, c.cfg.Output.CSVOptions())
				})
				if err != nil {
					return err
				}
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&kind, "kind", "", "only aggregate records of `kind`")
	f.StringSliceVar(&keys, "keys", nil, "grouping `keys` (default from configuration)")
	f.StringSliceVar(&metrics, "metrics", nil, "`metrics` to summarize (default from configuration)")
	f.BoolVar(&byLib, "by-lib", false, "treat each subdirectory of dir as one cache library and group by "+store.LibraryParam+" first")
	return cmd
}

func (c *cli) pivotCmd() *cobra.Command {
	var kind, col, metric, stat string
	var rows []string
	cmd := &cobra.Command{
		Use:   "pivot dir",
		Short: "Tabulate one statistic of one metric",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := parseKind(kind)
			if err != nil {
				return err
			}
			ds, err := c.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			keys := append(append([]string(nil), rows...), col)
			res := aggregate.Aggregate(aggregate.Spec{Kind: k, Keys: keys, Metrics: []string{metric}}, ds)
			pt, err := aggregate.Pivot(res, rows, col, metric, aggregate.Stat(stat))
			if err != nil {
				return err
			}
			name := fmt.Sprintf("%s_%s_by_%s.csv", k, metric, col)
			return c.writeOutput(name, func(w io.Writer) error {
				return aggregate.WritePivotCSV(w, pt, c.cfg.Output.CSVOptions())
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&kind, "kind", "", "record `kind` (required)")
	f.StringSliceVar(&rows, "rows", nil, "row `keys`")
	f.StringVar(&col, "col", "", "column `key` (required)")
	f.StringVar(&metric, "metric", "", "`metric` to tabulate (required)")
	f.StringVar(&stat, "stat", string(aggregate.Mean), "`statistic` to tabulate")
	cmd.MarkFlagRequired("kind")
	cmd.MarkFlagRequired("col")
	cmd.MarkFlagRequired("metric")
	return cmd
}

func (c *cli) bestCmd() *cobra.Command {
	var kind, metric, stat string
	var partition []string
	var higher bool
	cmd := &cobra.Command{
		Use:   "best dir",
		Short: "Choose the best group in each partition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := parseKind(kind)
			if err != nil {
				return err
			}
			ds, err := c.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			spec := aggregate.Spec{Kind: k, Keys: c.cfg.GroupKeys(k), Metrics: []string{metric}}
			res := aggregate.Aggregate(spec, ds)
			better := aggregate.Lower
			if higher {
				better = aggregate.Higher
			}
			choices, err := aggregate.Best(res, partition, metric, aggregate.Stat(stat), better)
			if err != nil {
				return err
			}
			opts := c.cfg.Output.CSVOptions()
			for _, ch := range choices {
				part := "all"
				if len(ch.Partition) > 0 {
					part = strings.Join(ch.Partition, ",")
				}
				fmt.Fprintf(c.stdout, "%s: %s (%s %s = %s)\n",
					part, strings.Join(ch.Group.Key, ","), metric, stat, opts.Format(ch.Value))
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&kind, "kind", "", "record `kind` (required)")
	f.StringSliceVar(&partition, "partition", nil, "partition `keys`")
	f.StringVar(&metric, "metric", "", "`metric` to rank by (required)")
	f.StringVar(&stat, "stat", string(aggregate.Mean), "`statistic` to rank by")
	f.BoolVar(&higher, "higher", false, "higher values are better")
	cmd.MarkFlagRequired("kind")
	cmd.MarkFlagRequired("metric")
	return cmd
}
