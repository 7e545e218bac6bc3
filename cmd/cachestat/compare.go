// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"io"

	"github.com/hcache/cachestat/aggregate"
	"github.com/hcache/cachestat/record"
	"github.com/spf13/cobra"
)

func (c *cli) compareCmd() *cobra.Command {
	var kind string
	var keys []string
	cmd := &cobra.Command{
		Use:   "compare old new",
		Short: "Compare two runs per kind",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			b, err := c.load(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			ks, err := kinds(a, kind)
			if err != nil {
				return err
			}
			for _, k := range ks {
				cmp := c.compare(k, keys, a, b)
				if len(cmp.Rows) == 0 {
					c.log.Warn("nothing to compare", "kind", k)
					continue
				}
				err := c.writeOutput(k.String()+"_compare.csv", func(w io.Writer) error {
					return aggregate.WriteComparisonCSV(w, cmp, c.cfg.Output.CSVOptions())
				})
				if err != nil {
					return err
				}
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&kind, "kind", "", "only compare records of `kind`")
	f.StringSliceVar(&keys, "keys", nil, "comparison `keys` (default from configuration)")
	return cmd
}

func (c *cli) compare(k record.Kind, keys []string, a, b *record.Dataset) *aggregate.Comparison {
	spec := aggregate.Spec{Kind: k, Keys: keys, Metrics: c.cfg.MetricNames(k)}
	if len(spec.Keys) == 0 {
		spec.Keys = c.cfg.CompareKeys(k)
	}
	return aggregate.CompareResults(aggregate.Aggregate(spec, a), aggregate.Aggregate(spec, b))
}
