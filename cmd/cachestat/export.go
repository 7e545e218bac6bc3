// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/hcache/cachestat/aggregate"
	"github.com/hcache/cachestat/storage/db"
	"github.com/hcache/cachestat/storage/influx"
	"github.com/hcache/cachestat/storage/parquet"
	"github.com/spf13/cobra"
)

func (c *cli) exportCmd() *cobra.Command {
	var toDB, toInflux bool
	var parquetPath string
	cmd := &cobra.Command{
		Use:   "export dir",
		Short: "Store a dataset in SQL, Parquet or InfluxDB",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if parquetPath == "" {
				parquetPath = c.cfg.Parquet.Path
			}
			if !toDB && !toInflux && parquetPath == "" {
				return errors.New("export: no destination; use --db, --influx or --parquet")
			}
			ds, err := c.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if toDB {
				if c.cfg.DB.Driver == "" {
					return errors.New("export: no database configured")
				}
				d, err := db.OpenSQL(c.cfg.DB.Driver, c.cfg.DB.DSN)
				if err != nil {
					return fmt.Errorf("open database: %w", err)
				}
				defer d.Close()
				u, err := d.InsertDataset(ctx, ds)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.stdout, "dataset %s\n", u.ID)
			}

			if parquetPath != "" {
				n, err := parquet.Write(parquetPath, ds)
				if err != nil {
					return err
				}
				c.log.Info("wrote parquet", "file", parquetPath, "rows", n)
			}

			if toInflux {
				ic := c.cfg.Influx
				w, err := influx.NewWriter(influx.Options{
					URL:         ic.URL,
					Token:       ic.Token,
					Org:         ic.Org,
					Bucket:      ic.Bucket,
					Measurement: ic.Measurement,
				})
				if err != nil {
					return err
				}
				defer w.Close()
				if err := w.WriteDataset(ctx, ds); err != nil {
					return err
				}
				ks, _ := kinds(ds, "")
				now := time.Now()
				for _, k := range ks {
					spec := aggregate.Spec{Kind: k, Keys: c.cfg.GroupKeys(k), Metrics: c.cfg.MetricNames(k)}
					if err := w.WriteResult(ctx, aggregate.Aggregate(spec, ds), now); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.BoolVar(&toDB, "db", false, "insert the dataset into the configured database")
	f.BoolVar(&toInflux, "influx", false, "write records and summaries to the configured InfluxDB bucket")
	f.StringVar(&parquetPath, "parquet", "", "write records to the Parquet `file`")
	return cmd
}
