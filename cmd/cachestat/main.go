// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Cachestat normalizes the artifacts of cache performance tests and
// computes statistics over them.
//
// Usage:
//
//	cachestat [--config file] [-v] [-r] [-o dir] command [args...]
//
// An artifact directory may hold Go benchmark output (*.txt),
// load-test reports (*.json), hit-ratio test logs (hitratio*.log) and
// CPU or memory profiles (*.pprof, *_top.txt), in any mix. With a
// configured object-store source, directories name prefixes in the
// bucket instead. Only the files directly in a directory are read
// unless -r is given. With aggregate --by-lib, each subdirectory holds
// the results of one cache library and records are grouped by library
// first.
//
// The commands are:
//
//	aggregate dir            per-kind summary statistics, one CSV per kind
//	compare old new          per-kind deltas between two runs
//	pivot dir                one statistic as a rows x columns table
//	best dir                 the best group per partition
//	export dir               store a dataset in SQL, Parquet or InfluxDB
//	upload file...           upload artifacts to a results server
//	serve                    run a results server
//
// Output files are written to the output directory ("out" by default);
// -o - writes them to standard output instead. After loading a
// directory cachestat prints how many files were skipped and how many
// entries were malformed. It exits with status 1 if a directory holds
// no usable records.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	_ "github.com/GoogleCloudPlatform/cloudsql-proxy/proxy/dialers/mysql"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/hcache/cachestat/storage/db/sqlite3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	cmd := newRootCmd(os.Stdout, os.Stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "cachestat: %v\n", err)
		os.Exit(1)
	}
}
