// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dbtest opens the dataset stores used by storage tests.
package dbtest

import (
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"flag"
	"fmt"
	"testing"
	"time"

	_ "github.com/GoogleCloudPlatform/cloudsql-proxy/proxy/dialers/mysql"
	"github.com/hcache/cachestat/record"
	"github.com/hcache/cachestat/storage/db"
	_ "github.com/hcache/cachestat/storage/db/sqlite3"
)

var (
	cloud    = flag.Bool("cloud", false, "store test datasets in a Cloud SQL MySQL database instead of in-memory SQLite")
	cloudsql = flag.String("cloudsql", "golang-org:us-central1:golang-org", "Cloud SQL `instance` holding the test databases")
)

// cloudDSN creates a scratch MySQL database on the Cloud SQL instance
// and returns its DSN and a function that drops it.
func cloudDSN(t *testing.T) (dsn string, drop func()) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		t.Fatal(err)
	}
	name := "cachestat-datasets-" + base64.RawURLEncoding.EncodeToString(buf)
	server := fmt.Sprintf("root:@cloudsql(%s)/", *cloudsql)

	admin, err := sql.Open("mysql", server)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := admin.Exec("CREATE DATABASE `" + name + "`"); err != nil {
		admin.Close()
		t.Fatalf("creating dataset database: %v", err)
	}
	t.Logf("storing datasets in %q", name)

	return server + name, func() {
		if _, err := admin.Exec("DROP DATABASE `" + name + "`"); err != nil {
			t.Errorf("dropping dataset database: %v", err)
		}
		admin.Close()
	}
}

// NewDB returns an empty dataset store: in-memory sqlite3 by default,
// or a scratch Cloud SQL database with -cloud. Callers release it with
// cleanup rather than Close.
func NewDB(t *testing.T) (d *db.DB, cleanup func()) {
	driver, dsn := "sqlite3", ":memory:"
	drop := func() {}
	if *cloud {
		driver = "mysql"
		dsn, drop = cloudDSN(t)
	}
	d, err := db.OpenSQL(driver, dsn)
	if err != nil {
		drop()
		t.Fatalf("opening dataset store: %v", err)
	}
	cleanup = func() {
		drop()
		d.Close()
	}

	n, err := d.CountDatasets()
	if err != nil {
		cleanup()
		t.Fatal(err)
	}
	if n != 0 {
		cleanup()
		t.Fatalf("new dataset store holds %d datasets, want 0", n)
	}
	return d, cleanup
}

// Dataset returns a small dataset of benchmark and hit-ratio records
// for storage tests.
func Dataset() *record.Dataset {
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	recs := []*record.Record{
		{
			Kind:  record.Benchmark,
			Group: "BenchmarkGet",
			Params: record.Params{
				"policy":    record.Str("lru"),
				"procs":     record.Int(8),
				"test_type": record.Str("cache"),
			},
			Metrics: record.Metrics{"ns_per_op": 123.4, "bytes_per_op": 16, "allocs_per_op": 1},
			Time:    day,
			File:    "cache_20240315.txt",
			Line:    3,
		},
		{
			Kind:  record.Benchmark,
			Group: "BenchmarkGet",
			Params: record.Params{
				"policy":    record.Str("lfu"),
				"procs":     record.Int(1).AsDefault(),
				"test_type": record.Str("cache"),
			},
			Metrics: record.Metrics{"ns_per_op": 150, "bytes_per_op": 0, "allocs_per_op": 0},
			Time:    day,
			File:    "cache_20240315.txt",
			Line:    4,
		},
		{
			Kind:  record.HitRatio,
			Group: "ZipfLow",
			Params: record.Params{
				"distribution": record.Str("zipf-1.07"),
				"policy":       record.Str("lru"),
				"cache_size":   record.Int(5000),
				"test_name":    record.Str("ZipfLow"),
			},
			Metrics: record.Metrics{"hit_ratio": 80, "duration_ms": 123.4},
			Time:    record.Epoch,
			File:    "hitratio.log",
			Line:    3,
		},
	}
	return record.NewDataset("results", recs, record.LoadStats{Files: 2, Parsed: 2, Partial: 1})
}
