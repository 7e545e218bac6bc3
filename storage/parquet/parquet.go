// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package parquet exports datasets as Parquet files for analysis in
// external tools.
package parquet

import (
	"fmt"
	"strings"

	"github.com/hcache/cachestat/record"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/writer"
)

// A Row is one metric of one record.
type Row struct {
	Kind  string `parquet:"name=kind, type=BYTE_ARRAY, convertedtype=UTF8"`
	Group string `parquet:"name=group, type=BYTE_ARRAY, convertedtype=UTF8"`
	File  string `parquet:"name=file, type=BYTE_ARRAY, convertedtype=UTF8"`
	Line  int32  `parquet:"name=line, type=INT32"`
	// TimeMs is the run date in milliseconds since the Unix epoch.
	TimeMs int64 `parquet:"name=time, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	// Params is the canonical k=v,... form of the record's
	// parameters, in sorted key order.
	Params string `parquet:"name=params, type=BYTE_ARRAY, convertedtype=UTF8"`
	// Defaults lists the parameters that took default values.
	Defaults string  `parquet:"name=defaults, type=BYTE_ARRAY, convertedtype=UTF8"`
	Metric   string  `parquet:"name=metric, type=BYTE_ARRAY, convertedtype=UTF8"`
	Value    float64 `parquet:"name=value, type=DOUBLE"`
}

// Rows flattens ds into rows, in record order and then metric name
// order.
func Rows(ds *record.Dataset) []Row {
	var rows []Row
	for _, r := range ds.Records() {
		var params []string
		for _, k := range r.Params.Keys() {
			params = append(params, k+"="+r.Params[k].Value)
		}
		base := Row{
			Kind:     r.Kind.String(),
			Group:    r.Group,
			File:     r.File,
			Line:     int32(r.Line),
			TimeMs:   r.Time.UnixMilli(),
			Params:   strings.Join(params, ","),
			Defaults: strings.Join(r.Params.Defaults(), ","),
		}
		for _, m := range r.Metrics.Keys() {
			row := base
			row.Metric, row.Value = m, r.Metrics[m]
			rows = append(rows, row)
		}
	}
	return rows
}

// Write writes ds to a new Parquet file at path and returns the
// number of rows written.
func Write(path string, ds *record.Dataset) (int, error) {
	file, err := local.NewLocalFileWriter(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create parquet file: %w", err)
	}
	pw, err := writer.NewParquetWriter(file, new(Row), 4)
	if err != nil {
		file.Close()
		return 0, fmt.Errorf("failed to create parquet writer: %w", err)
	}
	rows := Rows(ds)
	for _, row := range rows {
		if err := pw.Write(row); err != nil {
			file.Close()
			return 0, fmt.Errorf("failed to write row: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		file.Close()
		return 0, fmt.Errorf("failed to stop parquet writer: %w", err)
	}
	if err := file.Close(); err != nil {
		return 0, fmt.Errorf("failed to close parquet file: %w", err)
	}
	return len(rows), nil
}
