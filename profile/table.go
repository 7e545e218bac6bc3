// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package profile turns CPU and memory profiles into normalized
// records, one per function in the profile's top table.
//
// A top table is the output of "go tool pprof -top":
//
//	Type: cpu
//	Showing nodes accounting for 1.80s, 94.74% of 1.90s total
//	      flat  flat%   sum%        cum   cum%
//	     0.50s 26.32% 26.32%      0.50s 26.32%  runtime.mapaccess2
//
// Tables can be read directly from saved text files with ParseTable,
// produced from binary profiles by running the pprof tool (Tool), or
// rendered in-process from binary profiles (Native).
package profile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hcache/cachestat/metadata"
	"github.com/hcache/cachestat/record"
)

// columnMetrics maps top table header tokens to metric names.
var columnMetrics = map[string]string{
	"flat":  "flat_value",
	"flat%": "flat_pct",
	"sum%":  "sum_pct",
	"cum":   "cum_value",
	"cum%":  "cum_pct",
}

// parseHeader returns the metric names of the columns of a top table
// header line, or nil if line is not a header.
func parseHeader(line string) []string {
	if !strings.Contains(line, "flat") || !strings.Contains(line, "cum") || !strings.Contains(line, "%") {
		return nil
	}
	var cols []string
	for _, tok := range strings.Fields(line) {
		m, ok := columnMetrics[tok]
		if !ok {
			return nil
		}
		cols = append(cols, m)
	}
	return cols
}

// ParseValue parses a top table value such as "1.50s", "512kB" or
// "42". Times are returned in milliseconds with unit "ms", sizes in
// bytes with unit "bytes", and plain numbers with unit "count".
func ParseValue(s string) (v float64, unit string, err error) {
	for _, u := range valueUnits {
		if !strings.HasSuffix(s, u.suffix) {
			continue
		}
		v, err = strconv.ParseFloat(strings.TrimSuffix(s, u.suffix), 64)
		if err != nil {
			return 0, "", fmt.Errorf("invalid value %q", s)
		}
		return v * u.scale, u.unit, nil
	}
	v, err = strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, "", fmt.Errorf("invalid value %q", s)
	}
	return v, "count", nil
}

// valueUnits is ordered so that no suffix is tried before a longer
// suffix that ends with it.
var valueUnits = []struct {
	suffix string
	scale  float64
	unit   string
}{
	{"mins", 60e3, "ms"},
	{"hrs", 3600e3, "ms"},
	{"ns", 1e-6, "ms"},
	{"us", 1e-3, "ms"},
	{"µs", 1e-3, "ms"},
	{"ms", 1, "ms"},
	{"s", 1e3, "ms"},
	{"kB", 1 << 10, "bytes"},
	{"MB", 1 << 20, "bytes"},
	{"GB", 1 << 30, "bytes"},
	{"TB", 1 << 40, "bytes"},
	{"B", 1, "bytes"},
}

func parsePercent(s string) (float64, error) {
	if !strings.HasSuffix(s, "%") {
		return 0, fmt.Errorf("invalid percentage %q", s)
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid percentage %q", s)
	}
	return v, nil
}

// ParseTable reads the top table in r. The profile type, test name
// and date are inferred from fileName; a "Type:" line preceding the
// table supplies the profile type if the name does not.
//
// A table without a header line yields an empty batch. Rows that
// cannot be parsed are collected in the batch's Partial list.
func ParseTable(r io.Reader, fileName string) (*record.Batch, error) {
	meta := metadata.Profile(fileName)
	b := &record.Batch{File: fileName, Kind: record.Profile}
	params := record.Params{}
	for k, v := range meta.Params {
		params[k] = v
	}

	s := bufio.NewScanner(r)
	s.Buffer(nil, 1<<20)
	var cols []string
	line := 0
	for s.Scan() {
		line++
		text := strings.TrimSpace(s.Text())
		if text == "" {
			continue
		}
		if cols == nil {
			if typ, ok := strings.CutPrefix(text, "Type:"); ok && params["profile_type"].IsDefault() {
				params["profile_type"] = record.Str(strings.TrimSpace(typ))
			}
			cols = parseHeader(text)
			continue
		}
		fields := strings.Fields(text)
		if len(fields) < len(cols)+1 || len(fields) < 5 {
			continue
		}
		rec, err := parseRow(cols, fields)
		if err != nil {
			b.Partial = append(b.Partial, &record.PartialParseError{File: fileName, Line: line, Msg: err.Error()})
			continue
		}
		p := make(record.Params, len(params)+1)
		for k, v := range params {
			p[k] = v
		}
		p["unit"] = record.Str(rec.unit)
		rec.metrics["rank"] = float64(len(b.Records) + 1)
		b.Records = append(b.Records, &record.Record{
			Kind:    record.Profile,
			Group:   rec.function,
			Params:  p,
			Metrics: rec.metrics,
			Time:    meta.Time,
			File:    fileName,
			Line:    line,
		})
	}
	if err := s.Err(); err != nil {
		return nil, &record.FileReadError{File: fileName, Err: fmt.Errorf("line %d: %w", line, err)}
	}
	return b, nil
}

type row struct {
	function string
	unit     string
	metrics  record.Metrics
}

func parseRow(cols, fields []string) (*row, error) {
	r := &row{
		function: strings.Join(fields[len(cols):], " "),
		metrics:  record.Metrics{},
	}
	for i, col := range cols {
		tok := fields[i]
		var v float64
		var err error
		if strings.HasSuffix(col, "_pct") {
			v, err = parsePercent(tok)
		} else {
			var unit string
			v, unit, err = ParseValue(tok)
			if r.unit == "" || r.unit == "count" {
				// pprof prints zero values without a unit.
				r.unit = unit
			}
		}
		if err != nil {
			return nil, fmt.Errorf("column %d: %v", i+1, err)
		}
		r.metrics[col] = v
	}
	return r, nil
}
