// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package loadtest parses load-generator result reports, as written by
// "vegeta report -type=json", into normalized records.
//
// A file may hold a single JSON object, a JSON array of objects, or
// newline-delimited JSON objects. Latencies are reported by the load
// generator in nanoseconds and are normalized to milliseconds; the
// total duration is normalized to seconds.
package loadtest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/hcache/cachestat/metadata"
	"github.com/hcache/cachestat/record"
)

// A Report is one load-generator result object.
type Report struct {
	Latencies struct {
		Total float64 `json:"total"`
		Mean  float64 `json:"mean"`
		P50   float64 `json:"50th"`
		P90   float64 `json:"90th"`
		P95   float64 `json:"95th"`
		P99   float64 `json:"99th"`
		Max   float64 `json:"max"`
		Min   float64 `json:"min"`
	} `json:"latencies"`
	BytesIn struct {
		Total float64 `json:"total"`
		Mean  float64 `json:"mean"`
	} `json:"bytes_in"`
	BytesOut struct {
		Total float64 `json:"total"`
		Mean  float64 `json:"mean"`
	} `json:"bytes_out"`

	Duration    *float64       `json:"duration"`
	Wait        float64        `json:"wait"`
	Requests    float64        `json:"requests"`
	Rate        *float64       `json:"rate"`
	Throughput  float64        `json:"throughput"`
	Success     float64        `json:"success"`
	StatusCodes map[string]int `json:"status_codes"`

	// Errors is either a count or the list of distinct error
	// messages.
	Errors json.RawMessage `json:"errors"`
}

const (
	nsPerMs = 1e6
	nsPerS  = 1e9
)

// ErrorCount returns the number of errors reported by r.
func (r *Report) ErrorCount() float64 {
	if len(r.Errors) == 0 {
		return 0
	}
	var n float64
	if err := json.Unmarshal(r.Errors, &n); err == nil {
		return n
	}
	var list []json.RawMessage
	if err := json.Unmarshal(r.Errors, &list); err == nil {
		return float64(len(list))
	}
	return 0
}

// Metrics returns the normalized metrics of r.
//
// success_rate is computed as 100 * (1 - success), which is the
// failure percentage. The name and transform are kept for
// compatibility with existing reports.
func (r *Report) Metrics() record.Metrics {
	m := record.Metrics{
		"latency_mean": r.Latencies.Mean / nsPerMs,
		"latency_p50":  r.Latencies.P50 / nsPerMs,
		"latency_p90":  r.Latencies.P90 / nsPerMs,
		"latency_p95":  r.Latencies.P95 / nsPerMs,
		"latency_p99":  r.Latencies.P99 / nsPerMs,
		"latency_max":  r.Latencies.Max / nsPerMs,
		"latency_min":  r.Latencies.Min / nsPerMs,
		"throughput":   r.Throughput,
		"success_rate": 100 * (1 - r.Success),
		"requests":     r.Requests,
		"duration":     0,
		"errors":       r.ErrorCount(),
		"rate":         0,
		"wait_ms":      r.Wait / nsPerMs,
		"bytes_in":     r.BytesIn.Total,
		"bytes_out":    r.BytesOut.Total,
	}
	if r.Duration != nil {
		m["duration"] = *r.Duration / nsPerS
	}
	if r.Rate != nil {
		m["rate"] = *r.Rate
	}
	for code, n := range r.StatusCodes {
		m["status_"+code] = float64(n)
	}
	return m
}

// Defaults for parameters that neither the file name nor the report
// provide.
var (
	DefaultConcurrency = record.Int(1).AsDefault()
	DefaultCacheConfig = record.Str("default").AsDefault()
	DefaultTargetRate  = record.Int(0).AsDefault()
	DefaultDuration    = record.Int(0).AsDefault()
	DefaultTestDate    = record.Str(metadata.NoDate).AsDefault()
)

// Params resolves the test parameters of a report read from a file
// with name metadata meta. Parameters encoded in the file name take
// precedence, then fields of the report, then defaults.
func (r *Report) Params(meta metadata.File) record.Params {
	p := record.Params{}
	for k, v := range meta.Params {
		p[k] = v
	}
	for _, name := range meta.Missing {
		switch name {
		case "concurrency":
			p[name] = DefaultConcurrency
		case "target_rate":
			p[name] = DefaultTargetRate
			if r.Rate != nil {
				p[name] = record.Float(*r.Rate)
			}
		case "target_duration":
			p[name] = DefaultDuration
			if r.Duration != nil {
				p[name] = record.Float(*r.Duration / nsPerS)
			}
		case "cache_config":
			p[name] = DefaultCacheConfig
		case "test_date":
			p[name] = DefaultTestDate
		}
	}
	return p
}

// Parse reads the load-test reports in r. Objects that cannot be
// decoded are collected in the batch's Partial list.
func Parse(r io.Reader, fileName string) (*record.Batch, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &record.FileReadError{File: fileName, Err: err}
	}
	b := &record.Batch{File: fileName, Kind: record.LoadTest}
	meta := metadata.LoadTest(fileName)

	add := func(rep *Report, line int) {
		if rep.empty() {
			b.Partial = append(b.Partial, &record.PartialParseError{File: fileName, Line: line, Msg: "report has no requests or latencies"})
			return
		}
		rec := &record.Record{
			Kind:    record.LoadTest,
			Params:  rep.Params(meta),
			Metrics: rep.Metrics(),
			Time:    meta.Time,
			File:    fileName,
			Line:    line,
		}
		rec.Group = rec.Params.Value("cache_config")
		if err := rec.Validate(); err != nil {
			b.Partial = append(b.Partial, &record.PartialParseError{File: fileName, Line: line, Msg: err.Error()})
			return
		}
		b.Records = append(b.Records, rec)
	}

	reports, err := decodeDocument(data)
	if err == nil {
		for i, rep := range reports {
			if rep == nil {
				b.Partial = append(b.Partial, &record.PartialParseError{File: fileName, Line: 1, Msg: fmt.Sprintf("report %d is null", i)})
				continue
			}
			add(rep, 1)
		}
		return b, nil
	}

	// Not a single JSON document. Try one object per line.
	s := bufio.NewScanner(bytes.NewReader(data))
	s.Buffer(nil, 16<<20)
	line := 0
	for s.Scan() {
		line++
		text := bytes.TrimSpace(s.Bytes())
		if len(text) == 0 {
			continue
		}
		rep := new(Report)
		if err := json.Unmarshal(text, rep); err != nil {
			b.Partial = append(b.Partial, &record.PartialParseError{File: fileName, Line: line, Msg: "decoding report: " + err.Error()})
			continue
		}
		add(rep, line)
	}
	if err := s.Err(); err != nil {
		return nil, &record.FileReadError{File: fileName, Err: fmt.Errorf("line %d: %w", line, err)}
	}
	return b, nil
}

// empty reports whether r holds no measurement at all, as decoded from
// null or {}.
func (r *Report) empty() bool {
	return r.Requests == 0 && r.Latencies.Total == 0 && r.Latencies.Mean == 0 && r.Latencies.Max == 0
}

// decodeDocument decodes data as a single JSON object or an array of
// objects. A single object without measurements yields no reports, so
// the file is treated as not being a load-test report.
func decodeDocument(data []byte) ([]*Report, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty document")
	}
	if data[0] == '[' {
		var reports []*Report
		if err := json.Unmarshal(data, &reports); err != nil {
			return nil, err
		}
		return reports, nil
	}
	rep := new(Report)
	if err := json.Unmarshal(data, rep); err != nil {
		return nil, err
	}
	if rep.empty() {
		return nil, nil
	}
	return []*Report{rep}, nil
}
