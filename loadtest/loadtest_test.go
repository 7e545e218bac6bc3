// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package loadtest

import (
	"math"
	"strings"
	"testing"

	"github.com/hcache/cachestat/record"
)

const report = `{
  "latencies": {"total": 3000000000, "mean": 1500000, "50th": 1000000, "90th": 2000000,
                "95th": 2500000, "99th": 4000000, "max": 9000000, "min": 500000},
  "bytes_in": {"total": 2048, "mean": 1},
  "bytes_out": {"total": 0, "mean": 0},
  "duration": 30000000000,
  "wait": 250000,
  "requests": 3000,
  "rate": 100.5,
  "throughput": 99.8,
  "success": 0.95,
  "status_codes": {"200": 2850, "500": 150},
  "errors": ["500 Internal Server Error"]
}`

func parse(t *testing.T, data, name string) *record.Batch {
	t.Helper()
	b, err := Parse(strings.NewReader(data), name)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return b
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSingleObject(t *testing.T) {
	b := parse(t, report, "results/cache-lru_c50_r100_d30s_20240315.json")
	if len(b.Records) != 1 || len(b.Partial) != 0 {
		t.Fatalf("got %d records, %d errors, want 1, 0", len(b.Records), len(b.Partial))
	}
	r := b.Records[0]
	for name, want := range map[string]float64{
		"latency_mean": 1.5,
		"latency_p50":  1,
		"latency_p90":  2,
		"latency_p95":  2.5,
		"latency_p99":  4,
		"latency_max":  9,
		"latency_min":  0.5,
		"duration":     30,
		"wait_ms":      0.25,
		"requests":     3000,
		"rate":         100.5,
		"throughput":   99.8,
		"success_rate": 5,
		"errors":       1,
		"bytes_in":     2048,
		"status_200":   2850,
		"status_500":   150,
	} {
		if got := r.Metrics[name]; !near(got, want) {
			t.Errorf("%s = %v, want %v", name, got, want)
		}
	}
	if r.Group != "lru" {
		t.Errorf("Group = %q, want lru", r.Group)
	}
	for name, want := range map[string]string{
		"concurrency":     "50",
		"target_rate":     "100",
		"target_duration": "30",
		"cache_config":    "lru",
		"test_date":       "20240315",
	} {
		if got := r.Params[name]; got.Value != want || got.IsDefault() {
			t.Errorf("%s = %+v, want resolved %q", name, got, want)
		}
	}
}

func TestSuccessRateTransform(t *testing.T) {
	b := parse(t, `{"requests": 100, "success": 0.95}`, "x.json")
	if got := b.Records[0].Metrics["success_rate"]; !near(got, 5.0) {
		t.Errorf("success_rate = %v, want 5.0", got)
	}
}

func TestParamFallback(t *testing.T) {
	b := parse(t, `{"requests": 15000, "rate": 250, "duration": 60000000000}`, "baseline.json")
	r := b.Records[0]
	for _, test := range []struct {
		name     string
		want     string
		fallback bool
	}{
		{"target_rate", "250", false},
		{"target_duration", "60", false},
		{"concurrency", "1", true},
		{"cache_config", "default", true},
		{"test_date", "00000000", true},
	} {
		got := r.Params[test.name]
		if got.Value != test.want || got.IsDefault() != test.fallback {
			t.Errorf("%s = %+v, want %q (default=%v)", test.name, got, test.want, test.fallback)
		}
	}
	if r.Group != "default" {
		t.Errorf("Group = %q, want default", r.Group)
	}

	b = parse(t, `{"requests": 1}`, "baseline.json")
	if got := b.Records[0].Params["target_rate"]; got.Value != "0" || !got.IsDefault() {
		t.Errorf("target_rate = %+v, want default 0", got)
	}
}

func TestEncodings(t *testing.T) {
	for _, test := range []struct {
		name    string
		data    string
		records int
		partial []int
	}{
		{"array", `[{"requests": 1, "success": 1}, {"requests": 2, "success": 0.5}]`, 2, nil},
		{"ndjson", "{\"requests\": 1}\n{\"requests\": 2}\n\n{\"requests\": 3}\n", 3, nil},
		{"ndjson with garbage", "{\"requests\": 1}\n{\"success\": \n{\"requests\": 3}\n", 2, []int{2}},
		{"ndjson with empty object", "{\"requests\": 1}\n{}\n", 1, []int{2}},
		{"array with null", `[{"requests": 1}, null]`, 1, []int{1}},
		{"array with empty object", `[{"requests": 1}, {"success": 0}]`, 1, []int{1}},
		{"null", "null", 0, nil},
		{"empty object", "{}", 0, nil},
		{"no measurements", `{"success": 1, "status_codes": {}}`, 0, nil},
		{"negative latency", `{"latencies": {"mean": -5}}`, 0, []int{1}},
		{"garbage", "not json at all", 0, []int{1}},
		{"empty", "", 0, nil},
	} {
		t.Run(test.name, func(t *testing.T) {
			b := parse(t, test.data, "x.json")
			if len(b.Records) != test.records {
				t.Errorf("got %d records, want %d", len(b.Records), test.records)
			}
			var lines []int
			for _, e := range b.Partial {
				lines = append(lines, e.Line)
			}
			if len(lines) != len(test.partial) {
				t.Fatalf("got partial errors on lines %v, want %v", lines, test.partial)
			}
			for i := range lines {
				if lines[i] != test.partial[i] {
					t.Errorf("got partial errors on lines %v, want %v", lines, test.partial)
				}
			}
		})
	}
}

func TestErrorCount(t *testing.T) {
	for _, test := range []struct {
		data string
		want float64
	}{
		{`{"requests": 1, "errors": 7}`, 7},
		{`{"requests": 1, "errors": ["a", "b"]}`, 2},
		{`{"requests": 1, "errors": null}`, 0},
		{`{"requests": 1}`, 0},
	} {
		b := parse(t, test.data, "x.json")
		if got := b.Records[0].Metrics["errors"]; got != test.want {
			t.Errorf("%s: errors = %v, want %v", test.data, got, test.want)
		}
	}
}
