// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package profile

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/pprof/profile"
	"github.com/hcache/cachestat/record"
)

const cpuTop = `File: cache.test
Type: cpu
Time: Mar 15, 2024 at 10:00am (UTC)
Duration: 2.01s, Total samples = 1.90s (94.53%)
Showing nodes accounting for 1.80s, 94.74% of 1.90s total
Dropped 20 nodes (cum <= 0.01s)
      flat  flat%   sum%        cum   cum%
     0.50s 26.32% 26.32%      0.50s 26.32%  runtime.mapaccess2
     300ms 15.79% 42.11%      1.20s 63.16%  github.com/hcache/cache.(*LRU).Get
         0     0% 42.11%      1.80s 94.74%  testing.(*B).runN
     0.10s  5.26% 47.37%
     bogus  5.26% 52.63%      0.10s  5.26%  main.bad
`

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestParseTable(t *testing.T) {
	b, err := ParseTable(strings.NewReader(cpuTop), "bench.top")
	if err != nil {
		t.Fatal(err)
	}
	var groups []string
	for _, r := range b.Records {
		groups = append(groups, r.Group)
	}
	want := []string{"runtime.mapaccess2", "github.com/hcache/cache.(*LRU).Get", "testing.(*B).runN"}
	if diff := cmp.Diff(want, groups); diff != "" {
		t.Errorf("functions mismatch (-want +got):\n%s", diff)
	}
	if len(b.Partial) != 1 || b.Partial[0].Line != 12 {
		t.Errorf("got partial errors %v, want one on line 12", b.Partial)
	}

	r := b.Records[1]
	for name, want := range map[string]float64{
		"flat_value": 300,
		"flat_pct":   15.79,
		"sum_pct":    42.11,
		"cum_value":  1200,
		"cum_pct":    63.16,
		"rank":       2,
	} {
		if got := r.Metrics[name]; !near(got, want) {
			t.Errorf("%s = %v, want %v", name, got, want)
		}
	}
	if got := r.Params["profile_type"]; got.Value != "cpu" || got.IsDefault() {
		t.Errorf("profile_type = %+v, want resolved cpu", got)
	}
	for _, r := range b.Records {
		if got := r.Params["unit"].Value; got != "ms" {
			t.Errorf("%s: unit = %q, want ms", r.Group, got)
		}
	}
}

func TestParseTableFileNameType(t *testing.T) {
	b, err := ParseTable(strings.NewReader(cpuTop), "cache_20240315_100000_heap.top")
	if err != nil {
		t.Fatal(err)
	}
	r := b.Records[0]
	if got := r.Params["profile_type"].Value; got != "heap" {
		t.Errorf("profile_type = %q, want heap from file name", got)
	}
	if want := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC); !r.Time.Equal(want) {
		t.Errorf("Time = %v, want %v", r.Time, want)
	}
}

func TestParseTableNoHeader(t *testing.T) {
	b, err := ParseTable(strings.NewReader("no profile here\n1 2 3 4 5 6\n"), "x.top")
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Records) != 0 || len(b.Partial) != 0 {
		t.Errorf("got %d records, %d errors, want none", len(b.Records), len(b.Partial))
	}
}

func TestParseValue(t *testing.T) {
	for _, test := range []struct {
		in   string
		v    float64
		unit string
	}{
		{"1.50s", 1500, "ms"},
		{"300ms", 300, "ms"},
		{"20us", 0.02, "ms"},
		{"2mins", 120000, "ms"},
		{"512kB", 512 * 1024, "bytes"},
		{"1.50MB", 1.5 * 1024 * 1024, "bytes"},
		{"64B", 64, "bytes"},
		{"42", 42, "count"},
	} {
		v, unit, err := ParseValue(test.in)
		if err != nil || !near(v, test.v) || unit != test.unit {
			t.Errorf("ParseValue(%q) = %v, %q, %v, want %v, %q", test.in, v, unit, err, test.v, test.unit)
		}
	}
	if _, _, err := ParseValue("fast"); err == nil {
		t.Errorf("ParseValue(fast) succeeded")
	}
}

// testProfile returns a CPU profile in which main.a, called from
// main.b, spends 30ms and main.b itself spends 10ms.
func testProfile() *profile.Profile {
	fa := &profile.Function{ID: 1, Name: "main.a"}
	fb := &profile.Function{ID: 2, Name: "main.b"}
	la := &profile.Location{ID: 1, Line: []profile.Line{{Function: fa}}}
	lb := &profile.Location{ID: 2, Line: []profile.Line{{Function: fb}}}
	return &profile.Profile{
		SampleType: []*profile.ValueType{
			{Type: "samples", Unit: "count"},
			{Type: "cpu", Unit: "nanoseconds"},
		},
		PeriodType: &profile.ValueType{Type: "cpu", Unit: "nanoseconds"},
		Period:     10000000,
		Sample: []*profile.Sample{
			{Location: []*profile.Location{la, lb}, Value: []int64{3, 30000000}},
			{Location: []*profile.Location{lb}, Value: []int64{1, 10000000}},
		},
		Location: []*profile.Location{la, lb},
		Function: []*profile.Function{fa, fb},
	}
}

func encode(t *testing.T, p *profile.Profile) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := p.Write(&buf); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestNative(t *testing.T) {
	b, err := Native(bytes.NewReader(encode(t, testProfile())), "cache_cpu.pprof", 10)
	if err != nil {
		t.Fatal(err)
	}
	type row struct {
		Function                           string
		Flat, FlatPct, SumPct, Cum, CumPct float64
	}
	var got []row
	for _, r := range b.Records {
		m := r.Metrics
		got = append(got, row{r.Group, m["flat_value"], m["flat_pct"], m["sum_pct"], m["cum_value"], m["cum_pct"]})
	}
	want := []row{
		{"main.a", 30, 75, 75, 30, 75},
		{"main.b", 10, 25, 100, 40, 100},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("top table mismatch (-want +got):\n%s", diff)
	}

	b, err = Native(bytes.NewReader(encode(t, testProfile())), "cache_cpu.pprof", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Records) != 1 {
		t.Errorf("nodecount 1: got %d records", len(b.Records))
	}
}

func TestNativeCorrupt(t *testing.T) {
	_, err := Native(strings.NewReader("not a profile"), "x.pprof", 10)
	var fre *record.FileReadError
	if !errors.As(err, &fre) {
		t.Errorf("got %v, want *record.FileReadError", err)
	}
}

// fakeGo writes a shell script standing in for the go command.
func fakeGo(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "go")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestToolUnavailable(t *testing.T) {
	for _, test := range []struct {
		name string
		tool Tool
	}{
		{"missing", Tool{Go: filepath.Join(t.TempDir(), "no-such-go")}},
		{"failing", Tool{Go: fakeGo(t, "echo broken >&2\nexit 2\n")}},
		{"slow", Tool{Go: fakeGo(t, "exec sleep 10\n"), Timeout: 50 * time.Millisecond}},
	} {
		t.Run(test.name, func(t *testing.T) {
			_, err := test.tool.Top(context.Background(), "x.pprof")
			var tue *record.ToolUnavailableError
			if !errors.As(err, &tue) {
				t.Fatalf("got %v, want *record.ToolUnavailableError", err)
			}
		})
	}
}

func TestAnalyzer(t *testing.T) {
	data := encode(t, testProfile())

	// The fake tool checks its arguments and prints a fixed table.
	tool := Tool{Go: fakeGo(t, `[ "$1 $2 $3 $4 $5" = "tool pprof -top -nodecount 5" ] || exit 1
cat <<'TABLE'
      flat  flat%   sum%        cum   cum%
      10ms 100.00% 100.00%      10ms 100.00%  main.fake
TABLE
`), NodeCount: 5}
	a := &Analyzer{Mode: ModeTool, Tool: tool}
	b, err := a.Analyze(context.Background(), bytes.NewReader(data), "cache_cpu.pprof")
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Records) != 1 || b.Records[0].Group != "main.fake" {
		t.Errorf("tool mode: got %v", b.Records)
	}

	failures := 0
	broken := Tool{Go: fakeGo(t, "exit 1\n")}
	a = &Analyzer{Mode: ModeTool, Tool: broken, ToolFailed: func(*record.ToolUnavailableError) { failures++ }}
	if _, err := a.Analyze(context.Background(), bytes.NewReader(data), "cache_cpu.pprof"); err == nil {
		t.Errorf("tool mode with broken tool succeeded")
	}

	a.Mode = ModeAuto
	b, err = a.Analyze(context.Background(), bytes.NewReader(data), "cache_cpu.pprof")
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Records) != 2 || b.Records[0].Group != "main.a" {
		t.Errorf("auto mode fallback: got %v", b.Records)
	}
	if failures != 2 {
		t.Errorf("ToolFailed called %d times, want 2", failures)
	}
}
