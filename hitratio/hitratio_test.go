// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hitratio

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/hcache/cachestat/record"
)

const zhLog = `=== RUN   TestZipfLow
=== RUN   TestZipfLow/Size5000_LRU
    zipf_test.go:61: 测试结果:
    zipf_test.go:62: 总操作数: 1000000
    zipf_test.go:63: 总访问次数: 1000000
    zipf_test.go:64: 命中数: 800000
    zipf_test.go:65: 未命中数: 200000
    zipf_test.go:66: 命中率: 80.00%
    zipf_test.go:67: 淘汰数: 195000
    zipf_test.go:68: 淘汰比率: 19.50%
    zipf_test.go:69: 持续时间: 123.4ms
=== RUN   TestZipfLow/Size5000_LFU
    zipf_test.go:61: 测试结果:
    zipf_test.go:62: 总操作数: 1000000
    zipf_test.go:64: 命中数: 850000
    zipf_test.go:65: 未命中数: 150000
    zipf_test.go:66: 命中率: 85.00%
    zipf_test.go:67: 淘汰数: 145000
    zipf_test.go:68: 淘汰比率: 14.50%
    zipf_test.go:69: 持续时间: 1.5s
--- PASS: TestZipfLow (0.25s)
PASS
`

const enLog = `=== RUN   TestUniformLarge_FIFO
    uniform_test.go:40: Test results:
    uniform_test.go:41: Total operations: 500
    uniform_test.go:42: Hits: 100
    uniform_test.go:43: Misses: 400
    uniform_test.go:44: Hit ratio: 20.00%
    uniform_test.go:45: Evictions: 300
    uniform_test.go:46: Eviction ratio: 60.00%
    uniform_test.go:47: Duration: 500µs
`

func parse(t *testing.T, data, name string) *record.Batch {
	t.Helper()
	b, err := Parse(strings.NewReader(data), name)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return b
}

func paramValues(p record.Params) map[string]string {
	m := map[string]string{}
	for k, v := range p {
		m[k] = v.Value
	}
	return m
}

func TestParseChinese(t *testing.T) {
	b := parse(t, zhLog, "logs/hitratio_20240315.log")
	if len(b.Records) != 2 || len(b.Partial) != 0 {
		t.Fatalf("got %d records, %v, want 2 records", len(b.Records), b.Partial)
	}
	r := b.Records[0]
	wantParams := map[string]string{
		"distribution": "zipf-1.07",
		"policy":       "lru",
		"cache_size":   "5000",
		"test_name":    "ZipfLow",
	}
	if diff := cmp.Diff(wantParams, paramValues(r.Params)); diff != "" {
		t.Errorf("params mismatch (-want +got):\n%s", diff)
	}
	wantMetrics := record.Metrics{
		"total_operations": 1000000,
		"hits":             800000,
		"misses":           200000,
		"hit_ratio":        80,
		"evictions":        195000,
		"eviction_ratio":   19.5,
		"duration_ms":      123.4,
	}
	if diff := cmp.Diff(wantMetrics, r.Metrics); diff != "" {
		t.Errorf("metrics mismatch (-want +got):\n%s", diff)
	}
	if r.Group != "ZipfLow" || r.Line != 3 {
		t.Errorf("got group %q line %d, want ZipfLow line 3", r.Group, r.Line)
	}
	if want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC); !r.Time.Equal(want) {
		t.Errorf("Time = %v, want %v", r.Time, want)
	}

	r = b.Records[1]
	if got := r.Params["policy"].Value; got != "lfu" {
		t.Errorf("second block policy = %q, want lfu", got)
	}
	if got := r.Metrics["duration_ms"]; got != 1500 {
		t.Errorf("second block duration_ms = %v, want 1500", got)
	}
}

func TestParseEnglish(t *testing.T) {
	b := parse(t, enLog, "hitratio.txt")
	if len(b.Records) != 1 {
		t.Fatalf("got %d records, %v, want 1", len(b.Records), b.Partial)
	}
	r := b.Records[0]
	wantParams := map[string]string{
		"distribution": "uniform",
		"policy":       "fifo",
		"cache_size":   "100000",
		"test_name":    "UniformLarge_FIFO",
	}
	if diff := cmp.Diff(wantParams, paramValues(r.Params)); diff != "" {
		t.Errorf("params mismatch (-want +got):\n%s", diff)
	}
	if r.Params["cache_size"].IsDefault() {
		t.Errorf("cache_size from size class tagged as default")
	}
	if got := r.Metrics["duration_ms"]; got != 0.5 {
		t.Errorf("duration_ms = %v, want 0.5", got)
	}
	if !r.Time.Equal(record.Epoch) {
		t.Errorf("Time = %v, want epoch", r.Time)
	}
}

func TestNoContext(t *testing.T) {
	input := enLog[strings.Index(enLog, "\n")+1:]
	b := parse(t, input, "hitratio.txt")
	if len(b.Records) != 1 {
		t.Fatalf("got %d records, want 1", len(b.Records))
	}
	p := b.Records[0].Params
	for name, want := range map[string]string{
		"distribution": "unknown",
		"policy":       "unknown",
		"cache_size":   "10000",
		"test_name":    "unknown",
	} {
		if got := p[name]; got.Value != want || !got.IsDefault() {
			t.Errorf("%s = %+v, want default %q", name, got, want)
		}
	}
}

func TestPartialBlocks(t *testing.T) {
	input := `=== RUN   TestZipfHigh/Size100_Random
    x_test.go:1: 测试结果:
    x_test.go:2: 总操作数: 10
    x_test.go:3: 命中数: 5
=== RUN   TestZipfHigh/Size200_Random
    x_test.go:1: Test results:
    x_test.go:2: Total operations: 10
    x_test.go:3: Hits: 5
    x_test.go:4: Misses: 5
    x_test.go:5: Hit ratio: 150.00%
    x_test.go:6: Evictions: 0
    x_test.go:7: Eviction ratio: 0.00%
    x_test.go:8: Duration: 1ms
=== RUN   TestZipfHigh/Size300_Random
    x_test.go:1: Test results:
    x_test.go:2: Total operations: 10
    x_test.go:3: Hits: 5
    x_test.go:4: Misses: 5
    x_test.go:5: Hit ratio: 50.00%
    x_test.go:6: Evictions: 0
    x_test.go:7: Eviction ratio: 0.00%
    x_test.go:8: Duration: forever
`
	b := parse(t, input, "hitratio.txt")
	if len(b.Records) != 0 {
		t.Errorf("got %d records, want 0", len(b.Records))
	}
	var got []string
	for _, e := range b.Partial {
		got = append(got, e.Error())
	}
	want := []string{
		"hitratio.txt:2: missing misses",
		"hitratio.txt:6: metric hit_ratio = 150 out of range [0, 100]",
		`hitratio.txt:15: parsing duration: invalid duration "forever"`,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("partial errors mismatch (-want +got):\n%s", diff)
	}
}

func TestHitsLabel(t *testing.T) {
	// The misses label contains the hits label.
	blk, err := Extract(`测试结果:
未命中数: 7
总操作数: 10
命中数: 3
未命中数: 7
命中率: 30%
淘汰数: 1
淘汰比率: 10%
持续时间: 2s`)
	if err != nil {
		t.Fatal(err)
	}
	if blk.Hits != 3 || blk.Misses != 7 || blk.DurationMs != 2000 {
		t.Errorf("got %+v", blk)
	}
}

func TestTokenize(t *testing.T) {
	text := "=== RUN   TestA\nnoise\n    a.go:1: Test results:\n    a.go:2: x\n=== CONT  TestB\n    b.go:1: 测试结果:\n"
	got := Tokenize(text)
	want := []Span{
		{TestStart, 0, 16, 1},
		{Stats, 22, 62, 3},
		{TestStart, 62, 78, 5},
		{Stats, 78, len(text), 6},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("spans mismatch (-want +got):\n%s", diff)
	}
	if ctx := Context(text, got, 3); ctx != "=== CONT  TestB\n" {
		t.Errorf("Context = %q", ctx)
	}
	if ctx := Context(text, got[1:], 0); ctx != "" {
		t.Errorf("Context without marker = %q, want empty", ctx)
	}
}

func TestParseDuration(t *testing.T) {
	for _, test := range []struct {
		in   string
		want float64
	}{
		{"500µs", 0.5},
		{"500μs", 0.5},
		{"500us", 0.5},
		{"2s", 2000},
		{"10ns", 0.00001},
		{"123.4ms", 123.4},
		{"1m2.5s", 62500},
		{"0s", 0},
	} {
		got, err := ParseDuration(test.in)
		if err != nil || got != test.want {
			t.Errorf("ParseDuration(%q) = %v, %v, want %v", test.in, got, err, test.want)
		}
	}
	for _, in := range []string{"", "fast", "-1s", "12"} {
		if _, err := ParseDuration(in); err == nil {
			t.Errorf("ParseDuration(%q) succeeded, want error", in)
		}
	}
}
