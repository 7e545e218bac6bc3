// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchfmt

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/hcache/cachestat/record"
)

func parseAll(t *testing.T, data, fileName string) *record.Batch {
	t.Helper()
	b, err := Parse(strings.NewReader(data), fileName)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return b
}

func TestReader(t *testing.T) {
	type res struct {
		group   string
		params  map[string]string
		metrics record.Metrics
	}
	for _, test := range []struct {
		name string
		input string
		want []res
		errs []string
	}{
		{
			"basic",
			`goos: linux
BenchmarkGet-8   	 1000000	      123.4 ns/op	      16 B/op	       1 allocs/op
PASS`,
			[]res{{"BenchmarkGet", map[string]string{"procs": "8", "test_type": "unknown"},
				record.Metrics{"iterations": 1000000, "ns_per_op": 123.4, "bytes_per_op": 16, "allocs_per_op": 1}}},
			nil,
		},
		{
			"defaults",
			"BenchmarkSet 500 2000 ns/op\n",
			[]res{{"BenchmarkSet", map[string]string{"procs": "1", "test_type": "unknown"},
				record.Metrics{"iterations": 500, "ns_per_op": 2000, "bytes_per_op": 0, "allocs_per_op": 0}}},
			nil,
		},
		{
			"parameters",
			"BenchmarkMixed/policy=lru/cache_size=1000/read=0.90-4 10 5 ns/op 3.5 MB/s\n",
			[]res{{"BenchmarkMixed", map[string]string{"procs": "4", "test_type": "unknown", "policy": "lru", "cache_size": "1000", "read": "0.90"},
				record.Metrics{"iterations": 10, "ns_per_op": 5, "bytes_per_op": 0, "allocs_per_op": 0, "mb_per_s": 3.5}}},
			nil,
		},
		{
			"positional parts ignored",
			"BenchmarkX/small/k=v 1 1 ns/op\n",
			[]res{{"BenchmarkX", map[string]string{"procs": "1", "test_type": "unknown", "k": "v"},
				record.Metrics{"iterations": 1, "ns_per_op": 1, "bytes_per_op": 0, "allocs_per_op": 0}}},
			nil,
		},
		{
			"verbose start line",
			"BenchmarkGet\nBenchmarkGet-8 1 1 ns/op\n",
			[]res{{"BenchmarkGet", map[string]string{"procs": "8", "test_type": "unknown"},
				record.Metrics{"iterations": 1, "ns_per_op": 1, "bytes_per_op": 0, "allocs_per_op": 0}}},
			nil,
		},
		{
			"errors",
			`BenchmarkA-8 100
BenchmarkB-8 x 1 ns/op
BenchmarkC-8 100 1 ns/op 2
BenchmarkD-8 100 1 B/op
BenchmarkE-8 100 -1 ns/op
Benchmark 1 1 ns/op
`,
			nil,
			[]string{
				"a.txt:1: missing measurements",
				`a.txt:2: parsing iteration count: invalid syntax`,
				"a.txt:3: missing units",
				"a.txt:4: missing ns/op measurement",
				"a.txt:5: metric ns_per_op = -1 is negative",
				"a.txt:6: missing benchmark name",
			},
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			b := parseAll(t, test.input, "a.txt")
			var got []res
			for _, r := range b.Records {
				params := map[string]string{}
				for k, v := range r.Params {
					params[k] = v.Value
				}
				got = append(got, res{r.Group, params, r.Metrics})
			}
			if diff := cmp.Diff(test.want, got, cmp.AllowUnexported(res{})); diff != "" {
				t.Errorf("records mismatch (-want +got):\n%s", diff)
			}
			var errs []string
			for _, e := range b.Partial {
				errs = append(errs, e.Error())
			}
			if !reflect.DeepEqual(errs, test.errs) {
				t.Errorf("got errors %q, want %q", errs, test.errs)
			}
		})
	}
}

func TestKeyValueRoundTrip(t *testing.T) {
	for _, kv := range [][2]string{
		{"policy", "lru"},
		{"cache_size", "1000"},
		{"value_size", "1.50"},
		{"dist", "zipf-1.07"},
	} {
		line := fmt.Sprintf("BenchmarkGet/%s=%s 1 1 ns/op", kv[0], kv[1])
		b := parseAll(t, line, "x.txt")
		if len(b.Records) != 1 {
			t.Fatalf("%s: got %d records, want 1", line, len(b.Records))
		}
		if got := b.Records[0].Params[kv[0]].Value; got != kv[1] {
			t.Errorf("%s: params[%s] = %q, want %q", line, kv[0], got, kv[1])
		}
	}
}

func TestTruncatedLine(t *testing.T) {
	input := `BenchmarkGet-8 1000 10 ns/op 0 B/op 0 allocs/op
BenchmarkSet-8 1000 20 ns/op 8 B/op 1 allocs/op
BenchmarkDel-8 1000
BenchmarkGet-8 1000 11 ns/op 0 B/op 0 allocs/op
BenchmarkSet-8 1000 21 ns/op 8 B/op 1 allocs/op
`
	b := parseAll(t, input, "cache_20240315.txt")
	if len(b.Records) != 4 {
		t.Errorf("got %d records, want 4", len(b.Records))
	}
	if len(b.Partial) != 1 || b.Partial[0].Line != 3 {
		t.Errorf("got partial errors %v, want one on line 3", b.Partial)
	}
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	for _, r := range b.Records {
		if !r.Time.Equal(want) || r.Params["test_type"].Value != "cache" {
			t.Errorf("record %v:%d has time %v, test_type %q", r.File, r.Line, r.Time, r.Params["test_type"].Value)
		}
	}
}

func TestIdempotent(t *testing.T) {
	input := "BenchmarkGet/policy=lru-8 1000 10 ns/op\nBenchmarkGet/policy=lfu-8 1000 12 ns/op\n"
	b1 := parseAll(t, input, "x_20240101.txt")
	b2 := parseAll(t, input, "x_20240101.txt")
	if diff := cmp.Diff(b1, b2); diff != "" {
		t.Errorf("second parse differs (-first +second):\n%s", diff)
	}
}

func TestMetricName(t *testing.T) {
	for unit, want := range map[string]string{
		"ns/op":     "ns_per_op",
		"B/op":      "bytes_per_op",
		"allocs/op": "allocs_per_op",
		"MB/s":      "mb_per_s",
		"hit-%":     "hit__",
	} {
		if got := metricName(unit); got != want {
			t.Errorf("metricName(%q) = %q, want %q", unit, got, want)
		}
	}
}

func TestNameParts(t *testing.T) {
	for _, test := range []struct {
		name  string
		base  string
		parts []string
	}{
		{"BenchmarkA", "BenchmarkA", nil},
		{"BenchmarkA-4", "BenchmarkA", []string{"-4"}},
		{"BenchmarkA/a=b/c-4", "BenchmarkA", []string{"/a=b", "/c", "-4"}},
		{"BenchmarkA/a=b-c", "BenchmarkA", []string{"/a=b-c"}},
	} {
		base, parts := Name(test.name).Parts()
		var got []string
		for _, p := range parts {
			got = append(got, string(p))
		}
		if string(base) != test.base || !reflect.DeepEqual(got, test.parts) {
			t.Errorf("Parts(%q) = %q, %q, want %q, %q", test.name, base, got, test.base, test.parts)
		}
	}
}
