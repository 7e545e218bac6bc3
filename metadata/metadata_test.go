// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package metadata

import (
	"reflect"
	"testing"
	"time"

	"github.com/hcache/cachestat/record"
)

func TestKeywordsOrder(t *testing.T) {
	ks := Keywords{
		Contains("ms", "milli"),
		Contains("s", "sec"),
	}
	for _, test := range []struct {
		in   string
		want string
		def  bool
	}{
		{"12ms", "milli", false},
		{"12s", "sec", false},
		{"12", "none", true},
	} {
		got := ks.Resolve(test.in, record.Str("none"))
		if got.Value != test.want || got.IsDefault() != test.def {
			t.Errorf("Resolve(%q) = %+v, want %q (default=%v)", test.in, got, test.want, test.def)
		}
	}
}

func TestBenchmark(t *testing.T) {
	f := Benchmark("results/bench/cache_get_20240315.txt")
	if got := f.Params["test_type"]; got.Value != "cache_get" || got.IsDefault() {
		t.Errorf("test_type = %+v, want resolved cache_get", got)
	}
	if want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC); !f.Time.Equal(want) {
		t.Errorf("Time = %v, want %v", f.Time, want)
	}

	f = Benchmark("bench.txt")
	if got := f.Params["test_type"]; got.Value != record.UnknownValue || !got.IsDefault() {
		t.Errorf("test_type = %+v, want default unknown", got)
	}
	if !f.Time.Equal(record.Epoch) {
		t.Errorf("Time = %v, want epoch", f.Time)
	}
}

func TestHitRatio(t *testing.T) {
	for _, test := range []struct {
		name string
		want time.Time
	}{
		{"hitratio_20240102.log", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"hitratio_20240102.txt", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"hitratio.txt", record.Epoch},
		{"hitratio_20241399.txt", record.Epoch},
	} {
		if got := HitRatio(test.name).Time; !got.Equal(test.want) {
			t.Errorf("HitRatio(%q).Time = %v, want %v", test.name, got, test.want)
		}
	}
}

func TestLoadTest(t *testing.T) {
	f := LoadTest("out/vegeta_cache-lru_c50_r1000_d2m_20240315.json")
	want := map[string]string{
		"concurrency":     "50",
		"target_rate":     "1000",
		"target_duration": "120",
		"cache_config":    "lru",
		"test_date":       "20240315",
	}
	for k, v := range want {
		if got := f.Params[k]; got.Value != v || got.IsDefault() {
			t.Errorf("%s = %+v, want resolved %q", k, got, v)
		}
	}
	if len(f.Missing) != 0 {
		t.Errorf("Missing = %v, want none", f.Missing)
	}

	// Underscores separate fields, so they end the cache name.
	if got := LoadTest("cache-lru_c50.json").Params["cache_config"].Value; got != "lru" {
		t.Errorf("cache_config of cache-lru_c50.json = %q, want lru", got)
	}

	f = LoadTest("baseline.json")
	if got, want := f.Missing, []string{"concurrency", "target_rate", "target_duration", "cache_config", "test_date"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Missing = %v, want %v", got, want)
	}
	if len(f.Params) != 0 {
		t.Errorf("Params = %v, want empty", f.Params)
	}
}

func TestProfile(t *testing.T) {
	f := Profile("profiles/Zipf_20240315_143000_MEM.pprof")
	for k, v := range map[string]string{
		"profile_type": "heap",
		"test_name":    "Zipf",
		"date":         "20240315",
		"time":         "143000",
	} {
		if got := f.Params[k].Value; got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
	if want := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC); !f.Time.Equal(want) {
		t.Errorf("Time = %v, want %v", f.Time, want)
	}

	f = Profile("trace.out")
	if got := f.Params["profile_type"]; got.Value != record.UnknownValue || !got.IsDefault() {
		t.Errorf("profile_type = %+v, want default unknown", got)
	}
	if got := f.Params["date"].Value; got != NoDate {
		t.Errorf("date = %q, want %q", got, NoDate)
	}
}

func TestClassify(t *testing.T) {
	for _, test := range []struct {
		name string
		want Format
	}{
		{"cache_20240101.txt", BenchmarkText},
		{"hitratio_20240101.txt", HitRatioLog},
		{"hitratio_20240101.log", HitRatioLog},
		{"run.log", NotCandidate},
		{"c10_r100.json", LoadTestJSON},
		{"c10_r100.vegeta", LoadTestJSON},
		{"cpu_20240101.pprof", ProfileBinary},
		{"heap.pb.gz", ProfileBinary},
		{"cpu_20240101_top.txt", ProfileTable},
		{"cpu.top", ProfileTable},
		{"README.md", NotCandidate},
	} {
		if got := Classify(test.name); got != test.want {
			t.Errorf("Classify(%q) = %v, want %v", test.name, got, test.want)
		}
	}
}
