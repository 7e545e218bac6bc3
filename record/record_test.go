// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package record

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"reflect"
	"testing"
)

func TestKind(t *testing.T) {
	for _, k := range []Kind{Benchmark, LoadTest, HitRatio, Profile} {
		got, ok := ParseKind(k.String())
		if !ok || got != k {
			t.Errorf("ParseKind(%q) = %v, %v, want %v, true", k.String(), got, ok, k)
		}
	}
	if _, ok := ParseKind("unknown"); ok {
		t.Errorf("ParseKind(\"unknown\") succeeded")
	}
	if got, want := Kind(42).String(), "Kind(42)"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParams(t *testing.T) {
	p := Params{
		"policy":     Str("lru"),
		"cache_size": Int(10000).AsDefault(),
		"ratio":      Float(0.5),
	}
	if got, want := p.Keys(), []string{"cache_size", "policy", "ratio"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
	if got, want := p.Defaults(), []string{"cache_size"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Defaults() = %v, want %v", got, want)
	}
	if got := p.Value("missing"); got != UnknownValue {
		t.Errorf("Value(missing) = %q, want %q", got, UnknownValue)
	}
	if got := p["cache_size"]; got.Value != "10000" || got.Num != 10000 || !got.Numeric {
		t.Errorf("Int(10000) = %+v", got)
	}
	if got := p["ratio"].Value; got != "0.5" {
		t.Errorf("Float(0.5).Value = %q, want 0.5", got)
	}
}

func TestValidate(t *testing.T) {
	for _, test := range []struct {
		metrics Metrics
		ok      bool
	}{
		{Metrics{"hit_ratio": 80, "eviction_ratio": 5}, true},
		{Metrics{"hit_ratio": 100.5}, false},
		{Metrics{"eviction_ratio": -1}, false},
		{Metrics{"ns_per_op": -3}, false},
		{Metrics{"latency_p99": -0.1}, false},
		{Metrics{"delta": -3}, true},
		{Metrics{"throughput": math.NaN()}, false},
		{Metrics{"throughput": math.Inf(1)}, false},
		{Metrics{"delta": math.Inf(-1)}, false},
	} {
		r := &Record{Metrics: test.metrics}
		err := r.Validate()
		if (err == nil) != test.ok {
			t.Errorf("Validate(%v) = %v, want ok=%v", test.metrics, err, test.ok)
		}
	}
}

func TestClone(t *testing.T) {
	r := &Record{Params: Params{"a": Str("x")}, Metrics: Metrics{"m": 1}}
	c := r.Clone()
	c.Params["a"] = Str("y")
	c.Metrics["m"] = 2
	if r.Params["a"].Value != "x" || r.Metrics["m"] != 1 {
		t.Errorf("Clone shares maps with original")
	}
}

func TestDataset(t *testing.T) {
	recs := []*Record{
		{Group: "g1", File: "a"},
		{Group: "g2", File: "a"},
		{Group: "g1", File: "b"},
	}
	d := NewDataset("dir", recs, LoadStats{Files: 2, Parsed: 2})
	if got, want := d.Groups(), []string{"g1", "g2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Groups() = %v, want %v", got, want)
	}
	if got, want := d.Files(), []string{"a", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Files() = %v, want %v", got, want)
	}
	if got := d.Group("g1"); len(got) != 2 || got[0] != recs[0] || got[1] != recs[2] {
		t.Errorf("Group(g1) = %v", got)
	}
	if got := d.Group("none"); got != nil {
		t.Errorf("Group(none) = %v, want nil", got)
	}

	// Mutating the caller's slice or a returned slice must not
	// affect the dataset.
	recs[0] = nil
	all := d.Records()
	all[1] = nil
	if d.Records()[0] == nil || d.Records()[1] == nil {
		t.Errorf("Dataset shares its record slice")
	}
}

func TestErrors(t *testing.T) {
	var err error = &FileReadError{"x.txt", fs.ErrNotExist}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("FileReadError does not unwrap")
	}
	err = fmt.Errorf("loading: %w", &DatasetEmptyError{Dir: "results/hitratio"})
	var empty *DatasetEmptyError
	if !errors.As(err, &empty) || empty.Dir != "results/hitratio" {
		t.Errorf("errors.As(%v) failed", err)
	}
	pe := &PartialParseError{"b.txt", 7, "missing units"}
	if got, want := pe.Error(), "b.txt:7: missing units"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
