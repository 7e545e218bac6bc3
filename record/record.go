// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package record defines the normalized data model shared by all
// artifact parsers.
//
// Every parser, whatever the physical format it reads, produces
// *Record values. A Record carries the kind of artifact it came from,
// the logical test or pattern it belongs to (its group), a set of
// categorical parameters, and a set of numeric metrics. Parameters are
// always populated: a parameter that could not be recovered from the
// input carries a documented default and is tagged as such, so that
// downstream grouping never fails on an absent key.
//
// Records from one input directory are collected into an immutable
// Dataset, which is what the aggregation layer consumes.
package record

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"
)

// A Kind identifies the artifact format a Record was parsed from.
type Kind int

const (
	Unknown Kind = iota
	Benchmark
	LoadTest
	HitRatio
	Profile
)

var kindNames = [...]string{
	Unknown:   "unknown",
	Benchmark: "benchmark",
	LoadTest:  "loadtest",
	HitRatio:  "hitratio",
	Profile:   "profile",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind returns the Kind named s. It returns Unknown and false if s
// does not name a kind.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if k != int(Unknown) && name == s {
			return Kind(k), true
		}
	}
	return Unknown, false
}

// UnknownValue is the sentinel for categorical parameters that could
// not be resolved.
const UnknownValue = "unknown"

// Epoch is the sentinel timestamp of records whose run date is not
// known.
var Epoch = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

// A Source records how a parameter value was obtained.
type Source int

const (
	// Resolved means the value was recovered from the input.
	Resolved Source = iota
	// Default means no rule matched and the value is a documented
	// default or sentinel.
	Default
)

func (s Source) String() string {
	if s == Default {
		return "default"
	}
	return "resolved"
}

// A Param is a tagged parameter value. Every Param has a string form;
// numeric parameters also carry their numeric value so that they sort
// and compare as numbers.
type Param struct {
	Value   string
	Num     float64
	Numeric bool
	Source  Source
}

// Str returns a resolved string parameter.
func Str(v string) Param {
	return Param{Value: v}
}

// Int returns a resolved integer parameter.
func Int(n int64) Param {
	return Param{Value: strconv.FormatInt(n, 10), Num: float64(n), Numeric: true}
}

// Float returns a resolved floating-point parameter.
func Float(f float64) Param {
	return Param{Value: strconv.FormatFloat(f, 'g', -1, 64), Num: f, Numeric: true}
}

// Parse returns a resolved parameter whose string form is exactly v.
// If v is a number, the parameter is also numeric.
func Parse(v string) Param {
	p := Param{Value: v}
	if f, err := strconv.ParseFloat(v, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		p.Num, p.Numeric = f, true
	}
	return p
}

// AsDefault returns p tagged as a default.
func (p Param) AsDefault() Param {
	p.Source = Default
	return p
}

// IsDefault reports whether p is a default rather than a resolved
// value.
func (p Param) IsDefault() bool {
	return p.Source == Default
}

func (p Param) String() string {
	return p.Value
}

// Params is the parameter set of a Record.
type Params map[string]Param

// Keys returns the parameter names in sorted order.
func (p Params) Keys() []string {
	var keys []string
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the parameter named key.
func (p Params) Get(key string) (Param, bool) {
	v, ok := p[key]
	return v, ok
}

// Value returns the string form of the parameter named key, or
// UnknownValue if there is no such parameter.
func (p Params) Value(key string) string {
	if v, ok := p[key]; ok {
		return v.Value
	}
	return UnknownValue
}

// Defaults returns the names of parameters tagged as defaults, in
// sorted order.
func (p Params) Defaults() []string {
	var keys []string
	for _, k := range p.Keys() {
		if p[k].IsDefault() {
			keys = append(keys, k)
		}
	}
	return keys
}

// Metrics maps metric names to values.
type Metrics map[string]float64

// Keys returns the metric names in sorted order.
func (m Metrics) Keys() []string {
	var keys []string
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// A Record is a single normalized measurement.
type Record struct {
	Kind Kind

	// Group is the logical test or pattern this record belongs to,
	// such as a benchmark base name or a hit-ratio test name.
	Group string

	Params  Params
	Metrics Metrics

	// Time is the date of the run, or Epoch if unknown.
	Time time.Time

	// File and Line identify where the record was read. Line is
	// 1-based, or 0 if the format has no useful line position.
	File string
	Line int
}

// Pos returns the position of r as a file name and line number.
func (r *Record) Pos() (fileName string, line int) {
	return r.File, r.Line
}

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	r2 := *r
	r2.Params = make(Params, len(r.Params))
	for k, v := range r.Params {
		r2.Params[k] = v
	}
	r2.Metrics = make(Metrics, len(r.Metrics))
	for k, v := range r.Metrics {
		r2.Metrics[k] = v
	}
	return &r2
}

// Validate checks the numeric invariants of r's metrics. Every metric
// is finite, ratio metrics lie in [0, 100] and time and size metrics
// are non-negative.
func (r *Record) Validate() error {
	for _, k := range r.Metrics.Keys() {
		v := r.Metrics[k]
		if math.IsNaN(v) {
			return fmt.Errorf("metric %s is NaN", k)
		}
		if math.IsInf(v, 0) {
			return fmt.Errorf("metric %s is infinite", k)
		}
		switch {
		case k == "hit_ratio" || k == "eviction_ratio":
			if v < 0 || v > 100 {
				return fmt.Errorf("metric %s = %v out of range [0, 100]", k, v)
			}
		case nonNegative(k):
			if v < 0 {
				return fmt.Errorf("metric %s = %v is negative", k, v)
			}
		}
	}
	return nil
}

func nonNegative(metric string) bool {
	switch metric {
	case "ns_per_op", "bytes_per_op", "allocs_per_op", "duration_ms", "duration":
		return true
	}
	return len(metric) > len("latency_") && metric[:len("latency_")] == "latency_"
}

// A Batch is the result of parsing a single file.
type Batch struct {
	File    string
	Kind    Kind
	Records []*Record

	// Partial lists the lines or blocks that were dropped because
	// they could not be parsed.
	Partial []*PartialParseError
}
