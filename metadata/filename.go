// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package metadata

import (
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hcache/cachestat/record"
)

// File is the metadata inferred from an artifact's file name.
type File struct {
	// Name is the base name the metadata was inferred from.
	Name string

	Params record.Params

	// Time is the run date, or record.Epoch if the name has none.
	Time time.Time

	// Missing lists parameters whose rules did not match the name.
	// Parsers may fill these from the file content before falling
	// back to defaults.
	Missing []string
}

// NoDate is the date string of artifacts whose name carries no date.
const NoDate = "00000000"

// ParseDate parses a YYYYMMDD date. It returns record.Epoch if s is
// not a valid date.
func ParseDate(s string) time.Time {
	t, err := time.Parse("20060102", s)
	if err != nil {
		return record.Epoch
	}
	return t
}

var benchmarkName = regexp.MustCompile(`(\w+)_(\d{8})\.txt`)

// Benchmark infers the test type and date of a benchmark text dump
// named like <type>_<YYYYMMDD>.txt.
func Benchmark(name string) File {
	base := path.Base(name)
	f := File{Name: base, Params: record.Params{}, Time: record.Epoch}
	if m := benchmarkName.FindStringSubmatch(base); m != nil {
		f.Params["test_type"] = record.Str(m[1])
		f.Time = ParseDate(m[2])
	} else {
		f.Params["test_type"] = record.Str(record.UnknownValue).AsDefault()
		f.Missing = []string{"test_type"}
	}
	return f
}

var hitRatioName = regexp.MustCompile(`hitratio_(\d{8})\.(?:txt|log)`)

// HitRatio infers the date of a hit-ratio log named like
// hitratio_<YYYYMMDD>.txt or .log.
func HitRatio(name string) File {
	base := path.Base(name)
	f := File{Name: base, Params: record.Params{}, Time: record.Epoch}
	if m := hitRatioName.FindStringSubmatch(base); m != nil {
		f.Time = ParseDate(m[1])
	}
	return f
}

func intParam(m []string) (record.Param, bool) {
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return record.Param{}, false
	}
	return record.Int(n), true
}

var durationUnits = map[string]int64{"s": 1, "m": 60, "h": 3600}

// LoadTestRules resolve load-test parameters from a file name such as
// vegeta_cache-lru_c50_r1000_d30s_20240315.json.
var LoadTestRules = Rules{
	{Name: "concurrency", Pattern: regexp.MustCompile(`c(\d+)`), Convert: intParam},
	{Name: "target_rate", Pattern: regexp.MustCompile(`r(\d+)`), Convert: intParam},
	{Name: "target_duration", Pattern: regexp.MustCompile(`d(\d+)([smh])`), Convert: func(m []string) (record.Param, bool) {
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return record.Param{}, false
		}
		return record.Int(n * durationUnits[m[2]]), true
	}},
	{Name: "cache_config", Pattern: regexp.MustCompile(`cache-([[:alnum:]]+)`)},
	{Name: "test_date", Pattern: regexp.MustCompile(`(\d{8})`)},
}

// LoadTest infers load-test parameters from a result file name using
// LoadTestRules. Parameters that are not encoded in the name are
// listed in Missing and absent from Params.
func LoadTest(name string) File {
	base := path.Base(name)
	f := File{Name: base, Params: record.Params{}, Time: record.Epoch}
	f.Missing = LoadTestRules.Apply(base, f.Params)
	if d, ok := f.Params["test_date"]; ok {
		f.Time = ParseDate(d.Value)
	}
	return f
}

// ProfileKinds maps file names to profile types. heap and mem both
// denote heap profiles.
var ProfileKinds = Keywords{
	ContainsFold("cpu", "cpu"),
	ContainsFold("heap", "heap"),
	ContainsFold("mem", "heap"),
	ContainsFold("block", "block"),
	ContainsFold("mutex", "mutex"),
	ContainsFold("goroutine", "goroutine"),
}

var (
	profileTest = regexp.MustCompile(`([a-zA-Z]+)_\d{8}`)
	profileDate = regexp.MustCompile(`(\d{8})_?(\d{6})?`)
)

// Profile infers the profile type, test name, date and time of a
// profile named like <test>_<YYYYMMDD>_<HHMMSS>_cpu.pprof.
func Profile(name string) File {
	base := path.Base(name)
	f := File{Name: base, Params: record.Params{}, Time: record.Epoch}
	f.Params["profile_type"] = ProfileKinds.Resolve(base, record.Str(record.UnknownValue))
	if f.Params["profile_type"].IsDefault() {
		f.Missing = append(f.Missing, "profile_type")
	}
	if m := profileTest.FindStringSubmatch(base); m != nil {
		f.Params["test_name"] = record.Str(m[1])
	} else {
		f.Params["test_name"] = record.Str(record.UnknownValue).AsDefault()
		f.Missing = append(f.Missing, "test_name")
	}
	f.Params["date"] = record.Str(NoDate).AsDefault()
	f.Params["time"] = record.Str("000000").AsDefault()
	if m := profileDate.FindStringSubmatch(base); m != nil {
		f.Params["date"] = record.Str(m[1])
		f.Time = ParseDate(m[1])
		if m[2] != "" {
			f.Params["time"] = record.Str(m[2])
			if t, err := time.Parse("20060102150405", m[1]+m[2]); err == nil {
				f.Time = t
			}
		}
	}
	return f
}

// A Format is the physical format of a candidate input file.
type Format int

const (
	// NotCandidate means the file is not a recognized artifact.
	NotCandidate Format = iota
	BenchmarkText
	LoadTestJSON
	HitRatioLog
	ProfileTable
	// ProfileBinary is a binary profile that must be rendered into a
	// ProfileTable by an external tool or decoder first.
	ProfileBinary
)

// Kind returns the record kind produced from files of format f.
func (f Format) Kind() record.Kind {
	switch f {
	case BenchmarkText:
		return record.Benchmark
	case LoadTestJSON:
		return record.LoadTest
	case HitRatioLog:
		return record.HitRatio
	case ProfileTable, ProfileBinary:
		return record.Profile
	}
	return record.Unknown
}

func (f Format) String() string {
	switch f {
	case BenchmarkText:
		return "benchmark text"
	case LoadTestJSON:
		return "load test JSON"
	case HitRatioLog:
		return "hit ratio log"
	case ProfileTable:
		return "profile table"
	case ProfileBinary:
		return "binary profile"
	}
	return "not a candidate"
}

func hasSuffix(suffixes ...string) func(string) bool {
	return func(s string) bool {
		for _, suf := range suffixes {
			if strings.HasSuffix(s, suf) {
				return true
			}
		}
		return false
	}
}

// formatRules are evaluated in order; the first match wins. Hit-ratio
// logs must be recognized before generic .txt benchmark dumps, and
// profile tables before both.
var formatRules = []struct {
	match  func(string) bool
	format Format
}{
	{hasSuffix(".pprof", ".pb.gz", ".prof"), ProfileBinary},
	{hasSuffix(".json", ".vegeta"), LoadTestJSON},
	{hasSuffix(".top", "_top.txt"), ProfileTable},
	{func(s string) bool {
		return strings.HasPrefix(s, "hitratio") && hasSuffix(".txt", ".log")(s)
	}, HitRatioLog},
	{hasSuffix(".txt"), BenchmarkText},
}

// Classify returns the format of the file called name.
func Classify(name string) Format {
	base := strings.ToLower(path.Base(name))
	for _, r := range formatRules {
		if r.match(base) {
			return r.format
		}
	}
	return NotCandidate
}
