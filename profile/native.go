// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package profile

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/google/pprof/profile"
	"github.com/hcache/cachestat/record"
)

type node struct {
	name      string
	flat, cum int64
}

// WriteTop writes the top nodeCount functions of p to w in the format
// of "go tool pprof -top". Functions are ordered by flat value, then
// cumulative value, then name.
func WriteTop(w io.Writer, p *profile.Profile, nodeCount int) error {
	if len(p.SampleType) == 0 {
		return fmt.Errorf("profile has no sample types")
	}
	idx := len(p.SampleType) - 1
	if p.DefaultSampleType != "" {
		for i, st := range p.SampleType {
			if st.Type == p.DefaultSampleType {
				idx = i
			}
		}
	}
	st := p.SampleType[idx]
	format := valueFormatter(st.Unit)

	nodes := map[string]*node{}
	get := func(name string) *node {
		n := nodes[name]
		if n == nil {
			n = &node{name: name}
			nodes[name] = n
		}
		return n
	}
	var total int64
	for _, s := range p.Sample {
		v := s.Value[idx]
		total += v
		seen := map[string]bool{}
		for i, loc := range s.Location {
			for j, line := range loc.Line {
				if line.Function == nil {
					continue
				}
				name := line.Function.Name
				if i == 0 && j == 0 {
					get(name).flat += v
				}
				if !seen[name] {
					seen[name] = true
					get(name).cum += v
				}
			}
		}
	}

	list := make([]*node, 0, len(nodes))
	for _, n := range nodes {
		list = append(list, n)
	}
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.flat != b.flat {
			return a.flat > b.flat
		}
		if a.cum != b.cum {
			return a.cum > b.cum
		}
		return a.name < b.name
	})
	if nodeCount > 0 && len(list) > nodeCount {
		list = list[:nodeCount]
	}

	pct := func(v int64) float64 {
		if total == 0 {
			return 0
		}
		return 100 * float64(v) / float64(total)
	}
	fmt.Fprintf(w, "Type: %s\n", st.Type)
	fmt.Fprintf(w, "%10s %6s %6s %10s %6s\n", "flat", "flat%", "sum%", "cum", "cum%")
	var sum int64
	for _, n := range list {
		sum += n.flat
		_, err := fmt.Fprintf(w, "%10s %5.2f%% %5.2f%% %10s %5.2f%%  %s\n",
			format(n.flat), pct(n.flat), pct(sum), format(n.cum), pct(n.cum), n.name)
		if err != nil {
			return err
		}
	}
	return nil
}

// valueFormatter returns a function formatting sample values of the
// given unit so that ParseValue recovers them.
func valueFormatter(unit string) func(int64) string {
	scaled := func(div float64, suffix string) func(int64) string {
		return func(v int64) string {
			return strconv.FormatFloat(float64(v)/div, 'f', -1, 64) + suffix
		}
	}
	switch unit {
	case "nanoseconds":
		return scaled(1e6, "ms")
	case "microseconds":
		return scaled(1e3, "ms")
	case "milliseconds":
		return scaled(1, "ms")
	case "seconds":
		return scaled(1, "s")
	case "bytes":
		return scaled(1, "B")
	}
	return scaled(1, "")
}

// Native decodes the binary profile in r and parses its top table.
func Native(r io.Reader, fileName string, nodeCount int) (*record.Batch, error) {
	p, err := profile.Parse(r)
	if err != nil {
		return nil, &record.FileReadError{File: fileName, Err: err}
	}
	var buf bytes.Buffer
	if err := WriteTop(&buf, p, nodeCount); err != nil {
		return nil, &record.FileReadError{File: fileName, Err: err}
	}
	return ParseTable(&buf, fileName)
}
