// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package aggregate

import (
	"fmt"
	"math"
	"sort"

	"github.com/aclements/go-moremath/stats"
)

// A Summary holds the descriptive statistics of one metric within one
// group.
type Summary struct {
	// Values are the observed values in sorted order.
	Values []float64

	N                  int
	Mean, Median, Std  float64
	Min, Max           float64
	P50, P90, P95, P99 float64
}

// Summarize computes the summary of xs. Std is the sample standard
// deviation, which is 0 for a single value. xs must not be empty.
func Summarize(xs []float64) *Summary {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	s := &Summary{Values: sorted, N: len(sorted)}
	s.Min, s.Max = stats.Bounds(sorted)
	s.Mean = stats.Mean(sorted)
	if len(sorted) > 1 {
		s.Std = stats.StdDev(sorted)
	}
	s.P50 = Percentile(sorted, 0.50)
	s.P90 = Percentile(sorted, 0.90)
	s.P95 = Percentile(sorted, 0.95)
	s.P99 = Percentile(sorted, 0.99)
	s.Median = s.P50
	return s
}

// Percentile returns the p'th quantile (0 <= p <= 1) of sorted,
// interpolating linearly between the closest ranks: with
// h = (len(sorted)-1)*p, the result lies between sorted[floor(h)] and
// sorted[floor(h)+1]. It returns NaN for an empty sample.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	h := float64(len(sorted)-1) * p
	lo := math.Floor(h)
	i := int(lo)
	if i < 0 {
		return sorted[0]
	}
	if i+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}

// A Stat names one statistic of a Summary.
type Stat string

const (
	Mean   Stat = "mean"
	Median Stat = "median"
	Std    Stat = "std"
	Min    Stat = "min"
	Max    Stat = "max"
	P50    Stat = "p50"
	P90    Stat = "p90"
	P95    Stat = "p95"
	P99    Stat = "p99"
)

// Stats lists every Stat in the column order of WriteCSV.
var Stats = []Stat{Mean, Median, Std, Min, Max, P50, P90, P95, P99}

// Get returns statistic st of s.
func (s *Summary) Get(st Stat) (float64, error) {
	switch st {
	case Mean:
		return s.Mean, nil
	case Median:
		return s.Median, nil
	case Std:
		return s.Std, nil
	case Min:
		return s.Min, nil
	case Max:
		return s.Max, nil
	case P50:
		return s.P50, nil
	case P90:
		return s.P90, nil
	case P95:
		return s.P95, nil
	case P99:
		return s.P99, nil
	}
	return 0, fmt.Errorf("unknown statistic %q", st)
}
