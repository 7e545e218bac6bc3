// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hitratio

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// durationUnits is ordered so that longer suffixes are tried before
// "s", which ends all of them.
var durationUnits = []struct {
	suffix string
	toMs   func(float64) float64
}{
	{"µs", func(v float64) float64 { return v / 1e3 }},
	{"μs", func(v float64) float64 { return v / 1e3 }},
	{"us", func(v float64) float64 { return v / 1e3 }},
	{"ns", func(v float64) float64 { return v / 1e6 }},
	{"ms", func(v float64) float64 { return v }},
	{"s", func(v float64) float64 { return v * 1e3 }},
}

// ParseDuration parses a duration as printed by time.Duration.String
// and returns it in milliseconds.
func ParseDuration(s string) (float64, error) {
	s = strings.TrimSpace(s)
	for _, u := range durationUnits {
		if !strings.HasSuffix(s, u.suffix) {
			continue
		}
		if v, err := strconv.ParseFloat(strings.TrimSuffix(s, u.suffix), 64); err == nil && v >= 0 {
			return u.toMs(v), nil
		}
		break
	}
	// Composite forms such as "1m2.5s".
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return float64(d) / float64(time.Millisecond), nil
}
