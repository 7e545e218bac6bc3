// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hitratio

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/hcache/cachestat/record"
)

// Block is the content of one statistics block.
type Block struct {
	TotalOps      int64
	Hits          int64
	Misses        int64
	HitRatio      float64 // percent
	Evictions     int64
	EvictionRatio float64 // percent
	DurationMs    float64
}

type field struct {
	name string
	re   *regexp.Regexp
}

func newField(name, labels, value string) field {
	re := regexp.MustCompile(`(?:` + labels + `)\s*[:：]\s*(?P<` + name + `>` + value + `)`)
	return field{name, re}
}

const (
	count   = `\d+`
	percent = `[0-9]+(?:\.[0-9]*)?`
)

// fields is the block grammar. Each field is searched for after the
// end of the previous one. The hits label excludes a preceding "未" so
// that it never matches inside the misses label.
var fields = []field{
	newField("total", `总操作数|Total operations`, count),
	newField("hits", `(?:^|[^未])命中数|Hits`, count),
	newField("misses", `未命中数|Misses`, count),
	newField("hit_ratio", `命中率|Hit ratio`, percent+`%`),
	newField("evictions", `淘汰数|Evictions`, count),
	newField("eviction_ratio", `淘汰比率|Eviction ratio`, percent+`%`),
	newField("duration", `持续时间|Duration`, `\S+`),
}

// Extract parses the statistics block text.
func Extract(text string) (*Block, error) {
	vals := make(map[string]string, len(fields))
	pos := 0
	for _, f := range fields {
		m := f.re.FindStringSubmatchIndex(text[pos:])
		if m == nil {
			return nil, fmt.Errorf("missing %s", f.name)
		}
		i := f.re.SubexpIndex(f.name)
		vals[f.name] = text[pos+m[2*i] : pos+m[2*i+1]]
		pos += m[1]
	}

	var b Block
	var err error
	ints := []struct {
		name string
		dst  *int64
	}{
		{"total", &b.TotalOps},
		{"hits", &b.Hits},
		{"misses", &b.Misses},
		{"evictions", &b.Evictions},
	}
	for _, x := range ints {
		if *x.dst, err = strconv.ParseInt(vals[x.name], 10, 64); err != nil {
			return nil, fmt.Errorf("parsing %s: %v", x.name, err.(*strconv.NumError).Err)
		}
	}
	ratios := []struct {
		name string
		dst  *float64
	}{
		{"hit_ratio", &b.HitRatio},
		{"eviction_ratio", &b.EvictionRatio},
	}
	for _, x := range ratios {
		v := vals[x.name]
		if *x.dst, err = strconv.ParseFloat(v[:len(v)-1], 64); err != nil {
			return nil, fmt.Errorf("parsing %s: %v", x.name, err.(*strconv.NumError).Err)
		}
	}
	if b.DurationMs, err = ParseDuration(vals["duration"]); err != nil {
		return nil, fmt.Errorf("parsing duration: %v", err)
	}
	return &b, nil
}

// Metrics returns the metrics of b.
func (b *Block) Metrics() record.Metrics {
	return record.Metrics{
		"total_operations": float64(b.TotalOps),
		"hits":             float64(b.Hits),
		"misses":           float64(b.Misses),
		"hit_ratio":        b.HitRatio,
		"evictions":        float64(b.Evictions),
		"eviction_ratio":   b.EvictionRatio,
		"duration_ms":      b.DurationMs,
	}
}
