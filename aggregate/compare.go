// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package aggregate

import (
	"math"

	"github.com/aclements/go-gg/table"
	"github.com/aclements/go-moremath/stats"
	"github.com/hcache/cachestat/record"
)

// A Comparison holds the differences between two runs for every key
// tuple and metric present in both.
type Comparison struct {
	Keys []string
	Rows []*Delta
}

// A Delta compares one metric of one key tuple across two runs.
type Delta struct {
	Key    []string
	Metric string

	// A and B are the group means in the first and second run.
	A, B float64

	// Delta is B - A.
	Delta float64

	// Percent is Delta relative to A, in percent. It is NaN if A
	// is 0.
	Percent float64

	// P is the p-value of a Mann-Whitney U-test of the two samples,
	// or NaN if the test cannot be computed.
	P float64

	// SummaryA and SummaryB are the full summaries of both sides.
	SummaryA, SummaryB *Summary
}

// Compare aggregates a and b by keys and compares the mean of every
// metric between them. Only key tuples and metrics present in both
// datasets are compared; nothing is zero-filled. Rows are in the order
// of a's groups.
func Compare(a, b *record.Dataset, keys, metrics []string) *Comparison {
	spec := Spec{Keys: keys, Metrics: metrics}
	return CompareResults(Aggregate(spec, a), Aggregate(spec, b))
}

// CompareResults compares two aggregation results with identical keys.
func CompareResults(ra, rb *Result) *Comparison {
	c := &Comparison{Keys: append([]string(nil), ra.Keys...)}

	sums := map[string]*Summary{}
	side := func(res *Result, prefix string) *table.Table {
		var ids []string
		var means []float64
		for _, g := range res.Groups {
			for _, m := range g.Metrics {
				id := joinKey(append(append([]string(nil), g.Key...), m))
				s := g.Summaries[m]
				sums[prefix+id] = s
				ids = append(ids, id)
				means = append(means, s.Mean)
			}
		}
		return table.NewBuilder(nil).Add("id", ids).Add(prefix, means).Done()
	}
	ta, tb := side(ra, "a"), side(rb, "b")
	if ta.Len() == 0 || tb.Len() == 0 {
		return c
	}

	j := table.Join(ta, "id", tb, "id")
	for _, gid := range j.Tables() {
		t := j.Table(gid)
		ids := t.MustColumn("id").([]string)
		as := t.MustColumn("a").([]float64)
		bs := t.MustColumn("b").([]float64)
		for i, id := range ids {
			key := splitKey(id)
			d := &Delta{
				Key:      key[:len(key)-1],
				Metric:   key[len(key)-1],
				A:        as[i],
				B:        bs[i],
				Delta:    bs[i] - as[i],
				Percent:  math.NaN(),
				SummaryA: sums["a"+id],
				SummaryB: sums["b"+id],
			}
			if d.A != 0 {
				d.Percent = d.Delta / d.A * 100
			}
			d.P = pValue(d.SummaryA.Values, d.SummaryB.Values)
			c.Rows = append(c.Rows, d)
		}
	}
	return c
}

func pValue(xs, ys []float64) float64 {
	if len(xs) == 0 || len(ys) == 0 {
		return math.NaN()
	}
	res, err := stats.MannWhitneyUTest(xs, ys, stats.LocationDiffers)
	if err != nil {
		return math.NaN()
	}
	return res.P
}
