// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package aggregate

import "fmt"

// Better reports whether value a is better than value b.
type Better func(a, b float64) bool

var (
	// Lower prefers smaller values, as for latencies.
	Lower Better = func(a, b float64) bool { return a < b }
	// Higher prefers larger values, as for hit ratios.
	Higher Better = func(a, b float64) bool { return a > b }
)

// A Choice is the best group within one partition.
type Choice struct {
	// Partition holds the values of the partition keys.
	Partition []string

	// Group is the winning group and Value its statistic.
	Group *Group
	Value float64
}

// Best partitions the groups of res by the partition keys and picks,
// in each partition, the group whose stat of metric is best. Ties go
// to the group that appears first. Partitions are in order of first
// appearance and groups lacking metric are ignored.
//
// For example, with res keyed by (distribution, policy), Best(res,
// []string{"distribution"}, "hit_ratio", Mean, Higher) finds the
// policy with the highest mean hit ratio for every distribution.
func Best(res *Result, partition []string, metric string, stat Stat, better Better) ([]*Choice, error) {
	var idx []int
	for _, k := range partition {
		i := -1
		for j, rk := range res.Keys {
			if rk == k {
				i = j
				break
			}
		}
		if i < 0 {
			return nil, fmt.Errorf("partition key %q not in result keys %v", k, res.Keys)
		}
		idx = append(idx, i)
	}

	var out []*Choice
	byPart := map[string]*Choice{}
	for _, g := range res.Groups {
		s, ok := g.Summaries[metric]
		if !ok {
			continue
		}
		v, err := s.Get(stat)
		if err != nil {
			return nil, err
		}
		part := make([]string, len(idx))
		for i, j := range idx {
			part[i] = g.Key[j]
		}
		k := joinKey(part)
		c := byPart[k]
		if c == nil {
			c = &Choice{Partition: part, Group: g, Value: v}
			byPart[k] = c
			out = append(out, c)
			continue
		}
		if better(v, c.Value) {
			c.Group, c.Value = g, v
		}
	}
	return out, nil
}
