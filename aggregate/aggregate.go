// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package aggregate computes grouped descriptive statistics over
// datasets and compares datasets from two runs.
//
// Records are flattened into a long table with one row per (record,
// metric) and grouped with go-gg. A group is identified by the values
// of the requested key parameters; within a group, every metric is
// reduced to a Summary.
//
// Keys name record parameters, or one of the pseudo keys ".group",
// ".kind" and ".file", which select the record's group, kind and
// source file.
package aggregate

import (
	"strconv"
	"strings"

	"github.com/aclements/go-gg/table"
	"github.com/hcache/cachestat/record"
)

// Pseudo keys.
const (
	KeyGroup = ".group"
	KeyKind  = ".kind"
	KeyFile  = ".file"
)

// KeyValue returns the value of key for r.
func KeyValue(r *record.Record, key string) string {
	switch key {
	case KeyGroup:
		return r.Group
	case KeyKind:
		return r.Kind.String()
	case KeyFile:
		return r.File
	}
	return r.Params.Value(key)
}

// A Spec describes an aggregation.
type Spec struct {
	// Keys are the grouping keys, in order.
	Keys []string

	// Metrics are the metrics to summarize. If empty, every metric
	// is summarized.
	Metrics []string

	// Kind restricts the aggregation to records of one kind. The
	// zero value, record.Unknown, selects all records.
	Kind record.Kind
}

// A Group is the aggregate of the records sharing one key tuple.
type Group struct {
	// Key holds the value of each of the Result's keys.
	Key []string

	// Metrics lists the summarized metrics of the group in order
	// of first appearance.
	Metrics []string

	Summaries map[string]*Summary
}

// A Result is the outcome of Aggregate.
type Result struct {
	Keys   []string
	Groups []*Group

	index map[string]*Group
}

// Lookup returns the group with the given key values, or nil.
func (r *Result) Lookup(key ...string) *Group {
	return r.index[joinKey(key)]
}

// Metrics returns the metrics summarized in any group, in order of
// first appearance.
func (r *Result) Metrics() []string {
	var out []string
	seen := map[string]bool{}
	for _, g := range r.Groups {
		for _, m := range g.Metrics {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out
}

// keySep separates key values in composite keys. It cannot appear in
// values parsed from text artifacts.
const keySep = "\x1f"

func joinKey(vals []string) string {
	return strings.Join(vals, keySep)
}

func splitKey(s string) []string {
	return strings.Split(s, keySep)
}

func keyCol(i int) string {
	return "key" + strconv.Itoa(i)
}

// longTable flattens the selected records of datasets into a table
// with one column per key plus "metric" and "value" columns.
func longTable(spec Spec, datasets []*record.Dataset) (*table.Table, int) {
	keys := make([][]string, len(spec.Keys))
	var metrics []string
	var values []float64
	for _, ds := range datasets {
		for _, r := range ds.Records() {
			if spec.Kind != record.Unknown && r.Kind != spec.Kind {
				continue
			}
			names := spec.Metrics
			if len(names) == 0 {
				names = r.Metrics.Keys()
			}
			for _, m := range names {
				v, ok := r.Metrics[m]
				if !ok {
					continue
				}
				for i, k := range spec.Keys {
					keys[i] = append(keys[i], KeyValue(r, k))
				}
				metrics = append(metrics, m)
				values = append(values, v)
			}
		}
	}
	b := table.NewBuilder(nil)
	for i := range spec.Keys {
		b.Add(keyCol(i), keys[i])
	}
	b.Add("metric", metrics).Add("value", values)
	return b.Done(), len(values)
}

// Aggregate groups the records of datasets, in order, by spec.Keys
// and summarizes each metric within each group. Groups appear in order
// of first appearance of their leading key, then of each following
// key. Aggregate does not modify datasets.
func Aggregate(spec Spec, datasets ...*record.Dataset) *Result {
	res := &Result{Keys: append([]string(nil), spec.Keys...), index: map[string]*Group{}}
	t, n := longTable(spec, datasets)
	if n == 0 {
		return res
	}

	cols := make([]string, 0, len(spec.Keys)+1)
	for i := range spec.Keys {
		cols = append(cols, keyCol(i))
	}
	cols = append(cols, "metric")
	g := table.GroupBy(t, cols...)

	for _, gid := range g.Tables() {
		metric := gid.Label().(string)
		key := make([]string, len(spec.Keys))
		p := gid.Parent()
		for i := len(key) - 1; i >= 0; i-- {
			key[i] = p.Label().(string)
			p = p.Parent()
		}
		k := joinKey(key)
		grp := res.index[k]
		if grp == nil {
			grp = &Group{Key: key, Summaries: map[string]*Summary{}}
			res.index[k] = grp
			res.Groups = append(res.Groups, grp)
		}
		grp.Metrics = append(grp.Metrics, metric)
		grp.Summaries[metric] = Summarize(g.Table(gid).MustColumn("value").([]float64))
	}
	return res
}
