// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package aggregate

import (
	"fmt"

	"github.com/aclements/go-gg/table"
)

// A Cell is one value of a pivoted table. OK is false for cells with
// no corresponding group.
type Cell struct {
	Value float64
	OK    bool
}

// A PivotTable shows one statistic of one metric with the values of
// RowKeys down the side and the values of ColKey across the top.
type PivotTable struct {
	RowKeys []string
	ColKey  string
	Metric  string
	Stat    Stat

	// Rows and Cols are the row key tuples and column values, in
	// order of first appearance.
	Rows [][]string
	Cols []string

	// Cells is indexed by row, then column.
	Cells [][]Cell
}

// Pivot lays out the stat of metric from res as a table. Every key of
// res must be one of rowKeys or colKey, and each (row, column) pair
// must identify at most one group.
func Pivot(res *Result, rowKeys []string, colKey, metric string, stat Stat) (*PivotTable, error) {
	idx := map[string]int{}
	for i, k := range res.Keys {
		idx[k] = i
	}
	var rowIdx []int
	for _, k := range rowKeys {
		i, ok := idx[k]
		if !ok {
			return nil, fmt.Errorf("row key %q not in result keys %v", k, res.Keys)
		}
		rowIdx = append(rowIdx, i)
	}
	colIdx, ok := idx[colKey]
	if !ok {
		return nil, fmt.Errorf("column key %q not in result keys %v", colKey, res.Keys)
	}
	if len(rowKeys)+1 != len(res.Keys) {
		return nil, fmt.Errorf("pivot on %v and %q does not cover result keys %v", rowKeys, colKey, res.Keys)
	}

	pt := &PivotTable{RowKeys: rowKeys, ColKey: colKey, Metric: metric, Stat: stat}
	var rows, cols []string
	var cells []Cell
	seen := map[[2]string]bool{}
	for _, g := range res.Groups {
		s, ok := g.Summaries[metric]
		if !ok {
			continue
		}
		v, err := s.Get(stat)
		if err != nil {
			return nil, err
		}
		rk := make([]string, len(rowIdx))
		for i, j := range rowIdx {
			rk[i] = g.Key[j]
		}
		row, col := joinKey(rk), g.Key[colIdx]
		if seen[[2]string{row, col}] {
			return nil, fmt.Errorf("duplicate cell (%s, %s)", rk, col)
		}
		seen[[2]string{row, col}] = true
		rows = append(rows, row)
		cols = append(cols, col)
		cells = append(cells, Cell{v, true})
	}
	if len(rows) == 0 {
		return pt, nil
	}

	t := table.NewBuilder(nil).Add(".row", rows).Add(".col", cols).Add(".cell", cells).Done()
	p := table.Pivot(t, ".col", ".cell")
	for _, gid := range p.Tables() {
		pv := p.Table(gid)
		for _, c := range pv.Columns() {
			if c != ".row" {
				pt.Cols = append(pt.Cols, c)
			}
		}
		for _, row := range pv.MustColumn(".row").([]string) {
			if len(rowKeys) == 0 {
				pt.Rows = append(pt.Rows, []string{})
				continue
			}
			pt.Rows = append(pt.Rows, splitKey(row))
		}
		pt.Cells = make([][]Cell, pv.Len())
		for _, c := range pt.Cols {
			for i, cell := range pv.MustColumn(c).([]Cell) {
				pt.Cells[i] = append(pt.Cells[i], cell)
			}
		}
	}
	return pt, nil
}
