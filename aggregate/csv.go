// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package aggregate

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"
)

// CSVOptions controls CSV output. The zero value writes comma-separated
// values with the shortest exact float representation.
type CSVOptions struct {
	// Precision is the number of digits after the decimal point,
	// or -1 for the shortest representation. The zero value of
	// CSVOptions is treated as -1; use Fixed to request 0.
	Precision int
	Fixed     bool

	// Comma is the field delimiter, ',' if zero.
	Comma rune
}

// Format formats v as o specifies.
func (o CSVOptions) Format(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	prec := o.Precision
	if !o.Fixed && prec == 0 {
		prec = -1
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}

func (o CSVOptions) writer(w io.Writer) *csv.Writer {
	cw := csv.NewWriter(w)
	if o.Comma != 0 {
		cw.Comma = o.Comma
	}
	return cw
}

// WriteCSV writes res to w, one row per group and metric, with columns
// for each key, the metric name, and each of Stats.
func WriteCSV(w io.Writer, res *Result, opts CSVOptions) error {
	cw := opts.writer(w)
	hdr := append([]string(nil), res.Keys...)
	hdr = append(hdr, "metric")
	for _, st := range Stats {
		hdr = append(hdr, string(st))
	}
	if err := cw.Write(hdr); err != nil {
		return err
	}
	for _, g := range res.Groups {
		for _, m := range g.Metrics {
			row := append([]string(nil), g.Key...)
			row = append(row, m)
			s := g.Summaries[m]
			for _, st := range Stats {
				v, _ := s.Get(st)
				row = append(row, opts.Format(v))
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteComparisonCSV writes c to w, one row per delta, with columns for
// each key, the metric name, a, b, delta and percent.
func WriteComparisonCSV(w io.Writer, c *Comparison, opts CSVOptions) error {
	cw := opts.writer(w)
	hdr := append([]string(nil), c.Keys...)
	hdr = append(hdr, "metric", "a", "b", "delta", "percent")
	if err := cw.Write(hdr); err != nil {
		return err
	}
	for _, d := range c.Rows {
		row := append([]string(nil), d.Key...)
		row = append(row, d.Metric, opts.Format(d.A), opts.Format(d.B), opts.Format(d.Delta), opts.Format(d.Percent))
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WritePivotCSV writes pt to w with one column per row key followed by
// one column per column value. Absent cells are left empty.
func WritePivotCSV(w io.Writer, pt *PivotTable, opts CSVOptions) error {
	cw := opts.writer(w)
	hdr := append([]string(nil), pt.RowKeys...)
	hdr = append(hdr, pt.Cols...)
	if err := cw.Write(hdr); err != nil {
		return err
	}
	for i, rk := range pt.Rows {
		row := append([]string(nil), rk...)
		for _, c := range pt.Cells[i] {
			if c.OK {
				row = append(row, opts.Format(c.Value))
			} else {
				row = append(row, "")
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
