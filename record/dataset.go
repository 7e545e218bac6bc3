// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package record

// LoadStats counts what happened to the files of a Dataset while it
// was loaded.
type LoadStats struct {
	// Files is the number of candidate files considered.
	Files int
	// Parsed is the number of files that produced records.
	Parsed int
	// Mismatched is the number of files that were read but yielded
	// no records.
	Mismatched int
	// Unreadable is the number of files that could not be read.
	Unreadable int
	// Skipped is the number of files skipped because a required
	// external tool was unavailable.
	Skipped int
	// Partial is the number of dropped lines or blocks across all
	// files.
	Partial int
}

// Add returns the sum of s and t.
func (s LoadStats) Add(t LoadStats) LoadStats {
	return LoadStats{
		Files:      s.Files + t.Files,
		Parsed:     s.Parsed + t.Parsed,
		Mismatched: s.Mismatched + t.Mismatched,
		Unreadable: s.Unreadable + t.Unreadable,
		Skipped:    s.Skipped + t.Skipped,
		Partial:    s.Partial + t.Partial,
	}
}

// A Dataset is an ordered, immutable collection of Records produced
// from one input directory or run. It is indexed by group and by
// source file.
//
// A Dataset must not be modified once constructed; its accessors
// return copies of internal slices.
type Dataset struct {
	dir     string
	records []*Record
	stats   LoadStats

	groups  []string
	byGroup map[string][]int
	files   []string
	byFile  map[string][]int
}

// NewDataset returns a Dataset over records, in the given order. dir
// names the input the records came from.
func NewDataset(dir string, records []*Record, stats LoadStats) *Dataset {
	d := &Dataset{
		dir:     dir,
		records: append([]*Record(nil), records...),
		stats:   stats,
		byGroup: make(map[string][]int),
		byFile:  make(map[string][]int),
	}
	for i, r := range d.records {
		if _, ok := d.byGroup[r.Group]; !ok {
			d.groups = append(d.groups, r.Group)
		}
		d.byGroup[r.Group] = append(d.byGroup[r.Group], i)
		if _, ok := d.byFile[r.File]; !ok {
			d.files = append(d.files, r.File)
		}
		d.byFile[r.File] = append(d.byFile[r.File], i)
	}
	return d
}

// Dir returns the name of the input directory.
func (d *Dataset) Dir() string { return d.dir }

// Len returns the number of records in d.
func (d *Dataset) Len() int { return len(d.records) }

// Stats returns the load statistics of d.
func (d *Dataset) Stats() LoadStats { return d.stats }

// Records returns all records of d in order.
func (d *Dataset) Records() []*Record {
	return append([]*Record(nil), d.records...)
}

// Groups returns the distinct groups of d in order of first
// appearance.
func (d *Dataset) Groups() []string {
	return append([]string(nil), d.groups...)
}

// Group returns the records of group name in order.
func (d *Dataset) Group(name string) []*Record {
	return d.pick(d.byGroup[name])
}

// Files returns the distinct source files of d in order of first
// appearance.
func (d *Dataset) Files() []string {
	return append([]string(nil), d.files...)
}

// File returns the records read from file name in order.
func (d *Dataset) File(name string) []*Record {
	return d.pick(d.byFile[name])
}

func (d *Dataset) pick(idx []int) []*Record {
	if len(idx) == 0 {
		return nil
	}
	out := make([]*Record, len(idx))
	for i, j := range idx {
		out[i] = d.records[j]
	}
	return out
}
