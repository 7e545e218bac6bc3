// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package benchfmt reads Go benchmark text dumps into normalized
// records.
//
// A benchmark line consists of a name token beginning with
// "Benchmark", an optional "-N" parallelism suffix, an iteration count,
// a nanoseconds-per-operation measurement, and optional
// bytes-per-operation and allocations-per-operation measurements:
//
//	BenchmarkGet/size=1000/policy=lru-8   1000000   123.4 ns/op   16 B/op   1 allocs/op
//
// Each "/key=value" segment of the name becomes a record parameter and
// the base name before the first "/" becomes the record's group.
package benchfmt

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/hcache/cachestat/metadata"
	"github.com/hcache/cachestat/record"
)

// A Record is a single item read from a benchmark file. It is either a
// *record.Record or a *record.PartialParseError.
type Record interface {
	// Pos returns the position of this record as a file name and a
	// 1-based line number within that file.
	Pos() (fileName string, line int)
}

var _ Record = (*record.Record)(nil)
var _ Record = (*record.PartialParseError)(nil)

// A Reader reads benchmark lines from a text dump.
//
// Its API is modeled on bufio.Scanner. Unlike a bufio.Scanner, every
// record returned by Result is freshly allocated and may be retained.
type Reader struct {
	s    *bufio.Scanner
	err  error // current I/O error
	meta metadata.File
	file string
	line int
	cur  Record
}

var noResult = &record.PartialParseError{Msg: "Reader.Scan has not been called"}

// errSkip is returned by parseBenchmarkLine for lines that look like
// benchmarks but carry no measurements.
var errSkip = &record.PartialParseError{Msg: "skip line"}

// NewReader constructs a reader to parse benchmark lines from r.
// fileName is used in records and errors, and for inferring the test
// type and date of the results.
func NewReader(r io.Reader, fileName string) *Reader {
	reader := new(Reader)
	reader.Reset(r, fileName)
	return reader
}

// Reset resets the reader to begin reading from a new input.
func (r *Reader) Reset(ior io.Reader, fileName string) {
	r.s = bufio.NewScanner(ior)
	r.s.Buffer(nil, 1<<20)
	if fileName == "" {
		fileName = "<unknown>"
	}
	r.err = nil
	r.meta = metadata.Benchmark(fileName)
	r.file = fileName
	r.line = 0
	r.cur = nil
}

func (r *Reader) newSyntaxError(msg string) *record.PartialParseError {
	return &record.PartialParseError{File: r.file, Line: r.line, Msg: msg}
}

var benchmarkPrefix = []byte("Benchmark")

// Scan advances the reader to the next result and reports whether a
// result was read. The caller should use the Result method to get the
// result. If Scan reaches EOF or an I/O error occurs, it returns false,
// in which case the caller should use the Err method to check for
// errors.
//
// Lines that do not begin with "Benchmark" are ignored.
func (r *Reader) Scan() bool {
	if r.err != nil {
		return false
	}
	for r.s.Scan() {
		r.line++
		line := r.s.Bytes()
		if !bytes.HasPrefix(line, benchmarkPrefix) {
			continue
		}
		rec, err := r.parseBenchmarkLine(line)
		if err == errSkip {
			continue
		}
		if err != nil {
			r.cur = err
		} else {
			r.cur = rec
		}
		return true
	}
	if err := r.s.Err(); err != nil {
		r.err = fmt.Errorf("%s:%d: %w", r.file, r.line, err)
	}
	return false
}

// Result returns the record that was just read by Scan. This is either
// a *record.Record or a *record.PartialParseError indicating a
// malformed benchmark line.
//
// Parse errors are non-fatal, so the caller can continue to call Scan.
func (r *Reader) Result() Record {
	if r.cur == nil {
		return noResult
	}
	return r.cur
}

// Err returns the first non-EOF I/O error that was encountered by the
// Reader.
func (r *Reader) Err() error {
	return r.err
}

// parseBenchmarkLine parses line as a benchmark result. The caller must
// have already checked that line begins with "Benchmark".
func (r *Reader) parseBenchmarkLine(line []byte) (*record.Record, *record.PartialParseError) {
	var f []byte

	lineLen := len(line)
	f, line = splitField(line)

	// As a special case, if the name is the entire line, we ignore
	// it. This happens in "go test -v" output, which prints the
	// benchmark name immediately followed by a newline when the
	// benchmark starts.
	if len(line) == 0 && len(f) == lineLen {
		return nil, errSkip
	}
	name := Name(f)
	if len(name.Base()) == len(benchmarkPrefix) {
		return nil, r.newSyntaxError("missing benchmark name")
	}

	// Read the iteration count.
	f, line = splitField(line)
	if len(f) == 0 {
		return nil, r.newSyntaxError("missing iteration count")
	}
	iters, err := strconv.ParseInt(string(f), 10, 64)
	if err != nil {
		return nil, r.newSyntaxError("parsing iteration count: " + err.(*strconv.NumError).Err.Error())
	}

	rec := &record.Record{
		Kind:    record.Benchmark,
		Params:  record.Params{},
		Metrics: record.Metrics{"iterations": float64(iters)},
		Time:    r.meta.Time,
		File:    r.file,
		Line:    r.line,
	}
	for k, v := range r.meta.Params {
		rec.Params[k] = v
	}
	base, params := name.Params()
	rec.Group = base
	for k, v := range params {
		rec.Params[k] = v
	}

	// Read value/unit pairs.
	n := 0
	for {
		f, line = splitField(line)
		if len(f) == 0 {
			if n > 0 {
				break
			}
			return nil, r.newSyntaxError("missing measurements")
		}
		val, err := atof(f)
		if err != nil {
			return nil, r.newSyntaxError("parsing measurement: " + err.(*strconv.NumError).Err.Error())
		}
		f, line = splitField(line)
		if len(f) == 0 {
			return nil, r.newSyntaxError("missing units")
		}
		rec.Metrics[metricName(string(f))] = val
		n++
	}
	if _, ok := rec.Metrics["ns_per_op"]; !ok {
		return nil, r.newSyntaxError("missing ns/op measurement")
	}
	for _, m := range []string{"bytes_per_op", "allocs_per_op"} {
		if _, ok := rec.Metrics[m]; !ok {
			rec.Metrics[m] = 0
		}
	}
	if err := rec.Validate(); err != nil {
		return nil, r.newSyntaxError(err.Error())
	}
	return rec, nil
}

// Parse reads every benchmark line of r. Malformed benchmark lines are
// collected in the batch's Partial list; an I/O error is returned as a
// *record.FileReadError.
func Parse(r io.Reader, fileName string) (*record.Batch, error) {
	b := &record.Batch{File: fileName, Kind: record.Benchmark}
	rd := NewReader(r, fileName)
	for rd.Scan() {
		switch res := rd.Result().(type) {
		case *record.Record:
			b.Records = append(b.Records, res)
		case *record.PartialParseError:
			b.Partial = append(b.Partial, res)
		}
	}
	if err := rd.Err(); err != nil {
		return nil, &record.FileReadError{File: fileName, Err: err}
	}
	return b, nil
}

// Parsing helpers.

// atof parses x as a float, taking a fast path for integers.
func atof(x []byte) (float64, error) {
	var val int64
	for _, ch := range x {
		digit := ch - '0'
		if digit >= 10 {
			goto fail
		}
		if val > (math.MaxInt64-10)/10 {
			goto fail // avoid int64 overflow
		}
		val = (val * 10) + int64(digit)
	}
	if len(x) > 0 {
		return float64(val), nil
	}

fail:
	return strconv.ParseFloat(string(x), 64)
}

const isSpace uint64 = 1<<'\t' | 1<<'\n' | 1<<'\v' | 1<<'\f' | 1<<'\r' | 1<<' '

// splitField consumes and returns non-whitespace in x as field,
// consumes whitespace following the field, and then returns the
// remaining bytes of x.
func splitField(x []byte) (field, rest []byte) {
	// Collect non-whitespace into field.
	var i int
	for i = 0; i < len(x); {
		if x[i] < utf8.RuneSelf {
			// Fast path for ASCII
			if (isSpace>>x[i])&1 != 0 {
				rest = x[i+1:]
				break
			}
			i++
		} else {
			// Slow path for Unicode
			r, n := utf8.DecodeRune(x[i:])
			if unicode.IsSpace(r) {
				rest = x[i+n:]
				break
			}
			i += n
		}
	}
	field = x[:i]

	// Strip whitespace from rest.
	for len(rest) > 0 {
		if rest[0] < utf8.RuneSelf {
			if (isSpace>>rest[0])&1 == 0 {
				break
			}
			rest = rest[1:]
		} else {
			r, n := utf8.DecodeRune(rest)
			if !unicode.IsSpace(r) {
				break
			}
			rest = rest[n:]
		}
	}
	return
}
