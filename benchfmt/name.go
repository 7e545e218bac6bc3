// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchfmt

import (
	"bytes"
	"strconv"
	"strings"
	"unicode"

	"github.com/hcache/cachestat/record"
)

// A Name is a full benchmark name, including all sub-benchmark
// configuration.
type Name []byte

// String returns the full benchmark name as a string.
func (n Name) String() string {
	return string(n)
}

// Base returns the base part of a full benchmark name, without any
// configuration keys or GOMAXPROCS.
func (n Name) Base() []byte {
	slash := bytes.IndexByte(n, '/')
	if slash >= 0 {
		return n[:slash]
	}
	base, _ := n.splitGomaxprocs()
	return base
}

// Parts splits a benchmark name into the base name and sub-benchmark
// configuration parts. Each sub-benchmark configuration part is one
// of three forms:
//
// 1. "/<key>=<value>" indicates a key/value configuration pair.
//
// 2. "/<string>" indicates a positional configuration pair.
//
// 3. "-<gomaxprocs>" indicates the GOMAXPROCS of this benchmark. This
// part can only appear last.
//
// Concatenating the base name and the configuration parts
// reconstructs the full name.
func (n Name) Parts() (baseName []byte, parts [][]byte) {
	buf, gomaxprocs := n.splitGomaxprocs()
	var nameParts [][]byte
	prev := 0
	for i, c := range buf {
		if c == '/' {
			nameParts = append(nameParts, buf[prev:i])
			prev = i
		}
	}
	nameParts = append(nameParts, buf[prev:])
	if gomaxprocs != nil {
		nameParts = append(nameParts, gomaxprocs)
	}
	return nameParts[0], nameParts[1:]
}

// Params returns the base name of n and the parameters encoded in it.
// Every "/key=value" part becomes a parameter; positional parts are
// ignored. The "-N" suffix becomes the "procs" parameter, which
// defaults to 1.
func (n Name) Params() (base string, params record.Params) {
	b, parts := n.Parts()
	params = record.Params{"procs": record.Int(1).AsDefault()}
	for _, part := range parts {
		switch part[0] {
		case '-':
			if procs, err := strconv.ParseInt(string(part[1:]), 10, 64); err == nil {
				params["procs"] = record.Int(procs)
			}
		case '/':
			kv := string(part[1:])
			i := strings.IndexByte(kv, '=')
			if i <= 0 {
				continue
			}
			params[kv[:i]] = record.Parse(kv[i+1:])
		}
	}
	return string(b), params
}

func (n Name) splitGomaxprocs() (prefix, gomaxprocs []byte) {
	for i := len(n) - 1; i >= 0; i-- {
		if n[i] == '-' && i < len(n)-1 {
			return n[:i], n[i:]
		}
		if !('0' <= n[i] && n[i] <= '9') {
			// Not a digit.
			break
		}
	}
	return n, nil
}

var unitMetrics = map[string]string{
	"ns/op":     "ns_per_op",
	"B/op":      "bytes_per_op",
	"allocs/op": "allocs_per_op",
}

// metricName returns the metric name for measurements in unit. Units
// other than the standard ones are lower-cased, with "/" spelled
// "_per_" and other punctuation replaced by "_", so "MB/s" becomes
// "mb_per_s".
func metricName(unit string) string {
	if m, ok := unitMetrics[unit]; ok {
		return m
	}
	var b strings.Builder
	for i, part := range strings.Split(unit, "/") {
		if i > 0 {
			b.WriteString("_per_")
		}
		for _, r := range strings.ToLower(part) {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				b.WriteRune(r)
			} else {
				b.WriteByte('_')
			}
		}
	}
	return b.String()
}
