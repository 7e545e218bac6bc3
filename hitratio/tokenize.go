// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hitratio parses the verbose output of cache hit-ratio tests
// into normalized records.
//
// A hit-ratio log is the output of "go test -v" over a set of
// simulation tests, each of which logs a block of statistics:
//
//	=== RUN   TestZipfLow/Size5000_LRU
//	    zipf_test.go:61: 测试结果:
//	    zipf_test.go:62: 总操作数: 1000000
//	    zipf_test.go:64: 命中数: 812345
//	    ...
//
// Parsing happens in two phases. Tokenize locates test markers and
// statistics blocks as spans of the input. Each statistics block is
// then parsed by Extract, and its parameters are resolved by a Resolver
// from the text between the block and the test marker preceding it.
package hitratio

import "strings"

// A SpanKind identifies what a Span covers.
type SpanKind int

const (
	// TestStart spans cover a single "=== RUN" line, or a
	// "=== CONT" or "=== NAME" line that resumes a test's output.
	TestStart SpanKind = iota + 1
	// Stats spans cover a statistics block, from its header line
	// to the next marker of either kind.
	Stats
)

func (k SpanKind) String() string {
	switch k {
	case TestStart:
		return "TestStart"
	case Stats:
		return "Stats"
	}
	return "SpanKind(?)"
}

// A Span is a region of a log, given as byte offsets into the log text.
type Span struct {
	Kind       SpanKind
	Start, End int
	// Line is the 1-based line number of the span's first line.
	Line int
}

var (
	testMarkers  = []string{"=== RUN", "=== CONT", "=== NAME"}
	statsMarkers = []string{"测试结果:", "测试结果：", "Test results:"}
)

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Tokenize returns the marker spans of text in order of appearance.
func Tokenize(text string) []Span {
	var spans []Span
	// open is the index of the Stats span still being extended, or -1.
	open := -1
	closeOpen := func(end int) {
		if open >= 0 {
			spans[open].End = end
			open = -1
		}
	}
	for off, line := 0, 1; off < len(text); line++ {
		eol := strings.IndexByte(text[off:], '\n')
		next := len(text)
		if eol >= 0 {
			next = off + eol + 1
		}
		content := text[off:next]
		switch {
		case containsAny(content, testMarkers):
			closeOpen(off)
			spans = append(spans, Span{Kind: TestStart, Start: off, End: next, Line: line})
		case containsAny(content, statsMarkers):
			closeOpen(off)
			open = len(spans)
			spans = append(spans, Span{Kind: Stats, Start: off, Line: line})
		}
		off = next
	}
	closeOpen(len(text))
	return spans
}

// Context returns the text between the test marker nearest before
// spans[i] and the start of spans[i]. It returns "" if no test marker
// precedes spans[i].
func Context(text string, spans []Span, i int) string {
	for j := i - 1; j >= 0; j-- {
		if spans[j].Kind == TestStart {
			return text[spans[j].Start:spans[i].Start]
		}
	}
	return ""
}
