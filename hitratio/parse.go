// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hitratio

import (
	"io"

	"github.com/hcache/cachestat/metadata"
	"github.com/hcache/cachestat/record"
)

// A Parser parses hit-ratio logs.
type Parser struct {
	// Resolver resolves block parameters. If nil, DefaultResolver
	// is used.
	Resolver *Resolver
}

// Parse reads the hit-ratio log r using the default resolver.
func Parse(r io.Reader, fileName string) (*record.Batch, error) {
	return new(Parser).Parse(r, fileName)
}

// Parse reads the hit-ratio log r. Blocks that do not match the block
// grammar, or whose ratios are out of range, are collected in the
// batch's Partial list.
func (p *Parser) Parse(r io.Reader, fileName string) (*record.Batch, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &record.FileReadError{File: fileName, Err: err}
	}
	res := p.Resolver
	if res == nil {
		res = DefaultResolver
	}
	meta := metadata.HitRatio(fileName)
	text := string(data)

	b := &record.Batch{File: fileName, Kind: record.HitRatio}
	spans := Tokenize(text)
	for i, sp := range spans {
		if sp.Kind != Stats {
			continue
		}
		blk, err := Extract(text[sp.Start:sp.End])
		if err != nil {
			b.Partial = append(b.Partial, &record.PartialParseError{File: fileName, Line: sp.Line, Msg: err.Error()})
			continue
		}
		params := res.Resolve(Context(text, spans, i))
		rec := &record.Record{
			Kind:    record.HitRatio,
			Group:   params.Value("test_name"),
			Params:  params,
			Metrics: blk.Metrics(),
			Time:    meta.Time,
			File:    fileName,
			Line:    sp.Line,
		}
		if err := rec.Validate(); err != nil {
			b.Partial = append(b.Partial, &record.PartialParseError{File: fileName, Line: sp.Line, Msg: err.Error()})
			continue
		}
		b.Records = append(b.Records, rec)
	}
	return b, nil
}
