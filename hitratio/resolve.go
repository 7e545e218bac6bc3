// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hitratio

import (
	"regexp"

	"github.com/hcache/cachestat/metadata"
	"github.com/hcache/cachestat/record"
)

// A Resolver infers the parameters of a statistics block from its
// context, the text of the test that produced it.
type Resolver struct {
	Distribution metadata.Keywords
	Policy       metadata.Keywords

	// Size resolves the cache size from an explicit size in the
	// test name. If it does not match, SizeClasses is consulted,
	// and then DefaultSize.
	Size        metadata.Rule
	SizeClasses metadata.Keywords
	DefaultSize int64

	// TestName resolves the test name, which is also the group key.
	TestName metadata.Rule
}

// DefaultResolver recognizes the test naming scheme of the hit-ratio
// simulation suite.
var DefaultResolver = &Resolver{
	Distribution: metadata.Keywords{
		metadata.Contains("ZipfLow", "zipf-1.07"),
		metadata.Contains("ZipfHigh", "zipf-1.2"),
		metadata.Contains("Uniform", "uniform"),
	},
	Policy: metadata.Keywords{
		metadata.Contains("LRU", "lru"),
		metadata.Contains("LFU", "lfu"),
		metadata.Contains("FIFO", "fifo"),
		metadata.Contains("Random", "random"),
	},
	Size: metadata.Rule{
		Name:    "cache_size",
		Pattern: regexp.MustCompile(`Size(\d+)`),
		Convert: func(m []string) (record.Param, bool) {
			p := record.Parse(m[1])
			return p, p.Numeric
		},
	},
	SizeClasses: metadata.Keywords{
		metadata.ContainsFold("small", "1000"),
		metadata.ContainsFold("large", "100000"),
	},
	DefaultSize: 10000,
	TestName: metadata.Rule{
		Name:    "test_name",
		Pattern: regexp.MustCompile(`Test(\w+)`),
	},
}

// Resolve returns the distribution, policy, cache_size and test_name
// parameters for a block with the given context. Parameters that
// cannot be resolved are tagged as defaults.
func (r *Resolver) Resolve(context string) record.Params {
	unknown := record.Str(record.UnknownValue)
	p := record.Params{
		"distribution": r.Distribution.Resolve(context, unknown),
		"policy":       r.Policy.Resolve(context, unknown),
	}
	if size, ok := r.Size.Match(context); ok {
		p["cache_size"] = size
	} else {
		p["cache_size"] = r.SizeClasses.Resolve(context, record.Int(r.DefaultSize))
	}
	if name, ok := r.TestName.Match(context); ok {
		p["test_name"] = name
	} else {
		p["test_name"] = unknown.AsDefault()
	}
	return p
}
