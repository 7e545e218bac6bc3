// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package metadata infers categorical metadata about test artifacts
// from file names and surrounding text.
//
// Inference is expressed as ordered rule lists. A Keywords list is a
// sequence of (predicate, value) pairs evaluated top to bottom, where
// the first match wins; a Rules list is a sequence of named regular
// expressions, each resolving one parameter. In both cases the order
// of the list is significant and the result is a record.Param tagged
// as either resolved or defaulted.
package metadata

import (
	"regexp"
	"strings"

	"github.com/hcache/cachestat/record"
)

// A Keyword maps strings satisfying Match to Value.
type Keyword struct {
	Match func(s string) bool
	Value string
}

// Contains returns a Keyword matching strings that contain sub.
// Matching is case-sensitive.
func Contains(sub, value string) Keyword {
	return Keyword{func(s string) bool { return strings.Contains(s, sub) }, value}
}

// ContainsFold returns a Keyword matching strings that contain sub,
// ignoring case. sub must be lower case.
func ContainsFold(sub, value string) Keyword {
	return Keyword{func(s string) bool { return strings.Contains(strings.ToLower(s), sub) }, value}
}

// Keywords is an ordered list of Keyword rules.
type Keywords []Keyword

// Resolve returns the value of the first keyword in ks that matches
// s. If none match, it returns def tagged as a default. Numeric keyword
// values yield numeric parameters.
func (ks Keywords) Resolve(s string, def record.Param) record.Param {
	for _, k := range ks {
		if k.Match(s) {
			return record.Parse(k.Value)
		}
	}
	return def.AsDefault()
}

// A Rule resolves the parameter Name from the first match of Pattern.
// Convert turns the submatches into a parameter value; if it is nil,
// the first submatch is used as a string value.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Convert func(m []string) (record.Param, bool)
}

// Match applies r to s.
func (r Rule) Match(s string) (record.Param, bool) {
	m := r.Pattern.FindStringSubmatch(s)
	if m == nil {
		return record.Param{}, false
	}
	if r.Convert == nil {
		if len(m) < 2 {
			return record.Str(m[0]), true
		}
		return record.Str(m[1]), true
	}
	return r.Convert(m)
}

// Rules is an ordered list of Rule values.
type Rules []Rule

// Apply evaluates every rule in rs against s, storing resolved
// parameters in into. It returns the names of rules that did not
// match, in rule order.
func (rs Rules) Apply(s string, into record.Params) (missing []string) {
	for _, r := range rs {
		if p, ok := r.Match(s); ok {
			into[r.Name] = p
		} else {
			missing = append(missing, r.Name)
		}
	}
	return missing
}
