// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package metrics counts the work done by a load: files by outcome,
// records, partial errors and defaulted parameters.
//
// Counters are registered on a caller-supplied registry and never feed
// back into results. A nil *Metrics is valid and counts nothing.
package metrics

import (
	"github.com/hcache/cachestat/record"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cachestat"

// An Outcome classifies what happened to one candidate file.
type Outcome string

const (
	Parsed     Outcome = "parsed"
	Mismatched Outcome = "mismatched"
	Unreadable Outcome = "unreadable"
	Skipped    Outcome = "skipped"
)

// Metrics holds the load counters.
type Metrics struct {
	reg prometheus.Gatherer

	Files           *prometheus.CounterVec
	Records         *prometheus.CounterVec
	PartialErrors   *prometheus.CounterVec
	ParamDefaults   *prometheus.CounterVec
	ToolUnavailable prometheus.Counter
}

// New registers the load counters on reg.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		Files: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_total",
			Help:      "Candidate files by kind and outcome.",
		}, []string{"kind", "outcome"}),
		Records: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Records parsed by kind.",
		}, []string{"kind"}),
		PartialErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "partial_errors_total",
			Help:      "Lines or blocks that failed to parse, by kind.",
		}, []string{"kind"}),
		ParamDefaults: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "param_defaults_total",
			Help:      "Parameters that took their default value, by kind and parameter.",
		}, []string{"kind", "param"}),
		ToolUnavailable: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_unavailable_total",
			Help:      "Profile analyses skipped or rerouted because the external tool failed.",
		}),
	}
}

// File counts one candidate file.
func (m *Metrics) File(kind record.Kind, o Outcome) {
	if m == nil {
		return
	}
	m.Files.WithLabelValues(kind.String(), string(o)).Inc()
}

// Batch counts the records, partial errors and defaulted parameters
// of b.
func (m *Metrics) Batch(b *record.Batch) {
	if m == nil {
		return
	}
	kind := b.Kind.String()
	m.Records.WithLabelValues(kind).Add(float64(len(b.Records)))
	m.PartialErrors.WithLabelValues(kind).Add(float64(len(b.Partial)))
	for _, r := range b.Records {
		for _, p := range r.Params.Defaults() {
			m.ParamDefaults.WithLabelValues(kind, p).Inc()
		}
	}
}

// ToolFailed counts one failed invocation of an external tool.
func (m *Metrics) ToolFailed(*record.ToolUnavailableError) {
	if m == nil {
		return
	}
	m.ToolUnavailable.Inc()
}

// WriteTextfile writes the counters to path in the Prometheus text
// format, for collection by a node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.reg)
}
