// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package influx exports aggregation results and raw records to
// InfluxDB.
package influx

import (
	"context"
	"fmt"
	"time"

	"github.com/hcache/cachestat/aggregate"
	"github.com/hcache/cachestat/record"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// DefaultMeasurement is the measurement written when Options leaves it
// empty.
const DefaultMeasurement = "cachestat"

// Options configures a Writer.
type Options struct {
	URL, Token  string
	Org, Bucket string
	Measurement string
}

// A Writer writes points to one InfluxDB bucket.
type Writer struct {
	client      influxdb2.Client
	writeAPI    api.WriteAPIBlocking
	measurement string
}

// NewWriter returns a Writer for opts. It does not contact the server.
func NewWriter(opts Options) (*Writer, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("influx: missing server URL")
	}
	if opts.Org == "" || opts.Bucket == "" {
		return nil, fmt.Errorf("influx: missing org or bucket")
	}
	m := opts.Measurement
	if m == "" {
		m = DefaultMeasurement
	}
	client := influxdb2.NewClient(opts.URL, opts.Token)
	return &Writer{
		client:      client,
		writeAPI:    client.WriteAPIBlocking(opts.Org, opts.Bucket),
		measurement: m,
	}, nil
}

// WriteResult writes one point per group and metric of res, all
// stamped with time at. The group's keys and the metric name become
// tags; the summary statistics become fields.
func (w *Writer) WriteResult(ctx context.Context, res *aggregate.Result, at time.Time) error {
	var points []*write.Point
	for _, g := range res.Groups {
		for _, m := range g.Metrics {
			s := g.Summaries[m]
			p := influxdb2.NewPointWithMeasurement(w.measurement)
			for i, k := range res.Keys {
				addTag(p, k, g.Key[i])
			}
			p.AddTag("metric", m).AddField("n", int64(s.N))
			for _, st := range aggregate.Stats {
				v, _ := s.Get(st)
				p.AddField(string(st), v)
			}
			points = append(points, p.SetTime(at))
		}
	}
	return w.write(ctx, points)
}

// WriteDataset writes one point per record of ds, stamped with the
// record's run time. Kind, group and parameters become tags; metrics
// become fields.
func (w *Writer) WriteDataset(ctx context.Context, ds *record.Dataset) error {
	var points []*write.Point
	for _, r := range ds.Records() {
		p := influxdb2.NewPointWithMeasurement(w.measurement).AddTag("kind", r.Kind.String())
		addTag(p, "group", r.Group)
		addTag(p, "file", r.File)
		for _, k := range r.Params.Keys() {
			addTag(p, k, r.Params[k].Value)
		}
		for _, k := range r.Metrics.Keys() {
			p.AddField(k, r.Metrics[k])
		}
		points = append(points, p.SetTime(r.Time))
	}
	return w.write(ctx, points)
}

// addTag adds a tag unless its value is empty, which line protocol
// cannot represent.
func addTag(p *write.Point, k, v string) {
	if v != "" {
		p.AddTag(k, v)
	}
}

func (w *Writer) write(ctx context.Context, points []*write.Point) error {
	if len(points) == 0 {
		return nil
	}
	if err := w.writeAPI.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("influx: writing %d points: %w", len(points), err)
	}
	return nil
}

// Close releases the client's resources.
func (w *Writer) Close() {
	w.client.Close()
}
