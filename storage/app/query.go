// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package app

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/hcache/cachestat/aggregate"
	"github.com/hcache/cachestat/record"
	"github.com/hcache/cachestat/storage/db"
)

type datasetInfo struct {
	ID      string    `json:"id"`
	Dir     string    `json:"dir"`
	Created time.Time `json:"created"`
	Records int       `json:"records"`
}

// datasets serves the list of stored datasets as JSON, most recent
// first.
func (a *App) datasets(w http.ResponseWriter, r *http.Request) {
	infos, err := a.DB.ListDatasets(r.Context())
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	out := []datasetInfo{}
	for _, info := range infos {
		out = append(out, datasetInfo{info.ID, info.Dir, info.Created, info.Records})
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		a.logger().Warn("writing dataset list", "err", err)
	}
}

// summary serves the aggregate of one dataset as CSV. Parameters:
//
//	id       dataset ID (required)
//	kind     record kind (required)
//	keys     comma-separated grouping keys
//	metrics  comma-separated metrics, all if empty
func (a *App) summary(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), 400)
		return
	}
	id := r.Form.Get("id")
	if id == "" {
		http.Error(w, "missing id parameter", 400)
		return
	}
	kind, ok := record.ParseKind(r.Form.Get("kind"))
	if !ok {
		http.Error(w, "missing or invalid kind parameter", 400)
		return
	}
	spec := aggregate.Spec{Kind: kind, Keys: list(r.Form.Get("keys")), Metrics: list(r.Form.Get("metrics"))}
	if spec.Keys == nil && a.GroupKeys != nil {
		spec.Keys = a.GroupKeys(kind)
	}

	ds, err := a.DB.LoadDataset(r.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		http.Error(w, err.Error(), 404)
		return
	} else if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	if err := aggregate.WriteCSV(w, aggregate.Aggregate(spec, ds), aggregate.CSVOptions{Precision: -1}); err != nil {
		a.logger().Warn("writing summary", "id", id, "err", err)
	}
}

func list(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
