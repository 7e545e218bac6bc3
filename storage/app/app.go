// Copyright 2016 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package app implements the results server. Combine an App with a
// database and an upload directory to get an HTTP server that accepts
// artifact uploads, parses them into datasets, and serves summaries.
package app

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hcache/cachestat/record"
	"github.com/hcache/cachestat/storage/db"
	"github.com/hcache/cachestat/store"
)

// App manages the results server logic. Construct an App instance
// using a literal with a DB and an upload directory and call
// RegisterOnMux to connect it with an HTTP server.
type App struct {
	DB *db.DB

	// Dir is the local directory uploads are stored under, one
	// subdirectory per upload.
	Dir string

	// Loader parses uploaded files. If nil, a Loader with default
	// settings is used.
	Loader *store.Loader

	// ViewURLBase, if set, is prefixed to the upload ID to form the
	// view URL returned by /upload.
	ViewURLBase string

	// GroupKeys returns the default /summary keys for a kind. If
	// nil, summaries without explicit keys have a single group.
	GroupKeys func(record.Kind) []string

	// Auth obtains the username for the request.
	// If necessary, it can write its own response (e.g. a
	// redirect) and return ErrResponseWritten.
	Auth func(http.ResponseWriter, *http.Request) (string, error)

	Logger *slog.Logger
}

// ErrResponseWritten can be returned by App.Auth to abort the normal /upload handling.
var ErrResponseWritten = errors.New("response written")

// RegisterOnMux registers the app's URLs on mux.
func (a *App) RegisterOnMux(mux *http.ServeMux) {
	mux.HandleFunc("/upload", a.upload)
	mux.HandleFunc("/datasets", a.datasets)
	mux.HandleFunc("/summary", a.summary)
}

func (a *App) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.Default()
	}
	return a.Logger
}

func (a *App) loader() *store.Loader {
	if a.Loader == nil {
		return &store.Loader{Logger: a.Logger}
	}
	return a.Loader
}
