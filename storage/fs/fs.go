// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fs provides access to directories of test artifacts, which
// may live on the local disk, in Google Cloud Storage or in an
// S3-compatible object store.
package fs

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/hcache/cachestat/storage/fs/gcs"
	"github.com/hcache/cachestat/storage/fs/local"
	"github.com/hcache/cachestat/storage/fs/s3"
	"google.golang.org/api/option"
)

// An FS is a read-only tree of artifact files. File names use forward
// slashes regardless of the backend.
type FS interface {
	// List returns the names of all files whose name begins with
	// prefix, in sorted order.
	List(ctx context.Context, prefix string) ([]string, error)

	// Open opens the named file for reading.
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// Close releases any resources held by the FS.
	Close() error
}

var (
	_ FS = (*local.FS)(nil)
	_ FS = (*gcs.FS)(nil)
	_ FS = (*s3.FS)(nil)
)

// Options configures the remote backends of Open.
type Options struct {
	GCS []option.ClientOption
	S3  s3.Options
}

// Open returns the FS holding location and the prefix of location
// within it. Locations of the form gs://bucket/prefix and
// s3://bucket/prefix name object stores; anything else is a local
// directory.
func Open(ctx context.Context, location string, opts Options) (fsys FS, prefix string, err error) {
	scheme, rest, ok := strings.Cut(location, "://")
	if !ok {
		return local.New(location), "", nil
	}
	bucket, prefix, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return nil, "", fmt.Errorf("%s: missing bucket name", location)
	}
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	switch scheme {
	case "gs":
		fsys, err = gcs.New(ctx, bucket, opts.GCS...)
	case "s3":
		o := opts.S3
		o.Bucket = bucket
		fsys, err = s3.New(ctx, o)
	default:
		return nil, "", fmt.Errorf("%s: unsupported scheme %q", location, scheme)
	}
	if err != nil {
		return nil, "", err
	}
	return fsys, prefix, nil
}
