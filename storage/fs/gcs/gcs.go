// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gcs implements artifact trees in a Google Cloud Storage
// bucket.
package gcs

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// FS is a bucket in Google Cloud Storage.
type FS struct {
	client *storage.Client
	bucket *storage.BucketHandle
	name   string
}

// New returns the FS for bucket. opts are passed to storage.NewClient.
func New(ctx context.Context, bucket string, opts ...option.ClientOption) (*FS, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	return &FS{client: client, bucket: client.Bucket(bucket), name: bucket}, nil
}

func (g *FS) String() string {
	return "gs://" + g.name
}

// List returns the names of objects beginning with prefix. Directory
// placeholder objects, whose names end in "/", are omitted.
func (g *FS) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	it := g.bucket.Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing gs://%s/%s: %w", g.name, prefix, err)
		}
		if strings.HasSuffix(attrs.Name, "/") {
			continue
		}
		names = append(names, attrs.Name)
	}
	sort.Strings(names)
	return names, nil
}

// Open opens the named object.
func (g *FS) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	return g.bucket.Object(name).NewReader(ctx)
}

// Close closes the underlying client.
func (g *FS) Close() error {
	return g.client.Close()
}
