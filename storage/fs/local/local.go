// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package local implements artifact trees on the local file system.
package local

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FS is a directory tree on the local disk.
type FS struct {
	root string
}

// New returns the FS rooted at dir.
func New(dir string) *FS {
	return &FS{root: dir}
}

func (l *FS) String() string {
	return l.root
}

// List walks the tree and returns the slash-separated names, relative
// to the root, of regular files beginning with prefix.
func (l *FS) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(l.root, path)
		if err != nil {
			return err
		}
		if name := filepath.ToSlash(rel); strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// Open opens the file name, relative to the root.
func (l *FS) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(l.root, filepath.FromSlash(name)))
}

// Close does nothing.
func (l *FS) Close() error {
	return nil
}
