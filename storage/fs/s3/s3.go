// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package s3 implements artifact trees in an S3-compatible object
// store, such as Amazon S3 or Cloudflare R2.
package s3

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Options configures an FS.
type Options struct {
	Bucket string `yaml:"bucket"`

	// Region defaults to "auto", which is what R2 expects.
	Region string `yaml:"region"`

	// Endpoint overrides the service endpoint, for example
	// https://<account>.r2.cloudflarestorage.com.
	Endpoint string `yaml:"endpoint"`

	// AccessKeyID and SecretAccessKey are static credentials. If
	// empty, the default credential chain is used.
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`

	// PathStyle selects path-style addressing, which most
	// S3-compatible stores other than AWS require.
	PathStyle bool `yaml:"path_style"`
}

// FS is a bucket in an S3-compatible store.
type FS struct {
	client *s3.Client
	bucket string
}

// New returns the FS described by opts.
func New(ctx context.Context, opts Options) (*FS, error) {
	region := opts.Region
	if region == "" {
		region = "auto"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, "")))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.PathStyle
	})
	return &FS{client: client, bucket: opts.Bucket}, nil
}

func (f *FS) String() string {
	return "s3://" + f.bucket
}

// List returns the keys beginning with prefix.
func (f *FS) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	p := s3.NewListObjectsV2Paginator(f.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(f.bucket),
		Prefix: aws.String(prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list s3://%s/%s: %w", f.bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			if key := aws.ToString(obj.Key); !strings.HasSuffix(key, "/") {
				names = append(names, key)
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

// Open opens the object with the given key.
func (f *FS) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", f.bucket, name, err)
	}
	return out.Body, nil
}

// Close does nothing.
func (f *FS) Close() error {
	return nil
}
