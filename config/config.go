// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads the cachestat configuration file.
//
// A configuration starts from Default, is overlaid with a YAML file,
// and finally with secrets from the environment:
//
//	CACHESTAT_INFLUX_TOKEN     influx.token
//	CACHESTAT_UPLOAD_TOKEN     upload.token
//	CACHESTAT_S3_ACCESS_KEY    source.access_key_id
//	CACHESTAT_S3_SECRET_KEY    source.secret_access_key
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hcache/cachestat/aggregate"
	"github.com/hcache/cachestat/profile"
	"github.com/hcache/cachestat/record"
	"github.com/hcache/cachestat/storage/fs/s3"
	"gopkg.in/yaml.v3"
)

// Config is the complete cachestat configuration.
type Config struct {
	Source Source `yaml:"source"`

	// Group and Metrics map a record kind to its grouping keys and
	// the metrics to summarize.
	Group   map[string][]string `yaml:"group" validate:"dive,keys,oneof=benchmark loadtest hitratio profile,endkeys,min=1"`
	Metrics map[string][]string `yaml:"metrics" validate:"dive,keys,oneof=benchmark loadtest hitratio profile,endkeys"`

	Compare Compare `yaml:"compare"`
	Profile Profile `yaml:"profile"`
	Output  Output  `yaml:"output"`
	DB      DB      `yaml:"db"`
	Influx  Influx  `yaml:"influx"`
	Parquet Parquet `yaml:"parquet"`
	Upload  Upload  `yaml:"upload"`

	// MetricsFile, if set, receives a Prometheus textfile dump of
	// the load counters.
	MetricsFile string `yaml:"metrics_file"`
}

// Source describes where artifact directories live.
type Source struct {
	Type   string `yaml:"type" validate:"oneof=local gcs s3"`
	Bucket string `yaml:"bucket" validate:"required_unless=Type local"`
	Prefix string `yaml:"prefix"`

	// S3 only.
	Endpoint        string `yaml:"endpoint" validate:"omitempty,url"`
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	PathStyle       bool   `yaml:"path_style"`
}

// Location returns the storage/fs location of the artifact directory
// dir.
func (s Source) Location(dir string) string {
	switch s.Type {
	case "gcs":
		return "gs://" + s.Bucket + "/" + strings.TrimPrefix(path.Join(s.Prefix, dir), "/")
	case "s3":
		return "s3://" + s.Bucket + "/" + strings.TrimPrefix(path.Join(s.Prefix, dir), "/")
	}
	return dir
}

// S3 returns the S3 options of s.
func (s Source) S3() s3.Options {
	return s3.Options{
		Bucket:          s.Bucket,
		Region:          s.Region,
		Endpoint:        s.Endpoint,
		AccessKeyID:     s.AccessKeyID,
		SecretAccessKey: s.SecretAccessKey,
		PathStyle:       s.PathStyle,
	}
}

type Compare struct {
	// Keys are the comparison keys. If empty, the group keys of
	// the compared kind are used.
	Keys []string `yaml:"keys"`
}

type Profile struct {
	Mode      profile.Mode  `yaml:"mode" validate:"oneof=tool native auto"`
	Tool      string        `yaml:"tool" validate:"required"`
	Timeout   time.Duration `yaml:"timeout" validate:"gt=0"`
	NodeCount int           `yaml:"nodecount" validate:"gt=0"`
}

type Output struct {
	Dir string `yaml:"dir" validate:"required"`

	// Precision is the number of decimals in CSV output, or -1 for
	// the shortest exact representation.
	Precision int `yaml:"precision" validate:"gte=-1"`
}

// CSVOptions returns the CSV options of o.
func (o Output) CSVOptions() aggregate.CSVOptions {
	if o.Precision < 0 {
		return aggregate.CSVOptions{Precision: -1}
	}
	return aggregate.CSVOptions{Precision: o.Precision, Fixed: true}
}

type DB struct {
	Driver string `yaml:"driver" validate:"omitempty,oneof=sqlite3 mysql"`
	DSN    string `yaml:"dsn" validate:"required_with=Driver"`
}

type Influx struct {
	URL         string `yaml:"url" validate:"omitempty,url"`
	Token       string `yaml:"token"`
	Org         string `yaml:"org" validate:"required_with=URL"`
	Bucket      string `yaml:"bucket" validate:"required_with=URL"`
	Measurement string `yaml:"measurement"`
}

type Parquet struct {
	Path string `yaml:"path"`
}

type Upload struct {
	Server string `yaml:"server" validate:"omitempty,url"`
	Token  string `yaml:"token"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Source: Source{Type: "local"},
		Group: map[string][]string{
			"benchmark": {aggregate.KeyGroup, "procs"},
			"hitratio":  {"distribution", "policy", "cache_size"},
			"loadtest":  {"cache_config", "concurrency"},
			"profile":   {aggregate.KeyGroup},
		},
		Metrics: map[string][]string{
			"benchmark": {"ns_per_op", "bytes_per_op", "allocs_per_op"},
			"hitratio":  {"hit_ratio", "eviction_ratio", "duration_ms"},
			"loadtest":  {"latency_mean", "latency_p50", "latency_p90", "latency_p95", "latency_p99", "throughput", "success_rate"},
			"profile":   {"flat_pct", "cum_pct"},
		},
		Profile: Profile{
			Mode:      profile.ModeAuto,
			Tool:      "go",
			Timeout:   profile.DefaultTimeout,
			NodeCount: profile.DefaultNodeCount,
		},
		Output: Output{Dir: "out", Precision: -1},
	}
}

// Load returns the default configuration overlaid with the YAML file
// at path, if path is not empty, and with the environment. Unknown
// fields in the file are an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && err != io.EOF {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	cfg.applyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		if path != "" {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	for _, e := range []struct {
		name string
		dst  *string
	}{
		{"CACHESTAT_INFLUX_TOKEN", &c.Influx.Token},
		{"CACHESTAT_UPLOAD_TOKEN", &c.Upload.Token},
		{"CACHESTAT_S3_ACCESS_KEY", &c.Source.AccessKeyID},
		{"CACHESTAT_S3_SECRET_KEY", &c.Source.SecretAccessKey},
	} {
		if v := getenv(e.name); v != "" {
			*e.dst = v
		}
	}
}

var validate = validator.New()

// Validate checks c for consistency.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, len(verrs))
		for i, fe := range verrs {
			msgs[i] = fmt.Sprintf("invalid %s: failed %q", fe.Namespace(), fe.Tag())
		}
		return errors.New(strings.Join(msgs, "; "))
	}
	return err
}

// GroupKeys returns the grouping keys for kind.
func (c *Config) GroupKeys(kind record.Kind) []string {
	return c.Group[kind.String()]
}

// MetricNames returns the metrics to summarize for kind, or nil for
// all metrics.
func (c *Config) MetricNames(kind record.Kind) []string {
	return c.Metrics[kind.String()]
}

// CompareKeys returns the comparison keys for kind.
func (c *Config) CompareKeys(kind record.Kind) []string {
	if len(c.Compare.Keys) > 0 {
		return c.Compare.Keys
	}
	return c.GroupKeys(kind)
}
