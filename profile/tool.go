// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package profile

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"time"

	"github.com/hcache/cachestat/record"
)

// Defaults for Tool.
const (
	DefaultNodeCount = 20
	DefaultTimeout   = 30 * time.Second
)

// A Tool renders binary profiles into top tables by running
// "go tool pprof -top".
type Tool struct {
	// Go is the go command. If empty, "go" is looked up in $PATH.
	Go string

	// NodeCount is the number of table rows to produce. If zero,
	// DefaultNodeCount is used.
	NodeCount int

	// Timeout bounds each run. If zero, DefaultTimeout is used.
	Timeout time.Duration

	Logger *slog.Logger
}

func (t *Tool) logger() *slog.Logger {
	if t.Logger == nil {
		return slog.Default()
	}
	return t.Logger
}

func (t *Tool) name() string {
	if t.Go == "" {
		return "go"
	}
	return t.Go
}

// Top runs pprof over the profile at path and returns its top table.
// Any failure, including a missing go command or a timeout, is
// reported as a *record.ToolUnavailableError.
func (t *Tool) Top(ctx context.Context, path string) ([]byte, error) {
	n := t.NodeCount
	if n <= 0 {
		n = DefaultNodeCount
	}
	timeout := t.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{"tool", "pprof", "-top", "-nodecount", strconv.Itoa(n), path}
	cmd := exec.CommandContext(ctx, t.name(), args...)
	cmd.WaitDelay = time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &stdout, &stderr

	start := time.Now()
	err := cmd.Run()
	t.logger().Debug("ran pprof", "path", path, "duration", time.Since(start), "err", err)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			err = fmt.Errorf("timed out after %v", timeout)
		} else if msg := bytes.TrimSpace(stderr.Bytes()); len(msg) > 0 {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return nil, &record.ToolUnavailableError{Tool: t.name() + " tool pprof", Err: err}
	}
	return stdout.Bytes(), nil
}
