// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package profile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/hcache/cachestat/record"
)

// A Mode selects how binary profiles are rendered.
type Mode string

const (
	// ModeTool runs the pprof tool.
	ModeTool Mode = "tool"
	// ModeNative decodes profiles in-process.
	ModeNative Mode = "native"
	// ModeAuto runs the pprof tool and falls back to decoding
	// in-process if the tool is unavailable.
	ModeAuto Mode = "auto"
)

// An Analyzer parses binary profiles.
type Analyzer struct {
	Mode Mode
	Tool Tool

	// ToolFailed, if non-nil, is called each time the pprof tool is
	// unavailable.
	ToolFailed func(err *record.ToolUnavailableError)
}

// Analyze parses the binary profile read from r. In ModeTool, an
// unavailable pprof tool results in a *record.ToolUnavailableError.
func (a *Analyzer) Analyze(ctx context.Context, r io.Reader, fileName string) (*record.Batch, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &record.FileReadError{File: fileName, Err: err}
	}
	n := a.Tool.NodeCount
	if n <= 0 {
		n = DefaultNodeCount
	}

	switch a.Mode {
	case ModeNative:
		return Native(bytes.NewReader(data), fileName, n)
	case ModeTool, ModeAuto, "":
	default:
		return nil, fmt.Errorf("unknown profile mode %q", a.Mode)
	}

	b, err := a.viaTool(ctx, data, fileName)
	var tue *record.ToolUnavailableError
	if errors.As(err, &tue) {
		if a.ToolFailed != nil {
			a.ToolFailed(tue)
		}
		if a.Mode == ModeAuto {
			a.Tool.logger().Info("pprof unavailable, decoding profile natively", "file", fileName, "err", tue.Err)
			return Native(bytes.NewReader(data), fileName, n)
		}
	}
	return b, err
}

// viaTool writes data to a temporary file, since the profile may not
// come from the local file system, and runs the pprof tool over it.
func (a *Analyzer) viaTool(ctx context.Context, data []byte, fileName string) (*record.Batch, error) {
	f, err := os.CreateTemp("", "cachestat-*-"+path.Base(fileName))
	if err != nil {
		return nil, err
	}
	defer os.Remove(f.Name())
	_, err = f.Write(data)
	if err2 := f.Close(); err == nil {
		err = err2
	}
	if err != nil {
		return nil, err
	}

	out, err := a.Tool.Top(ctx, f.Name())
	if err != nil {
		return nil, err
	}
	return ParseTable(bytes.NewReader(out), fileName)
}
