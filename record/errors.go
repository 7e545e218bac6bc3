// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package record

import "fmt"

// A FileReadError indicates that an input file could not be opened or
// read. It is fatal to that file only.
type FileReadError struct {
	File string
	Err  error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("reading %s: %v", e.File, e.Err)
}

func (e *FileReadError) Unwrap() error {
	return e.Err
}

// A FormatMismatchError indicates that a file was read completely but
// yielded no records of the expected kind. The file is skipped.
type FormatMismatchError struct {
	File string
	Kind Kind
}

func (e *FormatMismatchError) Error() string {
	return fmt.Sprintf("%s: no %s records found", e.File, e.Kind)
}

// A PartialParseError represents a line or block of an otherwise valid
// file that could not be parsed. The rest of the file is still
// processed.
type PartialParseError struct {
	File string
	Line int
	Msg  string
}

func (e *PartialParseError) Pos() (fileName string, line int) {
	return e.File, e.Line
}

func (e *PartialParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

// A ToolUnavailableError indicates that an external tool could not be
// run or failed. Outputs that depend on the tool are skipped.
type ToolUnavailableError struct {
	Tool string
	Err  error
}

func (e *ToolUnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Tool, e.Err)
}

func (e *ToolUnavailableError) Unwrap() error {
	return e.Err
}

// A DatasetEmptyError indicates that no usable records were found in an
// entire input directory. It is the only error that aborts a run.
type DatasetEmptyError struct {
	Dir string
}

func (e *DatasetEmptyError) Error() string {
	return fmt.Sprintf("no usable records found in %s", e.Dir)
}
