// Copyright 2016 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/hcache/cachestat/record"
	"github.com/hcache/cachestat/storage/fs/local"
)

// upload is the handler for the /upload endpoint. It processes files
// in a multipart/form-data POST request.
func (a *App) upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		http.Error(w, "/upload must be called as a POST request", http.StatusMethodNotAllowed)
		return
	}
	if a.Auth != nil {
		user, err := a.Auth(w, r)
		if err == ErrResponseWritten {
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		a.logger().Debug("upload", "user", user)
	}

	// We use r.MultipartReader instead of r.ParseForm to avoid
	// storing uploaded data in memory.
	mr, err := r.MultipartReader()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := a.processUpload(ctx, mr)
	if err != nil {
		a.logger().Warn("upload failed", "err", err)
		code := http.StatusInternalServerError
		var dee *record.DatasetEmptyError
		if errors.As(err, &dee) || errors.Is(err, errBadUpload) {
			code = http.StatusBadRequest
		}
		http.Error(w, err.Error(), code)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		a.logger().Warn("writing upload response", "err", err)
	}
}

// uploadStatus is the response to an /upload POST served as JSON.
type uploadStatus struct {
	// UploadID is the upload ID assigned to the upload.
	UploadID string `json:"uploadid"`
	// FileIDs is the list of file IDs assigned to the files in the upload.
	FileIDs []string `json:"fileids"`
	// ViewURL is a URL to view the results, if the server has one.
	ViewURL string `json:"viewurl,omitempty"`
}

var errBadUpload = errors.New("bad upload")

// processUpload takes one or more files from a multipart.Reader,
// writes them to a fresh upload directory, parses them into a dataset
// and stores the dataset. The upload directory is removed if any step
// fails.
func (a *App) processUpload(ctx context.Context, mr *multipart.Reader) (_ *uploadStatus, err error) {
	dir := filepath.Join(a.Dir, uuid.NewString())
	if err := os.MkdirAll(dir, 0o777); err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			os.RemoveAll(dir)
		}
	}()

	n, committed := 0, false
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch name := p.FormName(); name {
		case "file":
			// Each file gets its own subdirectory so clients
			// may upload several files with the same name.
			if err := saveFile(filepath.Join(dir, strconv.Itoa(n)), p); err != nil {
				return nil, err
			}
			n++
		case "commit":
			committed = true
		case "abort":
			return nil, fmt.Errorf("%w: aborted by client", errBadUpload)
		default:
			return nil, fmt.Errorf("%w: unexpected field %q", errBadUpload, name)
		}
	}
	if !committed {
		return nil, fmt.Errorf("%w: upload not committed", errBadUpload)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: no files", errBadUpload)
	}

	l := *a.loader()
	l.Recursive = true
	ds, err := l.Load(ctx, local.New(dir), "", dir)
	if err != nil {
		return nil, err
	}
	u, err := a.DB.InsertDataset(ctx, ds)
	if err != nil {
		return nil, err
	}

	status := &uploadStatus{UploadID: u.ID}
	for i := 0; i < n; i++ {
		status.FileIDs = append(status.FileIDs, fmt.Sprintf("%s/%d", u.ID, i))
	}
	if a.ViewURLBase != "" {
		status.ViewURL = a.ViewURLBase + u.ID
	}
	a.logger().Info("stored upload", "id", u.ID, "files", n, "records", ds.Len())
	return status, nil
}

// saveFile writes p to dir under the base name of its file name.
func saveFile(dir string, p *multipart.Part) error {
	name := path.Base(p.FileName())
	if name == "." || name == "/" || name == ".." {
		return fmt.Errorf("%w: invalid file name %q", errBadUpload, p.FileName())
	}
	if err := os.MkdirAll(dir, 0o777); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return err
	}
	_, err = io.Copy(f, p)
	if err2 := f.Close(); err == nil {
		err = err2
	}
	return err
}
