// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package client uploads raw test artifacts to a results server.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"

	"golang.org/x/oauth2"
)

// A Client issues requests to a results server.
type Client struct {
	// BaseURL is the base URL of the server, without a trailing
	// slash.
	BaseURL string
	// HTTPClient is the client used to make requests. If nil,
	// http.DefaultClient is used.
	HTTPClient *http.Client
}

// NewClient returns a Client for baseURL. If token is not empty,
// requests carry it as an OAuth2 bearer token.
func NewClient(ctx context.Context, baseURL, token string) *Client {
	c := &Client{BaseURL: baseURL}
	if token != "" {
		c.HTTPClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	}
	return c
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// A File is one artifact to upload.
type File struct {
	Name string
	Body io.Reader
}

// UploadStatus is the server's response to an upload.
type UploadStatus struct {
	// UploadID is the upload ID assigned to the upload.
	UploadID string `json:"uploadid"`
	// FileIDs is the list of file IDs assigned to the files in the upload.
	FileIDs []string `json:"fileids"`
	// ViewURL is a server-supplied URL to view the results.
	ViewURL string `json:"viewurl"`
}

// Upload sends files to the server as one upload. The files are
// streamed as a multipart form, followed by a commit field. If a file
// cannot be read the upload is aborted.
func (c *Client) Upload(ctx context.Context, files []File) (*UploadStatus, error) {
	pr, pw := io.Pipe()
	mpw := multipart.NewWriter(pw)

	go func() {
		defer pw.Close()
		defer mpw.Close()

		for _, f := range files {
			if err := writeOneFile(mpw, f); err != nil {
				// The server answers an abort with an
				// error response.
				mpw.WriteField("abort", "1")
				pw.CloseWithError(fmt.Errorf("%s: %w", f.Name, err))
				return
			}
		}
		mpw.WriteField("commit", "1")
	}()

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/upload", pr)
	if err != nil {
		pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", mpw.FormDataContentType())
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return nil, fmt.Errorf("upload failed: %v: %s", resp.Status, body)
	}

	status := &UploadStatus{}
	if err := json.NewDecoder(resp.Body).Decode(status); err != nil {
		return nil, fmt.Errorf("cannot parse upload response: %w", err)
	}
	return status, nil
}

// writeOneFile writes f to mpw.
func writeOneFile(mpw *multipart.Writer, f File) error {
	w, err := mpw.CreateFormFile("file", path.Base(f.Name))
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f.Body)
	return err
}
