// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hcache/cachestat/storage/client"
	"github.com/spf13/cobra"
)

func (c *cli) uploadCmd() *cobra.Command {
	var server string
	cmd := &cobra.Command{
		Use:   "upload file...",
		Short: "Upload artifacts to a results server",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if server == "" {
				server = c.cfg.Upload.Server
			}
			if server == "" {
				return errors.New("upload: no server; use --server or upload.server")
			}
			var files []client.File
			for _, name := range args {
				f, err := os.Open(name)
				if err != nil {
					return err
				}
				defer f.Close()
				files = append(files, client.File{Name: filepath.Base(name), Body: f})
			}
			cl := client.NewClient(cmd.Context(), server, c.cfg.Upload.Token)
			status, err := cl.Upload(cmd.Context(), files)
			if err != nil {
				return fmt.Errorf("upload failed: %w", err)
			}
			if status.ViewURL != "" {
				fmt.Fprintln(c.stdout, status.ViewURL)
			} else {
				fmt.Fprintf(c.stdout, "upload %s\n", status.UploadID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&server, "server", "", "results server base `URL`")
	return cmd
}
