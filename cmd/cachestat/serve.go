// Copyright 2016 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hcache/cachestat/storage/app"
	"github.com/hcache/cachestat/storage/db"
	"github.com/spf13/cobra"
)

func (c *cli) serveCmd() *cobra.Command {
	var addr, dir, viewURLBase string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a results server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			driver, dsn := c.cfg.DB.Driver, c.cfg.DB.DSN
			if driver == "" {
				driver, dsn = "sqlite3", ":memory:"
			}
			d, err := db.OpenSQL(driver, dsn)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer d.Close()

			a := &app.App{
				DB:          d,
				Dir:         dir,
				Loader:      c.loader(),
				ViewURLBase: viewURLBase,
				GroupKeys:   c.cfg.GroupKeys,
				Auth:        func(http.ResponseWriter, *http.Request) (string, error) { return "", nil },
				Logger:      c.log,
			}
			mux := http.NewServeMux()
			a.RegisterOnMux(mux)

			srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
			ctx := cmd.Context()
			go func() {
				<-ctx.Done()
				shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(shutdown)
			}()
			c.log.Info("listening", "addr", addr, "driver", driver)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&addr, "addr", ":8080", "serve HTTP on `address`")
	f.StringVar(&dir, "dir", "uploads", "store uploaded files under `directory`")
	f.StringVar(&viewURLBase, "view-url-base", "", "/upload response with `URL` for viewing")
	return cmd
}
