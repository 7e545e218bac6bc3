// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package s3

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
)

// fakeStore serves a minimal path-style S3 API for bucket "runs".
func fakeStore(t *testing.T, objects map[string]string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "bad method", http.StatusMethodNotAllowed)
			return
		}
		if r.URL.Path == "/runs" || r.URL.Path == "/runs/" {
			prefix := r.URL.Query().Get("prefix")
			var b strings.Builder
			b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
			b.WriteString(`<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/"><Name>runs</Name>`)
			n := 0
			for key := range objects {
				if strings.HasPrefix(key, prefix) {
					fmt.Fprintf(&b, "<Contents><Key>%s</Key><Size>%d</Size></Contents>", key, len(objects[key]))
					n++
				}
			}
			fmt.Fprintf(&b, "<KeyCount>%d</KeyCount><IsTruncated>false</IsTruncated></ListBucketResult>", n)
			w.Header().Set("Content-Type", "application/xml")
			io.WriteString(w, b.String())
			return
		}
		key := strings.TrimPrefix(r.URL.Path, "/runs/")
		data, ok := objects[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>not found</Message></Error>`)
			return
		}
		io.WriteString(w, data)
	}))
}

func TestFS(t *testing.T) {
	srv := fakeStore(t, map[string]string{
		"a/x.json":    "{}",
		"a/bench.txt": "BenchmarkX 1 1 ns/op",
		"a/":          "",
		"b/y.json":    "{}",
	})
	defer srv.Close()

	ctx := context.Background()
	fsys, err := New(ctx, Options{
		Bucket:          "runs",
		Region:          "us-east-1",
		Endpoint:        srv.URL,
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		PathStyle:       true,
	})
	if err != nil {
		t.Fatal(err)
	}
	names, err := fsys.List(ctx, "a/")
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"a/bench.txt", "a/x.json"}; !reflect.DeepEqual(names, want) {
		t.Errorf("List = %q, want %q", names, want)
	}

	r, err := fsys.Open(ctx, "a/bench.txt")
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if data, err := io.ReadAll(r); err != nil || string(data) != "BenchmarkX 1 1 ns/op" {
		t.Errorf("read %q, %v", data, err)
	}
	if _, err := fsys.Open(ctx, "a/missing"); err == nil {
		t.Errorf("Open of missing key succeeded")
	}
}
