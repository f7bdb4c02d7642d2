package blobsvc

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/trezcool/registro/core"
)

// s3RoundTripper fakes the PUT & GET object calls of a path-style S3 endpoint.
type s3RoundTripper struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (rt *s3RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	empty := io.NopCloser(bytes.NewReader(nil))
	key := strings.TrimPrefix(req.URL.Path, "/")
	switch req.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(req.Body)
		rt.objects[key] = body
		rt.types[key] = req.Header.Get("Content-Type")
		return &http.Response{StatusCode: http.StatusOK, Body: empty, Header: http.Header{"ETag": {`"etag"`}}}, nil
	case http.MethodGet:
		body, ok := rt.objects[key]
		if !ok {
			return &http.Response{StatusCode: http.StatusNotFound, Body: empty, Header: http.Header{}}, nil
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewReader(body)),
			Header:     http.Header{"Content-Type": {rt.types[key]}},
		}, nil
	}
	return &http.Response{StatusCode: http.StatusNotImplemented, Body: empty, Header: http.Header{}}, nil
}

func newStores(t *testing.T) (map[string]core.BlobStore, *s3RoundTripper) {
	t.Helper()
	fsStore, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore() = %v", err)
	}

	rt := &s3RoundTripper{objects: make(map[string][]byte), types: make(map[string]string)}
	s3Store, err := NewS3Store(context.Background(), S3Config{
		Bucket:          "registro",
		Endpoint:        "https://s3.registro.test",
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
		PathStyle:       true,
		HTTPClient:      &http.Client{Transport: rt},
	})
	if err != nil {
		t.Fatalf("NewS3Store() = %v", err)
	}
	return map[string]core.BlobStore{DriverFS: fsStore, DriverS3: s3Store}, rt
}

func TestPutGet(t *testing.T) {
	ctx := context.Background()
	stores, rt := newStores(t)

	for driver, st := range stores {
		t.Run(driver, func(t *testing.T) {
			if err := st.Put(ctx, "exports/archive.json", strings.NewReader(`{"v":1}`), "application/json"); err != nil {
				t.Fatalf("Put() = %v", err)
			}
			// replaced
			if err := st.Put(ctx, "exports/archive.json", strings.NewReader(`{"v":2}`), "application/json"); err != nil {
				t.Fatalf("Put() = %v", err)
			}

			rc, err := st.Get(ctx, "exports/archive.json")
			if err != nil {
				t.Fatalf("Get() = %v", err)
			}
			defer rc.Close()
			got, _ := io.ReadAll(rc)
			if string(got) != `{"v":2}` {
				t.Errorf("Get() = %s; want %s", got, `{"v":2}`)
			}

			if _, err = st.Get(ctx, "exports/missing.json"); err != core.ErrBlobNotFound {
				t.Errorf("Get(missing) = %v; want %v", err, core.ErrBlobNotFound)
			}
		})
	}

	if ct := rt.types["registro/exports/archive.json"]; ct != "application/json" {
		t.Errorf("s3 object content type = %q; want application/json", ct)
	}
}

func TestInvalidKeys(t *testing.T) {
	ctx := context.Background()
	stores, _ := newStores(t)

	for driver, st := range stores {
		for _, key := range []string{"", "  ", "/etc/passwd", "../outside", "exports/../../outside"} {
			if err := st.Put(ctx, key, strings.NewReader("x"), ""); err == nil {
				t.Errorf("%s: Put(%q) succeeded", driver, key)
			}
		}
	}
}
