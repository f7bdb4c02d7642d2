package core

import (
	"context"
	"errors"
	"io"
)

var ErrBlobNotFound = errors.New("blob not found")

// BlobStore stores opaque files under slash-separated keys (e.g. "exports/2024-06-01.json").
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	// Get returns ErrBlobNotFound when there is nothing under `key`. Callers close the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}
