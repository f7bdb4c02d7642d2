// Package blobsvc implements core.BlobStore on the local filesystem and on S3-compatible object stores.
package blobsvc

import (
	"context"
	"path"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/registro/core"
)

const (
	DriverFS = "fs"
	DriverS3 = "s3"
)

// New returns the blob store configured in `conf`.
func New(ctx context.Context, conf *core.Config) (core.BlobStore, error) {
	switch conf.Blob.Driver {
	case DriverFS, "":
		return NewFSStore(conf.Blob.Root)
	case DriverS3:
		return NewS3Store(ctx, S3Config{
			Bucket:          conf.Blob.Bucket,
			Region:          conf.Blob.Region,
			Endpoint:        conf.Blob.Endpoint,
			AccessKeyID:     conf.Blob.AccessKeyID,
			SecretAccessKey: conf.Blob.SecretAccessKey,
			PathStyle:       conf.Blob.PathStyle,
		})
	default:
		return nil, errors.Errorf("unsupported blob driver %q", conf.Blob.Driver)
	}
}

// cleanKey rejects keys that are empty, absolute or escape the store root.
func cleanKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", errors.New("empty blob key")
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, "..") {
		return "", errors.Errorf("invalid blob key %q", key)
	}
	return path.Clean(key), nil
}
