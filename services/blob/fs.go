package blobsvc

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/trezcool/registro/core"
)

// FSStore keeps blobs as files under a root directory.
type FSStore struct {
	root string
}

var _ core.BlobStore = (*FSStore)(nil) // interface compliance check

// NewFSStore returns a store rooted at `root`, creating it if needed.
func NewFSStore(root string) (*FSStore, error) {
	if root == "" {
		root = "exports"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating blob root")
	}
	return &FSStore{root: root}, nil
}

func (s *FSStore) pathFor(key string) (string, error) {
	k, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(k)), nil
}

// Put writes the blob to a temporary file first, then moves it into place; an existing blob is replaced.
func (s *FSStore) Put(ctx context.Context, key string, r io.Reader, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dst, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.Wrap(err, "creating blob directory")
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".tmp-*")
	if err != nil {
		return errors.Wrap(err, "creating temporary blob")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err = io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "writing blob")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "closing blob")
	}
	return errors.Wrap(os.Rename(tmp.Name(), dst), "moving blob into place")
}

func (s *FSStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src, err := s.pathFor(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(src)
	if os.IsNotExist(err) {
		return nil, core.ErrBlobNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "opening blob")
	}
	return f, nil
}
