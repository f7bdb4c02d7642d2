package main

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/registro/core"
)

const exportContentType = "application/json"

func exportKey() string {
	return fmt.Sprintf("archive/%s-%s.json", core.NowFunc().Format("20060102T150405Z"), uuid.New().String())
}

// export uploads the whole archive to the blob store under `key`.
func (cli *commandLine) export(ctx context.Context, key string) error {
	if key == "" {
		key = exportKey()
	}
	blobs, err := cli.blobStore(ctx)
	if err != nil {
		return errors.Wrap(err, "opening blob store")
	}

	var buf bytes.Buffer
	exp, err := cli.archiveSvc.Export(ctx, &buf)
	if err != nil {
		return err
	}
	if err = blobs.Put(ctx, key, &buf, exportContentType); err != nil {
		return errors.Wrapf(err, "uploading export to %q", key)
	}
	fmt.Fprintf(
		cli.out, "exported %d group(s), %d student(s), %d grade(s) to %s\n",
		len(exp.Groups), len(exp.Students), len(exp.Grades), key,
	)
	return nil
}
