package operations

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"

	"github.com/kebairia/mongomail/internal/failure"
)

const partialSuffix = ".part"

// ZipDirectory compresses srcDir recursively into dstPath. Entry names are
// rooted at the base name of srcDir. The archive is written next to dstPath
// with a .part suffix and renamed once complete, so dstPath is never a
// truncated archive. ctx is checked between entries and on every read.
func ZipDirectory(ctx context.Context, srcDir, dstPath string) (err error) {
	info, err := os.Stat(srcDir)
	if err != nil {
		return failure.Archive("stat dump directory", err)
	}
	if !info.IsDir() {
		return failure.Archive(srcDir+" is not a directory", nil)
	}

	partPath := dstPath + partialSuffix
	out, err := os.Create(partPath)
	if err != nil {
		return failure.Archive("create archive", err)
	}
	defer func() {
		if err != nil {
			_ = out.Close()
			_ = os.Remove(partPath)
		}
	}()

	zw := zip.NewWriter(out)
	root := filepath.Dir(srcDir)

	walkErr := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return context.Cause(ctx)
		}
		return addEntry(ctx, zw, root, path, d)
	})
	if walkErr != nil {
		return failure.Archive("compress "+srcDir, walkErr)
	}

	if err = zw.Close(); err != nil {
		return failure.Archive("finalize archive", err)
	}
	if err = out.Close(); err != nil {
		return failure.Archive("close archive", err)
	}
	if err = os.Rename(partPath, dstPath); err != nil {
		return failure.Archive("rename archive", err)
	}
	return nil
}

func addEntry(ctx context.Context, zw *zip.Writer, root, path string, d fs.DirEntry) error {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return err
	}
	info, err := d.Info()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("zip header for %s: %w", rel, err)
	}
	header.Name = filepath.ToSlash(rel)

	switch {
	case d.IsDir():
		header.Name += "/"
		_, err = zw.CreateHeader(header)
		return err
	case !info.Mode().IsRegular():
		// mongodump only writes regular files; skip anything else.
		return nil
	}

	header.Method = zip.Deflate
	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	_, copyErr := io.Copy(w, &ctxReader{ctx: ctx, r: f})
	return errors.Join(copyErr, f.Close())
}

// ctxReader fails reads once ctx is done, so a single large file cannot
// outlive the archive timeout.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if c.ctx.Err() != nil {
		return 0, context.Cause(c.ctx)
	}
	return c.r.Read(p)
}
