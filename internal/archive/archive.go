// Package archive streams a filtered zip snapshot of a project directory.
package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultExcludes returns the patterns that are never uploaded. dotConfig is
// the name of the local dot-config file.
func DefaultExcludes(dotConfig string) []string {
	return []string{
		".git",
		"node_modules",
		".gitignore",
		".dockerignore",
		"Dockerfile",
		"docker-compose.yml",
		".gitlab-ci.yml",
		".idea",
		".vscode",
		".DS_Store",
		dotConfig,
	}
}

// Options configures Write.
type Options struct {
	Root     string
	Excludes []string // doublestar patterns, matched against the relative path and the base name

	// OnProgress receives the cumulative number of compressed bytes written.
	OnProgress func(written int64)
	// OnWarning receives non-fatal problems; the affected entry is skipped.
	OnWarning func(err error)
}

// Excluded reports whether the slash-separated relative path rel matches any pattern.
func Excluded(patterns []string, rel string) bool {
	base := filepath.Base(rel)
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(p, base); ok {
			return true
		}
	}
	return false
}

// Write zips opts.Root into w without buffering the archive in memory.
func Write(ctx context.Context, w io.Writer, opts Options) error {
	cw := &countingWriter{w: w, onWrite: opts.OnProgress}
	zw := zip.NewWriter(cw)

	err := filepath.WalkDir(opts.Root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == opts.Root {
			return walkErr
		}

		rel, err := filepath.Rel(opts.Root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if walkErr != nil {
			opts.warn(fmt.Errorf("skipping %s: %w", rel, walkErr))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if Excluded(opts.Excludes, rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			_, err := zw.CreateHeader(&zip.FileHeader{Name: rel + "/", Method: zip.Store})
			return err
		}
		if !d.Type().IsRegular() {
			opts.warn(fmt.Errorf("skipping %s: not a regular file", rel))
			return nil
		}
		return addFile(zw, path, rel, opts)
	})
	if err != nil {
		return fmt.Errorf("archive %s: %w", opts.Root, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish archive: %w", err)
	}
	return nil
}

func addFile(zw *zip.Writer, path, rel string, opts Options) error {
	f, err := os.Open(path)
	if err != nil {
		opts.warn(fmt.Errorf("skipping %s: %w", rel, err))
		return nil
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		opts.warn(fmt.Errorf("skipping %s: %w", rel, err))
		return nil
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = rel
	hdr.Method = zip.Deflate

	entry, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	_, err = io.Copy(entry, f)
	return err
}

func (o Options) warn(err error) {
	if o.OnWarning != nil {
		o.OnWarning(err)
	}
}

// countingWriter tracks the cumulative archive pointer.
type countingWriter struct {
	w       io.Writer
	n       int64
	onWrite func(int64)
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	if c.onWrite != nil && n > 0 {
		c.onWrite(c.n)
	}
	return n, err
}

// FormatMB renders a byte count as megabytes with three decimals.
func FormatMB(n int64) string {
	return fmt.Sprintf("%.3f", float64(n)/(1024*1024))
}
