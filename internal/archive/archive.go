// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive moves processed files into an archive directory below the
// input directory, optionally bucketed by year and month.
package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/pdiddy/pdf-batch-crop/pkg/types"
)

// Policy performs archive moves on a filesystem.
type Policy struct {
	fs  afero.Fs
	now func() time.Time
}

// New returns a Policy over fs that buckets by the current local date.
func New(fs afero.Fs) *Policy {
	return &Policy{fs: fs, now: time.Now}
}

// WithClock returns a copy of p that reads the date from now.
func (p *Policy) WithClock(now func() time.Time) *Policy {
	c := *p
	c.now = now
	return &c
}

// MonthBucket returns the "<year>-<month>" directory name for t.
func MonthBucket(t time.Time) string {
	return fmt.Sprintf("%d-%02d", t.Year(), int(t.Month()))
}

// Destination returns the archive directory for baseDir and archivedDir.
// archivedDir is always taken relative to baseDir, even with a leading
// separator.
func Destination(baseDir, archivedDir string, byMonth bool, now time.Time) string {
	rel := strings.TrimLeft(filepath.ToSlash(archivedDir), "/")
	dest := filepath.Join(baseDir, filepath.FromSlash(rel))
	if byMonth {
		dest = filepath.Join(dest, MonthBucket(now))
	}
	return dest
}

// Archive moves the file at path into the archive directory, creating the
// directory if needed, and returns the new path of the file.
func (p *Policy) Archive(path, archivedDir, baseDir string, byMonth bool) (string, error) {
	dest := Destination(baseDir, archivedDir, byMonth, p.now())
	if err := p.fs.MkdirAll(dest, 0o755); err != nil {
		return "", &types.ArchiveError{Path: path, Err: fmt.Errorf("creating %s: %w", dest, err)}
	}

	target := filepath.Join(dest, filepath.Base(path))
	if err := p.move(path, target); err != nil {
		return "", &types.ArchiveError{Path: path, Err: err}
	}
	return target, nil
}

// move renames src to dst and falls back to copy-and-delete when the rename
// fails, e.g. across filesystems.
func (p *Policy) move(src, dst string) error {
	renameErr := p.fs.Rename(src, dst)
	if renameErr == nil {
		return nil
	}
	if err := p.copyFile(src, dst); err != nil {
		return fmt.Errorf("moving to %s: %w", dst, renameErr)
	}
	if err := p.fs.Remove(src); err != nil {
		return fmt.Errorf("removing %s after copy: %w", src, err)
	}
	return nil
}

func (p *Policy) copyFile(src, dst string) error {
	in, err := p.fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := p.fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		p.fs.Remove(dst)
		return err
	}
	return out.Close()
}
