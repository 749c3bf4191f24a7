// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package document crops, rotates, and filters the pages of one source PDF
// into a new per-file output.
package document

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/pdiddy/pdf-batch-crop/pkg/types"
)

// Codec opens PDF documents and merges serialized ones. The pdfcpu-backed
// implementation lives in internal/pdfcodec.
type Codec interface {
	// Open parses the document read from r.
	Open(r io.ReadSeeker) (Document, error)

	// Merge concatenates the pages of parts, in order, into one document
	// written to w.
	Merge(w io.Writer, parts []io.ReadSeeker) error
}

// Document is one opened PDF. Page numbers are 1-based.
type Document interface {
	PageCount() int

	// PageText returns the extracted text of a page.
	PageText(pageNr int) (string, error)

	// PageSize returns the media box width and height of a page.
	PageSize(pageNr int) (width, height float64, err error)

	// SetBoxes sets both the crop box and the trim box of a page.
	SetBoxes(pageNr int, box types.BoundingBox) error

	// RotateCounterClockwise turns a page by 90 degrees.
	RotateCounterClockwise(pageNr int) error

	// Write serializes the given pages, in the given order, to w.
	Write(w io.Writer, pageNrs []int) error
}

// ErrAlreadyTransformed is returned when Transform is called twice on the
// same Descriptor.
var ErrAlreadyTransformed = errors.New("document already transformed")

// Descriptor wraps one source document for a single transform.
type Descriptor struct {
	// SourcePath is the path of the source PDF.
	SourcePath string

	// TotalPages counts all pages seen by Transform.
	TotalPages int

	// ProcessedPages counts the pages retained by Transform.
	ProcessedPages int

	box    types.BoundingBox
	rotate bool
	filter string

	fs    afero.Fs
	codec Codec

	output      string
	transformed bool
}

// New returns a Descriptor for the source at path using the crop, rotate,
// and filter settings of cfg.
func New(fs afero.Fs, codec Codec, path string, cfg *types.Config) *Descriptor {
	return &Descriptor{
		SourcePath: path,
		box:        cfg.BoundingBox,
		rotate:     cfg.Rotate,
		filter:     cfg.FilterText,
		fs:         fs,
		codec:      codec,
	}
}

func (d *Descriptor) String() string { return d.SourcePath }

// OutputPath inserts "-<suffix>" before the extension of source.
func OutputPath(source, suffix string) string {
	ext := filepath.Ext(source)
	return strings.TrimSuffix(source, ext) + "-" + suffix + ext
}

// Transform processes every page in document order: pages whose text
// contains the filter text are dropped, the rest get the configured crop and
// trim boxes and, when rotation is enabled, pages wider than tall are turned
// by 90 degrees. The retained pages are written next to the source under
// OutputPath(source, suffix), and that path is returned.
//
// When every page is filtered out no file is written and the returned path
// is empty. The source file is never modified.
func (d *Descriptor) Transform(suffix string) (string, error) {
	if d.transformed {
		return "", &types.DocumentError{Path: d.SourcePath, Err: ErrAlreadyTransformed}
	}
	d.transformed = true

	src, err := d.fs.Open(d.SourcePath)
	if err != nil {
		return "", &types.DocumentError{Path: d.SourcePath, Err: err}
	}
	defer src.Close()

	doc, err := d.codec.Open(src)
	if err != nil {
		return "", &types.DocumentError{Path: d.SourcePath, Err: fmt.Errorf("cannot read PDF: %w", err)}
	}

	d.TotalPages = doc.PageCount()
	keep := make([]int, 0, d.TotalPages)

	for pageNr := 1; pageNr <= d.TotalPages; pageNr++ {
		if d.filter != "" {
			text, err := doc.PageText(pageNr)
			if err != nil {
				return "", d.pageError(pageNr, err)
			}
			if strings.Contains(text, d.filter) {
				continue
			}
		}

		if err := doc.SetBoxes(pageNr, d.box); err != nil {
			return "", d.pageError(pageNr, err)
		}

		if d.rotate {
			w, h, err := doc.PageSize(pageNr)
			if err != nil {
				return "", d.pageError(pageNr, err)
			}
			if w > h {
				if err := doc.RotateCounterClockwise(pageNr); err != nil {
					return "", d.pageError(pageNr, err)
				}
			}
		}

		keep = append(keep, pageNr)
	}

	d.ProcessedPages = len(keep)
	if len(keep) == 0 {
		return "", nil
	}

	out := OutputPath(d.SourcePath, suffix)
	if err := d.write(doc, out, keep); err != nil {
		return "", &types.DocumentError{Path: d.SourcePath, Err: err}
	}
	d.output = out
	return out, nil
}

// Stats returns the telemetry recorded by Transform.
func (d *Descriptor) Stats() types.DocumentStats {
	return types.DocumentStats{
		Source:         d.SourcePath,
		Output:         d.output,
		TotalPages:     d.TotalPages,
		ProcessedPages: d.ProcessedPages,
	}
}

func (d *Descriptor) write(doc Document, out string, keep []int) error {
	f, err := d.fs.Create(out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", out, err)
	}
	if err := doc.Write(f, keep); err != nil {
		f.Close()
		d.fs.Remove(out)
		return fmt.Errorf("writing %s: %w", out, err)
	}
	if err := f.Close(); err != nil {
		d.fs.Remove(out)
		return fmt.Errorf("closing %s: %w", out, err)
	}
	return nil
}

func (d *Descriptor) pageError(pageNr int, err error) error {
	return &types.DocumentError{Path: d.SourcePath, Err: fmt.Errorf("page %d: %w", pageNr, err)}
}
