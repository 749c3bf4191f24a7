// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdfcodec implements document.Codec on top of pdfcpu.
package pdfcodec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/pdiddy/pdf-batch-crop/internal/document"
	bctypes "github.com/pdiddy/pdf-batch-crop/pkg/types"
)

// Codec is the pdfcpu-backed document.Codec. The zero value is ready to use
// and safe for concurrent use; each operation gets its own pdfcpu
// configuration.
type Codec struct{}

var _ document.Codec = Codec{}

// New returns a Codec.
func New() Codec { return Codec{} }

// extractPageContent returns the decoded content stream of a page.
var extractPageContent = pdfcpu.ExtractPageContent

func newConf() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Open reads and validates the PDF in rs.
func (Codec) Open(rs io.ReadSeeker) (document.Document, error) {
	ctx, err := api.ReadValidateAndOptimize(rs, newConf())
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}
	return &Document{ctx: ctx}, nil
}

// Merge concatenates parts into one PDF written to w.
func (Codec) Merge(w io.Writer, parts []io.ReadSeeker) error {
	if len(parts) == 0 {
		return fmt.Errorf("nothing to merge")
	}
	if err := api.MergeRaw(parts, w, false, newConf()); err != nil {
		return fmt.Errorf("pdfcpu merge: %w", err)
	}
	return nil
}

// Document is an opened PDF held as a pdfcpu context. Page edits are made
// on the page dictionaries in place and take effect on Write.
type Document struct {
	ctx *model.Context
}

func (d *Document) PageCount() int { return d.ctx.PageCount }

func (d *Document) pageDict(pageNr int) (types.Dict, *model.InheritedPageAttrs, error) {
	if pageNr < 1 || pageNr > d.ctx.PageCount {
		return nil, nil, fmt.Errorf("page %d out of range 1-%d", pageNr, d.ctx.PageCount)
	}
	dict, _, inh, err := d.ctx.PageDict(pageNr, false)
	if err != nil {
		return nil, nil, err
	}
	if dict == nil {
		return nil, nil, fmt.Errorf("page %d has no page dictionary", pageNr)
	}
	return dict, inh, nil
}

// PageText extracts the text shown by the page content stream. Pages
// without a content stream have no text.
func (d *Document) PageText(pageNr int) (string, error) {
	if _, _, err := d.pageDict(pageNr); err != nil {
		return "", err
	}
	r, err := extractPageContent(d.ctx, pageNr)
	if errors.Is(err, model.ErrNoContent) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("extracting content of page %d: %w", pageNr, err)
	}
	if r == nil {
		return "", nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading content of page %d: %w", pageNr, err)
	}
	return contentText(data), nil
}

func (d *Document) PageSize(pageNr int) (float64, float64, error) {
	_, inh, err := d.pageDict(pageNr)
	if err != nil {
		return 0, 0, err
	}
	if inh == nil || inh.MediaBox == nil {
		return 0, 0, fmt.Errorf("page %d has no media box", pageNr)
	}
	return inh.MediaBox.Width(), inh.MediaBox.Height(), nil
}

func (d *Document) SetBoxes(pageNr int, box bctypes.BoundingBox) error {
	dict, _, err := d.pageDict(pageNr)
	if err != nil {
		return err
	}
	// Box order is x0 x1 y0 y1; PDF rectangles are llx lly urx ury.
	rect := types.NewRectangle(box.LowerLeftX(), box.LowerLeftY(), box.UpperRightX(), box.UpperRightY())
	dict["CropBox"] = rect.Array()
	dict["TrimBox"] = rect.Array()
	return nil
}

func (d *Document) RotateCounterClockwise(pageNr int) error {
	dict, inh, err := d.pageDict(pageNr)
	if err != nil {
		return err
	}
	current := 0
	if inh != nil {
		current = inh.Rotate
	}
	dict["Rotate"] = types.Integer(((current-90)%360 + 360) % 360)
	return nil
}

// Write serializes the selected pages. pageNrs must be ascending.
func (d *Document) Write(w io.Writer, pageNrs []int) error {
	if len(pageNrs) == 0 {
		return fmt.Errorf("no pages to write")
	}
	removed := droppedPages(d.ctx.PageCount, pageNrs)
	if len(removed) == 0 {
		return api.WriteContext(d.ctx, w)
	}

	var buf bytes.Buffer
	if err := api.WriteContext(d.ctx, &buf); err != nil {
		return err
	}
	if err := api.RemovePages(bytes.NewReader(buf.Bytes()), w, removed, newConf()); err != nil {
		return fmt.Errorf("pdfcpu remove pages: %w", err)
	}
	return nil
}

// droppedPages returns the page selection strings of every page in
// 1..pageCount that is not listed in keep.
func droppedPages(pageCount int, keep []int) []string {
	kept := make(map[int]bool, len(keep))
	for _, nr := range keep {
		kept[nr] = true
	}
	var removed []string
	for nr := 1; nr <= pageCount; nr++ {
		if !kept[nr] {
			removed = append(removed, strconv.Itoa(nr))
		}
	}
	return removed
}
