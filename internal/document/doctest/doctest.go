// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package doctest provides an in-memory document.Codec for tests. Fake
// documents are small YAML files describing their pages, so tests can build
// fixtures and inspect outputs without real PDF bytes.
package doctest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdf-batch-crop/internal/document"
	"github.com/pdiddy/pdf-batch-crop/pkg/types"
)

const magic = "%FAKEPDF\n"

// ErrCorrupt is returned by Open for input that is not a fake document.
var ErrCorrupt = errors.New("corrupt document")

// Page describes one fake page.
type Page struct {
	Text   string             `yaml:"text,omitempty"`
	Width  float64            `yaml:"width"`
	Height float64            `yaml:"height"`
	Box    *types.BoundingBox `yaml:"box,omitempty,flow"`
	Rotate int                `yaml:"rotate,omitempty"`
}

// File is a fake document.
type File struct {
	Pages []Page `yaml:"pages"`
}

// Portrait returns a letter-size portrait page carrying text.
func Portrait(text string) Page { return Page{Text: text, Width: 612, Height: 792} }

// Landscape returns a letter-size landscape page carrying text.
func Landscape(text string) Page { return Page{Text: text, Width: 792, Height: 612} }

// Encode serializes f.
func Encode(f File) []byte {
	data, err := yaml.Marshal(&f)
	if err != nil {
		panic(err)
	}
	return append([]byte(magic), data...)
}

// Decode parses a fake document.
func Decode(data []byte) (File, error) {
	var f File
	if !bytes.HasPrefix(data, []byte(magic)) {
		return f, ErrCorrupt
	}
	if err := yaml.Unmarshal(data[len(magic):], &f); err != nil {
		return f, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return f, nil
}

// WriteFile stores a fake document with the given pages at path.
func WriteFile(t *testing.T, fs afero.Fs, path string, pages ...Page) {
	t.Helper()
	if err := afero.WriteFile(fs, path, Encode(File{Pages: pages}), 0o644); err != nil {
		t.Fatal(err)
	}
}

// ReadFile loads the fake document at path.
func ReadFile(t *testing.T, fs afero.Fs, path string) File {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		t.Fatal(err)
	}
	f, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

// Codec implements document.Codec over fake documents. It is safe for
// concurrent use.
type Codec struct {
	// WriteErr, when set, is returned by every Document.Write.
	WriteErr error

	mu     sync.Mutex
	opened int
	merged int
}

var _ document.Codec = (*Codec)(nil)

// Opened reports how many documents were opened.
func (c *Codec) Opened() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opened
}

// Merged reports how many merges were performed.
func (c *Codec) Merged() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.merged
}

func (c *Codec) Open(r io.ReadSeeker) (document.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f, err := Decode(data)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.opened++
	c.mu.Unlock()
	return &fakeDocument{file: f, writeErr: c.WriteErr}, nil
}

func (c *Codec) Merge(w io.Writer, parts []io.ReadSeeker) error {
	var merged File
	for i, p := range parts {
		data, err := io.ReadAll(p)
		if err != nil {
			return err
		}
		f, err := Decode(data)
		if err != nil {
			return fmt.Errorf("part %d: %w", i, err)
		}
		merged.Pages = append(merged.Pages, f.Pages...)
	}
	c.mu.Lock()
	c.merged++
	c.mu.Unlock()
	_, err := w.Write(Encode(merged))
	return err
}

type fakeDocument struct {
	file     File
	writeErr error
}

func (d *fakeDocument) PageCount() int { return len(d.file.Pages) }

func (d *fakeDocument) page(pageNr int) (*Page, error) {
	if pageNr < 1 || pageNr > len(d.file.Pages) {
		return nil, fmt.Errorf("page %d out of range", pageNr)
	}
	return &d.file.Pages[pageNr-1], nil
}

func (d *fakeDocument) PageText(pageNr int) (string, error) {
	p, err := d.page(pageNr)
	if err != nil {
		return "", err
	}
	return p.Text, nil
}

func (d *fakeDocument) PageSize(pageNr int) (float64, float64, error) {
	p, err := d.page(pageNr)
	if err != nil {
		return 0, 0, err
	}
	return p.Width, p.Height, nil
}

func (d *fakeDocument) SetBoxes(pageNr int, box types.BoundingBox) error {
	p, err := d.page(pageNr)
	if err != nil {
		return err
	}
	b := box
	p.Box = &b
	return nil
}

func (d *fakeDocument) RotateCounterClockwise(pageNr int) error {
	p, err := d.page(pageNr)
	if err != nil {
		return err
	}
	p.Rotate = (p.Rotate + 270) % 360
	return nil
}

func (d *fakeDocument) Write(w io.Writer, pageNrs []int) error {
	if d.writeErr != nil {
		return d.writeErr
	}
	var out File
	for _, nr := range pageNrs {
		p, err := d.page(nr)
		if err != nil {
			return err
		}
		out.Pages = append(out.Pages, *p)
	}
	_, err := w.Write(Encode(out))
	return err
}
