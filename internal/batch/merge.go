// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"bytes"
	"fmt"
	"io"

	"github.com/spf13/afero"

	"github.com/pdiddy/pdf-batch-crop/internal/document"
)

// mergeAccumulator collects transformed outputs, in the order they are
// added, for one merged document. It has a single writer: the orchestrator.
type mergeAccumulator struct {
	fs    afero.Fs
	parts [][]byte
	pages int
}

// Add reads the per-file output at path into the accumulator and deletes
// the file, which is transient once merged.
func (m *mergeAccumulator) Add(path string, pages int) error {
	data, err := afero.ReadFile(m.fs, path)
	if err != nil {
		return fmt.Errorf("reading %s for merge: %w", path, err)
	}
	if err := m.fs.Remove(path); err != nil {
		return fmt.Errorf("removing merged file %s: %w", path, err)
	}
	m.parts = append(m.parts, data)
	m.pages += pages
	return nil
}

// Len returns the number of accumulated documents.
func (m *mergeAccumulator) Len() int { return len(m.parts) }

// Pages returns the total page count of the accumulated documents.
func (m *mergeAccumulator) Pages() int { return m.pages }

// WriteTo merges the accumulated documents into dest.
func (m *mergeAccumulator) WriteTo(codec document.Codec, dest string) error {
	readers := make([]io.ReadSeeker, len(m.parts))
	for i, p := range m.parts {
		readers[i] = bytes.NewReader(p)
	}

	f, err := m.fs.Create(dest)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}
	if err := codec.Merge(f, readers); err != nil {
		f.Close()
		m.fs.Remove(dest)
		return fmt.Errorf("merging into %s: %w", dest, err)
	}
	return f.Close()
}
