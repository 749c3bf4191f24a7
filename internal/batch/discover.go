// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/pdiddy/pdf-batch-crop/pkg/types"
)

const pdfExt = ".pdf"

// Discover lists the documents a run processes: the PDF files of
// cfg.Directory in directory order, except the merge output file, followed
// by cfg.InputFilename when set and not already listed.
func Discover(fs afero.Fs, cfg *types.Config) ([]string, error) {
	entries, err := afero.ReadDir(fs, cfg.Directory)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", cfg.Directory, err)
	}

	var paths []string
	seen := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.EqualFold(filepath.Ext(name), pdfExt) {
			continue
		}
		if cfg.OutputFilename != "" && name == cfg.OutputFilename {
			continue
		}
		p := filepath.Join(cfg.Directory, name)
		paths = append(paths, p)
		seen[p] = true
	}

	if cfg.InputFilename != "" && !seen[filepath.Clean(cfg.InputFilename)] {
		paths = append(paths, cfg.InputFilename)
	}
	return paths, nil
}
