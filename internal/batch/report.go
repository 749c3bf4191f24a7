// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pdiddy/pdf-batch-crop/pkg/types"
)

// Plural returns "s" unless n is exactly 1.
func Plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// reporter writes the human-readable progress report of a run.
type reporter struct {
	w       io.Writer
	verbose bool
}

func (r reporter) banner() {
	if !r.verbose {
		return
	}
	rule := strings.Repeat("-", 47)
	fmt.Fprintln(r.w, rule)
	fmt.Fprintln(r.w, "                 PDF BATCH CROP                ")
	fmt.Fprintln(r.w, rule)
}

func (r reporter) nothingToProcess() {
	fmt.Fprintln(r.w, "There are no PDFs to process.")
}

func (r reporter) dryRun(paths []string) {
	for _, p := range paths {
		fmt.Fprintf(r.w, "Would process: %s\n", p)
	}
	fmt.Fprintf(r.w, "%d PDF file%s found (dry run, nothing changed).\n", len(paths), Plural(len(paths)))
}

func (r reporter) converting(source string) {
	if r.verbose {
		fmt.Fprintf(r.w, "Converting: %s\n", source)
	}
}

func (r reporter) archived(path string) {
	if r.verbose {
		fmt.Fprintf(r.w, "Archived To: %s\n", path)
	}
}

func (r reporter) processed(s types.DocumentStats) {
	if r.verbose {
		fmt.Fprintf(r.w, "Processed: Input has %d page%s, output has %d page%s.\n\n",
			s.TotalPages, Plural(s.TotalPages), s.ProcessedPages, Plural(s.ProcessedPages))
	}
}

func (r reporter) merged(files, pages int, path string) {
	fmt.Fprintf(r.w, "Merged: %d PDF file%s to a %d page PDF in %s\n", files, Plural(files), pages, path)
}

func (r reporter) summary(res types.BatchResult) {
	fmt.Fprintf(r.w, "Success! %d PDF file%s (totalling %d page%s) in %.2f seconds.\n",
		res.Files, Plural(res.Files), res.InputPages, Plural(res.InputPages), res.Elapsed.Round(time.Millisecond).Seconds())
}
