// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// DocumentStats holds the telemetry of one transformed document.
type DocumentStats struct {
	// Source is the path of the original document.
	Source string `json:"source" yaml:"source"`

	// Output is the path of the per-file output written by the transform.
	Output string `json:"output" yaml:"output"`

	// ArchivedTo is the archive destination of the source, if it was archived.
	ArchivedTo string `json:"archived_to,omitempty" yaml:"archived_to,omitempty"`

	// TotalPages counts every page in the source, filtered or not.
	TotalPages int `json:"total_pages" yaml:"total_pages"`

	// ProcessedPages counts the pages retained in the output.
	ProcessedPages int `json:"processed_pages" yaml:"processed_pages"`
}

// BatchResult aggregates the outcome of one batch run.
type BatchResult struct {
	Files       int             `json:"files" yaml:"files"`
	InputPages  int             `json:"input_pages" yaml:"input_pages"`
	MergedPages int             `json:"merged_pages" yaml:"merged_pages"`
	MergedPath  string          `json:"merged_path,omitempty" yaml:"merged_path,omitempty"`
	Elapsed     time.Duration   `json:"elapsed" yaml:"elapsed"`
	Documents   []DocumentStats `json:"documents,omitempty" yaml:"documents,omitempty"`
}

// Empty reports whether the run found nothing to process.
func (r BatchResult) Empty() bool {
	return r.Files == 0
}
