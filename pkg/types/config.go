// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// BoundingBox holds the four crop extents in source axis order:
// lower-left x, upper-right x, lower-left y, upper-right y.
type BoundingBox [4]float64

// LowerLeftX returns the left horizontal bound.
func (b BoundingBox) LowerLeftX() float64 { return b[0] }

// UpperRightX returns the right horizontal bound.
func (b BoundingBox) UpperRightX() float64 { return b[1] }

// LowerLeftY returns the bottom vertical bound.
func (b BoundingBox) LowerLeftY() float64 { return b[2] }

// UpperRightY returns the top vertical bound.
func (b BoundingBox) UpperRightY() float64 { return b[3] }

func (b BoundingBox) String() string {
	return fmt.Sprintf("[%g %g %g %g]", b[0], b[1], b[2], b[3])
}

// Config is the resolved, validated configuration for one batch run.
// It is produced only by config.Resolve and is read-only afterwards.
type Config struct {
	// InputFilename is an absolute path to one extra PDF to process, or empty.
	InputFilename string `json:"input_filename" yaml:"input_filename"`

	// OutputFilename is the sanitized name of the merged output file.
	OutputFilename string `json:"output_filename" yaml:"output_filename"`

	// FilterText excludes pages whose extracted text contains it. Empty disables filtering.
	FilterText string `json:"filter" yaml:"filter"`

	// Suffix is inserted as "-<suffix>" before the extension of per-file outputs.
	Suffix string `json:"suffix" yaml:"suffix"`

	// Directory is the existing input directory, always ending in a path separator.
	Directory string `json:"directory" yaml:"directory"`

	// ArchivedDirectory is the sanitized archive path relative to Directory,
	// always ending in a path separator.
	ArchivedDirectory string `json:"archived_directory" yaml:"archived_directory"`

	BoundingBox BoundingBox `json:"bounding_box" yaml:"bounding_box,flow"`

	Verbose        bool `json:"verbose" yaml:"verbose"`
	Merge          bool `json:"merge" yaml:"merge"`
	Rotate         bool `json:"rotate" yaml:"rotate"`
	ArchiveByMonth bool `json:"archive_by_month" yaml:"archive_by_month"`
	Archive        bool `json:"archive" yaml:"archive"`

	// Journal is the SQLite run journal path. Empty disables journaling.
	Journal string `json:"journal,omitempty" yaml:"journal,omitempty"`

	// Workers is the number of concurrent transforms (at least 1).
	Workers int `json:"workers" yaml:"workers"`

	// DryRun lists discovered documents without touching them.
	DryRun bool `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
}
