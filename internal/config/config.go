// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config resolves the batch configuration from a persisted source
// and command-line overrides into one validated types.Config.
//
// Resolution is a reduction over option names: every option pairs its file
// value with an optional command-line value, and the command-line value wins
// when present. Every field is validated before the Config is returned, so no
// partially valid configuration is ever observable.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cast"

	"github.com/pdiddy/pdf-batch-crop/pkg/types"
)

// Option keys shared by the file source and the command line.
const (
	KeyInputFilename     = "input_filename"
	KeyOutputFilename    = "output_filename"
	KeyFilter            = "filter"
	KeySuffix            = "suffix"
	KeyDirectory         = "directory"
	KeyArchivedDirectory = "archived_directory"
	KeyJournal           = "journal"
	KeyWorkers           = "workers"
	KeyBoundingBox       = "bounding_box"

	KeyLowerLeftX  = "lower_left_x"
	KeyUpperRightX = "upper_right_x"
	KeyLowerLeftY  = "lower_left_y"
	KeyUpperRightY = "upper_right_y"

	KeyVerbose        = "verbose"
	KeyMerge          = "merge"
	KeyRotate         = "rotate"
	KeyArchiveByMonth = "archive_by_month"
	KeyArchive        = "archive"
)

// CoordinateKeys lists the COORDINATES keys in bounding box order.
var CoordinateKeys = []string{KeyLowerLeftX, KeyUpperRightX, KeyLowerLeftY, KeyUpperRightY}

// ToggleKeys lists the TOGGLES keys.
var ToggleKeys = []string{KeyVerbose, KeyMerge, KeyRotate, KeyArchiveByMonth, KeyArchive}

var (
	trueTokens  = []string{"true", "yes", "on", "1"}
	falseTokens = []string{"false", "no", "off", "0"}
)

// Overrides holds the values given on the command line. Only options the
// user actually passed appear in Values; toggles are carried as "true" or
// "false".
type Overrides struct {
	Values      map[string]string
	BoundingBox []string
	DryRun      bool
}

// Set records a command-line value for key.
func (o *Overrides) Set(key, value string) {
	if o.Values == nil {
		o.Values = make(map[string]string)
	}
	o.Values[key] = value
}

// option pairs a file value with an optional command-line value.
type option struct {
	file string
	cli  *string
}

func (o option) value() string {
	if o.cli != nil {
		return *o.cli
	}
	return o.file
}

// reduce builds the option table for every scalar key.
func reduce(file FileSource, cli Overrides) map[string]option {
	table := make(map[string]option)
	for _, section := range []string{SectionDefaults, SectionToggles} {
		for _, key := range sectionKeys[section] {
			opt := option{file: strings.TrimSpace(file.Get(section, key))}
			if v, ok := cli.Values[key]; ok {
				opt.cli = &v
			}
			table[key] = opt
		}
	}
	return table
}

// Resolve merges the file source with the command-line overrides and
// validates the result. fs is used for the existence checks on the input
// directory and the single input file.
func Resolve(fs afero.Fs, file FileSource, cli Overrides) (*types.Config, error) {
	opts := reduce(file, cli)
	cfg := &types.Config{
		FilterText: opts[KeyFilter].value(),
		Journal:    opts[KeyJournal].value(),
		DryRun:     cli.DryRun,
	}

	toggles := map[string]*bool{
		KeyVerbose:        &cfg.Verbose,
		KeyMerge:          &cfg.Merge,
		KeyRotate:         &cfg.Rotate,
		KeyArchiveByMonth: &cfg.ArchiveByMonth,
		KeyArchive:        &cfg.Archive,
	}
	for _, key := range ToggleKeys {
		b, err := ParseToggle(opts[key].value())
		if err != nil {
			return nil, &types.ValidationError{Field: key, Reason: err.Error()}
		}
		*toggles[key] = b
	}

	dir, err := resolveDirectory(fs, opts[KeyDirectory].value())
	if err != nil {
		return nil, err
	}
	cfg.Directory = dir

	input, err := resolveInputFile(fs, opts[KeyInputFilename].value())
	if err != nil {
		return nil, err
	}
	cfg.InputFilename = input

	cfg.OutputFilename = SanitizeName(opts[KeyOutputFilename].value())
	if cfg.Merge && cfg.OutputFilename == "" {
		return nil, &types.ValidationError{Field: KeyOutputFilename, Reason: "required when merge is enabled"}
	}

	cfg.Suffix = SanitizeName(opts[KeySuffix].value())

	cfg.ArchivedDirectory = withTrailingSeparator(SanitizeName(opts[KeyArchivedDirectory].value()))
	if cfg.Archive && cfg.ArchivedDirectory == "" {
		return nil, &types.ValidationError{Field: KeyArchivedDirectory, Reason: "required when archive is enabled"}
	}

	box, err := resolveBoundingBox(file, cli.BoundingBox)
	if err != nil {
		return nil, err
	}
	cfg.BoundingBox = box

	workers, err := resolveWorkers(opts[KeyWorkers].value())
	if err != nil {
		return nil, err
	}
	cfg.Workers = workers

	return cfg, nil
}

// ParseToggle maps a boolean-like token to a bool. Tokens are matched
// case-insensitively; an empty value is false. Any other value is an error.
func ParseToggle(s string) (bool, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return false, nil
	}
	for _, t := range trueTokens {
		if s == t {
			return true, nil
		}
	}
	for _, t := range falseTokens {
		if s == t {
			return false, nil
		}
	}
	return false, fmt.Errorf("invalid toggle value %q (want one of true/yes/on/1 or false/no/off/0)", s)
}

func resolveDirectory(fs afero.Fs, dir string) (string, error) {
	if dir == "" {
		return "", &types.ValidationError{Field: KeyDirectory, Reason: "directory is required"}
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", &types.ValidationError{Field: KeyDirectory, Reason: err.Error()}
	}
	ok, err := afero.DirExists(fs, abs)
	if err != nil || !ok {
		return "", &types.ValidationError{
			Field:  KeyDirectory,
			Reason: fmt.Sprintf("invalid input directory or directory doesn't exist: %s", dir),
		}
	}
	return withTrailingSeparator(abs), nil
}

func resolveInputFile(fs afero.Fs, name string) (string, error) {
	if name == "" {
		return "", nil
	}
	abs, err := filepath.Abs(name)
	if err != nil {
		return "", &types.ValidationError{Field: KeyInputFilename, Reason: err.Error()}
	}
	ok, err := afero.Exists(fs, abs)
	if err != nil || !ok {
		return "", &types.ValidationError{
			Field:  KeyInputFilename,
			Reason: fmt.Sprintf("input filename doesn't exist: %s", name),
		}
	}
	return abs, nil
}

// resolveBoundingBox prefers the command-line list and falls back to the
// four COORDINATES keys.
func resolveBoundingBox(file FileSource, cli []string) (types.BoundingBox, error) {
	raw := cli
	if len(raw) == 0 {
		raw = make([]string, len(CoordinateKeys))
		for i, key := range CoordinateKeys {
			raw[i] = file.Get(SectionCoordinates, key)
		}
	}
	return ParseBoundingBox(raw)
}

// ParseBoundingBox converts exactly four numeric strings into a BoundingBox.
func ParseBoundingBox(raw []string) (types.BoundingBox, error) {
	var box types.BoundingBox
	if len(raw) != len(box) {
		return box, &types.ValidationError{
			Field:  KeyBoundingBox,
			Reason: fmt.Sprintf("invalid bounding box: need 4 numeric values, got %d", len(raw)),
		}
	}
	for i, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			return box, &types.ValidationError{
				Field:  KeyBoundingBox,
				Reason: fmt.Sprintf("invalid bounding box: value %d is empty", i+1),
			}
		}
		f, err := cast.ToFloat64E(s)
		if err != nil {
			return box, &types.ValidationError{
				Field:  KeyBoundingBox,
				Reason: fmt.Sprintf("invalid bounding box: value %q is not numeric", s),
			}
		}
		box[i] = f
	}
	return box, nil
}

func resolveWorkers(s string) (int, error) {
	if s == "" {
		return 1, nil
	}
	n, err := cast.ToIntE(s)
	if err != nil || n < 1 {
		return 0, &types.ValidationError{Field: KeyWorkers, Reason: fmt.Sprintf("invalid worker count %q", s)}
	}
	return n, nil
}
