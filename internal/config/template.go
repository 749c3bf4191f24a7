// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package config

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"go.yaml.in/yaml/v3"
)

// fileTemplate mirrors the persisted configuration layout.
type fileTemplate struct {
	Defaults struct {
		InputFilename     string `yaml:"input_filename"`
		OutputFilename    string `yaml:"output_filename"`
		Filter            string `yaml:"filter"`
		Suffix            string `yaml:"suffix"`
		Directory         string `yaml:"directory"`
		ArchivedDirectory string `yaml:"archived_directory"`
		Journal           string `yaml:"journal"`
		Workers           int    `yaml:"workers"`
	} `yaml:"DEFAULTS"`
	Coordinates struct {
		LowerLeftX  float64 `yaml:"lower_left_x"`
		UpperRightX float64 `yaml:"upper_right_x"`
		LowerLeftY  float64 `yaml:"lower_left_y"`
		UpperRightY float64 `yaml:"upper_right_y"`
	} `yaml:"COORDINATES"`
	Toggles struct {
		Verbose        bool `yaml:"verbose"`
		Merge          bool `yaml:"merge"`
		Rotate         bool `yaml:"rotate"`
		ArchiveByMonth bool `yaml:"archive_by_month"`
		Archive        bool `yaml:"archive"`
	} `yaml:"TOGGLES"`
}

const templateHeader = `# pdf-batch-crop configuration.
# Command-line flags override these values. Toggles accept
# true/yes/on/1 and false/no/off/0.
`

// Template returns a starter configuration that crops letter-size pages to
// their lower half and processes the current directory.
func Template() ([]byte, error) {
	var t fileTemplate
	t.Defaults.OutputFilename = "pdf_crop_merge.pdf"
	t.Defaults.Suffix = "crop"
	t.Defaults.Directory = "."
	t.Defaults.ArchivedDirectory = "Archived"
	t.Defaults.Workers = 1
	t.Coordinates.UpperRightX = 612
	t.Coordinates.UpperRightY = 396
	t.Toggles.Merge = true

	data, err := yaml.Marshal(&t)
	if err != nil {
		return nil, fmt.Errorf("marshaling template: %w", err)
	}
	return append([]byte(templateHeader), data...), nil
}

// WriteTemplate writes Template to path. An existing file is only replaced
// when force is set.
func WriteTemplate(fs afero.Fs, path string, force bool) error {
	if !force {
		exists, err := afero.Exists(fs, path)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	data, err := Template()
	if err != nil {
		return err
	}
	return afero.WriteFile(fs, path, data, os.FileMode(0o644))
}
