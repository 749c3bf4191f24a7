// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/pdiddy/pdf-batch-crop/pkg/types"
)

const (
	// AppName names the default config file and the env prefix.
	AppName = "pdf-batch-crop"

	envPrefix = "PDF_BATCH_CROP"
)

// Section names of the persisted configuration.
const (
	SectionDefaults    = "defaults"
	SectionCoordinates = "coordinates"
	SectionToggles     = "toggles"
)

// Sections lists the sections every configuration source must carry.
var Sections = []string{SectionDefaults, SectionCoordinates, SectionToggles}

// sectionKeys lists the keys each section understands. Unknown keys found in
// the file are kept but ignored by Resolve.
var sectionKeys = map[string][]string{
	SectionDefaults: {
		KeyInputFilename, KeyOutputFilename, KeyFilter, KeySuffix,
		KeyDirectory, KeyArchivedDirectory, KeyJournal, KeyWorkers,
	},
	SectionCoordinates: CoordinateKeys,
	SectionToggles:     ToggleKeys,
}

// FileSource holds the raw string values of a configuration source,
// keyed by lower-case section then lower-case key.
type FileSource map[string]map[string]string

// Get returns the value of key in section, or "" when absent.
func (s FileSource) Get(section, key string) string {
	return s[section][key]
}

// NewViper returns a viper instance configured the way the CLI reads its
// config: an explicit file when cfgFile is set, otherwise
// ./pdf-batch-crop.yaml or ~/.config/pdf-batch-crop/pdf-batch-crop.yaml,
// with PDF_BATCH_CROP_<SECTION>_<KEY> environment overrides.
func NewViper(cfgFile string) *viper.Viper {
	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(AppName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", AppName))
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the configuration source behind v and flattens it into a
// FileSource. A missing or unreadable source, or one lacking any of the
// required sections, fails with a *types.ConfigError.
func Load(v *viper.Viper) (FileSource, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, &types.ConfigError{Err: fmt.Errorf("no %s config file found", AppName)}
		}
		return nil, &types.ConfigError{Source: v.ConfigFileUsed(), Err: err}
	}

	src := make(FileSource, len(Sections))
	for _, section := range Sections {
		if !v.IsSet(section) {
			return nil, &types.ConfigError{
				Source: v.ConfigFileUsed(),
				Err:    fmt.Errorf("missing section %q", strings.ToUpper(section)),
			}
		}

		values := make(map[string]string)
		for key := range v.GetStringMap(section) {
			values[strings.ToLower(key)] = v.GetString(section + "." + key)
		}
		// Known keys may also arrive from the environment only.
		for _, key := range sectionKeys[section] {
			if _, ok := values[key]; ok {
				continue
			}
			if v.IsSet(section + "." + key) {
				values[key] = v.GetString(section + "." + key)
			}
		}
		src[section] = values
	}
	return src, nil
}
