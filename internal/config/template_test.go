// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package config

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf-batch-crop/pkg/types"
)

func TestWriteTemplateRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pdf-batch-crop.yaml")
	fs := afero.NewOsFs()

	require.NoError(t, WriteTemplate(fs, path, false))

	src, err := Load(NewViper(path))
	require.NoError(t, err)

	var cli Overrides
	cli.Set(KeyDirectory, dir)
	cfg, err := Resolve(fs, src, cli)
	require.NoError(t, err)

	assert.Equal(t, "pdf_crop_merge.pdf", cfg.OutputFilename)
	assert.Equal(t, "crop", cfg.Suffix)
	assert.Equal(t, types.BoundingBox{0, 612, 0, 396}, cfg.BoundingBox)
	assert.True(t, cfg.Merge)
	assert.False(t, cfg.Archive)
	assert.Equal(t, 1, cfg.Workers)
}

func TestWriteTemplateRefusesOverwrite(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/cfg.yaml", []byte("mine"), 0o644))

	err := WriteTemplate(fs, "/cfg.yaml", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	data, err := afero.ReadFile(fs, "/cfg.yaml")
	require.NoError(t, err)
	assert.Equal(t, "mine", string(data))

	require.NoError(t, WriteTemplate(fs, "/cfg.yaml", true))
	data, err = afero.ReadFile(fs, "/cfg.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "COORDINATES:")
}
