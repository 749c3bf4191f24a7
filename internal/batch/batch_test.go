// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf-batch-crop/internal/archive"
	"github.com/pdiddy/pdf-batch-crop/internal/document/doctest"
	"github.com/pdiddy/pdf-batch-crop/pkg/types"
)

// --- test helpers ---

func testConfig() *types.Config {
	return &types.Config{
		OutputFilename:    "merged.pdf",
		Suffix:            "crop",
		Directory:         "/in/",
		ArchivedDirectory: "Archived/",
		BoundingBox:       types.BoundingBox{0, 300, 0, 200},
		Workers:           1,
	}
}

func exists(t *testing.T, fs afero.Fs, path string) bool {
	t.Helper()
	ok, err := afero.Exists(fs, path)
	require.NoError(t, err)
	return ok
}

func fixedMonth() time.Time {
	return time.Date(2024, time.March, 9, 12, 0, 0, 0, time.Local)
}

type recorderFunc func(ctx context.Context, started time.Time, cfg *types.Config, result types.BatchResult) error

func (f recorderFunc) RecordRun(ctx context.Context, started time.Time, cfg *types.Config, result types.BatchResult) error {
	return f(ctx, started, cfg, result)
}

// --- discovery ---

func TestDiscover(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, name := range []string{"c.pdf", "a.pdf", "b.PDF", "merged.pdf", "notes.txt"} {
		require.NoError(t, afero.WriteFile(fs, "/in/"+name, []byte("x"), 0o644))
	}
	require.NoError(t, fs.MkdirAll("/in/sub.pdf", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/elsewhere/single.pdf", []byte("x"), 0o644))

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name: "directory only",
			want: []string{"/in/a.pdf", "/in/b.PDF", "/in/c.pdf"},
		},
		{
			name:  "explicit file appended last",
			input: "/elsewhere/single.pdf",
			want:  []string{"/in/a.pdf", "/in/b.PDF", "/in/c.pdf", "/elsewhere/single.pdf"},
		},
		{
			name:  "explicit file already in directory",
			input: "/in/a.pdf",
			want:  []string{"/in/a.pdf", "/in/b.PDF", "/in/c.pdf"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.InputFilename = tt.input
			got, err := Discover(fs, cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDiscoverMissingDirectory(t *testing.T) {
	_, err := Discover(afero.NewMemMapFs(), testConfig())
	require.Error(t, err)
}

// --- runs ---

func TestRunNothingToProcess(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/in", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/in/merged.pdf", []byte("x"), 0o644))

	cfg := testConfig()
	cfg.Merge = true
	var out bytes.Buffer
	res, err := New(cfg, &doctest.Codec{}, WithFs(fs), WithOutput(&out)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, types.BatchResult{}, res)
	assert.True(t, res.Empty())
	assert.Equal(t, "There are no PDFs to process.\n", out.String())
	files, err := afero.ReadDir(fs, "/in")
	require.NoError(t, err)
	assert.Len(t, files, 1, "no output may be written")
}

func TestRunWithoutMergeKeepsOutputs(t *testing.T) {
	fs := afero.NewMemMapFs()
	doctest.WriteFile(t, fs, "/in/a.pdf", doctest.Portrait("a1"), doctest.Portrait("a2"))
	doctest.WriteFile(t, fs, "/in/b.pdf", doctest.Portrait("b1"))

	res, err := New(testConfig(), &doctest.Codec{}, WithFs(fs)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Files)
	assert.Equal(t, 3, res.InputPages)
	assert.Zero(t, res.MergedPages)
	assert.True(t, exists(t, fs, "/in/a-crop.pdf"))
	assert.True(t, exists(t, fs, "/in/b-crop.pdf"))
	assert.True(t, exists(t, fs, "/in/a.pdf"))
	require.Len(t, res.Documents, 2)
	assert.Equal(t, "/in/a-crop.pdf", res.Documents[0].Output)
}

func TestRunMerge(t *testing.T) {
	fs := afero.NewMemMapFs()
	doctest.WriteFile(t, fs, "/in/a.pdf", doctest.Portrait("first"))
	doctest.WriteFile(t, fs, "/in/b.pdf", doctest.Portrait("second"))

	cfg := testConfig()
	cfg.Merge = true
	var out bytes.Buffer
	res, err := New(cfg, &doctest.Codec{}, WithFs(fs), WithOutput(&out)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Files)
	assert.Equal(t, 2, res.MergedPages)
	assert.Equal(t, "/in/merged.pdf", res.MergedPath)

	merged := doctest.ReadFile(t, fs, "/in/merged.pdf")
	require.Len(t, merged.Pages, 2)
	assert.Equal(t, "first", merged.Pages[0].Text)
	assert.Equal(t, "second", merged.Pages[1].Text)

	assert.False(t, exists(t, fs, "/in/a-crop.pdf"), "transient output must be removed")
	assert.False(t, exists(t, fs, "/in/b-crop.pdf"), "transient output must be removed")
	assert.Contains(t, out.String(), "Merged: 2 PDF files to a 2 page PDF in /in/merged.pdf")
}

func TestRunMergeAndArchive(t *testing.T) {
	fs := afero.NewMemMapFs()
	doctest.WriteFile(t, fs, "/in/a.pdf", doctest.Portrait("first"))
	doctest.WriteFile(t, fs, "/in/b.pdf", doctest.Landscape("second"))

	cfg := testConfig()
	cfg.Merge = true
	cfg.Archive = true
	res, err := New(cfg, &doctest.Codec{}, WithFs(fs)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.MergedPages)
	assert.True(t, exists(t, fs, "/in/merged.pdf"))
	assert.True(t, exists(t, fs, "/in/Archived/a.pdf"))
	assert.True(t, exists(t, fs, "/in/Archived/b.pdf"))
	assert.False(t, exists(t, fs, "/in/a.pdf"))
	assert.False(t, exists(t, fs, "/in/a-crop.pdf"))
	assert.False(t, exists(t, fs, "/in/b-crop.pdf"))

	require.Len(t, res.Documents, 2)
	assert.Equal(t, "/in/Archived/a.pdf", res.Documents[0].ArchivedTo)
	assert.Empty(t, res.Documents[0].Output)
}

func TestRunArchiveByMonth(t *testing.T) {
	fs := afero.NewMemMapFs()
	doctest.WriteFile(t, fs, "/in/a.pdf", doctest.Portrait("x"))

	cfg := testConfig()
	cfg.Archive = true
	cfg.ArchiveByMonth = true
	archiver := archive.New(fs).WithClock(fixedMonth)

	res, err := New(cfg, &doctest.Codec{}, WithFs(fs), WithArchiver(archiver)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/in/Archived/2024-03/a.pdf", res.Documents[0].ArchivedTo)
	assert.True(t, exists(t, fs, "/in/Archived/2024-03/a.pdf"))
	assert.True(t, exists(t, fs, "/in/a-crop.pdf"), "output stays in place without merge")
}

func TestRunFilterAndRotate(t *testing.T) {
	fs := afero.NewMemMapFs()
	doctest.WriteFile(t, fs, "/in/a.pdf",
		doctest.Landscape("label"),
		doctest.Portrait("INVOICE 42"),
		doctest.Portrait("label"),
	)

	cfg := testConfig()
	cfg.FilterText = "INVOICE"
	cfg.Rotate = true
	res, err := New(cfg, &doctest.Codec{}, WithFs(fs)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, res.InputPages)
	assert.Equal(t, 2, res.Documents[0].ProcessedPages)

	got := doctest.ReadFile(t, fs, "/in/a-crop.pdf")
	require.Len(t, got.Pages, 2)
	assert.Equal(t, 270, got.Pages[0].Rotate)
	assert.Equal(t, 0, got.Pages[1].Rotate)
}

func TestRunFullyFilteredDocumentWithMerge(t *testing.T) {
	fs := afero.NewMemMapFs()
	doctest.WriteFile(t, fs, "/in/a.pdf", doctest.Portrait("INVOICE"))
	doctest.WriteFile(t, fs, "/in/b.pdf", doctest.Portrait("keep"))

	cfg := testConfig()
	cfg.Merge = true
	cfg.FilterText = "INVOICE"
	res, err := New(cfg, &doctest.Codec{}, WithFs(fs)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Files)
	assert.Equal(t, 1, res.MergedPages)
	merged := doctest.ReadFile(t, fs, "/in/merged.pdf")
	require.Len(t, merged.Pages, 1)
	assert.Equal(t, "keep", merged.Pages[0].Text)
}

func TestRunAbortsOnFirstDocumentError(t *testing.T) {
	for _, workers := range []int{1, 3} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			fs := afero.NewMemMapFs()
			doctest.WriteFile(t, fs, "/in/a.pdf", doctest.Portrait("ok"))
			require.NoError(t, afero.WriteFile(fs, "/in/b.pdf", []byte("corrupt"), 0o644))
			doctest.WriteFile(t, fs, "/in/c.pdf", doctest.Portrait("later"))

			cfg := testConfig()
			cfg.Workers = workers
			cfg.Merge = true
			res, err := New(cfg, &doctest.Codec{}, WithFs(fs)).Run(context.Background())
			require.Error(t, err)

			var derr *types.DocumentError
			require.True(t, errors.As(err, &derr))
			assert.Equal(t, "/in/b.pdf", derr.Path)
			assert.Equal(t, 1, res.Files, "only documents before the failure are finished")
			assert.False(t, exists(t, fs, "/in/merged.pdf"))
		})
	}
}

func TestRunConcurrentFailureLeavesNoOutputs(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/in/a.pdf", []byte("corrupt"), 0o644))
	for i := 0; i < 8; i++ {
		doctest.WriteFile(t, fs, fmt.Sprintf("/in/doc-%02d.pdf", i), doctest.Portrait("x"))
	}

	cfg := testConfig()
	cfg.Workers = 4
	res, err := New(cfg, &doctest.Codec{}, WithFs(fs)).Run(context.Background())
	require.Error(t, err)
	assert.Zero(t, res.Files)

	outputs, err := afero.Glob(fs, "/in/*-crop.pdf")
	require.NoError(t, err)
	assert.Empty(t, outputs, "unfinished outputs must not be left for the next run")
	for i := 0; i < 8; i++ {
		assert.True(t, exists(t, fs, fmt.Sprintf("/in/doc-%02d.pdf", i)), "sources stay in place")
	}
}

func TestRunArchiveError(t *testing.T) {
	base := afero.NewMemMapFs()
	doctest.WriteFile(t, base, "/in/a.pdf", doctest.Portrait("x"))

	cfg := testConfig()
	cfg.Archive = true
	// Writes succeed but the archive directory cannot be created.
	archiver := archive.New(afero.NewReadOnlyFs(base))

	_, err := New(cfg, &doctest.Codec{}, WithFs(base), WithArchiver(archiver)).Run(context.Background())
	require.Error(t, err)
	var aerr *types.ArchiveError
	assert.True(t, errors.As(err, &aerr))
}

func TestRunConcurrentKeepsDiscoveryOrder(t *testing.T) {
	fs := afero.NewMemMapFs()
	var want []string
	for i := 0; i < 12; i++ {
		text := fmt.Sprintf("doc-%02d", i)
		doctest.WriteFile(t, fs, fmt.Sprintf("/in/%s.pdf", text), doctest.Portrait(text))
		want = append(want, text)
	}

	cfg := testConfig()
	cfg.Merge = true
	cfg.Archive = true
	cfg.Workers = 4
	codec := &doctest.Codec{}
	res, err := New(cfg, codec, WithFs(fs)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 12, res.Files)
	assert.Equal(t, 12, codec.Opened())
	assert.Equal(t, 1, codec.Merged())

	merged := doctest.ReadFile(t, fs, "/in/merged.pdf")
	var got []string
	for _, p := range merged.Pages {
		got = append(got, p.Text)
	}
	assert.Equal(t, want, got)
	for i, d := range res.Documents {
		assert.Equal(t, fmt.Sprintf("/in/%s.pdf", want[i]), d.Source)
	}
}

func TestRunCancelled(t *testing.T) {
	fs := afero.NewMemMapFs()
	doctest.WriteFile(t, fs, "/in/a.pdf", doctest.Portrait("x"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(testConfig(), &doctest.Codec{}, WithFs(fs)).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, exists(t, fs, "/in/a-crop.pdf"))
}

func TestRunDryRun(t *testing.T) {
	fs := afero.NewMemMapFs()
	doctest.WriteFile(t, fs, "/in/a.pdf", doctest.Portrait("x"))

	cfg := testConfig()
	cfg.DryRun = true
	cfg.Archive = true
	var out bytes.Buffer
	res, err := New(cfg, &doctest.Codec{}, WithFs(fs), WithOutput(&out)).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, res.Empty())
	assert.Contains(t, out.String(), "Would process: /in/a.pdf")
	assert.Contains(t, out.String(), "1 PDF file found")
	assert.True(t, exists(t, fs, "/in/a.pdf"))
	assert.False(t, exists(t, fs, "/in/a-crop.pdf"))
}

func TestRunVerboseReport(t *testing.T) {
	fs := afero.NewMemMapFs()
	doctest.WriteFile(t, fs, "/in/a.pdf", doctest.Portrait("x"))

	cfg := testConfig()
	cfg.Verbose = true
	cfg.Archive = true

	start := time.Date(2024, time.March, 9, 12, 0, 0, 0, time.UTC)
	ticks := []time.Time{start, start.Add(1500 * time.Millisecond)}
	clock := func() time.Time {
		now := ticks[0]
		if len(ticks) > 1 {
			ticks = ticks[1:]
		}
		return now
	}

	var out bytes.Buffer
	res, err := New(cfg, &doctest.Codec{}, WithFs(fs), WithOutput(&out), WithClock(clock)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, res.Elapsed)

	report := out.String()
	assert.Contains(t, report, "PDF BATCH CROP")
	assert.Contains(t, report, "Converting: /in/a.pdf\n")
	assert.Contains(t, report, "Archived To: /in/Archived/")
	assert.Contains(t, report, "Processed: Input has 1 page, output has 1 page.\n")
	assert.Contains(t, report, "Success! 1 PDF file (totalling 1 page) in 1.50 seconds.\n")
}

func TestRunQuietReport(t *testing.T) {
	fs := afero.NewMemMapFs()
	doctest.WriteFile(t, fs, "/in/a.pdf", doctest.Portrait("x"), doctest.Portrait("y"))
	doctest.WriteFile(t, fs, "/in/b.pdf", doctest.Portrait("z"))

	var out bytes.Buffer
	_, err := New(testConfig(), &doctest.Codec{}, WithFs(fs), WithOutput(&out)).Run(context.Background())
	require.NoError(t, err)

	report := out.String()
	assert.NotContains(t, report, "Converting:")
	assert.Contains(t, report, "Success! 2 PDF files (totalling 3 pages) in ")
}

func TestRunRecordsResult(t *testing.T) {
	fs := afero.NewMemMapFs()
	doctest.WriteFile(t, fs, "/in/a.pdf", doctest.Portrait("x"))

	var recorded []types.BatchResult
	rec := recorderFunc(func(_ context.Context, _ time.Time, _ *types.Config, res types.BatchResult) error {
		recorded = append(recorded, res)
		return errors.New("journal unavailable")
	})

	res, err := New(testConfig(), &doctest.Codec{}, WithFs(fs), WithRecorder(rec)).Run(context.Background())
	require.NoError(t, err, "journal failures do not fail the run")
	require.Len(t, recorded, 1)
	assert.Equal(t, res.Files, recorded[0].Files)
}

func TestPlural(t *testing.T) {
	assert.Equal(t, "s", Plural(0))
	assert.Equal(t, "", Plural(1))
	assert.Equal(t, "s", Plural(2))
	assert.Equal(t, "s", Plural(100))
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "nothing to process", Summary(types.BatchResult{}))
	assert.Equal(t, "1 PDF file, 3 pages", Summary(types.BatchResult{Files: 1, InputPages: 3}))
}
