// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pdf-batch-crop CLI.
//
// The root command runs one batch: it crops every PDF in the configured
// directory to the bounding box, optionally rotating, filtering, merging,
// and archiving. Settings come from pdf-batch-crop.yaml; each flag
// overrides the matching file setting.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/pdiddy/pdf-batch-crop/internal/batch"
	"github.com/pdiddy/pdf-batch-crop/internal/config"
	"github.com/pdiddy/pdf-batch-crop/internal/journal"
	"github.com/pdiddy/pdf-batch-crop/internal/pdfcodec"
	"github.com/pdiddy/pdf-batch-crop/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var _ batch.Recorder = (*journal.Journal)(nil)

// stringFlags are the scalar options shared with the DEFAULTS section.
var stringFlags = []struct {
	short, name, usage string
}{
	{"i", config.KeyInputFilename, "filename of a single extra input PDF"},
	{"o", config.KeyOutputFilename, "filename of the merged output PDF"},
	{"f", config.KeyFilter, "drop pages containing this text"},
	{"s", config.KeySuffix, "suffix added to cropped PDF filenames"},
	{"d", config.KeyDirectory, "directory to batch crop"},
	{"x", config.KeyArchivedDirectory, "subdirectory (relative to --directory) for archived PDFs"},
}

// toggleFlags are the boolean options shared with the TOGGLES section.
var toggleFlags = []struct {
	short, name, usage string
}{
	{"v", config.KeyVerbose, "verbose mode"},
	{"m", config.KeyMerge, "merge all cropped PDFs into --output_filename"},
	{"r", config.KeyRotate, "rotate pages wider than tall by 90 degrees"},
	{"c", config.KeyArchiveByMonth, "archive into year-month subdirectories"},
	{"a", config.KeyArchive, "move processed PDFs into --archived_directory"},
}

// rootCmd runs the batch.
var rootCmd = &cobra.Command{
	Use:   "pdf-batch-crop",
	Short: "Crop, filter, rotate, merge, and archive a directory of PDFs",
	Long: `pdf-batch-crop crops every page of every PDF in a directory to one
bounding box. Pages containing the filter text are dropped, wide pages can be
rotated, the results can be merged into a single PDF, and processed sources
can be moved into an archive directory, optionally bucketed by month.

Settings are read from pdf-batch-crop.yaml (sections DEFAULTS, COORDINATES,
TOGGLES). Any flag given on the command line overrides the file.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runBatch,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./pdf-batch-crop.yaml or ~/.config/pdf-batch-crop/pdf-batch-crop.yaml)")
	addBatchFlags(rootCmd.Flags())
}

// addBatchFlags declares the option flags on flags.
func addBatchFlags(flags *pflag.FlagSet) {
	for _, f := range stringFlags {
		flags.StringP(f.name, f.short, "", f.usage)
	}
	for _, f := range toggleFlags {
		flags.BoolP(f.name, f.short, false, f.usage)
	}
	flags.StringSliceP(config.KeyBoundingBox, "b", nil, "bounding box as four values: lower-left x, upper-right x, lower-left y, upper-right y")
	flags.String(config.KeyJournal, "", "SQLite run journal path (empty disables the journal)")
	flags.Int(config.KeyWorkers, 1, "number of documents transformed concurrently")
	flags.Bool("dry-run", false, "list the PDFs that would be processed and exit")
}

// overrides collects the flags the user actually passed.
func overrides(flags *pflag.FlagSet) config.Overrides {
	var o config.Overrides
	for _, f := range stringFlags {
		if flags.Changed(f.name) {
			v, _ := flags.GetString(f.name)
			o.Set(f.name, v)
		}
	}
	for _, f := range toggleFlags {
		if flags.Changed(f.name) {
			v, _ := flags.GetBool(f.name)
			o.Set(f.name, strconv.FormatBool(v))
		}
	}
	if flags.Changed(config.KeyJournal) {
		v, _ := flags.GetString(config.KeyJournal)
		o.Set(config.KeyJournal, v)
	}
	if flags.Changed(config.KeyWorkers) {
		v, _ := flags.GetInt(config.KeyWorkers)
		o.Set(config.KeyWorkers, strconv.Itoa(v))
	}
	if flags.Changed(config.KeyBoundingBox) {
		o.BoundingBox, _ = flags.GetStringSlice(config.KeyBoundingBox)
	}
	o.DryRun, _ = flags.GetBool("dry-run")
	return o
}

// resolveConfig loads the config file named by --config (or the default
// locations) and applies the command-line overrides.
func resolveConfig(cmd *cobra.Command) (*types.Config, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	src, err := config.Load(config.NewViper(cfgFile))
	if err != nil {
		return nil, err
	}
	return config.Resolve(afero.NewOsFs(), src, overrides(cmd.Flags()))
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Verbose)

	opts := []batch.Option{
		batch.WithOutput(cmd.OutOrStdout()),
		batch.WithLogger(logger),
	}
	if cfg.Journal != "" && !cfg.DryRun {
		j, err := journal.Open(cfg.Journal)
		if err != nil {
			return err
		}
		defer j.Close()
		opts = append(opts, batch.WithRecorder(j))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	res, err := batch.New(cfg, pdfcodec.New(), opts...).Run(ctx)
	if err != nil {
		return err
	}
	logger.Debug("run complete", "summary", batch.Summary(res), "elapsed", res.Elapsed)
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
