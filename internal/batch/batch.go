// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package batch drives a directory of PDFs through crop, merge, and archive
// and reports the run.
//
// Documents are handled in discovery order. For each one the transform runs
// first, then the output is folded into the merge (which deletes the
// per-file output), then the source document is archived. Archiving always
// moves the source, so merge and archive can be combined. The first
// document or archive failure aborts the run.
package batch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/stream"
	"github.com/spf13/afero"

	"github.com/pdiddy/pdf-batch-crop/internal/archive"
	"github.com/pdiddy/pdf-batch-crop/internal/document"
	"github.com/pdiddy/pdf-batch-crop/pkg/types"
)

// Recorder persists the outcome of a successful run.
type Recorder interface {
	RecordRun(ctx context.Context, started time.Time, cfg *types.Config, result types.BatchResult) error
}

// Orchestrator runs one batch for a resolved configuration.
type Orchestrator struct {
	cfg      *types.Config
	fs       afero.Fs
	codec    document.Codec
	archiver *archive.Policy
	out      io.Writer
	logger   *slog.Logger
	recorder Recorder
	now      func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithFs sets the filesystem. The default is the OS filesystem.
func WithFs(fs afero.Fs) Option {
	return func(o *Orchestrator) { o.fs = fs }
}

// WithOutput sets the writer that receives the progress report.
func WithOutput(w io.Writer) Option {
	return func(o *Orchestrator) { o.out = w }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithRecorder records every successful run.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithArchiver replaces the archive policy.
func WithArchiver(p *archive.Policy) Option {
	return func(o *Orchestrator) { o.archiver = p }
}

// WithClock sets the clock used to time the run.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New returns an Orchestrator for cfg that reads documents with codec.
func New(cfg *types.Config, codec document.Codec, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:    cfg,
		fs:     afero.NewOsFs(),
		codec:  codec,
		out:    io.Discard,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.archiver == nil {
		o.archiver = archive.New(o.fs)
	}
	return o
}

// run holds the mutable state of one Run. Only the sequential finish step
// touches it.
type run struct {
	result types.BatchResult
	merge  *mergeAccumulator
	report reporter
}

// Run processes every discovered document and returns the aggregate result.
// Finding no documents is not an error and yields a zero BatchResult.
func (o *Orchestrator) Run(ctx context.Context) (types.BatchResult, error) {
	started := o.now()
	rep := reporter{w: o.out, verbose: o.cfg.Verbose}

	paths, err := Discover(o.fs, o.cfg)
	if err != nil {
		return types.BatchResult{}, err
	}
	if len(paths) == 0 {
		rep.nothingToProcess()
		return types.BatchResult{}, nil
	}
	if o.cfg.DryRun {
		rep.dryRun(paths)
		return types.BatchResult{}, nil
	}

	rep.banner()
	o.logger.Debug("batch started", "directory", o.cfg.Directory, "documents", len(paths), "workers", o.cfg.Workers)

	r := &run{
		merge:  &mergeAccumulator{fs: o.fs},
		report: rep,
	}

	descs := make([]*document.Descriptor, len(paths))
	for i, p := range paths {
		descs[i] = document.New(o.fs, o.codec, p, o.cfg)
	}

	if o.cfg.Workers > 1 {
		err = o.processConcurrently(ctx, r, descs)
	} else {
		err = o.processSequentially(ctx, r, descs)
	}
	if err != nil {
		o.logger.Error("batch aborted", "error", err, "completed", r.result.Files)
		return r.result, err
	}

	if o.cfg.Merge && r.merge.Len() > 0 {
		dest := filepath.Join(o.cfg.Directory, o.cfg.OutputFilename)
		if err := r.merge.WriteTo(o.codec, dest); err != nil {
			return r.result, &types.DocumentError{Path: dest, Err: err}
		}
		r.result.MergedPages = r.merge.Pages()
		r.result.MergedPath = dest
		rep.merged(r.result.Files, r.result.MergedPages, dest)
	}

	r.result.Elapsed = o.now().Sub(started)
	rep.summary(r.result)

	if o.recorder != nil {
		if err := o.recorder.RecordRun(ctx, started, o.cfg, r.result); err != nil {
			o.logger.Warn("recording run failed", "error", err)
		}
	}
	return r.result, nil
}

func (o *Orchestrator) processSequentially(ctx context.Context, r *run, descs []*document.Descriptor) error {
	for _, d := range descs {
		if err := ctx.Err(); err != nil {
			return err
		}
		out, err := d.Transform(o.cfg.Suffix)
		if err != nil {
			return err
		}
		if err := o.finish(r, d, out); err != nil {
			return err
		}
	}
	return nil
}

// processConcurrently runs transforms on a bounded pool while the finish
// step runs sequentially in discovery order. Once a document fails, pending
// transforms of later documents are skipped and no further document is
// finished. Earlier documents still finish. Outputs of later documents that
// were already transformed are removed, so the next run does not see them.
func (o *Orchestrator) processConcurrently(ctx context.Context, r *run, descs []*document.Descriptor) error {
	var (
		failedAt atomic.Int64
		firstErr error
	)
	failedAt.Store(int64(len(descs)))
	fail := func(i int) {
		for {
			cur := failedAt.Load()
			if int64(i) >= cur || failedAt.CompareAndSwap(cur, int64(i)) {
				return
			}
		}
	}

	s := stream.New().WithMaxGoroutines(o.cfg.Workers)
	for i, d := range descs {
		i, d := i, d
		s.Go(func() stream.Callback {
			if int64(i) > failedAt.Load() {
				return func() {}
			}
			if err := ctx.Err(); err != nil {
				fail(i)
				return func() {
					if firstErr == nil {
						firstErr = err
					}
				}
			}
			out, err := d.Transform(o.cfg.Suffix)
			if err != nil {
				fail(i)
			}
			return func() {
				if firstErr != nil {
					o.discard(out)
					return
				}
				if err != nil {
					firstErr = err
					return
				}
				if ferr := o.finish(r, d, out); ferr != nil {
					fail(i)
					firstErr = ferr
				}
			}
		})
	}
	s.Wait()
	return firstErr
}

// discard removes the output of a document that will not be finished.
func (o *Orchestrator) discard(out string) {
	if out == "" {
		return
	}
	if err := o.fs.Remove(out); err != nil {
		o.logger.Warn("removing unfinished output failed", "output", out, "error", err)
	}
}

// finish merges and archives one transformed document and records its
// statistics.
func (o *Orchestrator) finish(r *run, d *document.Descriptor, out string) error {
	stats := d.Stats()
	r.report.converting(stats.Source)
	o.logger.Debug("transformed", "source", stats.Source, "output", out,
		"pages", stats.TotalPages, "kept", stats.ProcessedPages)

	if o.cfg.Merge && out != "" {
		if err := r.merge.Add(out, stats.ProcessedPages); err != nil {
			return &types.DocumentError{Path: stats.Source, Err: err}
		}
		stats.Output = ""
	}

	if o.cfg.Archive {
		archived, err := o.archiver.Archive(stats.Source, o.cfg.ArchivedDirectory, o.cfg.Directory, o.cfg.ArchiveByMonth)
		if err != nil {
			return err
		}
		stats.ArchivedTo = archived
		r.report.archived(archived)
	}

	r.report.processed(stats)
	r.result.Files++
	r.result.InputPages += stats.TotalPages
	r.result.Documents = append(r.result.Documents, stats)
	return nil
}

// Summary returns a one-line description of res.
func Summary(res types.BatchResult) string {
	if res.Empty() {
		return "nothing to process"
	}
	return fmt.Sprintf("%d PDF file%s, %d page%s", res.Files, Plural(res.Files), res.InputPages, Plural(res.InputPages))
}
