// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package journal keeps a SQLite history of batch runs and the documents
// each run processed.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/pdf-batch-crop/pkg/types"
)

const defaultLimit = 20

// Journal manages the run history database.
type Journal struct {
	db *sql.DB
}

// Open opens or creates the journal database at path and creates the
// schema if it does not exist.
func Open(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}

	j := &Journal{db: db}
	if err := j.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return j, nil
}

// Close releases the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at TEXT NOT NULL,
			elapsed_ms INTEGER NOT NULL,
			directory TEXT NOT NULL,
			files INTEGER NOT NULL,
			input_pages INTEGER NOT NULL,
			merged_pages INTEGER NOT NULL,
			merged_path TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS documents (
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			source TEXT NOT NULL,
			output TEXT,
			archived_to TEXT,
			total_pages INTEGER NOT NULL,
			processed_pages INTEGER NOT NULL,
			PRIMARY KEY (run_id, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_source ON documents(source)`,
	}

	for _, stmt := range statements {
		if _, err := j.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Run is one journaled batch run.
type Run struct {
	ID          int64                 `json:"id" yaml:"id"`
	StartedAt   time.Time             `json:"started_at" yaml:"started_at"`
	Elapsed     time.Duration         `json:"elapsed" yaml:"elapsed"`
	Directory   string                `json:"directory" yaml:"directory"`
	Files       int                   `json:"files" yaml:"files"`
	InputPages  int                   `json:"input_pages" yaml:"input_pages"`
	MergedPages int                   `json:"merged_pages" yaml:"merged_pages"`
	MergedPath  string                `json:"merged_path,omitempty" yaml:"merged_path,omitempty"`
	Documents   []types.DocumentStats `json:"documents,omitempty" yaml:"documents,omitempty"`
}

// RecordRun stores a completed run and its documents in one transaction.
// It satisfies batch.Recorder.
func (j *Journal) RecordRun(ctx context.Context, started time.Time, cfg *types.Config, result types.BatchResult) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (started_at, elapsed_ms, directory, files, input_pages, merged_pages, merged_path)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		started.UTC().Format(time.RFC3339Nano), result.Elapsed.Milliseconds(), cfg.Directory,
		result.Files, result.InputPages, result.MergedPages, result.MergedPath,
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading run id: %w", err)
	}

	for i, d := range result.Documents {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO documents (run_id, seq, source, output, archived_to, total_pages, processed_pages)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, i, d.Source, d.Output, d.ArchivedTo, d.TotalPages, d.ProcessedPages,
		); err != nil {
			return fmt.Errorf("inserting document %s: %w", d.Source, err)
		}
	}

	return tx.Commit()
}

// Recent returns up to limit runs, newest first, with their documents.
// A limit of zero or less uses the default of 20.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	rows, err := j.db.QueryContext(ctx,
		`SELECT id, started_at, elapsed_ms, directory, files, input_pages, merged_pages, merged_path
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r         Run
			startedAt string
			elapsedMS int64
			merged    sql.NullString
		)
		if err := rows.Scan(&r.ID, &startedAt, &elapsedMS, &r.Directory,
			&r.Files, &r.InputPages, &r.MergedPages, &merged); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing start time of run %d: %w", r.ID, err)
		}
		r.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		r.MergedPath = merged.String
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		docs, err := j.documents(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Documents = docs
	}
	return runs, nil
}

func (j *Journal) documents(ctx context.Context, runID int64) ([]types.DocumentStats, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT source, output, archived_to, total_pages, processed_pages
		FROM documents WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying documents of run %d: %w", runID, err)
	}
	defer rows.Close()

	var docs []types.DocumentStats
	for rows.Next() {
		var (
			d                types.DocumentStats
			output, archived sql.NullString
		)
		if err := rows.Scan(&d.Source, &output, &archived, &d.TotalPages, &d.ProcessedPages); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		d.Output = output.String
		d.ArchivedTo = archived.String
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// Processed reports how many journaled runs included source.
func (j *Journal) Processed(ctx context.Context, source string) (int, error) {
	var n int
	err := j.db.QueryRowContext(ctx,
		`SELECT count(DISTINCT run_id) FROM documents WHERE source = ?`, source,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting runs for %s: %w", source, err)
	}
	return n, nil
}
