package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/sitemaps/internal/model"
)

// FileName is the name of the database file inside the data directory.
const FileName = "sitemaps.db"

// timeLayout has a fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// HistoryDB is the SQLite store of crawl runs.
type HistoryDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures Open.
type Options struct {
	// CreateIfNotExists creates the directory and database file when missing.
	CreateIfNotExists bool

	// EnableWAL turns on write-ahead logging.
	EnableWAL bool
}

// DefaultOptions creates the database on demand with WAL enabled.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens the history database in dir.
func Open(dir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dir, FileName)

	mode := "rw"
	if opts.CreateIfNotExists {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		mode = "rwc"
	} else if _, err := os.Stat(dbPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("database not found at %s: %w", dbPath, err)
		}
		return nil, fmt.Errorf("failed to check database path: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+dbPath+"?mode="+mode+"&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite has a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	h := &HistoryDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if _, err := db.ExecContext(context.Background(), "PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if err := h.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return h, nil
}

// Close closes the database.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

func (h *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		target TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		entry_count INTEGER NOT NULL,
		submap_count INTEGER NOT NULL,
		failure_count INTEGER NOT NULL,
		truncated INTEGER NOT NULL DEFAULT 0,
		cancelled INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_target ON runs(target);

	CREATE TABLE IF NOT EXISTS entries (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		loc TEXT NOT NULL,
		lastmod TEXT,
		changefreq TEXT NOT NULL DEFAULT '',
		priority REAL NOT NULL,
		PRIMARY KEY (run_id, loc)
	);

	CREATE TABLE IF NOT EXISTS submaps (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		loc TEXT NOT NULL,
		lastmod TEXT,
		PRIMARY KEY (run_id, loc)
	);

	CREATE TABLE IF NOT EXISTS failures (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		loc TEXT NOT NULL,
		error TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS documents (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		loc TEXT NOT NULL,
		digest TEXT NOT NULL,
		PRIMARY KEY (run_id, loc)
	);
	`

	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// Run summarizes one stored crawl.
type Run struct {
	ID         string
	Target     string
	StartedAt  time.Time
	FinishedAt time.Time
	Entries    int
	Submaps    int
	Failures   int
	Truncated  bool
	Cancelled  bool
}

// SaveRun stores a crawl result for target. digests maps document locations
// to their content digest (see DigestRecorder) and may be nil.
func (h *HistoryDB) SaveRun(ctx context.Context, target string, started time.Time, result *model.Sitemap, digests map[string]string) (*Run, error) {
	if result == nil {
		result = model.NewSitemap()
	}

	run := &Run{
		ID:         uuid.NewString(),
		Target:     target,
		StartedAt:  started.UTC(),
		FinishedAt: time.Now().UTC(),
		Entries:    len(result.Entries),
		Submaps:    len(result.Submaps),
		Failures:   len(result.Failures),
		Truncated:  result.Truncated,
		Cancelled:  result.Cancelled,
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO runs (id, target, started_at, finished_at, entry_count, submap_count, failure_count, truncated, cancelled)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Target,
		run.StartedAt.Format(timeLayout), run.FinishedAt.Format(timeLayout),
		run.Entries, run.Submaps, run.Failures,
		run.Truncated, run.Cancelled,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}

	if err := insertEntries(ctx, tx, run.ID, result.Entries); err != nil {
		return nil, err
	}
	if err := insertSubmaps(ctx, tx, run.ID, result.Submaps); err != nil {
		return nil, err
	}
	if err := insertFailures(ctx, tx, run.ID, result.Failures); err != nil {
		return nil, err
	}
	if err := insertDocuments(ctx, tx, run.ID, digests); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit run: %w", err)
	}
	return run, nil
}

func insertEntries(ctx context.Context, tx *sql.Tx, runID string, entries []model.Entry) error {
	stmt, err := tx.PrepareContext(ctx, `
	INSERT OR IGNORE INTO entries (run_id, position, loc, lastmod, changefreq, priority)
	VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare entry insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		if _, err := stmt.ExecContext(ctx, runID, i, e.Key(), formatTime(e.LastModified), e.ChangeFrequency.String(), e.Priority); err != nil {
			return fmt.Errorf("failed to insert entry %s: %w", e.Key(), err)
		}
	}
	return nil
}

func insertSubmaps(ctx context.Context, tx *sql.Tx, runID string, submaps []model.Submap) error {
	stmt, err := tx.PrepareContext(ctx, `
	INSERT OR IGNORE INTO submaps (run_id, position, loc, lastmod) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare submap insert: %w", err)
	}
	defer stmt.Close()

	for i, m := range submaps {
		if _, err := stmt.ExecContext(ctx, runID, i, m.Key(), formatTime(m.LastModified)); err != nil {
			return fmt.Errorf("failed to insert submap %s: %w", m.Key(), err)
		}
	}
	return nil
}

func insertFailures(ctx context.Context, tx *sql.Tx, runID string, failures []model.Failure) error {
	for _, f := range failures {
		msg := ""
		if f.Err != nil {
			msg = f.Err.Error()
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO failures (run_id, loc, error) VALUES (?, ?, ?)`,
			runID, model.Key(f.Location), msg); err != nil {
			return fmt.Errorf("failed to insert failure: %w", err)
		}
	}
	return nil
}

func insertDocuments(ctx context.Context, tx *sql.Tx, runID string, digests map[string]string) error {
	for loc, digest := range digests {
		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO documents (run_id, loc, digest) VALUES (?, ?, ?)`,
			runID, loc, digest); err != nil {
			return fmt.Errorf("failed to insert document digest: %w", err)
		}
	}
	return nil
}

// ListTargets returns every target with at least one run, sorted.
func (h *HistoryDB) ListTargets(ctx context.Context) ([]string, error) {
	rows, err := h.db.QueryContext(ctx, `SELECT DISTINCT target FROM runs ORDER BY target`)
	if err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}
	defer rows.Close()

	var targets []string
	for rows.Next() {
		var target string
		if err := rows.Scan(&target); err != nil {
			return nil, fmt.Errorf("failed to scan target: %w", err)
		}
		targets = append(targets, target)
	}
	return targets, rows.Err()
}

const runColumns = `id, target, started_at, finished_at, entry_count, submap_count, failure_count, truncated, cancelled`

// ListRuns returns the runs of target, newest first.
func (h *HistoryDB) ListRuns(ctx context.Context, target string) ([]Run, error) {
	rows, err := h.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs WHERE target = ? ORDER BY seq DESC`, target)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetRun returns the run with the given ID.
func (h *HistoryDB) GetRun(ctx context.Context, id string) (*Run, error) {
	row := h.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	return run, err
}

// DeleteRun removes a run and everything stored with it.
func (h *HistoryDB) DeleteRun(ctx context.Context, id string) error {
	res, err := h.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrRunNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var started, finished string
	err := row.Scan(&run.ID, &run.Target, &started, &finished,
		&run.Entries, &run.Submaps, &run.Failures, &run.Truncated, &run.Cancelled)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	run.StartedAt = parseTimestamp(started)
	run.FinishedAt = parseTimestamp(finished)
	return &run, nil
}

// Entries returns the stored entries of a run in crawl order.
func (h *HistoryDB) Entries(ctx context.Context, runID string) ([]model.Entry, error) {
	rows, err := h.db.QueryContext(ctx, `
	SELECT loc, lastmod, changefreq, priority FROM entries WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load entries: %w", err)
	}
	defer rows.Close()

	var entries []model.Entry
	for rows.Next() {
		var loc, changefreq string
		var lastmod sql.NullString
		var priority float64
		if err := rows.Scan(&loc, &lastmod, &changefreq, &priority); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}

		u, err := model.ParseLocation(loc)
		if err != nil {
			continue
		}
		freq, _ := model.ParseChangeFrequency(changefreq)
		entries = append(entries, model.Entry{
			Location:        u,
			LastModified:    parseNullTime(lastmod),
			ChangeFrequency: freq,
			Priority:        priority,
		})
	}
	return entries, rows.Err()
}

// Documents returns the document digests of a run keyed by location.
func (h *HistoryDB) Documents(ctx context.Context, runID string) (map[string]string, error) {
	rows, err := h.db.QueryContext(ctx, `SELECT loc, digest FROM documents WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}
	defer rows.Close()

	docs := make(map[string]string)
	for rows.Next() {
		var loc, digest string
		if err := rows.Scan(&loc, &digest); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs[loc] = digest
	}
	return docs, rows.Err()
}

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(timeLayout)
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t := parseTimestamp(s.String)
	if t.IsZero() {
		return nil
	}
	return &t
}

// timestampFormats are tried in order when reading stored times.
var timestampFormats = []string{
	timeLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp returns the zero time when no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
