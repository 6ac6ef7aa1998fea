package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/deepcrawl/internal/model"
)

// FileName is the database file name inside the data directory.
const FileName = "deepcrawl.db"

// FindingsDB stores research reports in a SQLite database.
type FindingsDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures FindingsDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file if missing.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the findings database in dbDir.
func Open(dbDir string, opts Options) (*FindingsDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file. Foreign keys are enabled per
	// connection so that deleting a run also deletes its pages.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}
	dsn += "&_pragma=foreign_keys(1)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	fdb := &FindingsDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if err := fdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return fdb, nil
}

// Path returns the database file path.
func (fdb *FindingsDB) Path() string {
	return fdb.dbPath
}

// Close closes the database connection.
func (fdb *FindingsDB) Close() error {
	return fdb.db.Close()
}

func (fdb *FindingsDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS research_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		topic TEXT NOT NULL,
		started_at TEXT NOT NULL,
		completed_at TEXT,
		tier TEXT NOT NULL,
		confidence TEXT NOT NULL,
		total_sources INTEGER NOT NULL DEFAULT 0,
		page_count INTEGER NOT NULL DEFAULT 0,
		timed_out INTEGER NOT NULL DEFAULT 0,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_topic ON research_runs(topic);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON research_runs(started_at);

	-- One row per admitted page. Page content is not stored.
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES research_runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		url TEXT NOT NULL,
		title TEXT,
		depth INTEGER NOT NULL,
		seed TEXT,
		media_type TEXT,
		score INTEGER NOT NULL DEFAULT 0,
		hash TEXT,
		fetched_at TEXT,
		UNIQUE(run_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_pages_run ON pages(run_id);
	CREATE INDEX IF NOT EXISTS idx_pages_hash ON pages(hash);

	CREATE TABLE IF NOT EXISTS category_counts (
		run_id INTEGER NOT NULL REFERENCES research_runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		category TEXT NOT NULL,
		count INTEGER NOT NULL,
		PRIMARY KEY (run_id, category)
	);
	`
	_, err := fdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveReport stores report and returns its new ID.
// report.ID is set only when the whole report was written.
func (fdb *FindingsDB) SaveReport(ctx context.Context, report *model.ResearchReport) (id int64, err error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	tx, err := fdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback() //nolint:errcheck // the original error is more useful
		}
	}()

	a := report.Findings.Assessment
	res, err := tx.ExecContext(ctx, `
	INSERT INTO research_runs (topic, started_at, completed_at, tier, confidence, total_sources, page_count, timed_out, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.Topic,
		formatTimestamp(report.StartedAt),
		formatTimestamp(report.CompletedAt),
		a.Tier.String(),
		a.Confidence.String(),
		report.Findings.TotalSources,
		len(report.Pages),
		report.TimedOut,
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save report: %w", err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get report id: %w", err)
	}

	for i, p := range report.Pages {
		_, err = tx.ExecContext(ctx, `
		INSERT INTO pages (run_id, position, url, title, depth, seed, media_type, score, hash, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, url) DO NOTHING
		`, id, i, p.URL, p.Title, p.Depth, p.Seed, p.MediaType, p.Score, p.Hash, formatTimestamp(p.FetchedAt))
		if err != nil {
			return 0, fmt.Errorf("failed to save page %s: %w", p.URL, err)
		}
	}

	for i, c := range report.Findings.CategoryCounts {
		_, err = tx.ExecContext(ctx, `
		INSERT INTO category_counts (run_id, position, category, count) VALUES (?, ?, ?, ?)
		`, id, i, c.Category, c.Count)
		if err != nil {
			return 0, fmt.Errorf("failed to save category count %s: %w", c.Category, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit report: %w", err)
	}
	report.ID = id
	return id, nil
}

// LatestReport returns the most recent report for topic.
// It returns nil, nil when the topic has no saved run.
func (fdb *FindingsDB) LatestReport(ctx context.Context, topic string) (*model.ResearchReport, error) {
	row := fdb.db.QueryRowContext(ctx, `
	SELECT id, report_json FROM research_runs
	WHERE topic = ?
	ORDER BY started_at DESC, id DESC
	LIMIT 1
	`, topic)
	return scanReport(row)
}

// ReportByID returns the report with the given ID.
// It returns nil, nil when no such report exists.
func (fdb *FindingsDB) ReportByID(ctx context.Context, id int64) (*model.ResearchReport, error) {
	row := fdb.db.QueryRowContext(ctx, `
	SELECT id, report_json FROM research_runs WHERE id = ?
	`, id)
	return scanReport(row)
}

func scanReport(row *sql.Row) (*model.ResearchReport, error) {
	var (
		id         int64
		reportJSON string
	)
	err := row.Scan(&id, &reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	var report model.ResearchReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	report.ID = id
	return &report, nil
}

// ListTopics returns the names of all topics with saved runs, sorted.
func (fdb *FindingsDB) ListTopics(ctx context.Context) ([]string, error) {
	rows, err := fdb.db.QueryContext(ctx, `
	SELECT DISTINCT topic FROM research_runs ORDER BY topic
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}
	defer rows.Close()

	var topics []string
	for rows.Next() {
		var topic string
		if err := rows.Scan(&topic); err != nil {
			return nil, fmt.Errorf("failed to scan topic: %w", err)
		}
		topics = append(topics, topic)
	}
	return topics, rows.Err()
}

// RunMetadata summarizes one saved run without decoding its report.
type RunMetadata struct {
	ID             int64
	Topic          string
	StartedAt      time.Time
	CompletedAt    time.Time
	Tier           model.Tier
	Confidence     model.Confidence
	TotalSources   int
	PageCount      int
	TimedOut       bool
	CategoryCounts []model.CategoryCount
}

// History returns the saved runs of topic, newest first.
func (fdb *FindingsDB) History(ctx context.Context, topic string) ([]RunMetadata, error) {
	rows, err := fdb.db.QueryContext(ctx, `
	SELECT id, topic, started_at, completed_at, tier, confidence, total_sources, page_count, timed_out
	FROM research_runs
	WHERE topic = ?
	ORDER BY started_at DESC, id DESC
	`, topic)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}

	var runs []RunMetadata
	for rows.Next() {
		var (
			meta               RunMetadata
			started, completed sql.NullString
			tier, confidence   string
		)
		if err := rows.Scan(&meta.ID, &meta.Topic, &started, &completed, &tier, &confidence,
			&meta.TotalSources, &meta.PageCount, &meta.TimedOut); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		meta.StartedAt = parseTimestamp(started.String)
		meta.CompletedAt = parseTimestamp(completed.String)
		// Unknown values leave the zero tier and confidence.
		_ = meta.Tier.UnmarshalText([]byte(tier))             //nolint:errcheck
		_ = meta.Confidence.UnmarshalText([]byte(confidence)) //nolint:errcheck
		runs = append(runs, meta)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	for i := range runs {
		counts, err := fdb.categoryCounts(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].CategoryCounts = counts
	}
	return runs, nil
}

func (fdb *FindingsDB) categoryCounts(ctx context.Context, runID int64) ([]model.CategoryCount, error) {
	rows, err := fdb.db.QueryContext(ctx, `
	SELECT category, count FROM category_counts WHERE run_id = ? ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get category counts: %w", err)
	}
	defer rows.Close()

	var counts []model.CategoryCount
	for rows.Next() {
		var c model.CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// Pages returns the pages of a saved run in traversal order.
// Page content is not stored, so Content is always empty.
func (fdb *FindingsDB) Pages(ctx context.Context, runID int64) ([]*model.Page, error) {
	rows, err := fdb.db.QueryContext(ctx, `
	SELECT url, title, depth, seed, media_type, score, hash, fetched_at
	FROM pages WHERE run_id = ? ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pages: %w", err)
	}
	defer rows.Close()

	var pages []*model.Page
	for rows.Next() {
		var (
			p                                 model.Page
			title, seed, mediaType, hash, fAt sql.NullString
		)
		if err := rows.Scan(&p.URL, &title, &p.Depth, &seed, &mediaType, &p.Score, &hash, &fAt); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		p.Title = title.String
		p.Seed = seed.String
		p.MediaType = mediaType.String
		p.Hash = hash.String
		p.FetchedAt = parseTimestamp(fAt.String)
		pages = append(pages, &p)
	}
	return pages, rows.Err()
}

// DeleteRun removes a saved run with its pages and category counts.
// It reports whether a run was deleted.
func (fdb *FindingsDB) DeleteRun(ctx context.Context, id int64) (bool, error) {
	res, err := fdb.db.ExecContext(ctx, `DELETE FROM research_runs WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete run: %w", err)
	}
	return n > 0, nil
}

// storedTimeFormat is fixed width so that stored values sort chronologically.
const storedTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(storedTimeFormat)
}

// timestampFormats contains the timestamp formats accepted when reading.
// The order matters: more specific formats come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05", // SQLite default datetime format
	"2006-01-02T15:04:05",
}

// parseTimestamp parses a stored timestamp. It returns the zero time for
// empty or unknown values.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
