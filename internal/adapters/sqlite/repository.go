package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3" // SQLite driver

	"journalAnalytics/internal/domain"
	"journalAnalytics/internal/ports"
)

// Repository implements the ports.RunRepository interface using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
	now    func() time.Time
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/journal_runs.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Debug(context.Background(), "Data directory checked/created", map[string]interface{}{"path": filepath.Dir(dbPath)})

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// One writer at a time; SQLite serializes anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cfg.Logger.Debug(context.Background(), "SQLite database connection established", map[string]interface{}{"path": dbPath})

	repo := &Repository{db: db, logger: cfg.Logger, now: time.Now}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Debug(context.Background(), "Database schema initialized/verified")

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS analysis_runs (
		id TEXT PRIMARY KEY,
		created_at TIMESTAMP NOT NULL,
		format TEXT NOT NULL,
		denomination TEXT NOT NULL,
		raw_input TEXT NOT NULL,
		trade_count INTEGER NOT NULL,
		total_pnl REAL NOT NULL,
		report_json TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_analysis_runs_created_at ON analysis_runs (created_at);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Debug(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// SaveRun stores a run, assigning a UUID and creation time when they are missing.
func (r *Repository) SaveRun(ctx context.Context, run *domain.AnalysisRun) (string, error) {
	if run == nil {
		return "", fmt.Errorf("cannot save nil run: %w", ports.ErrInvalidRequest)
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = r.now()
	}
	run.CreatedAt = run.CreatedAt.UTC()

	const query = `
	INSERT INTO analysis_runs (id, created_at, format, denomination, raw_input, trade_count, total_pnl, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		run.ID, run.CreatedAt, string(run.Format), string(run.Denomination),
		run.RawInput, run.TradeCount, run.TotalPnL, run.ReportJSON)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return "", fmt.Errorf("run %s: %w", run.ID, ports.ErrDuplicateEntry)
		}
		return "", fmt.Errorf("failed to insert run %s: %w: %w", run.ID, ports.ErrQueryFailed, err)
	}
	r.logger.Debug(ctx, "Analysis run saved", map[string]interface{}{"runID": run.ID, "format": run.Format, "trades": run.TradeCount})
	return run.ID, nil
}

// FindByID retrieves a run by its ID.
func (r *Repository) FindByID(ctx context.Context, id string) (*domain.AnalysisRun, error) {
	const query = `
	SELECT id, created_at, format, denomination, raw_input, trade_count, total_pnl, report_json
	FROM analysis_runs
	WHERE id = ?`

	run, err := scanRun(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Debug(ctx, "Run not found by ID", map[string]interface{}{"runID": id})
			return nil, nil // Not an error, just not found
		}
		return nil, fmt.Errorf("failed to query run by ID %s: %w: %w", id, ports.ErrQueryFailed, err)
	}
	return run, nil
}

// FindRecent retrieves the newest runs first, up to limit.
func (r *Repository) FindRecent(ctx context.Context, limit int) ([]*domain.AnalysisRun, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d: %w", limit, ports.ErrInvalidRequest)
	}
	const query = `
	SELECT id, created_at, format, denomination, raw_input, trade_count, total_pnl, report_json
	FROM analysis_runs
	ORDER BY created_at DESC, rowid DESC
	LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent runs: %w: %w", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	runs := make([]*domain.AnalysisRun, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run during FindRecent: %w", err)
		}
		runs = append(runs, run)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run rows: %w", err)
	}
	return runs, nil
}

// LatestInput returns the raw journal of the most recent run, or "" when there is none.
func (r *Repository) LatestInput(ctx context.Context) (string, error) {
	const query = `SELECT raw_input FROM analysis_runs ORDER BY created_at DESC, rowid DESC LIMIT 1`
	var raw string
	err := r.db.QueryRowContext(ctx, query).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to query latest input: %w: %w", ports.ErrQueryFailed, err)
	}
	return raw, nil
}

// DeleteOlderThan removes runs created before cutoff.
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM analysis_runs WHERE created_at < ?`
	result, err := r.db.ExecContext(ctx, query, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete runs before %s: %w: %w", cutoff.Format(time.RFC3339), ports.ErrDeleteFailed, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected for run cleanup: %w", err)
	}
	r.logger.Info(ctx, "Old analysis runs deleted", map[string]interface{}{"deleted": n, "cutoff": cutoff.Format(time.RFC3339)})
	return n, nil
}

// --- Helper Scan Functions ---

// scanner defines an interface compatible with *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanRun scans a row into a domain.AnalysisRun struct.
func scanRun(s scanner) (*domain.AnalysisRun, error) {
	run := &domain.AnalysisRun{}
	var format, denom string
	err := s.Scan(&run.ID, &run.CreatedAt, &format, &denom, &run.RawInput, &run.TradeCount, &run.TotalPnL, &run.ReportJSON)
	if err != nil {
		return nil, err // Handle sql.ErrNoRows in the caller
	}
	run.Format = domain.InputFormat(format)
	run.Denomination = domain.Denomination(denom)
	return run, nil
}
