package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"AssetForecast/internal/model"
)

// SQLiteRecorder persists forecast runs to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dbPath != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS forecast_runs (
			id          TEXT PRIMARY KEY,
			timestamp   INTEGER NOT NULL,
			horizon     INTEGER NOT NULL,
			tickers     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON forecast_runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS forecast_records (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id         TEXT NOT NULL REFERENCES forecast_runs(id),
			seq            INTEGER NOT NULL,
			ticker         TEXT NOT NULL,
			model          TEXT NOT NULL,
			year           INTEGER NOT NULL,
			forecast_price REAL,
			lower_price    REAL,
			upper_price    REAL,
			forecast_value REAL,
			lower_value    REAL,
			upper_value    REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_run ON forecast_records(run_id, seq)`,

		`CREATE TABLE IF NOT EXISTS forecast_failures (
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id  TEXT NOT NULL REFERENCES forecast_runs(id),
			ticker  TEXT,
			model   TEXT,
			kind    TEXT,
			message TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_failures_run ON forecast_failures(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun stores the run with all its records and failures in one transaction.
func (r *SQLiteRecorder) RecordRun(run *Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO forecast_runs (id, timestamp, horizon, tickers) VALUES (?,?,?,?)`,
		run.ID, run.StartedAt.Unix(), run.Horizon, strings.Join(run.Tickers, ","),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	recStmt, err := tx.Prepare(`INSERT INTO forecast_records
		(run_id, seq, ticker, model, year,
		 forecast_price, lower_price, upper_price,
		 forecast_value, lower_value, upper_value)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare records: %w", err)
	}
	defer recStmt.Close()
	for i, rec := range run.Records {
		if _, err := recStmt.Exec(run.ID, i, rec.Ticker, rec.Model, rec.Year,
			rec.ForecastPrice, rec.LowerPrice, rec.UpperPrice,
			rec.ForecastValue, rec.LowerValue, rec.UpperValue,
		); err != nil {
			return fmt.Errorf("insert record %d: %w", i, err)
		}
	}

	for _, f := range run.Failures {
		if _, err := tx.Exec(`INSERT INTO forecast_failures (run_id, ticker, model, kind, message) VALUES (?,?,?,?,?)`,
			run.ID, f.Ticker, f.Model, string(f.Kind), f.Message,
		); err != nil {
			return fmt.Errorf("insert failure: %w", err)
		}
	}
	return tx.Commit()
}

// RecentRuns lists the newest runs first.
func (r *SQLiteRecorder) RecentRuns(limit int) ([]RunSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT r.id, r.timestamp, r.horizon, r.tickers,
			(SELECT COUNT(*) FROM forecast_records WHERE run_id = r.id),
			(SELECT COUNT(*) FROM forecast_failures WHERE run_id = r.id)
		FROM forecast_runs r
		ORDER BY r.timestamp DESC, r.rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var s RunSummary
		var ts int64
		if err := rows.Scan(&s.ID, &ts, &s.Horizon, &s.Tickers, &s.RecordCount, &s.FailureCount); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		s.StartedAt = time.Unix(ts, 0)
		out = append(out, s)
	}
	return out, rows.Err()
}

// RunRecords returns the stored rows of a run in their original order.
func (r *SQLiteRecorder) RunRecords(runID string) ([]model.ForecastRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT ticker, model, year,
			forecast_price, lower_price, upper_price,
			forecast_value, lower_value, upper_value
		FROM forecast_records WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var out []model.ForecastRecord
	for rows.Next() {
		var rec model.ForecastRecord
		if err := rows.Scan(&rec.Ticker, &rec.Model, &rec.Year,
			&rec.ForecastPrice, &rec.LowerPrice, &rec.UpperPrice,
			&rec.ForecastValue, &rec.LowerValue, &rec.UpperValue,
		); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
