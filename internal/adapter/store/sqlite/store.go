// Package sqlite persists assessment history using SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/movesec/auditor/internal/domain"
	"github.com/movesec/auditor/internal/usecase/audit"
)

// Store implements the audit.Store interface using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates a new SQLite store at the given path.
// Use ":memory:" for an in-memory database (useful for testing).
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return s, nil
}

func (s *Store) createSchema() error {
	schema := `
	-- Metadata about each assessment run
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		package_id TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		risk_score REAL DEFAULT 0.0,
		confidence_level TEXT,
		finished INTEGER DEFAULT 0
	);

	-- Validated model findings per run
	CREATE TABLE IF NOT EXISTS findings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		function_name TEXT NOT NULL,
		matched_pattern_id TEXT,
		severity TEXT NOT NULL,
		validation_status TEXT NOT NULL,
		validation_score INTEGER NOT NULL,
		matched_module TEXT,
		technical_reason TEXT,
		validation_notes TEXT,
		FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
	);

	-- Cross-module capability risks per run
	CREATE TABLE IF NOT EXISTS risks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		pattern_id TEXT NOT NULL,
		severity TEXT NOT NULL,
		source_module TEXT NOT NULL,
		source_function TEXT NOT NULL,
		affected_modules TEXT NOT NULL,
		description TEXT,
		FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_runs_package ON runs(package_id);
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_findings_run ON findings(run_id);
	CREATE INDEX IF NOT EXISTS idx_risks_run ON risks(run_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateRun stores a new assessment run.
func (s *Store) CreateRun(ctx context.Context, run audit.StoreRun) error {
	query := `INSERT INTO runs (run_id, package_id, timestamp) VALUES (?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, run.RunID, run.PackageID, run.Timestamp.Unix())
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// SaveFindings stores the validated findings of one run.
func (s *Store) SaveFindings(ctx context.Context, runID string, findings []domain.ValidatedFinding) error {
	if len(findings) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO findings (run_id, function_name, matched_pattern_id, severity,
			validation_status, validation_score, matched_module, technical_reason, validation_notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare findings insert: %w", err)
	}
	defer stmt.Close()

	for _, f := range findings {
		_, err := stmt.ExecContext(ctx, runID, f.FunctionName, f.MatchedPatternID,
			string(f.Severity), string(f.ValidationStatus), f.ValidationScore,
			f.MatchedModule, f.TechnicalReason, strings.Join(f.ValidationNotes, "; "))
		if err != nil {
			return fmt.Errorf("failed to insert finding: %w", err)
		}
	}
	return tx.Commit()
}

// SaveRisks stores the cross-module risks of one run.
func (s *Store) SaveRisks(ctx context.Context, runID string, risks []domain.CrossModuleRisk) error {
	if len(risks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO risks (run_id, pattern_id, severity, source_module, source_function,
			affected_modules, description)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare risks insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range risks {
		_, err := stmt.ExecContext(ctx, runID, r.PatternID, string(r.Severity),
			r.SourceModule, r.SourceFunction, strings.Join(r.AffectedModules, ","), r.Description)
		if err != nil {
			return fmt.Errorf("failed to insert risk: %w", err)
		}
	}
	return tx.Commit()
}

// FinishRun records the final score and confidence level of a run.
func (s *Store) FinishRun(ctx context.Context, runID string, riskScore float64, level domain.ConfidenceLevel) error {
	query := `UPDATE runs SET risk_score = ?, confidence_level = ?, finished = 1 WHERE run_id = ?`
	result, err := s.db.ExecContext(ctx, query, riskScore, string(level), runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("run not found: %s", runID)
	}
	return nil
}

// RunRecord describes one stored assessment run.
type RunRecord struct {
	RunID           string
	PackageID       string
	Timestamp       time.Time
	RiskScore       float64
	ConfidenceLevel string
	Finished        bool
}

// GetRun retrieves a single run by ID.
func (s *Store) GetRun(ctx context.Context, runID string) (RunRecord, error) {
	query := `SELECT run_id, package_id, timestamp, risk_score,
		COALESCE(confidence_level, ''), finished FROM runs WHERE run_id = ?`

	var rec RunRecord
	var ts int64
	var finished int
	err := s.db.QueryRowContext(ctx, query, runID).Scan(
		&rec.RunID, &rec.PackageID, &ts, &rec.RiskScore, &rec.ConfidenceLevel, &finished)
	if err == sql.ErrNoRows {
		return RunRecord{}, fmt.Errorf("run not found: %s", runID)
	}
	if err != nil {
		return RunRecord{}, fmt.Errorf("failed to get run: %w", err)
	}
	rec.Timestamp = time.Unix(ts, 0).UTC()
	rec.Finished = finished != 0
	return rec, nil
}

// ListRuns returns the most recent runs for a package, newest first.
// An empty packageID lists runs across all packages.
func (s *Store) ListRuns(ctx context.Context, packageID string, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT run_id, package_id, timestamp, risk_score,
		COALESCE(confidence_level, ''), finished FROM runs`
	args := []interface{}{}
	if packageID != "" {
		query += ` WHERE package_id = ?`
		args = append(args, packageID)
	}
	query += ` ORDER BY timestamp DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		var ts int64
		var finished int
		if err := rows.Scan(&rec.RunID, &rec.PackageID, &ts, &rec.RiskScore,
			&rec.ConfidenceLevel, &finished); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		rec.Timestamp = time.Unix(ts, 0).UTC()
		rec.Finished = finished != 0
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
