package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"riprocess-image-list/internal/model"
)

// ErrRunNotFound is returned when a run ID is not in the ledger.
var ErrRunNotFound = errors.New("run not found")

// Store is the SQLite run ledger: one row per run, its error if it failed,
// and the emitted pairs if it succeeded.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at dbPath and migrates it.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	runTable := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		config_path TEXT,
		status TEXT NOT NULL,
		pair_count INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`
	errorTable := `
	CREATE TABLE IF NOT EXISTS run_errors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		error_message TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);
	`
	pairTable := `
	CREATE TABLE IF NOT EXISTS image_pairs (
		run_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		record_group INTEGER NOT NULL,
		timestamp TEXT NOT NULL,
		image_path TEXT NOT NULL,
		ident TEXT,
		PRIMARY KEY (run_id, seq),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);
	`
	for _, stmt := range []string{runTable, errorTable, pairTable} {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveRun stores a new run.
func (s *Store) SaveRun(ctx context.Context, run model.Run) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, config_path, status, pair_count, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.ConfigPath, run.Status, run.PairCount, now, now)
	return err
}

// UpdateRunStatus updates a run's status and pair count.
func (s *Store) UpdateRunStatus(ctx context.Context, runID, status string, pairCount int) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, pair_count = ?, updated_at = ? WHERE id = ?`,
		status, pairCount, now, runID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrRunNotFound
	}
	return nil
}

// SaveRunError records the error of a failed run and marks it failed.
func (s *Store) SaveRunError(ctx context.Context, runID string, runErr error) error {
	if runErr == nil {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO run_errors (run_id, kind, error_message, created_at) VALUES (?, ?, ?, ?)`,
		runID, model.KindName(runErr), runErr.Error(), now); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`,
		model.RunStatusFailed, now, runID); err != nil {
		return err
	}
	return tx.Commit()
}

// SavePairs stores the pairs of a run in one transaction.
func (s *Store) SavePairs(ctx context.Context, runID string, pairs []model.OutputPair) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO image_pairs (run_id, seq, record_group, timestamp, image_path, ident) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, p := range pairs {
		ts := p.Time.Format(time.RFC3339Nano)
		if _, err := stmt.ExecContext(ctx, runID, i, p.Group, ts, p.ImagePath, p.Ident); err != nil {
			return fmt.Errorf("pair %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// ListRuns returns all runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]model.Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.config_path, r.status, r.pair_count, r.created_at, r.updated_at,
		       COALESCE((SELECT e.error_message FROM run_errors e WHERE e.run_id = r.id ORDER BY e.id DESC LIMIT 1), '')
		FROM runs r
		ORDER BY r.created_at DESC, r.rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun fetches a single run.
func (s *Store) GetRun(ctx context.Context, runID string) (model.Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT r.id, r.config_path, r.status, r.pair_count, r.created_at, r.updated_at,
		       COALESCE((SELECT e.error_message FROM run_errors e WHERE e.run_id = r.id ORDER BY e.id DESC LIMIT 1), '')
		FROM runs r
		WHERE r.id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Run{}, ErrRunNotFound
	}
	return run, err
}

// GetPairs returns the pairs of a run in emission order.
func (s *Store) GetPairs(ctx context.Context, runID string) ([]model.OutputPair, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record_group, timestamp, image_path, ident FROM image_pairs WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pairs []model.OutputPair
	for rows.Next() {
		var p model.OutputPair
		var ts string
		var ident sql.NullString
		if err := rows.Scan(&p.Group, &ts, &p.ImagePath, &ident); err != nil {
			return nil, err
		}
		if p.Time, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("pair timestamp %q: %w", ts, err)
		}
		p.Ident = ident.String
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (model.Run, error) {
	var run model.Run
	var configPath sql.NullString
	if err := sc.Scan(&run.ID, &configPath, &run.Status, &run.PairCount, &run.CreatedAt, &run.UpdatedAt, &run.Error); err != nil {
		return model.Run{}, err
	}
	run.ConfigPath = configPath.String
	return run, nil
}
