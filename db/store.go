// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/danielhkuo/uvpd/engine"
	"github.com/danielhkuo/uvpd/preference"
	"github.com/danielhkuo/uvpd/rules"
)

var (
	ErrBatchNotFound = errors.New("batch not found")
	ErrRunNotFound   = errors.New("run not found")
	ErrBatchMismatch = errors.New("batch exists with different parameters")
)

// BatchInfo is a stored batch with its progress.
type BatchInfo struct {
	engine.Batch
	CompletedRuns int
}

// RunInfo is a stored run.
type RunInfo struct {
	BatchID     string
	RunID       int
	StartedAt   time.Time
	CompletedAt *time.Time
	Steps       int
}

type runKey struct {
	batchID string
	runID   int
}

// Store persists simulation output in SQL. It implements engine.Recorder:
// steps are buffered per run and written in one transaction by EndRun, so a
// run is either fully stored or absent.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	mu      sync.Mutex
	pending map[runKey][]engine.WinnerRecord
}

func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		db:      db,
		logger:  logger,
		pending: make(map[runKey][]engine.WinnerRecord),
	}
}

// BeginBatch records batch metadata. Beginning an existing batch again is
// allowed (resume) as long as its parameters match.
func (s *Store) BeginBatch(ctx context.Context, b engine.Batch) error {
	existing, err := s.GetBatch(ctx, b.ID)
	switch {
	case errors.Is(err, ErrBatchNotFound):
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO batch (id, seed, runs, max_voters, candidates, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, b.ID, strconv.FormatUint(b.Seed, 10), b.Runs, b.MaxVoters, b.Candidates, b.CreatedAt.UTC())
		if err != nil {
			return fmt.Errorf("failed to insert batch: %w", err)
		}
		return nil
	case err != nil:
		return err
	}

	if existing.Seed != b.Seed || existing.Runs != b.Runs ||
		existing.MaxVoters != b.MaxVoters || existing.Candidates != b.Candidates {
		return fmt.Errorf("%w: %s", ErrBatchMismatch, b.ID)
	}
	return nil
}

// RunExists reports whether the run was completed
func (s *Store) RunExists(ctx context.Context, batchID string, runID int) (bool, error) {
	var completed sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT completed_at FROM run WHERE batch_id = $1 AND run_number = $2
	`, batchID, runID).Scan(&completed)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query run: %w", err)
	}
	return completed.Valid, nil
}

// StartRun discards anything left from an interrupted attempt at the run
func (s *Store) StartRun(ctx context.Context, batchID string, runID int) error {
	s.mu.Lock()
	s.pending[runKey{batchID, runID}] = nil
	s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM step_record WHERE batch_id = $1 AND run_number = $2
	`, batchID, runID); err != nil {
		return fmt.Errorf("failed to clear run steps: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO run (batch_id, run_number, started_at, completed_at)
		VALUES ($1, $2, $3, NULL)
		ON CONFLICT (batch_id, run_number)
		DO UPDATE SET started_at = excluded.started_at, completed_at = NULL
	`, batchID, runID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to upsert run: %w", err)
	}
	return tx.Commit()
}

// AppendStep buffers one record until EndRun
func (s *Store) AppendStep(_ context.Context, batchID string, rec engine.WinnerRecord) error {
	key := runKey{batchID, rec.RunID}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[key] = append(s.pending[key], rec)
	return nil
}

// AbortRun drops the buffered steps of a failed run. The run row stays
// incomplete, so resume retries it.
func (s *Store) AbortRun(_ context.Context, batchID string, runID int) {
	s.mu.Lock()
	delete(s.pending, runKey{batchID, runID})
	s.mu.Unlock()
}

// EndRun writes the buffered steps and marks the run complete
func (s *Store) EndRun(ctx context.Context, batchID string, runID int) error {
	key := runKey{batchID, runID}
	s.mu.Lock()
	records := s.pending[key]
	delete(s.pending, key)
	s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO step_record (batch_id, run_number, step, ranking, plurality, borda, condorcet, irv, faults, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare step insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		faults, err := encodeFaults(rec)
		if err != nil {
			return err
		}
		w := rec.Winners()
		if _, err := stmt.ExecContext(ctx, batchID, runID, rec.Step, rec.Ranking.String(),
			nullable(w[0]), nullable(w[1]), nullable(w[2]), nullable(w[3]), faults, recordedAt(rec.At)); err != nil {
			return fmt.Errorf("failed to insert step %d: %w", rec.Step, err)
		}
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE run SET completed_at = $1 WHERE batch_id = $2 AND run_number = $3
	`, time.Now().UTC(), batchID, runID)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s/%d", ErrRunNotFound, batchID, runID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	s.logger.Debug("run stored", "batch", batchID, "run", runID, "steps", len(records))
	return nil
}

// GetBatch returns one batch with its completed run count
func (s *Store) GetBatch(ctx context.Context, batchID string) (BatchInfo, error) {
	var b BatchInfo
	var seed string
	err := s.db.QueryRowContext(ctx, `
		SELECT b.id, b.seed, b.runs, b.max_voters, b.candidates, b.created_at,
		       (SELECT COUNT(*) FROM run r WHERE r.batch_id = b.id AND r.completed_at IS NOT NULL)
		FROM batch b
		WHERE b.id = $1
	`, batchID).Scan(&b.ID, &seed, &b.Runs, &b.MaxVoters, &b.Candidates, &b.CreatedAt, &b.CompletedRuns)
	if errors.Is(err, sql.ErrNoRows) {
		return BatchInfo{}, fmt.Errorf("%w: %s", ErrBatchNotFound, batchID)
	}
	if err != nil {
		return BatchInfo{}, fmt.Errorf("failed to query batch: %w", err)
	}
	if b.Seed, err = strconv.ParseUint(seed, 10, 64); err != nil {
		return BatchInfo{}, fmt.Errorf("corrupt seed for batch %s: %w", batchID, err)
	}
	return b, nil
}

// ListBatches returns all batches, newest first
func (s *Store) ListBatches(ctx context.Context) ([]BatchInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT b.id, b.seed, b.runs, b.max_voters, b.candidates, b.created_at,
		       (SELECT COUNT(*) FROM run r WHERE r.batch_id = b.id AND r.completed_at IS NOT NULL)
		FROM batch b
		ORDER BY b.created_at DESC, b.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query batches: %w", err)
	}
	defer rows.Close()

	batches := []BatchInfo{}
	for rows.Next() {
		var b BatchInfo
		var seed string
		if err := rows.Scan(&b.ID, &seed, &b.Runs, &b.MaxVoters, &b.Candidates, &b.CreatedAt, &b.CompletedRuns); err != nil {
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}
		if b.Seed, err = strconv.ParseUint(seed, 10, 64); err != nil {
			return nil, fmt.Errorf("corrupt seed for batch %s: %w", b.ID, err)
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// ListRuns returns the runs of a batch in run order
func (s *Store) ListRuns(ctx context.Context, batchID string) ([]RunInfo, error) {
	if _, err := s.GetBatch(ctx, batchID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.run_number, r.started_at, r.completed_at,
		       (SELECT COUNT(*) FROM step_record s WHERE s.batch_id = r.batch_id AND s.run_number = r.run_number)
		FROM run r
		WHERE r.batch_id = $1
		ORDER BY r.run_number
	`, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunInfo{}
	for rows.Next() {
		info := RunInfo{BatchID: batchID}
		var completed sql.NullTime
		if err := rows.Scan(&info.RunID, &info.StartedAt, &completed, &info.Steps); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if completed.Valid {
			t := completed.Time
			info.CompletedAt = &t
		}
		runs = append(runs, info)
	}
	return runs, rows.Err()
}

// RunRecords loads the step records of one run in step order
func (s *Store) RunRecords(ctx context.Context, batchID string, runID int) ([]engine.WinnerRecord, error) {
	batch, err := s.GetBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}

	var exists int
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM run WHERE batch_id = $1 AND run_number = $2
	`, batchID, runID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %s/%d", ErrRunNotFound, batchID, runID)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT run_number, step, ranking, plurality, borda, condorcet, irv, faults, recorded_at
		FROM step_record
		WHERE batch_id = $1 AND run_number = $2
		ORDER BY step
	`, batchID, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query steps: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows, batch.Candidates)
}

// BatchRecords loads every stored step of a batch, ordered by run then step
func (s *Store) BatchRecords(ctx context.Context, batchID string) ([]engine.WinnerRecord, error) {
	batch, err := s.GetBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT s.run_number, s.step, s.ranking, s.plurality, s.borda, s.condorcet, s.irv, s.faults, s.recorded_at
		FROM step_record s
		JOIN run r ON r.batch_id = s.batch_id AND r.run_number = s.run_number
		WHERE s.batch_id = $1 AND r.completed_at IS NOT NULL
		ORDER BY s.run_number, s.step
	`, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query steps: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows, batch.Candidates)
}

func scanRecords(rows *sql.Rows, k int) ([]engine.WinnerRecord, error) {
	records := []engine.WinnerRecord{}
	for rows.Next() {
		var rec engine.WinnerRecord
		var ranking string
		var winners [4]sql.NullString
		var faults, at sql.NullString
		if err := rows.Scan(&rec.RunID, &rec.Step, &ranking,
			&winners[0], &winners[1], &winners[2], &winners[3], &faults, &at); err != nil {
			return nil, fmt.Errorf("failed to scan step: %w", err)
		}

		r, err := preference.ParseRanking(k, ranking)
		if err != nil {
			return nil, fmt.Errorf("corrupt ranking at run %d step %d: %w", rec.RunID, rec.Step, err)
		}
		rec.Ranking = r

		outcomes := [4]*engine.Outcome{&rec.Plurality, &rec.Borda, &rec.Condorcet, &rec.IRV}
		for i, w := range winners {
			if !w.Valid {
				continue
			}
			c, err := preference.ParseCandidate(k, w.String)
			if err != nil {
				return nil, fmt.Errorf("corrupt winner at run %d step %d: %w", rec.RunID, rec.Step, err)
			}
			*outcomes[i] = engine.Outcome{Winner: c, Found: true}
		}

		if faults.Valid {
			if err := decodeFaults(faults.String, &rec); err != nil {
				return nil, err
			}
		}
		if at.Valid {
			if rec.At, err = time.Parse(time.RFC3339Nano, at.String); err != nil {
				return nil, fmt.Errorf("corrupt timestamp at run %d step %d: %w", rec.RunID, rec.Step, err)
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// recordedAt stores step timestamps as RFC 3339 text in UTC
func recordedAt(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339Nano), Valid: true}
}

func nullable(symbol string) sql.NullString {
	return sql.NullString{String: symbol, Valid: symbol != ""}
}

// encodeFaults stores rule errors as {"irv": "message"}
func encodeFaults(rec engine.WinnerRecord) (sql.NullString, error) {
	faults := map[string]string{}
	for name, o := range rec.Outcomes() {
		if o.Err != nil {
			faults[name] = o.Err.Error()
		}
	}
	if len(faults) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(faults)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode faults: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func decodeFaults(raw string, rec *engine.WinnerRecord) error {
	var faults map[string]string
	if err := json.Unmarshal([]byte(raw), &faults); err != nil {
		return fmt.Errorf("corrupt faults at run %d step %d: %w", rec.RunID, rec.Step, err)
	}
	for name, msg := range faults {
		o := engine.Outcome{Err: errors.New(msg)}
		switch name {
		case rules.NamePlurality:
			rec.Plurality = o
		case rules.NameBorda:
			rec.Borda = o
		case rules.NameCondorcet:
			rec.Condorcet = o
		case rules.NameIRV:
			rec.IRV = o
		}
	}
	return nil
}
