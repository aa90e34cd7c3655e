// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
// The DDL is shared by sqlite and postgres.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Batches (one per simulate invocation)
CREATE TABLE IF NOT EXISTS batch (
    id TEXT PRIMARY KEY,
    seed TEXT NOT NULL,
    runs INTEGER NOT NULL CHECK (runs > 0),
    max_voters INTEGER NOT NULL CHECK (max_voters > 0),
    candidates INTEGER NOT NULL CHECK (candidates > 0),
    created_at TIMESTAMP NOT NULL
);

-- Runs
CREATE TABLE IF NOT EXISTS run (
    batch_id TEXT NOT NULL REFERENCES batch(id) ON DELETE CASCADE,
    run_number INTEGER NOT NULL,
    started_at TIMESTAMP NOT NULL,
    completed_at TIMESTAMP,
    PRIMARY KEY (batch_id, run_number)
);

CREATE INDEX IF NOT EXISTS idx_run_batch_id ON run(batch_id);

-- Step records: the ranking appended at each step and the four winners.
-- A NULL winner means no winner (or a failed rule, see faults).
CREATE TABLE IF NOT EXISTS step_record (
    batch_id TEXT NOT NULL,
    run_number INTEGER NOT NULL,
    step INTEGER NOT NULL CHECK (step > 0),
    ranking TEXT NOT NULL,
    plurality TEXT,
    borda TEXT,
    condorcet TEXT,
    irv TEXT,
    faults TEXT,
    recorded_at TEXT,
    PRIMARY KEY (batch_id, run_number, step),
    FOREIGN KEY (batch_id, run_number) REFERENCES run(batch_id, run_number) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_step_record_step ON step_record(batch_id, step);
`
