// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles the database schema and stores simulation output.

# Connecting

Open supports SQLite (modernc.org/sqlite, the default) and PostgreSQL
(lib/pq). Queries use $N placeholders, which both drivers accept.

	conn, err := db.Open(db.TypeSQLite, "file:uvpd.db")
	if err != nil {
		log.Fatal(err)
	}

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - batch: seed and dimensions of one simulate invocation
  - run: one independent run, completed_at set once fully stored
  - step_record: ranking appended at each step, the four winners and when
    the step was recorded

# Relationships

	batch 1──* run
	run 1──* step_record

All foreign keys use ON DELETE CASCADE.

# Store

Store implements engine.Recorder. Steps are buffered in memory and written
in a single transaction when the run ends, so an interrupted run leaves no
partial steps and is simply re-run on resume.

Winners are stored as candidate letters; NULL means no winner. Rule
failures are kept in the faults column as a JSON object keyed by rule name.
*/
package db
