// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielhkuo/uvpd/engine"
	"github.com/danielhkuo/uvpd/preference"
	"github.com/danielhkuo/uvpd/rules"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := Open(TypeSQLite, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func testBatch(id string) engine.Batch {
	return engine.Batch{
		ID:         id,
		Seed:       18446744073709551615, // max uint64 survives the round trip
		Runs:       3,
		MaxVoters:  4,
		Candidates: 5,
		CreatedAt:  time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func record(t *testing.T, runID, step int, ranking string, winners ...string) engine.WinnerRecord {
	t.Helper()
	r, err := preference.ParseRanking(5, ranking)
	if err != nil {
		t.Fatalf("bad ranking %q: %v", ranking, err)
	}
	rec := engine.WinnerRecord{RunID: runID, Step: step, Ranking: r}
	outcomes := []*engine.Outcome{&rec.Plurality, &rec.Borda, &rec.Condorcet, &rec.IRV}
	for i, w := range winners {
		if w == "" {
			continue
		}
		c, err := preference.ParseCandidate(5, w)
		if err != nil {
			t.Fatalf("bad winner %q: %v", w, err)
		}
		*outcomes[i] = engine.Outcome{Winner: c, Found: true}
	}
	return rec
}

func TestCreateSchemaIdempotent(t *testing.T) {
	conn := setupTestDB(t)
	if err := CreateSchema(conn); err != nil {
		t.Fatalf("second CreateSchema failed: %v", err)
	}
}

func TestOpenRejectsUnknownType(t *testing.T) {
	if _, err := Open("mysql", "whatever"); err == nil {
		t.Fatal("expected error for unsupported database type")
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewStore(setupTestDB(t), nil)
	batch := testBatch("b1")

	if err := store.BeginBatch(ctx, batch); err != nil {
		t.Fatalf("BeginBatch failed: %v", err)
	}
	if err := store.StartRun(ctx, "b1", 1); err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}

	recs := []engine.WinnerRecord{
		record(t, 1, 1, "A>B>C>D>E", "A", "A", "A", "A"),
		record(t, 1, 2, "B>A>C>D>E", "A", "A", "", "A"),
		record(t, 1, 3, "C>A>B>D>E", "A", "A", "A", "A"),
	}
	recs[2].IRV = engine.Outcome{Err: fmt.Errorf("%w: test", rules.ErrDefect)}
	for _, rec := range recs {
		if err := store.AppendStep(ctx, "b1", rec); err != nil {
			t.Fatalf("AppendStep failed: %v", err)
		}
	}

	// Not visible as complete before EndRun
	exists, err := store.RunExists(ctx, "b1", 1)
	if err != nil {
		t.Fatal(err)
	}
	if exists {
		t.Error("run should not be complete before EndRun")
	}

	if err := store.EndRun(ctx, "b1", 1); err != nil {
		t.Fatalf("EndRun failed: %v", err)
	}

	exists, err = store.RunExists(ctx, "b1", 1)
	if err != nil {
		t.Fatal(err)
	}
	if !exists {
		t.Error("run should be complete after EndRun")
	}

	got, err := store.RunRecords(ctx, "b1", 1)
	if err != nil {
		t.Fatalf("RunRecords failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(got))
	}
	for i, rec := range got {
		if rec.Step != i+1 {
			t.Errorf("Expected step %d, got %d", i+1, rec.Step)
		}
		if rec.Ranking.String() != recs[i].Ranking.String() {
			t.Errorf("Step %d: expected ranking %s, got %s", i+1, recs[i].Ranking, rec.Ranking)
		}
	}
	if w := got[1].Winners(); w != [4]string{"A", "A", "", "A"} {
		t.Errorf("Unexpected winners at step 2: %v", w)
	}
	if got[2].IRV.Err == nil || got[2].IRV.Found {
		t.Errorf("Expected IRV fault at step 3, got %+v", got[2].IRV)
	}
	if got[2].Plurality.Symbol() != "A" {
		t.Errorf("Fault in IRV should not affect plurality, got %+v", got[2].Plurality)
	}
}

func TestStoreBatchMetadata(t *testing.T) {
	ctx := context.Background()
	store := NewStore(setupTestDB(t), nil)

	if err := store.BeginBatch(ctx, testBatch("b1")); err != nil {
		t.Fatal(err)
	}

	info, err := store.GetBatch(ctx, "b1")
	if err != nil {
		t.Fatalf("GetBatch failed: %v", err)
	}
	want := testBatch("b1")
	if info.Seed != want.Seed || info.Runs != 3 || info.MaxVoters != 4 || info.Candidates != 5 {
		t.Errorf("Unexpected batch info: %+v", info)
	}
	if !info.CreatedAt.Equal(want.CreatedAt) {
		t.Errorf("Expected created_at %v, got %v", want.CreatedAt, info.CreatedAt)
	}

	// Same parameters: resume is fine
	if err := store.BeginBatch(ctx, testBatch("b1")); err != nil {
		t.Errorf("re-beginning identical batch failed: %v", err)
	}

	changed := testBatch("b1")
	changed.MaxVoters = 10
	if err := store.BeginBatch(ctx, changed); !errors.Is(err, ErrBatchMismatch) {
		t.Errorf("Expected ErrBatchMismatch, got %v", err)
	}

	if _, err := store.GetBatch(ctx, "missing"); !errors.Is(err, ErrBatchNotFound) {
		t.Errorf("Expected ErrBatchNotFound, got %v", err)
	}
}

func TestStoreRestartedRunDropsStaleSteps(t *testing.T) {
	ctx := context.Background()
	store := NewStore(setupTestDB(t), nil)
	if err := store.BeginBatch(ctx, testBatch("b1")); err != nil {
		t.Fatal(err)
	}

	write := func(rankings ...string) {
		if err := store.StartRun(ctx, "b1", 2); err != nil {
			t.Fatal(err)
		}
		for i, r := range rankings {
			if err := store.AppendStep(ctx, "b1", record(t, 2, i+1, r, "A", "A", "A", "A")); err != nil {
				t.Fatal(err)
			}
		}
		if err := store.EndRun(ctx, "b1", 2); err != nil {
			t.Fatal(err)
		}
	}

	write("A>B>C>D>E", "B>A>C>D>E", "C>A>B>D>E")
	write("E>D>C>B>A")

	got, err := store.RunRecords(ctx, "b1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Ranking.String() != "E>D>C>B>A" {
		t.Errorf("Expected only the rewritten step, got %+v", got)
	}
}

func TestStoreAbortRunReleasesBuffer(t *testing.T) {
	ctx := context.Background()
	store := NewStore(setupTestDB(t), nil)
	if err := store.BeginBatch(ctx, testBatch("b1")); err != nil {
		t.Fatal(err)
	}
	if err := store.StartRun(ctx, "b1", 1); err != nil {
		t.Fatal(err)
	}
	if err := store.AppendStep(ctx, "b1", record(t, 1, 1, "A>B>C>D>E", "A", "A", "A", "A")); err != nil {
		t.Fatal(err)
	}

	store.AbortRun(ctx, "b1", 1)

	store.mu.Lock()
	pending := len(store.pending)
	store.mu.Unlock()
	if pending != 0 {
		t.Errorf("Expected no buffered runs after abort, got %d", pending)
	}
	exists, err := store.RunExists(ctx, "b1", 1)
	if err != nil {
		t.Fatal(err)
	}
	if exists {
		t.Error("aborted run should not be complete")
	}
	steps, err := store.RunRecords(ctx, "b1", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(steps) != 0 {
		t.Errorf("Expected no stored steps for aborted run, got %d", len(steps))
	}
}

func TestStoreStepTimestamps(t *testing.T) {
	ctx := context.Background()
	store := NewStore(setupTestDB(t), nil)
	if err := store.BeginBatch(ctx, testBatch("b1")); err != nil {
		t.Fatal(err)
	}
	if err := store.StartRun(ctx, "b1", 1); err != nil {
		t.Fatal(err)
	}

	at := time.Date(2025, 3, 1, 12, 0, 1, 123456789, time.FixedZone("CET", 3600))
	stamped := record(t, 1, 1, "A>B>C>D>E", "A", "A", "A", "A")
	stamped.At = at
	for _, rec := range []engine.WinnerRecord{stamped, record(t, 1, 2, "B>A>C>D>E", "A", "A", "", "A")} {
		if err := store.AppendStep(ctx, "b1", rec); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.EndRun(ctx, "b1", 1); err != nil {
		t.Fatal(err)
	}

	got, err := store.RunRecords(ctx, "b1", 1)
	if err != nil {
		t.Fatal(err)
	}
	if !got[0].At.Equal(at) || got[0].At.Location() != time.UTC {
		t.Errorf("Expected %v in UTC, got %v", at, got[0].At)
	}
	if !got[1].At.IsZero() {
		t.Errorf("Expected no timestamp for unstamped step, got %v", got[1].At)
	}
}

func TestStoreListings(t *testing.T) {
	ctx := context.Background()
	store := NewStore(setupTestDB(t), nil)
	if err := store.BeginBatch(ctx, testBatch("b1")); err != nil {
		t.Fatal(err)
	}

	for runID := 1; runID <= 2; runID++ {
		if err := store.StartRun(ctx, "b1", runID); err != nil {
			t.Fatal(err)
		}
		if err := store.AppendStep(ctx, "b1", record(t, runID, 1, "A>B>C>D>E", "A", "A", "A", "A")); err != nil {
			t.Fatal(err)
		}
		if err := store.EndRun(ctx, "b1", runID); err != nil {
			t.Fatal(err)
		}
	}
	// run 3 started but never finished
	if err := store.StartRun(ctx, "b1", 3); err != nil {
		t.Fatal(err)
	}

	batches, err := store.ListBatches(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(batches) != 1 || batches[0].CompletedRuns != 2 {
		t.Errorf("Expected one batch with 2 completed runs, got %+v", batches)
	}

	runs, err := store.ListRuns(ctx, "b1")
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 3 {
		t.Fatalf("Expected 3 runs, got %d", len(runs))
	}
	if runs[0].CompletedAt == nil || runs[0].Steps != 1 {
		t.Errorf("Run 1 should be complete with 1 step: %+v", runs[0])
	}
	if runs[2].CompletedAt != nil || runs[2].Steps != 0 {
		t.Errorf("Run 3 should be incomplete with no steps: %+v", runs[2])
	}

	all, err := store.BatchRecords(ctx, "b1")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[0].RunID != 1 || all[1].RunID != 2 {
		t.Errorf("Expected completed runs' steps in order, got %+v", all)
	}

	if _, err := store.RunRecords(ctx, "b1", 9); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Expected ErrRunNotFound, got %v", err)
	}
	if _, err := store.ListRuns(ctx, "nope"); !errors.Is(err, ErrBatchNotFound) {
		t.Errorf("Expected ErrBatchNotFound, got %v", err)
	}
}

func TestStoreWithSimulator(t *testing.T) {
	ctx := context.Background()
	store := NewStore(setupTestDB(t), nil)

	cfg := engine.Config{Batch: testBatch("sim"), Workers: 3}
	sim, err := engine.NewSimulator(cfg, store, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sim.Run(ctx); err != nil {
		t.Fatalf("simulation failed: %v", err)
	}

	all, err := store.BatchRecords(ctx, "sim")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 12 {
		t.Fatalf("Expected 3 runs x 4 steps = 12 records, got %d", len(all))
	}

	// resuming the completed batch writes nothing new
	cfg.Resume = true
	sim, err = engine.NewSimulator(cfg, store, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	stats, err := sim.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Skipped != 3 || stats.Completed != 0 {
		t.Errorf("Expected all runs skipped on resume, got %+v", stats)
	}
}
