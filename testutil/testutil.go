// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielhkuo/uvpd/cliparse"
	"github.com/danielhkuo/uvpd/db"
	"github.com/danielhkuo/uvpd/engine"
	"github.com/danielhkuo/uvpd/preference"
)

// SetupTestDB creates a fresh sqlite database with the full schema in a
// per-test temp directory. It is closed when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(db.TypeSQLite, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Command:      cliparse.CmdServe,
		Port:         cliparse.DefaultPort,
		DatabaseType: db.TypeSQLite,
		DatabaseURL:  ":memory:",
		Candidates:   preference.DefaultCandidates,
	}
}

// MustRankings parses rankings like "A>B>C>D>E" for k candidates
func MustRankings(t *testing.T, k int, rankings ...string) []preference.Ranking {
	t.Helper()

	out := make([]preference.Ranking, 0, len(rankings))
	for _, s := range rankings {
		r, err := preference.ParseRanking(k, s)
		if err != nil {
			t.Fatalf("Bad test ranking %q: %v", s, err)
		}
		out = append(out, r)
	}
	return out
}

// fixedSource replays the same rankings for every run
type fixedSource struct {
	rankings []preference.Ranking
	next     int
}

func (f *fixedSource) Next() preference.Ranking {
	r := f.rankings[f.next%len(f.rankings)]
	f.next++
	return r
}

// FixedRankings returns a source factory that feeds every run the given
// rankings in order, cycling when a run is longer.
func FixedRankings(rankings []preference.Ranking) engine.SourceFactory {
	return func(engine.Batch, int) (engine.RankingSource, error) {
		return &fixedSource{rankings: rankings}, nil
	}
}

// SeedBatch simulates a batch into the store and returns its metadata.
// A nil source samples rankings from the batch seed.
func SeedBatch(t *testing.T, store *db.Store, id string, runs, voters int, source engine.SourceFactory) engine.Batch {
	t.Helper()

	batch := engine.Batch{
		ID:         id,
		Seed:       42,
		Runs:       runs,
		MaxVoters:  voters,
		Candidates: preference.DefaultCandidates,
		CreatedAt:  time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	sim, err := engine.NewSimulator(engine.Config{Batch: batch, Workers: 2}, store, source, nil)
	if err != nil {
		t.Fatalf("Failed to create simulator: %v", err)
	}
	if _, err := sim.Run(context.Background()); err != nil {
		t.Fatalf("Failed to seed batch %s: %v", id, err)
	}
	return batch
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body any, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
