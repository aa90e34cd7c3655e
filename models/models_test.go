// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/danielhkuo/uvpd/db"
	"github.com/danielhkuo/uvpd/engine"
	"github.com/danielhkuo/uvpd/preference"
	"github.com/danielhkuo/uvpd/rules"
)

func TestNewStepRecord(t *testing.T) {
	ranking, err := preference.ParseRanking(5, "C>A>B>D>E")
	if err != nil {
		t.Fatal(err)
	}
	rec := engine.WinnerRecord{
		RunID:     3,
		Step:      7,
		Ranking:   ranking,
		Plurality: engine.Outcome{Winner: 2, Found: true},
		Borda:     engine.Outcome{Winner: 0, Found: true},
		Condorcet: engine.Outcome{},
		IRV:       engine.Outcome{Err: errors.New("irv: defect")},
	}

	step := NewStepRecord("b1", rec)
	if step.BatchID != "b1" || step.RunID != 3 || step.Step != 7 || step.Ranking != "C>A>B>D>E" {
		t.Errorf("Unexpected step record: %+v", step)
	}
	if step.Winners.Plurality == nil || *step.Winners.Plurality != "C" {
		t.Errorf("Expected plurality C, got %v", step.Winners.Plurality)
	}
	if step.Winners.Condorcet != nil {
		t.Error("Expected no Condorcet winner")
	}
	if step.Winners.IRV != nil {
		t.Error("Expected no IRV winner when the rule failed")
	}
	if step.Faults["irv"] != "irv: defect" || len(step.Faults) != 1 {
		t.Errorf("Unexpected faults: %v", step.Faults)
	}

	body, err := json.Marshal(step)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), `"condorcet":null`) {
		t.Errorf("Expected null condorcet winner in %s", body)
	}
}

func TestNewStepRecord_OmitsBatchAndFaults(t *testing.T) {
	ranking, _ := preference.ParseRanking(3, "A>B>C")
	rec := engine.WinnerRecord{RunID: 1, Step: 1, Ranking: ranking}

	body, err := json.Marshal(NewStepRecord("", rec))
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"batch_id", "faults", "timestamp"} {
		if strings.Contains(string(body), key) {
			t.Errorf("Expected %s to be omitted from %s", key, body)
		}
	}
}

func TestNewStepRecord_Timestamp(t *testing.T) {
	ranking, _ := preference.ParseRanking(3, "A>B>C")
	at := time.Date(2025, 4, 2, 10, 0, 0, 0, time.FixedZone("EST", -5*3600))
	rec := engine.WinnerRecord{RunID: 1, Step: 1, Ranking: ranking, At: at}

	step := NewStepRecord("", rec)
	if step.Timestamp == nil || !step.Timestamp.Equal(at) || step.Timestamp.Location() != time.UTC {
		t.Fatalf("Expected %v in UTC, got %v", at, step.Timestamp)
	}
	body, err := json.Marshal(step)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), `"timestamp":"2025-04-02T15:00:00Z"`) {
		t.Errorf("Unexpected timestamp encoding in %s", body)
	}
}

func TestNewRuleDetail(t *testing.T) {
	d := NewRuleDetail(rules.Result{
		Rule:       rules.NameIRV,
		Winner:     0,
		Found:      true,
		Counts:     []int{2, 1, 0},
		Rounds:     []rules.Round{{Active: []preference.Candidate{0, 1, 2}, Tallies: []int{1, 1, 1}}},
		Eliminated: []preference.Candidate{2, 1},
	}, nil)

	if d.Winner == nil || *d.Winner != "A" {
		t.Errorf("Expected winner A, got %v", d.Winner)
	}
	if strings.Join(d.Eliminated, ",") != "C,B" {
		t.Errorf("Expected eliminations C,B, got %v", d.Eliminated)
	}
	if len(d.Rounds) != 1 || strings.Join(d.Rounds[0].Active, "") != "ABC" {
		t.Errorf("Unexpected rounds: %+v", d.Rounds)
	}

	failed := NewRuleDetail(rules.Result{Rule: rules.NameBorda}, rules.ErrEmptyElectorate)
	if failed.Winner != nil || failed.Error == "" {
		t.Errorf("Expected an error detail, got %+v", failed)
	}
}

func TestNewRun(t *testing.T) {
	started := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	completed := started.Add(time.Second)

	tests := []struct {
		name   string
		info   db.RunInfo
		status string
	}{
		{"completed", db.RunInfo{RunID: 1, StartedAt: started, CompletedAt: &completed, Steps: 50}, StatusCompleted},
		{"interrupted", db.RunInfo{RunID: 2, StartedAt: started}, StatusRunning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := NewRun(tt.info)
			if run.Status != tt.status {
				t.Errorf("Expected status %s, got %s", tt.status, run.Status)
			}
			if run.RunID != tt.info.RunID || run.Steps != tt.info.Steps {
				t.Errorf("Unexpected run: %+v", run)
			}
		})
	}
}

func TestNewBatch(t *testing.T) {
	info := db.BatchInfo{
		Batch:         engine.Batch{ID: "b", Seed: 1 << 63, Runs: 10, MaxVoters: 50, Candidates: 5},
		CompletedRuns: 4,
	}
	b := NewBatch(info)
	if b.ID != "b" || b.Seed != 1<<63 || b.CompletedRuns != 4 || b.MaxVoters != 50 {
		t.Errorf("Unexpected batch: %+v", b)
	}
}
