// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"time"

	"github.com/danielhkuo/uvpd/analysis"
	"github.com/danielhkuo/uvpd/engine"
	"github.com/danielhkuo/uvpd/preference"
	"github.com/danielhkuo/uvpd/rules"
)

// Run status constants
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
)

// Request types

// Rankings are written as "A>B>C>D>E"
type EvaluateRequest struct {
	Candidates int      `json:"candidates"`
	Rankings   []string `json:"rankings"`
}

// Response types

type EvaluateResponse struct {
	Candidates int          `json:"candidates"`
	Steps      []StepRecord `json:"steps"`
	Final      []RuleDetail `json:"final"`
}

type BatchListResponse struct {
	Batches []Batch `json:"batches"`
}

type RunListResponse struct {
	Batch Batch `json:"batch"`
	Runs  []Run `json:"runs"`
}

type SummaryResponse struct {
	Batch   Batch            `json:"batch"`
	Summary analysis.Summary `json:"summary"`
}

type StepListResponse struct {
	BatchID string       `json:"batch_id"`
	RunID   int          `json:"run_id"`
	Steps   []StepRecord `json:"steps"`
}

// Domain types

type Batch struct {
	ID            string    `json:"id"`
	Seed          uint64    `json:"seed"`
	Runs          int       `json:"runs"`
	MaxVoters     int       `json:"max_voters"`
	Candidates    int       `json:"candidates"`
	CompletedRuns int       `json:"completed_runs"`
	CreatedAt     time.Time `json:"created_at"`
}

type Run struct {
	RunID       int        `json:"run_id"`
	Status      string     `json:"status"`
	Steps       int        `json:"steps"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Winners holds one letter per rule; null means no winner.
type Winners struct {
	Plurality *string `json:"plurality"`
	Borda     *string `json:"borda"`
	Condorcet *string `json:"condorcet"`
	IRV       *string `json:"irv"`
}

// StepRecord is the persisted and published form of engine.WinnerRecord.
type StepRecord struct {
	BatchID string            `json:"batch_id,omitempty"`
	RunID   int               `json:"run_id"`
	Step    int               `json:"step"`
	Ranking string            `json:"ranking"`
	Winners Winners           `json:"winners"`
	Faults  map[string]string `json:"faults,omitempty"`

	Timestamp *time.Time `json:"timestamp,omitempty"` // absent for ad hoc evaluation
}

// NewStepRecord converts an engine record, keeping candidates as letters
func NewStepRecord(batchID string, rec engine.WinnerRecord) StepRecord {
	w := rec.Winners()
	out := StepRecord{
		BatchID: batchID,
		RunID:   rec.RunID,
		Step:    rec.Step,
		Ranking: rec.Ranking.String(),
		Winners: Winners{
			Plurality: symbol(w[0]),
			Borda:     symbol(w[1]),
			Condorcet: symbol(w[2]),
			IRV:       symbol(w[3]),
		},
	}
	if !rec.At.IsZero() {
		at := rec.At.UTC()
		out.Timestamp = &at
	}
	for name, o := range rec.Outcomes() {
		if o.Err == nil {
			continue
		}
		if out.Faults == nil {
			out.Faults = map[string]string{}
		}
		out.Faults[name] = o.Err.Error()
	}
	return out
}

func symbol(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// RuleDetail exposes a rule's result and the data it was decided on.
type RuleDetail struct {
	Rule       string     `json:"rule"`
	Winner     *string    `json:"winner"`
	Tie        bool       `json:"tie"`
	Counts     []int      `json:"counts,omitempty"`
	Scores     []int      `json:"scores,omitempty"`
	Pairwise   [][]int    `json:"pairwise,omitempty"`
	Rounds     []IRVRound `json:"rounds,omitempty"`
	Eliminated []string   `json:"eliminated,omitempty"`
	Error      string     `json:"error,omitempty"`
}

type IRVRound struct {
	Active  []string `json:"active"`
	Tallies []int    `json:"tallies"`
}

// NewRuleDetail converts a rules.Result
func NewRuleDetail(res rules.Result, err error) RuleDetail {
	d := RuleDetail{
		Rule:     res.Rule,
		Tie:      res.Tie,
		Counts:   res.Counts,
		Scores:   res.Scores,
		Pairwise: res.Pairwise,
	}
	if err != nil {
		d.Error = err.Error()
		return d
	}
	if res.Found {
		d.Winner = symbol(res.Winner.String())
	}
	for _, r := range res.Rounds {
		d.Rounds = append(d.Rounds, IRVRound{Active: letters(r.Active), Tallies: r.Tallies})
	}
	if len(res.Eliminated) > 0 {
		d.Eliminated = letters(res.Eliminated)
	}
	return d
}

func letters(cs []preference.Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.String()
	}
	return out
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
