// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"github.com/danielhkuo/uvpd/db"
)

// NewBatch converts stored batch metadata
func NewBatch(b db.BatchInfo) Batch {
	return Batch{
		ID:            b.ID,
		Seed:          b.Seed,
		Runs:          b.Runs,
		MaxVoters:     b.MaxVoters,
		Candidates:    b.Candidates,
		CompletedRuns: b.CompletedRuns,
		CreatedAt:     b.CreatedAt,
	}
}

// NewRun converts a stored run; runs without a completion time are still
// running or were interrupted.
func NewRun(r db.RunInfo) Run {
	status := StatusRunning
	if r.CompletedAt != nil {
		status = StatusCompleted
	}
	return Run{
		RunID:       r.RunID,
		Status:      status,
		Steps:       r.Steps,
		StartedAt:   r.StartedAt,
		CompletedAt: r.CompletedAt,
	}
}
