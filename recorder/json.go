// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package recorder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/danielhkuo/uvpd/engine"
	"github.com/danielhkuo/uvpd/models"
)

type runKey struct {
	batchID string
	runID   int
}

// JSONRecorder writes run files shaped like data/raw/<batch>/run_0001.json.
// A run file appears only once the run has ended, written via rename.
type JSONRecorder struct {
	root string

	mu      sync.Mutex
	pending map[runKey][]models.StepRecord
}

// NewJSONRecorder stores files below root
func NewJSONRecorder(root string) *JSONRecorder {
	return &JSONRecorder{root: root, pending: make(map[runKey][]models.StepRecord)}
}

// BatchDir is where the files of a batch live
func (j *JSONRecorder) BatchDir(batchID string) string {
	return filepath.Join(j.root, "data", "raw", batchID)
}

// RunFile is the path of one run's file
func (j *JSONRecorder) RunFile(batchID string, runID int) string {
	return filepath.Join(j.BatchDir(batchID), fmt.Sprintf("run_%04d.json", runID))
}

func (j *JSONRecorder) BeginBatch(_ context.Context, b engine.Batch) error {
	if err := os.MkdirAll(j.BatchDir(b.ID), 0o755); err != nil {
		return fmt.Errorf("recorder: ensure batch dir: %w", err)
	}
	meta := models.Batch{
		ID:         b.ID,
		Seed:       b.Seed,
		Runs:       b.Runs,
		MaxVoters:  b.MaxVoters,
		Candidates: b.Candidates,
		CreatedAt:  b.CreatedAt,
	}
	return writeJSON(filepath.Join(j.BatchDir(b.ID), "batch.json"), meta)
}

func (j *JSONRecorder) RunExists(_ context.Context, batchID string, runID int) (bool, error) {
	_, err := os.Stat(j.RunFile(batchID, runID))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("recorder: stat run file: %w", err)
	}
	return true, nil
}

func (j *JSONRecorder) StartRun(_ context.Context, batchID string, runID int) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.pending[runKey{batchID, runID}] = []models.StepRecord{}
	return nil
}

func (j *JSONRecorder) AppendStep(_ context.Context, batchID string, rec engine.WinnerRecord) error {
	step := models.NewStepRecord("", rec)
	key := runKey{batchID, rec.RunID}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.pending[key] = append(j.pending[key], step)
	return nil
}

func (j *JSONRecorder) EndRun(_ context.Context, batchID string, runID int) error {
	key := runKey{batchID, runID}
	j.mu.Lock()
	steps, ok := j.pending[key]
	delete(j.pending, key)
	j.mu.Unlock()
	if !ok {
		return fmt.Errorf("recorder: run %d of batch %s was never started", runID, batchID)
	}
	return writeJSON(j.RunFile(batchID, runID), steps)
}

// AbortRun drops the buffered steps of a failed run; no file is written
func (j *JSONRecorder) AbortRun(_ context.Context, batchID string, runID int) {
	j.mu.Lock()
	delete(j.pending, runKey{batchID, runID})
	j.mu.Unlock()
}

// ReadRun loads a run file back
func (j *JSONRecorder) ReadRun(batchID string, runID int) ([]models.StepRecord, error) {
	b, err := os.ReadFile(j.RunFile(batchID, runID))
	if err != nil {
		return nil, fmt.Errorf("recorder: read run file: %w", err)
	}
	var steps []models.StepRecord
	if err := json.Unmarshal(b, &steps); err != nil {
		return nil, fmt.Errorf("recorder: decode run file: %w", err)
	}
	return steps, nil
}

// writeJSON writes v to a temp file next to path and renames it into place
func writeJSON(path string, v any) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("recorder: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	if err := enc.Encode(v); err != nil {
		tmp.Close()
		return fmt.Errorf("recorder: encode %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("recorder: close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("recorder: rename into place: %w", err)
	}
	return nil
}
