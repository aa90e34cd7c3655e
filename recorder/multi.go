// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package recorder

import (
	"context"

	"github.com/danielhkuo/uvpd/engine"
)

// Multi sends every call to each recorder in order, stopping at the first
// error. Resume state comes from the first recorder only.
type Multi []engine.Recorder

func (m Multi) BeginBatch(ctx context.Context, b engine.Batch) error {
	for _, r := range m {
		if err := r.BeginBatch(ctx, b); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) RunExists(ctx context.Context, batchID string, runID int) (bool, error) {
	if len(m) == 0 {
		return false, nil
	}
	return m[0].RunExists(ctx, batchID, runID)
}

func (m Multi) StartRun(ctx context.Context, batchID string, runID int) error {
	for _, r := range m {
		if err := r.StartRun(ctx, batchID, runID); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) AppendStep(ctx context.Context, batchID string, rec engine.WinnerRecord) error {
	for _, r := range m {
		if err := r.AppendStep(ctx, batchID, rec); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) EndRun(ctx context.Context, batchID string, runID int) error {
	for _, r := range m {
		if err := r.EndRun(ctx, batchID, runID); err != nil {
			return err
		}
	}
	return nil
}

// AbortRun forwards to every recorder that buffers runs
func (m Multi) AbortRun(ctx context.Context, batchID string, runID int) {
	for _, r := range m {
		if a, ok := r.(engine.RunAborter); ok {
			a.AbortRun(ctx, batchID, runID)
		}
	}
}
