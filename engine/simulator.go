// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/uvpd/preference"
)

var ErrInvalidConfig = errors.New("invalid simulation config")

// Batch describes one simulate invocation.
type Batch struct {
	ID         string
	Seed       uint64
	Runs       int
	MaxVoters  int
	Candidates int
	CreatedAt  time.Time
}

// RankingSource supplies valid rankings, one per call.
type RankingSource interface {
	Next() preference.Ranking
}

// SourceFactory builds the ranking source for one run.
type SourceFactory func(batch Batch, runID int) (RankingSource, error)

// SamplerSource seeds a uniform sampler from the batch seed, using the run
// ID as the PCG stream so every run is independent and reproducible.
func SamplerSource(batch Batch, runID int) (RankingSource, error) {
	return preference.NewSampler(batch.Candidates, batch.Seed, uint64(runID))
}

// Recorder persists the records of a batch. Implementations must be safe
// for concurrent use by different runs.
type Recorder interface {
	BeginBatch(ctx context.Context, batch Batch) error
	RunExists(ctx context.Context, batchID string, runID int) (bool, error)
	StartRun(ctx context.Context, batchID string, runID int) error
	AppendStep(ctx context.Context, batchID string, rec WinnerRecord) error
	EndRun(ctx context.Context, batchID string, runID int) error
}

// RunAborter is implemented by recorders that buffer a run and need to
// release it when the run fails before EndRun.
type RunAborter interface {
	AbortRun(ctx context.Context, batchID string, runID int)
}

// Config controls a simulation batch.
type Config struct {
	Batch   Batch
	Workers int
	Resume  bool
	Rules   RuleSet // zero value evaluates the four standard rules
}

func (c Config) validate() error {
	switch {
	case c.Batch.ID == "":
		return fmt.Errorf("%w: batch ID required", ErrInvalidConfig)
	case c.Batch.Runs < 1:
		return fmt.Errorf("%w: runs must be positive, got %d", ErrInvalidConfig, c.Batch.Runs)
	case c.Batch.MaxVoters < 1:
		return fmt.Errorf("%w: max voters must be positive, got %d", ErrInvalidConfig, c.Batch.MaxVoters)
	case c.Batch.Candidates < 1 || c.Batch.Candidates > preference.MaxCandidates:
		return fmt.Errorf("%w: candidates must be 1-%d, got %d", ErrInvalidConfig, preference.MaxCandidates, c.Batch.Candidates)
	}
	return nil
}

// Stats summarises a finished batch.
type Stats struct {
	Completed int
	Skipped   int
	Steps     int
}

// Simulator runs many independent accumulator runs.
type Simulator struct {
	cfg      Config
	recorder Recorder
	source   SourceFactory
	logger   *slog.Logger
	now      func() time.Time
}

// NewSimulator validates cfg. A nil source uses SamplerSource and a nil
// logger uses slog.Default().
func NewSimulator(cfg Config, recorder Recorder, source SourceFactory, logger *slog.Logger) (*Simulator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if recorder == nil {
		return nil, fmt.Errorf("%w: recorder required", ErrInvalidConfig)
	}
	if cfg.Workers < 1 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Batch.CreatedAt.IsZero() {
		cfg.Batch.CreatedAt = time.Now().UTC()
	}
	if source == nil {
		source = SamplerSource
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Simulator{
		cfg:      cfg,
		recorder: recorder,
		source:   source,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Batch returns the batch being simulated
func (s *Simulator) Batch() Batch {
	return s.cfg.Batch
}

// Run executes every run of the batch. The first failing run cancels the rest.
func (s *Simulator) Run(ctx context.Context) (Stats, error) {
	batch := s.cfg.Batch
	if err := s.recorder.BeginBatch(ctx, batch); err != nil {
		return Stats{}, fmt.Errorf("begin batch %s: %w", batch.ID, err)
	}

	s.logger.Info("simulation started",
		"batch", batch.ID,
		"runs", humanize.Comma(int64(batch.Runs)),
		"max_voters", humanize.Comma(int64(batch.MaxVoters)),
		"candidates", batch.Candidates,
		"seed", batch.Seed,
		"workers", s.cfg.Workers,
	)
	start := time.Now()

	var completed, skipped atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)

	for runID := 1; runID <= batch.Runs; runID++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if s.cfg.Resume {
				exists, err := s.recorder.RunExists(gctx, batch.ID, runID)
				if err != nil {
					return fmt.Errorf("run %d: check existing: %w", runID, err)
				}
				if exists {
					skipped.Add(1)
					s.logger.Debug("run already recorded, skipping", "batch", batch.ID, "run", runID)
					return nil
				}
			}
			if err := s.runOne(gctx, runID); err != nil {
				return fmt.Errorf("run %d: %w", runID, err)
			}
			done := completed.Add(1)
			if done%progressEvery(batch.Runs) == 0 {
				s.logger.Info("simulation progress",
					"batch", batch.ID,
					"completed", humanize.Comma(done),
					"of", humanize.Comma(int64(batch.Runs)),
				)
			}
			return nil
		})
	}

	err := g.Wait()
	stats := Stats{
		Completed: int(completed.Load()),
		Skipped:   int(skipped.Load()),
	}
	stats.Steps = stats.Completed * batch.MaxVoters
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return stats, err
	}

	s.logger.Info("simulation finished",
		"batch", batch.ID,
		"completed", stats.Completed,
		"skipped", stats.Skipped,
		"steps", humanize.Comma(int64(stats.Steps)),
		"elapsed", time.Since(start).Round(time.Millisecond).String(),
	)
	return stats, nil
}

func (s *Simulator) runOne(ctx context.Context, runID int) (err error) {
	batch := s.cfg.Batch
	src, err := s.source(batch, runID)
	if err != nil {
		return fmt.Errorf("ranking source: %w", err)
	}
	if err := s.recorder.StartRun(ctx, batch.ID, runID); err != nil {
		return fmt.Errorf("start run: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		if a, ok := s.recorder.(RunAborter); ok {
			a.AbortRun(context.WithoutCancel(ctx), batch.ID, runID)
		}
	}()

	acc := NewAccumulatorWithRules(runID, batch.Candidates, s.cfg.Rules)
	for step := 1; step <= batch.MaxVoters; step++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := acc.Advance(src.Next())
		if err != nil {
			return fmt.Errorf("step %d: %w", step, err)
		}
		rec.At = s.now()
		for name, o := range rec.Outcomes() {
			if o.Err != nil {
				s.logger.Error("rule evaluation failed",
					"batch", batch.ID, "run", runID, "step", step, "rule", name, "error", o.Err)
			}
		}
		if err := s.recorder.AppendStep(ctx, batch.ID, rec); err != nil {
			return fmt.Errorf("step %d: record: %w", step, err)
		}
	}

	if err := s.recorder.EndRun(ctx, batch.ID, runID); err != nil {
		return fmt.Errorf("end run: %w", err)
	}
	return nil
}

// progressEvery logs roughly ten progress lines per batch
func progressEvery(runs int) int64 {
	if runs < 10 {
		return 1
	}
	return int64(runs / 10)
}
