// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package engine drives the voting rules over a growing electorate.

# Accumulator

An Accumulator owns one electorate. Each Advance appends one ranking and
evaluates every rule against the whole electorate so far:

	acc := engine.NewAccumulator(runID, 5)
	rec, err := acc.Advance(ranking)
	if errors.Is(err, preference.ErrInvalidRanking) {
		// nothing was appended
	}

Rules are recomputed from scratch at every step. A record, once returned,
never changes, and its Ranking is a copy the caller may keep or modify.
NewAccumulatorWithRules swaps individual rules; a rule that fails only
marks its own Outcome.

# Simulator

Simulator repeats the accumulator process for many independent runs and
hands every WinnerRecord to a Recorder. Runs are spread over a bounded pool
of workers; each run draws rankings from its own source seeded by the batch
seed and run ID, so the output does not depend on scheduling.

Every record handed out by the Simulator carries the time it was produced.
A run that fails after StartRun is released through AbortRun when the
recorder implements RunAborter.
*/
package engine
