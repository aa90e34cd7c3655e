// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"fmt"

	"github.com/danielhkuo/uvpd/preference"
	"github.com/danielhkuo/uvpd/rules"
)

// RuleSet is the rule evaluated for each outcome of a WinnerRecord.
// Nil fields fall back to the standard rule.
type RuleSet struct {
	Plurality rules.Rule
	Borda     rules.Rule
	Condorcet rules.Rule
	IRV       rules.Rule
}

// DefaultRules returns Plurality, Borda, Condorcet and IRV
func DefaultRules() RuleSet {
	return RuleSet{
		Plurality: rules.Plurality{},
		Borda:     rules.Borda{},
		Condorcet: rules.Condorcet{},
		IRV:       rules.IRV{},
	}
}

func (rs RuleSet) withDefaults() RuleSet {
	d := DefaultRules()
	if rs.Plurality == nil {
		rs.Plurality = d.Plurality
	}
	if rs.Borda == nil {
		rs.Borda = d.Borda
	}
	if rs.Condorcet == nil {
		rs.Condorcet = d.Condorcet
	}
	if rs.IRV == nil {
		rs.IRV = d.IRV
	}
	return rs
}

// Accumulator grows one electorate a voter at a time.
type Accumulator struct {
	runID      int
	electorate *preference.Electorate
	step       int
	rules      RuleSet
}

// NewAccumulator returns an accumulator with an empty electorate over k candidates
func NewAccumulator(runID, k int) *Accumulator {
	return NewAccumulatorWithRules(runID, k, DefaultRules())
}

// NewAccumulatorWithRules is NewAccumulator with a custom rule set
func NewAccumulatorWithRules(runID, k int, rs RuleSet) *Accumulator {
	return &Accumulator{runID: runID, electorate: preference.NewElectorate(k), rules: rs.withDefaults()}
}

// Step is the number of rankings accumulated so far
func (a *Accumulator) Step() int {
	return a.step
}

// Snapshot returns a read-only view of the electorate
func (a *Accumulator) Snapshot() preference.Snapshot {
	return a.electorate.Snapshot()
}

// Advance appends r and evaluates all four rules against the full
// electorate. If r is invalid the accumulator is left untouched.
// The record owns its ranking; changing it does not reach the electorate.
func (a *Accumulator) Advance(r preference.Ranking) (WinnerRecord, error) {
	if err := a.electorate.Append(r); err != nil {
		return WinnerRecord{}, err
	}
	a.step++

	snap := a.electorate.Snapshot()
	rec := WinnerRecord{
		RunID:   a.runID,
		Step:    a.step,
		Ranking: append(preference.Ranking(nil), snap.At(snap.Len()-1)...),
	}
	rec.Plurality = outcomeOf(a.rules.Plurality.Evaluate(snap))
	rec.Borda = outcomeOf(a.rules.Borda.Evaluate(snap))
	rec.Condorcet = outcomeOf(a.rules.Condorcet.Evaluate(snap))
	rec.IRV = outcomeOf(a.rules.IRV.Evaluate(snap))
	return rec, nil
}

// Evaluate runs the accumulator over rankings and returns one record per step
func Evaluate(k int, rankings []preference.Ranking) ([]WinnerRecord, error) {
	acc := NewAccumulator(0, k)
	records := make([]WinnerRecord, 0, len(rankings))
	for i, r := range rankings {
		rec, err := acc.Advance(r)
		if err != nil {
			return records, fmt.Errorf("ranking %d: %w", i+1, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
