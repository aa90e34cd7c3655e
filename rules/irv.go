// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rules

import (
	"fmt"

	"github.com/danielhkuo/uvpd/preference"
)

// IRV is instant-runoff (Hare) voting.
//
// Each round recounts every ranking's top still-active candidate from
// scratch, which is equivalent to transferring the votes of eliminated
// candidates.
type IRV struct{}

func (IRV) Name() string { return NameIRV }

func (IRV) Evaluate(b Ballots) (Result, error) {
	if err := checkBallots(b); err != nil {
		return Result{Rule: NameIRV}, err
	}

	res := Result{Rule: NameIRV}
	active := newActiveSet(b.Candidates())
	n := b.Len()

	for {
		if active.size() == 0 {
			return res, fmt.Errorf("%w: irv ran out of active candidates", ErrDefect)
		}

		tallies := TallyActive(b, active.contains)
		res.Rounds = append(res.Rounds, Round{Active: active.members(), Tallies: tallies})
		res.Counts = tallies

		leaders := maxGroup(tallies, active.contains)
		if 2*tallies[leaders[0]] > n {
			res.Winner = leaders[0]
			res.Found = true
			return res, nil
		}
		if active.size() == 1 {
			res.Winner = active.members()[0]
			res.Found = true
			return res, nil
		}

		lowest := minGroup(tallies, active.contains)
		out := Latest(lowest)
		res.Tie = res.Tie || len(lowest) > 1
		res.Eliminated = append(res.Eliminated, out)
		active = active.without(out)
	}
}

// TallyActive counts, per candidate, the rankings whose most preferred
// active candidate it is
func TallyActive(b Ballots, active func(preference.Candidate) bool) []int {
	tallies := make([]int, b.Candidates())
	for i := 0; i < b.Len(); i++ {
		for _, c := range b.At(i) {
			if active(c) {
				tallies[c]++
				break
			}
		}
	}
	return tallies
}

// activeSet is an immutable set of candidates; without returns a new value.
type activeSet struct {
	in []bool
}

func newActiveSet(k int) activeSet {
	in := make([]bool, k)
	for i := range in {
		in[i] = true
	}
	return activeSet{in: in}
}

func (s activeSet) contains(c preference.Candidate) bool {
	return s.in[c]
}

func (s activeSet) size() int {
	n := 0
	for _, ok := range s.in {
		if ok {
			n++
		}
	}
	return n
}

func (s activeSet) members() []preference.Candidate {
	var out []preference.Candidate
	for i, ok := range s.in {
		if ok {
			out = append(out, preference.Candidate(i))
		}
	}
	return out
}

func (s activeSet) without(c preference.Candidate) activeSet {
	in := make([]bool, len(s.in))
	copy(in, s.in)
	in[c] = false
	return activeSet{in: in}
}
