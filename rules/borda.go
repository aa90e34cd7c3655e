// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rules

import "fmt"

// Borda awards k-p points for rank position p (1 = first).
type Borda struct{}

func (Borda) Name() string { return NameBorda }

func (Borda) Evaluate(b Ballots) (Result, error) {
	if err := checkBallots(b); err != nil {
		return Result{Rule: NameBorda}, err
	}

	k := b.Candidates()
	scores := make([]int, k)
	for i := 0; i < b.Len(); i++ {
		for pos, c := range b.At(i) {
			scores[c] += k - 1 - pos
		}
	}

	res := Result{Rule: NameBorda, Scores: scores}

	total := 0
	for _, s := range scores {
		total += s
	}
	if want := ExpectedBordaTotal(k, b.Len()); total != want {
		return res, fmt.Errorf("%w: borda total %d, expected %d", ErrDefect, total, want)
	}

	tied := maxGroup(scores, nil)
	res.Winner = Earliest(tied)
	res.Found = true
	res.Tie = len(tied) > 1
	return res, nil
}

// ExpectedBordaTotal is the sum of all scores for n voters over k candidates
func ExpectedBordaTotal(k, n int) int {
	return k * (k - 1) / 2 * n
}
