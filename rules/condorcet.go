// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rules

import "github.com/danielhkuo/uvpd/preference"

// Condorcet elects the candidate that beats every other candidate in a
// head-to-head majority, and reports no winner when majorities cycle.
type Condorcet struct{}

func (Condorcet) Name() string { return NameCondorcet }

func (Condorcet) Evaluate(b Ballots) (Result, error) {
	if err := checkBallots(b); err != nil {
		return Result{Rule: NameCondorcet}, err
	}

	wins := PairwiseMatrix(b)
	res := Result{Rule: NameCondorcet, Pairwise: wins}

	for a := range wins {
		if beatsAll(wins, a) {
			// at most one candidate can beat all others
			res.Winner = preference.Candidate(a)
			res.Found = true
			break
		}
	}
	return res, nil
}

// PairwiseMatrix counts, for every ordered pair (a, b), the voters ranking
// a above b. wins[a][b] + wins[b][a] equals the electorate size.
func PairwiseMatrix(b Ballots) [][]int {
	k := b.Candidates()
	wins := make([][]int, k)
	for i := range wins {
		wins[i] = make([]int, k)
	}
	for i := 0; i < b.Len(); i++ {
		r := b.At(i)
		for hi := 0; hi < len(r); hi++ {
			for lo := hi + 1; lo < len(r); lo++ {
				wins[r[hi]][r[lo]]++
			}
		}
	}
	return wins
}

// Beats reports whether a has a strict pairwise majority over b
func Beats(wins [][]int, a, b preference.Candidate) bool {
	return wins[a][b] > wins[b][a]
}

func beatsAll(wins [][]int, a int) bool {
	for b := range wins {
		if b == a {
			continue
		}
		if !Beats(wins, preference.Candidate(a), preference.Candidate(b)) {
			return false
		}
	}
	return true
}
