// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rules

// Plurality elects the candidate with the most first-place votes.
type Plurality struct{}

func (Plurality) Name() string { return NamePlurality }

func (Plurality) Evaluate(b Ballots) (Result, error) {
	if err := checkBallots(b); err != nil {
		return Result{Rule: NamePlurality}, err
	}

	counts := make([]int, b.Candidates())
	for i := 0; i < b.Len(); i++ {
		counts[b.At(i)[0]]++
	}

	tied := maxGroup(counts, nil)
	return Result{
		Rule:   NamePlurality,
		Winner: Earliest(tied),
		Found:  true,
		Tie:    len(tied) > 1,
		Counts: counts,
	}, nil
}
