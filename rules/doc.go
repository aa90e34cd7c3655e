// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package rules implements the four voting rules evaluated at every step.

Every rule is a pure function of the rankings it is given. Nothing is cached
between calls, so evaluating the same electorate twice always yields the
same Result.

# Rules

  - Plurality: most first-place votes
  - Borda: position p of k earns k-p points, highest total wins
  - Condorcet: the candidate beating every other one pairwise, if any
  - IRV: instant runoff, eliminating the weakest candidate each round

# Tie-breaks

Plurality and Borda resolve ties in favour of the candidate that comes first
in canonical order (A before B). IRV eliminates the canonical-latest of the
tied-lowest group, which protects the earlier candidates the same way.
Condorcet needs no tie-break: an even pairwise contest is not a win for
either side.

# Results

Found is false only for a Condorcet cycle. ErrEmptyElectorate is returned
for zero rankings and ErrDefect for states that valid input cannot reach.

	res, err := rules.IRV{}.Evaluate(snapshot)
	if err != nil {
		return err
	}
	fmt.Println(res.Winner, res.Eliminated)
*/
package rules
