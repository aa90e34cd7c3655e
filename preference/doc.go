// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package preference defines candidates, rankings and electorates.

# Candidates

Candidates are identified by their index in a canonical alphabetical order.
Index 0 is "A", index 1 is "B", and so on:

	c := preference.Candidate(2)
	c.String() // "C"

The canonical order is the tie-break key used by every voting rule.

# Rankings

A Ranking is one voter's complete, strict order over all k candidates.
Rankings are validated on construction:

	r, err := preference.ParseRanking(5, "B>A>C>D>E")
	if errors.Is(err, preference.ErrInvalidRanking) {
		// wrong length, unknown or repeated candidate
	}

# Electorates

An Electorate is an append-only sequence of rankings over a fixed candidate
count. Append never partially applies: an invalid ranking leaves the
electorate unchanged.

	e := preference.NewElectorate(5)
	if err := e.Append(r); err != nil {
		return err
	}
	snap := e.Snapshot() // read-only view, unaffected by later appends

# Sampling

Sampler draws rankings uniformly from all k! permutations using a seedable
PCG source, so a (seed, stream) pair always yields the same sequence.
*/
package preference
