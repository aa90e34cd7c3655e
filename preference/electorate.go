// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package preference

// Electorate is an ordered, append-only collection of rankings.
// The zero value is not usable; create one with NewElectorate.
type Electorate struct {
	k        int
	rankings []Ranking
}

// NewElectorate returns an empty electorate over k candidates
func NewElectorate(k int) *Electorate {
	return &Electorate{k: k}
}

// ElectorateOf builds an electorate from rankings, stopping at the first invalid one
func ElectorateOf(k int, rankings ...Ranking) (*Electorate, error) {
	e := NewElectorate(k)
	for _, r := range rankings {
		if err := e.Append(r); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Append validates r and adds a private copy of it.
// On error the electorate is left unchanged.
func (e *Electorate) Append(r Ranking) error {
	if err := r.Validate(e.k); err != nil {
		return err
	}
	c := make(Ranking, len(r))
	copy(c, r)
	e.rankings = append(e.rankings, c)
	return nil
}

// Candidates is the candidate count k
func (e *Electorate) Candidates() int {
	return e.k
}

// Len is the number of voters seen so far
func (e *Electorate) Len() int {
	return len(e.rankings)
}

// At returns the i-th ranking. The slice is the stored copy, shared with
// every snapshot; callers must not modify it.
func (e *Electorate) At(i int) Ranking {
	return e.rankings[i]
}

// Snapshot returns a read-only view of the current electorate. The view is
// capped at its length, so later appends to e never show through it.
func (e *Electorate) Snapshot() Snapshot {
	n := len(e.rankings)
	return Snapshot{k: e.k, rankings: e.rankings[:n:n]}
}

// Snapshot is an immutable view of an electorate at one step.
type Snapshot struct {
	k        int
	rankings []Ranking
}

// Candidates is the candidate count k
func (s Snapshot) Candidates() int {
	return s.k
}

// Len is the number of rankings in the snapshot
func (s Snapshot) Len() int {
	return len(s.rankings)
}

// At returns the i-th ranking. The slice is the stored copy, shared with
// every snapshot; callers must not modify it.
func (s Snapshot) At(i int) Ranking {
	return s.rankings[i]
}

// Prefix returns the snapshot holding only the first n rankings
func (s Snapshot) Prefix(n int) Snapshot {
	return Snapshot{k: s.k, rankings: s.rankings[:n:n]}
}
