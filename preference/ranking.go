// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package preference

import (
	"errors"
	"fmt"
	"strings"
)

// MaxCandidates is bounded by the single-letter candidate symbols.
const MaxCandidates = 26

// DefaultCandidates is the reference configuration (A-E).
const DefaultCandidates = 5

var ErrInvalidRanking = errors.New("invalid ranking")

// Candidate is an index into the canonical alphabetical order.
type Candidate int

// String returns the stable letter symbol for the candidate
func (c Candidate) String() string {
	if c < 0 || c >= MaxCandidates {
		return fmt.Sprintf("Candidate(%d)", int(c))
	}
	return string(rune('A' + c))
}

// ParseCandidate converts a letter symbol back into a Candidate
func ParseCandidate(k int, symbol string) (Candidate, error) {
	symbol = strings.TrimSpace(symbol)
	if len(symbol) != 1 {
		return 0, fmt.Errorf("%w: bad candidate symbol %q", ErrInvalidRanking, symbol)
	}
	c := Candidate(strings.ToUpper(symbol)[0] - 'A')
	if c < 0 || int(c) >= k {
		return 0, fmt.Errorf("%w: candidate %q outside A-%s", ErrInvalidRanking, symbol, Candidate(k-1))
	}
	return c, nil
}

// Candidates returns all k candidates in canonical order
func Candidates(k int) []Candidate {
	out := make([]Candidate, k)
	for i := range out {
		out[i] = Candidate(i)
	}
	return out
}

// Ranking is a strict total order over all candidates, most preferred first.
type Ranking []Candidate

// NewRanking copies and validates the given order
func NewRanking(k int, order ...Candidate) (Ranking, error) {
	r := make(Ranking, len(order))
	copy(r, order)
	if err := r.Validate(k); err != nil {
		return nil, err
	}
	return r, nil
}

// ParseRanking reads a ranking written as "A>B>C>D>E"
func ParseRanking(k int, s string) (Ranking, error) {
	parts := strings.Split(s, ">")
	r := make(Ranking, 0, len(parts))
	for _, p := range parts {
		c, err := ParseCandidate(k, p)
		if err != nil {
			return nil, err
		}
		r = append(r, c)
	}
	if err := r.Validate(k); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate checks that r is a permutation of the k candidates
func (r Ranking) Validate(k int) error {
	if k < 1 || k > MaxCandidates {
		return fmt.Errorf("%w: candidate count %d out of range", ErrInvalidRanking, k)
	}
	if len(r) != k {
		return fmt.Errorf("%w: expected %d candidates, got %d", ErrInvalidRanking, k, len(r))
	}
	var seen [MaxCandidates]bool
	for _, c := range r {
		if c < 0 || int(c) >= k {
			return fmt.Errorf("%w: candidate index %d out of range", ErrInvalidRanking, int(c))
		}
		if seen[c] {
			return fmt.Errorf("%w: candidate %s appears twice", ErrInvalidRanking, c)
		}
		seen[c] = true
	}
	return nil
}

// Positions returns pos where pos[c] is the 0-based rank of candidate c
func (r Ranking) Positions() []int {
	pos := make([]int, len(r))
	for i, c := range r {
		pos[c] = i
	}
	return pos
}

// String renders the ranking as "A>B>C"
func (r Ranking) String() string {
	var b strings.Builder
	for i, c := range r {
		if i > 0 {
			b.WriteByte('>')
		}
		b.WriteString(c.String())
	}
	return b.String()
}
