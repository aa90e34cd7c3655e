// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rules

import (
	"errors"

	"github.com/danielhkuo/uvpd/preference"
)

var (
	ErrEmptyElectorate = errors.New("empty electorate")
	ErrDefect          = errors.New("rule defect")
)

// Rule names, also used as persisted column and JSON keys
const (
	NamePlurality = "plurality"
	NameBorda     = "borda"
	NameCondorcet = "condorcet"
	NameIRV       = "irv"
)

// Ballots is the read-only view of an electorate the rules work on.
// *preference.Electorate and preference.Snapshot both satisfy it.
type Ballots interface {
	Candidates() int
	Len() int
	At(i int) preference.Ranking
}

// Rule maps an electorate to a winner.
type Rule interface {
	Name() string
	Evaluate(b Ballots) (Result, error)
}

// Result is the outcome of one rule plus the data it was decided on.
type Result struct {
	Rule   string
	Winner preference.Candidate
	Found  bool
	Tie    bool

	Counts   []int   // first-place counts (plurality), final-round tallies (irv)
	Scores   []int   // borda
	Pairwise [][]int // condorcet: Pairwise[a][b] voters ranking a above b

	Rounds     []Round                // irv
	Eliminated []preference.Candidate // irv, in elimination order
}

// Round is one IRV tally over the candidates still active.
type Round struct {
	Active  []preference.Candidate
	Tallies []int // indexed by candidate; inactive candidates are 0
}

// All returns the four rules in reporting order
func All() []Rule {
	return []Rule{Plurality{}, Borda{}, Condorcet{}, IRV{}}
}

func checkBallots(b Ballots) error {
	if b == nil || b.Len() == 0 {
		return ErrEmptyElectorate
	}
	return nil
}
