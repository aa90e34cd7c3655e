// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"time"

	"github.com/danielhkuo/uvpd/preference"
	"github.com/danielhkuo/uvpd/rules"
)

// Outcome is one rule's result for one step.
type Outcome struct {
	Winner preference.Candidate
	Found  bool
	Err    error
}

// Symbol returns the winner's letter, or "" when there is none
func (o Outcome) Symbol() string {
	if !o.Found || o.Err != nil {
		return ""
	}
	return o.Winner.String()
}

func outcomeOf(res rules.Result, err error) Outcome {
	if err != nil {
		return Outcome{Err: err}
	}
	return Outcome{Winner: res.Winner, Found: res.Found}
}

// WinnerRecord is emitted after every step of a run.
type WinnerRecord struct {
	RunID   int
	Step    int                // voters accumulated so far
	Ranking preference.Ranking // ranking appended at this step
	At      time.Time          // set by the Simulator; zero for ad hoc evaluation

	Plurality Outcome
	Borda     Outcome
	Condorcet Outcome
	IRV       Outcome
}

// Outcomes returns the four outcomes keyed by rule name
func (r WinnerRecord) Outcomes() map[string]Outcome {
	return map[string]Outcome{
		rules.NamePlurality: r.Plurality,
		rules.NameBorda:     r.Borda,
		rules.NameCondorcet: r.Condorcet,
		rules.NameIRV:       r.IRV,
	}
}

// Winners returns the winner symbols in rule order (plurality, borda,
// condorcet, irv); "" marks no winner.
func (r WinnerRecord) Winners() [4]string {
	return [4]string{r.Plurality.Symbol(), r.Borda.Symbol(), r.Condorcet.Symbol(), r.IRV.Symbol()}
}
