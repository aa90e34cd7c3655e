// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package analysis

import (
	"fmt"
	"io"
	"sort"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/uvpd/engine"
	"github.com/danielhkuo/uvpd/rules"
)

// StepRate is the Condorcet rate at one electorate size.
type StepRate struct {
	Step int     `json:"step"`
	Runs int     `json:"runs"`
	Rate float64 `json:"rate"`
}

// Summary holds the aggregate statistics of a set of runs.
type Summary struct {
	Runs    int `json:"runs"`
	Records int `json:"records"`

	CondorcetRateByStep []StepRate `json:"condorcet_rate_by_step"`

	AgreeAny float64 `json:"agree_any"`
	AgreeAll float64 `json:"agree_all"`

	Changes     int     `json:"changes"`
	Transitions int     `json:"transitions"`
	Volatility  float64 `json:"volatility"`

	// rule name -> winner letter -> runs; "none" counts runs without a winner
	FinalWinners map[string]map[string]int `json:"final_winners"`
}

// NoWinner keys runs whose last step had no winner in FinalWinners.
const NoWinner = "none"

var ruleNames = [4]string{rules.NamePlurality, rules.NameBorda, rules.NameCondorcet, rules.NameIRV}

// Summarize computes a Summary. Records may arrive in any order and from
// any number of runs.
func Summarize(records []engine.WinnerRecord) Summary {
	runs := groupRuns(records)

	s := Summary{
		Runs:         len(runs),
		Records:      len(records),
		FinalWinners: map[string]map[string]int{},
	}
	for _, name := range ruleNames {
		s.FinalWinners[name] = map[string]int{}
	}

	var condorcet, totals []int
	var agreeAny, agreeAll int

	for _, run := range runs {
		var prev [4]string
		for i, rec := range run {
			w := rec.Winners()

			idx := rec.Step - 1
			for len(totals) <= idx {
				totals = append(totals, 0)
				condorcet = append(condorcet, 0)
			}
			totals[idx]++
			if w[2] != "" {
				condorcet[idx]++
			}

			anyPair, all := agreement(w)
			if anyPair {
				agreeAny++
			}
			if all {
				agreeAll++
			}

			if i > 0 {
				s.Transitions++
				if w != prev {
					s.Changes++
				}
			}
			prev = w
		}

		if len(run) > 0 {
			last := run[len(run)-1].Winners()
			for i, name := range ruleNames {
				key := last[i]
				if key == "" {
					key = NoWinner
				}
				s.FinalWinners[name][key]++
			}
		}
	}

	for i, total := range totals {
		if total == 0 {
			continue
		}
		s.CondorcetRateByStep = append(s.CondorcetRateByStep, StepRate{
			Step: i + 1,
			Runs: total,
			Rate: float64(condorcet[i]) / float64(total),
		})
	}
	if s.Records > 0 {
		s.AgreeAny = float64(agreeAny) / float64(s.Records)
		s.AgreeAll = float64(agreeAll) / float64(s.Records)
	}
	if s.Transitions > 0 {
		s.Volatility = float64(s.Changes) / float64(s.Transitions)
	}
	return s
}

// groupRuns splits records by run ID, each run ordered by step
func groupRuns(records []engine.WinnerRecord) [][]engine.WinnerRecord {
	byRun := map[int][]engine.WinnerRecord{}
	var ids []int
	for _, rec := range records {
		if _, ok := byRun[rec.RunID]; !ok {
			ids = append(ids, rec.RunID)
		}
		byRun[rec.RunID] = append(byRun[rec.RunID], rec)
	}
	sort.Ints(ids)

	out := make([][]engine.WinnerRecord, 0, len(ids))
	for _, id := range ids {
		run := byRun[id]
		sort.Slice(run, func(i, j int) bool { return run[i].Step < run[j].Step })
		out = append(out, run)
	}
	return out
}

// agreement reports whether two winners coincide, and whether all present
// winners are the same with at least two of them present
func agreement(w [4]string) (anyPair, all bool) {
	seen := map[string]int{}
	present := 0
	for _, s := range w {
		if s == "" {
			continue
		}
		present++
		seen[s]++
		if seen[s] == 2 {
			anyPair = true
		}
	}
	all = present >= 2 && len(seen) == 1
	return anyPair, all
}

// RateAt returns the Condorcet rate at step, or false if no run reached it
func (s Summary) RateAt(step int) (float64, bool) {
	for _, r := range s.CondorcetRateByStep {
		if r.Step == step {
			return r.Rate, true
		}
	}
	return 0, false
}

// Report writes a plain-text rendition of s.
func (s Summary) Report(w io.Writer) error {
	p := &printer{w: w}
	p.printf("runs:        %s\n", humanize.Comma(int64(s.Runs)))
	p.printf("records:     %s\n", humanize.Comma(int64(s.Records)))
	p.printf("agree any:   %s\n", percent(s.AgreeAny))
	p.printf("agree all:   %s\n", percent(s.AgreeAll))
	p.printf("volatility:  %s (%s changes over %s transitions)\n",
		percent(s.Volatility), humanize.Comma(int64(s.Changes)), humanize.Comma(int64(s.Transitions)))

	if len(s.CondorcetRateByStep) > 0 {
		p.printf("condorcet rate:\n")
		for _, r := range sampleSteps(s.CondorcetRateByStep) {
			p.printf("  step %-6d %s of %s runs\n", r.Step, percent(r.Rate), humanize.Comma(int64(r.Runs)))
		}
	}

	p.printf("final winners:\n")
	for _, name := range ruleNames {
		counts := s.FinalWinners[name]
		keys := make([]string, 0, len(counts))
		for k := range counts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		p.printf("  %-10s", name)
		for _, k := range keys {
			p.printf(" %s=%s", k, humanize.Comma(int64(counts[k])))
		}
		p.printf("\n")
	}
	return p.err
}

// sampleSteps keeps the first step, the last step and about ten in between
func sampleSteps(rates []StepRate) []StepRate {
	if len(rates) <= 12 {
		return rates
	}
	stride := len(rates) / 10
	var out []StepRate
	for i := 0; i < len(rates); i += stride {
		out = append(out, rates[i])
	}
	if out[len(out)-1].Step != rates[len(rates)-1].Step {
		out = append(out, rates[len(rates)-1])
	}
	return out
}

func percent(f float64) string {
	return humanize.FormatFloat("#,###.##", f*100) + "%"
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
