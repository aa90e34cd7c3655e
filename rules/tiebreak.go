// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rules

import "github.com/danielhkuo/uvpd/preference"

// Earliest returns the group member that comes first in canonical order.
// The group must be non-empty.
func Earliest(group []preference.Candidate) preference.Candidate {
	best := group[0]
	for _, c := range group[1:] {
		if c < best {
			best = c
		}
	}
	return best
}

// Latest returns the group member with the lowest tie-break priority
func Latest(group []preference.Candidate) preference.Candidate {
	worst := group[0]
	for _, c := range group[1:] {
		if c > worst {
			worst = c
		}
	}
	return worst
}

// maxGroup returns the candidates in include sharing the highest value
func maxGroup(values []int, include func(preference.Candidate) bool) []preference.Candidate {
	return extremeGroup(values, include, func(a, b int) bool { return a > b })
}

// minGroup returns the candidates in include sharing the lowest value
func minGroup(values []int, include func(preference.Candidate) bool) []preference.Candidate {
	return extremeGroup(values, include, func(a, b int) bool { return a < b })
}

func extremeGroup(values []int, include func(preference.Candidate) bool, better func(a, b int) bool) []preference.Candidate {
	var group []preference.Candidate
	for i, v := range values {
		c := preference.Candidate(i)
		if include != nil && !include(c) {
			continue
		}
		switch {
		case len(group) == 0 || better(v, values[group[0]]):
			group = append(group[:0], c)
		case v == values[group[0]]:
			group = append(group, c)
		}
	}
	return group
}
