// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package preference

import (
	"fmt"
	"math/rand/v2"
)

// Sampler draws uniformly random rankings over k candidates.
// A Sampler is not safe for concurrent use; give each run its own.
type Sampler struct {
	k   int
	rng *rand.Rand
}

// NewSampler returns a sampler seeded with (seed, stream). Two samplers with
// the same arguments produce identical sequences.
func NewSampler(k int, seed, stream uint64) (*Sampler, error) {
	if k < 1 || k > MaxCandidates {
		return nil, fmt.Errorf("%w: candidate count %d out of range", ErrInvalidRanking, k)
	}
	return &Sampler{k: k, rng: rand.New(rand.NewPCG(seed, stream))}, nil
}

// Next returns a fresh uniformly random permutation of the candidates
func (s *Sampler) Next() Ranking {
	r := make(Ranking, s.k)
	for i := range r {
		r[i] = Candidate(i)
	}
	// Fisher-Yates: every one of the k! orders is equally likely
	s.rng.Shuffle(len(r), func(i, j int) {
		r[i], r[j] = r[j], r[i]
	})
	return r
}
