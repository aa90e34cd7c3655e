// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package preference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRanking(t *testing.T) {
	tests := []struct {
		name    string
		k       int
		input   string
		want    Ranking
		wantErr bool
	}{
		{"reference order", 5, "A>B>C>D>E", Ranking{0, 1, 2, 3, 4}, false},
		{"lower case and spaces", 3, "c > a > b", Ranking{2, 0, 1}, false},
		{"too short", 5, "A>B>C>D", nil, true},
		{"too long", 3, "A>B>C>D", nil, true},
		{"duplicate", 3, "A>A>B", nil, true},
		{"unknown symbol", 3, "A>B>Z", nil, true},
		{"not a letter", 3, "A>B>1", nil, true},
		{"empty", 3, "", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRanking(tt.k, tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRanking)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRankingStringRoundTrip(t *testing.T) {
	r, err := NewRanking(5, 4, 2, 0, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, "E>C>A>B>D", r.String())

	back, err := ParseRanking(5, r.String())
	require.NoError(t, err)
	assert.Equal(t, r, back)
}

func TestNewRankingCopiesInput(t *testing.T) {
	order := []Candidate{1, 0, 2}
	r, err := NewRanking(3, order...)
	require.NoError(t, err)
	order[0] = 2
	assert.Equal(t, Candidate(1), r[0])
}

func TestRankingPositions(t *testing.T) {
	r := Ranking{2, 0, 1}
	assert.Equal(t, []int{1, 2, 0}, r.Positions())
}

func TestCandidateString(t *testing.T) {
	assert.Equal(t, "A", Candidate(0).String())
	assert.Equal(t, "E", Candidate(4).String())
	assert.Equal(t, "Candidate(-1)", Candidate(-1).String())
}

func TestElectorateAppendRejectsInvalid(t *testing.T) {
	e := NewElectorate(3)
	require.NoError(t, e.Append(Ranking{0, 1, 2}))

	bad := []Ranking{
		{0, 1},
		{0, 1, 1},
		{0, 1, 3},
		{0, 1, 2, 3},
		nil,
	}
	for _, r := range bad {
		err := e.Append(r)
		assert.ErrorIs(t, err, ErrInvalidRanking, "ranking %v", []Candidate(r))
	}
	assert.Equal(t, 1, e.Len())
	assert.Equal(t, Ranking{0, 1, 2}, e.At(0))
}

func TestElectorateKeepsPrivateCopy(t *testing.T) {
	e := NewElectorate(3)
	r := Ranking{0, 1, 2}
	require.NoError(t, e.Append(r))
	r[0], r[1] = r[1], r[0]
	assert.Equal(t, Ranking{0, 1, 2}, e.At(0))
}

func TestSnapshotUnaffectedByLaterAppends(t *testing.T) {
	e := NewElectorate(3)
	require.NoError(t, e.Append(Ranking{0, 1, 2}))
	require.NoError(t, e.Append(Ranking{1, 2, 0}))

	snap := e.Snapshot()
	require.NoError(t, e.Append(Ranking{2, 0, 1}))

	assert.Equal(t, 2, snap.Len())
	assert.Equal(t, 3, e.Len())
	assert.Equal(t, Ranking{1, 2, 0}, snap.At(1))

	prefix := e.Snapshot().Prefix(2)
	assert.Equal(t, snap, prefix)
}

func TestElectorateOf(t *testing.T) {
	e, err := ElectorateOf(3, Ranking{0, 1, 2}, Ranking{2, 1, 0})
	require.NoError(t, err)
	assert.Equal(t, 2, e.Len())
	assert.Equal(t, 3, e.Candidates())

	_, err = ElectorateOf(3, Ranking{0, 1, 2}, Ranking{0, 0, 0})
	assert.ErrorIs(t, err, ErrInvalidRanking)
}

func TestSamplerDeterministic(t *testing.T) {
	s1, err := NewSampler(5, 123, 4)
	require.NoError(t, err)
	s2, err := NewSampler(5, 123, 4)
	require.NoError(t, err)
	s3, err := NewSampler(5, 123, 5)
	require.NoError(t, err)

	same := true
	for i := 0; i < 50; i++ {
		a, b, c := s1.Next(), s2.Next(), s3.Next()
		if !assert.Equal(t, a, b) {
			return
		}
		if a.String() != c.String() {
			same = false
		}
	}
	assert.False(t, same, "different streams should diverge")
}

func TestSamplerProducesValidRankings(t *testing.T) {
	s, err := NewSampler(5, 1, 1)
	require.NoError(t, err)

	seen := map[string]bool{}
	for i := 0; i < 5000; i++ {
		r := s.Next()
		require.NoError(t, r.Validate(5))
		seen[r.String()] = true
	}
	// 5000 draws over 120 orders miss one with negligible probability
	assert.Len(t, seen, 120)
}

func TestSamplerRejectsBadCount(t *testing.T) {
	_, err := NewSampler(0, 1, 1)
	assert.ErrorIs(t, err, ErrInvalidRanking)
	_, err = NewSampler(MaxCandidates+1, 1, 1)
	assert.ErrorIs(t, err, ErrInvalidRanking)
}
