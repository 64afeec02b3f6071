package services

import (
	"errors"

	"waterdist/internal/core/domain/model/distributor"
)

// ErrNoDistributorAvailable is returned when no candidate has a rankable score.
var ErrNoDistributorAvailable = errors.New("no distributor available")

// Candidate is a distributor paired with its score for one order.
type Candidate struct {
	Distributor *distributor.Distributor
	Score       Score
}

// DistributorSelector picks the winning candidate.
//
// Candidates with an invalid or non-positive score are skipped. The highest
// score wins; on a tie the earlier candidate in the slice keeps the slot, so
// callers control tie-breaking through the order they pass candidates in.
type DistributorSelector struct{}

func NewDistributorSelector() DistributorSelector {
	return DistributorSelector{}
}

func (DistributorSelector) Select(candidates []Candidate) (Candidate, error) {
	var (
		best  Candidate
		found bool
	)

	for _, c := range candidates {
		if c.Distributor == nil || !c.Score.IsRankable() {
			continue
		}
		if !found || c.Score.Value() > best.Score.Value() {
			best = c
			found = true
		}
	}

	if !found {
		return Candidate{}, ErrNoDistributorAvailable
	}
	return best, nil
}
