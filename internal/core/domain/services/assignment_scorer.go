package services

import (
	"fmt"
	"math"

	"waterdist/internal/core/domain/model/distributor"
	"waterdist/internal/core/domain/model/kernel"
)

const (
	// DistanceWeight is the share of the composite score given to proximity.
	DistanceWeight = 0.6
	// WorkloadWeight is the share of the composite score given to free capacity.
	WorkloadWeight = 0.4
	// MaxScoredDistanceKm clamps the distance component; anything further scores 0 on distance.
	MaxScoredDistanceKm = 100.0
)

// Score is the outcome of scoring one candidate. An invalid score marks a
// candidate that cannot be ranked at all, e.g. because no route was found.
type Score struct {
	value float64
	valid bool
}

// ValidScore wraps a ranked score.
func ValidScore(value float64) Score {
	return Score{value: value, valid: true}
}

// InvalidScore marks an unrankable candidate.
func InvalidScore() Score {
	return Score{}
}

func (s Score) Value() float64 { return s.value }

func (s Score) Valid() bool { return s.valid }

// IsRankable reports whether the candidate may be selected: valid and above zero.
func (s Score) IsRankable() bool {
	return s.valid && s.value > 0
}

func (s Score) String() string {
	if !s.valid {
		return "invalid"
	}
	return fmt.Sprintf("%.2f", s.value)
}

// AssignmentScorer computes
//
//	0.6 * (100 - min(km, 100)) + 0.4 * ((max - current) / max * 100)
//
// for a distributor and its measured route to the order.
type AssignmentScorer struct{}

func NewAssignmentScorer() AssignmentScorer {
	return AssignmentScorer{}
}

// Score returns InvalidScore when route is nil, the distributor is not
// constructed, or it has no free capacity.
func (AssignmentScorer) Score(d *distributor.Distributor, route *kernel.Route) Score {
	if route == nil || route.Validate() != nil {
		return InvalidScore()
	}
	if d.Validate() != nil || d.MaxCapacity() <= 0 || d.CurrentCapacity() >= d.MaxCapacity() {
		return InvalidScore()
	}

	distanceScore := 100 - math.Min(route.Kilometers(), MaxScoredDistanceKm)
	free := float64(d.MaxCapacity() - d.CurrentCapacity())
	workloadScore := free / float64(d.MaxCapacity()) * 100

	return ValidScore(DistanceWeight*distanceScore + WorkloadWeight*workloadScore)
}
