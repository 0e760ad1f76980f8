package pipeline

import (
	"github.com/banshee-data/jetreco/internal/jets/l1inputs"
	"github.com/banshee-data/jetreco/internal/jets/l2geometry"
	"github.com/banshee-data/jetreco/internal/jets/l3staging"
	"github.com/banshee-data/jetreco/internal/jets/l4pileup"
)

// Stager builds the clustering input of an event.
type Stager interface {
	Stage(cands []l1inputs.Candidate, vertex *l1inputs.Point, index *l2geometry.TowerIndex) (*l3staging.StagedInput, l3staging.StageReport)
}

// PedestalEstimator computes ring statistics from the orphans of the
// first clustering pass.
type PedestalEstimator interface {
	Estimate(staged *l3staging.StagedInput, orphans []int, index *l2geometry.TowerIndex, jets []l4pileup.Footprint) *l4pileup.RingStatistics
}

// PedestalSubtractor applies ring statistics to a staged input.
type PedestalSubtractor interface {
	Subtract(staged *l3staging.StagedInput, stats *l4pileup.RingStatistics, nSigma float64) (*l3staging.StagedInput, error)
}

// SubtractorFunc adapts a function to PedestalSubtractor.
type SubtractorFunc func(staged *l3staging.StagedInput, stats *l4pileup.RingStatistics, nSigma float64) (*l3staging.StagedInput, error)

// Subtract calls f.
func (f SubtractorFunc) Subtract(staged *l3staging.StagedInput, stats *l4pileup.RingStatistics, nSigma float64) (*l3staging.StagedInput, error) {
	return f(staged, stats, nSigma)
}

var (
	_ Stager             = (*l3staging.Stager)(nil)
	_ PedestalEstimator  = l4pileup.Estimator{}
	_ PedestalSubtractor = SubtractorFunc(l4pileup.SubtractPedestal)
)
