package l4pileup

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/jetreco/internal/jets/l2geometry"
	"github.com/banshee-data/jetreco/internal/jets/l3staging"
)

// RingStats is the pedestal of one ieta ring. Count is the number of
// orphan inputs in the ring; Towers is the denominator used for the mean
// (Count, or the unclaimed geometric tower count when normalising by
// geometry).
type RingStats struct {
	Ieta   int
	Count  int
	Towers int
	SumE   float64
	SumE2  float64
	Mean   float64
	Sigma  float64
}

// RingStatistics maps every ring in [IetaMin, IetaMax] to its pedestal.
type RingStatistics struct {
	IetaMin int
	IetaMax int
	rings   map[int]RingStats
}

var _ l3staging.Pedestal = (*RingStatistics)(nil)

// Ring returns the mean and sigma of ring ieta; rings outside the range
// or without orphans give zero.
func (r *RingStatistics) Ring(ieta int) (mean, sigma float64) {
	s := r.rings[ieta]
	return s.Mean, s.Sigma
}

// Stats returns the full statistics of ring ieta.
func (r *RingStatistics) Stats(ieta int) (RingStats, bool) {
	s, ok := r.rings[ieta]
	return s, ok
}

// All returns the statistics of every ring, ieta ascending.
func (r *RingStatistics) All() []RingStats {
	out := make([]RingStats, 0, len(r.rings))
	for ieta := r.IetaMin; ieta <= r.IetaMax; ieta++ {
		if s, ok := r.rings[ieta]; ok {
			out = append(out, s)
		}
	}
	return out
}

func newRingStatistics(ietaMin, ietaMax int) *RingStatistics {
	r := &RingStatistics{IetaMin: ietaMin, IetaMax: ietaMax, rings: make(map[int]RingStats)}
	for ieta := ietaMin; ieta <= ietaMax; ieta++ {
		r.rings[ieta] = RingStats{Ieta: ieta}
	}
	return r
}

// EstimatePedestal computes the per-ring mean and population standard
// deviation of orphan energies. Sums are accumulated in staging order.
// Rings with no orphans get mean 0 and sigma 0.
func EstimatePedestal(staged *l3staging.StagedInput, orphans []int, ietaMin, ietaMax int) *RingStatistics {
	out := newRingStatistics(ietaMin, ietaMax)
	energies := make(map[int][]float64)
	for _, pos := range orphans {
		e := staged.Entry(pos)
		s, ok := out.rings[e.Ring]
		if !ok {
			continue
		}
		s.Count++
		s.SumE += e.P4.E
		s.SumE2 += e.P4.E * e.P4.E
		out.rings[e.Ring] = s
		energies[e.Ring] = append(energies[e.Ring], e.P4.E)
	}
	for ieta, s := range out.rings {
		if s.Count == 0 {
			continue
		}
		mean, variance := stat.PopMeanVariance(energies[ieta], nil)
		s.Towers = s.Count
		s.Mean = mean
		s.Sigma = math.Sqrt(math.Max(variance, 0))
		out.rings[ieta] = s
	}
	return out
}

// Estimator computes ring pedestals, optionally normalising each ring by
// its geometric tower count instead of the orphan count. Towers within
// Radius of a jet axis are removed from the geometric count; towers that
// produced no input count as empty.
type Estimator struct {
	NormalizeByGeometry bool
	Radius              float64
}

// Estimate returns the ring statistics for one pass. index must be non-nil.
func (e Estimator) Estimate(staged *l3staging.StagedInput, orphans []int, index *l2geometry.TowerIndex, jets []Footprint) *RingStatistics {
	out := EstimatePedestal(staged, orphans, index.IetaMin, index.IetaMax)
	if !e.NormalizeByGeometry {
		return out
	}

	free := make(map[int]int)
	for _, c := range index.Cells() {
		if e.Radius > 0 && nearAnyAxis(c.Eta, c.Phi, jets, e.Radius) {
			continue
		}
		free[c.Ieta]++
	}
	for ieta, s := range out.rings {
		s.Towers = free[ieta]
		s.Mean, s.Sigma = 0, 0
		if s.Towers > 0 {
			n := float64(s.Towers)
			s.Mean = s.SumE / n
			s.Sigma = math.Sqrt(math.Max(s.SumE2/n-s.Mean*s.Mean, 0))
		}
		out.rings[ieta] = s
	}
	return out
}

// SubtractPedestal applies stats to staged. staged is consumed.
func SubtractPedestal(staged *l3staging.StagedInput, stats *RingStatistics, nSigma float64) (*l3staging.StagedInput, error) {
	return staged.Subtract(stats, nSigma)
}
