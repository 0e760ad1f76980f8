package l4pileup

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// lowerQuantile is the one-sigma quantile of a normal distribution.
const lowerQuantile = 0.1587

// Rho is the event energy density estimate.
type Rho struct {
	Rho   float64
	Sigma float64
	Jets  int // jets that entered the median
}

// EstimateRho returns the median pt/area of jets with |eta| < etaMax and
// positive area. Sigma is (median - 15.87% quantile)·sqrt(mean area).
// Without usable jets both are zero.
func EstimateRho(jets []Footprint, etaMax float64) Rho {
	densities := make([]float64, 0, len(jets))
	areaSum := 0.0
	for _, j := range jets {
		if j.Area <= 0 || math.Abs(j.Axis.Eta()) >= etaMax {
			continue
		}
		densities = append(densities, j.Axis.Pt()/j.Area)
		areaSum += j.Area
	}
	if len(densities) == 0 {
		return Rho{}
	}
	sort.Float64s(densities)
	median := stat.Quantile(0.5, stat.Empirical, densities, nil)
	low := stat.Quantile(lowerQuantile, stat.Empirical, densities, nil)
	meanArea := areaSum / float64(len(densities))
	return Rho{
		Rho:   median,
		Sigma: (median - low) * math.Sqrt(meanArea),
		Jets:  len(densities),
	}
}
