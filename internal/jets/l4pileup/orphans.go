package l4pileup

import (
	"github.com/banshee-data/jetreco/internal/jets/l1inputs"
	"github.com/banshee-data/jetreco/internal/jets/l3staging"
)

// Footprint is the part of a clustered jet the pileup layer needs.
// Constituents are staging positions.
type Footprint struct {
	Axis         l1inputs.FourMomentum
	Constituents []int
	Area         float64
}

// Orphans returns, in ascending order, the staging positions claimed by no
// jet. With radius > 0 an input within ΔR < radius of a jet axis also
// counts as claimed. Constituent positions outside the staged input are
// ignored.
func Orphans(staged *l3staging.StagedInput, jets []Footprint, radius float64) []int {
	claimed := make([]bool, staged.Len())
	for _, j := range jets {
		for _, pos := range j.Constituents {
			if pos >= 0 && pos < len(claimed) {
				claimed[pos] = true
			}
		}
	}
	if radius > 0 {
		for i, e := range staged.Entries() {
			if claimed[i] {
				continue
			}
			claimed[i] = nearAnyAxis(e.P4.Eta(), e.P4.Phi(), jets, radius)
		}
	}

	out := make([]int, 0, len(claimed))
	for i, c := range claimed {
		if !c {
			out = append(out, i)
		}
	}
	return out
}

func nearAnyAxis(eta, phi float64, jets []Footprint, radius float64) bool {
	for _, j := range jets {
		if l1inputs.DeltaR(eta, phi, j.Axis.Eta(), j.Axis.Phi()) < radius {
			return true
		}
	}
	return false
}
