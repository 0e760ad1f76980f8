package l5clustering

import (
	"fmt"
	"math"
	"sort"

	"go-hep.org/x/hep/fastjet"

	"github.com/banshee-data/jetreco/internal/jets/l1inputs"
)

const (
	ghostPt   = 1e-100
	ghostInfo = -1
)

// MaxGhosts bounds the number of cells of the ghost grid. go-hep's cluster
// sequence runs the O(N³) N3Dumb strategy whatever strategy is requested.
const MaxGhosts = 2000

// GhostCount returns the number of cells of the ghost grid laid for area
// and etaMax.
func GhostCount(area, etaMax float64) int {
	if area <= 0 || etaMax <= 0 {
		return 0
	}
	side := math.Sqrt(area)
	return int(math.Ceil(2*etaMax/side)) * int(math.Ceil(2*math.Pi/side))
}

// FastJet runs go-hep's fastjet with the E recombination scheme and the
// N3Dumb strategy. Area is measured with explicit ghosts on a regular
// (eta, phi) grid, keeping only ghosts within R plus one cell of a real
// input. Anti-kt areas are exact; kt and Cambridge/Aachen areas are
// truncated at that window. Jets made only of ghosts are dropped.
type FastJet struct{}

var _ Engine = FastJet{}

func (FastJet) algorithm(a Algorithm) (fastjet.JetAlgorithm, error) {
	switch a {
	case AntiKt:
		return fastjet.AntiKtAlgorithm, nil
	case Kt:
		return fastjet.KtAlgorithm, nil
	case CambridgeAachen:
		return fastjet.CambridgeAlgorithm, nil
	}
	return 0, fmt.Errorf("%w: %v", ErrUnknownAlgorithm, a)
}

// Cluster implements Engine. Inputs with zero transverse momentum are not
// passed to the engine and so never become constituents.
func (e FastJet) Cluster(inputs []l1inputs.FourMomentum, def Definition) ([]Jet, error) {
	alg, err := e.algorithm(def.Algorithm)
	if err != nil {
		return nil, err
	}
	if def.R <= 0 {
		return nil, fmt.Errorf("jet radius must be positive, got %v", def.R)
	}

	particles := make([]fastjet.Jet, 0, len(inputs))
	for i, p := range inputs {
		if p.Pt() == 0 || !p.IsFinite() {
			continue
		}
		j := fastjet.NewJet(p.Px, p.Py, p.Pz, p.E)
		j.UserInfo = i
		particles = append(particles, j)
	}
	if len(particles) == 0 {
		return nil, nil
	}

	cellArea := 0.0
	if def.Area {
		var ghosts []fastjet.Jet
		ghosts, cellArea, err = ghostGrid(def.GhostArea, def.GhostEtaMax, def.R, inputs)
		if err != nil {
			return nil, err
		}
		particles = append(particles, ghosts...)
	}

	jdef := fastjet.NewJetDefinition(alg, def.R, fastjet.EScheme, fastjet.N3DumbStrategy)
	cs, err := fastjet.NewClusterSequence(particles, jdef)
	if err != nil {
		return nil, fmt.Errorf("cluster sequence: %w", err)
	}
	inclusive, err := cs.InclusiveJets(0)
	if err != nil {
		return nil, fmt.Errorf("inclusive jets: %w", err)
	}

	out := make([]Jet, 0, len(inclusive))
	for k := range inclusive {
		consts, err := cs.Constituents(&inclusive[k])
		if err != nil {
			return nil, fmt.Errorf("jet constituents: %w", err)
		}
		jet := Jet{}
		nGhosts := 0
		for _, c := range consts {
			idx, ok := c.UserInfo.(int)
			if !ok || idx == ghostInfo {
				nGhosts++
				continue
			}
			jet.Constituents = append(jet.Constituents, idx)
		}
		if len(jet.Constituents) == 0 {
			continue
		}
		sort.Ints(jet.Constituents)
		// Recombine real constituents only so ghosts never shift the axis.
		for _, idx := range jet.Constituents {
			jet.P4 = jet.P4.Add(inputs[idx])
		}
		if def.Area {
			jet.Area = float64(nGhosts) * cellArea
			jet.HasArea = true
		}
		out = append(out, jet)
	}

	sort.SliceStable(out, func(a, b int) bool { return out[a].P4.Pt() > out[b].P4.Pt() })
	return out, nil
}

// ghostGrid lays one ghost at the centre of every cell of an (eta, phi)
// grid whose cells have roughly the requested area, skipping cells farther
// than r plus one cell side from every clusterable input.
func ghostGrid(area, etaMax, r float64, inputs []l1inputs.FourMomentum) ([]fastjet.Jet, float64, error) {
	if area <= 0 || etaMax <= 0 {
		return nil, 0, fmt.Errorf("ghost area and ghost eta max must be positive, got %v and %v", area, etaMax)
	}
	if n := GhostCount(area, etaMax); n > MaxGhosts {
		return nil, 0, fmt.Errorf("ghost grid of %d cells exceeds %d", n, MaxGhosts)
	}
	side := math.Sqrt(area)
	nEta := int(math.Ceil(2 * etaMax / side))
	nPhi := int(math.Ceil(2 * math.Pi / side))
	dEta := 2 * etaMax / float64(nEta)
	dPhi := 2 * math.Pi / float64(nPhi)
	window := r + math.Max(dEta, dPhi)

	type axis struct{ eta, phi float64 }
	axes := make([]axis, 0, len(inputs))
	for _, p := range inputs {
		if p.Pt() == 0 || !p.IsFinite() {
			continue
		}
		axes = append(axes, axis{p.Eta(), p.Phi()})
	}
	near := func(eta, phi float64) bool {
		for _, a := range axes {
			if math.Abs(eta-a.eta) < window && l1inputs.DeltaR(eta, phi, a.eta, a.phi) < window {
				return true
			}
		}
		return false
	}

	var ghosts []fastjet.Jet
	for ie := 0; ie < nEta; ie++ {
		eta := -etaMax + (float64(ie)+0.5)*dEta
		for ip := 0; ip < nPhi; ip++ {
			phi := (float64(ip) + 0.5) * dPhi
			if !near(eta, phi) {
				continue
			}
			p := l1inputs.NewPtEtaPhiM(ghostPt, eta, phi, 0)
			g := fastjet.NewJet(p.Px, p.Py, p.Pz, p.E)
			g.UserInfo = ghostInfo
			ghosts = append(ghosts, g)
		}
	}
	return ghosts, dEta * dPhi, nil
}
