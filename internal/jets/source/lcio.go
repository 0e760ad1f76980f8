package source

import (
	"fmt"
	"math"

	"go-hep.org/x/hep/lcio"

	"github.com/banshee-data/jetreco/internal/jets/l1inputs"
	"github.com/banshee-data/jetreco/internal/jets/pipeline"
)

// LCIO maps collections of an LCIO file to producer labels:
// RecParticle collections become particle-flow candidates, McParticle
// collections become generator candidates (final-state particles only)
// and Cluster collections become calorimeter deposits without a cell id.
// LCIO files carry no vertex collection the producer understands, so
// vertex correction is not available for them.
type LCIO struct {
	// Collections maps producer label to LCIO collection name.
	Collections map[string]string
}

// Read reads every event of an LCIO file.
func (l LCIO) Read(path string) ([]*Memory, error) {
	r, err := lcio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open lcio: %w", err)
	}
	defer r.Close()

	var out []*Memory
	for r.Next() {
		evt := r.Event()
		m := NewMemory(pipeline.EventID{Run: uint64(evt.RunNumber), Event: uint64(evt.EventNumber)})
		for label, name := range l.Collections {
			if !evt.Has(name) {
				continue
			}
			cands, err := convertCollection(evt.Get(name))
			if err != nil {
				return nil, fmt.Errorf("event %d collection %q: %w", evt.EventNumber, name, err)
			}
			m.Collections[label] = cands
		}
		out = append(out, m)
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("read lcio: %w", err)
	}
	return out, nil
}

func convertCollection(coll interface{}) ([]l1inputs.Candidate, error) {
	switch c := coll.(type) {
	case *lcio.RecParticleContainer:
		out := make([]l1inputs.Candidate, 0, len(c.Parts))
		for _, p := range c.Parts {
			out = append(out, l1inputs.Candidate{
				P4:     l1inputs.FourMomentum{Px: float64(p.P[0]), Py: float64(p.P[1]), Pz: float64(p.P[2]), E: float64(p.Energy)},
				Charge: int(math.Round(float64(p.Charge))),
				PdgID:  int(p.Type),
				Kind:   l1inputs.KindFromPdgID(int(p.Type)),
			})
		}
		return out, nil
	case *lcio.McParticleContainer:
		out := make([]l1inputs.Candidate, 0, len(c.Particles))
		for _, p := range c.Particles {
			if p.GenStatus != 1 {
				continue
			}
			px, py, pz := p.P[0], p.P[1], p.P[2]
			e := math.Sqrt(px*px + py*py + pz*pz + p.Mass*p.Mass)
			out = append(out, l1inputs.Candidate{
				P4:     l1inputs.FourMomentum{Px: px, Py: py, Pz: pz, E: e},
				Charge: int(math.Round(float64(p.Charge))),
				PdgID:  int(p.PDG),
			})
		}
		return out, nil
	case *lcio.ClusterContainer:
		out := make([]l1inputs.Candidate, 0, len(c.Clusters))
		for _, cl := range c.Clusters {
			pos := l1inputs.Point{X: float64(cl.Pos[0]), Y: float64(cl.Pos[1]), Z: float64(cl.Pos[2])}
			e := float64(cl.Energy)
			out = append(out, l1inputs.Candidate{
				P4:    l1inputs.NewMassless(e, pos),
				Tower: &l1inputs.Tower{Position: pos, EmEnergy: e},
			})
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported collection type %T", coll)
}
