package l6jets

import (
	"fmt"
	"math"

	"github.com/banshee-data/jetreco/internal/jets/l1inputs"
)

// Writer fills one record variant from the common fields and the jet's
// constituent candidates.
type Writer interface {
	Write(base Jet, constituents []*l1inputs.Candidate) Record
}

// WriterFunc adapts a function to Writer.
type WriterFunc func(base Jet, constituents []*l1inputs.Candidate) Record

// Write calls f.
func (f WriterFunc) Write(base Jet, constituents []*l1inputs.Candidate) Record {
	return f(base, constituents)
}

// WriterFor returns the writer of a jet type.
func WriterFor(t JetType) (Writer, error) {
	switch t {
	case BasicJetType:
		return WriterFunc(writeBasic), nil
	case GenJetType:
		return WriterFunc(writeGen), nil
	case CaloJetType:
		return WriterFunc(writeCalo), nil
	case PFJetType:
		return WriterFunc(writePF), nil
	case TrackJetType:
		return WriterFunc(writeTrack), nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownJetType, t)
}

func writeBasic(base Jet, _ []*l1inputs.Candidate) Record {
	return &BasicJet{Jet: base}
}

func writeGen(base Jet, constituents []*l1inputs.Candidate) Record {
	r := &GenJet{Jet: base}
	for _, c := range constituents {
		e := c.P4.E
		switch abs(c.PdgID) {
		case 11, 22:
			r.EmEnergy += e
		case 12, 14, 16, 1000022, 1000012, 1000014, 1000016, 2000012, 2000014, 2000016:
			r.InvisibleEnergy += e
		case 13:
			r.AuxEnergy += e
		default:
			r.HadEnergy += e
		}
	}
	return r
}

func writeCalo(base Jet, constituents []*l1inputs.Candidate) Record {
	r := &CaloJet{Jet: base}
	for _, c := range constituents {
		t := c.Tower
		if t == nil {
			continue
		}
		r.Towers++
		r.EmEnergy += t.EmEnergy
		r.HadEnergy += t.HadEnergy
		r.OuterEnergy += t.OuterEnergy
		r.MaxEInEmTowers = math.Max(r.MaxEInEmTowers, t.EmEnergy)
		r.MaxEInHadTowers = math.Max(r.MaxEInHadTowers, t.HadEnergy)
	}
	if total := r.EmEnergy + r.HadEnergy; total > 0 {
		r.EmFraction = r.EmEnergy / total
	}
	return r
}

func writePF(base Jet, constituents []*l1inputs.Candidate) Record {
	r := &PFJet{Jet: base}
	for _, c := range constituents {
		e := c.P4.E
		switch c.Kind {
		case l1inputs.KindChargedHadron:
			r.ChargedHadronEnergy += e
			r.ChargedMultiplicity++
		case l1inputs.KindElectron:
			r.ElectronEnergy += e
			r.ChargedMultiplicity++
		case l1inputs.KindMuon:
			r.MuonEnergy += e
			r.ChargedMultiplicity++
		case l1inputs.KindPhoton:
			r.PhotonEnergy += e
			r.NeutralMultiplicity++
		case l1inputs.KindNeutralHadron:
			r.NeutralHadronEnergy += e
			r.NeutralMultiplicity++
		case l1inputs.KindHFHadron:
			r.HFHadronEnergy += e
			r.NeutralMultiplicity++
		case l1inputs.KindHFEm:
			r.HFEmEnergy += e
			r.NeutralMultiplicity++
		}
	}
	return r
}

func writeTrack(base Jet, constituents []*l1inputs.Candidate) Record {
	r := &TrackJet{Jet: base}
	for _, c := range constituents {
		r.Charge += c.Charge
		r.Tracks++
	}
	return r
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
