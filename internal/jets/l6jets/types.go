package l6jets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/banshee-data/jetreco/internal/jets/l1inputs"
)

// ErrUnknownJetType is returned for jet type names outside the closed set.
var ErrUnknownJetType = errors.New("unknown jet type")

// JetType selects the output record variant.
type JetType int

const (
	BasicJetType JetType = iota
	GenJetType
	CaloJetType
	PFJetType
	TrackJetType
)

var jetTypeNames = [...]string{"BasicJet", "GenJet", "CaloJet", "PFJet", "TrackJet"}

func (t JetType) String() string {
	if t < 0 || int(t) >= len(jetTypeNames) {
		return fmt.Sprintf("JetType(%d)", int(t))
	}
	return jetTypeNames[t]
}

// ParseJetType resolves a jet type name, case-insensitively.
func ParseJetType(name string) (JetType, error) {
	for i, n := range jetTypeNames {
		if strings.EqualFold(strings.TrimSpace(name), n) {
			return JetType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownJetType, name)
}

// Ref is the index of a constituent in the event's candidate sequence.
type Ref int

// Jet holds the fields common to every record variant.
type Jet struct {
	P4           l1inputs.FourMomentum `json:"p4"`
	Vertex       l1inputs.Point        `json:"vertex"`
	Area         float64               `json:"area"`
	HasArea      bool                  `json:"has_area"`
	PileupEnergy float64               `json:"pileup_energy"`
	Constituents []Ref                 `json:"constituents"`
}

// Record is one output jet. The implementations are BasicJet, GenJet,
// CaloJet, PFJet and TrackJet.
type Record interface {
	Type() JetType
	Common() *Jet
	isRecord()
}

// BasicJet carries only the common fields.
type BasicJet struct {
	Jet
}

// GenJet sums generator-level constituents by category.
type GenJet struct {
	Jet
	EmEnergy        float64 `json:"em_energy"`
	HadEnergy       float64 `json:"had_energy"`
	InvisibleEnergy float64 `json:"invisible_energy"`
	AuxEnergy       float64 `json:"aux_energy"`
}

// CaloJet sums calorimeter tower energies.
type CaloJet struct {
	Jet
	EmEnergy        float64 `json:"em_energy"`
	HadEnergy       float64 `json:"had_energy"`
	OuterEnergy     float64 `json:"outer_energy"`
	EmFraction      float64 `json:"em_fraction"`
	MaxEInEmTowers  float64 `json:"max_e_in_em_towers"`
	MaxEInHadTowers float64 `json:"max_e_in_had_towers"`
	Towers          int     `json:"towers"`
}

// PFJet sums particle-flow constituents by particle kind.
type PFJet struct {
	Jet
	ChargedHadronEnergy float64 `json:"charged_hadron_energy"`
	NeutralHadronEnergy float64 `json:"neutral_hadron_energy"`
	PhotonEnergy        float64 `json:"photon_energy"`
	ElectronEnergy      float64 `json:"electron_energy"`
	MuonEnergy          float64 `json:"muon_energy"`
	HFHadronEnergy      float64 `json:"hf_hadron_energy"`
	HFEmEnergy          float64 `json:"hf_em_energy"`
	ChargedMultiplicity int     `json:"charged_multiplicity"`
	NeutralMultiplicity int     `json:"neutral_multiplicity"`
}

// TrackJet sums track charges.
type TrackJet struct {
	Jet
	Charge int `json:"charge"`
	Tracks int `json:"tracks"`
}

func (*BasicJet) Type() JetType { return BasicJetType }
func (*GenJet) Type() JetType   { return GenJetType }
func (*CaloJet) Type() JetType  { return CaloJetType }
func (*PFJet) Type() JetType    { return PFJetType }
func (*TrackJet) Type() JetType { return TrackJetType }

func (r *BasicJet) Common() *Jet { return &r.Jet }
func (r *GenJet) Common() *Jet   { return &r.Jet }
func (r *CaloJet) Common() *Jet  { return &r.Jet }
func (r *PFJet) Common() *Jet    { return &r.Jet }
func (r *TrackJet) Common() *Jet { return &r.Jet }

func (*BasicJet) isRecord() {}
func (*GenJet) isRecord()   {}
func (*CaloJet) isRecord()  {}
func (*PFJet) isRecord()    {}
func (*TrackJet) isRecord() {}
