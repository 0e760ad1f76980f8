package l1inputs

// CellID identifies a detector tower. The zero value means "no cell".
type CellID uint32

// ParticleKind is the particle-flow classification of a candidate.
type ParticleKind int

const (
	KindUnknown ParticleKind = iota
	KindChargedHadron
	KindElectron
	KindMuon
	KindPhoton
	KindNeutralHadron
	KindHFHadron
	KindHFEm
)

var kindNames = [...]string{"unknown", "h", "e", "mu", "gamma", "h0", "h_HF", "egamma_HF"}

func (k ParticleKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// KindFromPdgID maps a PDG id to the closest particle-flow classification.
func KindFromPdgID(pdgID int) ParticleKind {
	if pdgID < 0 {
		pdgID = -pdgID
	}
	switch pdgID {
	case 11:
		return KindElectron
	case 13:
		return KindMuon
	case 22, 111:
		return KindPhoton
	case 211, 321, 2212:
		return KindChargedHadron
	case 130, 310, 2112:
		return KindNeutralHadron
	}
	return KindUnknown
}

// CellQuality counts flagged channels of one calorimeter subsystem inside
// a tower.
type CellQuality struct {
	Bad         uint32
	Recovered   uint32
	Problematic uint32
}

// Tower carries the calorimeter-specific part of a candidate.
type Tower struct {
	Cell        CellID
	Position    Point // front face of the cell, used for vertex correction
	EmEnergy    float64
	HadEnergy   float64
	OuterEnergy float64
	Ecal        CellQuality
	Hcal        CellQuality
}

// Candidate is one clustering input read from the event. Only the fields
// relevant to its type are set: towers carry Tower, particle-flow
// candidates Kind and Charge, generator particles PdgID, tracks Charge and
// Vertex.
type Candidate struct {
	P4     FourMomentum
	Charge int
	PdgID  int
	Kind   ParticleKind
	Vertex Point
	Tower  *Tower
}

// Cell returns the candidate's detector cell, if it has one.
func (c *Candidate) Cell() (CellID, bool) {
	if c.Tower == nil || c.Tower.Cell == 0 {
		return 0, false
	}
	return c.Tower.Cell, true
}
