package l2geometry

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/banshee-data/jetreco/internal/jets/l1inputs"
)

// ErrNoGeometry is returned when an event has no geometry snapshot. Pileup
// correction is skipped for such events.
var ErrNoGeometry = errors.New("geometry snapshot unavailable")

// CellID aliases the L1 cell identifier.
type CellID = l1inputs.CellID

// Snapshot is the geometry service as seen by one event. Identity changes
// whenever the underlying geometry changes; two snapshots with the same
// identity describe the same detector.
type Snapshot interface {
	Identity() uint64
	Cells() []CellID
	Coordinates(id CellID) (ieta, iphi int, ok bool)
	Position(id CellID) (eta, phi float64, ok bool)
}

const (
	cellTag    = 1 << 20
	zsideBit   = 1 << 13
	ietaShift  = 7
	ietaMask   = 0x3f
	iphiMask   = 0x7f
	fullPhiSeg = 72
)

// PackCell encodes a tower coordinate into a CellID. |ieta| must be in
// [1, 63] and iphi in [1, 127].
func PackCell(ieta, iphi int) (CellID, error) {
	abs := ieta
	if abs < 0 {
		abs = -abs
	}
	if abs < 1 || abs > ietaMask || iphi < 1 || iphi > iphiMask {
		return 0, fmt.Errorf("tower coordinate out of range: ieta=%d iphi=%d", ieta, iphi)
	}
	id := uint32(cellTag) | uint32(abs)<<ietaShift | uint32(iphi)
	if ieta > 0 {
		id |= zsideBit
	}
	return CellID(id), nil
}

// UnpackCell decodes a CellID built by PackCell.
func UnpackCell(id CellID) (ieta, iphi int, ok bool) {
	v := uint32(id)
	if v&cellTag == 0 {
		return 0, 0, false
	}
	abs := int((v >> ietaShift) & ietaMask)
	iphi = int(v & iphiMask)
	if abs == 0 || iphi == 0 {
		return 0, 0, false
	}
	if v&zsideBit == 0 {
		return -abs, iphi, true
	}
	return abs, iphi, true
}

// CellRecord is one tower of a StaticSnapshot.
type CellRecord struct {
	ID   CellID  `json:"id"`
	Ieta int     `json:"ieta"`
	Iphi int     `json:"iphi"`
	Eta  float64 `json:"eta"`
	Phi  float64 `json:"phi"`
}

// StaticSnapshot is an in-memory Snapshot, also the JSON form of a
// geometry file.
type StaticSnapshot struct {
	ID      uint64       `json:"identity"`
	Records []CellRecord `json:"cells"`

	byID map[CellID]int
}

// NewStaticSnapshot builds a snapshot over records. Duplicate ids are an error.
func NewStaticSnapshot(identity uint64, records []CellRecord) (*StaticSnapshot, error) {
	s := &StaticSnapshot{ID: identity, Records: records}
	if err := s.reindex(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *StaticSnapshot) reindex() error {
	s.byID = make(map[CellID]int, len(s.Records))
	for i, r := range s.Records {
		if _, dup := s.byID[r.ID]; dup {
			return fmt.Errorf("duplicate cell id %d in geometry", r.ID)
		}
		s.byID[r.ID] = i
	}
	return nil
}

// Validate rebuilds the id lookup after JSON decoding.
func (s *StaticSnapshot) Validate() error {
	return s.reindex()
}

// Identity implements Snapshot.
func (s *StaticSnapshot) Identity() uint64 { return s.ID }

// Cells implements Snapshot. The order is the record order.
func (s *StaticSnapshot) Cells() []CellID {
	ids := make([]CellID, len(s.Records))
	for i, r := range s.Records {
		ids[i] = r.ID
	}
	return ids
}

func (s *StaticSnapshot) lookup(id CellID) (CellRecord, bool) {
	if s.byID == nil {
		if err := s.reindex(); err != nil {
			return CellRecord{}, false
		}
	}
	i, ok := s.byID[id]
	if !ok {
		return CellRecord{}, false
	}
	return s.Records[i], true
}

// Coordinates implements Snapshot.
func (s *StaticSnapshot) Coordinates(id CellID) (int, int, bool) {
	r, ok := s.lookup(id)
	return r.Ieta, r.Iphi, ok
}

// Position implements Snapshot.
func (s *StaticSnapshot) Position(id CellID) (float64, float64, bool) {
	r, ok := s.lookup(id)
	return r.Eta, r.Phi, ok
}

// CMSTowerEtaEdges are the upper |eta| edges of the 41 HCAL tower rings.
var CMSTowerEtaEdges = []float64{
	0.087, 0.174, 0.261, 0.348, 0.435, 0.522, 0.609, 0.696, 0.783, 0.870,
	0.957, 1.044, 1.131, 1.218, 1.305, 1.392, 1.479, 1.566, 1.653, 1.740,
	1.830, 1.930, 2.043, 2.172, 2.322, 2.500, 2.650, 2.853, 3.000,
	3.139, 3.314, 3.489, 3.664, 3.839, 4.013, 4.191, 4.363, 4.538, 4.716, 4.889, 5.191,
}

// CMSPhiSegments returns the number of towers in ring |ieta| of the CMS
// layout: 72 in the barrel, 36 beyond ring 20, 18 in the last two rings.
func CMSPhiSegments(absIeta int) int {
	switch {
	case absIeta <= 20:
		return 72
	case absIeta <= 39:
		return 36
	default:
		return 18
	}
}

// NewTowerGrid builds a symmetric tower snapshot. etaEdges are the upper
// |eta| edges of rings 1..n in increasing order; phiSegments(|ieta|) must
// divide 72.
func NewTowerGrid(identity uint64, etaEdges []float64, phiSegments func(absIeta int) int) (*StaticSnapshot, error) {
	if len(etaEdges) == 0 {
		return nil, errors.New("tower grid needs at least one eta ring")
	}
	if !sort.Float64sAreSorted(etaEdges) {
		return nil, errors.New("tower grid eta edges must be increasing")
	}
	var records []CellRecord
	lower := 0.0
	for i, upper := range etaEdges {
		ring := i + 1
		segs := phiSegments(ring)
		if segs <= 0 || fullPhiSeg%segs != 0 {
			return nil, fmt.Errorf("ring %d: %d phi segments do not divide %d", ring, segs, fullPhiSeg)
		}
		step := fullPhiSeg / segs
		eta := 0.5 * (lower + upper)
		for _, side := range []int{-1, 1} {
			for k := 0; k < segs; k++ {
				iphi := 1 + k*step
				id, err := PackCell(side*ring, iphi)
				if err != nil {
					return nil, err
				}
				phi := (float64(iphi-1) + 0.5*float64(step)) * 2 * math.Pi / fullPhiSeg
				if phi > math.Pi {
					phi -= 2 * math.Pi
				}
				records = append(records, CellRecord{
					ID:   id,
					Ieta: side * ring,
					Iphi: iphi,
					Eta:  float64(side) * eta,
					Phi:  phi,
				})
			}
		}
		lower = upper
	}
	return NewStaticSnapshot(identity, records)
}

// NewCMSTowerGrid builds the 41-ring CMS HCAL tower layout.
func NewCMSTowerGrid(identity uint64) *StaticSnapshot {
	s, err := NewTowerGrid(identity, CMSTowerEtaEdges, CMSPhiSegments)
	if err != nil {
		panic(err) // static layout
	}
	return s
}
