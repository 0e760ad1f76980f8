package l2geometry

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/banshee-data/jetreco/internal/jets/l1inputs"
)

// Cell is one tower of a TowerIndex with its coordinates and position.
type Cell struct {
	ID   CellID
	Ieta int
	Iphi int
	Eta  float64
	Phi  float64
}

// ring aggregates the towers of one ieta ring.
type ring struct {
	ieta    int
	towers  int
	etaSum  float64
	centreE float64
}

// TowerIndex maps cell ids to tower coordinates. It is read-only after
// BuildTowerIndex returns and may be shared across events.
type TowerIndex struct {
	identity uint64

	IetaMin int
	IetaMax int

	coords map[CellID]int
	cells  []Cell
	rings  map[int]*ring
	// byEta lists rings ordered by centre eta for nearest-ring lookup.
	byEta []*ring
}

// BuildTowerIndex enumerates every cell of snap.
func BuildTowerIndex(snap Snapshot) (*TowerIndex, error) {
	if snap == nil {
		return nil, ErrNoGeometry
	}
	ids := snap.Cells()
	if len(ids) == 0 {
		return nil, errors.New("geometry snapshot has no cells")
	}
	ix := &TowerIndex{
		identity: snap.Identity(),
		IetaMin:  math.MaxInt,
		IetaMax:  math.MinInt,
		coords:   make(map[CellID]int, len(ids)),
		cells:    make([]Cell, 0, len(ids)),
		rings:    make(map[int]*ring),
	}
	for _, id := range ids {
		ieta, iphi, ok := snap.Coordinates(id)
		if !ok {
			return nil, fmt.Errorf("cell %d listed without coordinates", id)
		}
		eta, phi, ok := snap.Position(id)
		if !ok {
			return nil, fmt.Errorf("cell %d listed without position", id)
		}
		if _, dup := ix.coords[id]; dup {
			continue
		}
		ix.coords[id] = len(ix.cells)
		ix.cells = append(ix.cells, Cell{ID: id, Ieta: ieta, Iphi: iphi, Eta: eta, Phi: phi})
		ix.IetaMin = min(ix.IetaMin, ieta)
		ix.IetaMax = max(ix.IetaMax, ieta)

		r := ix.rings[ieta]
		if r == nil {
			r = &ring{ieta: ieta}
			ix.rings[ieta] = r
		}
		r.towers++
		r.etaSum += eta
	}
	ix.byEta = make([]*ring, 0, len(ix.rings))
	for _, r := range ix.rings {
		r.centreE = r.etaSum / float64(r.towers)
		ix.byEta = append(ix.byEta, r)
	}
	sort.Slice(ix.byEta, func(i, j int) bool {
		if ix.byEta[i].centreE != ix.byEta[j].centreE {
			return ix.byEta[i].centreE < ix.byEta[j].centreE
		}
		return ix.byEta[i].ieta < ix.byEta[j].ieta
	})
	return ix, nil
}

// Identity returns the identity of the snapshot the index was built from.
func (ix *TowerIndex) Identity() uint64 { return ix.identity }

// Len returns the number of cells.
func (ix *TowerIndex) Len() int { return len(ix.cells) }

// Coordinates returns the ring and phi index of a cell.
func (ix *TowerIndex) Coordinates(id CellID) (ieta, iphi int, ok bool) {
	i, ok := ix.coords[id]
	if !ok {
		return 0, 0, false
	}
	return ix.cells[i].Ieta, ix.cells[i].Iphi, true
}

// Cells returns every indexed cell. The slice must not be modified.
func (ix *TowerIndex) Cells() []Cell { return ix.cells }

// Rings returns the ieta values present, ascending.
func (ix *TowerIndex) Rings() []int {
	out := make([]int, 0, len(ix.rings))
	for ieta := range ix.rings {
		out = append(out, ieta)
	}
	sort.Ints(out)
	return out
}

// TowersInRing returns the geometric tower count of ring ieta.
func (ix *TowerIndex) TowersInRing(ieta int) int {
	if r := ix.rings[ieta]; r != nil {
		return r.towers
	}
	return 0
}

// RingEta returns the mean eta of the towers of ring ieta.
func (ix *TowerIndex) RingEta(ieta int) (float64, bool) {
	r := ix.rings[ieta]
	if r == nil {
		return 0, false
	}
	return r.centreE, true
}

// RingForEta returns the ring whose centre eta is nearest to eta.
func (ix *TowerIndex) RingForEta(eta float64) int {
	n := len(ix.byEta)
	if n == 0 {
		return 0
	}
	i := sort.Search(n, func(i int) bool { return ix.byEta[i].centreE >= eta })
	switch {
	case i == 0:
		return ix.byEta[0].ieta
	case i == n:
		return ix.byEta[n-1].ieta
	}
	lo, hi := ix.byEta[i-1], ix.byEta[i]
	if eta-lo.centreE <= hi.centreE-eta {
		return lo.ieta
	}
	return hi.ieta
}

// Locate returns the ring of a candidate: the ring of its cell when the
// cell is indexed, otherwise the ring nearest to its eta.
func (ix *TowerIndex) Locate(c *l1inputs.Candidate) int {
	if id, ok := c.Cell(); ok {
		if ieta, _, ok := ix.Coordinates(id); ok {
			return ieta
		}
	}
	return ix.RingForEta(c.P4.Eta())
}
