package source

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/banshee-data/jetreco/internal/jets/l1inputs"
	"github.com/banshee-data/jetreco/internal/jets/l2geometry"
	"github.com/banshee-data/jetreco/internal/jets/pipeline"
)

// jsonFile is the on-disk layout of an event file.
type jsonFile struct {
	Events []jsonEvent `json:"events"`
}

type jsonEvent struct {
	Run         uint64                     `json:"run"`
	Event       uint64                     `json:"event"`
	Collections map[string][]jsonCandidate `json:"collections"`
	Vertices    map[string][]jsonPoint     `json:"vertices,omitempty"`
}

type jsonPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type jsonQuality struct {
	Bad         uint32 `json:"bad,omitempty"`
	Recovered   uint32 `json:"recovered,omitempty"`
	Problematic uint32 `json:"problematic,omitempty"`
}

type jsonTower struct {
	Cell        uint32      `json:"cell,omitempty"`
	Ieta        int         `json:"ieta,omitempty"`
	Iphi        int         `json:"iphi,omitempty"`
	Position    *jsonPoint  `json:"position,omitempty"`
	EmEnergy    float64     `json:"em_energy,omitempty"`
	HadEnergy   float64     `json:"had_energy,omitempty"`
	OuterEnergy float64     `json:"outer_energy,omitempty"`
	Ecal        jsonQuality `json:"ecal"`
	Hcal        jsonQuality `json:"hcal"`
}

type jsonCandidate struct {
	Px     float64    `json:"px"`
	Py     float64    `json:"py"`
	Pz     float64    `json:"pz"`
	E      float64    `json:"e"`
	Charge int        `json:"charge,omitempty"`
	PdgID  int        `json:"pdg_id,omitempty"`
	Kind   string     `json:"kind,omitempty"`
	Vertex *jsonPoint `json:"vertex,omitempty"`
	Tower  *jsonTower `json:"tower,omitempty"`
}

func (p jsonPoint) point() l1inputs.Point { return l1inputs.Point{X: p.X, Y: p.Y, Z: p.Z} }

func fromPoint(p l1inputs.Point) jsonPoint { return jsonPoint{X: p.X, Y: p.Y, Z: p.Z} }

func parseKind(name string) (l1inputs.ParticleKind, error) {
	if name == "" {
		return l1inputs.KindUnknown, nil
	}
	for k := l1inputs.KindUnknown; k <= l1inputs.KindHFEm; k++ {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown particle kind %q", name)
}

func (c jsonCandidate) candidate() (l1inputs.Candidate, error) {
	kind, err := parseKind(c.Kind)
	if err != nil {
		return l1inputs.Candidate{}, err
	}
	out := l1inputs.Candidate{
		P4:     l1inputs.FourMomentum{Px: c.Px, Py: c.Py, Pz: c.Pz, E: c.E},
		Charge: c.Charge,
		PdgID:  c.PdgID,
		Kind:   kind,
	}
	if kind == l1inputs.KindUnknown && c.PdgID != 0 {
		out.Kind = l1inputs.KindFromPdgID(c.PdgID)
	}
	if c.Vertex != nil {
		out.Vertex = c.Vertex.point()
	}
	if t := c.Tower; t != nil {
		cell := l1inputs.CellID(t.Cell)
		if cell == 0 && t.Ieta != 0 {
			cell, err = l2geometry.PackCell(t.Ieta, t.Iphi)
			if err != nil {
				return l1inputs.Candidate{}, err
			}
		}
		out.Tower = &l1inputs.Tower{
			Cell:        cell,
			EmEnergy:    t.EmEnergy,
			HadEnergy:   t.HadEnergy,
			OuterEnergy: t.OuterEnergy,
			Ecal:        l1inputs.CellQuality(t.Ecal),
			Hcal:        l1inputs.CellQuality(t.Hcal),
		}
		if t.Position != nil {
			out.Tower.Position = t.Position.point()
		}
	}
	return out, nil
}

func fromCandidate(c l1inputs.Candidate) jsonCandidate {
	out := jsonCandidate{
		Px: c.P4.Px, Py: c.P4.Py, Pz: c.P4.Pz, E: c.P4.E,
		Charge: c.Charge,
		PdgID:  c.PdgID,
	}
	if c.Kind != l1inputs.KindUnknown {
		out.Kind = c.Kind.String()
	}
	if c.Vertex != (l1inputs.Point{}) {
		v := fromPoint(c.Vertex)
		out.Vertex = &v
	}
	if t := c.Tower; t != nil {
		out.Tower = &jsonTower{
			Cell:        uint32(t.Cell),
			EmEnergy:    t.EmEnergy,
			HadEnergy:   t.HadEnergy,
			OuterEnergy: t.OuterEnergy,
			Ecal:        jsonQuality(t.Ecal),
			Hcal:        jsonQuality(t.Hcal),
		}
		if t.Position != (l1inputs.Point{}) {
			p := fromPoint(t.Position)
			out.Tower.Position = &p
		}
	}
	return out
}

// ReadJSON decodes an event file.
func ReadJSON(r io.Reader) ([]*Memory, error) {
	var f jsonFile
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	out := make([]*Memory, 0, len(f.Events))
	for i, je := range f.Events {
		m := NewMemory(pipeline.EventID{Run: je.Run, Event: je.Event})
		for label, cands := range je.Collections {
			coll := make([]l1inputs.Candidate, len(cands))
			for k, jc := range cands {
				c, err := jc.candidate()
				if err != nil {
					return nil, fmt.Errorf("event %d collection %q candidate %d: %w", i, label, k, err)
				}
				coll[k] = c
			}
			m.Collections[label] = coll
		}
		for label, pts := range je.Vertices {
			vs := make([]l1inputs.Point, len(pts))
			for k, p := range pts {
				vs[k] = p.point()
			}
			m.Vertices[label] = vs
		}
		out = append(out, m)
	}
	return out, nil
}

// WriteJSON encodes events in the format read by ReadJSON.
func WriteJSON(w io.Writer, events []*Memory) error {
	f := jsonFile{Events: make([]jsonEvent, 0, len(events))}
	for _, m := range events {
		je := jsonEvent{
			Run:         m.EventID.Run,
			Event:       m.EventID.Event,
			Collections: make(map[string][]jsonCandidate, len(m.Collections)),
		}
		for label, cands := range m.Collections {
			coll := make([]jsonCandidate, len(cands))
			for k, c := range cands {
				coll[k] = fromCandidate(c)
			}
			je.Collections[label] = coll
		}
		if len(m.Vertices) > 0 {
			je.Vertices = make(map[string][]jsonPoint, len(m.Vertices))
			for label, vs := range m.Vertices {
				pts := make([]jsonPoint, len(vs))
				for k, v := range vs {
					pts[k] = fromPoint(v)
				}
				je.Vertices[label] = pts
			}
		}
		f.Events = append(f.Events, je)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(f)
}

// LoadJSON reads an event file from disk.
func LoadJSON(path string) ([]*Memory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open events: %w", err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// LoadGeometry reads a geometry snapshot written by WriteGeometry.
func LoadGeometry(path string) (*l2geometry.StaticSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read geometry: %w", err)
	}
	var snap l2geometry.StaticSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode geometry: %w", err)
	}
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("invalid geometry: %w", err)
	}
	return &snap, nil
}

// WriteGeometry encodes a snapshot as JSON.
func WriteGeometry(w io.Writer, snap *l2geometry.StaticSnapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}
