package source

import (
	"github.com/banshee-data/jetreco/internal/jets/l1inputs"
	"github.com/banshee-data/jetreco/internal/jets/l2geometry"
	"github.com/banshee-data/jetreco/internal/jets/pipeline"
)

// Memory is an event held in memory.
type Memory struct {
	EventID     pipeline.EventID
	Collections map[string][]l1inputs.Candidate
	Vertices    map[string][]l1inputs.Point
}

var _ pipeline.Event = (*Memory)(nil)

// NewMemory returns an empty event.
func NewMemory(id pipeline.EventID) *Memory {
	return &Memory{
		EventID:     id,
		Collections: make(map[string][]l1inputs.Candidate),
		Vertices:    make(map[string][]l1inputs.Point),
	}
}

// ID implements pipeline.Event.
func (m *Memory) ID() pipeline.EventID { return m.EventID }

// Candidates implements pipeline.Event.
func (m *Memory) Candidates(label string) ([]l1inputs.Candidate, bool) {
	c, ok := m.Collections[label]
	return c, ok
}

// PrimaryVertices implements pipeline.Event.
func (m *Memory) PrimaryVertices(label string) ([]l1inputs.Point, bool) {
	v, ok := m.Vertices[label]
	return v, ok
}

// StaticSetup serves one geometry snapshot to every event.
type StaticSetup struct {
	Snapshot l2geometry.Snapshot
}

var _ pipeline.Setup = StaticSetup{}

// Geometry implements pipeline.Setup.
func (s StaticSetup) Geometry() l2geometry.Snapshot { return s.Snapshot }
