package pipeline

import (
	"errors"
	"fmt"

	"github.com/banshee-data/jetreco/internal/jets/l1inputs"
	"github.com/banshee-data/jetreco/internal/jets/l2geometry"
	"github.com/banshee-data/jetreco/internal/jets/l3staging"
	"github.com/banshee-data/jetreco/internal/jets/l4pileup"
	"github.com/banshee-data/jetreco/internal/jets/l6jets"
)

var (
	// ErrMissingInput is returned when the candidate or vertex collection
	// named in the configuration is absent from the event, or when vertex
	// correction is on and the vertex collection is empty.
	ErrMissingInput = errors.New("missing event input")
	// ErrClustering wraps failures of the clustering engine and results
	// that reference unknown or shared staging positions.
	ErrClustering = errors.New("clustering failed")
)

// EventID identifies an event within a run.
type EventID struct {
	Run   uint64 `json:"run"`
	Event uint64 `json:"event"`
}

func (id EventID) String() string {
	return fmt.Sprintf("%d:%d", id.Run, id.Event)
}

// Event is the per-event data store.
type Event interface {
	ID() EventID
	// Candidates returns the collection stored under label; ok is false
	// when no such collection exists.
	Candidates(label string) (cands []l1inputs.Candidate, ok bool)
	// PrimaryVertices returns the vertex collection stored under label,
	// best vertex first.
	PrimaryVertices(label string) (vertices []l1inputs.Point, ok bool)
}

// Setup exposes the conditions valid for an event.
type Setup interface {
	// Geometry returns the detector geometry, or nil when none is available.
	Geometry() l2geometry.Snapshot
}

// Sink receives the products of a successful event.
type Sink interface {
	Put(instance string, p *Products) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(instance string, p *Products) error

// Put calls f.
func (f SinkFunc) Put(instance string, p *Products) error { return f(instance, p) }

// Products is everything the producer publishes for one event.
type Products struct {
	Event    EventID
	Instance string
	JetType  l6jets.JetType
	Jets     []l6jets.Record

	// Rho is set when rho estimation is enabled.
	Rho *l4pileup.Rho
	// Pedestal is set when the offset correction ran.
	Pedestal *l4pileup.RingStatistics

	Stage                l3staging.StageReport
	DroppedBySubtraction int
	Trace                Trace
}
