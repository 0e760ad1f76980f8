package main

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/banshee-data/jetreco/internal/jets/l4pileup"
	"github.com/banshee-data/jetreco/internal/jets/l6jets"
	"github.com/banshee-data/jetreco/internal/jets/pipeline"
)

// eventLine is one line of the --out JSON lines file.
type eventLine struct {
	Run      uint64          `json:"run"`
	Event    uint64          `json:"event"`
	Instance string          `json:"instance"`
	JetType  string          `json:"jet_type"`
	Trace    string          `json:"trace"`
	Rho      *l4pileup.Rho   `json:"rho,omitempty"`
	Dropped  int             `json:"dropped_by_subtraction"`
	Jets     []l6jets.Record `json:"jets"`
}

// jsonLinesSink writes one JSON object per event.
type jsonLinesSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func newJSONLinesSink(w io.Writer) *jsonLinesSink {
	return &jsonLinesSink{enc: json.NewEncoder(w)}
}

func (s *jsonLinesSink) Put(instance string, p *pipeline.Products) error {
	jets := p.Jets
	if jets == nil {
		jets = []l6jets.Record{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(eventLine{
		Run:      p.Event.Run,
		Event:    p.Event.Event,
		Instance: instance,
		JetType:  p.JetType.String(),
		Trace:    p.Trace.String(),
		Rho:      p.Rho,
		Dropped:  p.DroppedBySubtraction,
		Jets:     jets,
	})
}
