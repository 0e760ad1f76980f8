package l3staging

import (
	"sort"

	"github.com/banshee-data/jetreco/internal/jets/l1inputs"
	"github.com/banshee-data/jetreco/internal/jets/l2geometry"
)

// Rejection reasons reported by Stage, besides the anomaly reasons of
// l1inputs.AnomalyThresholds.
const (
	ReasonNonFinite  = "non_finite"
	ReasonEtMin      = "et_min"
	ReasonEMin       = "e_min"
	ReasonRestricted = "restricted"
)

// StagerConfig holds the input selection parameters.
type StagerConfig struct {
	InputEtMin     float64
	InputEMin      float64
	Anomaly        l1inputs.AnomalyThresholds
	DoPVCorrection bool
	RestrictInputs bool
	MaxInputs      int
}

// StageReport summarises one staging pass.
type StageReport struct {
	Candidates int
	Staged     int
	Rejected   map[string]int
}

// Stager builds the clustering input of an event.
type Stager struct {
	cfg StagerConfig
}

// NewStager returns a stager for cfg.
func NewStager(cfg StagerConfig) *Stager {
	return &Stager{cfg: cfg}
}

// Config returns the stager configuration.
func (s *Stager) Config() StagerConfig { return s.cfg }

// Stage selects and orders the clustering inputs. vertex is nil when no
// primary vertex is available; index is nil when no geometry is available,
// in which case every entry is placed in ring 0.
func (s *Stager) Stage(cands []l1inputs.Candidate, vertex *l1inputs.Point, index *l2geometry.TowerIndex) (*StagedInput, StageReport) {
	report := StageReport{Candidates: len(cands), Rejected: map[string]int{}}
	entries := make([]Entry, 0, len(cands))

	for i := range cands {
		c := &cands[i]
		if !c.P4.IsFinite() {
			report.Rejected[ReasonNonFinite]++
			continue
		}
		if c.P4.Et() < s.cfg.InputEtMin {
			report.Rejected[ReasonEtMin]++
			continue
		}
		if c.P4.E < s.cfg.InputEMin {
			report.Rejected[ReasonEMin]++
			continue
		}
		if reason := s.cfg.Anomaly.AnomalyReason(c); reason != "" {
			report.Rejected[reason]++
			continue
		}

		p4 := c.P4
		if s.cfg.DoPVCorrection && vertex != nil && c.Tower != nil && c.Tower.Position != (l1inputs.Point{}) {
			p4 = l1inputs.NewMassless(c.P4.E, c.Tower.Position.Sub(*vertex))
		}

		ring := 0
		if index != nil {
			located := *c
			located.P4 = p4
			ring = index.Locate(&located)
		}
		entries = append(entries, Entry{Source: i, Ring: ring, P4: p4})
	}

	if s.cfg.RestrictInputs && s.cfg.MaxInputs > 0 && len(entries) > s.cfg.MaxInputs {
		report.Rejected[ReasonRestricted] += len(entries) - s.cfg.MaxInputs
		entries = restrict(entries, s.cfg.MaxInputs)
	}
	report.Staged = len(entries)
	return NewStagedInput(entries), report
}

// restrict keeps the n entries of highest Et, ties broken by staging
// order, and returns them in staging order.
func restrict(entries []Entry, n int) []Entry {
	order := make([]int, len(entries))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return entries[order[a]].P4.Et() > entries[order[b]].P4.Et()
	})
	keep := order[:n]
	sort.Ints(keep)

	out := make([]Entry, n)
	for i, k := range keep {
		out[i] = entries[k]
	}
	return out
}
