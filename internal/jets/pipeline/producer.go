package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/jetreco/internal/jets/l1inputs"
	"github.com/banshee-data/jetreco/internal/jets/l2geometry"
	"github.com/banshee-data/jetreco/internal/jets/l3staging"
	"github.com/banshee-data/jetreco/internal/jets/l4pileup"
	"github.com/banshee-data/jetreco/internal/jets/l5clustering"
	"github.com/banshee-data/jetreco/internal/jets/l6jets"
	"github.com/banshee-data/jetreco/internal/monitoring"
)

// Producer reconstructs jets for one event at a time. A Producer holds no
// per-event state; the IndexCache it uses may be shared between producers.
type Producer struct {
	cfg Config

	engine     l5clustering.Engine
	stager     Stager
	estimator  PedestalEstimator
	subtractor PedestalSubtractor
	builder    *l6jets.Builder
	cache      *l2geometry.IndexCache
	metrics    *monitoring.Metrics

	writer l6jets.Writer
}

// Option customises a Producer.
type Option func(*Producer)

// WithEngine replaces the fastjet engine.
func WithEngine(e l5clustering.Engine) Option {
	return func(p *Producer) { p.engine = e }
}

// WithStager replaces the input stager.
func WithStager(s Stager) Option {
	return func(p *Producer) { p.stager = s }
}

// WithPedestalEstimator replaces the pedestal estimator.
func WithPedestalEstimator(e PedestalEstimator) Option {
	return func(p *Producer) { p.estimator = e }
}

// WithPedestalSubtractor replaces the pedestal subtractor.
func WithPedestalSubtractor(s PedestalSubtractor) Option {
	return func(p *Producer) { p.subtractor = s }
}

// WithWriter replaces the record writer of the configured jet type.
func WithWriter(w l6jets.Writer) Option {
	return func(p *Producer) { p.writer = w }
}

// WithIndexCache shares a geometry index cache.
func WithIndexCache(c *l2geometry.IndexCache) Option {
	return func(p *Producer) { p.cache = c }
}

// WithMetrics records per-event metrics.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(p *Producer) { p.metrics = m }
}

// NewProducer validates cfg and composes the producer.
func NewProducer(cfg Config, opts ...Option) (*Producer, error) {
	if cfg.R <= 0 {
		return nil, fmt.Errorf("jet radius must be positive, got %v", cfg.R)
	}
	if cfg.Stager.RestrictInputs && cfg.Stager.MaxInputs <= 0 {
		return nil, errors.New("restricted inputs need a positive maximum")
	}
	p := &Producer{
		cfg:        cfg,
		engine:     l5clustering.FastJet{},
		stager:     l3staging.NewStager(cfg.Stager),
		estimator:  l4pileup.Estimator{NormalizeByGeometry: cfg.NormalizeByGeometry, Radius: cfg.RadiusPU},
		subtractor: SubtractorFunc(l4pileup.SubtractPedestal),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.cache == nil {
		p.cache = l2geometry.NewIndexCache()
	}
	if p.writer != nil {
		p.builder = l6jets.NewBuilderWithWriter(cfg.JetType, p.writer)
	} else {
		b, err := l6jets.NewBuilder(cfg.JetType)
		if err != nil {
			return nil, err
		}
		p.builder = b
	}
	return p, nil
}

// Config returns the resolved configuration.
func (p *Producer) Config() Config { return p.cfg }

// Produce reconstructs the jets of ev. Products are handed to sink (which
// may be nil) only when every step succeeded.
func (p *Producer) Produce(ev Event, setup Setup, sink Sink) (products *Products, err error) {
	start := time.Now()
	defer func() { p.metrics.ObserveProduce(p.cfg.Instance, start, err) }()

	cands, ok := ev.Candidates(p.cfg.Src)
	if !ok {
		return nil, fmt.Errorf("%w: candidates %q in event %v", ErrMissingInput, p.cfg.Src, ev.ID())
	}
	var vertex *l1inputs.Point
	if p.cfg.Stager.DoPVCorrection {
		vertices, ok := ev.PrimaryVertices(p.cfg.SrcPVs)
		if !ok {
			return nil, fmt.Errorf("%w: vertices %q in event %v", ErrMissingInput, p.cfg.SrcPVs, ev.ID())
		}
		if len(vertices) == 0 {
			return nil, fmt.Errorf("%w: vertices %q in event %v is empty", ErrMissingInput, p.cfg.SrcPVs, ev.ID())
		}
		v := vertices[0]
		vertex = &v
	}

	correct := p.cfg.DoPUOffsetCorr
	var index *l2geometry.TowerIndex
	if correct {
		var snap l2geometry.Snapshot
		if setup != nil {
			snap = setup.Geometry()
		}
		index, err = p.cache.Index(snap)
		switch {
		case errors.Is(err, l2geometry.ErrNoGeometry):
			monitoring.Opsf("event %v: no geometry, pileup correction skipped", ev.ID())
			p.correctionSkipped("no_geometry")
			correct, index, err = false, nil, nil
		case err != nil:
			monitoring.Opsf("event %v: unreadable geometry, pileup correction skipped: %v", ev.ID(), err)
			p.correctionSkipped("bad_geometry")
			correct, index, err = false, nil, nil
		}
	}

	d := newDriver()
	staged, report := p.stager.Stage(cands, vertex, index)
	d.advance(StateStaged)
	p.observeStage(report)

	out := &Products{Event: ev.ID(), Instance: p.cfg.Instance, JetType: p.cfg.JetType, Stage: report}
	def := p.cfg.definition()

	if correct {
		first := def
		first.Area = false
		jets, err := p.cluster(staged, first)
		if err != nil {
			return nil, err
		}
		jets = aboveMinPt(jets, p.cfg.JetPtMin)
		d.advance(StateClusteredFirst)

		footprints := l5clustering.Footprints(jets)
		orphans := l4pileup.Orphans(staged, footprints, p.cfg.RadiusPU)
		d.advance(StateOrphansComputed)

		stats := p.estimator.Estimate(staged, orphans, index, footprints)
		d.advance(StatePedestalEstimated)

		subtracted, err := p.subtractor.Subtract(staged, stats, p.cfg.NSigmaPU)
		if err != nil {
			return nil, fmt.Errorf("pedestal subtraction: %w", err)
		}
		d.advance(StateSubtracted)

		out.Pedestal = stats
		out.DroppedBySubtraction = staged.Len() - subtracted.Len()
		if p.metrics != nil {
			p.metrics.InputsDropped.WithLabelValues(p.cfg.Instance).Add(float64(out.DroppedBySubtraction))
		}
		monitoring.Diagf("event %v: %d orphans of %d inputs, %d dropped by subtraction",
			ev.ID(), len(orphans), staged.Len(), out.DroppedBySubtraction)
		staged = subtracted
	}

	all, err := p.cluster(staged, def)
	if err != nil {
		return nil, err
	}
	d.advance(StateClusteredFinal)

	if p.cfg.DoRho {
		rho := l4pileup.EstimateRho(l5clustering.Footprints(all), p.cfg.RhoEtaMax)
		out.Rho = &rho
	}

	var pv *l1inputs.Point
	if p.cfg.Stager.DoPVCorrection {
		pv = vertex
	}
	final := aboveMinPt(all, p.cfg.JetPtMin)
	records, err := p.builder.Build(final, staged, cands, l6jets.BuildOptions{
		Area:            p.cfg.DoArea,
		Vertex:          pv,
		PileupCorrected: d.trace.Corrected(),
	})
	if err != nil {
		return nil, fmt.Errorf("build jets: %w", err)
	}
	out.Jets = records
	out.Trace = d.trace

	for i, r := range records {
		c := r.Common()
		monitoring.Tracef("event %v jet %d: pt=%.3f eta=%.3f phi=%.3f n=%d", ev.ID(), i, c.P4.Pt(), c.P4.Eta(), c.P4.Phi(), len(c.Constituents))
	}
	monitoring.Diagf("event %v: %d candidates, %d staged, %d jets (%v)",
		ev.ID(), report.Candidates, report.Staged, len(records), d.trace)

	if sink != nil {
		if err := sink.Put(p.cfg.Instance, out); err != nil {
			return nil, fmt.Errorf("put products: %w", err)
		}
	}
	if p.metrics != nil {
		p.metrics.JetsProduced.WithLabelValues(p.cfg.Instance, p.cfg.JetType.String()).Add(float64(len(records)))
	}
	return out, nil
}

func (p *Producer) cluster(staged *l3staging.StagedInput, def l5clustering.Definition) ([]l5clustering.Jet, error) {
	jets, err := p.engine.Cluster(staged.Momenta(), def)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrClustering, err)
	}
	if err := checkConstituents(jets, staged.Len()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrClustering, err)
	}
	return jets, nil
}

// checkConstituents rejects engine results that reference a staging
// position outside [0, n) or give one position to more than one jet.
func checkConstituents(jets []l5clustering.Jet, n int) error {
	owner := make([]int, n)
	for i := range owner {
		owner[i] = -1
	}
	for j, jet := range jets {
		for _, pos := range jet.Constituents {
			if pos < 0 || pos >= n {
				return fmt.Errorf("jet %d: constituent %d outside %d staged inputs", j, pos, n)
			}
			if owner[pos] >= 0 {
				return fmt.Errorf("jet %d: constituent %d already claimed by jet %d", j, pos, owner[pos])
			}
			owner[pos] = j
		}
	}
	return nil
}

func (p *Producer) observeStage(r l3staging.StageReport) {
	if p.metrics == nil {
		return
	}
	p.metrics.InputsStaged.WithLabelValues(p.cfg.Instance).Add(float64(r.Staged))
	for reason, n := range r.Rejected {
		p.metrics.CandidatesRejected.WithLabelValues(p.cfg.Instance, reason).Add(float64(n))
	}
}

func (p *Producer) correctionSkipped(reason string) {
	if p.metrics == nil {
		return
	}
	p.metrics.CorrectionSkipped.WithLabelValues(p.cfg.Instance, reason).Inc()
}

// aboveMinPt keeps jets with pt >= ptMin, preserving order.
func aboveMinPt(jets []l5clustering.Jet, ptMin float64) []l5clustering.Jet {
	out := make([]l5clustering.Jet, 0, len(jets))
	for _, j := range jets {
		if j.P4.Pt() >= ptMin {
			out = append(out, j)
		}
	}
	return out
}
