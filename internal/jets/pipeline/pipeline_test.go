package pipeline

import (
	"errors"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/jetreco/internal/config"
	"github.com/banshee-data/jetreco/internal/jets/l1inputs"
	"github.com/banshee-data/jetreco/internal/jets/l2geometry"
	"github.com/banshee-data/jetreco/internal/jets/l3staging"
	"github.com/banshee-data/jetreco/internal/jets/l4pileup"
	"github.com/banshee-data/jetreco/internal/jets/l5clustering"
	"github.com/banshee-data/jetreco/internal/jets/l6jets"
	"github.com/banshee-data/jetreco/internal/monitoring"
)

type fakeEvent struct {
	id       EventID
	cands    map[string][]l1inputs.Candidate
	vertices map[string][]l1inputs.Point
}

func (e *fakeEvent) ID() EventID { return e.id }

func (e *fakeEvent) Candidates(label string) ([]l1inputs.Candidate, bool) {
	c, ok := e.cands[label]
	return c, ok
}

func (e *fakeEvent) PrimaryVertices(label string) ([]l1inputs.Point, bool) {
	v, ok := e.vertices[label]
	return v, ok
}

type fakeSetup struct{ snap l2geometry.Snapshot }

func (s fakeSetup) Geometry() l2geometry.Snapshot { return s.snap }

// scriptedEngine returns one scripted response per call and records inputs.
type scriptedEngine struct {
	responses [][]l5clustering.Jet
	err       error
	inputs    [][]l1inputs.FourMomentum
	defs      []l5clustering.Definition
}

func (e *scriptedEngine) Cluster(inputs []l1inputs.FourMomentum, def l5clustering.Definition) ([]l5clustering.Jet, error) {
	e.inputs = append(e.inputs, inputs)
	e.defs = append(e.defs, def)
	if e.err != nil {
		return nil, e.err
	}
	i := len(e.inputs) - 1
	if i >= len(e.responses) {
		return nil, nil
	}
	return e.responses[i], nil
}

type recordingSink struct {
	calls    int
	instance string
	last     *Products
	err      error
}

func (s *recordingSink) Put(instance string, p *Products) error {
	s.calls++
	s.instance = instance
	s.last = p
	return s.err
}

const noLimit = 9999999

func testConfig() Config {
	return Config{
		Src:       "towerMaker",
		SrcPVs:    "offlinePrimaryVertices",
		JetType:   l6jets.CaloJetType,
		Algorithm: l5clustering.AntiKt,
		R:         0.5,
		JetPtMin:  0.1,
		Stager: l3staging.StagerConfig{
			InputEtMin: 0.3,
			Anomaly: l1inputs.AnomalyThresholds{
				MaxBadEcalCells: noLimit, MaxRecoveredEcalCells: noLimit, MaxProblematicEcalCells: noLimit,
				MaxBadHcalCells: noLimit, MaxRecoveredHcalCells: noLimit, MaxProblematicHcalCells: noLimit,
			},
		},
		RhoEtaMax:   4.4,
		GhostArea:   0.1,
		GhostEtaMax: 2,
		NSigmaPU:    0.5,
		Instance:    "test",
	}
}

func tower(t *testing.T, snap *l2geometry.StaticSnapshot, ieta, iphi int, e float64) l1inputs.Candidate {
	t.Helper()
	id, err := l2geometry.PackCell(ieta, iphi)
	require.NoError(t, err)
	eta, phi, ok := snap.Position(id)
	require.True(t, ok)
	return l1inputs.Candidate{
		P4:    l1inputs.NewPtEtaPhiE(e/math.Cosh(eta), eta, phi, e),
		Tower: &l1inputs.Tower{Cell: id, EmEnergy: e / 2, HadEnergy: e / 2},
	}
}

func towerEvent(t *testing.T, snap *l2geometry.StaticSnapshot) *fakeEvent {
	return &fakeEvent{
		id: EventID{Run: 1, Event: 42},
		cands: map[string][]l1inputs.Candidate{"towerMaker": {
			tower(t, snap, 1, 1, 20),
			tower(t, snap, 1, 2, 10),
			tower(t, snap, 2, 30, 1),
			tower(t, snap, 2, 40, 3),
			tower(t, snap, -3, 50, 0.1), // below input_et_min
		}},
		vertices: map[string][]l1inputs.Point{"offlinePrimaryVertices": {{Z: 2}, {Z: -5}}},
	}
}

func TestProduceUncorrectedPreservesEngineOrder(t *testing.T) {
	snap := l2geometry.NewCMSTowerGrid(1)
	engine := &scriptedEngine{responses: [][]l5clustering.Jet{{
		{P4: l1inputs.NewPtEtaPhiE(25, 0, 0, 25), Constituents: []int{0, 1}},
		{P4: l1inputs.NewPtEtaPhiE(3, 0.1, 2, 3), Constituents: []int{3}},
		{P4: l1inputs.NewPtEtaPhiE(0.05, 0.1, 2, 0.05), Constituents: []int{2}},
	}}}
	p, err := NewProducer(testConfig(), WithEngine(engine))
	require.NoError(t, err)

	sink := &recordingSink{}
	out, err := p.Produce(towerEvent(t, snap), fakeSetup{snap}, sink)
	require.NoError(t, err)

	require.Len(t, out.Jets, 2)
	assert.Equal(t, []l6jets.Ref{0, 1}, out.Jets[0].Common().Constituents)
	assert.Equal(t, []l6jets.Ref{3}, out.Jets[1].Common().Constituents)
	assert.Equal(t, Trace{StateInit, StateStaged, StateClusteredFinal}, out.Trace)
	assert.False(t, out.Trace.Corrected())
	assert.Nil(t, out.Pedestal)
	assert.Nil(t, out.Rho)
	assert.Equal(t, 4, out.Stage.Staged)
	assert.Equal(t, 1, out.Stage.Rejected[l3staging.ReasonEtMin])

	require.Len(t, engine.inputs, 1)
	assert.Len(t, engine.inputs[0], 4)
	assert.False(t, engine.defs[0].Area)

	assert.Equal(t, 1, sink.calls)
	assert.Equal(t, "test", sink.instance)
	assert.Same(t, out, sink.last)
	assert.Equal(t, EventID{Run: 1, Event: 42}, out.Event)

	calo, ok := out.Jets[0].(*l6jets.CaloJet)
	require.True(t, ok)
	assert.InDelta(t, 15, calo.EmEnergy, 1e-12)
}

func TestProduceCorrected(t *testing.T) {
	snap := l2geometry.NewCMSTowerGrid(1)
	cfg := testConfig()
	cfg.DoPUOffsetCorr = true
	engine := &scriptedEngine{responses: [][]l5clustering.Jet{
		{{P4: l1inputs.NewPtEtaPhiE(30, 0, 0, 30), Constituents: []int{0, 1}}},
		{
			{P4: l1inputs.NewPtEtaPhiE(30, 0, 0, 30), Constituents: []int{0, 1}},
			{P4: l1inputs.NewPtEtaPhiE(0.5, 0.1, 2, 0.5), Constituents: []int{2}},
		},
	}}
	p, err := NewProducer(cfg, WithEngine(engine))
	require.NoError(t, err)

	sink := &recordingSink{}
	out, err := p.Produce(towerEvent(t, snap), fakeSetup{snap}, sink)
	require.NoError(t, err)

	assert.Equal(t, Trace{
		StateInit, StateStaged, StateClusteredFirst, StateOrphansComputed,
		StatePedestalEstimated, StateSubtracted, StateClusteredFinal,
	}, out.Trace)
	assert.True(t, out.Trace.Corrected())

	// Orphans are the two ring-2 towers (E 1 and 3): mean 2, sigma 1.
	require.NotNil(t, out.Pedestal)
	mean, sigma := out.Pedestal.Ring(2)
	assert.InDelta(t, 2, mean, 1e-9)
	assert.InDelta(t, 1, sigma, 1e-9)
	mean, sigma = out.Pedestal.Ring(1)
	assert.Zero(t, mean)
	assert.Zero(t, sigma)

	// Offset 2.5 removes the E=1 tower and leaves 0.5 of the E=3 tower.
	assert.Equal(t, 1, out.DroppedBySubtraction)
	require.Len(t, engine.inputs, 2)
	require.Len(t, engine.inputs[1], 3)
	assert.InDelta(t, 0.5, engine.inputs[1][2].E, 1e-9)

	require.Len(t, out.Jets, 2)
	assert.Equal(t, []l6jets.Ref{3}, out.Jets[1].Common().Constituents)
	assert.InDelta(t, 2.5, out.Jets[1].Common().PileupEnergy, 1e-9)
	assert.Zero(t, out.Jets[0].Common().PileupEnergy)
	assert.Equal(t, 1, sink.calls)
}

func TestProduceWithoutGeometrySkipsCorrection(t *testing.T) {
	snap := l2geometry.NewCMSTowerGrid(1)
	cfg := testConfig()
	cfg.DoPUOffsetCorr = true
	engine := &scriptedEngine{responses: [][]l5clustering.Jet{{
		{P4: l1inputs.NewPtEtaPhiE(30, 0, 0, 30), Constituents: []int{0, 1}},
	}}}
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	p, err := NewProducer(cfg, WithEngine(engine), WithMetrics(metrics))
	require.NoError(t, err)

	out, err := p.Produce(towerEvent(t, snap), fakeSetup{}, nil)
	require.NoError(t, err)
	assert.Equal(t, Trace{StateInit, StateStaged, StateClusteredFinal}, out.Trace)
	assert.Len(t, engine.inputs, 1)
	assert.Len(t, out.Jets, 1)
	assert.Zero(t, out.Jets[0].Common().PileupEnergy)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CorrectionSkipped.WithLabelValues("test", "no_geometry")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EventsTotal.WithLabelValues("test", "ok")))
	assert.Equal(t, 4.0, testutil.ToFloat64(metrics.InputsStaged.WithLabelValues("test")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.JetsProduced.WithLabelValues("test", "CaloJet")))
}

// cellessSnapshot is a geometry that lists no cells.
type cellessSnapshot struct{}

func (cellessSnapshot) Identity() uint64                                    { return 9 }
func (cellessSnapshot) Cells() []l2geometry.CellID                          { return nil }
func (cellessSnapshot) Coordinates(l2geometry.CellID) (int, int, bool)      { return 0, 0, false }
func (cellessSnapshot) Position(l2geometry.CellID) (float64, float64, bool) { return 0, 0, false }

func TestProduceWithUnreadableGeometrySkipsCorrection(t *testing.T) {
	snap := l2geometry.NewCMSTowerGrid(1)
	cfg := testConfig()
	cfg.DoPUOffsetCorr = true
	engine := &scriptedEngine{responses: [][]l5clustering.Jet{{
		{P4: l1inputs.NewPtEtaPhiE(30, 0, 0, 30), Constituents: []int{0, 1}},
	}}}
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	p, err := NewProducer(cfg, WithEngine(engine), WithMetrics(metrics))
	require.NoError(t, err)

	sink := &recordingSink{}
	out, err := p.Produce(towerEvent(t, snap), fakeSetup{cellessSnapshot{}}, sink)
	require.NoError(t, err)
	assert.Equal(t, Trace{StateInit, StateStaged, StateClusteredFinal}, out.Trace)
	assert.Nil(t, out.Pedestal)
	assert.Len(t, out.Jets, 1)
	assert.Equal(t, 1, sink.calls)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CorrectionSkipped.WithLabelValues("test", "bad_geometry")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.CorrectionSkipped.WithLabelValues("test", "no_geometry")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EventsTotal.WithLabelValues("test", "ok")))
}

func TestProduceEngineFailurePublishesNothing(t *testing.T) {
	snap := l2geometry.NewCMSTowerGrid(1)
	engine := &scriptedEngine{err: errors.New("boom")}
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	p, err := NewProducer(testConfig(), WithEngine(engine), WithMetrics(metrics))
	require.NoError(t, err)

	sink := &recordingSink{}
	out, err := p.Produce(towerEvent(t, snap), fakeSetup{snap}, sink)
	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrClustering)
	assert.Zero(t, sink.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EventsTotal.WithLabelValues("test", "error")))
}

func TestProduceRejectsInvalidEngineResults(t *testing.T) {
	snap := l2geometry.NewCMSTowerGrid(1)
	jet := func(c ...int) l5clustering.Jet {
		return l5clustering.Jet{P4: l1inputs.NewPtEtaPhiE(30, 0, 0, 30), Constituents: c}
	}
	tests := []struct {
		name      string
		correct   bool
		responses [][]l5clustering.Jet
	}{
		{"first pass out of range", true, [][]l5clustering.Jet{{jet(0, 99)}, {jet(0, 1)}}},
		{"final pass shared constituent", false, [][]l5clustering.Jet{{jet(0, 1), jet(1)}}},
		{"final pass negative position", false, [][]l5clustering.Jet{{jet(-1)}}},
		{"final pass out of range", true, [][]l5clustering.Jet{{jet(0, 1)}, {jet(0, 3)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.DoPUOffsetCorr = tt.correct
			engine := &scriptedEngine{responses: tt.responses}
			p, err := NewProducer(cfg, WithEngine(engine))
			require.NoError(t, err)

			sink := &recordingSink{}
			out, err := p.Produce(towerEvent(t, snap), fakeSetup{snap}, sink)
			assert.Nil(t, out)
			assert.ErrorIs(t, err, ErrClustering)
			assert.Zero(t, sink.calls)
		})
	}
}

func TestProduceMissingInputs(t *testing.T) {
	snap := l2geometry.NewCMSTowerGrid(1)
	p, err := NewProducer(testConfig(), WithEngine(&scriptedEngine{}))
	require.NoError(t, err)

	ev := towerEvent(t, snap)
	delete(ev.cands, "towerMaker")
	_, err = p.Produce(ev, fakeSetup{snap}, nil)
	assert.ErrorIs(t, err, ErrMissingInput)

	cfg := testConfig()
	cfg.Stager.DoPVCorrection = true
	p, err = NewProducer(cfg, WithEngine(&scriptedEngine{}))
	require.NoError(t, err)
	ev = towerEvent(t, snap)
	delete(ev.vertices, "offlinePrimaryVertices")
	_, err = p.Produce(ev, fakeSetup{snap}, nil)
	assert.ErrorIs(t, err, ErrMissingInput)

	sink := &recordingSink{}
	ev = towerEvent(t, snap)
	ev.vertices["offlinePrimaryVertices"] = nil
	out, err := p.Produce(ev, fakeSetup{snap}, sink)
	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrMissingInput)
	assert.Zero(t, sink.calls)
}

func TestProduceAttachesVertex(t *testing.T) {
	snap := l2geometry.NewCMSTowerGrid(1)
	cfg := testConfig()
	cfg.Stager.DoPVCorrection = true
	engine := &scriptedEngine{responses: [][]l5clustering.Jet{{
		{P4: l1inputs.NewPtEtaPhiE(30, 0, 0, 30), Constituents: []int{0}},
	}}}
	p, err := NewProducer(cfg, WithEngine(engine))
	require.NoError(t, err)

	out, err := p.Produce(towerEvent(t, snap), fakeSetup{snap}, nil)
	require.NoError(t, err)
	assert.Equal(t, l1inputs.Point{Z: 2}, out.Jets[0].Common().Vertex)
}

func TestProduceSinkError(t *testing.T) {
	snap := l2geometry.NewCMSTowerGrid(1)
	p, err := NewProducer(testConfig(), WithEngine(&scriptedEngine{}))
	require.NoError(t, err)

	sinkErr := errors.New("disk full")
	_, err = p.Produce(towerEvent(t, snap), fakeSetup{snap}, &recordingSink{err: sinkErr})
	assert.ErrorIs(t, err, sinkErr)
}

func TestSubtractionHappensAtMostOnce(t *testing.T) {
	snap := l2geometry.NewCMSTowerGrid(1)
	cfg := testConfig()
	cfg.DoPUOffsetCorr = true
	twice := SubtractorFunc(func(staged *l3staging.StagedInput, stats *l4pileup.RingStatistics, n float64) (*l3staging.StagedInput, error) {
		if _, err := staged.Subtract(stats, n); err != nil {
			return nil, err
		}
		return staged.Subtract(stats, n)
	})
	sink := &recordingSink{}
	p, err := NewProducer(cfg, WithEngine(&scriptedEngine{}), WithPedestalSubtractor(twice))
	require.NoError(t, err)

	_, err = p.Produce(towerEvent(t, snap), fakeSetup{snap}, sink)
	assert.ErrorIs(t, err, l3staging.ErrAlreadySubtracted)
	assert.Zero(t, sink.calls)
}

func TestCustomWriterAndStager(t *testing.T) {
	snap := l2geometry.NewCMSTowerGrid(1)
	engine := &scriptedEngine{responses: [][]l5clustering.Jet{{
		{P4: l1inputs.NewPtEtaPhiE(30, 0, 0, 30), Constituents: []int{0}},
	}}}
	writes := 0
	writer := l6jets.WriterFunc(func(base l6jets.Jet, _ []*l1inputs.Candidate) l6jets.Record {
		writes++
		return &l6jets.BasicJet{Jet: base}
	})
	stager := l3staging.NewStager(l3staging.StagerConfig{InputEtMin: 5, Anomaly: testConfig().Stager.Anomaly})
	p, err := NewProducer(testConfig(), WithEngine(engine), WithWriter(writer), WithStager(stager))
	require.NoError(t, err)

	out, err := p.Produce(towerEvent(t, snap), fakeSetup{snap}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, writes)
	assert.Equal(t, 2, out.Stage.Staged)
	assert.Equal(t, l6jets.BasicJetType, out.Jets[0].Type())
}

func TestProduceWithFastJet(t *testing.T) {
	snap := l2geometry.NewCMSTowerGrid(1)
	cfg := testConfig()
	cfg.DoPUOffsetCorr = true
	cfg.DoArea = true
	cfg.DoRho = true
	cfg.JetPtMin = 1
	cfg.RadiusPU = 0.5

	cands := []l1inputs.Candidate{
		tower(t, snap, 1, 1, 40),
		tower(t, snap, 2, 2, 15),
		tower(t, snap, -5, 37, 25),
	}
	for iphi := 11; iphi <= 71; iphi += 10 {
		cands = append(cands, tower(t, snap, 8, iphi, 0.8))
	}
	ev := &fakeEvent{id: EventID{Event: 7}, cands: map[string][]l1inputs.Candidate{"towerMaker": cands}}

	p, err := NewProducer(cfg)
	require.NoError(t, err)
	out, err := p.Produce(ev, fakeSetup{snap}, nil)
	require.NoError(t, err)

	require.NotEmpty(t, out.Jets)
	for i, r := range out.Jets {
		c := r.Common()
		assert.GreaterOrEqual(t, c.P4.Pt(), cfg.JetPtMin)
		assert.True(t, c.HasArea)
		if i > 0 {
			assert.LessOrEqual(t, c.P4.Pt(), out.Jets[i-1].Common().P4.Pt())
		}
	}
	require.NotNil(t, out.Rho)
	assert.True(t, out.Trace.Corrected())
}

func TestProducerConfigFrom(t *testing.T) {
	cfg, err := ProducerConfigFrom(config.EmptyProducerConfig())
	require.NoError(t, err)
	assert.Equal(t, l6jets.CaloJetType, cfg.JetType)
	assert.Equal(t, l5clustering.AntiKt, cfg.Algorithm)
	assert.Equal(t, "towerMaker", cfg.Src)
	assert.Equal(t, uint32(config.DefaultAnomalousCellLimit), cfg.Stager.Anomaly.MaxBadEcalCells)

	bad := config.EmptyProducerConfig()
	name := "FatJet"
	bad.JetType = &name
	_, err = ProducerConfigFrom(bad)
	assert.ErrorIs(t, err, l6jets.ErrUnknownJetType)

	plugin := config.EmptyProducerConfig()
	alg := "SISCone"
	plugin.JetAlgorithm = &alg
	_, err = ProducerConfigFrom(plugin)
	assert.ErrorIs(t, err, l5clustering.ErrUnknownAlgorithm)
}

func TestNewProducerRejectsBadConfig(t *testing.T) {
	cfg := testConfig()
	cfg.R = 0
	_, err := NewProducer(cfg)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.JetType = l6jets.JetType(12)
	_, err = NewProducer(cfg)
	assert.ErrorIs(t, err, l6jets.ErrUnknownJetType)
}

func TestDriverRejectsIllegalTransition(t *testing.T) {
	d := newDriver()
	d.advance(StateStaged)
	assert.Panics(t, func() { d.advance(StateSubtracted) })
	assert.Equal(t, "init -> staged", d.trace.String())
}
