package l1inputs

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func permissive() AnomalyThresholds {
	const big = 9999999
	return AnomalyThresholds{big, big, big, big, big, big}
}

func TestFourMomentum_PtEtaPhiRoundTrip(t *testing.T) {
	p := NewPtEtaPhiE(10, 1.2, -2.5, 30)

	assert.InDelta(t, 10.0, p.Pt(), 1e-9)
	assert.InDelta(t, 1.2, p.Eta(), 1e-9)
	assert.InDelta(t, -2.5, p.Phi(), 1e-9)
	assert.InDelta(t, 30.0, p.E, 1e-12)
}

func TestFourMomentum_EtMassless(t *testing.T) {
	// For a massless vector Et equals pt.
	p := NewPtEtaPhiM(25, -0.7, 0.3, 0)
	assert.InDelta(t, p.Pt(), p.Et(), 1e-9)
	assert.InDelta(t, 0.0, p.M(), 1e-6)
}

func TestFourMomentum_Degenerate(t *testing.T) {
	var zero FourMomentum
	assert.Equal(t, 0.0, zero.Et())
	assert.Equal(t, 0.0, zero.Eta())
	assert.Equal(t, 0.0, zero.Phi())

	beam := FourMomentum{Pz: 5, E: 5}
	assert.Equal(t, maxEta, beam.Eta())

	nan := FourMomentum{Px: math.NaN(), E: 1}
	assert.False(t, nan.IsFinite())
	assert.True(t, beam.IsFinite())
}

func TestNewMassless(t *testing.T) {
	p := NewMassless(10, Point{X: 0, Y: 3, Z: 4})
	assert.InDelta(t, 0.0, p.Px, 1e-12)
	assert.InDelta(t, 6.0, p.Py, 1e-12)
	assert.InDelta(t, 8.0, p.Pz, 1e-12)
	assert.InDelta(t, 10.0, p.P(), 1e-12)

	assert.Equal(t, FourMomentum{}, NewMassless(10, Point{}))
}

func TestDeltaR_WrapsPhi(t *testing.T) {
	d := DeltaR(0, math.Pi-0.1, 0, -math.Pi+0.1)
	assert.InDelta(t, 0.2, d, 1e-9)
	assert.InDelta(t, 0.5, DeltaR(0.5, 1, 0, 1), 1e-12)
}

func TestKindFromPdgID(t *testing.T) {
	assert.Equal(t, KindElectron, KindFromPdgID(-11))
	assert.Equal(t, KindChargedHadron, KindFromPdgID(211))
	assert.Equal(t, KindNeutralHadron, KindFromPdgID(2112))
	assert.Equal(t, KindPhoton, KindFromPdgID(22))
	assert.Equal(t, KindUnknown, KindFromPdgID(12))
	assert.Equal(t, "mu", KindMuon.String())
	assert.Equal(t, "unknown", ParticleKind(99).String())
}

func TestIsAnomalous_BadEcalScenario(t *testing.T) {
	thr := permissive()
	thr.MaxBadEcalCells = 2

	c := &Candidate{
		P4:    NewPtEtaPhiE(500, 0.1, 0.2, 500),
		Tower: &Tower{Cell: 1, Ecal: CellQuality{Bad: 3}},
	}
	assert.True(t, thr.IsAnomalous(c), "bad ECAL count above limit must be excluded regardless of energy")
	assert.Equal(t, "bad_ecal_cells", thr.AnomalyReason(c))
}

func TestIsAnomalous_EachThreshold(t *testing.T) {
	tests := []struct {
		name   string
		set    func(*AnomalyThresholds)
		tower  Tower
		reason string
	}{
		{"recovered ecal", func(a *AnomalyThresholds) { a.MaxRecoveredEcalCells = 1 }, Tower{Ecal: CellQuality{Recovered: 1}}, "recovered_ecal_cells"},
		{"problematic ecal", func(a *AnomalyThresholds) { a.MaxProblematicEcalCells = 4 }, Tower{Ecal: CellQuality{Problematic: 5}}, "problematic_ecal_cells"},
		{"bad hcal", func(a *AnomalyThresholds) { a.MaxBadHcalCells = 1 }, Tower{Hcal: CellQuality{Bad: 1}}, "bad_hcal_cells"},
		{"recovered hcal", func(a *AnomalyThresholds) { a.MaxRecoveredHcalCells = 2 }, Tower{Hcal: CellQuality{Recovered: 2}}, "recovered_hcal_cells"},
		{"problematic hcal", func(a *AnomalyThresholds) { a.MaxProblematicHcalCells = 1 }, Tower{Hcal: CellQuality{Problematic: 3}}, "problematic_hcal_cells"},
		{"below limits", func(a *AnomalyThresholds) { a.MaxBadHcalCells = 5 }, Tower{Hcal: CellQuality{Bad: 4}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			thr := permissive()
			tt.set(&thr)
			tower := tt.tower
			c := &Candidate{Tower: &tower}
			assert.Equal(t, tt.reason, thr.AnomalyReason(c))
			assert.Equal(t, tt.reason != "", thr.IsAnomalous(c))
		})
	}
}

func TestIsAnomalous_Idempotent(t *testing.T) {
	thr := permissive()
	thr.MaxProblematicHcalCells = 1
	c := &Candidate{Tower: &Tower{Hcal: CellQuality{Problematic: 1}}}

	first := thr.IsAnomalous(c)
	second := thr.IsAnomalous(c)
	assert.Equal(t, first, second)
	assert.Equal(t, uint32(1), c.Tower.Hcal.Problematic, "predicate must not mutate the candidate")
}

func TestIsAnomalous_NonTowerCandidates(t *testing.T) {
	thr := AnomalyThresholds{} // every cut at zero
	assert.False(t, thr.IsAnomalous(&Candidate{Kind: KindChargedHadron}))
	assert.False(t, thr.IsAnomalous(nil))
}

func TestCandidate_Cell(t *testing.T) {
	c := Candidate{}
	_, ok := c.Cell()
	assert.False(t, ok)

	c.Tower = &Tower{Cell: 42}
	id, ok := c.Cell()
	assert.True(t, ok)
	assert.Equal(t, CellID(42), id)
}
