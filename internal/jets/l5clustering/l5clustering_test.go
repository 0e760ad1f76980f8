package l5clustering

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/jetreco/internal/config"
	"github.com/banshee-data/jetreco/internal/jets/l1inputs"
)

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		name    string
		want    Algorithm
		wantErr bool
	}{
		{"AntiKt", AntiKt, false},
		{"antikt", AntiKt, false},
		{"Kt", Kt, false},
		{"CambridgeAachen", CambridgeAachen, false},
		{" ca ", CambridgeAachen, false},
		{"SISCone", 0, true},
		{"IterativeCone", 0, true},
		{"bogus", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAlgorithm(tt.name)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrUnknownAlgorithm))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAlgorithmString(t *testing.T) {
	for _, a := range []Algorithm{AntiKt, Kt, CambridgeAachen} {
		back, err := ParseAlgorithm(a.String())
		require.NoError(t, err)
		assert.Equal(t, a, back)
	}
}

func TestEngineFunc(t *testing.T) {
	var seen Definition
	e := EngineFunc(func(inputs []l1inputs.FourMomentum, def Definition) ([]Jet, error) {
		seen = def
		return []Jet{{Constituents: []int{0}}}, nil
	})
	jets, err := e.Cluster(nil, Definition{Algorithm: Kt, R: 0.6})
	require.NoError(t, err)
	assert.Len(t, jets, 1)
	assert.Equal(t, Kt, seen.Algorithm)
}

func twoGroups() []l1inputs.FourMomentum {
	return []l1inputs.FourMomentum{
		l1inputs.NewPtEtaPhiM(10, 0.0, 0.0, 0),
		l1inputs.NewPtEtaPhiM(5, 0.1, 0.05, 0),
		l1inputs.NewPtEtaPhiM(6, 0.2, math.Pi-0.1, 0),
		l1inputs.NewPtEtaPhiM(3, -0.1, -0.1, 0),
		l1inputs.NewPtEtaPhiM(4, 0.1, math.Pi-0.05, 0),
		{}, // zero momentum, never clustered
	}
}

func TestFastJetClustersSeparatedGroups(t *testing.T) {
	for _, alg := range []Algorithm{AntiKt, Kt, CambridgeAachen} {
		t.Run(alg.String(), func(t *testing.T) {
			jets, err := FastJet{}.Cluster(twoGroups(), Definition{Algorithm: alg, R: 0.5})
			require.NoError(t, err)
			require.Len(t, jets, 2)

			assert.Equal(t, []int{0, 1, 3}, jets[0].Constituents)
			assert.Equal(t, []int{2, 4}, jets[1].Constituents)
			assert.Greater(t, jets[0].P4.Pt(), jets[1].P4.Pt())
			assert.False(t, jets[0].HasArea)

			sum := twoGroups()[0].Add(twoGroups()[1]).Add(twoGroups()[3])
			assert.InDelta(t, sum.E, jets[0].P4.E, 1e-9)
		})
	}
}

func TestFastJetArea(t *testing.T) {
	def := Definition{Algorithm: AntiKt, R: 0.4, Area: true, GhostArea: 0.05, GhostEtaMax: 1.5}
	inputs := []l1inputs.FourMomentum{l1inputs.NewPtEtaPhiM(50, 0, 0, 0)}

	jets, err := FastJet{}.Cluster(inputs, def)
	require.NoError(t, err)
	require.Len(t, jets, 1)
	assert.True(t, jets[0].HasArea)
	assert.InDelta(t, math.Pi*0.4*0.4, jets[0].Area, 0.15)
	assert.Equal(t, []int{0}, jets[0].Constituents)
	assert.InDelta(t, 50, jets[0].P4.Pt(), 1e-9)
}

func TestFastJetAreaWithShippedDefaults(t *testing.T) {
	cfg := config.MustLoadDefaultConfig()
	def := Definition{
		Algorithm:   AntiKt,
		R:           cfg.GetRParam(),
		Area:        true,
		GhostArea:   cfg.GetGhostArea(),
		GhostEtaMax: cfg.GetGhostEtaMax(),
	}
	inputs := []l1inputs.FourMomentum{
		l1inputs.NewPtEtaPhiM(50, 0.3, 1.0, 0),
		l1inputs.NewPtEtaPhiM(30, -2.0, -2.5, 0),
	}

	start := time.Now()
	jets, err := FastJet{}.Cluster(inputs, def)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)

	require.Len(t, jets, 2)
	for _, j := range jets {
		assert.True(t, j.HasArea)
		assert.InDelta(t, math.Pi*def.R*def.R, j.Area, 0.3)
	}
}

func TestGhostGridPrunedToInputs(t *testing.T) {
	inputs := []l1inputs.FourMomentum{l1inputs.NewPtEtaPhiM(10, 0, 0, 0)}
	ghosts, cell, err := ghostGrid(0.1, 5, 0.5, inputs)
	require.NoError(t, err)
	assert.Less(t, len(ghosts), GhostCount(0.1, 5))
	assert.NotEmpty(t, ghosts)
	// The kept ghosts cover at least the jet disc.
	assert.GreaterOrEqual(t, float64(len(ghosts))*cell, math.Pi*0.5*0.5)

	_, _, err = ghostGrid(0.01, 5, 0.5, inputs)
	assert.Error(t, err)
	assert.Equal(t, 640, GhostCount(0.1, 5))
}

func TestFastJetErrors(t *testing.T) {
	_, err := FastJet{}.Cluster(twoGroups(), Definition{Algorithm: AntiKt})
	assert.Error(t, err)

	_, err = FastJet{}.Cluster(twoGroups(), Definition{Algorithm: Algorithm(42), R: 0.4})
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)

	_, err = FastJet{}.Cluster(twoGroups(), Definition{Algorithm: AntiKt, R: 0.4, Area: true})
	assert.Error(t, err)
}

func TestFastJetEmptyInput(t *testing.T) {
	jets, err := FastJet{}.Cluster(nil, Definition{Algorithm: AntiKt, R: 0.4})
	require.NoError(t, err)
	assert.Empty(t, jets)
}

func TestFootprints(t *testing.T) {
	jets := []Jet{{P4: l1inputs.NewPtEtaPhiE(1, 0, 0, 1), Constituents: []int{2}, Area: 0.5}}
	fp := Footprints(jets)
	require.Len(t, fp, 1)
	assert.Equal(t, []int{2}, fp[0].Constituents)
	assert.Equal(t, 0.5, fp[0].Area)
}
