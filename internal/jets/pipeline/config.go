package pipeline

import (
	"fmt"

	"github.com/banshee-data/jetreco/internal/config"
	"github.com/banshee-data/jetreco/internal/jets/l1inputs"
	"github.com/banshee-data/jetreco/internal/jets/l3staging"
	"github.com/banshee-data/jetreco/internal/jets/l5clustering"
	"github.com/banshee-data/jetreco/internal/jets/l6jets"
)

// Config is the resolved producer configuration.
type Config struct {
	Src    string // candidate collection label
	SrcPVs string // primary vertex collection label

	JetType   l6jets.JetType
	Algorithm l5clustering.Algorithm
	R         float64
	JetPtMin  float64

	Stager l3staging.StagerConfig

	// Area and rho
	DoArea      bool
	DoRho       bool
	RhoEtaMax   float64
	GhostArea   float64
	GhostEtaMax float64

	// Pileup offset correction
	DoPUOffsetCorr      bool
	NSigmaPU            float64
	RadiusPU            float64
	NormalizeByGeometry bool

	Instance string // output collection instance name
}

// DefaultConfig returns the configuration built from
// config/producer.defaults.json. Panics if the file cannot be found or
// names an unknown jet type or algorithm.
func DefaultConfig() Config {
	cfg, err := ProducerConfigFrom(config.MustLoadDefaultConfig())
	if err != nil {
		panic(err)
	}
	return cfg
}

// ProducerConfigFrom resolves a loaded ProducerConfig. Unknown jet types
// and algorithm names are configuration errors.
func ProducerConfigFrom(cfg *config.ProducerConfig) (Config, error) {
	jetType, err := l6jets.ParseJetType(cfg.GetJetType())
	if err != nil {
		return Config{}, fmt.Errorf("jet_type: %w", err)
	}
	alg, err := l5clustering.ParseAlgorithm(cfg.GetJetAlgorithm())
	if err != nil {
		return Config{}, fmt.Errorf("jet_algorithm: %w", err)
	}
	return Config{
		Src:       cfg.GetSrc(),
		SrcPVs:    cfg.GetSrcPVs(),
		JetType:   jetType,
		Algorithm: alg,
		R:         cfg.GetRParam(),
		JetPtMin:  cfg.GetJetPtMin(),
		Stager: l3staging.StagerConfig{
			InputEtMin: cfg.GetInputEtMin(),
			InputEMin:  cfg.GetInputEMin(),
			Anomaly: l1inputs.AnomalyThresholds{
				MaxBadEcalCells:         cfg.GetMaxBadEcalCells(),
				MaxRecoveredEcalCells:   cfg.GetMaxRecoveredEcalCells(),
				MaxProblematicEcalCells: cfg.GetMaxProblematicEcalCells(),
				MaxBadHcalCells:         cfg.GetMaxBadHcalCells(),
				MaxRecoveredHcalCells:   cfg.GetMaxRecoveredHcalCells(),
				MaxProblematicHcalCells: cfg.GetMaxProblematicHcalCells(),
			},
			DoPVCorrection: cfg.GetDoPVCorrection(),
			RestrictInputs: cfg.GetRestrictInputs(),
			MaxInputs:      cfg.GetMaxInputs(),
		},
		DoArea:              cfg.GetDoAreaFastjet(),
		DoRho:               cfg.GetDoRhoFastjet(),
		RhoEtaMax:           cfg.GetRhoEtaMax(),
		GhostArea:           cfg.GetGhostArea(),
		GhostEtaMax:         cfg.GetGhostEtaMax(),
		DoPUOffsetCorr:      cfg.GetDoPUOffsetCorr(),
		NSigmaPU:            cfg.GetNSigmaPU(),
		RadiusPU:            cfg.GetRadiusPU(),
		NormalizeByGeometry: cfg.GetNormalizeByGeometry(),
		Instance:            cfg.GetJetCollInstanceName(),
	}, nil
}

// definition returns the clustering definition of the final pass.
func (c Config) definition() l5clustering.Definition {
	return l5clustering.Definition{
		Algorithm:   c.Algorithm,
		R:           c.R,
		Area:        c.DoArea || c.DoRho,
		GhostArea:   c.GhostArea,
		GhostEtaMax: c.GhostEtaMax,
	}
}
