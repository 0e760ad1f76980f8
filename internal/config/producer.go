package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is the path to the canonical producer defaults file.
const DefaultConfigPath = "config/producer.defaults.json"

// DefaultAnomalousCellLimit disables an anomalous-cell cut in practice.
const DefaultAnomalousCellLimit = 9999999

// MaxGhostCells caps the ghost grid used for jet areas. Clustering time
// grows with the cube of the input count.
const MaxGhostCells = 2000

// ProducerConfig is the on-disk configuration of one jet producer instance.
// Fields omitted from the file are nil and resolve to defaults through the
// Get* accessors, so partial files are safe.
type ProducerConfig struct {
	// Collaborator labels
	Src    *string `json:"src,omitempty" yaml:"src,omitempty" toml:"src,omitempty"`
	SrcPVs *string `json:"src_pvs,omitempty" yaml:"src_pvs,omitempty" toml:"src_pvs,omitempty"`

	// Clustering
	JetType      *string  `json:"jet_type,omitempty" yaml:"jet_type,omitempty" toml:"jet_type,omitempty"`
	JetAlgorithm *string  `json:"jet_algorithm,omitempty" yaml:"jet_algorithm,omitempty" toml:"jet_algorithm,omitempty"`
	RParam       *float64 `json:"r_param,omitempty" yaml:"r_param,omitempty" toml:"r_param,omitempty"`
	JetPtMin     *float64 `json:"jet_pt_min,omitempty" yaml:"jet_pt_min,omitempty" toml:"jet_pt_min,omitempty"`

	// Input selection
	InputEtMin     *float64 `json:"input_et_min,omitempty" yaml:"input_et_min,omitempty" toml:"input_et_min,omitempty"`
	InputEMin      *float64 `json:"input_e_min,omitempty" yaml:"input_e_min,omitempty" toml:"input_e_min,omitempty"`
	DoPVCorrection *bool    `json:"do_pv_correction,omitempty" yaml:"do_pv_correction,omitempty" toml:"do_pv_correction,omitempty"`
	RestrictInputs *bool    `json:"restrict_inputs,omitempty" yaml:"restrict_inputs,omitempty" toml:"restrict_inputs,omitempty"`
	MaxInputs      *int     `json:"max_inputs,omitempty" yaml:"max_inputs,omitempty" toml:"max_inputs,omitempty"`

	// Area and rho
	DoAreaFastjet *bool    `json:"do_area_fastjet,omitempty" yaml:"do_area_fastjet,omitempty" toml:"do_area_fastjet,omitempty"`
	DoRhoFastjet  *bool    `json:"do_rho_fastjet,omitempty" yaml:"do_rho_fastjet,omitempty" toml:"do_rho_fastjet,omitempty"`
	RhoEtaMax     *float64 `json:"rho_eta_max,omitempty" yaml:"rho_eta_max,omitempty" toml:"rho_eta_max,omitempty"`
	GhostArea     *float64 `json:"ghost_area,omitempty" yaml:"ghost_area,omitempty" toml:"ghost_area,omitempty"`
	GhostEtaMax   *float64 `json:"ghost_eta_max,omitempty" yaml:"ghost_eta_max,omitempty" toml:"ghost_eta_max,omitempty"`

	// Pileup offset correction
	DoPUOffsetCorr      *bool    `json:"do_pu_offset_corr,omitempty" yaml:"do_pu_offset_corr,omitempty" toml:"do_pu_offset_corr,omitempty"`
	NSigmaPU            *float64 `json:"n_sigma_pu,omitempty" yaml:"n_sigma_pu,omitempty" toml:"n_sigma_pu,omitempty"`
	RadiusPU            *float64 `json:"radius_pu,omitempty" yaml:"radius_pu,omitempty" toml:"radius_pu,omitempty"`
	NormalizeByGeometry *bool    `json:"normalize_by_geometry,omitempty" yaml:"normalize_by_geometry,omitempty" toml:"normalize_by_geometry,omitempty"`

	// Anomalous cell cuts
	MaxBadEcalCells         *uint32 `json:"max_bad_ecal_cells,omitempty" yaml:"max_bad_ecal_cells,omitempty" toml:"max_bad_ecal_cells,omitempty"`
	MaxRecoveredEcalCells   *uint32 `json:"max_recovered_ecal_cells,omitempty" yaml:"max_recovered_ecal_cells,omitempty" toml:"max_recovered_ecal_cells,omitempty"`
	MaxProblematicEcalCells *uint32 `json:"max_problematic_ecal_cells,omitempty" yaml:"max_problematic_ecal_cells,omitempty" toml:"max_problematic_ecal_cells,omitempty"`
	MaxBadHcalCells         *uint32 `json:"max_bad_hcal_cells,omitempty" yaml:"max_bad_hcal_cells,omitempty" toml:"max_bad_hcal_cells,omitempty"`
	MaxRecoveredHcalCells   *uint32 `json:"max_recovered_hcal_cells,omitempty" yaml:"max_recovered_hcal_cells,omitempty" toml:"max_recovered_hcal_cells,omitempty"`
	MaxProblematicHcalCells *uint32 `json:"max_problematic_hcal_cells,omitempty" yaml:"max_problematic_hcal_cells,omitempty" toml:"max_problematic_hcal_cells,omitempty"`

	// Output
	JetCollInstanceName *string `json:"jet_coll_instance_name,omitempty" yaml:"jet_coll_instance_name,omitempty" toml:"jet_coll_instance_name,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }
func ptrUint32(v uint32) *uint32    { return &v }

// EmptyProducerConfig returns a ProducerConfig with all fields set to nil.
func EmptyProducerConfig() *ProducerConfig {
	return &ProducerConfig{}
}

// LoadProducerConfig loads a ProducerConfig from a .json, .yaml/.yml or
// .toml file. The file must be under 1MB.
func LoadProducerConfig(path string) (*ProducerConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	switch ext {
	case ".json", ".yaml", ".yml", ".toml":
	default:
		return nil, fmt.Errorf("config file must have .json, .yaml or .toml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := ParseProducerConfig(data, ext)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ParseProducerConfig decodes data in the format named by ext (".json",
// ".yaml", ".yml" or ".toml"). It does not validate.
func ParseProducerConfig(data []byte, ext string) (*ProducerConfig, error) {
	cfg := EmptyProducerConfig()
	var err error
	switch strings.ToLower(ext) {
	case ".json":
		err = json.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", strings.TrimPrefix(ext, "."), err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath.
// It searches the current directory and common parent directories and
// panics if the file cannot be loaded. Intended for test setup.
func MustLoadDefaultConfig() *ProducerConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,          // from internal/config/
		"../../../" + DefaultConfigPath,       // from internal/jets/pipeline/
		"../../../../" + DefaultConfigPath,    // from internal/jets/storage/sqlite/
		"../../../../../" + DefaultConfigPath, // even deeper
	}
	for _, path := range candidates {
		if cfg, err := LoadProducerConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configured values are in range. Jet type and
// algorithm names are resolved (and rejected) by the producer constructor.
func (c *ProducerConfig) Validate() error {
	if c.RParam != nil && *c.RParam <= 0 {
		return fmt.Errorf("r_param must be positive, got %f", *c.RParam)
	}
	if c.InputEtMin != nil && *c.InputEtMin < 0 {
		return fmt.Errorf("input_et_min must be non-negative, got %f", *c.InputEtMin)
	}
	if c.InputEMin != nil && *c.InputEMin < 0 {
		return fmt.Errorf("input_e_min must be non-negative, got %f", *c.InputEMin)
	}
	if c.JetPtMin != nil && *c.JetPtMin < 0 {
		return fmt.Errorf("jet_pt_min must be non-negative, got %f", *c.JetPtMin)
	}
	if c.MaxInputs != nil && *c.MaxInputs < 0 {
		return fmt.Errorf("max_inputs must be non-negative, got %d", *c.MaxInputs)
	}
	if c.GetRestrictInputs() && c.GetMaxInputs() == 0 {
		return fmt.Errorf("restrict_inputs requires max_inputs > 0")
	}
	if c.NSigmaPU != nil && *c.NSigmaPU < 0 {
		return fmt.Errorf("n_sigma_pu must be non-negative, got %f", *c.NSigmaPU)
	}
	if c.RadiusPU != nil && *c.RadiusPU < 0 {
		return fmt.Errorf("radius_pu must be non-negative, got %f", *c.RadiusPU)
	}
	if c.GhostArea != nil && *c.GhostArea <= 0 {
		return fmt.Errorf("ghost_area must be positive, got %f", *c.GhostArea)
	}
	if c.GhostEtaMax != nil && *c.GhostEtaMax <= 0 {
		return fmt.Errorf("ghost_eta_max must be positive, got %f", *c.GhostEtaMax)
	}
	if c.RhoEtaMax != nil && *c.RhoEtaMax <= 0 {
		return fmt.Errorf("rho_eta_max must be positive, got %f", *c.RhoEtaMax)
	}
	if n := ghostCells(c.GetGhostArea(), c.GetGhostEtaMax()); n > MaxGhostCells {
		return fmt.Errorf("ghost_area %g over ghost_eta_max %g gives %d ghost cells, max %d",
			c.GetGhostArea(), c.GetGhostEtaMax(), n, MaxGhostCells)
	}
	return nil
}

// ghostCells counts the cells of the (eta, phi) ghost grid.
func ghostCells(area, etaMax float64) int {
	side := math.Sqrt(area)
	return int(math.Ceil(2*etaMax/side)) * int(math.Ceil(2*math.Pi/side))
}

// GetSrc returns the candidate source label or the default.
func (c *ProducerConfig) GetSrc() string {
	if c.Src == nil {
		return "towerMaker"
	}
	return *c.Src
}

// GetSrcPVs returns the primary vertex source label or the default.
func (c *ProducerConfig) GetSrcPVs() string {
	if c.SrcPVs == nil {
		return "offlinePrimaryVertices"
	}
	return *c.SrcPVs
}

// GetJetType returns the jet type name or the default.
func (c *ProducerConfig) GetJetType() string {
	if c.JetType == nil {
		return "CaloJet"
	}
	return *c.JetType
}

// GetJetAlgorithm returns the jet algorithm name or the default.
func (c *ProducerConfig) GetJetAlgorithm() string {
	if c.JetAlgorithm == nil {
		return "AntiKt"
	}
	return *c.JetAlgorithm
}

// GetRParam returns the distance parameter or the default.
func (c *ProducerConfig) GetRParam() float64 {
	if c.RParam == nil {
		return 0.5
	}
	return *c.RParam
}

// GetJetPtMin returns the minimum jet pt or the default.
func (c *ProducerConfig) GetJetPtMin() float64 {
	if c.JetPtMin == nil {
		return 3.0
	}
	return *c.JetPtMin
}

// GetInputEtMin returns the minimum input Et or the default.
func (c *ProducerConfig) GetInputEtMin() float64 {
	if c.InputEtMin == nil {
		return 0.3
	}
	return *c.InputEtMin
}

// GetInputEMin returns the minimum input energy or the default.
func (c *ProducerConfig) GetInputEMin() float64 {
	if c.InputEMin == nil {
		return 0.0
	}
	return *c.InputEMin
}

// GetDoPVCorrection returns the vertex correction toggle or the default.
func (c *ProducerConfig) GetDoPVCorrection() bool {
	if c.DoPVCorrection == nil {
		return false
	}
	return *c.DoPVCorrection
}

// GetRestrictInputs returns the input restriction toggle or the default.
func (c *ProducerConfig) GetRestrictInputs() bool {
	if c.RestrictInputs == nil {
		return false
	}
	return *c.RestrictInputs
}

// GetMaxInputs returns the input cap or the default.
func (c *ProducerConfig) GetMaxInputs() int {
	if c.MaxInputs == nil {
		return 1
	}
	return *c.MaxInputs
}

// GetDoAreaFastjet returns the area toggle or the default.
func (c *ProducerConfig) GetDoAreaFastjet() bool {
	if c.DoAreaFastjet == nil {
		return false
	}
	return *c.DoAreaFastjet
}

// GetDoRhoFastjet returns the rho toggle or the default.
func (c *ProducerConfig) GetDoRhoFastjet() bool {
	if c.DoRhoFastjet == nil {
		return false
	}
	return *c.DoRhoFastjet
}

// GetRhoEtaMax returns the |eta| range used for rho or the default.
func (c *ProducerConfig) GetRhoEtaMax() float64 {
	if c.RhoEtaMax == nil {
		return 4.4
	}
	return *c.RhoEtaMax
}

// GetGhostArea returns the area carried by one ghost or the default.
func (c *ProducerConfig) GetGhostArea() float64 {
	if c.GhostArea == nil {
		return 0.1
	}
	return *c.GhostArea
}

// GetGhostEtaMax returns the |eta| extent of the ghost grid or the default.
func (c *ProducerConfig) GetGhostEtaMax() float64 {
	if c.GhostEtaMax == nil {
		return 5.0
	}
	return *c.GhostEtaMax
}

// GetDoPUOffsetCorr returns the pileup correction toggle or the default.
func (c *ProducerConfig) GetDoPUOffsetCorr() bool {
	if c.DoPUOffsetCorr == nil {
		return false
	}
	return *c.DoPUOffsetCorr
}

// GetNSigmaPU returns the number of sigmas subtracted on top of the mean.
func (c *ProducerConfig) GetNSigmaPU() float64 {
	if c.NSigmaPU == nil {
		return 1.0
	}
	return *c.NSigmaPU
}

// GetRadiusPU returns the jet exclusion radius used by the correction.
func (c *ProducerConfig) GetRadiusPU() float64 {
	if c.RadiusPU == nil {
		return 0.5
	}
	return *c.RadiusPU
}

// GetNormalizeByGeometry reports whether ring means divide by the ring's
// geometric tower count instead of the orphan count.
func (c *ProducerConfig) GetNormalizeByGeometry() bool {
	if c.NormalizeByGeometry == nil {
		return false
	}
	return *c.NormalizeByGeometry
}

func cellLimit(v *uint32) uint32 {
	if v == nil {
		return DefaultAnomalousCellLimit
	}
	return *v
}

// GetMaxBadEcalCells returns the bad ECAL cell limit or the default.
func (c *ProducerConfig) GetMaxBadEcalCells() uint32 { return cellLimit(c.MaxBadEcalCells) }

// GetMaxRecoveredEcalCells returns the recovered ECAL cell limit or the default.
func (c *ProducerConfig) GetMaxRecoveredEcalCells() uint32 { return cellLimit(c.MaxRecoveredEcalCells) }

// GetMaxProblematicEcalCells returns the problematic ECAL cell limit or the default.
func (c *ProducerConfig) GetMaxProblematicEcalCells() uint32 {
	return cellLimit(c.MaxProblematicEcalCells)
}

// GetMaxBadHcalCells returns the bad HCAL cell limit or the default.
func (c *ProducerConfig) GetMaxBadHcalCells() uint32 { return cellLimit(c.MaxBadHcalCells) }

// GetMaxRecoveredHcalCells returns the recovered HCAL cell limit or the default.
func (c *ProducerConfig) GetMaxRecoveredHcalCells() uint32 { return cellLimit(c.MaxRecoveredHcalCells) }

// GetMaxProblematicHcalCells returns the problematic HCAL cell limit or the default.
func (c *ProducerConfig) GetMaxProblematicHcalCells() uint32 {
	return cellLimit(c.MaxProblematicHcalCells)
}

// GetJetCollInstanceName returns the output instance name or the default ("").
func (c *ProducerConfig) GetJetCollInstanceName() string {
	if c.JetCollInstanceName == nil {
		return ""
	}
	return *c.JetCollInstanceName
}
