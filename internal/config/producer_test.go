package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEmptyProducerConfig_Defaults(t *testing.T) {
	cfg := EmptyProducerConfig()

	if got := cfg.GetJetType(); got != "CaloJet" {
		t.Errorf("GetJetType() = %q, want CaloJet", got)
	}
	if got := cfg.GetJetAlgorithm(); got != "AntiKt" {
		t.Errorf("GetJetAlgorithm() = %q, want AntiKt", got)
	}
	if got := cfg.GetRParam(); got != 0.5 {
		t.Errorf("GetRParam() = %f, want 0.5", got)
	}
	if got := cfg.GetNSigmaPU(); got != 1.0 {
		t.Errorf("GetNSigmaPU() = %f, want 1.0", got)
	}
	if got := cfg.GetMaxBadEcalCells(); got != DefaultAnomalousCellLimit {
		t.Errorf("GetMaxBadEcalCells() = %d, want %d", got, DefaultAnomalousCellLimit)
	}
	if cfg.GetDoPUOffsetCorr() {
		t.Error("GetDoPUOffsetCorr() should default to false")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("empty config should validate, got %v", err)
	}
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()

	if cfg.JetType == nil || *cfg.JetType != "CaloJet" {
		t.Errorf("expected jet_type CaloJet, got %v", cfg.JetType)
	}
	if cfg.RadiusPU == nil || *cfg.RadiusPU != 0.5 {
		t.Errorf("expected radius_pu 0.5, got %v", cfg.RadiusPU)
	}
	if cfg.GetMaxProblematicHcalCells() != DefaultAnomalousCellLimit {
		t.Errorf("GetMaxProblematicHcalCells() = %d", cfg.GetMaxProblematicHcalCells())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
	if n := ghostCells(cfg.GetGhostArea(), cfg.GetGhostEtaMax()); n != 640 {
		t.Errorf("default ghost grid has %d cells, want 640", n)
	}
}

func TestLoadProducerConfig_Formats(t *testing.T) {
	tmpDir := t.TempDir()

	files := map[string]string{
		"ak5.json": `{"jet_type": "PFJet", "r_param": 0.5, "do_pu_offset_corr": true, "max_bad_ecal_cells": 2}`,
		"ak5.yaml": "jet_type: PFJet\nr_param: 0.5\ndo_pu_offset_corr: true\nmax_bad_ecal_cells: 2\n",
		"ak5.toml": "jet_type = \"PFJet\"\nr_param = 0.5\ndo_pu_offset_corr = true\nmax_bad_ecal_cells = 2\n",
	}

	for name, body := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(tmpDir, name)
			if err := os.WriteFile(path, []byte(body), 0644); err != nil {
				t.Fatalf("write: %v", err)
			}
			cfg, err := LoadProducerConfig(path)
			if err != nil {
				t.Fatalf("LoadProducerConfig(%s): %v", name, err)
			}
			if cfg.GetJetType() != "PFJet" {
				t.Errorf("jet type = %q, want PFJet", cfg.GetJetType())
			}
			if !cfg.GetDoPUOffsetCorr() {
				t.Error("expected do_pu_offset_corr true")
			}
			if cfg.GetMaxBadEcalCells() != 2 {
				t.Errorf("max_bad_ecal_cells = %d, want 2", cfg.GetMaxBadEcalCells())
			}
			// Unset fields keep their defaults.
			if cfg.GetMaxBadHcalCells() != DefaultAnomalousCellLimit {
				t.Errorf("max_bad_hcal_cells = %d, want default", cfg.GetMaxBadHcalCells())
			}
		})
	}
}

func TestLoadProducerConfig_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		body    string
		wantErr string
	}{
		{"bad extension", "cfg.txt", "{}", "extension"},
		{"bad json", "cfg.json", "{not json", "failed to parse config json"},
		{"negative radius", "cfg.json", `{"radius_pu": -1}`, "radius_pu must be non-negative"},
		{"zero r", "cfg.json", `{"r_param": 0}`, "r_param must be positive"},
		{"restrict without cap", "cfg.json", `{"restrict_inputs": true, "max_inputs": 0}`, "restrict_inputs requires"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tmpDir, tt.file)
			if err := os.WriteFile(path, []byte(tt.body), 0644); err != nil {
				t.Fatalf("write: %v", err)
			}
			_, err := LoadProducerConfig(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err.Error(), tt.wantErr)
			}
		})
	}

	if _, err := LoadProducerConfig(filepath.Join(tmpDir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestPresetMerge(t *testing.T) {
	calo, err := Preset("calo")
	if err != nil {
		t.Fatalf("Preset(calo): %v", err)
	}
	cells, err := Preset("anomalous_cells")
	if err != nil {
		t.Fatalf("Preset(anomalous_cells): %v", err)
	}
	ca, err := Preset("ca_subjet_filter")
	if err != nil {
		t.Fatalf("Preset(ca_subjet_filter): %v", err)
	}

	cfg := Merge(Merge(calo, cells), ca)

	if cfg.GetJetAlgorithm() != "CambridgeAachen" {
		t.Errorf("algorithm = %q", cfg.GetJetAlgorithm())
	}
	if cfg.GetRParam() != 1.2 {
		t.Errorf("r_param = %f, want 1.2", cfg.GetRParam())
	}
	if cfg.GetSrc() != "towerMaker" {
		t.Errorf("src = %q", cfg.GetSrc())
	}
	if !cfg.GetDoPVCorrection() {
		t.Error("calo block should enable vertex correction")
	}

	// Merge must not alias the inputs.
	*cfg.RParam = 0.7
	if ca.GetRParam() != 1.2 {
		t.Errorf("override mutated through merged config: %f", ca.GetRParam())
	}

	if _, err := Preset("nope"); err == nil {
		t.Error("expected error for unknown preset")
	}
}

func TestValidate_Table(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *ProducerConfig
		wantErr bool
	}{
		{"empty", &ProducerConfig{}, false},
		{"negative et min", &ProducerConfig{InputEtMin: ptrFloat64(-1)}, true},
		{"negative e min", &ProducerConfig{InputEMin: ptrFloat64(-0.1)}, true},
		{"negative jet pt", &ProducerConfig{JetPtMin: ptrFloat64(-3)}, true},
		{"negative nsigma", &ProducerConfig{NSigmaPU: ptrFloat64(-1)}, true},
		{"zero ghost area", &ProducerConfig{GhostArea: ptrFloat64(0)}, true},
		{"ghost grid too fine", &ProducerConfig{GhostArea: ptrFloat64(0.01), GhostEtaMax: ptrFloat64(5)}, true},
		{"ghost grid at default", &ProducerConfig{GhostArea: ptrFloat64(0.1), GhostEtaMax: ptrFloat64(5)}, false},
		{"restricted", &ProducerConfig{RestrictInputs: ptrBool(true), MaxInputs: ptrInt(100)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
