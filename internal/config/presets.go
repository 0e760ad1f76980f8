package config

import (
	"fmt"
	"sort"
)

// Shared parameter blocks. A producer configuration is one of these blocks
// plus the anomalous cell block plus per-producer overrides, merged with
// Merge.
var presets = map[string]func() *ProducerConfig{
	"calo": func() *ProducerConfig {
		return &ProducerConfig{
			Src:            ptrString("towerMaker"),
			SrcPVs:         ptrString("offlinePrimaryVertices"),
			JetType:        ptrString("CaloJet"),
			DoPVCorrection: ptrBool(true),
			InputEtMin:     ptrFloat64(0.3),
			InputEMin:      ptrFloat64(0.0),
			JetPtMin:       ptrFloat64(3.0),
			DoPUOffsetCorr: ptrBool(false),
			NSigmaPU:       ptrFloat64(1.0),
			RadiusPU:       ptrFloat64(0.5),
			GhostArea:      ptrFloat64(0.1),
			GhostEtaMax:    ptrFloat64(5.0),
			RhoEtaMax:      ptrFloat64(4.4),
		}
	},
	"pf": func() *ProducerConfig {
		return &ProducerConfig{
			Src:            ptrString("particleFlow"),
			SrcPVs:         ptrString(""),
			JetType:        ptrString("PFJet"),
			DoPVCorrection: ptrBool(false),
			InputEtMin:     ptrFloat64(0.0),
			InputEMin:      ptrFloat64(0.0),
			JetPtMin:       ptrFloat64(3.0),
		}
	},
	"gen": func() *ProducerConfig {
		return &ProducerConfig{
			Src:            ptrString("genParticlesForJets"),
			SrcPVs:         ptrString(""),
			JetType:        ptrString("GenJet"),
			DoPVCorrection: ptrBool(false),
			InputEtMin:     ptrFloat64(0.0),
			InputEMin:      ptrFloat64(0.0),
			JetPtMin:       ptrFloat64(3.0),
		}
	},
	"track": func() *ProducerConfig {
		return &ProducerConfig{
			Src:            ptrString("trackRefsForJets"),
			SrcPVs:         ptrString("offlinePrimaryVertices"),
			JetType:        ptrString("TrackJet"),
			DoPVCorrection: ptrBool(false),
			InputEtMin:     ptrFloat64(0.0),
			InputEMin:      ptrFloat64(0.0),
			JetPtMin:       ptrFloat64(1.0),
		}
	},
	"basic": func() *ProducerConfig {
		return &ProducerConfig{
			JetType:  ptrString("BasicJet"),
			JetPtMin: ptrFloat64(0.0),
		}
	},
	"anomalous_cells": func() *ProducerConfig {
		return &ProducerConfig{
			MaxBadEcalCells:         ptrUint32(DefaultAnomalousCellLimit),
			MaxRecoveredEcalCells:   ptrUint32(DefaultAnomalousCellLimit),
			MaxProblematicEcalCells: ptrUint32(DefaultAnomalousCellLimit),
			MaxBadHcalCells:         ptrUint32(DefaultAnomalousCellLimit),
			MaxRecoveredHcalCells:   ptrUint32(DefaultAnomalousCellLimit),
			MaxProblematicHcalCells: ptrUint32(DefaultAnomalousCellLimit),
		}
	},
	// Cambridge-Aachen fat jets for subjet filtering.
	"ca_subjet_filter": func() *ProducerConfig {
		return &ProducerConfig{
			JetAlgorithm:   ptrString("CambridgeAachen"),
			RParam:         ptrFloat64(1.2),
			RestrictInputs: ptrBool(false),
			MaxInputs:      ptrInt(1),
		}
	},
}

// Preset returns a fresh copy of the named parameter block.
func Preset(name string) (*ProducerConfig, error) {
	f, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown config preset %q (known: %v)", name, PresetNames())
	}
	return f(), nil
}

// PresetNames lists the known parameter blocks in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merge returns a config where every field set in override replaces the
// value in base. Neither argument is modified.
func Merge(base, override *ProducerConfig) *ProducerConfig {
	out := *base
	if override == nil {
		return &out
	}
	mergeString(&out.Src, override.Src)
	mergeString(&out.SrcPVs, override.SrcPVs)
	mergeString(&out.JetType, override.JetType)
	mergeString(&out.JetAlgorithm, override.JetAlgorithm)
	mergeFloat(&out.RParam, override.RParam)
	mergeFloat(&out.JetPtMin, override.JetPtMin)
	mergeFloat(&out.InputEtMin, override.InputEtMin)
	mergeFloat(&out.InputEMin, override.InputEMin)
	mergeBool(&out.DoPVCorrection, override.DoPVCorrection)
	mergeBool(&out.RestrictInputs, override.RestrictInputs)
	if override.MaxInputs != nil {
		out.MaxInputs = ptrInt(*override.MaxInputs)
	}
	mergeBool(&out.DoAreaFastjet, override.DoAreaFastjet)
	mergeBool(&out.DoRhoFastjet, override.DoRhoFastjet)
	mergeFloat(&out.RhoEtaMax, override.RhoEtaMax)
	mergeFloat(&out.GhostArea, override.GhostArea)
	mergeFloat(&out.GhostEtaMax, override.GhostEtaMax)
	mergeBool(&out.DoPUOffsetCorr, override.DoPUOffsetCorr)
	mergeFloat(&out.NSigmaPU, override.NSigmaPU)
	mergeFloat(&out.RadiusPU, override.RadiusPU)
	mergeBool(&out.NormalizeByGeometry, override.NormalizeByGeometry)
	mergeUint32(&out.MaxBadEcalCells, override.MaxBadEcalCells)
	mergeUint32(&out.MaxRecoveredEcalCells, override.MaxRecoveredEcalCells)
	mergeUint32(&out.MaxProblematicEcalCells, override.MaxProblematicEcalCells)
	mergeUint32(&out.MaxBadHcalCells, override.MaxBadHcalCells)
	mergeUint32(&out.MaxRecoveredHcalCells, override.MaxRecoveredHcalCells)
	mergeUint32(&out.MaxProblematicHcalCells, override.MaxProblematicHcalCells)
	mergeString(&out.JetCollInstanceName, override.JetCollInstanceName)
	return &out
}

func mergeString(dst **string, v *string) {
	if v != nil {
		*dst = ptrString(*v)
	}
}

func mergeFloat(dst **float64, v *float64) {
	if v != nil {
		*dst = ptrFloat64(*v)
	}
}

func mergeBool(dst **bool, v *bool) {
	if v != nil {
		*dst = ptrBool(*v)
	}
}

func mergeUint32(dst **uint32, v *uint32) {
	if v != nil {
		*dst = ptrUint32(*v)
	}
}
