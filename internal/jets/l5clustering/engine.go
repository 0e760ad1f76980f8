package l5clustering

import (
	"errors"
	"fmt"
	"strings"

	"github.com/banshee-data/jetreco/internal/jets/l1inputs"
	"github.com/banshee-data/jetreco/internal/jets/l4pileup"
)

// ErrUnknownAlgorithm is returned for algorithm names the engine cannot run.
var ErrUnknownAlgorithm = errors.New("unknown jet algorithm")

// Algorithm is a sequential-recombination jet algorithm.
type Algorithm int

const (
	AntiKt Algorithm = iota
	Kt
	CambridgeAachen
)

func (a Algorithm) String() string {
	switch a {
	case AntiKt:
		return "AntiKt"
	case Kt:
		return "Kt"
	case CambridgeAachen:
		return "CambridgeAachen"
	}
	return fmt.Sprintf("Algorithm(%d)", int(a))
}

// pluginAlgorithms are cone algorithms that need a fastjet plugin.
var pluginAlgorithms = map[string]bool{
	"siscone":          true,
	"iterativecone":    true,
	"cdfmidpoint":      true,
	"atlascone":        true,
	"cmsiterativecone": true,
}

// ParseAlgorithm resolves an algorithm name, case-insensitively.
func ParseAlgorithm(name string) (Algorithm, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	switch key {
	case "antikt", "anti-kt", "anti_kt":
		return AntiKt, nil
	case "kt":
		return Kt, nil
	case "cambridgeaachen", "cambridge", "ca":
		return CambridgeAachen, nil
	}
	if pluginAlgorithms[key] {
		return 0, fmt.Errorf("%w: %q needs a plugin engine", ErrUnknownAlgorithm, name)
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

// Definition configures one clustering call.
type Definition struct {
	Algorithm   Algorithm
	R           float64
	Area        bool // ghost-based jet areas
	GhostArea   float64
	GhostEtaMax float64
}

// Jet is one engine output. Constituents are positions in the input list.
type Jet struct {
	P4           l1inputs.FourMomentum
	Constituents []int
	Area         float64
	HasArea      bool
}

// Footprint returns the view of the jet used by the pileup layer.
func (j Jet) Footprint() l4pileup.Footprint {
	return l4pileup.Footprint{Axis: j.P4, Constituents: j.Constituents, Area: j.Area}
}

// Footprints converts a jet list.
func Footprints(jets []Jet) []l4pileup.Footprint {
	out := make([]l4pileup.Footprint, len(jets))
	for i, j := range jets {
		out[i] = j.Footprint()
	}
	return out
}

// Engine clusters inputs. Jets are returned ordered by descending pt.
type Engine interface {
	Cluster(inputs []l1inputs.FourMomentum, def Definition) ([]Jet, error)
}

// EngineFunc adapts a function to Engine.
type EngineFunc func(inputs []l1inputs.FourMomentum, def Definition) ([]Jet, error)

// Cluster calls f.
func (f EngineFunc) Cluster(inputs []l1inputs.FourMomentum, def Definition) ([]Jet, error) {
	return f(inputs, def)
}
