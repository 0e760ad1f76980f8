package l6jets

import (
	"fmt"

	"github.com/banshee-data/jetreco/internal/jets/l1inputs"
	"github.com/banshee-data/jetreco/internal/jets/l3staging"
	"github.com/banshee-data/jetreco/internal/jets/l5clustering"
)

// BuildOptions selects the optional fields attached to each record.
type BuildOptions struct {
	Area bool
	// Vertex is attached to every record when non-nil.
	Vertex *l1inputs.Point
	// PileupCorrected attaches the summed offset of the constituents.
	PileupCorrected bool
}

// Builder turns engine jets into records of one jet type.
type Builder struct {
	jetType JetType
	writer  Writer
}

// NewBuilder resolves the writer of t once.
func NewBuilder(t JetType) (*Builder, error) {
	w, err := WriterFor(t)
	if err != nil {
		return nil, err
	}
	return &Builder{jetType: t, writer: w}, nil
}

// NewBuilderWithWriter uses w for records of type t.
func NewBuilderWithWriter(t JetType, w Writer) *Builder {
	return &Builder{jetType: t, writer: w}
}

// JetType returns the record type the builder produces.
func (b *Builder) JetType() JetType { return b.jetType }

// Build returns one record per jet, in engine order. Constituent staging
// positions are resolved through staged to refs into cands.
func (b *Builder) Build(jets []l5clustering.Jet, staged *l3staging.StagedInput, cands []l1inputs.Candidate, opts BuildOptions) ([]Record, error) {
	out := make([]Record, 0, len(jets))
	for k, j := range jets {
		base := Jet{P4: j.P4, Constituents: make([]Ref, 0, len(j.Constituents))}
		members := make([]*l1inputs.Candidate, 0, len(j.Constituents))
		for _, pos := range j.Constituents {
			if pos < 0 || pos >= staged.Len() {
				return nil, fmt.Errorf("jet %d: constituent position %d outside staged input of %d", k, pos, staged.Len())
			}
			entry := staged.Entry(pos)
			if entry.Source < 0 || entry.Source >= len(cands) {
				return nil, fmt.Errorf("jet %d: candidate ref %d outside event of %d", k, entry.Source, len(cands))
			}
			base.Constituents = append(base.Constituents, Ref(entry.Source))
			members = append(members, &cands[entry.Source])
			if opts.PileupCorrected {
				base.PileupEnergy += entry.Offset
			}
		}
		if opts.Area && j.HasArea {
			base.Area = j.Area
			base.HasArea = true
		}
		if opts.Vertex != nil {
			base.Vertex = *opts.Vertex
		}
		out = append(out, b.writer.Write(base, members))
	}
	return out, nil
}
