package l3staging

import (
	"errors"

	"github.com/banshee-data/jetreco/internal/jets/l1inputs"
)

// ErrAlreadySubtracted is returned by Subtract when the input has already
// been consumed by, or produced by, a pedestal subtraction.
var ErrAlreadySubtracted = errors.New("staged input already pedestal-subtracted")

// Entry is one clustering input.
type Entry struct {
	Source int // index into the event's candidate sequence
	Ring   int // ieta, 0 when no tower index was available
	P4     l1inputs.FourMomentum
	Offset float64 // energy removed by pedestal subtraction
}

// StagedInput is the ordered clustering input of one pass. Position i of
// the clustering input is Entry(i).
type StagedInput struct {
	entries    []Entry
	consumed   bool
	subtracted bool
}

// NewStagedInput wraps entries. The slice is owned by the result.
func NewStagedInput(entries []Entry) *StagedInput {
	return &StagedInput{entries: entries}
}

// Len returns the number of entries.
func (s *StagedInput) Len() int { return len(s.entries) }

// Entry returns position i.
func (s *StagedInput) Entry(i int) Entry { return s.entries[i] }

// Entries returns the entries in staging order. The slice must not be modified.
func (s *StagedInput) Entries() []Entry { return s.entries }

// Momenta returns the four-momenta in staging order.
func (s *StagedInput) Momenta() []l1inputs.FourMomentum {
	out := make([]l1inputs.FourMomentum, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.P4
	}
	return out
}

// Subtracted reports whether this input is the result of a subtraction.
func (s *StagedInput) Subtracted() bool { return s.subtracted }

// Consumed reports whether this input has been handed to Subtract.
func (s *StagedInput) Consumed() bool { return s.consumed }

// Pedestal gives the per-ring offset parameters.
type Pedestal interface {
	Ring(ieta int) (mean, sigma float64)
}

// Subtract removes mean + nSigma·sigma of the entry's ring from each
// entry's energy, rescaling the four-momentum. Entries left with no
// positive energy are dropped. The receiver is consumed: a second call, or
// a call on the result, returns ErrAlreadySubtracted.
func (s *StagedInput) Subtract(p Pedestal, nSigma float64) (*StagedInput, error) {
	if s.consumed || s.subtracted {
		return nil, ErrAlreadySubtracted
	}
	s.consumed = true

	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		mean, sigma := p.Ring(e.Ring)
		offset := mean + nSigma*sigma
		if e.P4.E <= 0 {
			continue
		}
		remaining := e.P4.E - offset
		if remaining <= 0 {
			continue
		}
		e.P4 = e.P4.Scale(remaining / e.P4.E)
		e.Offset = offset
		out = append(out, e)
	}
	return &StagedInput{entries: out, subtracted: true}, nil
}
