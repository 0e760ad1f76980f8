package pipeline

import "strings"

// State is a step of the offset-correction driver.
type State int

const (
	StateInit State = iota
	StateStaged
	StateClusteredFirst
	StateOrphansComputed
	StatePedestalEstimated
	StateSubtracted
	StateClusteredFinal
)

var stateNames = [...]string{
	"init", "staged", "clustered_first", "orphans_computed",
	"pedestal_estimated", "subtracted", "clustered_final",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// next lists the legal transitions. Staged may go straight to the final
// clustering when the correction is disabled or skipped.
var next = map[State][]State{
	StateInit:              {StateStaged},
	StateStaged:            {StateClusteredFirst, StateClusteredFinal},
	StateClusteredFirst:    {StateOrphansComputed},
	StateOrphansComputed:   {StatePedestalEstimated},
	StatePedestalEstimated: {StateSubtracted},
	StateSubtracted:        {StateClusteredFinal},
}

// Trace records the states visited for one event.
type Trace []State

// Corrected reports whether the pedestal subtraction ran.
func (t Trace) Corrected() bool {
	for _, s := range t {
		if s == StateSubtracted {
			return true
		}
	}
	return false
}

func (t Trace) String() string {
	parts := make([]string, len(t))
	for i, s := range t {
		parts[i] = s.String()
	}
	return strings.Join(parts, " -> ")
}

// driver enforces the state order of one event.
type driver struct {
	trace Trace
}

func newDriver() *driver {
	return &driver{trace: Trace{StateInit}}
}

func (d *driver) state() State { return d.trace[len(d.trace)-1] }

// advance moves to s, panicking on an illegal transition.
func (d *driver) advance(s State) {
	for _, ok := range next[d.state()] {
		if ok == s {
			d.trace = append(d.trace, s)
			return
		}
	}
	panic("pipeline: illegal transition " + d.state().String() + " -> " + s.String())
}
