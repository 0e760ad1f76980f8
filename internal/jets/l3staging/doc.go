// Package l3staging owns Layer 3 (Staging) of the jet data model.
//
// Responsibilities: turning an event's candidates into the ordered
// clustering input (cuts, anomalous tower filter, vertex correction, ring
// location, top-N restriction) and the at-most-once pedestal subtraction
// of that input.
// Key types: StagedInput, Entry, Stager, StageReport.
//
// Dependency rule: L3 may depend on L1 and L2, but never on L4+.
package l3staging
