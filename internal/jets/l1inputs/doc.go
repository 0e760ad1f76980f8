// Package l1inputs owns Layer 1 (Inputs) of the jet data model.
//
// Responsibilities: the per-event input candidate record, four-momentum
// arithmetic, and the anomalous tower filter.
// Key types: Candidate, FourMomentum, Tower, AnomalyThresholds.
//
// Dependency rule: L1 depends on nothing else in internal/jets.
package l1inputs
