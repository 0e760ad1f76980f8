// Package l4pileup owns Layer 4 (Pileup) of the jet data model.
//
// Responsibilities: deciding which staged inputs were left unclustered by
// the first pass (orphans), estimating the per-ring pedestal from them,
// applying the pedestal subtraction, and the median rho/sigma estimate
// used with jet areas.
// Key types: Footprint, RingStatistics, Estimator.
//
// Dependency rule: L4 may depend on L1-L3, but never on L5+.
package l4pileup
