// Package l2geometry owns Layer 2 (Geometry) of the jet data model.
//
// Responsibilities: the detector geometry snapshot seen by the producer,
// the dense tower index built from it, and the process-scoped cache that
// rebuilds the index only when the snapshot identity changes.
// Key types: Snapshot, StaticSnapshot, TowerIndex, IndexCache.
//
// Dependency rule: L2 may depend on L1, but never on L3+.
package l2geometry
