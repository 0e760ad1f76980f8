// Package l5clustering owns Layer 5 (Clustering) of the jet data model.
//
// Responsibilities: the clustering engine boundary. The engine is a black
// box that turns an ordered list of four-momenta into jets whose
// constituents are positions in that list. FastJet adapts
// go-hep.org/x/hep/fastjet, with ghost-based jet areas.
// Key types: Engine, Definition, Algorithm, Jet, FastJet.
//
// Dependency rule: L5 may depend on L1-L4, but never on L6.
package l5clustering
