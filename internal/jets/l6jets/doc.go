// Package l6jets owns Layer 6 (Jets) of the jet data model.
//
// Responsibilities: the closed set of output jet types, the typed jet
// records with their variant-specific sums, the writers that fill them
// from constituents, and the Output Builder that turns engine jets into
// records.
// Key types: JetType, Record, Jet, Writer, Builder.
//
// Dependency rule: L6 may depend on L1-L5.
package l6jets
