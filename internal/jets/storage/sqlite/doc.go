// Package sqlite persists jet products in the SQLite schema managed by
// internal/db.
//
// All SQL for events, jets, constituents and ring pedestals lives here
// rather than in the layer packages (l1-l6). JetStore implements
// pipeline.Sink so a Producer can write straight to the database.
package sqlite
