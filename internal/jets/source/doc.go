// Package source provides the event and setup collaborators of the jet
// producer: in-memory events, JSON event and geometry files, and LCIO
// files read through go-hep.org/x/hep/lcio.
package source
