// Package pipeline runs the jet producer for one event.
//
// The Producer is the composition root: it resolves the configuration
// once, then for each event stages the inputs, optionally runs the
// pileup offset correction (cluster, orphans, pedestal, subtraction),
// clusters the final input and builds the typed jet records. Products
// reach the Sink only after a complete successful pass.
//
// The collaborators (Event, Setup, Sink) and the overridable steps
// (Stager, PedestalEstimator, PedestalSubtractor, l6jets.Writer,
// l5clustering.Engine) are interfaces so that alternative
// implementations can be composed through Options.
package pipeline
