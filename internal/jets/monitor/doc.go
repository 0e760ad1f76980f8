// Package monitor observes a running producer: rolling production
// statistics, pedestal and rho plots, and the HTTP routes that expose
// metrics and stored products.
//
// Everything here consumes pipeline.Products through the pipeline.Sink
// interface and never feeds back into reconstruction.
package monitor
