package monitor

import (
	"github.com/banshee-data/jetreco/internal/jets/pipeline"
)

// Tee returns a Sink that hands every product set to each of sinks in
// order and stops at the first error, so sinks after a failing one never
// see the event. Nil sinks are skipped.
func Tee(sinks ...pipeline.Sink) pipeline.Sink {
	return pipeline.SinkFunc(func(instance string, p *pipeline.Products) error {
		for _, s := range sinks {
			if s == nil {
				continue
			}
			if err := s.Put(instance, p); err != nil {
				return err
			}
		}
		return nil
	})
}
