package cmd

import (
	"context"

	log "github.com/sirupsen/logrus"
)

type shutdownStep struct {
	name string
	fn   func(ctx context.Context) error
}

// shutdownStack collects cleanups as components start and runs them in
// reverse order, so an early startup failure still stops what already runs.
type shutdownStack struct {
	steps []shutdownStep
}

func (s *shutdownStack) push(name string, fn func(ctx context.Context) error) {
	s.steps = append(s.steps, shutdownStep{name: name, fn: fn})
}

// run executes every step, newest first. A failing step is logged and does
// not stop the rest.
func (s *shutdownStack) run(ctx context.Context) {
	for i := len(s.steps) - 1; i >= 0; i-- {
		step := s.steps[i]
		if err := step.fn(ctx); err != nil {
			log.WithFields(log.Fields{
				"component": step.name,
				"error":     err,
			}).Error("Error during shutdown")
		}
	}
	s.steps = nil
}
