package worker

import (
	"github.com/okian/tally/internal/domain/dedupe"
	"github.com/okian/tally/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(logger logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithDeduper shares a deduper between workers so a session result is
// folded in at most once.
func WithDeduper(d dedupe.Deduper) Option {
	return func(w *InMemoryWorker) {
		if d != nil {
			w.deduper = d
		}
	}
}
