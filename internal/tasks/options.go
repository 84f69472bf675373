package tasks

import (
	"log/slog"
	"runtime"
	"time"
)

// Option is a functional option shared by Aggregator, Mutator and Roller.
type Option func(*settings)

type settings struct {
	now     func() time.Time
	logger  *slog.Logger
	workers int
}

func newSettings(opts []Option) settings {
	s := settings{
		now:     time.Now,
		logger:  slog.New(slog.DiscardHandler),
		workers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithClock overrides the source of "today".
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger used for diagnostics such as skipped notes.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithScanWorkers limits how many notes are read concurrently while
// scanning.
func WithScanWorkers(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.workers = n
		}
	}
}
