package service

import (
	"time"

	"github.com/Octave-byte/cube-ranking/internal/domain/model"
	"github.com/Octave-byte/cube-ranking/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithWorkerCount sets the width of the competition worker pool.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithPopulationCap keeps the best n persons by mean average; 0 keeps all.
func WithPopulationCap(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.populationCap = n
		}
	}
}

// WithWindows sets the short and long rolling windows in days.
func WithWindows(short, long int) Option {
	return func(s *Service) {
		if short > 0 && long >= short {
			s.shortWindow = short
			s.longWindow = long
		}
	}
}

// WithTopN sets the number of participants each competition mean covers.
func WithTopN(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.topN = n
		}
	}
}

// WithStrict selects fail-fast handling of malformed input rows.
func WithStrict(strict bool) Option {
	return func(s *Service) {
		s.strict = strict
	}
}

// WithReferenceEvent sets the event an eligible competition must hold.
func WithReferenceEvent(code string) Option {
	return func(s *Service) {
		if code != "" {
			s.referenceEvent = code
		}
	}
}

// WithHistoryStart drops competitions before t.
func WithHistoryStart(t time.Time) Option {
	return func(s *Service) {
		s.historyStart = model.Day(t)
	}
}

// WithCompetitionCutoff sets the first date the competition stage scores.
func WithCompetitionCutoff(t time.Time) Option {
	return func(s *Service) {
		s.cutoff = model.Day(t)
	}
}

// WithWeeklyFrom drops earlier weeks from the emitted weekly table. Zero
// emits everything.
func WithWeeklyFrom(t time.Time) Option {
	return func(s *Service) {
		if !t.IsZero() {
			s.weeklyFrom = model.WeekOf(t)
		}
	}
}

// WithLatestTTL sets how long the latest views stay cached.
func WithLatestTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.latestTTL = ttl
		}
	}
}
