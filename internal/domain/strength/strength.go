// Package strength scores a competition by the post-event standing of its
// best participants.
package strength

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Octave-byte/cube-ranking/internal/domain/model"
)

// Default evaluation constants.
const (
	defaultTopN = 10
)

// ErrUndated rejects a competition without a start date.
var ErrUndated = errors.New("competition has no date")

// Snapshots looks up a person's first weekly row on or after a date.
type Snapshots interface {
	NextOnOrAfter(ctx context.Context, personID string, date time.Time) (model.PlayerWeek, bool)
}

// Option applies a configuration option to the Evaluator.
type Option func(*Evaluator)

// WithTopN sets how many participants each mean covers.
func WithTopN(n int) Option {
	return func(e *Evaluator) {
		if n > 0 {
			e.topN = n
		}
	}
}

// Evaluator computes CompetitionStat rows. It only reads its inputs and is
// safe for concurrent use.
type Evaluator struct {
	snaps        Snapshots
	participants map[string][]string
	topN         int
}

// New creates an Evaluator over a snapshot index and the participant lists
// keyed by competition id.
func New(snaps Snapshots, participants map[string][]string, opts ...Option) *Evaluator {
	e := &Evaluator{
		snaps:        snaps,
		participants: participants,
		topN:         defaultTopN,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate computes the stat of c. A competition without participants
// returns model.ErrEmptyPopulation; one whose participants have no later
// standing returns a stat holding only its id.
func (e *Evaluator) Evaluate(ctx context.Context, c model.Competition) (model.CompetitionStat, error) {
	if c.DateFrom.IsZero() {
		return model.CompetitionStat{}, fmt.Errorf("%s: %w", c.ID, ErrUndated)
	}
	people := e.participants[c.ID]
	if len(people) == 0 {
		return model.CompetitionStat{}, fmt.Errorf("%s: %w", c.ID, model.ErrEmptyPopulation)
	}

	from := model.Day(c.DateFrom)
	valid := make([]model.PlayerWeek, 0, len(people))
	for _, id := range people {
		if err := ctx.Err(); err != nil {
			return model.CompetitionStat{}, err
		}
		if row, ok := e.snaps.NextOnOrAfter(ctx, id, from); ok {
			valid = append(valid, row)
		}
	}

	stat := model.CompetitionStat{CompetitionID: c.ID}
	if len(valid) == 0 {
		return stat, nil
	}

	byRank := e.top(valid, func(p model.PlayerWeek) int { return p.Rank90Best })
	stat.Rank90AvgAvg = mean(byRank, func(p model.PlayerWeek) int { return p.Rank90Avg })
	stat.Rank365AvgAvg = mean(byRank, func(p model.PlayerWeek) int { return p.Rank365Avg })

	byPerf := e.top(valid, func(p model.PlayerWeek) int { return p.Average90 })
	stat.Perf90Avg = mean(byPerf, func(p model.PlayerWeek) int { return p.Average90 })
	stat.Perf365Avg = mean(byPerf, func(p model.PlayerWeek) int { return p.Average365 })
	return stat, nil
}

// top returns up to topN rows with the lowest key, ties by person id.
func (e *Evaluator) top(rows []model.PlayerWeek, key func(model.PlayerWeek) int) []model.PlayerWeek {
	sorted := make([]model.PlayerWeek, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool {
		ki, kj := key(sorted[i]), key(sorted[j])
		if ki != kj {
			return ki < kj
		}
		return sorted[i].PersonID < sorted[j].PersonID
	})
	if len(sorted) > e.topN {
		sorted = sorted[:e.topN]
	}
	return sorted
}

func mean(rows []model.PlayerWeek, field func(model.PlayerWeek) int) *float64 {
	if len(rows) == 0 {
		return nil
	}
	var sum float64
	for _, r := range rows {
		sum += float64(field(r))
	}
	v := sum / float64(len(rows))
	return &v
}
