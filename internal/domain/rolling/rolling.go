// Package rolling computes per-person trailing-window minima of best and
// average at every date the person produced a result.
package rolling

import (
	"context"
	"sort"
	"time"

	"github.com/Octave-byte/cube-ranking/internal/domain/model"
	"github.com/Octave-byte/cube-ranking/pkg/logger"
)

// Default window configuration constants.
const (
	defaultShortWindow   = 90
	defaultLongWindow    = 365
	defaultPopulationCap = 20000
)

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithWindows sets the short and long window lengths in days. Pairs where the
// long window is shorter than the short one are ignored.
func WithWindows(short, long int) Option {
	return func(a *Aggregator) {
		if short > 0 && long >= short {
			a.short = short
			a.long = long
		}
	}
}

// WithPopulationCap keeps only the best n persons by mean average. n <= 0
// keeps everyone.
func WithPopulationCap(n int) Option {
	return func(a *Aggregator) {
		a.populationCap = n
	}
}

// WithStrict makes results of undated competitions an error instead of a
// skipped row.
func WithStrict(strict bool) Option {
	return func(a *Aggregator) {
		a.strict = strict
	}
}

// WithLogger sets the logger used to report skipped rows.
func WithLogger(l logger.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.log = l
		}
	}
}

// Aggregator builds the RollingMetric table.
type Aggregator struct {
	short         int
	long          int
	populationCap int
	strict        bool
	log           logger.Logger
}

// New creates an Aggregator with 90/365 day windows and a 20000 person cap.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		short:         defaultShortWindow,
		long:          defaultLongWindow,
		populationCap: defaultPopulationCap,
		strict:        true,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// observation is one result placed on the calendar.
type observation struct {
	date    time.Time
	best    int
	average int
}

// Population returns the person ids kept by the cap, best mean average
// first. Ties keep the order of first appearance in results.
func (a *Aggregator) Population(results []model.Result) []string {
	type acc struct {
		sum   int64
		count int64
	}
	order := make([]string, 0)
	stats := make(map[string]*acc)
	for _, r := range results {
		s, ok := stats[r.PersonID]
		if !ok {
			s = &acc{}
			stats[r.PersonID] = s
			order = append(order, r.PersonID)
		}
		s.sum += int64(r.Average)
		s.count++
	}

	mean := func(id string) float64 {
		s := stats[id]
		return float64(s.sum) / float64(s.count)
	}
	sort.SliceStable(order, func(i, j int) bool { return mean(order[i]) < mean(order[j]) })

	if a.populationCap > 0 && len(order) > a.populationCap {
		order = order[:a.populationCap]
	}
	return order
}

// Compute joins results to their competition dates and emits one row per
// (person, distinct result date) for the capped population. Results of
// competitions missing from comps are dropped.
func (a *Aggregator) Compute(ctx context.Context, results []model.Result, comps []model.Competition) ([]model.RollingMetric, error) {
	dates := make(map[string]time.Time, len(comps))
	for _, c := range comps {
		if _, ok := dates[c.ID]; !ok {
			dates[c.ID] = c.DateFrom
		}
	}

	joined := make([]model.Result, 0, len(results))
	byPerson := make(map[string][]observation)
	for i, r := range results {
		d, ok := dates[r.CompetitionID]
		if !ok {
			continue
		}
		if d.IsZero() {
			err := &model.DataIntegrityError{Row: i, Field: "date_from", Value: r.CompetitionID, Reason: "competition has no date"}
			if a.strict {
				return nil, err
			}
			if a.log != nil {
				a.log.Warn(ctx, "result without competition date skipped", logger.Error(err))
			}
			continue
		}
		joined = append(joined, r)
		byPerson[r.PersonID] = append(byPerson[r.PersonID], observation{date: model.Day(d), best: r.Best, average: r.Average})
	}

	population := a.Population(joined)
	out := make([]model.RollingMetric, 0, len(joined))
	for _, id := range population {
		out = append(out, a.person(id, byPerson[id])...)
	}
	return out, nil
}

// person computes the rolling rows of one person.
func (a *Aggregator) person(id string, obs []observation) []model.RollingMetric {
	sort.SliceStable(obs, func(i, j int) bool { return obs[i].date.Before(obs[j].date) })

	// collapse to one observation per date
	days := make([]time.Time, 0, len(obs))
	best := make([]int, 0, len(obs))
	avg := make([]int, 0, len(obs))
	for _, o := range obs {
		if n := len(days); n > 0 && days[n-1].Equal(o.date) {
			best[n-1] = min(best[n-1], o.best)
			avg[n-1] = min(avg[n-1], o.average)
			continue
		}
		days = append(days, o.date)
		best = append(best, o.best)
		avg = append(avg, o.average)
	}

	b90 := windowMin(days, best, a.short)
	a90 := windowMin(days, avg, a.short)
	b365 := windowMin(days, best, a.long)
	a365 := windowMin(days, avg, a.long)

	rows := make([]model.RollingMetric, len(days))
	for i, d := range days {
		rows[i] = model.RollingMetric{
			PersonID: id,
			Date:     d,
			Metrics: model.Metrics{
				Best90:     b90[i],
				Average90:  a90[i],
				Best365:    b365[i],
				Average365: a365[i],
			},
		}
	}
	return rows
}

// windowMin returns, for every i, the minimum of vals over the dates in
// [days[i]-w, days[i]]. days must be ascending and distinct.
func windowMin(days []time.Time, vals []int, w int) []int {
	out := make([]int, len(vals))
	// indices whose values increase from front to back
	dq := make([]int, 0, len(vals))
	for i := range vals {
		for len(dq) > 0 && vals[dq[len(dq)-1]] >= vals[i] {
			dq = dq[:len(dq)-1]
		}
		dq = append(dq, i)
		for model.DaysBetween(days[dq[0]], days[i]) > w {
			dq = dq[1:]
		}
		out[i] = vals[dq[0]]
	}
	return out
}
