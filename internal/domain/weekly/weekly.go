// Package weekly projects sparse rolling metrics onto a dense Monday-anchored
// weekly grid per person.
package weekly

import (
	"context"
	"time"

	"github.com/Octave-byte/cube-ranking/internal/domain/dedupe"
	"github.com/Octave-byte/cube-ranking/internal/domain/model"
)

// Resampler builds the WeeklyRecord table.
type Resampler struct{}

// New creates a Resampler.
func New() *Resampler {
	return &Resampler{}
}

// Resample collapses rolling rows by (person, week) with a field-wise minimum,
// then forward-fills every week between the person's first and last observed
// week. Persons keep their order of first appearance; weeks are ascending.
func (r *Resampler) Resample(ctx context.Context, rows []model.RollingMetric) []model.WeeklyRecord {
	order := make([]string, 0)
	byPerson := make(map[string]map[time.Time]model.Metrics)
	for _, row := range rows {
		weeks, ok := byPerson[row.PersonID]
		if !ok {
			weeks = make(map[time.Time]model.Metrics)
			byPerson[row.PersonID] = weeks
			order = append(order, row.PersonID)
		}
		w := model.WeekOf(row.Date)
		if m, seen := weeks[w]; seen {
			weeks[w] = m.Min(row.Metrics)
		} else {
			weeks[w] = row.Metrics
		}
	}

	out := make([]model.WeeklyRecord, 0, len(rows))
	for _, id := range order {
		out = append(out, r.fill(id, byPerson[id])...)
	}
	out, _ = dedupe.KeepFirst(ctx, out, func(w model.WeeklyRecord) string {
		return dedupe.Key(w.Week.Format(model.DateLayout), w.PersonID)
	})
	return out
}

// fill walks the grid of one person, carrying the last observation forward.
func (r *Resampler) fill(id string, weeks map[time.Time]model.Metrics) []model.WeeklyRecord {
	var first, last time.Time
	for w := range weeks {
		if first.IsZero() || w.Before(first) {
			first = w
		}
		if w.After(last) {
			last = w
		}
	}

	grid := make([]model.WeeklyRecord, 0, model.DaysBetween(first, last)/7+1)
	var current model.Metrics
	for w := first; !w.After(last); w = w.AddDate(0, 0, 7) {
		if m, ok := weeks[w]; ok {
			current = m
		}
		grid = append(grid, model.WeeklyRecord{PersonID: id, Week: w, Metrics: current})
	}
	return grid
}
