// Package ranking assigns weekly world and national ranks with competition
// ("1224") tie handling.
package ranking

import (
	"context"
	"sort"
	"time"

	"github.com/Octave-byte/cube-ranking/internal/domain/model"
	"github.com/Octave-byte/cube-ranking/pkg/logger"
)

// Option applies a configuration option to the Assigner.
type Option func(*Assigner)

// WithLogger sets the logger used for ranking diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(a *Assigner) {
		if l != nil {
			a.log = l
		}
	}
}

// Assigner ranks every week of the weekly table independently.
type Assigner struct {
	log logger.Logger
}

// New creates an Assigner.
func New(opts ...Option) *Assigner {
	a := &Assigner{}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// metric reads one ranked field from a weekly row.
type metric func(model.WeeklyRecord) int

var fields = [4]metric{ //nolint:gochecknoglobals // fixed field accessors
	func(w model.WeeklyRecord) int { return w.Best90 },
	func(w model.WeeklyRecord) int { return w.Average90 },
	func(w model.WeeklyRecord) int { return w.Best365 },
	func(w model.WeeklyRecord) int { return w.Average365 },
}

// Ranks computes one RankRecord per weekly row, in input order. Persons with
// no country in persons get world ranks only.
func (a *Assigner) Ranks(ctx context.Context, weeks []model.WeeklyRecord, persons []model.Person) []model.RankRecord {
	countries := make(map[string]string, len(persons))
	for _, p := range persons {
		if _, ok := countries[p.ID]; !ok && p.Country != "" {
			countries[p.ID] = p.Country
		}
	}

	out := make([]model.RankRecord, len(weeks))
	byWeek := make(map[time.Time][]int)
	for i, w := range weeks {
		out[i] = model.RankRecord{PersonID: w.PersonID, Week: w.Week, Country: countries[w.PersonID]}
		byWeek[w.Week] = append(byWeek[w.Week], i)
	}

	unranked := 0
	for _, idx := range byWeek {
		rankGroup(weeks, idx, func(i int) *model.Ranks { return &out[i].World })

		byCountry := make(map[string][]int)
		for _, i := range idx {
			if c := out[i].Country; c != "" {
				byCountry[c] = append(byCountry[c], i)
			} else {
				unranked++
			}
		}
		for _, group := range byCountry {
			rankGroup(weeks, group, func(i int) *model.Ranks { return &out[i].National })
		}
	}
	if unranked > 0 && a.log != nil {
		a.log.Debug(ctx, "weekly rows without country", logger.Int("rows", unranked))
	}
	return out
}

// Assign merges every weekly row with its ranks.
func (a *Assigner) Assign(ctx context.Context, weeks []model.WeeklyRecord, persons []model.Person) []model.PlayerWeek {
	ranks := a.Ranks(ctx, weeks, persons)
	out := make([]model.PlayerWeek, len(weeks))
	for i := range weeks {
		out[i] = model.NewPlayerWeek(weeks[i], ranks[i])
	}
	return out
}

// rankGroup ranks the rows at idx on all four metrics and stores the result
// through target.
func rankGroup(weeks []model.WeeklyRecord, idx []int, target func(int) *model.Ranks) {
	values := make([]int, len(idx))
	for m, get := range fields {
		for k, i := range idx {
			values[k] = get(weeks[i])
		}
		for k, r := range MinRank(values) {
			ranks := target(idx[k])
			switch m {
			case 0:
				ranks.Best90 = r
			case 1:
				ranks.Average90 = r
			case 2:
				ranks.Best365 = r
			case 3:
				ranks.Average365 = r
			}
		}
	}
}

// MinRank ranks values ascending. Equal values share the lowest rank of their
// run and the next distinct value ranks one past the count of smaller values.
func MinRank(values []int) []int {
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return values[order[a]] < values[order[b]] })

	ranks := make([]int, len(values))
	for pos, i := range order {
		if pos > 0 && values[i] == values[order[pos-1]] {
			ranks[i] = ranks[order[pos-1]]
			continue
		}
		ranks[i] = pos + 1
	}
	return ranks
}
