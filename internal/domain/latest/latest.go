// Package latest builds the "latest" views of the two derived tables.
package latest

import (
	"sort"
	"time"

	"github.com/Octave-byte/cube-ranking/internal/domain/model"
)

// CompetitionRow is a CompetitionStat joined with its competition metadata.
type CompetitionRow struct {
	CompetitionID  string    `json:"competition_id"`
	SeriesID       string    `json:"series_id"`
	Name           string    `json:"name,omitempty"`
	City           string    `json:"city,omitempty"`
	Country        string    `json:"country,omitempty"`
	DateFrom       time.Time `json:"date_from"`
	IsChampionship bool      `json:"is_championship"`
	Rank90AvgAvg   *float64  `json:"rank90avg_avg,omitempty"`
	Rank365AvgAvg  *float64  `json:"rank365avg_avg,omitempty"`
	Perf90Avg      *float64  `json:"perf90avg,omitempty"`
	Perf365Avg     *float64  `json:"perf365avg,omitempty"`
}

// Players returns the rows of the most recent week in rows, best world
// 90-day average rank first.
func Players(rows []model.PlayerWeek) []model.PlayerWeek {
	var last time.Time
	for _, r := range rows {
		if r.Week.After(last) {
			last = r.Week
		}
	}
	out := make([]model.PlayerWeek, 0)
	for _, r := range rows {
		if r.Week.Equal(last) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rank90Avg != out[j].Rank90Avg {
			return out[i].Rank90Avg < out[j].Rank90Avg
		}
		return out[i].PersonID < out[j].PersonID
	})
	return out
}

// Competitions joins stats with comps and orders the strongest fields first.
// Stats without a ranking mean go last. Stats of unknown competitions are
// dropped.
func Competitions(stats []model.CompetitionStat, comps []model.Competition) []CompetitionRow {
	meta := make(map[string]model.Competition, len(comps))
	for _, c := range comps {
		if _, ok := meta[c.ID]; !ok {
			meta[c.ID] = c
		}
	}

	out := make([]CompetitionRow, 0, len(stats))
	for _, s := range stats {
		c, ok := meta[s.CompetitionID]
		if !ok {
			continue
		}
		out = append(out, CompetitionRow{
			CompetitionID:  s.CompetitionID,
			SeriesID:       c.SeriesID(),
			Name:           c.Name,
			City:           c.City,
			Country:        c.Country,
			DateFrom:       c.DateFrom,
			IsChampionship: c.IsChampionship,
			Rank90AvgAvg:   s.Rank90AvgAvg,
			Rank365AvgAvg:  s.Rank365AvgAvg,
			Perf90Avg:      s.Perf90Avg,
			Perf365Avg:     s.Perf365Avg,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Rank90AvgAvg, out[j].Rank90AvgAvg
		switch {
		case a == nil && b == nil:
		case a == nil:
			return false
		case b == nil:
			return true
		case *a != *b:
			return *a < *b
		}
		return out[i].CompetitionID < out[j].CompetitionID
	})
	return out
}
