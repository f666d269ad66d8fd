package model

import "time"

// Metrics holds the four rolling minima, in centiseconds.
type Metrics struct {
	Best90     int `json:"best_90"`
	Average90  int `json:"average_90"`
	Best365    int `json:"best_365"`
	Average365 int `json:"average_365"`
}

// Min returns the field-wise minimum of m and o.
func (m Metrics) Min(o Metrics) Metrics {
	return Metrics{
		Best90:     min(m.Best90, o.Best90),
		Average90:  min(m.Average90, o.Average90),
		Best365:    min(m.Best365, o.Best365),
		Average365: min(m.Average365, o.Average365),
	}
}

// RollingMetric is the trailing-window minimum at one observed result date.
type RollingMetric struct {
	PersonID string    `json:"personId"`
	Date     time.Time `json:"date"`
	Metrics
}

// WeeklyRecord is a RollingMetric projected onto a Monday-anchored week.
type WeeklyRecord struct {
	PersonID string    `json:"personId"`
	Week     time.Time `json:"date"`
	Metrics
}

// Ranks holds the four rank positions of one scope. Zero means unranked.
type Ranks struct {
	Best90     int
	Average90  int
	Best365    int
	Average365 int
}

// RankRecord carries the world and national ranks of one person in one week.
type RankRecord struct {
	PersonID string
	Week     time.Time
	Country  string
	World    Ranks
	National Ranks
}

// PlayerWeek is the weekly participant table row: WeeklyRecord and
// RankRecord merged on (PersonID, Week).
type PlayerWeek struct {
	PersonID string    `json:"personId"`
	Week     time.Time `json:"date"`
	Country  string    `json:"country,omitempty"`

	Best90     int `json:"best_90"`
	Average90  int `json:"average_90"`
	Best365    int `json:"best_365"`
	Average365 int `json:"average_365"`

	Rank90Best     int `json:"rank90best"`
	Rank90Avg      int `json:"rank90avg"`
	Rank365Best    int `json:"rank365best"`
	Rank365Avg     int `json:"rank365avg"`
	Rank90BestNat  int `json:"rank90best_national,omitempty"`
	Rank90AvgNat   int `json:"rank90avg_national,omitempty"`
	Rank365BestNat int `json:"rank365best_national,omitempty"`
	Rank365AvgNat  int `json:"rank365avg_national,omitempty"`
}

// NewPlayerWeek merges a weekly record with its rank record.
func NewPlayerWeek(w WeeklyRecord, r RankRecord) PlayerWeek {
	return PlayerWeek{
		PersonID:       w.PersonID,
		Week:           w.Week,
		Country:        r.Country,
		Best90:         w.Best90,
		Average90:      w.Average90,
		Best365:        w.Best365,
		Average365:     w.Average365,
		Rank90Best:     r.World.Best90,
		Rank90Avg:      r.World.Average90,
		Rank365Best:    r.World.Best365,
		Rank365Avg:     r.World.Average365,
		Rank90BestNat:  r.National.Best90,
		Rank90AvgNat:   r.National.Average90,
		Rank365BestNat: r.National.Best365,
		Rank365AvgNat:  r.National.Average365,
	}
}

// CompetitionStat is the strength-of-field row of one competition. The
// optional fields are nil when no participant had a post-competition record.
type CompetitionStat struct {
	CompetitionID string   `json:"competition_id"`
	Rank90AvgAvg  *float64 `json:"rank90avg_avg,omitempty"`
	Rank365AvgAvg *float64 `json:"rank365avg_avg,omitempty"`
	Perf90Avg     *float64 `json:"perf90avg,omitempty"`
	Perf365Avg    *float64 `json:"perf365avg,omitempty"`
}
