// Package synth generates synthetic competition histories for load and
// end-to-end testing of the ranking pipeline.
package synth

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/Octave-byte/cube-ranking/internal/adapters/source"
	"github.com/Octave-byte/cube-ranking/internal/domain/model"
	"github.com/Octave-byte/cube-ranking/pkg/logger"
)

// Config holds generator parameters.
type Config struct {
	Persons      int       // Number of persons
	Competitions int       // Number of competitions
	FieldSize    int       // Upper bound of participants per competition
	Start        time.Time // Date of the first competition
	Days         int       // Span over which competitions are spread
	Seed         uint64    // Same seed, same tables
	Workers      int       // Concurrent competition generators
}

// DefaultConfig returns a small but non-trivial history.
func DefaultConfig() Config {
	return Config{
		Persons:      2000,
		Competitions: 300,
		FieldSize:    120,
		Start:        time.Date(2015, 1, 3, 0, 0, 0, 0, time.UTC),
		Days:         5 * 365,
		Seed:         1,
		Workers:      4,
	}
}

// Stats summarises a generated history.
type Stats struct {
	Persons      int
	Competitions int
	Results      int
	Canceled     int
	NoResults    int
	Took         time.Duration
}

var countries = []string{"US", "CN", "FR", "DE", "BR", "IN", "PL", "AU", "JP", "KR", ""}

// Probabilities in percent.
const (
	canceledPct   = 2
	noEventPct    = 3
	dnfPct        = 6
	firstRoundPct = 60
)

// tier is a performance band in centiseconds.
type tier struct {
	min, span int
}

// Band weights follow a long-tailed field: most competitors are average.
var tiers = []tier{
	{1200, 800},  // average
	{900, 300},   // strong
	{2000, 2000}, // beginner
	{550, 150},   // elite
	{4000, 4000}, // very slow
	{1000, 300},  // upper mid
	{1600, 500},  // lower mid
	{550, 7450},  // anyone
}

// Generate builds a deterministic set of input tables from cfg.
func Generate(ctx context.Context, cfg Config) (source.Tables, Stats, error) {
	if cfg.Persons <= 0 || cfg.Competitions <= 0 {
		return source.Tables{}, Stats{}, fmt.Errorf("synth: persons and competitions must be positive")
	}
	if cfg.FieldSize <= 0 || cfg.FieldSize > cfg.Persons {
		cfg.FieldSize = cfg.Persons
	}
	if cfg.Days <= 0 {
		cfg.Days = 1
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	start := time.Now()
	log := logger.Get()
	log.Info(ctx, "generating synthetic history",
		logger.Int("persons", cfg.Persons),
		logger.Int("competitions", cfg.Competitions),
		logger.Int("workers", cfg.Workers),
	)

	persons, skill := generatePersons(cfg)
	comps := make([]model.Competition, cfg.Competitions)
	results := make([][]model.RawResult, cfg.Competitions)

	type job struct{ index int }
	jobs := make(chan job, cfg.Competitions)
	errs := make(chan error, cfg.Workers)
	for i := 0; i < cfg.Competitions; i++ {
		jobs <- job{index: i}
	}
	close(jobs)

	workers := min(cfg.Workers, cfg.Competitions)
	for w := 0; w < workers; w++ {
		go func() {
			for j := range jobs {
				if err := ctx.Err(); err != nil {
					errs <- err
					return
				}
				comps[j.index], results[j.index] = generateCompetition(cfg, j.index, persons, skill)
			}
			errs <- nil
		}()
	}
	for w := 0; w < workers; w++ {
		if err := <-errs; err != nil {
			return source.Tables{}, Stats{}, fmt.Errorf("synth: %w", err)
		}
	}

	t := source.Tables{Persons: persons, Competitions: comps}
	stats := Stats{Persons: len(persons), Competitions: len(comps)}
	for i, rows := range results {
		t.Results = append(t.Results, rows...)
		stats.Results += len(rows)
		if comps[i].IsCanceled {
			stats.Canceled++
		}
		for _, r := range rows {
			if r.Best <= 0 {
				stats.NoResults++
			}
		}
	}
	stats.Took = time.Since(start)
	log.Info(ctx, "generated synthetic history",
		logger.Int("results", stats.Results),
		logger.Int("canceled", stats.Canceled),
		logger.Duration("took", stats.Took),
	)
	return t, stats, nil
}

func generatePersons(cfg Config) ([]model.Person, []tier) {
	r := rand.New(rand.NewPCG(cfg.Seed, 0))
	persons := make([]model.Person, cfg.Persons)
	skill := make([]tier, cfg.Persons)
	for i := range persons {
		year := cfg.Start.Year() - r.IntN(5)
		persons[i] = model.Person{
			ID:      fmt.Sprintf("%04dSYNT%04d", year, i),
			Name:    fmt.Sprintf("Synthetic Person %d", i),
			Country: countries[r.IntN(len(countries))],
		}
		skill[i] = tiers[r.IntN(len(tiers))]
	}
	return persons, skill
}

// generateCompetition draws competition index i from its own stream so that
// the output does not depend on scheduling.
func generateCompetition(cfg Config, i int, persons []model.Person, skill []tier) (model.Competition, []model.RawResult) {
	r := rand.New(rand.NewPCG(cfg.Seed, uint64(i)+1))
	date := cfg.Start.AddDate(0, 0, r.IntN(cfg.Days))
	c := model.Competition{
		ID:       fmt.Sprintf("Synth%d%d", i, date.Year()),
		Name:     fmt.Sprintf("Synthetic Open %d %d", i, date.Year()),
		City:     "Synthville",
		Country:  countries[r.IntN(len(countries)-1)],
		Events:   []string{"333", "222"},
		DateFrom: date,
	}
	if r.IntN(100) < canceledPct {
		c.IsCanceled = true
	}
	if r.IntN(100) < noEventPct {
		c.Events = []string{"444"}
	}
	c.IsChampionship = r.IntN(20) == 0

	n := 2 + r.IntN(cfg.FieldSize)
	if n > len(persons) {
		n = len(persons)
	}
	picked := r.Perm(len(persons))[:n]
	sort.Ints(picked)

	rows := make([]model.RawResult, 0, n*2)
	for _, p := range picked {
		rounds := []string{model.RoundFinal.Label()}
		if r.IntN(100) < firstRoundPct {
			rounds = append(rounds, model.RoundFirst.Label())
		}
		for _, round := range rounds {
			best, avg := solve(r, skill[p])
			rows = append(rows, model.RawResult{
				CompetitionID: c.ID,
				PersonID:      persons[p].ID,
				Round:         round,
				Best:          best,
				Average:       avg,
			})
		}
	}
	return c, rows
}

// solve returns a best single and an average; DNFs are -1.
func solve(r *rand.Rand, t tier) (best, avg int) {
	avg = t.min + r.IntN(t.span)
	best = avg - r.IntN(avg/5+1)
	if r.IntN(100) < dnfPct {
		avg = -1
	}
	if r.IntN(100) < dnfPct/3 {
		best, avg = -1, -1
	}
	return best, avg
}
