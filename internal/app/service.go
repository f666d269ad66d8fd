// Package service runs the ranking pipeline: it turns the input tables into
// the weekly participant table and the competition ranking table, and keeps
// the last run available for the latest views.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	workerpool "github.com/Octave-byte/cube-ranking/internal/adapters/mq/worker"
	"github.com/Octave-byte/cube-ranking/internal/adapters/repository"
	"github.com/Octave-byte/cube-ranking/internal/adapters/source"
	"github.com/Octave-byte/cube-ranking/internal/domain/latest"
	"github.com/Octave-byte/cube-ranking/internal/domain/model"
	"github.com/Octave-byte/cube-ranking/internal/domain/normalize"
	"github.com/Octave-byte/cube-ranking/internal/domain/ranking"
	"github.com/Octave-byte/cube-ranking/internal/domain/rolling"
	"github.com/Octave-byte/cube-ranking/internal/domain/strength"
	"github.com/Octave-byte/cube-ranking/internal/domain/weekly"
	"github.com/Octave-byte/cube-ranking/pkg/logger"
	"github.com/Octave-byte/cube-ranking/pkg/metrics"
)

const (
	latestPlayersKey      = "latest_players"
	latestCompetitionsKey = "latest_competitions"
)

// Output is the result of one pipeline run.
type Output struct {
	RunID        string
	PlayerWeeks  []model.PlayerWeek
	Competitions []model.CompetitionStat
	// Eligible is the filtered competition table, used for metadata joins.
	Eligible   []model.Competition
	Normalized normalize.Report
	Batch      workerpool.Summary
	Took       time.Duration
}

// Service wires the pipeline stages together.
type Service struct {
	mu      sync.RWMutex
	running atomic.Bool

	// Configuration
	workerCount    int
	populationCap  int
	shortWindow    int
	longWindow     int
	topN           int
	strict         bool
	referenceEvent string
	historyStart   time.Time
	cutoff         time.Time
	weeklyFrom     time.Time
	latestTTL      time.Duration

	// State
	store *repository.SnapshotStore
	cache *cache.Cache
	last  *Output

	// Logging
	logger logger.Logger
}

// New constructs a Service with the default pipeline configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:    10,
		populationCap:  20_000,
		shortWindow:    90,
		longWindow:     365,
		topN:           10,
		strict:         true,
		referenceEvent: "333",
		historyStart:   time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC),
		cutoff:         time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC),
		latestTTL:      time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.store = s.newStore()
	s.cache = cache.New(s.latestTTL, 2*s.latestTTL)
	return s
}

func (s *Service) newStore() *repository.SnapshotStore {
	return repository.NewSnapshotStore(repository.WithPersonHint(s.populationCap))
}

// Store exposes the snapshot index of the last successful run.
func (s *Service) Store() repository.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

// Run executes stages 1 to 5 over t. Stages 1 to 4 fail fast on malformed
// input in strict mode; stage 5 isolates failures per competition. Only one
// run executes at a time.
func (s *Service) Run(ctx context.Context, t source.Tables) (*Output, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer s.running.Store(false)

	start := time.Now()
	out := &Output{RunID: uuid.NewString()}
	log := s.logger.With(logger.String("run_id", out.RunID))
	log.Info(ctx, "pipeline run started",
		logger.Int("results", len(t.Results)),
		logger.Int("competitions", len(t.Competitions)),
		logger.Int("persons", len(t.Persons)),
	)

	store := s.newStore()
	if err := s.run(ctx, log, t, store, out); err != nil {
		metrics.RecordPipelineRun(metrics.StatusFailure)
		log.Error(ctx, "pipeline run failed", logger.Error(err))
		return nil, err
	}

	out.Took = time.Since(start)
	s.mu.Lock()
	s.last = out
	s.store = store
	s.mu.Unlock()
	s.cache.Flush()

	metrics.RecordPipelineRun(metrics.StatusSuccess)
	metrics.UpdateLastSuccessfulRun(time.Now())
	log.Info(ctx, "pipeline run finished",
		logger.Int("player_weeks", len(out.PlayerWeeks)),
		logger.Int("competition_stats", len(out.Competitions)),
		logger.Duration("took", out.Took),
	)
	return out, nil
}

// run fills out; the index is built into store, which replaces the served
// one only when the whole run succeeds.
func (s *Service) run(ctx context.Context, log logger.Logger, t source.Tables, store *repository.SnapshotStore, out *Output) error {
	// 1. normalize
	stage := time.Now()
	norm := normalize.New(
		normalize.WithStrict(s.strict),
		normalize.WithLogger(log),
		normalize.WithReferenceEvent(s.referenceEvent),
		normalize.WithHistoryStart(s.historyStart),
	)
	results, report, err := norm.Results(ctx, t.Results)
	if err != nil {
		return fmt.Errorf("normalize results: %w", err)
	}
	out.Normalized = report
	out.Eligible = norm.Competitions(ctx, t.Competitions)
	s.observe(ctx, log, "normalize", stage,
		logger.Int("results", report.Accepted),
		logger.Int("rejected", report.Rejected),
		logger.Int("duplicates", report.Duplicates),
		logger.Int("competitions", len(out.Eligible)),
	)

	// 2. rolling windows
	stage = time.Now()
	agg := rolling.New(
		rolling.WithWindows(s.shortWindow, s.longWindow),
		rolling.WithPopulationCap(s.populationCap),
		rolling.WithStrict(s.strict),
		rolling.WithLogger(log),
	)
	rolled, err := agg.Compute(ctx, results, out.Eligible)
	if err != nil {
		return fmt.Errorf("rolling windows: %w", err)
	}
	metrics.UpdatePopulationSize(countPersons(rolled))
	s.observe(ctx, log, "rolling", stage, logger.Int("rows", len(rolled)))
	if err := ctx.Err(); err != nil {
		return err
	}

	// 3. weekly grid
	stage = time.Now()
	weeks := weekly.New().Resample(ctx, rolled)
	metrics.UpdateWeeklyRows(len(weeks))
	s.observe(ctx, log, "weekly", stage, logger.Int("rows", len(weeks)))

	// 4. ranks
	stage = time.Now()
	all := ranking.New(ranking.WithLogger(log)).Assign(ctx, weeks, t.Persons)
	store.Publish(all)
	out.PlayerWeeks = s.emitted(all)
	s.observe(ctx, log, "ranking", stage, logger.Int("rows", len(all)))
	if err := ctx.Err(); err != nil {
		return err
	}

	// 5. competition strength
	stage = time.Now()
	scored := make([]model.Competition, 0, len(out.Eligible))
	for _, c := range out.Eligible {
		if c.DateFrom.IsZero() || !c.DateFrom.Before(s.cutoff) {
			scored = append(scored, c)
		}
	}
	eval := strength.New(store, normalize.Participants(results), strength.WithTopN(s.topN))
	pool := workerpool.NewPool(s.workerCount, eval, workerpool.WithPoolLogger(log))
	stats, batch, err := pool.Process(ctx, scored)
	if err != nil {
		return fmt.Errorf("competition strength: %w", err)
	}
	out.Competitions = stats
	out.Batch = batch
	s.observe(ctx, log, "strength", stage,
		logger.Int("evaluated", batch.Evaluated),
		logger.Int("skipped", batch.Skipped),
		logger.Int("failed", batch.Failed),
	)
	return nil
}

// emitted applies the weekly lower bound to the published table.
func (s *Service) emitted(rows []model.PlayerWeek) []model.PlayerWeek {
	if s.weeklyFrom.IsZero() {
		return rows
	}
	out := make([]model.PlayerWeek, 0, len(rows))
	for _, r := range rows {
		if !r.Week.Before(s.weeklyFrom) {
			out = append(out, r)
		}
	}
	return out
}

func (s *Service) observe(ctx context.Context, log logger.Logger, stage string, start time.Time, fields ...logger.Field) {
	took := time.Since(start)
	metrics.ObserveStageDuration(stage, took)
	log.Debug(ctx, "stage finished", append([]logger.Field{logger.String("stage", stage), logger.Duration("took", took)}, fields...)...)
}

func countPersons(rows []model.RollingMetric) int {
	seen := make(map[string]struct{})
	for _, r := range rows {
		seen[r.PersonID] = struct{}{}
	}
	return len(seen)
}

// Last returns the output of the last successful run.
func (s *Service) Last() (*Output, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return nil, ErrNoRun
	}
	return s.last, nil
}

// LatestPlayers returns the rows of the most recent week, best rank first.
func (s *Service) LatestPlayers(ctx context.Context) ([]model.PlayerWeek, error) {
	if v, ok := s.cache.Get(latestPlayersKey); ok {
		metrics.RecordCacheLookup(true)
		return v.([]model.PlayerWeek), nil
	}
	metrics.RecordCacheLookup(false)

	if _, err := s.Last(); err != nil {
		return nil, err
	}
	store := s.Store()
	week, err := store.LatestWeek(ctx)
	if errors.Is(err, repository.ErrEmpty) {
		return []model.PlayerWeek{}, nil
	}
	if err != nil {
		return nil, err
	}
	rows, err := store.Week(ctx, week)
	if err != nil {
		return nil, fmt.Errorf("latest week %s: %w", week.Format(model.DateLayout), err)
	}
	view := latest.Players(rows)
	s.cache.SetDefault(latestPlayersKey, view)
	return view, nil
}

// LatestCompetitions returns the competition table joined with metadata,
// strongest field first.
func (s *Service) LatestCompetitions(_ context.Context) ([]latest.CompetitionRow, error) {
	if v, ok := s.cache.Get(latestCompetitionsKey); ok {
		metrics.RecordCacheLookup(true)
		return v.([]latest.CompetitionRow), nil
	}
	metrics.RecordCacheLookup(false)

	last, err := s.Last()
	if err != nil {
		return nil, err
	}
	view := latest.Competitions(last.Competitions, last.Eligible)
	s.cache.SetDefault(latestCompetitionsKey, view)
	return view, nil
}
