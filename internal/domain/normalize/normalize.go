// Package normalize cleans the raw result table and filters the competition
// table down to the competitions the ranking pipeline considers.
package normalize

import (
	"context"
	"errors"
	"time"

	"github.com/Octave-byte/cube-ranking/internal/domain/dedupe"
	"github.com/Octave-byte/cube-ranking/internal/domain/model"
	"github.com/Octave-byte/cube-ranking/pkg/logger"
	"github.com/Octave-byte/cube-ranking/pkg/metrics"
)

// Default normalization configuration constants.
const (
	defaultReferenceEvent = "333"
)

// Option applies a configuration option to the Normalizer.
type Option func(*Normalizer)

// WithStrict selects fail-fast (true) or skip-and-count (false) handling of
// rows that break the table contract.
func WithStrict(strict bool) Option {
	return func(n *Normalizer) {
		n.strict = strict
	}
}

// WithLogger sets the logger used to report skipped rows.
func WithLogger(l logger.Logger) Option {
	return func(n *Normalizer) {
		if l != nil {
			n.log = l
		}
	}
}

// WithReferenceEvent sets the event code an eligible competition must hold.
func WithReferenceEvent(code string) Option {
	return func(n *Normalizer) {
		if code != "" {
			n.referenceEvent = code
		}
	}
}

// WithHistoryStart drops competitions that start before t.
func WithHistoryStart(t time.Time) Option {
	return func(n *Normalizer) {
		n.historyStart = model.Day(t)
	}
}

// Report summarizes one normalization pass.
type Report struct {
	Accepted   int
	Rejected   int
	Duplicates int
}

// Normalizer turns raw rows into the cleaned Result table.
type Normalizer struct {
	strict         bool
	log            logger.Logger
	referenceEvent string
	historyStart   time.Time
}

// New creates a Normalizer. Strict mode is on by default.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		strict:         true,
		referenceEvent: defaultReferenceEvent,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Results validates, encodes and deduplicates raw result rows. In strict mode
// the first DataIntegrityError is returned with no table.
func (n *Normalizer) Results(ctx context.Context, rows []model.RawResult) ([]model.Result, Report, error) {
	var rep Report
	out := make([]model.Result, 0, len(rows))
	for i, raw := range rows {
		res, err := n.result(i, raw)
		if err != nil {
			if n.strict {
				return nil, rep, err
			}
			rep.Rejected++
			var die *model.DataIntegrityError
			if errors.As(err, &die) {
				metrics.RecordRowRejected(die.Field)
			}
			if n.log != nil {
				n.log.Warn(ctx, "result row rejected", logger.Error(err))
			}
			continue
		}
		out = append(out, res)
	}

	out, rep.Duplicates = dedupe.KeepFirst(ctx, out, model.Result.Key)
	rep.Accepted = len(out)

	metrics.RecordRowsNormalized(rep.Accepted)
	metrics.RecordRowsDuplicate(rep.Duplicates)
	return out, rep, nil
}

func (n *Normalizer) result(row int, raw model.RawResult) (model.Result, error) {
	switch {
	case raw.CompetitionID == "":
		return model.Result{}, &model.DataIntegrityError{Row: row, Field: "competitionId", Reason: "missing"}
	case raw.PersonID == "":
		return model.Result{}, &model.DataIntegrityError{Row: row, Field: "personId", Reason: "missing"}
	}
	round, err := model.ParseRound(raw.Round)
	if err != nil {
		return model.Result{}, &model.DataIntegrityError{Row: row, Field: "round", Value: raw.Round, Reason: err.Error()}
	}
	return model.Result{
		CompetitionID: raw.CompetitionID,
		PersonID:      raw.PersonID,
		Round:         round,
		Best:          finish(raw.Best),
		Average:       finish(raw.Average),
	}, nil
}

// finish maps non-finishing codes (DNF -1, DNS -2, no result 0) to NoResult.
func finish(v int) int {
	if v <= 0 {
		return model.NoResult
	}
	return v
}

// Competitions keeps competitions that are not canceled, hold the reference
// event and start on or after the history start, first occurrence per id.
func (n *Normalizer) Competitions(ctx context.Context, comps []model.Competition) []model.Competition {
	kept := make([]model.Competition, 0, len(comps))
	for _, c := range comps {
		if c.IsCanceled || !c.HasEvent(n.referenceEvent) {
			continue
		}
		if !n.historyStart.IsZero() && model.Day(c.DateFrom).Before(n.historyStart) {
			continue
		}
		kept = append(kept, c)
	}
	kept, dropped := dedupe.KeepFirst(ctx, kept, func(c model.Competition) string { return c.ID })
	if dropped > 0 && n.log != nil {
		n.log.Debug(ctx, "duplicate competitions dropped", logger.Int("count", dropped))
	}
	return kept
}

// Participants returns the distinct persons of every competition, in first
// appearance order.
func Participants(results []model.Result) map[string][]string {
	seen := make(map[string]struct{}, len(results))
	out := make(map[string][]string)
	for _, r := range results {
		k := dedupe.Key(r.CompetitionID, r.PersonID)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out[r.CompetitionID] = append(out[r.CompetitionID], r.PersonID)
	}
	return out
}
