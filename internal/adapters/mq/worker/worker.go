// Package worker evaluates competition jobs with a bounded pool and isolates
// the failure of any single job.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/Octave-byte/cube-ranking/internal/adapters/mq/queue"
	"github.com/Octave-byte/cube-ranking/internal/domain/dedupe"
	"github.com/Octave-byte/cube-ranking/internal/domain/model"
	"github.com/Octave-byte/cube-ranking/pkg/logger"
	"github.com/Octave-byte/cube-ranking/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultPoolWidth = 10
)

// Evaluator computes the stat of one competition.
type Evaluator interface {
	Evaluate(ctx context.Context, c model.Competition) (model.CompetitionStat, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Outcome is the result of one job. Exactly one of Stat, Skipped or Err is
// meaningful.
type Outcome struct {
	Index         int
	CompetitionID string
	Stat          model.CompetitionStat
	Skipped       bool
	Err           error
}

// Summary counts the outcomes of a batch.
type Summary struct {
	Evaluated int
	Skipped   int
	Failed    int
	Duplicate int
}

// InMemoryWorker drains jobs from a queue and reports each outcome.
type InMemoryWorker struct {
	queue  Queue
	eval   Evaluator
	report func(Outcome)
	name   string
	logger logger.Logger
}

// NewInMemoryWorker creates a worker. report is called once per job from the
// worker's goroutine.
func NewInMemoryWorker(q Queue, eval Evaluator, report func(Outcome), opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:  q,
		eval:   eval,
		report: report,
		name:   "worker",
		logger: logger.Get(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With(logger.String("worker", w.name))
	return w
}

// Run processes jobs until the queue is closed and drained or ctx is done.
func (w *InMemoryWorker) Run(ctx context.Context) {
	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			out := w.process(ctx, job)
			w.record(ctx, out)
			w.report(out)
		}
	}
}

// process evaluates one job. A panic inside the evaluator becomes a
// TaskFailure for that job only.
func (w *InMemoryWorker) process(ctx context.Context, job queue.Job) (out Outcome) { //nolint:gocritic // hugeParam: Job is received by value
	start := time.Now()
	out = Outcome{Index: job.Index, CompetitionID: job.Competition.ID}
	defer func() {
		if r := recover(); r != nil {
			out.Stat = model.CompetitionStat{}
			out.Err = &model.TaskFailure{CompetitionID: job.Competition.ID, Err: fmt.Errorf("panic: %v", r)}
		}
		metrics.RecordTaskLatency(time.Since(start))
	}()

	stat, err := w.eval.Evaluate(ctx, job.Competition)
	switch {
	case errors.Is(err, model.ErrEmptyPopulation):
		out.Skipped = true
	case err != nil:
		out.Err = &model.TaskFailure{CompetitionID: job.Competition.ID, Err: err}
	default:
		out.Stat = stat
	}
	return out
}

func (w *InMemoryWorker) record(ctx context.Context, out Outcome) {
	switch {
	case out.Err != nil:
		metrics.RecordCompetitionOutcome(metrics.OutcomeFailed)
		w.logger.Error(ctx, "competition evaluation failed",
			logger.String("competition_id", out.CompetitionID),
			logger.Error(out.Err),
		)
	case out.Skipped:
		metrics.RecordCompetitionOutcome(metrics.OutcomeSkipped)
		w.logger.Warn(ctx, "competition has no participants",
			logger.String("competition_id", out.CompetitionID),
		)
	default:
		metrics.RecordCompetitionOutcome(metrics.OutcomeEvaluated)
	}
}

// Pool fans a batch of competitions out to a fixed number of workers.
type Pool struct {
	width  int
	eval   Evaluator
	logger logger.Logger
}

// NewPool creates a pool. width < 1 selects the default of 10.
func NewPool(width int, eval Evaluator, opts ...PoolOption) *Pool {
	if width < 1 {
		width = defaultPoolWidth
	}
	p := &Pool{
		width:  width,
		eval:   eval,
		logger: logger.Get(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Width returns the number of workers.
func (p *Pool) Width() int { return p.width }

// Process evaluates every competition and returns the stats in input order,
// first occurrence per competition id. Skipped and failed competitions are
// left out and counted in the summary. Only ctx cancellation is an error.
func (p *Pool) Process(ctx context.Context, comps []model.Competition) ([]model.CompetitionStat, Summary, error) {
	var sum Summary
	if len(comps) == 0 {
		return nil, sum, nil
	}

	q := queue.NewInMemoryQueue(queue.WithCapacity(len(comps)))
	for i, c := range comps {
		if !q.Enqueue(ctx, queue.Job{Index: i, Competition: c}) {
			_ = q.Close()
			return nil, sum, fmt.Errorf("enqueue %s: %w", c.ID, ctx.Err())
		}
	}
	if err := q.Close(); err != nil {
		return nil, sum, fmt.Errorf("close queue: %w", err)
	}

	// each job owns its slot
	outcomes := make([]Outcome, len(comps))
	report := func(o Outcome) { outcomes[o.Index] = o }

	metrics.UpdateWorkerPoolWidth(p.width)
	var wg sync.WaitGroup
	for i := 0; i < p.width; i++ {
		w := NewInMemoryWorker(q, p.eval, report,
			WithName("worker-"+strconv.Itoa(i)),
			WithLogger(p.logger),
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Run(ctx)
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, sum, fmt.Errorf("competition batch abandoned: %w", err)
	}

	stats := make([]model.CompetitionStat, 0, len(outcomes))
	for _, o := range outcomes {
		switch {
		case o.Err != nil:
			sum.Failed++
		case o.Skipped:
			sum.Skipped++
		default:
			stats = append(stats, o.Stat)
		}
	}
	stats, sum.Duplicate = dedupe.KeepFirst(ctx, stats, func(s model.CompetitionStat) string { return s.CompetitionID })
	sum.Evaluated = len(stats)
	return stats, sum, nil
}
