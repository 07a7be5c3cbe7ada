package worker

import (
	"context"
	"time"

	"jraargz/ofertasworker/internal/offer"
	"jraargz/ofertasworker/logger"
)

// Pipeline is one full scrape run.
type Pipeline interface {
	Run(ctx context.Context) (offer.Offer, bool)
}

// Worker runs the pipeline once at startup and then at fixed wall-clock
// times. Runs are synchronous and assumed not to overlap; nothing enforces
// mutual exclusion if a run outlasts its slot (known limitation).
type Worker struct {
	ctx      context.Context
	pipeline Pipeline
	runTimes []string
	log      *logger.Logger
	now      func() time.Time
}

// NewWorker creates a worker scheduled at the given "15:04" wall-clock times.
func NewWorker(ctx context.Context, pipeline Pipeline, runTimes []string) *Worker {
	return &Worker{
		ctx:      ctx,
		pipeline: pipeline,
		runTimes: runTimes,
		log:      logger.ForWorker(),
		now:      time.Now,
	}
}

// Start runs the schedule loop until the context is cancelled.
func (w *Worker) Start() error {
	w.log.Info().Strs("run_times", w.runTimes).Msg("Starting schedule worker")

	// Run immediately on startup, then fall into the schedule
	w.runOnce()

	for {
		next := NextRun(w.now(), w.runTimes)
		w.log.Info().Time("next_run", next).Msg("Sleeping until next run")

		timer := time.NewTimer(next.Sub(w.now()))
		select {
		case <-w.ctx.Done():
			timer.Stop()
			w.log.Info().Msg("Schedule worker stopped")
			return w.ctx.Err()
		case <-timer.C:
		}

		w.runOnce()
	}
}

// runOnce executes one pipeline run, logging the outcome and duration.
func (w *Worker) runOnce() {
	start := w.now()
	winner, found := w.pipeline.Run(w.ctx)
	elapsed := time.Since(start)

	if found {
		w.log.Info().
			Str("title", winner.Title).
			Dur("elapsed", elapsed).
			Msg("Run finished with a winner")
	} else {
		w.log.Info().Dur("elapsed", elapsed).Msg("Run finished without a winner")
	}
}

// NextRun returns the earliest scheduled time strictly after now. Slots are
// "15:04" wall-clock times; a slot already past today maps to tomorrow.
func NextRun(now time.Time, runTimes []string) time.Time {
	var next time.Time
	for _, rt := range runTimes {
		parsed, err := time.Parse("15:04", rt)
		if err != nil {
			continue
		}

		candidate := time.Date(now.Year(), now.Month(), now.Day(),
			parsed.Hour(), parsed.Minute(), 0, 0, now.Location())
		if !candidate.After(now) {
			candidate = candidate.Add(24 * time.Hour)
		}

		if next.IsZero() || candidate.Before(next) {
			next = candidate
		}
	}

	if next.IsZero() {
		// No parsable slot; fall back to once a day from now
		next = now.Add(24 * time.Hour)
	}
	return next
}
