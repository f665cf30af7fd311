package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/rep-ingest/internal/model"
)

// BatchOptions controls batch pacing and parallelism.
type BatchOptions struct {
	// Pause is waited between consecutive ZIP codes, never after the last.
	Pause time.Duration
	// Concurrency > 1 processes independent ZIP codes in parallel workers.
	// Each adapter call still pays its own rate-limit delay.
	Concurrency int
	// RunID tags every log line of the batch; generated when empty.
	RunID string
}

// Batch is the outcome of a batch run.
type Batch struct {
	RunID   string
	Results []*model.ProcessingResult
	// Interrupted is set when the context was cancelled at any point during
	// the run, including while the last ZIP code was in flight.
	Interrupted bool
}

// ProcessBatch processes zips in input order and returns one result per ZIP
// code that was started. A failed ZIP code never stops the batch.
// Cancellation is cooperative: it is checked at the loop boundary, and ZIP
// codes already in flight run to completion.
func (o *Orchestrator) ProcessBatch(ctx context.Context, zips []string, opts BatchOptions) *Batch {
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	log := zap.L().With(zap.String("run_id", runID))
	log.Info("pipeline: starting batch",
		zap.Int("zips", len(zips)),
		zap.Int("concurrency", max(opts.Concurrency, 1)),
		zap.Duration("pause", opts.Pause),
	)

	var b *Batch
	if opts.Concurrency > 1 {
		b = o.processParallel(ctx, zips, opts, log)
	} else {
		b = o.processSequential(ctx, zips, opts, log)
	}
	b.RunID = runID
	if ctx.Err() != nil {
		b.Interrupted = true
	}

	if b.Interrupted {
		log.Warn("pipeline: batch interrupted",
			zap.Int("completed", len(b.Results)),
			zap.Int("remaining", len(zips)-len(b.Results)),
		)
	}
	s := Summarize(b)
	log.Info("pipeline: batch complete",
		zap.Int("total", s.Total),
		zap.Int("succeeded", s.Succeeded),
		zap.Int("failed", s.Failed),
	)
	return b
}

func (o *Orchestrator) processSequential(ctx context.Context, zips []string, opts BatchOptions, log *zap.Logger) *Batch {
	b := &Batch{Results: make([]*model.ProcessingResult, 0, len(zips))}
	for i, zip := range zips {
		if i > 0 && !sleepCtx(ctx, opts.Pause) {
			b.Interrupted = true
			return b
		}
		if ctx.Err() != nil {
			b.Interrupted = true
			return b
		}
		log.Info("pipeline: batch item", zap.Int("index", i+1), zap.Int("of", len(zips)), zap.String("zip", zip))
		b.Results = append(b.Results, o.processOne(ctx, zip))
	}
	return b
}

func (o *Orchestrator) processParallel(ctx context.Context, zips []string, opts BatchOptions, log *zap.Logger) *Batch {
	results := make([]*model.ProcessingResult, len(zips))

	var g errgroup.Group
	g.SetLimit(opts.Concurrency)

	interrupted := false
	for i, zip := range zips {
		if i > 0 && !sleepCtx(ctx, opts.Pause) {
			interrupted = true
			break
		}
		if ctx.Err() != nil {
			interrupted = true
			break
		}
		log.Info("pipeline: batch item", zap.Int("index", i+1), zap.Int("of", len(zips)), zap.String("zip", zip))
		g.Go(func() error {
			results[i] = o.processOne(ctx, zip)
			return nil // individual failures never abort the batch
		})
	}
	_ = g.Wait()

	b := &Batch{Results: make([]*model.ProcessingResult, 0, len(zips)), Interrupted: interrupted}
	for _, r := range results {
		if r != nil {
			b.Results = append(b.Results, r)
		}
	}
	return b
}

// processOne detaches the ZIP code from batch cancellation so an in-flight
// ZIP code is never abandoned mid-transaction. Network calls stay bounded by
// their own timeouts.
func (o *Orchestrator) processOne(ctx context.Context, zip string) *model.ProcessingResult {
	o.metrics.inFlight(1)
	defer o.metrics.inFlight(-1)
	return o.Process(context.WithoutCancel(ctx), zip)
}

// sleepCtx waits for d or until ctx is done. It reports whether the full
// duration elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
