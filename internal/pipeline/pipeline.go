// Package pipeline drives each ZIP code through validation, geography
// resolution, source adapters, normalization and persistence, and runs
// batches of ZIP codes with pacing and cooperative cancellation.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/rep-ingest/internal/geography"
	"github.com/sells-group/rep-ingest/internal/model"
	"github.com/sells-group/rep-ingest/internal/normalize"
	"github.com/sells-group/rep-ingest/internal/source"
)

// Gateway is the subset of store.Store the orchestrator writes through.
type Gateway interface {
	UpsertGeography(ctx context.Context, geo model.Geography) (int64, error)
	UpsertRepresentative(ctx context.Context, rep model.Representative) (int64, error)
	UpsertMapping(ctx context.Context, m model.Mapping) error
}

// Orchestrator owns the per-ZIP state machine. It holds the store handle
// explicitly; callers own the handle's lifecycle.
type Orchestrator struct {
	resolver geography.Resolver
	adapters []source.Adapter
	store    Gateway
	metrics  *Metrics
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMetrics records processing metrics.
func WithMetrics(m *Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// New creates an Orchestrator. Adapters run in the order given.
func New(resolver geography.Resolver, adapters []source.Adapter, st Gateway, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		resolver: resolver,
		adapters: adapters,
		store:    st,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Process runs one ZIP code to a terminal stage. It never returns an error:
// every failure is recorded on the result and the result's Stage is always
// Persisted or Failed.
func (o *Orchestrator) Process(ctx context.Context, zip string) *model.ProcessingResult {
	start := time.Now()
	log := zap.L().With(zap.String("zip", zip))
	log.Info("pipeline: processing zip code")

	res := model.NewProcessingResult(zip)
	if err := o.run(ctx, res, log); err != nil {
		res.Fail(failureReason(err), err)
	} else {
		res.Succeed()
	}

	o.metrics.observeResult(res.Success, string(res.FailedAt), res.Reason, time.Since(start))
	if res.Success {
		log.Info("pipeline: zip code persisted",
			zap.Int("representatives", len(res.Representatives)),
			zap.Int("warnings", len(res.Errors)),
			zap.Duration("elapsed", time.Since(start)),
		)
	} else {
		log.Warn("pipeline: zip code failed",
			zap.String("stage", string(res.FailedAt)),
			zap.String("reason", res.Reason),
			zap.Strings("errors", res.Errors),
		)
	}
	return res
}

// run advances res through the non-terminal stages and returns the error
// that stopped it, if any. The caller moves res to its terminal stage.
func (o *Orchestrator) run(ctx context.Context, res *model.ProcessingResult, log *zap.Logger) error {
	zip := res.ZipCode

	// Start -> Validated
	if err := geography.ValidateZIP(zip); err != nil {
		return &ValidationError{ZIP: zip}
	}
	res.Advance(model.StageValidated)

	// Validated -> GeographyResolved
	geo, err := o.resolver.Resolve(ctx, zip)
	switch {
	case err == nil:
	case geography.IsNotFound(err):
		return &NotFoundError{ZIP: zip}
	case geography.IsInvalidZIP(err):
		return &ValidationError{ZIP: zip}
	default:
		log.Error("pipeline: geography resolver failed", zap.Error(err))
		return &ResolutionError{ZIP: zip, Err: err}
	}
	res.Geography = geo
	res.Advance(model.StageGeographyResolved)
	log.Debug("pipeline: geography resolved",
		zap.String("state", geo.State),
		zap.String("district", geo.CongressionalDistrict),
	)

	// GeographyResolved -> RepresentativesFetched
	candidates := o.fetchCandidates(ctx, res, geo, log)
	res.Advance(model.StageRepresentativesFetched)

	// RepresentativesFetched -> Normalized
	reps := normalize.Process(candidates)
	if len(reps) == 0 {
		return &NoRepresentativesError{ZIP: zip}
	}
	res.Representatives = reps
	res.Advance(model.StageNormalized)

	// Normalized -> Persisted
	if err := o.persist(ctx, res); err != nil {
		log.Error("pipeline: persistence failed", zap.Error(err))
		return err
	}
	return nil
}

// fetchCandidates invokes every adapter in sequence. Adapter errors and
// warnings are recorded on res and never stop the remaining adapters.
func (o *Orchestrator) fetchCandidates(ctx context.Context, res *model.ProcessingResult, geo *model.Geography, log *zap.Logger) []model.Candidate {
	var all []model.Candidate
	for _, a := range o.adapters {
		name := a.Name()
		alog := log.With(zap.String("source", name))

		out, err := a.Fetch(ctx, res.ZipCode, geo)
		o.metrics.observeAdapter(name, len(out.Candidates), len(out.Warnings), err != nil)
		if err != nil {
			msg := fmt.Sprintf("error in %s source: %v", name, err)
			alog.Error("pipeline: adapter failed", zap.Error(err))
			res.AddError(msg)
			continue
		}
		for _, w := range out.Warnings {
			res.AddError(fmt.Sprintf("%s: %s", name, w))
		}
		if len(out.Candidates) == 0 {
			alog.Warn("pipeline: adapter found no representatives")
		} else {
			alog.Info("pipeline: adapter found representatives", zap.Int("count", len(out.Candidates)))
		}
		all = append(all, out.Candidates...)
	}
	return all
}

// persist writes the geography, then each representative, then each mapping.
// Each write is its own transaction; the first failure aborts the rest.
func (o *Orchestrator) persist(ctx context.Context, res *model.ProcessingResult) error {
	zip := res.ZipCode

	geoID, err := o.store.UpsertGeography(ctx, *res.Geography)
	if err != nil {
		return &PersistenceError{ZIP: zip, Op: "geography", Err: err}
	}
	res.Geography.ID = geoID

	for i := range res.Representatives {
		id, err := o.store.UpsertRepresentative(ctx, res.Representatives[i])
		if err != nil {
			return &PersistenceError{ZIP: zip, Op: "representative " + res.Representatives[i].Name, Err: err}
		}
		res.Representatives[i].ID = id
	}

	for _, rep := range res.Representatives {
		m := model.Mapping{
			RepresentativeID:  rep.ID,
			GeographyID:       geoID,
			JurisdictionLevel: string(rep.Branch),
		}
		if err := o.store.UpsertMapping(ctx, m); err != nil {
			return &PersistenceError{ZIP: zip, Op: "mapping " + rep.Name, Err: err}
		}
	}
	return nil
}
