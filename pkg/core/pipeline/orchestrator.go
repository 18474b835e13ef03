// Package pipeline orchestrates one filing's processing run: resolve the
// content handle, dispatch the form's extractor, generate the summary card,
// and mark the filing processed. Every run is a single database transaction;
// a failed run rolls back and leaves only the processing error note behind.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yueximo/opening-bell-backend/pkg/core/edgar"
	"github.com/yueximo/opening-bell-backend/pkg/core/extract"
	"github.com/yueximo/opening-bell-backend/pkg/core/store"
	"github.com/yueximo/opening-bell-backend/pkg/core/summary"
)

var (
	// ErrFilingNotFound is returned when the filing id has no record.
	ErrFilingNotFound = errors.New("pipeline: filing not found")
	// ErrGatewayUnavailable wraps upstream resolution failures.
	ErrGatewayUnavailable = errors.New("pipeline: filing content unavailable")
)

// Run statuses.
const (
	StatusProcessed = "PROCESSED"
	StatusSkipped   = "SKIPPED"
	StatusFailed    = "FAILED"
)

// Result describes the outcome of one processing run.
type Result struct {
	FilingID int64  `json:"filing_id"`
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
}

// Gateway resolves filing content handles. Satisfied by *edgar.Client.
type Gateway interface {
	FindFiling(ctx context.Context, cik, accession string) (edgar.FilingHandle, error)
}

// Orchestrator runs the content processing pipeline.
type Orchestrator struct {
	store     store.Store
	gateway   Gateway
	registry  *extract.Registry
	summaries *summary.Generator
	logger    *zap.Logger
}

func NewOrchestrator(st store.Store, gw Gateway, reg *extract.Registry, gen *summary.Generator, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		store:     st,
		gateway:   gw,
		registry:  reg,
		summaries: gen,
		logger:    logger,
	}
}

// Process runs the pipeline for one filing. Forms without an extractor still
// get their summary; an already-processed filing is skipped untouched. The
// returned error is reserved for infrastructure faults (the filing missing,
// the store unusable); extraction and gateway failures come back as a FAILED
// result with the reason recorded on the filing.
func (o *Orchestrator) Process(ctx context.Context, filingID int64) (*Result, error) {
	logger := o.logger.With(
		zap.String("run_id", uuid.NewString()),
		zap.Int64("filing_id", filingID))

	uow, err := o.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback(ctx)

	filing, err := uow.GetFiling(ctx, filingID)
	if err != nil {
		return nil, err
	}
	if filing == nil {
		return nil, fmt.Errorf("%w: id %d", ErrFilingNotFound, filingID)
	}
	if filing.IsProcessed {
		logger.Info("filing already processed, skipping")
		return &Result{FilingID: filingID, Status: StatusSkipped, Message: "already processed"}, nil
	}

	logger = logger.With(zap.String("form", filing.Form), zap.String("accession", filing.Accession))
	logger.Info("processing filing")

	handle, err := o.gateway.FindFiling(ctx, filing.CIK, filing.Accession)
	if err != nil {
		return o.fail(ctx, logger, filingID, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err))
	}

	if processor := o.registry.ProcessorFor(filing.Form); processor != nil {
		logger.Info("dispatching extractor", zap.String("processor", processor.Name()))
		if err := processor.Extract(ctx, uow, filing, handle); err != nil {
			return o.fail(ctx, logger, filingID, fmt.Errorf("%s extraction: %w", processor.Name(), err))
		}
	} else {
		logger.Info("no extractor registered for form, summary only")
	}

	if err := o.summaries.Generate(ctx, uow, filing); err != nil {
		return o.fail(ctx, logger, filingID, fmt.Errorf("summary generation: %w", err))
	}

	if err := uow.MarkFilingProcessed(ctx, filingID, time.Now().UTC()); err != nil {
		return o.fail(ctx, logger, filingID, err)
	}
	if err := uow.Commit(ctx); err != nil {
		return o.fail(ctx, logger, filingID, err)
	}

	logger.Info("filing processed")
	return &Result{FilingID: filingID, Status: StatusProcessed}, nil
}

// fail rolls nothing forward: the deferred rollback discards the run and the
// reason is written on its own connection so it survives.
func (o *Orchestrator) fail(ctx context.Context, logger *zap.Logger, filingID int64, cause error) (*Result, error) {
	logger.Error("processing run failed", zap.Error(cause))
	if err := o.store.RecordProcessingError(ctx, filingID, cause.Error()); err != nil {
		logger.Error("could not record processing error", zap.Error(err))
	}
	return &Result{FilingID: filingID, Status: StatusFailed, Message: cause.Error()}, nil
}

// ListUnprocessed returns the filings still awaiting a run.
func (o *Orchestrator) ListUnprocessed(ctx context.Context) ([]int64, error) {
	return o.store.ListUnprocessedFilingIDs(ctx)
}

// SweepStats summarizes a Sweep.
type SweepStats struct {
	Processed int64
	Skipped   int64
	Failed    int64
}

// Sweep processes every pending filing with at most parallelism concurrent
// runs. Per-filing failures are counted, not fatal; the returned error is
// infrastructure-level only.
func (o *Orchestrator) Sweep(ctx context.Context, parallelism int) (*SweepStats, error) {
	ids, err := o.ListUnprocessed(ctx)
	if err != nil {
		return nil, err
	}
	o.logger.Info("sweeping pending filings",
		zap.Int("count", len(ids)), zap.Int("parallelism", parallelism))

	if parallelism < 1 {
		parallelism = 1
	}
	var stats SweepStats
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			result, err := o.Process(ctx, id)
			if err != nil {
				return err
			}
			switch result.Status {
			case StatusProcessed:
				atomic.AddInt64(&stats.Processed, 1)
			case StatusSkipped:
				atomic.AddInt64(&stats.Skipped, 1)
			default:
				atomic.AddInt64(&stats.Failed, 1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return &stats, err
	}
	return &stats, nil
}
