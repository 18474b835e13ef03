// Package extract implements the form-specific content extraction
// strategies. Each processor reads from the filing content gateway through
// ordered capability probes, tolerates partial or missing data, and persists
// its facts through the run's unit of work.
package extract

import (
	"context"

	"go.uber.org/zap"

	"github.com/yueximo/opening-bell-backend/pkg/core/edgar"
	"github.com/yueximo/opening-bell-backend/pkg/core/store"
	"github.com/yueximo/opening-bell-backend/pkg/models"
)

// Processor extracts structured facts for one filing. Implementations are
// idempotent: an existing usable record makes Extract a no-op.
type Processor interface {
	Name() string
	Extract(ctx context.Context, uow store.UnitOfWork, filing *models.Filing, handle edgar.FilingHandle) error
}

// Registry routes form types to their extraction processor.
type Registry struct {
	processors map[string]Processor
}

// NewRegistry builds the routing table: periodic reports to the financial
// metrics extractor, ownership reports to the insider transaction extractor,
// material-event reports to the corporate event extractor.
func NewRegistry(logger *zap.Logger) *Registry {
	financial := NewFinancialMetricsExtractor(logger)
	insider := NewInsiderTransactionExtractor(logger)
	events := NewCorporateEventExtractor(logger)

	return &Registry{processors: map[string]Processor{
		models.Form10K: financial,
		models.Form10Q: financial,
		models.Form4:   insider,
		models.Form4A:  insider,
		models.Form8K:  events,
		models.Form6K:  events,
	}}
}

// ProcessorFor returns the processor for a form type, or nil when the form
// has no structured extractor and takes the summary-only path.
func (r *Registry) ProcessorFor(form string) Processor {
	return r.processors[form]
}
