package extract

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/yueximo/opening-bell-backend/pkg/core/edgar"
	"github.com/yueximo/opening-bell-backend/pkg/core/store"
	"github.com/yueximo/opening-bell-backend/pkg/models"
)

// Label synonyms per target fact, in priority order. Matching is
// case-insensitive substring against statement line items.
var (
	revenueLabels           = []string{"Revenue", "Contract Revenue", "Sales Revenue"}
	netIncomeLabels         = []string{"Net Income", "Net Income Loss", "Profit Loss"}
	epsLabels               = []string{"Earnings Per Share Basic", "Earnings Per Share Diluted", "Earnings Per Share"}
	totalAssetsLabels       = []string{"Total Assets", "Assets"}
	totalLiabilitiesLabels  = []string{"Total Liabilities", "Liabilities"}
	cashLabels              = []string{"Cash and Cash Equivalents", "Cash", "Cash Equivalents"}
	operatingCashFlowLabels = []string{"Net Cash from Operating Activities", "Net Cash Provided by Operating Activities", "Cash Flows from Operating Activities"}
)

// FinancialMetricsExtractor derives headline figures from 10-K/10-Q content.
type FinancialMetricsExtractor struct {
	logger *zap.Logger
}

func NewFinancialMetricsExtractor(logger *zap.Logger) *FinancialMetricsExtractor {
	return &FinancialMetricsExtractor{logger: logger}
}

func (e *FinancialMetricsExtractor) Name() string { return "financial_metrics" }

// metricsStrategy is one attempt at producing a metrics record. A nil record
// with a nil error means the strategy's capability was absent; the next
// strategy runs.
type metricsStrategy struct {
	name string
	run  func(ctx context.Context, handle edgar.FilingHandle) (*models.FinancialMetrics, error)
}

// Extract creates exactly one metrics record per filing. When every strategy
// comes up empty, a placeholder record (all figures nil, error text attached
// if a probe failed) is persisted so the filing is not re-attempted forever.
func (e *FinancialMetricsExtractor) Extract(ctx context.Context, uow store.UnitOfWork, filing *models.Filing, handle edgar.FilingHandle) error {
	existing, err := uow.GetFinancialMetrics(ctx, filing.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		e.logger.Debug("financial metrics already exist",
			zap.Int64("filing_id", filing.ID))
		return nil
	}

	strategies := []metricsStrategy{
		{"statements", e.fromStatements},
		{"financials", e.fromFinancials},
	}

	var metrics *models.FinancialMetrics
	var lastErr error
	for _, s := range strategies {
		m, err := s.run(ctx, handle)
		if err != nil {
			e.logger.Warn("metrics strategy failed",
				zap.String("strategy", s.name),
				zap.Int64("filing_id", filing.ID),
				zap.Error(err))
			lastErr = err
			continue
		}
		if m != nil {
			e.logger.Info("extracted financial metrics",
				zap.String("strategy", s.name),
				zap.Int64("filing_id", filing.ID))
			metrics = m
			break
		}
	}

	if metrics == nil {
		metrics = &models.FinancialMetrics{}
		if lastErr != nil {
			msg := lastErr.Error()
			metrics.ExtractionError = &msg
		}
		e.logger.Warn("no financial metrics extracted, persisting placeholder",
			zap.Int64("filing_id", filing.ID))
	}

	metrics.FilingID = filing.ID
	metrics.ExtractedAt = time.Now().UTC()
	return uow.CreateFinancialMetrics(ctx, metrics)
}

// fromStatements reads the structured statements. Once statements are
// present the result stands, matched facts or not; the loose fallback only
// runs when the capability itself is absent.
func (e *FinancialMetricsExtractor) fromStatements(ctx context.Context, handle edgar.FilingHandle) (*models.FinancialMetrics, error) {
	set, err := handle.Statements(ctx)
	if err != nil {
		return nil, err
	}
	if set == nil {
		return nil, nil
	}
	return &models.FinancialMetrics{
		Revenue:            set.Income.MetricValue(revenueLabels...),
		NetIncome:          set.Income.MetricValue(netIncomeLabels...),
		EPS:                set.Income.MetricValue(epsLabels...),
		TotalAssets:        set.Balance.MetricValue(totalAssetsLabels...),
		TotalLiabilities:   set.Balance.MetricValue(totalLiabilitiesLabels...),
		CashAndEquivalents: set.Balance.MetricValue(cashLabels...),
		OperatingCashFlow:  set.CashFlow.MetricValue(operatingCashFlowLabels...),
	}, nil
}

// fromFinancials reads the loose key-value fallback.
func (e *FinancialMetricsExtractor) fromFinancials(ctx context.Context, handle edgar.FilingHandle) (*models.FinancialMetrics, error) {
	fin, err := handle.Financials(ctx)
	if err != nil {
		return nil, err
	}
	if fin == nil {
		return nil, nil
	}
	return &models.FinancialMetrics{
		Revenue:            finite(fin.Revenue),
		NetIncome:          finite(fin.NetIncome),
		EPS:                finite(fin.EPS),
		TotalAssets:        finite(fin.TotalAssets),
		TotalLiabilities:   finite(fin.TotalLiabilities),
		CashAndEquivalents: finite(fin.CashAndEquivalents),
		OperatingCashFlow:  finite(fin.OperatingCashFlow),
	}, nil
}

// finite drops non-finite values: an unusable number is absent, never zero.
func finite(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	return v
}
