package extract

import (
	"context"
	"time"

	"github.com/yueximo/opening-bell-backend/pkg/core/edgar"
	"github.com/yueximo/opening-bell-backend/pkg/models"
)

// mockHandle stubs the filing content gateway. Unset accessors report the
// capability as absent.
type mockHandle struct {
	form       string
	accession  string
	filingDate time.Time

	StatementsFunc   func(ctx context.Context) (*edgar.StatementSet, error)
	FinancialsFunc   func(ctx context.Context) (*edgar.Financials, error)
	OwnershipFunc    func(ctx context.Context) (*edgar.OwnershipDocument, error)
	MarketTradesFunc func(ctx context.Context) (*edgar.Table, error)
	GenericTableFunc func(ctx context.Context) (*edgar.Table, error)
	EventFunc        func(ctx context.Context) (*edgar.EventObject, error)
}

func (m *mockHandle) Form() string            { return m.form }
func (m *mockHandle) AccessionNumber() string { return m.accession }
func (m *mockHandle) FilingDate() time.Time   { return m.filingDate }

func (m *mockHandle) Statements(ctx context.Context) (*edgar.StatementSet, error) {
	if m.StatementsFunc == nil {
		return nil, nil
	}
	return m.StatementsFunc(ctx)
}

func (m *mockHandle) Financials(ctx context.Context) (*edgar.Financials, error) {
	if m.FinancialsFunc == nil {
		return nil, nil
	}
	return m.FinancialsFunc(ctx)
}

func (m *mockHandle) Ownership(ctx context.Context) (*edgar.OwnershipDocument, error) {
	if m.OwnershipFunc == nil {
		return nil, nil
	}
	return m.OwnershipFunc(ctx)
}

func (m *mockHandle) MarketTrades(ctx context.Context) (*edgar.Table, error) {
	if m.MarketTradesFunc == nil {
		return nil, nil
	}
	return m.MarketTradesFunc(ctx)
}

func (m *mockHandle) GenericTable(ctx context.Context) (*edgar.Table, error) {
	if m.GenericTableFunc == nil {
		return nil, nil
	}
	return m.GenericTableFunc(ctx)
}

func (m *mockHandle) Event(ctx context.Context) (*edgar.EventObject, error) {
	if m.EventFunc == nil {
		return nil, nil
	}
	return m.EventFunc(ctx)
}

// mockUOW records writes in memory and serves reads from its fields.
type mockUOW struct {
	filing *models.Filing

	metrics      *models.FinancialMetrics
	transactions []models.InsiderTransaction
	events       []models.CorporateEvent
	summary      *models.FilingSummary

	createdMetrics      []*models.FinancialMetrics
	createdTransactions []*models.InsiderTransaction
	createdEvents       []*models.CorporateEvent
	createdSummaries    []*models.FilingSummary
	deletedTransactions []int64

	committed  bool
	rolledBack bool
}

func (m *mockUOW) GetFiling(ctx context.Context, id int64) (*models.Filing, error) {
	return m.filing, nil
}

func (m *mockUOW) MarkFilingProcessed(ctx context.Context, id int64, at time.Time) error {
	if m.filing != nil {
		m.filing.IsProcessed = true
		m.filing.ProcessedAt = &at
	}
	return nil
}

func (m *mockUOW) GetFinancialMetrics(ctx context.Context, filingID int64) (*models.FinancialMetrics, error) {
	return m.metrics, nil
}

func (m *mockUOW) CreateFinancialMetrics(ctx context.Context, rec *models.FinancialMetrics) error {
	m.createdMetrics = append(m.createdMetrics, rec)
	m.metrics = rec
	return nil
}

func (m *mockUOW) ListInsiderTransactions(ctx context.Context, filingID int64) ([]models.InsiderTransaction, error) {
	return m.transactions, nil
}

func (m *mockUOW) DeleteInsiderTransaction(ctx context.Context, id int64) error {
	m.deletedTransactions = append(m.deletedTransactions, id)
	var kept []models.InsiderTransaction
	for _, t := range m.transactions {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	m.transactions = kept
	return nil
}

func (m *mockUOW) CreateInsiderTransaction(ctx context.Context, t *models.InsiderTransaction) error {
	m.createdTransactions = append(m.createdTransactions, t)
	m.transactions = append(m.transactions, *t)
	return nil
}

func (m *mockUOW) ListCorporateEvents(ctx context.Context, filingID int64) ([]models.CorporateEvent, error) {
	return m.events, nil
}

func (m *mockUOW) CreateCorporateEvent(ctx context.Context, e *models.CorporateEvent) error {
	m.createdEvents = append(m.createdEvents, e)
	m.events = append(m.events, *e)
	return nil
}

func (m *mockUOW) GetFilingSummary(ctx context.Context, filingID int64) (*models.FilingSummary, error) {
	return m.summary, nil
}

func (m *mockUOW) CreateFilingSummary(ctx context.Context, s *models.FilingSummary) error {
	m.createdSummaries = append(m.createdSummaries, s)
	m.summary = s
	return nil
}

func (m *mockUOW) Commit(ctx context.Context) error {
	m.committed = true
	return nil
}

func (m *mockUOW) Rollback(ctx context.Context) error {
	m.rolledBack = true
	return nil
}
