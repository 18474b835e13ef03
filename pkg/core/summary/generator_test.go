package summary

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yueximo/opening-bell-backend/pkg/models"
)

// mockUOW serves canned records; writes are captured.
type mockUOW struct {
	metrics      *models.FinancialMetrics
	transactions []models.InsiderTransaction
	events       []models.CorporateEvent
	existing     *models.FilingSummary

	created []*models.FilingSummary
}

func (m *mockUOW) GetFiling(ctx context.Context, id int64) (*models.Filing, error) { return nil, nil }
func (m *mockUOW) MarkFilingProcessed(ctx context.Context, id int64, at time.Time) error {
	return nil
}
func (m *mockUOW) GetFinancialMetrics(ctx context.Context, filingID int64) (*models.FinancialMetrics, error) {
	return m.metrics, nil
}
func (m *mockUOW) CreateFinancialMetrics(ctx context.Context, rec *models.FinancialMetrics) error {
	return nil
}
func (m *mockUOW) ListInsiderTransactions(ctx context.Context, filingID int64) ([]models.InsiderTransaction, error) {
	return m.transactions, nil
}
func (m *mockUOW) DeleteInsiderTransaction(ctx context.Context, id int64) error { return nil }
func (m *mockUOW) CreateInsiderTransaction(ctx context.Context, t *models.InsiderTransaction) error {
	return nil
}
func (m *mockUOW) ListCorporateEvents(ctx context.Context, filingID int64) ([]models.CorporateEvent, error) {
	return m.events, nil
}
func (m *mockUOW) CreateCorporateEvent(ctx context.Context, e *models.CorporateEvent) error {
	return nil
}
func (m *mockUOW) GetFilingSummary(ctx context.Context, filingID int64) (*models.FilingSummary, error) {
	return m.existing, nil
}
func (m *mockUOW) CreateFilingSummary(ctx context.Context, s *models.FilingSummary) error {
	m.created = append(m.created, s)
	return nil
}
func (m *mockUOW) Commit(ctx context.Context) error   { return nil }
func (m *mockUOW) Rollback(ctx context.Context) error { return nil }

func filing(form string) *models.Filing {
	return &models.Filing{
		ID:         42,
		Form:       form,
		Accession:  "0000320193-24-000001",
		FilingDate: time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC),
	}
}

func generate(t *testing.T, uow *mockUOW, f *models.Filing) *models.FilingSummary {
	t.Helper()
	g := NewGenerator(zap.NewNop())
	require.NoError(t, g.Generate(context.Background(), uow, f))
	require.Len(t, uow.created, 1)
	return uow.created[0]
}

func TestEarningsSummaryCompleteMetrics(t *testing.T) {
	revenue := 91_000_000_000.0
	netIncome := 22_500_000_000.0
	eps := 1.46
	uow := &mockUOW{metrics: &models.FinancialMetrics{
		FilingID: 42, Revenue: &revenue, NetIncome: &netIncome, EPS: &eps,
	}}

	s := generate(t, uow, filing(models.Form10Q))

	assert.Equal(t, "10-Q Filing - Financial Metrics Available", s.Headline)
	assert.Equal(t, "Company submitted 10-Q filing with financial data including revenue, net income, and EPS.", s.Summary)
	assert.Equal(t, 0.8, s.ImportanceScore)
	assert.Equal(t, models.CategoryEarnings, s.EventCategory)
	assert.Equal(t, models.SentimentPositive, s.Sentiment)
	assert.Equal(t, "$91.0B", s.KeyMetrics["revenue"])
	assert.Equal(t, "$22.5B", s.KeyMetrics["net_income"])
	assert.Equal(t, "$1.46", s.KeyMetrics["eps"])
	assert.Equal(t, ModelVersion, s.ModelVersion)
}

func TestEarningsSummaryPartialMetrics(t *testing.T) {
	revenue := 5_300_000_000.0
	uow := &mockUOW{metrics: &models.FinancialMetrics{FilingID: 42, Revenue: &revenue}}

	s := generate(t, uow, filing(models.Form10K))

	assert.Equal(t, 0.6, s.ImportanceScore)
	assert.Equal(t, models.SentimentNeutral, s.Sentiment)
	assert.Equal(t, "$5.3B", s.KeyMetrics["revenue"])
	assert.Equal(t, "N/A", s.KeyMetrics["net_income"])
	assert.Equal(t, "N/A", s.KeyMetrics["eps"])
}

func TestEarningsSummaryEmptyPlaceholder(t *testing.T) {
	uow := &mockUOW{metrics: &models.FinancialMetrics{FilingID: 42}}

	s := generate(t, uow, filing(models.Form10K))

	assert.Equal(t, 0.4, s.ImportanceScore)
	assert.Equal(t, models.SentimentNeutral, s.Sentiment)
}

func TestInsiderSummaryExecutivePurchase(t *testing.T) {
	price := 25.50
	value := 382_500.0
	title := "Chief Executive Officer"
	uow := &mockUOW{transactions: []models.InsiderTransaction{{
		FilingID:        42,
		InsiderName:     "Jane Roe",
		InsiderTitle:    &title,
		TransactionType: models.TxPurchase,
		Shares:          15_000,
		PricePerShare:   &price,
		TotalValue:      &value,
		IsExecutive:     true,
	}}}

	s := generate(t, uow, filing(models.Form4))

	assert.Equal(t, "Jane Roe purchases 15,000 shares", s.Headline)
	assert.Equal(t, "Jane Roe (Chief Executive Officer) purchaseed 15,000 shares at $25.50 per share.", s.Summary)
	assert.Equal(t, 0.7, s.ImportanceScore)
	assert.Equal(t, models.CategoryInsiderTrade, s.EventCategory)
	assert.Equal(t, models.SentimentPositive, s.Sentiment)
	assert.Equal(t, "15,000", s.KeyMetrics["shares"])
	assert.Equal(t, "$0.4M", s.KeyMetrics["value"])
	assert.Equal(t, "$25.50", s.KeyMetrics["price"])
}

func TestInsiderSummaryNonExecutiveSale(t *testing.T) {
	uow := &mockUOW{transactions: []models.InsiderTransaction{{
		FilingID:        42,
		InsiderName:     "John Stiles",
		TransactionType: models.TxSale,
		Shares:          800,
	}}}

	s := generate(t, uow, filing(models.Form4))

	assert.Equal(t, "John Stiles sales 800 shares", s.Headline)
	assert.Equal(t, "John Stiles (Unknown) saleed 800 shares at N/A per share.", s.Summary)
	assert.Equal(t, 0.5, s.ImportanceScore)
	assert.Equal(t, models.SentimentNegative, s.Sentiment)
	assert.Equal(t, "N/A", s.KeyMetrics["value"])
}

func TestEventSummaryMaterial(t *testing.T) {
	title := "Q4 2024 Results"
	uow := &mockUOW{events: []models.CorporateEvent{{
		FilingID:   42,
		EventType:  "CEO_CHANGE",
		Title:      &title,
		IsMaterial: true,
	}}}

	s := generate(t, uow, filing(models.Form8K))

	assert.Equal(t, "Corporate Event: Q4 2024 Results", s.Headline)
	assert.Equal(t, "Company announced ceo change: No description available.", s.Summary)
	assert.Equal(t, 0.8, s.ImportanceScore)
	assert.Equal(t, models.CategoryCorporateEvent, s.EventCategory)
	assert.Equal(t, models.SentimentNeutral, s.Sentiment)
	assert.Equal(t, "CEO_CHANGE", s.KeyMetrics["event_type"])
	assert.Equal(t, "true", s.KeyMetrics["is_material"])
}

func TestGenericSummaryForUnhandledForm(t *testing.T) {
	uow := &mockUOW{}

	s := generate(t, uow, filing("13F-HR"))

	assert.Equal(t, "13F-HR Filing Submitted", s.Headline)
	assert.Equal(t, "Company submitted 13F-HR filing to SEC on 2024-11-01.", s.Summary)
	assert.Equal(t, 0.3, s.ImportanceScore)
	assert.Equal(t, models.CategoryRegulatory, s.EventCategory)
	assert.Equal(t, models.SentimentNeutral, s.Sentiment)
	assert.Equal(t, "2024-11-01", s.KeyMetrics["filing_date"])
	assert.Equal(t, "13F-HR", s.KeyMetrics["form_type"])
}

func TestGenericSummaryWhenFactsMissing(t *testing.T) {
	// An ownership filing with no extracted transactions takes the generic path.
	uow := &mockUOW{}

	s := generate(t, uow, filing(models.Form4))
	assert.Equal(t, models.CategoryRegulatory, s.EventCategory)
	assert.Equal(t, 0.3, s.ImportanceScore)
}

func TestGenerateSkipsExistingSummary(t *testing.T) {
	uow := &mockUOW{existing: &models.FilingSummary{ID: 1, FilingID: 42}}

	g := NewGenerator(zap.NewNop())
	require.NoError(t, g.Generate(context.Background(), uow, filing(models.Form10K)))
	assert.Empty(t, uow.created)
}

func TestFormatShares(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1_000, "1,000"},
		{15_000, "15,000"},
		{1_234_567, "1,234,567"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, formatShares(tc.in))
	}
}
