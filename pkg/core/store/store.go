package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/yueximo/opening-bell-backend/pkg/models"
)

// Store hands out units of work and serves the queries that run outside a
// processing transaction.
type Store interface {
	Begin(ctx context.Context) (UnitOfWork, error)

	// ListUnprocessedFilingIDs returns every filing still awaiting
	// processing, for external per-filing dispatch.
	ListUnprocessedFilingIDs(ctx context.Context) ([]int64, error)

	// RecordProcessingError writes the failure reason onto the filing.
	// It runs on its own connection so the note survives the rollback of
	// the failed run's unit of work.
	RecordProcessingError(ctx context.Context, filingID int64, message string) error
}

// UnitOfWork scopes all reads and writes of one processing run to a single
// database transaction.
type UnitOfWork interface {
	GetFiling(ctx context.Context, id int64) (*models.Filing, error)
	MarkFilingProcessed(ctx context.Context, id int64, at time.Time) error

	GetFinancialMetrics(ctx context.Context, filingID int64) (*models.FinancialMetrics, error)
	CreateFinancialMetrics(ctx context.Context, m *models.FinancialMetrics) error

	ListInsiderTransactions(ctx context.Context, filingID int64) ([]models.InsiderTransaction, error)
	DeleteInsiderTransaction(ctx context.Context, id int64) error
	CreateInsiderTransaction(ctx context.Context, t *models.InsiderTransaction) error

	ListCorporateEvents(ctx context.Context, filingID int64) ([]models.CorporateEvent, error)
	CreateCorporateEvent(ctx context.Context, e *models.CorporateEvent) error

	GetFilingSummary(ctx context.Context, filingID int64) (*models.FilingSummary, error)
	CreateFilingSummary(ctx context.Context, s *models.FilingSummary) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// PGStore is the Postgres-backed store.
type PGStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPGStore creates a store over an existing pool.
func NewPGStore(pool *pgxpool.Pool, logger *zap.Logger) *PGStore {
	return &PGStore{pool: pool, logger: logger}
}

// Begin opens a unit of work.
func (s *PGStore) Begin(ctx context.Context) (UnitOfWork, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &pgUnitOfWork{tx: tx}, nil
}

// ListUnprocessedFilingIDs returns the ids of all pending filings, oldest
// first.
func (s *PGStore) ListUnprocessedFilingIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id FROM edgar_filings WHERE is_processed = FALSE ORDER BY filing_date, id`)
	if err != nil {
		return nil, fmt.Errorf("list unprocessed filings: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan filing id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// RecordProcessingError writes the error text for operator visibility.
func (s *PGStore) RecordProcessingError(ctx context.Context, filingID int64, message string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE edgar_filings SET processing_error = $2 WHERE id = $1`,
		filingID, message)
	if err != nil {
		s.logger.Error("failed to record processing error",
			zap.Int64("filing_id", filingID), zap.Error(err))
		return fmt.Errorf("record processing error: %w", err)
	}
	return nil
}

type pgUnitOfWork struct {
	tx pgx.Tx
}

func (u *pgUnitOfWork) Commit(ctx context.Context) error {
	if err := u.tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (u *pgUnitOfWork) Rollback(ctx context.Context) error {
	err := u.tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

func (u *pgUnitOfWork) GetFiling(ctx context.Context, id int64) (*models.Filing, error) {
	var f models.Filing
	var items []byte
	err := u.tx.QueryRow(ctx, `
		SELECT id, company_id, cik, form, accession, filing_date, accepted_at,
		       items, primary_doc_url, is_processed, processed_at, processing_error
		FROM edgar_filings WHERE id = $1`, id,
	).Scan(&f.ID, &f.CompanyID, &f.CIK, &f.Form, &f.Accession, &f.FilingDate,
		&f.AcceptedAt, &items, &f.PrimaryDocURL, &f.IsProcessed, &f.ProcessedAt,
		&f.ProcessingError)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get filing %d: %w", id, err)
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &f.Items); err != nil {
			return nil, fmt.Errorf("decode filing items: %w", err)
		}
	}
	return &f, nil
}

func (u *pgUnitOfWork) MarkFilingProcessed(ctx context.Context, id int64, at time.Time) error {
	_, err := u.tx.Exec(ctx, `
		UPDATE edgar_filings
		SET is_processed = TRUE, processed_at = $2, processing_error = NULL
		WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("mark filing %d processed: %w", id, err)
	}
	return nil
}

func (u *pgUnitOfWork) GetFinancialMetrics(ctx context.Context, filingID int64) (*models.FinancialMetrics, error) {
	var m models.FinancialMetrics
	err := u.tx.QueryRow(ctx, `
		SELECT id, filing_id, revenue, net_income, eps, total_assets,
		       total_liabilities, cash_and_equivalents, operating_cash_flow,
		       extracted_at, extraction_error
		FROM edgar_financial_metrics WHERE filing_id = $1`, filingID,
	).Scan(&m.ID, &m.FilingID, &m.Revenue, &m.NetIncome, &m.EPS, &m.TotalAssets,
		&m.TotalLiabilities, &m.CashAndEquivalents, &m.OperatingCashFlow,
		&m.ExtractedAt, &m.ExtractionError)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get financial metrics for filing %d: %w", filingID, err)
	}
	return &m, nil
}

func (u *pgUnitOfWork) CreateFinancialMetrics(ctx context.Context, m *models.FinancialMetrics) error {
	_, err := u.tx.Exec(ctx, `
		INSERT INTO edgar_financial_metrics (
			filing_id, revenue, net_income, eps, total_assets,
			total_liabilities, cash_and_equivalents, operating_cash_flow,
			extracted_at, extraction_error
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (filing_id) DO NOTHING`,
		m.FilingID, m.Revenue, m.NetIncome, m.EPS, m.TotalAssets,
		m.TotalLiabilities, m.CashAndEquivalents, m.OperatingCashFlow,
		m.ExtractedAt, m.ExtractionError)
	if err != nil {
		return fmt.Errorf("create financial metrics for filing %d: %w", m.FilingID, err)
	}
	return nil
}

func (u *pgUnitOfWork) ListInsiderTransactions(ctx context.Context, filingID int64) ([]models.InsiderTransaction, error) {
	rows, err := u.tx.Query(ctx, `
		SELECT id, filing_id, insider_name, insider_title, insider_relationship,
		       transaction_type, shares, price_per_share, total_value,
		       transaction_date, is_large_transaction, is_executive,
		       extracted_at, extraction_error
		FROM edgar_insider_transactions WHERE filing_id = $1 ORDER BY id`, filingID)
	if err != nil {
		return nil, fmt.Errorf("list insider transactions for filing %d: %w", filingID, err)
	}
	defer rows.Close()

	var out []models.InsiderTransaction
	for rows.Next() {
		var t models.InsiderTransaction
		if err := rows.Scan(&t.ID, &t.FilingID, &t.InsiderName, &t.InsiderTitle,
			&t.InsiderRelationship, &t.TransactionType, &t.Shares, &t.PricePerShare,
			&t.TotalValue, &t.TransactionDate, &t.IsLargeTransaction, &t.IsExecutive,
			&t.ExtractedAt, &t.ExtractionError); err != nil {
			return nil, fmt.Errorf("scan insider transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (u *pgUnitOfWork) DeleteInsiderTransaction(ctx context.Context, id int64) error {
	_, err := u.tx.Exec(ctx, `DELETE FROM edgar_insider_transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete insider transaction %d: %w", id, err)
	}
	return nil
}

func (u *pgUnitOfWork) CreateInsiderTransaction(ctx context.Context, t *models.InsiderTransaction) error {
	_, err := u.tx.Exec(ctx, `
		INSERT INTO edgar_insider_transactions (
			filing_id, insider_name, insider_title, insider_relationship,
			transaction_type, shares, price_per_share, total_value,
			transaction_date, is_large_transaction, is_executive,
			extracted_at, extraction_error
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		t.FilingID, t.InsiderName, t.InsiderTitle, t.InsiderRelationship,
		t.TransactionType, t.Shares, t.PricePerShare, t.TotalValue,
		t.TransactionDate, t.IsLargeTransaction, t.IsExecutive,
		t.ExtractedAt, t.ExtractionError)
	if err != nil {
		return fmt.Errorf("create insider transaction for filing %d: %w", t.FilingID, err)
	}
	return nil
}

func (u *pgUnitOfWork) ListCorporateEvents(ctx context.Context, filingID int64) ([]models.CorporateEvent, error) {
	rows, err := u.tx.Query(ctx, `
		SELECT id, filing_id, event_type, event_date, effective_date, title,
		       description, is_material, affects_operations, affects_financials,
		       extracted_at, extraction_error
		FROM edgar_corporate_events WHERE filing_id = $1 ORDER BY id`, filingID)
	if err != nil {
		return nil, fmt.Errorf("list corporate events for filing %d: %w", filingID, err)
	}
	defer rows.Close()

	var out []models.CorporateEvent
	for rows.Next() {
		var e models.CorporateEvent
		if err := rows.Scan(&e.ID, &e.FilingID, &e.EventType, &e.EventDate,
			&e.EffectiveDate, &e.Title, &e.Description, &e.IsMaterial,
			&e.AffectsOperations, &e.AffectsFinancials, &e.ExtractedAt,
			&e.ExtractionError); err != nil {
			return nil, fmt.Errorf("scan corporate event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (u *pgUnitOfWork) CreateCorporateEvent(ctx context.Context, e *models.CorporateEvent) error {
	_, err := u.tx.Exec(ctx, `
		INSERT INTO edgar_corporate_events (
			filing_id, event_type, event_date, effective_date, title,
			description, is_material, affects_operations, affects_financials,
			extracted_at, extraction_error
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		e.FilingID, e.EventType, e.EventDate, e.EffectiveDate, e.Title,
		e.Description, e.IsMaterial, e.AffectsOperations, e.AffectsFinancials,
		e.ExtractedAt, e.ExtractionError)
	if err != nil {
		return fmt.Errorf("create corporate event for filing %d: %w", e.FilingID, err)
	}
	return nil
}

func (u *pgUnitOfWork) GetFilingSummary(ctx context.Context, filingID int64) (*models.FilingSummary, error) {
	var s models.FilingSummary
	var keyMetrics []byte
	err := u.tx.QueryRow(ctx, `
		SELECT id, filing_id, headline, summary, impact_analysis,
		       importance_score, event_category, sentiment, key_metrics,
		       generated_at, model_version
		FROM edgar_filing_summaries WHERE filing_id = $1`, filingID,
	).Scan(&s.ID, &s.FilingID, &s.Headline, &s.Summary, &s.ImpactAnalysis,
		&s.ImportanceScore, &s.EventCategory, &s.Sentiment, &keyMetrics,
		&s.GeneratedAt, &s.ModelVersion)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get summary for filing %d: %w", filingID, err)
	}
	if len(keyMetrics) > 0 {
		if err := json.Unmarshal(keyMetrics, &s.KeyMetrics); err != nil {
			return nil, fmt.Errorf("decode summary key metrics: %w", err)
		}
	}
	return &s, nil
}

func (u *pgUnitOfWork) CreateFilingSummary(ctx context.Context, s *models.FilingSummary) error {
	keyMetrics, err := json.Marshal(s.KeyMetrics)
	if err != nil {
		return fmt.Errorf("encode summary key metrics: %w", err)
	}
	_, err = u.tx.Exec(ctx, `
		INSERT INTO edgar_filing_summaries (
			filing_id, headline, summary, impact_analysis, importance_score,
			event_category, sentiment, key_metrics, generated_at, model_version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (filing_id) DO NOTHING`,
		s.FilingID, s.Headline, s.Summary, s.ImpactAnalysis, s.ImportanceScore,
		s.EventCategory, s.Sentiment, keyMetrics, s.GeneratedAt, s.ModelVersion)
	if err != nil {
		return fmt.Errorf("create summary for filing %d: %w", s.FilingID, err)
	}
	return nil
}
