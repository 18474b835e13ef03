package models

import "time"

// FinancialMetrics holds the headline figures extracted from a 10-K/10-Q.
// At most one row exists per filing; partial extraction is valid, so every
// figure is independently nullable. A row with all figures nil and
// ExtractionError set marks an attempted extraction that found nothing
// usable, which prevents repeated re-attempts.
type FinancialMetrics struct {
	ID       int64 `db:"id" json:"id"`
	FilingID int64 `db:"filing_id" json:"filing_id"`

	Revenue   *float64 `db:"revenue" json:"revenue,omitempty"`
	NetIncome *float64 `db:"net_income" json:"net_income,omitempty"`
	EPS       *float64 `db:"eps" json:"eps,omitempty"`

	TotalAssets        *float64 `db:"total_assets" json:"total_assets,omitempty"`
	TotalLiabilities   *float64 `db:"total_liabilities" json:"total_liabilities,omitempty"`
	CashAndEquivalents *float64 `db:"cash_and_equivalents" json:"cash_and_equivalents,omitempty"`

	OperatingCashFlow *float64 `db:"operating_cash_flow" json:"operating_cash_flow,omitempty"`

	ExtractedAt     time.Time `db:"extracted_at" json:"extracted_at"`
	ExtractionError *string   `db:"extraction_error" json:"extraction_error,omitempty"`
}

// Insider transaction types mapped from Form 4 transaction codes.
const (
	TxPurchase    = "PURCHASE"
	TxSale        = "SALE"
	TxGrant       = "GRANT"
	TxExercise    = "EXERCISE"
	TxDisposition = "DISPOSITION"
	TxGift        = "GIFT"
	TxVoluntary   = "VOLUNTARY"
	TxUnknown     = "UNKNOWN"
)

// Normalized insider relationships derived from the reported title.
const (
	RelCEO       = "CEO"
	RelCFO       = "CFO"
	RelDirector  = "DIRECTOR"
	RelPresident = "PRESIDENT"
	RelChairman  = "CHAIRMAN"
)

// InsiderTransaction is the canonical transaction extracted from a Form 4.
// The pipeline commits at most one per processing run.
type InsiderTransaction struct {
	ID       int64 `db:"id" json:"id"`
	FilingID int64 `db:"filing_id" json:"filing_id"`

	InsiderName         string  `db:"insider_name" json:"insider_name"`
	InsiderTitle        *string `db:"insider_title" json:"insider_title,omitempty"`
	InsiderRelationship *string `db:"insider_relationship" json:"insider_relationship,omitempty"`

	TransactionType string    `db:"transaction_type" json:"transaction_type"`
	Shares          int64     `db:"shares" json:"shares"`
	PricePerShare   *float64  `db:"price_per_share" json:"price_per_share,omitempty"`
	TotalValue      *float64  `db:"total_value" json:"total_value,omitempty"`
	TransactionDate time.Time `db:"transaction_date" json:"transaction_date"`

	// Significance flags: >$100k or >10k shares; C-suite/board relationship.
	IsLargeTransaction bool `db:"is_large_transaction" json:"is_large_transaction"`
	IsExecutive        bool `db:"is_executive" json:"is_executive"`

	ExtractedAt     time.Time `db:"extracted_at" json:"extracted_at"`
	ExtractionError *string   `db:"extraction_error" json:"extraction_error,omitempty"`
}

// Valid reports whether the transaction passed the extraction validity gate.
// Invalid rows are placeholders and get replaced on the next attempt.
func (t *InsiderTransaction) Valid() bool {
	return t.Shares > 0 && t.TransactionType != TxUnknown
}

// CorporateEvent is a classified material event extracted from an 8-K/6-K.
type CorporateEvent struct {
	ID       int64 `db:"id" json:"id"`
	FilingID int64 `db:"filing_id" json:"filing_id"`

	EventType     string     `db:"event_type" json:"event_type"`
	EventDate     *time.Time `db:"event_date" json:"event_date,omitempty"`
	EffectiveDate *time.Time `db:"effective_date" json:"effective_date,omitempty"`

	Title       *string `db:"title" json:"title,omitempty"`
	Description *string `db:"description" json:"description,omitempty"`

	IsMaterial        bool `db:"is_material" json:"is_material"`
	AffectsOperations bool `db:"affects_operations" json:"affects_operations"`
	AffectsFinancials bool `db:"affects_financials" json:"affects_financials"`

	ExtractedAt     time.Time `db:"extracted_at" json:"extracted_at"`
	ExtractionError *string   `db:"extraction_error" json:"extraction_error,omitempty"`
}

// Summary event categories.
const (
	CategoryEarnings       = "EARNINGS"
	CategoryInsiderTrade   = "INSIDER_TRADE"
	CategoryCorporateEvent = "CORPORATE_EVENT"
	CategoryRegulatory     = "REGULATORY"
)

// Summary sentiment labels.
const (
	SentimentPositive = "POSITIVE"
	SentimentNegative = "NEGATIVE"
	SentimentNeutral  = "NEUTRAL"
)

// FilingSummary is the digest card generated for every processed filing.
type FilingSummary struct {
	ID       int64 `db:"id" json:"id"`
	FilingID int64 `db:"filing_id" json:"filing_id"`

	Headline       string `db:"headline" json:"headline"`
	Summary        string `db:"summary" json:"summary"`
	ImpactAnalysis string `db:"impact_analysis" json:"impact_analysis"`

	ImportanceScore float64 `db:"importance_score" json:"importance_score"`
	EventCategory   string  `db:"event_category" json:"event_category"`
	Sentiment       string  `db:"sentiment" json:"sentiment"`

	// Display-formatted strings for card rendering, e.g. {"revenue": "$91.0B"}.
	KeyMetrics map[string]string `db:"key_metrics" json:"key_metrics,omitempty"`

	GeneratedAt  time.Time `db:"generated_at" json:"generated_at"`
	ModelVersion string    `db:"model_version" json:"model_version"`
}
