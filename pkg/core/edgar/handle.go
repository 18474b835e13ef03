// Package edgar is the filing content gateway: it resolves companies and
// filings against SEC EDGAR and exposes each filing's content through a
// typed capability interface. Upstream shapes vary by form type and document
// vintage, so every accessor is optional: (nil, nil) means the capability is
// not available for this filing, a non-nil error means the probe itself
// failed. Callers run ordered fallback chains over these probes.
package edgar

import (
	"context"
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrCompanyNotFound is returned when the CIK resolves to nothing upstream.
	ErrCompanyNotFound = errors.New("edgar: company not found")
	// ErrFilingNotFound is returned when the accession number is not among
	// the company's submissions.
	ErrFilingNotFound = errors.New("edgar: filing not found")
)

// FilingHandle is a capability-bearing handle on one filing's content.
// Which accessors yield data depends on the form type: periodic reports
// carry statements, ownership reports carry transactions, material-event
// reports carry an event object. The tabular accessors are best-effort
// fallbacks parsed out of the primary document.
type FilingHandle interface {
	Form() string
	AccessionNumber() string
	FilingDate() time.Time

	// Statements returns the row-labeled financial statements reported by
	// this filing (income, balance sheet, cash flow).
	Statements(ctx context.Context) (*StatementSet, error)

	// Financials is the loose key-value fallback for the same facts, not
	// scoped to a single statement.
	Financials(ctx context.Context) (*Financials, error)

	// Ownership returns the parsed ownership document for Form 3/4/5 filings.
	Ownership(ctx context.Context) (*OwnershipDocument, error)

	// MarketTrades returns the open-market trade table of the primary
	// document, when one can be located.
	MarketTrades(ctx context.Context) (*Table, error)

	// GenericTable returns the first data table of the primary document.
	GenericTable(ctx context.Context) (*Table, error)

	// Event returns the generic event object for material-event filings.
	Event(ctx context.Context) (*EventObject, error)
}

// StatementSet groups the three core financial statements.
type StatementSet struct {
	Income   *Statement
	Balance  *Statement
	CashFlow *Statement
}

// Statement is a row-labeled table keyed by reporting period.
type Statement struct {
	Periods []string // period end dates, e.g. "2024-09-28"
	Rows    []StatementRow
}

// StatementRow is one line item with raw per-period values.
type StatementRow struct {
	Label  string
	Values map[string]string // period -> raw value
}

// Financials carries the loosely-typed fallback figures. Absent figures
// are nil.
type Financials struct {
	Revenue            *float64
	NetIncome          *float64
	EPS                *float64
	TotalAssets        *float64
	TotalLiabilities   *float64
	CashAndEquivalents *float64
	OperatingCashFlow  *float64
}

// OwnershipDocument is the parsed content of a Form 3/4/5. Field coverage
// varies across document vintages: newer documents populate the direct
// insider fields, older ones only the owner list or the legacy fields.
type OwnershipDocument struct {
	InsiderName string // direct field
	Position    string // direct field

	OwnerName  string // legacy reporting-owner fields
	OwnerTitle string

	Owners       []Owner
	Transactions []TransactionRow

	NetSharesTraded *float64
	SharesTraded    *float64
}

// Owner is one reporting owner.
type Owner struct {
	Name  string
	Title string
}

// TransactionRow is one transaction entry from the structured list.
type TransactionRow struct {
	Code          string
	Shares        *float64
	PricePerShare *float64
	Date          *time.Time
	Value         *float64
}

// EventObject is the generic shaped data of a material-event filing.
// Primary and alias fields mirror the two naming generations seen upstream;
// resolution is direct-field-then-alias.
type EventObject struct {
	EventType string
	Type      string // alias

	EventDate *time.Time
	Date      *time.Time // alias

	EffectiveDate *time.Time
	Effective     *time.Time // alias

	Title   string
	Subject string // alias

	Description string
	Summary     string // alias

	IsMaterial        *bool
	AffectsOperations *bool
	AffectsFinancials *bool
}

// Table is a generic tabular export: ordered columns, string-valued rows.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Empty reports whether the table has no data rows.
func (t *Table) Empty() bool {
	return t == nil || len(t.Rows) == 0
}

// FirstRowValue returns the first row's cell under the first column whose
// name matches one of the aliases exactly, in alias order.
func (t *Table) FirstRowValue(aliases ...string) (string, bool) {
	if t.Empty() {
		return "", false
	}
	row := t.Rows[0]
	for _, alias := range aliases {
		for i, col := range t.Columns {
			if col != alias || i >= len(row) {
				continue
			}
			if v := strings.TrimSpace(row[i]); v != "" {
				return v, true
			}
		}
	}
	return "", false
}

// MetricValue searches the statement for the first line item matching one of
// the label synonyms (case-insensitive substring match) that carries a
// genuinely numeric value in the most recent reporting period. Synonyms are
// tried in priority order.
func (s *Statement) MetricValue(labels ...string) *float64 {
	if s == nil {
		return nil
	}
	periods := s.numericPeriods()
	if len(periods) == 0 {
		return nil
	}
	latest := periods[len(periods)-1]
	for _, label := range labels {
		needle := strings.ToLower(label)
		for _, row := range s.Rows {
			if !strings.Contains(strings.ToLower(row.Label), needle) {
				continue
			}
			if v, ok := ParseFinite(row.Values[latest]); ok {
				return &v
			}
		}
	}
	return nil
}

// numericPeriods returns the periods that contain at least one numeric
// observation, sorted ascending so the last element is the most recent.
func (s *Statement) numericPeriods() []string {
	var periods []string
	for _, period := range s.Periods {
		for _, row := range s.Rows {
			if _, ok := ParseFinite(row.Values[period]); ok {
				periods = append(periods, period)
				break
			}
		}
	}
	sort.Strings(periods)
	return periods
}

// ParseFinite coerces a raw cell value to a finite float. Anything else
// counts as absent, never as zero.
func ParseFinite(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
