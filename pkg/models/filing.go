// Package models defines the persisted entities for the OpeningBell filing
// digest pipeline: companies, EDGAR filings, and the per-filing fact records
// produced by content processing.
package models

import "time"

// Form type codes routed by the content processing pipeline.
const (
	Form10K = "10-K"
	Form10Q = "10-Q"
	Form4   = "4"
	Form4A  = "4/A"
	Form8K  = "8-K"
	Form6K  = "6-K"
)

// Filing is one EDGAR submission tracked for content processing.
type Filing struct {
	ID        int64  `db:"id" json:"id"`
	CompanyID *int64 `db:"company_id" json:"company_id,omitempty"`
	CIK       string `db:"cik" json:"cik"`
	Form      string `db:"form" json:"form"`
	Accession string `db:"accession" json:"accession"`

	FilingDate time.Time `db:"filing_date" json:"filing_date"`
	AcceptedAt time.Time `db:"accepted_at" json:"accepted_at"`

	Items         []string `db:"items" json:"items,omitempty"`
	PrimaryDocURL *string  `db:"primary_doc_url" json:"primary_doc_url,omitempty"`

	// Processing status. A filing transitions to processed exactly once;
	// a failed run leaves is_processed false and records the error.
	IsProcessed     bool       `db:"is_processed" json:"is_processed"`
	ProcessedAt     *time.Time `db:"processed_at" json:"processed_at,omitempty"`
	ProcessingError *string    `db:"processing_error" json:"processing_error,omitempty"`
}

// IsPeriodicReport reports whether the filing is a 10-K or 10-Q.
func (f *Filing) IsPeriodicReport() bool {
	return f.Form == Form10K || f.Form == Form10Q
}

// IsOwnershipReport reports whether the filing is a Form 4 (or amendment).
func (f *Filing) IsOwnershipReport() bool {
	return f.Form == Form4 || f.Form == Form4A
}

// IsMaterialEvent reports whether the filing is an 8-K or 6-K.
func (f *Filing) IsMaterialEvent() bool {
	return f.Form == Form8K || f.Form == Form6K
}

// Company is a tracked issuer. Roster loading lives outside this service;
// the entity exists because filings carry a company_id foreign key.
type Company struct {
	ID        int64     `db:"id" json:"id"`
	Ticker    string    `db:"ticker" json:"ticker"`
	Name      string    `db:"name" json:"name"`
	CIK       *string   `db:"cik" json:"cik,omitempty"`
	Aliases   []string  `db:"aliases" json:"aliases,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
