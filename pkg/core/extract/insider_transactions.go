package extract

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yueximo/opening-bell-backend/pkg/core/edgar"
	"github.com/yueximo/opening-bell-backend/pkg/core/store"
	"github.com/yueximo/opening-bell-backend/pkg/models"
)

// Fixed transaction code table. Codes outside the table map to their
// uppercase form; an empty code stays UNKNOWN.
var transactionCodes = map[string]string{
	"P": models.TxPurchase,
	"S": models.TxSale,
	"A": models.TxGrant,
	"M": models.TxExercise,
	"D": models.TxDisposition,
	"G": models.TxGift,
	"V": models.TxVoluntary,
}

// MapTransactionCode normalizes a Form 4 transaction code.
func MapTransactionCode(code string) string {
	if code == "" {
		return models.TxUnknown
	}
	if mapped, ok := transactionCodes[code]; ok {
		return mapped
	}
	return strings.ToUpper(code)
}

// Relationships that count as executive for significance flagging.
var executiveRelationships = map[string]bool{
	models.RelCEO:       true,
	models.RelCFO:       true,
	models.RelDirector:  true,
	models.RelPresident: true,
	models.RelChairman:  true,
}

// Column aliases for the tabular fallbacks.
var (
	shareColumnAliases = []string{"Shares", "shares", "Amount", "amount", "Quantity", "quantity"}
	priceColumnAliases = []string{"Price", "price", "PricePerShare", "price_per_share"}
	dateColumnAliases  = []string{"Date", "date", "TransactionDate", "transaction_date"}
)

// InsiderTransactionExtractor derives one canonical transaction per Form 4.
type InsiderTransactionExtractor struct {
	logger *zap.Logger
}

func NewInsiderTransactionExtractor(logger *zap.Logger) *InsiderTransactionExtractor {
	return &InsiderTransactionExtractor{logger: logger}
}

func (e *InsiderTransactionExtractor) Name() string { return "insider_transactions" }

// Extract produces the canonical transaction for an ownership filing.
// A valid existing record makes this a no-op; invalid records are deleted
// and extraction re-runs. When the validity gate fails, a placeholder record
// carrying a diagnostic is persisted instead.
func (e *InsiderTransactionExtractor) Extract(ctx context.Context, uow store.UnitOfWork, filing *models.Filing, handle edgar.FilingHandle) error {
	existing, err := uow.ListInsiderTransactions(ctx, filing.ID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		for _, t := range existing {
			if t.Valid() {
				e.logger.Info("valid insider transaction already exists",
					zap.Int64("filing_id", filing.ID))
				return nil
			}
		}
		e.logger.Info("deleting failed insider transactions before reprocessing",
			zap.Int64("filing_id", filing.ID),
			zap.Int("count", len(existing)))
		for _, t := range existing {
			if err := uow.DeleteInsiderTransaction(ctx, t.ID); err != nil {
				return err
			}
		}
	}

	doc, docErr := handle.Ownership(ctx)
	if docErr != nil {
		e.logger.Warn("ownership document probe failed",
			zap.Int64("filing_id", filing.ID), zap.Error(docErr))
	}

	name, title := e.resolveIdentity(ctx, doc, handle)
	relationship := classifyRelationship(title)

	facts := e.resolveFacts(ctx, doc, handle, filing)

	if facts.Shares != 0 && facts.Type != models.TxUnknown {
		shares := int64(math.Abs(facts.Shares))
		isExecutive := relationship != nil && executiveRelationships[*relationship]
		tx := &models.InsiderTransaction{
			FilingID:            filing.ID,
			InsiderName:         name,
			InsiderTitle:        title,
			InsiderRelationship: relationship,
			TransactionType:     facts.Type,
			Shares:              shares,
			PricePerShare:       facts.Price,
			TotalValue:          facts.Value,
			TransactionDate:     facts.Date,
			IsLargeTransaction:  isLargeTransaction(shares, facts.Value),
			IsExecutive:         isExecutive,
			ExtractedAt:         time.Now().UTC(),
		}
		if err := uow.CreateInsiderTransaction(ctx, tx); err != nil {
			return err
		}
		e.logger.Info("extracted insider transaction",
			zap.Int64("filing_id", filing.ID),
			zap.String("insider", name),
			zap.String("type", facts.Type),
			zap.Int64("shares", shares))
		return nil
	}

	diagnostic := facts.diagnostic(docErr)
	e.logger.Warn("no valid insider transaction data found",
		zap.Int64("filing_id", filing.ID),
		zap.String("reason", diagnostic))
	return e.createPlaceholder(ctx, uow, filing.ID, diagnostic)
}

// createPlaceholder persists the empty/error record that marks an attempted
// extraction and blocks endless re-processing.
func (e *InsiderTransactionExtractor) createPlaceholder(ctx context.Context, uow store.UnitOfWork, filingID int64, message string) error {
	return uow.CreateInsiderTransaction(ctx, &models.InsiderTransaction{
		FilingID:        filingID,
		InsiderName:     "Unknown",
		TransactionType: models.TxUnknown,
		Shares:          0,
		TransactionDate: time.Now().UTC(),
		ExtractedAt:     time.Now().UTC(),
		ExtractionError: &message,
	})
}

// identityProbe is one candidate source for the insider's name or title.
type identityProbe struct {
	source string
	read   func() string
}

// resolveIdentity walks the ordered candidate sources and stops at the first
// non-empty result per field. Name defaults to the "Unknown" sentinel, title
// stays absent.
func (e *InsiderTransactionExtractor) resolveIdentity(ctx context.Context, doc *edgar.OwnershipDocument, handle edgar.FilingHandle) (string, *string) {
	nameProbes := []identityProbe{
		{"insider_name", func() string { return ownershipField(doc, func(d *edgar.OwnershipDocument) string { return d.InsiderName }) }},
		{"owner_name", func() string { return ownershipField(doc, func(d *edgar.OwnershipDocument) string { return d.OwnerName }) }},
		{"owners_first", func() string { return firstOwnerField(doc, func(o edgar.Owner) string { return o.Name }) }},
		{"table", func() string { return tableField(ctx, handle, "Name", "Insider", "Reporting Person") }},
	}
	titleProbes := []identityProbe{
		{"position", func() string { return ownershipField(doc, func(d *edgar.OwnershipDocument) string { return d.Position }) }},
		{"owner_title", func() string { return ownershipField(doc, func(d *edgar.OwnershipDocument) string { return d.OwnerTitle }) }},
		{"owners_first", func() string { return firstOwnerField(doc, func(o edgar.Owner) string { return o.Title }) }},
		{"table", func() string { return tableField(ctx, handle, "Title", "Position") }},
	}

	name := "Unknown"
	for _, p := range nameProbes {
		if v := p.read(); v != "" {
			e.logger.Debug("resolved insider name", zap.String("source", p.source))
			name = v
			break
		}
	}
	var title *string
	for _, p := range titleProbes {
		if v := p.read(); v != "" {
			e.logger.Debug("resolved insider title", zap.String("source", p.source))
			title = &v
			break
		}
	}
	return name, title
}

func ownershipField(doc *edgar.OwnershipDocument, read func(*edgar.OwnershipDocument) string) string {
	if doc == nil {
		return ""
	}
	return strings.TrimSpace(read(doc))
}

func firstOwnerField(doc *edgar.OwnershipDocument, read func(edgar.Owner) string) string {
	if doc == nil || len(doc.Owners) == 0 {
		return ""
	}
	return strings.TrimSpace(read(doc.Owners[0]))
}

func tableField(ctx context.Context, handle edgar.FilingHandle, aliases ...string) string {
	t, err := handle.GenericTable(ctx)
	if err != nil || t.Empty() {
		return ""
	}
	v, _ := t.FirstRowValue(aliases...)
	return v
}

// classifyRelationship derives the normalized role from the title by keyword
// match; unmatched titles pass through uppercased.
func classifyRelationship(title *string) *string {
	if title == nil || *title == "" {
		return nil
	}
	lower := strings.ToLower(*title)
	var rel string
	switch {
	case strings.Contains(lower, "ceo"), strings.Contains(lower, "chief executive"):
		rel = models.RelCEO
	case strings.Contains(lower, "cfo"), strings.Contains(lower, "chief financial"):
		rel = models.RelCFO
	case strings.Contains(lower, "director"):
		rel = models.RelDirector
	case strings.Contains(lower, "president"):
		rel = models.RelPresident
	case strings.Contains(lower, "chairman"):
		rel = models.RelChairman
	default:
		rel = strings.ToUpper(*title)
	}
	return &rel
}

// transactionFacts accumulates the resolved transaction fields across the
// fallback chain. Shares keeps its sign until persistence.
type transactionFacts struct {
	Type   string
	Shares float64
	Price  *float64
	Value  *float64
	Date   time.Time
}

func (f *transactionFacts) diagnostic(probeErr error) string {
	switch {
	case probeErr != nil && f.Shares == 0 && f.Type == models.TxUnknown:
		return fmt.Sprintf("no transaction data available: %v", probeErr)
	case f.Shares == 0:
		return "no usable share count found in any source"
	default:
		return "transaction code could not be classified"
	}
}

// factResolver is one stage of the fact fallback chain. Stages self-guard on
// which fields are still missing and fill only those.
type factResolver struct {
	name    string
	resolve func(ctx context.Context, doc *edgar.OwnershipDocument, handle edgar.FilingHandle, facts *transactionFacts)
}

// resolveFacts runs the ordered fallback chain and applies the derived-value
// rules: computed total, zero price for grants, filing-date fallback.
func (e *InsiderTransactionExtractor) resolveFacts(ctx context.Context, doc *edgar.OwnershipDocument, handle edgar.FilingHandle, filing *models.Filing) *transactionFacts {
	facts := &transactionFacts{Type: models.TxUnknown}

	resolvers := []factResolver{
		{"transactions_list", e.fromTransactionsList},
		{"net_shares_traded", e.fromNetShares},
		{"shares_traded", e.fromSharesTraded},
		{"market_trades", e.fromMarketTrades},
		{"generic_table", e.fromGenericTable},
	}
	for _, r := range resolvers {
		r.resolve(ctx, doc, handle, facts)
	}

	if facts.Date.IsZero() {
		switch {
		case !handle.FilingDate().IsZero():
			facts.Date = handle.FilingDate()
		case !filing.FilingDate.IsZero():
			facts.Date = filing.FilingDate
		default:
			facts.Date = time.Now().UTC()
		}
	}

	if facts.Shares != 0 && facts.Price != nil && facts.Value == nil {
		value := math.Abs(facts.Shares) * *facts.Price
		facts.Value = &value
	}

	// Grants and awards legitimately carry no price.
	if (facts.Type == models.TxGrant || facts.Type == "AWARD") && facts.Price == nil {
		zero := 0.0
		facts.Price = &zero
	}
	return facts
}

// fromTransactionsList reads the first entry of the structured list.
func (e *InsiderTransactionExtractor) fromTransactionsList(_ context.Context, doc *edgar.OwnershipDocument, _ edgar.FilingHandle, facts *transactionFacts) {
	if doc == nil || len(doc.Transactions) == 0 {
		return
	}
	first := doc.Transactions[0]
	if first.Code != "" {
		facts.Type = MapTransactionCode(first.Code)
	}
	if first.Shares != nil {
		facts.Shares = math.Abs(*first.Shares)
	}
	if first.PricePerShare != nil {
		facts.Price = first.PricePerShare
	}
	if first.Date != nil {
		facts.Date = *first.Date
	}
	if first.Value != nil {
		facts.Value = first.Value
	}
}

// fromNetShares infers direction from the sign of the net traded total.
func (e *InsiderTransactionExtractor) fromNetShares(_ context.Context, doc *edgar.OwnershipDocument, _ edgar.FilingHandle, facts *transactionFacts) {
	if facts.Shares != 0 || doc == nil || doc.NetSharesTraded == nil || *doc.NetSharesTraded == 0 {
		return
	}
	net := *doc.NetSharesTraded
	facts.Shares = math.Abs(net)
	if facts.Type == models.TxUnknown {
		if net > 0 {
			facts.Type = models.TxPurchase
		} else {
			facts.Type = models.TxSale
		}
	}
}

func (e *InsiderTransactionExtractor) fromSharesTraded(_ context.Context, doc *edgar.OwnershipDocument, _ edgar.FilingHandle, facts *transactionFacts) {
	if facts.Shares != 0 || doc == nil || doc.SharesTraded == nil {
		return
	}
	facts.Shares = math.Abs(*doc.SharesTraded)
}

// fromMarketTrades reads the first row of the trade table by column alias.
func (e *InsiderTransactionExtractor) fromMarketTrades(ctx context.Context, _ *edgar.OwnershipDocument, handle edgar.FilingHandle, facts *transactionFacts) {
	if facts.Shares != 0 && facts.Price != nil {
		return
	}
	t, err := handle.MarketTrades(ctx)
	if err != nil || t.Empty() {
		return
	}
	fillFromTable(t, facts, false)
}

// fromGenericTable is the last resort: the generic tabular export, which may
// additionally carry a transaction code column.
func (e *InsiderTransactionExtractor) fromGenericTable(ctx context.Context, _ *edgar.OwnershipDocument, handle edgar.FilingHandle, facts *transactionFacts) {
	if facts.Shares != 0 && facts.Price != nil && facts.Type != models.TxUnknown {
		return
	}
	t, err := handle.GenericTable(ctx)
	if err != nil || t.Empty() {
		return
	}
	fillFromTable(t, facts, true)
}

func fillFromTable(t *edgar.Table, facts *transactionFacts, withCode bool) {
	if facts.Shares == 0 {
		if raw, ok := t.FirstRowValue(shareColumnAliases...); ok {
			if v, ok := edgar.ParseFinite(raw); ok && v != 0 {
				facts.Shares = math.Abs(v)
			}
		}
	}
	if facts.Price == nil {
		if raw, ok := t.FirstRowValue(priceColumnAliases...); ok {
			if v, ok := edgar.ParseFinite(raw); ok {
				facts.Price = &v
			}
		}
	}
	if withCode && facts.Type == models.TxUnknown {
		if code, ok := t.FirstRowValue("Code"); ok {
			facts.Type = MapTransactionCode(code)
		}
	}
	if facts.Date.IsZero() {
		if raw, ok := t.FirstRowValue(dateColumnAliases...); ok {
			if d, ok := parseTableDate(raw); ok {
				facts.Date = d
			}
		}
	}
}

var tableDateLayouts = []string{"2006-01-02", "01/02/2006", "2006-01-02 15:04:05", time.RFC3339}

func parseTableDate(raw string) (time.Time, bool) {
	for _, layout := range tableDateLayouts {
		if d, err := time.Parse(layout, raw); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// isLargeTransaction applies the significance thresholds: strictly more than
// $100k in value or more than 10k shares.
func isLargeTransaction(shares int64, value *float64) bool {
	if value != nil && *value > 100_000 {
		return true
	}
	return shares > 10_000
}
