package extract

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yueximo/opening-bell-backend/pkg/core/edgar"
	"github.com/yueximo/opening-bell-backend/pkg/core/store"
	"github.com/yueximo/opening-bell-backend/pkg/models"
)

// Event types whose default classification touches operations or financials.
var (
	operationalEventTypes = map[string]bool{
		"CEO_CHANGE":    true,
		"MERGER":        true,
		"LAYOFFS":       true,
		"RESTRUCTURING": true,
	}
	financialEventTypes = map[string]bool{
		"EARNINGS":    true,
		"DIVIDEND":    true,
		"STOCK_SPLIT": true,
		"FINANCING":   true,
	}
)

// CorporateEventExtractor classifies material events from 8-K/6-K filings.
type CorporateEventExtractor struct {
	logger *zap.Logger
}

func NewCorporateEventExtractor(logger *zap.Logger) *CorporateEventExtractor {
	return &CorporateEventExtractor{logger: logger}
}

func (e *CorporateEventExtractor) Name() string { return "corporate_events" }

// Extract records the classified event for a material-event filing. Unlike
// the other extractors, a failed or empty probe persists nothing: the filing
// still gets its summary, and a later run may find the event once the
// document settles.
func (e *CorporateEventExtractor) Extract(ctx context.Context, uow store.UnitOfWork, filing *models.Filing, handle edgar.FilingHandle) error {
	existing, err := uow.ListCorporateEvents(ctx, filing.ID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		e.logger.Debug("corporate events already exist",
			zap.Int64("filing_id", filing.ID))
		return nil
	}

	obj, err := handle.Event(ctx)
	if err != nil {
		e.logger.Warn("event probe failed",
			zap.Int64("filing_id", filing.ID), zap.Error(err))
		return nil
	}
	if obj == nil {
		e.logger.Debug("no event data available",
			zap.Int64("filing_id", filing.ID))
		return nil
	}

	event := buildEvent(filing.ID, obj)
	if err := uow.CreateCorporateEvent(ctx, event); err != nil {
		return err
	}
	e.logger.Info("extracted corporate event",
		zap.Int64("filing_id", filing.ID),
		zap.String("event_type", event.EventType))
	return nil
}

// buildEvent resolves each field direct-then-alias and applies the
// classification defaults.
func buildEvent(filingID int64, obj *edgar.EventObject) *models.CorporateEvent {
	eventType := firstNonEmpty(obj.EventType, obj.Type)
	if eventType == "" {
		eventType = "CORPORATE_EVENT"
	}
	eventType = strings.ToUpper(eventType)

	isMaterial := true
	if obj.IsMaterial != nil {
		isMaterial = *obj.IsMaterial
	}
	affectsOperations := operationalEventTypes[eventType]
	if obj.AffectsOperations != nil {
		affectsOperations = *obj.AffectsOperations
	}
	affectsFinancials := financialEventTypes[eventType]
	if obj.AffectsFinancials != nil {
		affectsFinancials = *obj.AffectsFinancials
	}

	return &models.CorporateEvent{
		FilingID:          filingID,
		EventType:         eventType,
		EventDate:         firstTime(obj.EventDate, obj.Date),
		EffectiveDate:     firstTime(obj.EffectiveDate, obj.Effective),
		Title:             optional(firstNonEmpty(obj.Title, obj.Subject)),
		Description:       optional(firstNonEmpty(obj.Description, obj.Summary)),
		IsMaterial:        isMaterial,
		AffectsOperations: affectsOperations,
		AffectsFinancials: affectsFinancials,
		ExtractedAt:       time.Now().UTC(),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func firstTime(values ...*time.Time) *time.Time {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
