// Package summary generates the digest card persisted for every processed
// filing. Cards are template-driven: the form type and the facts extracted
// earlier in the run pick one of four templates, each of which fixes the
// headline, scoring, and sentiment rules.
package summary

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yueximo/opening-bell-backend/pkg/core/store"
	"github.com/yueximo/opening-bell-backend/pkg/models"
)

// ModelVersion tags every generated card so template revisions can be
// told apart later.
const ModelVersion = "1.0"

// Generator builds filing summary cards.
type Generator struct {
	logger *zap.Logger
}

func NewGenerator(logger *zap.Logger) *Generator {
	return &Generator{logger: logger}
}

// card is the template output before persistence fields are attached.
type card struct {
	Headline        string
	Summary         string
	ImpactAnalysis  string
	ImportanceScore float64
	EventCategory   string
	Sentiment       string
	KeyMetrics      map[string]string
}

// Generate persists exactly one summary per filing. An existing card makes
// this a no-op. Routing requires both the matching form type and the facts:
// a periodic report without a metrics record, or an ownership report without
// transactions, falls through to the generic template.
func (g *Generator) Generate(ctx context.Context, uow store.UnitOfWork, filing *models.Filing) error {
	existing, err := uow.GetFilingSummary(ctx, filing.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		g.logger.Debug("filing summary already exists",
			zap.Int64("filing_id", filing.ID))
		return nil
	}

	c, err := g.buildCard(ctx, uow, filing)
	if err != nil {
		return err
	}

	summary := &models.FilingSummary{
		FilingID:        filing.ID,
		Headline:        c.Headline,
		Summary:         c.Summary,
		ImpactAnalysis:  c.ImpactAnalysis,
		ImportanceScore: c.ImportanceScore,
		EventCategory:   c.EventCategory,
		Sentiment:       c.Sentiment,
		KeyMetrics:      c.KeyMetrics,
		GeneratedAt:     time.Now().UTC(),
		ModelVersion:    ModelVersion,
	}
	if err := uow.CreateFilingSummary(ctx, summary); err != nil {
		return err
	}
	g.logger.Info("generated filing summary",
		zap.Int64("filing_id", filing.ID),
		zap.String("category", c.EventCategory),
		zap.Float64("score", c.ImportanceScore))
	return nil
}

func (g *Generator) buildCard(ctx context.Context, uow store.UnitOfWork, filing *models.Filing) (*card, error) {
	switch {
	case filing.IsPeriodicReport():
		metrics, err := uow.GetFinancialMetrics(ctx, filing.ID)
		if err != nil {
			return nil, err
		}
		if metrics != nil {
			return earningsCard(filing, metrics), nil
		}
	case filing.IsOwnershipReport():
		transactions, err := uow.ListInsiderTransactions(ctx, filing.ID)
		if err != nil {
			return nil, err
		}
		if len(transactions) > 0 {
			return insiderCard(&transactions[0]), nil
		}
	case filing.IsMaterialEvent():
		events, err := uow.ListCorporateEvents(ctx, filing.ID)
		if err != nil {
			return nil, err
		}
		if len(events) > 0 {
			return eventCard(&events[0]), nil
		}
	}
	return genericCard(filing), nil
}

// earningsCard scores by how many of the three headline figures made it out
// of extraction. Only a complete set reads as positive.
func earningsCard(filing *models.Filing, metrics *models.FinancialMetrics) *card {
	var (
		score     float64
		sentiment string
	)
	switch {
	case metrics.Revenue != nil && metrics.NetIncome != nil && metrics.EPS != nil:
		score, sentiment = 0.8, models.SentimentPositive
	case metrics.Revenue != nil || metrics.NetIncome != nil || metrics.EPS != nil:
		score, sentiment = 0.6, models.SentimentNeutral
	default:
		score, sentiment = 0.4, models.SentimentNeutral
	}

	return &card{
		Headline:        fmt.Sprintf("%s Filing - Financial Metrics Available", filing.Form),
		Summary:         fmt.Sprintf("Company submitted %s filing with financial data including revenue, net income, and EPS.", filing.Form),
		ImpactAnalysis:  "Financial filings provide transparency into company performance and compliance with regulatory requirements.",
		ImportanceScore: score,
		EventCategory:   models.CategoryEarnings,
		Sentiment:       sentiment,
		KeyMetrics: map[string]string{
			"revenue":    formatBillions(metrics.Revenue),
			"net_income": formatBillions(metrics.NetIncome),
			"eps":        formatDollars(metrics.EPS),
		},
	}
}

// insiderCard reads direction from the transaction type and weight from the
// executive flag.
func insiderCard(tx *models.InsiderTransaction) *card {
	sentiment := models.SentimentNegative
	if tx.TransactionType == models.TxPurchase {
		sentiment = models.SentimentPositive
	}
	score := 0.5
	if tx.IsExecutive {
		score = 0.7
	}

	verb := strings.ToLower(tx.TransactionType)
	shares := formatShares(tx.Shares)
	price := formatDollars(tx.PricePerShare)
	title := "Unknown"
	if tx.InsiderTitle != nil && *tx.InsiderTitle != "" {
		title = *tx.InsiderTitle
	}

	return &card{
		Headline:        fmt.Sprintf("%s %ss %s shares", tx.InsiderName, verb, shares),
		Summary:         fmt.Sprintf("%s (%s) %sed %s shares at %s per share.", tx.InsiderName, title, verb, shares, price),
		ImpactAnalysis:  fmt.Sprintf("Insider %ss can signal confidence in company direction and future performance.", verb),
		ImportanceScore: score,
		EventCategory:   models.CategoryInsiderTrade,
		Sentiment:       sentiment,
		KeyMetrics: map[string]string{
			"shares": shares,
			"value":  formatMillions(tx.TotalValue),
			"price":  price,
		},
	}
}

func eventCard(event *models.CorporateEvent) *card {
	score := 0.5
	if event.IsMaterial {
		score = 0.8
	}

	headline := event.EventType
	if event.Title != nil && *event.Title != "" {
		headline = *event.Title
	}
	description := "No description available"
	if event.Description != nil && *event.Description != "" {
		description = *event.Description
	}
	spoken := strings.ReplaceAll(strings.ToLower(event.EventType), "_", " ")

	return &card{
		Headline:        fmt.Sprintf("Corporate Event: %s", headline),
		Summary:         fmt.Sprintf("Company announced %s: %s.", spoken, description),
		ImpactAnalysis:  fmt.Sprintf("This %s may impact company operations and future financial performance.", spoken),
		ImportanceScore: score,
		EventCategory:   models.CategoryCorporateEvent,
		Sentiment:       models.SentimentNeutral,
		KeyMetrics: map[string]string{
			"event_type":  event.EventType,
			"is_material": strconv.FormatBool(event.IsMaterial),
		},
	}
}

func genericCard(filing *models.Filing) *card {
	date := filing.FilingDate.Format("2006-01-02")
	return &card{
		Headline:        fmt.Sprintf("%s Filing Submitted", filing.Form),
		Summary:         fmt.Sprintf("Company submitted %s filing to SEC on %s.", filing.Form, date),
		ImpactAnalysis:  "Regular SEC filings provide transparency and compliance with regulatory requirements.",
		ImportanceScore: 0.3,
		EventCategory:   models.CategoryRegulatory,
		Sentiment:       models.SentimentNeutral,
		KeyMetrics: map[string]string{
			"filing_date": date,
			"form_type":   filing.Form,
		},
	}
}
