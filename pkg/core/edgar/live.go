package edgar

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// liveHandle implements FilingHandle against live EDGAR content. Fetched
// artifacts are memoized per handle; a handle serves one processing run.
type liveHandle struct {
	client     *Client
	cik        string
	accession  string
	form       string
	primary    string
	items      []string
	filingDate time.Time

	facts      *companyFacts
	primaryDoc []byte
}

func (h *liveHandle) Form() string            { return h.form }
func (h *liveHandle) AccessionNumber() string { return h.accession }
func (h *liveHandle) FilingDate() time.Time   { return h.filingDate }

// Statements builds the three financial statements from the XBRL company
// facts API, scoped to the facts this filing reported.
func (h *liveHandle) Statements(ctx context.Context) (*StatementSet, error) {
	facts, err := h.loadFacts(ctx)
	if err != nil || facts == nil {
		return nil, err
	}
	set := facts.statements(h.accession)
	if set == nil {
		return nil, nil
	}
	return set, nil
}

// Financials derives the fallback figures from the latest company facts,
// without scoping to this filing's accession.
func (h *liveHandle) Financials(ctx context.Context) (*Financials, error) {
	facts, err := h.loadFacts(ctx)
	if err != nil || facts == nil {
		return nil, err
	}
	return facts.financials(), nil
}

// Ownership fetches and parses the filing's ownership XML document.
// Non-ownership forms have none, which reports as capability-absent.
func (h *liveHandle) Ownership(ctx context.Context) (*OwnershipDocument, error) {
	docName, err := h.findOwnershipXML(ctx)
	if err != nil {
		return nil, err
	}
	if docName == "" {
		return nil, nil
	}
	body, err := h.client.get(ctx, archiveURL(h.cik, h.accession, docName))
	if err != nil {
		return nil, fmt.Errorf("fetch ownership document: %w", err)
	}
	return parseOwnershipXML(body)
}

// MarketTrades locates a trade table in the primary document.
func (h *liveHandle) MarketTrades(ctx context.Context) (*Table, error) {
	doc, err := h.loadPrimaryDoc(ctx)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	return findTradeTable(doc)
}

// GenericTable returns the first data table of the primary document.
func (h *liveHandle) GenericTable(ctx context.Context) (*Table, error) {
	doc, err := h.loadPrimaryDoc(ctx)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	return firstDataTable(doc)
}

// Event assembles the generic event object for material-event filings from
// the reported item codes plus the primary document's headline text.
func (h *liveHandle) Event(ctx context.Context) (*EventObject, error) {
	if len(h.items) == 0 && h.primary == "" {
		return nil, nil
	}
	evt := &EventObject{EventType: classifyItems(h.items)}
	if !h.filingDate.IsZero() {
		d := h.filingDate
		evt.EventDate = &d
	}
	doc, err := h.loadPrimaryDoc(ctx)
	if err == nil && doc != nil {
		evt.Title, evt.Description = extractHeadline(doc)
	}
	return evt, nil
}

// Item code classification for 8-K filings. Unlisted items fall through to
// the extractor's default event type.
var itemEventTypes = map[string]string{
	"2.02": "EARNINGS",
	"5.02": "CEO_CHANGE",
	"1.01": "MERGER",
	"2.01": "MERGER",
	"2.05": "RESTRUCTURING",
	"3.03": "STOCK_SPLIT",
}

func classifyItems(items []string) string {
	for _, item := range items {
		if t, ok := itemEventTypes[item]; ok {
			return t
		}
	}
	return ""
}

func (h *liveHandle) loadFacts(ctx context.Context) (*companyFacts, error) {
	if h.facts != nil {
		return h.facts, nil
	}
	url := fmt.Sprintf(companyFactsURL, PadCIK(h.cik))
	var facts companyFacts
	if err := h.client.getJSON(ctx, url, &facts); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch company facts: %w", err)
	}
	h.facts = &facts
	return h.facts, nil
}

func (h *liveHandle) loadPrimaryDoc(ctx context.Context) ([]byte, error) {
	if h.primaryDoc != nil {
		return h.primaryDoc, nil
	}
	if h.primary == "" {
		return nil, nil
	}
	body, err := h.client.get(ctx, archiveURL(h.cik, h.accession, h.primary))
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch primary document: %w", err)
	}
	h.primaryDoc = body
	return body, nil
}

// findOwnershipXML scans the filing's archive index for the ownership
// document. Form 4 archives carry exactly one non-index XML file.
func (h *liveHandle) findOwnershipXML(ctx context.Context) (string, error) {
	var index struct {
		Directory struct {
			Item []struct {
				Name string `json:"name"`
			} `json:"item"`
		} `json:"directory"`
	}
	url := archiveURL(h.cik, h.accession, "index.json")
	if err := h.client.getJSON(ctx, url, &index); err != nil {
		if isNotFound(err) {
			return "", nil
		}
		return "", fmt.Errorf("fetch filing index: %w", err)
	}
	for _, item := range index.Directory.Item {
		if isOwnershipXML(item.Name) {
			return item.Name, nil
		}
	}
	return "", nil
}

func isOwnershipXML(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".xml") && !strings.HasPrefix(lower, "index")
}
