package edgar

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Column names that identify a trade table inside an HTML primary document.
var (
	tradeShareColumns = []string{"shares", "amount", "quantity"}
	tradePriceColumns = []string{"price", "pricepershare", "price_per_share"}
)

// findTradeTable locates a table whose header row carries both a share
// column and a price column. Returns (nil, nil) when no table qualifies.
func findTradeTable(body []byte) (*Table, error) {
	tables, err := parseTables(body)
	if err != nil {
		return nil, err
	}
	for _, t := range tables {
		if t.Empty() {
			continue
		}
		if hasAnyColumn(t, tradeShareColumns) && hasAnyColumn(t, tradePriceColumns) {
			return t, nil
		}
	}
	return nil, nil
}

// firstDataTable returns the first table with at least two columns and one
// data row.
func firstDataTable(body []byte) (*Table, error) {
	tables, err := parseTables(body)
	if err != nil {
		return nil, err
	}
	for _, t := range tables {
		if len(t.Columns) >= 2 && !t.Empty() {
			return t, nil
		}
	}
	return nil, nil
}

// parseTables extracts every <table> as header columns plus string rows.
// SEC primary documents style headers inconsistently, so the first row is
// treated as the header whether it uses <th> or <td>.
func parseTables(body []byte) ([]*Table, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse primary document: %w", err)
	}

	var tables []*Table
	doc.Find("table").Each(func(_ int, sel *goquery.Selection) {
		t := &Table{}
		sel.Find("tr").Each(func(rowIdx int, tr *goquery.Selection) {
			var cells []string
			tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, strings.TrimSpace(cell.Text()))
			})
			if len(cells) == 0 {
				return
			}
			if t.Columns == nil {
				t.Columns = cells
				return
			}
			t.Rows = append(t.Rows, cells)
		})
		if t.Columns != nil {
			tables = append(tables, t)
		}
	})
	return tables, nil
}

func hasAnyColumn(t *Table, names []string) bool {
	for _, col := range t.Columns {
		normalized := strings.ToLower(strings.TrimSpace(col))
		for _, name := range names {
			if normalized == name {
				return true
			}
		}
	}
	return false
}

// extractHeadline pulls a title and first substantial paragraph out of the
// primary document, for material-event filings that carry no structured
// event fields.
func extractHeadline(body []byte) (title, description string) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", ""
	}
	title = strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1, h2").First().Text())
	}
	doc.Find("p").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.Join(strings.Fields(sel.Text()), " ")
		if len(text) < 40 {
			return true
		}
		description = text
		return false
	})
	return title, description
}
