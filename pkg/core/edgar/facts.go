package edgar

import "encoding/json"

// companyFacts mirrors the SEC XBRL company facts API payload.
type companyFacts struct {
	EntityName string                             `json:"entityName"`
	Facts      map[string]map[string]conceptFacts `json:"facts"`
}

type conceptFacts struct {
	Label string                 `json:"label"`
	Units map[string][]factEntry `json:"units"`
}

type factEntry struct {
	End  string      `json:"end"`
	Val  json.Number `json:"val"`
	Accn string      `json:"accn"`
	FY   int         `json:"fy"`
	FP   string      `json:"fp"`
	Form string      `json:"form"`
}

// statementLine maps a us-gaap concept onto a display row label. Display
// labels are fixed here rather than taken from the API: upstream labels
// drift across taxonomy releases ("Net Cash Provided by (Used in) ...")
// while these stay matchable.
type statementLine struct {
	tag   string
	label string
}

var (
	incomeLines = []statementLine{
		{"Revenues", "Revenue"},
		{"RevenueFromContractWithCustomerExcludingAssessedTax", "Contract Revenue"},
		{"SalesRevenueNet", "Sales Revenue"},
		{"NetIncomeLoss", "Net Income Loss"},
		{"ProfitLoss", "Profit Loss"},
		{"EarningsPerShareBasic", "Earnings Per Share Basic"},
		{"EarningsPerShareDiluted", "Earnings Per Share Diluted"},
	}
	balanceLines = []statementLine{
		{"Assets", "Total Assets"},
		{"Liabilities", "Total Liabilities"},
		{"CashAndCashEquivalentsAtCarryingValue", "Cash and Cash Equivalents"},
		{"CashCashEquivalentsRestrictedCashAndRestrictedCashEquivalents", "Cash Equivalents"},
	}
	cashFlowLines = []statementLine{
		{"NetCashProvidedByUsedInOperatingActivities", "Net Cash Provided by Operating Activities"},
		{"NetCashProvidedByUsedInOperatingActivitiesContinuingOperations", "Cash Flows from Operating Activities"},
	}
)

// statements assembles the three statements from the facts this accession
// reported. Returns nil when the filing reported no usable facts, which
// routes the extractor to its fallback strategy.
func (f *companyFacts) statements(accession string) *StatementSet {
	gaap := f.Facts["us-gaap"]
	if len(gaap) == 0 {
		return nil
	}
	income := buildStatement(gaap, incomeLines, accession)
	balance := buildStatement(gaap, balanceLines, accession)
	cashFlow := buildStatement(gaap, cashFlowLines, accession)
	if income == nil && balance == nil && cashFlow == nil {
		return nil
	}
	return &StatementSet{Income: income, Balance: balance, CashFlow: cashFlow}
}

func buildStatement(gaap map[string]conceptFacts, lines []statementLine, accession string) *Statement {
	periodSet := map[string]bool{}
	var rows []StatementRow
	for _, line := range lines {
		concept, ok := gaap[line.tag]
		if !ok {
			continue
		}
		values := map[string]string{}
		for _, entries := range concept.Units {
			for _, e := range entries {
				if e.Accn != accession || e.End == "" {
					continue
				}
				values[e.End] = e.Val.String()
				periodSet[e.End] = true
			}
		}
		if len(values) == 0 {
			continue
		}
		rows = append(rows, StatementRow{Label: line.label, Values: values})
	}
	if len(rows) == 0 {
		return nil
	}
	periods := make([]string, 0, len(periodSet))
	for p := range periodSet {
		periods = append(periods, p)
	}
	return &Statement{Periods: periods, Rows: rows}
}

// financials derives the loose fallback figures from the latest fact of
// each candidate concept, ignoring which filing reported it.
func (f *companyFacts) financials() *Financials {
	gaap := f.Facts["us-gaap"]
	if len(gaap) == 0 {
		return nil
	}
	fin := &Financials{
		Revenue:            latestFact(gaap, "Revenues", "RevenueFromContractWithCustomerExcludingAssessedTax", "SalesRevenueNet"),
		NetIncome:          latestFact(gaap, "NetIncomeLoss", "ProfitLoss"),
		EPS:                latestFact(gaap, "EarningsPerShareBasic", "EarningsPerShareDiluted"),
		TotalAssets:        latestFact(gaap, "Assets"),
		TotalLiabilities:   latestFact(gaap, "Liabilities"),
		CashAndEquivalents: latestFact(gaap, "CashAndCashEquivalentsAtCarryingValue"),
		OperatingCashFlow:  latestFact(gaap, "NetCashProvidedByUsedInOperatingActivities"),
	}
	if fin.Revenue == nil && fin.NetIncome == nil && fin.EPS == nil &&
		fin.TotalAssets == nil && fin.TotalLiabilities == nil &&
		fin.CashAndEquivalents == nil && fin.OperatingCashFlow == nil {
		return nil
	}
	return fin
}

func latestFact(gaap map[string]conceptFacts, tags ...string) *float64 {
	for _, tag := range tags {
		concept, ok := gaap[tag]
		if !ok {
			continue
		}
		var best *float64
		var bestEnd string
		for _, entries := range concept.Units {
			for _, e := range entries {
				if e.End <= bestEnd {
					continue
				}
				if v, ok := ParseFinite(e.Val.String()); ok {
					val := v
					best = &val
					bestEnd = e.End
				}
			}
		}
		if best != nil {
			return best
		}
	}
	return nil
}
