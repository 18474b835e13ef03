package edgar

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFacts = `{
  "entityName": "EXAMPLE CORP",
  "facts": {
    "us-gaap": {
      "Revenues": {
        "label": "Revenues",
        "units": {
          "USD": [
            {"end": "2023-12-31", "val": 900000, "accn": "0000000000-23-000001", "form": "10-K"},
            {"end": "2024-12-31", "val": 1000000, "accn": "0000000000-24-000001", "form": "10-K"}
          ]
        }
      },
      "NetIncomeLoss": {
        "label": "Net Income (Loss)",
        "units": {
          "USD": [
            {"end": "2024-12-31", "val": 150000, "accn": "0000000000-24-000001", "form": "10-K"}
          ]
        }
      },
      "Assets": {
        "label": "Assets",
        "units": {
          "USD": [
            {"end": "2024-12-31", "val": 5000000, "accn": "0000000000-24-000001", "form": "10-K"}
          ]
        }
      }
    }
  }
}`

func loadFactsFixture(t *testing.T) *companyFacts {
	t.Helper()
	var facts companyFacts
	require.NoError(t, json.Unmarshal([]byte(sampleFacts), &facts))
	return &facts
}

func TestCompanyFactsStatements(t *testing.T) {
	facts := loadFactsFixture(t)

	set := facts.statements("0000000000-24-000001")
	require.NotNil(t, set)
	require.NotNil(t, set.Income)
	require.NotNil(t, set.Balance)
	assert.Nil(t, set.CashFlow)

	// Only the accession's own facts make it into the statement.
	rev := set.Income.MetricValue("Revenue")
	require.NotNil(t, rev)
	assert.InDelta(t, 1_000_000.0, *rev, 0.001)

	ni := set.Income.MetricValue("Net Income")
	require.NotNil(t, ni)
	assert.InDelta(t, 150_000.0, *ni, 0.001)

	assets := set.Balance.MetricValue("Total Assets")
	require.NotNil(t, assets)
	assert.InDelta(t, 5_000_000.0, *assets, 0.001)
}

func TestCompanyFactsStatementsUnknownAccession(t *testing.T) {
	facts := loadFactsFixture(t)
	assert.Nil(t, facts.statements("0000000000-19-000009"))
}

func TestCompanyFactsFinancials(t *testing.T) {
	facts := loadFactsFixture(t)

	fin := facts.financials()
	require.NotNil(t, fin)
	require.NotNil(t, fin.Revenue)
	// Latest observation wins regardless of which filing reported it.
	assert.InDelta(t, 1_000_000.0, *fin.Revenue, 0.001)
	require.NotNil(t, fin.NetIncome)
	assert.Nil(t, fin.EPS)
	assert.Nil(t, fin.OperatingCashFlow)
}

func TestCompanyFactsEmpty(t *testing.T) {
	facts := &companyFacts{}
	assert.Nil(t, facts.statements("any"))
	assert.Nil(t, facts.financials())
}
