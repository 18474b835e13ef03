package edgar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleForm4 = `<?xml version="1.0"?>
<ownershipDocument>
  <periodOfReport>2024-05-08</periodOfReport>
  <reportingOwner>
    <reportingOwnerId>
      <rptOwnerName>ROE JANE</rptOwnerName>
    </reportingOwnerId>
    <reportingOwnerRelationship>
      <isDirector>0</isDirector>
      <isOfficer>1</isOfficer>
      <officerTitle>Chief Executive Officer</officerTitle>
    </reportingOwnerRelationship>
  </reportingOwner>
  <nonDerivativeTable>
    <nonDerivativeTransaction>
      <transactionDate><value>2024-05-08</value></transactionDate>
      <transactionCoding><transactionCode>P</transactionCode></transactionCoding>
      <transactionAmounts>
        <transactionShares><value>10000</value></transactionShares>
        <transactionPricePerShare><value>25.00</value></transactionPricePerShare>
        <transactionAcquiredDisposedCode><value>A</value></transactionAcquiredDisposedCode>
      </transactionAmounts>
    </nonDerivativeTransaction>
    <nonDerivativeTransaction>
      <transactionDate><value>2024-05-09</value></transactionDate>
      <transactionCoding><transactionCode>S</transactionCode></transactionCoding>
      <transactionAmounts>
        <transactionShares><value>4000</value></transactionShares>
        <transactionPricePerShare><value>26.00</value></transactionPricePerShare>
        <transactionAcquiredDisposedCode><value>D</value></transactionAcquiredDisposedCode>
      </transactionAmounts>
    </nonDerivativeTransaction>
  </nonDerivativeTable>
</ownershipDocument>`

func TestParseOwnershipXML(t *testing.T) {
	doc, err := parseOwnershipXML([]byte(sampleForm4))
	require.NoError(t, err)

	assert.Equal(t, "ROE JANE", doc.InsiderName)
	assert.Equal(t, "Chief Executive Officer", doc.Position)
	require.Len(t, doc.Owners, 1)

	require.Len(t, doc.Transactions, 2)
	first := doc.Transactions[0]
	assert.Equal(t, "P", first.Code)
	require.NotNil(t, first.Shares)
	assert.InDelta(t, 10_000.0, *first.Shares, 0.001)
	require.NotNil(t, first.PricePerShare)
	assert.InDelta(t, 25.0, *first.PricePerShare, 0.001)
	require.NotNil(t, first.Value)
	assert.InDelta(t, 250_000.0, *first.Value, 0.001)
	require.NotNil(t, first.Date)
	assert.Equal(t, time.Date(2024, 5, 8, 0, 0, 0, 0, time.UTC), *first.Date)

	// Net nets acquisitions against dispositions, gross sums both.
	require.NotNil(t, doc.NetSharesTraded)
	assert.InDelta(t, 6_000.0, *doc.NetSharesTraded, 0.001)
	require.NotNil(t, doc.SharesTraded)
	assert.InDelta(t, 14_000.0, *doc.SharesTraded, 0.001)
}

func TestParseOwnershipXMLMultipleOwners(t *testing.T) {
	body := `<?xml version="1.0"?>
<ownershipDocument>
  <reportingOwner>
    <reportingOwnerId><rptOwnerName>FIRST OWNER</rptOwnerName></reportingOwnerId>
    <reportingOwnerRelationship><isDirector>1</isDirector></reportingOwnerRelationship>
  </reportingOwner>
  <reportingOwner>
    <reportingOwnerId><rptOwnerName>SECOND OWNER</rptOwnerName></reportingOwnerId>
    <reportingOwnerRelationship></reportingOwnerRelationship>
  </reportingOwner>
</ownershipDocument>`

	doc, err := parseOwnershipXML([]byte(body))
	require.NoError(t, err)

	// Direct fields stay unset when ownership is ambiguous.
	assert.Empty(t, doc.InsiderName)
	assert.Empty(t, doc.Position)
	require.Len(t, doc.Owners, 2)
	assert.Equal(t, "FIRST OWNER", doc.Owners[0].Name)
	assert.Equal(t, "Director", doc.Owners[0].Title)
	assert.Empty(t, doc.Owners[1].Title)

	assert.Nil(t, doc.NetSharesTraded)
	assert.Nil(t, doc.SharesTraded)
	assert.Empty(t, doc.Transactions)
}

func TestParseOwnershipXMLMalformed(t *testing.T) {
	_, err := parseOwnershipXML([]byte("<ownershipDocument><unclosed"))
	require.Error(t, err)
}
