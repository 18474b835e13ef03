package edgar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testClient() *Client {
	return NewClient("test-agent test@example.com", 5*time.Second, zap.NewNop())
}

func TestGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent test@example.com", r.Header.Get("User-Agent"))
		w.Write([]byte(`{"name": "EXAMPLE CORP"}`))
	}))
	defer server.Close()

	var out struct {
		Name string `json:"name"`
	}
	require.NoError(t, testClient().getJSON(context.Background(), server.URL, &out))
	assert.Equal(t, "EXAMPLE CORP", out.Name)
}

func TestGetJSONRepairsMalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Unquoted key and single quotes, the kind of damage truncated
		// proxies produce.
		w.Write([]byte(`{name: 'EXAMPLE CORP'}`))
	}))
	defer server.Close()

	var out struct {
		Name string `json:"name"`
	}
	require.NoError(t, testClient().getJSON(context.Background(), server.URL, &out))
	assert.Equal(t, "EXAMPLE CORP", out.Name)
}

func TestGetJSONNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	var out map[string]any
	err := testClient().getJSON(context.Background(), server.URL, &out)
	require.Error(t, err)
	assert.True(t, isNotFound(err))
}

func TestCompanyHandleFindFiling(t *testing.T) {
	subs := &submissionsResponse{}
	subs.Filings.Recent = recentFilings{
		AccessionNumber: []string{"0000000000-24-000001", "0000000000-24-000002"},
		FilingDate:      []string{"2024-05-01", "2024-05-08"},
		Form:            []string{"10-Q", "8-K"},
		PrimaryDocument: []string{"doc10q.htm", "doc8k.htm"},
		Items:           []string{"", "2.02,9.01"},
	}
	handle := &CompanyHandle{client: testClient(), cik: "789019", subs: subs}

	fh, err := handle.FindFiling("0000000000-24-000002")
	require.NoError(t, err)
	assert.Equal(t, "8-K", fh.Form())
	assert.Equal(t, "0000000000-24-000002", fh.AccessionNumber())
	assert.Equal(t, time.Date(2024, 5, 8, 0, 0, 0, 0, time.UTC), fh.FilingDate())

	lh, ok := fh.(*liveHandle)
	require.True(t, ok)
	assert.Equal(t, []string{"2.02", "9.01"}, lh.items)
	assert.Equal(t, "doc8k.htm", lh.primary)

	_, err = handle.FindFiling("0000000000-19-000009")
	assert.ErrorIs(t, err, ErrFilingNotFound)
}

func TestPadCIK(t *testing.T) {
	assert.Equal(t, "0000789019", PadCIK("789019"))
	assert.Equal(t, "0000789019", PadCIK(" 789019 "))
	assert.Equal(t, "1234567890", PadCIK("1234567890"))
}

func TestArchiveURL(t *testing.T) {
	url := archiveURL("789019", "0000950170-24-000001", "form4.xml")
	assert.Equal(t, "https://www.sec.gov/Archives/edgar/data/789019/000095017024000001/form4.xml", url)
}

func TestSplitItems(t *testing.T) {
	assert.Equal(t, []string{"2.02", "9.01"}, splitItems("2.02, 9.01"))
	assert.Nil(t, splitItems(""))
}

func TestIsOwnershipXML(t *testing.T) {
	assert.True(t, isOwnershipXML("wk-form4_1715205858.xml"))
	assert.False(t, isOwnershipXML("index.xml"))
	assert.False(t, isOwnershipXML("primary_doc.htm"))
}

func TestClassifyItems(t *testing.T) {
	assert.Equal(t, "EARNINGS", classifyItems([]string{"2.02", "9.01"}))
	assert.Equal(t, "CEO_CHANGE", classifyItems([]string{"5.02"}))
	assert.Equal(t, "", classifyItems([]string{"7.01"}))
	assert.Equal(t, "", classifyItems(nil))
}
