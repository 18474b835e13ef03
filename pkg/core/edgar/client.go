package edgar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	"go.uber.org/zap"
)

const (
	submissionsURL  = "https://data.sec.gov/submissions/CIK%s.json"
	companyFactsURL = "https://data.sec.gov/api/xbrl/companyfacts/CIK%s.json"
	archiveBaseURL  = "https://www.sec.gov/Archives/edgar/data/%s/%s/%s"

	defaultTimeout = 60 * time.Second
)

// Client fetches filing content from SEC EDGAR.
type Client struct {
	httpClient *http.Client
	userAgent  string
	logger     *zap.Logger
}

// NewClient creates an EDGAR client. The SEC requires a descriptive
// User-Agent with contact information on every request.
func NewClient(userAgent string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
		logger:     logger,
	}
}

// submissionsResponse mirrors the SEC submissions API payload.
type submissionsResponse struct {
	CIK     string   `json:"cik"`
	Name    string   `json:"name"`
	Tickers []string `json:"tickers"`
	Filings struct {
		Recent recentFilings `json:"recent"`
	} `json:"filings"`
}

// recentFilings is the column-oriented filing index of the submissions API.
type recentFilings struct {
	AccessionNumber []string `json:"accessionNumber"`
	FilingDate      []string `json:"filingDate"`
	Form            []string `json:"form"`
	PrimaryDocument []string `json:"primaryDocument"`
	Items           []string `json:"items"`
}

// CompanyHandle is a resolved company with its recent submissions index.
type CompanyHandle struct {
	client *Client
	cik    string
	name   string
	subs   *submissionsResponse
}

// Name returns the registrant name reported by EDGAR.
func (h *CompanyHandle) Name() string { return h.name }

// ResolveCompany looks up a company by CIK via the submissions API.
// Returns ErrCompanyNotFound when EDGAR has no such registrant.
func (c *Client) ResolveCompany(ctx context.Context, cik string) (*CompanyHandle, error) {
	padded := PadCIK(cik)
	url := fmt.Sprintf(submissionsURL, padded)

	var subs submissionsResponse
	if err := c.getJSON(ctx, url, &subs); err != nil {
		if isNotFound(err) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("fetch submissions for CIK %s: %w", cik, err)
	}

	c.logger.Debug("resolved company",
		zap.String("cik", cik),
		zap.String("name", subs.Name),
		zap.Int("recent_filings", len(subs.Filings.Recent.AccessionNumber)))

	return &CompanyHandle{client: c, cik: strings.TrimLeft(padded, "0"), name: subs.Name, subs: &subs}, nil
}

// FindFiling locates a filing by accession number among the company's
// recent submissions. Returns ErrFilingNotFound when absent.
func (h *CompanyHandle) FindFiling(accession string) (FilingHandle, error) {
	recent := h.subs.Filings.Recent
	for i, accn := range recent.AccessionNumber {
		if accn != accession {
			continue
		}
		lh := &liveHandle{
			client:    h.client,
			cik:       h.cik,
			accession: accession,
			form:      at(recent.Form, i),
			primary:   at(recent.PrimaryDocument, i),
			items:     splitItems(at(recent.Items, i)),
		}
		if d, err := time.Parse("2006-01-02", at(recent.FilingDate, i)); err == nil {
			lh.filingDate = d
		}
		return lh, nil
	}
	return nil, ErrFilingNotFound
}

// FindFiling resolves the company and locates the filing in one call.
func (c *Client) FindFiling(ctx context.Context, cik, accession string) (FilingHandle, error) {
	company, err := c.ResolveCompany(ctx, cik)
	if err != nil {
		return nil, err
	}
	return company.FindFiling(accession)
}

// getJSON fetches a URL and decodes the JSON body into v. EDGAR payloads are
// occasionally truncated or mildly malformed; a failed decode gets one
// second chance through json-repair before the error surfaces.
func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	body, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err == nil {
		return nil
	}
	repaired, repErr := jsonrepair.RepairJSON(string(body))
	if repErr != nil {
		return fmt.Errorf("decode %s: %w", url, repErr)
	}
	c.logger.Warn("repaired malformed EDGAR payload", zap.String("url", url))
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return fmt.Errorf("decode %s after repair: %w", url, err)
	}
	return nil
}

type statusError struct {
	code int
	url  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("EDGAR returned status %d for %s", e.code, e.url)
}

func isNotFound(err error) bool {
	se, ok := err.(*statusError)
	return ok && se.code == http.StatusNotFound
}

// get performs a GET with the required SEC headers.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &statusError{code: resp.StatusCode, url: url}
	}
	return io.ReadAll(resp.Body)
}

// PadCIK zero-pads a CIK to the 10 digits EDGAR URLs expect.
func PadCIK(cik string) string {
	cik = strings.TrimSpace(cik)
	if len(cik) >= 10 {
		return cik
	}
	return strings.Repeat("0", 10-len(cik)) + cik
}

// archiveURL builds a document URL inside the filing's archive directory.
func archiveURL(cik, accession, doc string) string {
	return fmt.Sprintf(archiveBaseURL, cik, strings.ReplaceAll(accession, "-", ""), doc)
}

func at(s []string, i int) string {
	if i < len(s) {
		return s[i]
	}
	return ""
}

func splitItems(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			items = append(items, p)
		}
	}
	return items
}
