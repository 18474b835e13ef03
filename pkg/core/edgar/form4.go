package edgar

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"
)

// ownershipXML mirrors the SEC ownership document schema (Forms 3/4/5).
// Nested <value> wrappers and footnote siblings are the schema's doing.
type ownershipXML struct {
	XMLName         xml.Name           `xml:"ownershipDocument"`
	PeriodOfReport  string             `xml:"periodOfReport"`
	ReportingOwners []reportingOwner   `xml:"reportingOwner"`
	NonDerivative   nonDerivativeTable `xml:"nonDerivativeTable"`
}

type reportingOwner struct {
	ID struct {
		Name string `xml:"rptOwnerName"`
	} `xml:"reportingOwnerId"`
	Relationship struct {
		IsDirector   string `xml:"isDirector"`
		IsOfficer    string `xml:"isOfficer"`
		IsTenPercent string `xml:"isTenPercentOwner"`
		OfficerTitle string `xml:"officerTitle"`
	} `xml:"reportingOwnerRelationship"`
}

type nonDerivativeTable struct {
	Transactions []nonDerivativeTransaction `xml:"nonDerivativeTransaction"`
}

type nonDerivativeTransaction struct {
	Date struct {
		Value string `xml:"value"`
	} `xml:"transactionDate"`
	Coding struct {
		Code string `xml:"transactionCode"`
	} `xml:"transactionCoding"`
	Amounts struct {
		Shares struct {
			Value string `xml:"value"`
		} `xml:"transactionShares"`
		PricePerShare struct {
			Value string `xml:"value"`
		} `xml:"transactionPricePerShare"`
		AcquiredDisposed struct {
			Value string `xml:"value"`
		} `xml:"transactionAcquiredDisposedCode"`
	} `xml:"transactionAmounts"`
}

// parseOwnershipXML maps an ownership document onto the gateway's typed
// shape. Coverage varies with document vintage: the direct insider fields
// are only set when a single reporting owner is present, older documents
// may omit the officer title entirely.
func parseOwnershipXML(body []byte) (*OwnershipDocument, error) {
	var raw ownershipXML
	if err := xml.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse ownership document: %w", err)
	}

	doc := &OwnershipDocument{}
	for _, ro := range raw.ReportingOwners {
		doc.Owners = append(doc.Owners, Owner{
			Name:  strings.TrimSpace(ro.ID.Name),
			Title: ownerTitle(ro),
		})
	}
	if len(doc.Owners) == 1 {
		doc.InsiderName = doc.Owners[0].Name
		doc.Position = doc.Owners[0].Title
	}

	var net, gross float64
	var sawAmounts bool
	for _, tx := range raw.NonDerivative.Transactions {
		row := TransactionRow{Code: strings.TrimSpace(tx.Coding.Code)}
		if v, ok := ParseFinite(tx.Amounts.Shares.Value); ok {
			shares := v
			row.Shares = &shares
			gross += v
			if strings.EqualFold(strings.TrimSpace(tx.Amounts.AcquiredDisposed.Value), "D") {
				net -= v
			} else {
				net += v
			}
			sawAmounts = true
		}
		if v, ok := ParseFinite(tx.Amounts.PricePerShare.Value); ok {
			price := v
			row.PricePerShare = &price
		}
		if d, err := time.Parse("2006-01-02", strings.TrimSpace(tx.Date.Value)); err == nil {
			row.Date = &d
		}
		if row.Shares != nil && row.PricePerShare != nil {
			value := *row.Shares * *row.PricePerShare
			row.Value = &value
		}
		doc.Transactions = append(doc.Transactions, row)
	}
	if sawAmounts {
		doc.NetSharesTraded = &net
		doc.SharesTraded = &gross
	}
	return doc, nil
}

func ownerTitle(ro reportingOwner) string {
	if title := strings.TrimSpace(ro.Relationship.OfficerTitle); title != "" {
		return title
	}
	if xmlBool(ro.Relationship.IsDirector) {
		return "Director"
	}
	return ""
}

func xmlBool(v string) bool {
	v = strings.TrimSpace(v)
	return v == "1" || strings.EqualFold(v, "true")
}
