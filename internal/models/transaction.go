package models

import "github.com/shopspring/decimal"

// Uncategorized is the account label for vendors no rule matches.
const Uncategorized = "Uncategorized"

// TransactionRecord is a single (vendor, amount) pair pulled from a statement.
// Negative amounts are outflows (debits), positive amounts are inflows (credits).
type TransactionRecord struct {
	Vendor         string          `json:"vendor"`
	Amount         decimal.Decimal `json:"amount"`
	Classification string          `json:"classification,omitempty"`
}

// SourceKind identifies the ingestion path for a statement document.
type SourceKind string

const (
	SourceCSV   SourceKind = "csv"
	SourceXLSX  SourceKind = "xlsx"
	SourcePDF   SourceKind = "pdf"
	SourceImage SourceKind = "image"
)

// Label is the short prefix used in user-facing error messages.
func (k SourceKind) Label() string {
	switch k {
	case SourceCSV:
		return "CSV"
	case SourceXLSX:
		return "XLSX"
	case SourcePDF:
		return "PDF"
	case SourceImage:
		return "PNG"
	default:
		return string(k)
	}
}
