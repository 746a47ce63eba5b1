package parser

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/reconciliation-bot/internal/logger"
	"github.com/insightdelivered/reconciliation-bot/internal/models"
	"github.com/insightdelivered/reconciliation-bot/internal/table"
)

// Candidate header names, in priority order.
var (
	vendorColumns = []string{"description", "merchant", "name", "details", "transaction description", "memo"}
	amountColumns = []string{"amount", "amt"}
	debitColumns  = []string{"debit", "withdrawal", "withdrawals"}
	creditColumns = []string{"credit", "deposit", "deposits"}
)

// Columns is the resolved role mapping for a structured table.
// Index fields are -1 when the role is absent.
type Columns struct {
	Vendor int
	Amount int
	Debit  int
	Credit int
}

// findColumn returns the index of the first candidate present in header.
// Candidate order decides, not header order.
func findColumn(header []string, candidates []string) int {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		key := table.NormalizeHeader(h)
		if _, dup := pos[key]; !dup {
			pos[key] = i
		}
	}
	for _, c := range candidates {
		if i, ok := pos[c]; ok {
			return i
		}
	}
	return -1
}

// ResolveColumns maps arbitrary header names to vendor and amount roles.
// source prefixes schema error messages ("CSV", "XLSX").
func ResolveColumns(source string, header []string) (Columns, error) {
	cols := Columns{
		Vendor: findColumn(header, vendorColumns),
		Amount: findColumn(header, amountColumns),
		Debit:  findColumn(header, debitColumns),
		Credit: findColumn(header, creditColumns),
	}
	if cols.Vendor < 0 {
		return cols, models.SchemaError(source, "could not find a vendor/description column.")
	}
	if cols.Amount < 0 && cols.Debit < 0 && cols.Credit < 0 {
		return cols, models.SchemaError(source, "could not find amount column(s). Need Amount or (Debit/Credit).")
	}
	return cols, nil
}

// SignedAmount computes the row amount. A single amount column must
// normalize or the row is dropped; a debit/credit pair yields credit - debit
// with missing or non-numeric sides counted as zero.
func (c Columns) SignedAmount(row []string) (decimal.Decimal, bool) {
	if c.Amount >= 0 {
		return NormalizeAmount(table.Cell(row, c.Amount))
	}
	side := func(i int) decimal.Decimal {
		if i < 0 {
			return decimal.Zero
		}
		d, ok := NormalizeAmount(table.Cell(row, i))
		if !ok {
			return decimal.Zero
		}
		return d
	}
	return side(c.Credit).Sub(side(c.Debit)), true
}

// Records applies the mapping to every row of t.
func (c Columns) Records(t *table.Table) Result {
	var res Result
	for _, row := range t.Rows {
		vendor := strings.TrimSpace(table.Cell(row, c.Vendor))
		amt, ok := c.SignedAmount(row)
		if !ok || vendor == "" {
			res.Skipped++
			continue
		}
		res.Records = append(res.Records, models.TransactionRecord{Vendor: vendor, Amount: amt})
	}
	return res
}

// TableParser reads structured exports (CSV or XLSX) with named columns.
type TableParser struct {
	kind models.SourceKind
	read func(io.Reader) (*table.Table, error)
}

// NewCSVParser returns a TableParser for CSV exports.
func NewCSVParser() *TableParser {
	return &TableParser{kind: models.SourceCSV, read: table.ReadCSV}
}

// NewXLSXParser returns a TableParser for XLSX exports.
func NewXLSXParser() *TableParser {
	return &TableParser{kind: models.SourceXLSX, read: table.ReadXLSX}
}

// Kind returns the source kind this parser reads.
func (p *TableParser) Kind() models.SourceKind { return p.kind }

// Parse reads the table, resolves its columns and returns the records.
// An export with a valid header but no usable rows is not an error.
func (p *TableParser) Parse(ctx context.Context, r io.Reader) ([]models.TransactionRecord, error) {
	log := logger.FromContext(ctx)
	source := p.kind.Label()

	t, err := p.read(r)
	if err != nil {
		return nil, models.EngineError(source, "could not read table", err)
	}
	cols, err := ResolveColumns(source, t.Header)
	if err != nil {
		return nil, err
	}
	res := cols.Records(t)
	log.Debug().
		Str("source", source).
		Int("rows", len(t.Rows)).
		Int("records", len(res.Records)).
		Int("skipped", res.Skipped).
		Msg("table parsed")
	return res.Records, nil
}

func (c Columns) String() string {
	return fmt.Sprintf("vendor=%d amount=%d debit=%d credit=%d", c.Vendor, c.Amount, c.Debit, c.Credit)
}
