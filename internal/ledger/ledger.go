// Package ledger turns classified transaction records into the two ledger
// views, debits and credits.
package ledger

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/reconciliation-bot/internal/models"
)

const (
	DebitsName  = "Debits"
	CreditsName = "Credits"
)

// Classifier resolves a vendor to an account label.
type Classifier interface {
	Classify(vendor string) string
}

// Options controls assembly.
type Options struct {
	// IncludeUncategorized keeps rows no rule matched.
	IncludeUncategorized bool
}

// Row is one ledger line. Amount is always non-negative.
type Row struct {
	Amount                decimal.Decimal `json:"amount"`
	Vendor                string          `json:"vendor"`
	AccountClassification string          `json:"account_classification"`
}

// View is a named, ordered list of rows.
type View struct {
	Name string `json:"name"`
	Rows []Row  `json:"rows"`
}

// Total sums the row amounts.
func (v View) Total() decimal.Decimal {
	total := decimal.Zero
	for _, r := range v.Rows {
		total = total.Add(r.Amount)
	}
	return total
}

// Len returns the number of rows.
func (v View) Len() int { return len(v.Rows) }

// Ledger holds both views.
type Ledger struct {
	Debits  View `json:"debits"`
	Credits View `json:"credits"`
}

// Views returns debits then credits.
func (l *Ledger) Views() []View {
	return []View{l.Debits, l.Credits}
}

// Assemble classifies records and partitions them by sign. Records with a
// blank vendor are dropped, zero amounts appear in neither view, and each
// view is sorted by amount descending with ties kept in input order.
// records is not modified.
func Assemble(records []models.TransactionRecord, c Classifier, opts Options) *Ledger {
	l := &Ledger{
		Debits:  View{Name: DebitsName, Rows: []Row{}},
		Credits: View{Name: CreditsName, Rows: []Row{}},
	}

	for _, rec := range records {
		vendor := strings.TrimSpace(rec.Vendor)
		if vendor == "" {
			continue
		}
		acct := c.Classify(vendor)
		if acct == models.Uncategorized && !opts.IncludeUncategorized {
			continue
		}
		row := Row{Amount: rec.Amount.Abs(), Vendor: vendor, AccountClassification: acct}
		switch rec.Amount.Sign() {
		case -1:
			l.Debits.Rows = append(l.Debits.Rows, row)
		case 1:
			l.Credits.Rows = append(l.Credits.Rows, row)
		}
	}

	sortDescending(l.Debits.Rows)
	sortDescending(l.Credits.Rows)
	return l
}

// Classify returns copies of records with Classification filled in.
func Classify(records []models.TransactionRecord, c Classifier) []models.TransactionRecord {
	out := make([]models.TransactionRecord, len(records))
	for i, rec := range records {
		rec.Vendor = strings.TrimSpace(rec.Vendor)
		rec.Classification = c.Classify(rec.Vendor)
		out[i] = rec
	}
	return out
}

func sortDescending(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Amount.GreaterThan(rows[j].Amount)
	})
}
