package parser

import (
	"regexp"
	"strings"

	"github.com/insightdelivered/reconciliation-bot/internal/models"
)

// linePattern matches "DATE VENDOR AMOUNT" statement lines, e.g.
//
//	12/01 Starbucks 5.67
//	12/01/2024 Payroll Deposit 1,200.00
//	3/4/24 Card Refund (12.50)
var linePattern = regexp.MustCompile(
	`^(\d{1,2}/\d{1,2}(?:/\d{2,4})?)\s+(.+?)\s+([-(]?\$?\d[\d,]*\.\d{2}\)?)\s*$`,
)

// Result is what an extraction pass produced. Skipped counts input rows or
// lines that were dropped without aborting the pass.
type Result struct {
	Records []models.TransactionRecord
	Skipped int
}

// Empty reports whether the pass produced no records at all.
func (r Result) Empty() bool { return len(r.Records) == 0 }

// ParseLine extracts a record from one statement line. Lines that do not
// match the pattern, or whose amount does not normalize, return false.
func ParseLine(line string) (models.TransactionRecord, bool) {
	m := linePattern.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return models.TransactionRecord{}, false
	}
	amt, ok := NormalizeAmount(m[3])
	if !ok {
		return models.TransactionRecord{}, false
	}
	vendor := strings.TrimSpace(m[2])
	if vendor == "" {
		return models.TransactionRecord{}, false
	}
	return models.TransactionRecord{Vendor: vendor, Amount: amt}, true
}

// ParseLines runs ParseLine over every line. Blank lines are ignored and
// not counted as skipped.
func ParseLines(lines []string) Result {
	var res Result
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		rec, ok := ParseLine(line)
		if !ok {
			res.Skipped++
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res
}

// ParseText splits a multi-line text block and runs ParseLines on it.
func ParseText(text string) Result {
	return ParseLines(strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n"))
}
