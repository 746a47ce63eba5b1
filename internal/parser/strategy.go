package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/insightdelivered/reconciliation-bot/internal/models"
)

// PDFSource is what PDF strategies read from. extractor.Document is the
// production implementation; tests use synthetic grids.
type PDFSource interface {
	// TableRows returns text-grid rows of all detected tabular regions.
	TableRows() ([][]string, error)
	// TextCandidates returns the page texts produced by each available
	// text extraction method, most trustworthy first.
	TextCandidates() ([][]string, error)
}

// Strategy is one way of turning a PDF into records. An empty Result means
// the strategy ran and found nothing; an error is a lower-level fault.
type Strategy interface {
	Name() string
	Extract(src PDFSource) (Result, error)
}

// Chain runs strategies in order; the first non-empty Result wins.
type Chain []Strategy

// Extract returns the winning result and the name of the strategy that
// produced it. All strategies empty gives an empty Result and "".
func (c Chain) Extract(src PDFSource) (Result, string, error) {
	for _, s := range c {
		res, err := s.Extract(src)
		if err != nil {
			return Result{}, s.Name(), err
		}
		if !res.Empty() {
			return res, s.Name(), nil
		}
	}
	return Result{}, "", nil
}

// DefaultChain is the geometric table strategy followed by the line-text
// fallback.
func DefaultChain() Chain {
	return Chain{TableStrategy{}, TextStrategy{}}
}

// TableStrategy interprets geometric table rows.
type TableStrategy struct{}

func (TableStrategy) Name() string { return "table" }

func (TableStrategy) Extract(src PDFSource) (Result, error) {
	rows, err := src.TableRows()
	if err != nil {
		return Result{}, err
	}
	return InterpretRows(rows), nil
}

// InterpretRows applies the row heuristic to each grid row. All-blank rows
// are ignored; rows without an amount anchor or vendor are skipped.
func InterpretRows(rows [][]string) Result {
	var res Result
	for _, row := range rows {
		if blankRow(row) {
			continue
		}
		rec, ok := InterpretRow(row)
		if !ok {
			res.Skipped++
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res
}

// InterpretRow finds the rightmost money-shaped cell as the amount anchor,
// then takes the longest non-money cell before it as the vendor. On equal
// length the leftmost cell wins.
func InterpretRow(row []string) (models.TransactionRecord, bool) {
	cells := make([]string, len(row))
	for i, c := range row {
		cells[i] = strings.TrimSpace(c)
	}

	anchor := -1
	for i := len(cells) - 1; i >= 0; i-- {
		if IsMoneyShaped(cells[i]) {
			anchor = i
			break
		}
	}
	if anchor < 0 {
		return models.TransactionRecord{}, false
	}

	vendor := ""
	best := 0
	for _, c := range cells[:anchor] {
		if c == "" || IsMoneyShaped(c) {
			continue
		}
		if n := utf8.RuneCountInString(c); n > best {
			vendor, best = c, n
		}
	}
	if vendor == "" {
		return models.TransactionRecord{}, false
	}

	amt, ok := NormalizeAmount(cells[anchor])
	if !ok {
		return models.TransactionRecord{}, false
	}
	return models.TransactionRecord{Vendor: vendor, Amount: amt}, true
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// TextStrategy runs the line pattern over each text candidate in turn and
// keeps the first one that yields records. A candidate that reads well but
// has its lines merged matches nothing and is passed over.
type TextStrategy struct{}

func (TextStrategy) Name() string { return "text" }

func (TextStrategy) Extract(src PDFSource) (Result, error) {
	candidates, err := src.TextCandidates()
	if err != nil {
		return Result{}, err
	}
	var first Result
	for i, pages := range candidates {
		var res Result
		for _, page := range pages {
			r := ParseText(page)
			res.Records = append(res.Records, r.Records...)
			res.Skipped += r.Skipped
		}
		if !res.Empty() {
			return res, nil
		}
		if i == 0 {
			first = res
		}
	}
	return first, nil
}
