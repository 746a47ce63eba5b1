package extractor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/reconciliation-bot/internal/testpdf"
)

var statementLines = []string{
	"ACME BANK statement",
	"12/01 Starbucks 5.67",
	"12/02 Payroll Deposit 1,200.00",
}

func TestOpenPDF_NotAPDF(t *testing.T) {
	_, err := OpenPDF([]byte("Description,Amount\nCoffee,-5.00\n"), PDFOptions{})
	assert.Error(t, err)
}

func TestOpenPDF_Empty(t *testing.T) {
	_, err := OpenPDF(nil, PDFOptions{})
	assert.Error(t, err)
}

func TestOpenPDF_Pages(t *testing.T) {
	data := testpdf.Build(testpdf.Options{}, testpdf.Td(50, 700, "page one"), testpdf.Td(50, 700, "page two"))
	doc, err := OpenPDF(data, PDFOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, doc.NumPages())
}

// hasLine reports whether any candidate has line as one of its lines.
func hasLine(candidates [][]string, line string) bool {
	for _, pages := range candidates {
		for _, p := range pages {
			for _, l := range strings.Split(p, "\n") {
				if strings.TrimSpace(l) == line {
					return true
				}
			}
		}
	}
	return false
}

func TestTextCandidates_Td(t *testing.T) {
	for _, widths := range []bool{true, false} {
		data := testpdf.Build(testpdf.Options{Widths: widths}, testpdf.Lines(testpdf.Td, 50, 700, statementLines...))
		doc, err := OpenPDF(data, PDFOptions{})
		require.NoError(t, err)

		candidates, err := doc.TextCandidates()
		require.NoError(t, err)
		require.NotEmpty(t, candidates)
		assert.True(t, hasLine(candidates, "12/01 Starbucks 5.67"), "widths=%v: %q", widths, candidates)
		assert.True(t, hasLine(candidates, "12/02 Payroll Deposit 1,200.00"), "widths=%v", widths)
	}
}

func TestTextCandidates_Tm(t *testing.T) {
	data := testpdf.Build(testpdf.Options{Widths: true}, testpdf.Lines(testpdf.Tm, 50, 700, statementLines...))
	doc, err := OpenPDF(data, PDFOptions{})
	require.NoError(t, err)

	candidates, err := doc.TextCandidates()
	require.NoError(t, err)
	require.NotEmpty(t, candidates)
	assert.Equal(t, []string{strings.Join(statementLines, "\n")}, candidates[0], "row grouping follows Tm")
}

func TestTextCandidates_ReadableFirst(t *testing.T) {
	data := testpdf.Build(testpdf.Options{Widths: true}, testpdf.Lines(testpdf.Tm, 50, 700, statementLines...))
	doc, err := OpenPDF(data, PDFOptions{})
	require.NoError(t, err)

	candidates, err := doc.TextCandidates()
	require.NoError(t, err)
	seenUnreadable := false
	for _, c := range candidates {
		if !isReadableText(c) {
			seenUnreadable = true
			continue
		}
		assert.False(t, seenUnreadable, "readable candidates must come first")
	}
}

func TestTableRows_NoWidths(t *testing.T) {
	xs := []float64{50, 120, 400}
	content := testpdf.Td(50, 740, "ACME BANK statement") +
		testpdf.Row(testpdf.Td, 700, xs, "Date", "Description", "Amount") +
		testpdf.Row(testpdf.Td, 680, xs, "12/01", "Starbucks Coffee", "-5.67") +
		testpdf.Row(testpdf.Td, 660, xs, "12/02", "Payroll Deposit", "1,200.00")
	doc, err := OpenPDF(testpdf.Build(testpdf.Options{}, content), PDFOptions{})
	require.NoError(t, err)

	rows, err := doc.TableRows()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Date", "Description", "Amount"},
		{"12/01", "Starbucks Coffee", "-5.67"},
		{"12/02", "Payroll Deposit", "1,200.00"},
	}, rows)
}

func TestTextQuality(t *testing.T) {
	assert.InDelta(t, 1.0, textQuality([]string{"12/01 Coffee $5.67"}), 0.001)
	assert.Less(t, textQuality([]string{"ÀÁÂÃÄÅÆÇÈÉÊ"}), 0.1)
	assert.Equal(t, 0.0, textQuality(nil))
}

func TestIsReadableText(t *testing.T) {
	statement := "Account statement\n12/01 Coffee Shop 5.67\n12/02 Payroll Deposit 1,200.00\nClosing balance 1,194.33"
	tests := []struct {
		name  string
		pages []string
		want  bool
	}{
		{"statement text", []string{statement}, true},
		{"too short", []string{"balance 1.00"}, false},
		{"no statement words", []string{strings.Repeat("lorem ipsum ", 10)}, false},
		{"mis-decoded", []string{strings.Repeat("ÀÁÂÃ", 20) + " bank"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isReadableText(tt.pages))
		})
	}
}
