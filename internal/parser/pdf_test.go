package parser

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/reconciliation-bot/internal/extractor"
	"github.com/insightdelivered/reconciliation-bot/internal/models"
	"github.com/insightdelivered/reconciliation-bot/internal/testpdf"
)

func fakePDFParser(src PDFSource, openErr error) *PDFParser {
	return &PDFParser{
		Strategies: DefaultChain(),
		Open: func([]byte) (PDFSource, error) {
			if openErr != nil {
				return nil, openErr
			}
			return src, nil
		},
	}
}

func TestPDFParser_FallbackYieldsRecords(t *testing.T) {
	src := &fakeSource{pages: []string{"ACME BANK\n12/01 Starbucks 5.67\n12/02 Stripe Transfer 300.00"}}
	recs, err := fakePDFParser(src, nil).Parse(context.Background(), strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Stripe Transfer", recs[1].Vendor)
}

func TestPDFParser_Exhausted(t *testing.T) {
	src := &fakeSource{pages: []string{"Scanned image, no text layer"}}
	recs, err := fakePDFParser(src, nil).Parse(context.Background(), strings.NewReader("%PDF-1.4"))
	require.Error(t, err)
	assert.Nil(t, recs)
	assert.ErrorIs(t, err, models.ErrExhausted)
	assert.Contains(t, err.Error(), "PDF: could not extract transactions")
	assert.Contains(t, err.Error(), "scanned PDF")
}

func TestPDFParser_OpenFailureIsEngineError(t *testing.T) {
	_, err := fakePDFParser(nil, errors.New("malformed xref")).Parse(context.Background(), strings.NewReader("junk"))
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrEngine)
	assert.NotErrorIs(t, err, models.ErrExhausted)
}

func TestPDFParser_StrategyFaultIsEngineError(t *testing.T) {
	src := &fakeSource{rowsErr: errors.New("content stream")}
	_, err := fakePDFParser(src, nil).Parse(context.Background(), strings.NewReader("%PDF"))
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrEngine)
	assert.Contains(t, err.Error(), "table extraction failed")
}

func TestPDFParser_RealOpenRejectsGarbage(t *testing.T) {
	p := NewPDFParser(extractor.PDFOptions{})
	_, err := p.Parse(context.Background(), strings.NewReader("not a pdf at all"))
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrEngine)
}

func parsePDF(t *testing.T, data []byte) ([]models.TransactionRecord, error) {
	t.Helper()
	return NewPDFParser(extractor.PDFOptions{}).Parse(context.Background(), bytes.NewReader(data))
}

func TestPDFParser_TextLines(t *testing.T) {
	lines := []string{"ACME BANK statement", "12/01 Starbucks 5.67", "12/02 Payroll Deposit 1,200.00"}
	tests := []struct {
		name string
		data []byte
	}{
		{"Td with widths", testpdf.Build(testpdf.Options{Widths: true}, testpdf.Lines(testpdf.Td, 50, 700, lines...))},
		{"Td without widths", testpdf.Build(testpdf.Options{}, testpdf.Lines(testpdf.Td, 50, 700, lines...))},
		{"Tm", testpdf.Build(testpdf.Options{Widths: true}, testpdf.Lines(testpdf.Tm, 50, 700, lines...))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, err := parsePDF(t, tt.data)
			require.NoError(t, err)
			require.Len(t, recs, 2)
			assert.Equal(t, "Starbucks", recs[0].Vendor)
			assert.Equal(t, "5.67", recs[0].Amount.StringFixed(2))
			assert.Equal(t, "Payroll Deposit", recs[1].Vendor)
			assert.Equal(t, "1200.00", recs[1].Amount.StringFixed(2))
		})
	}
}

func TestPDFParser_TableWithoutWidths(t *testing.T) {
	xs := []float64{50, 120, 400}
	content := testpdf.Td(50, 740, "ACME BANK statement") +
		testpdf.Row(testpdf.Td, 700, xs, "Date", "Description", "Amount") +
		testpdf.Row(testpdf.Td, 680, xs, "12/01", "Starbucks Coffee", "-5.67") +
		testpdf.Row(testpdf.Td, 660, xs, "12/02", "Payroll Deposit", "1,200.00")

	recs, err := parsePDF(t, testpdf.Build(testpdf.Options{}, content))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Starbucks Coffee", recs[0].Vendor)
	assert.Equal(t, "-5.67", recs[0].Amount.StringFixed(2))
	assert.Equal(t, "Payroll Deposit", recs[1].Vendor)
}

func TestPDFParser_NoMatchingText(t *testing.T) {
	content := testpdf.Lines(testpdf.Td, 50, 700,
		"ACME BANK statement", "No transactions this period", "Closing balance 0.00")
	recs, err := parsePDF(t, testpdf.Build(testpdf.Options{Widths: true}, content))
	require.Error(t, err)
	assert.Nil(t, recs)
	assert.ErrorIs(t, err, models.ErrExhausted)
}
