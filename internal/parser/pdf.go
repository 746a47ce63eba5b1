package parser

import (
	"context"
	"fmt"
	"io"

	"github.com/insightdelivered/reconciliation-bot/internal/extractor"
	"github.com/insightdelivered/reconciliation-bot/internal/logger"
	"github.com/insightdelivered/reconciliation-bot/internal/models"
)

const pdfExhaustedMsg = "could not extract transactions. " +
	"If this is a scanned PDF, convert to CSV or use PNG/OCR. " +
	"If it's a text PDF, your bank layout may need a tuned parser."

// PDFParser extracts records from text-bearing PDFs.
type PDFParser struct {
	Strategies Chain
	// Open turns raw bytes into a PDFSource; defaults to extractor.OpenPDF.
	Open func(data []byte) (PDFSource, error)
}

// NewPDFParser returns a PDFParser using the default strategy chain.
func NewPDFParser(opts extractor.PDFOptions) *PDFParser {
	return &PDFParser{
		Strategies: DefaultChain(),
		Open: func(data []byte) (PDFSource, error) {
			doc, err := extractor.OpenPDF(data, opts)
			if err != nil {
				return nil, err
			}
			return doc, nil
		},
	}
}

// Kind returns models.SourcePDF.
func (p *PDFParser) Kind() models.SourceKind { return models.SourcePDF }

// Parse opens the PDF and runs the strategy chain.
func (p *PDFParser) Parse(ctx context.Context, r io.Reader) ([]models.TransactionRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, models.EngineError("PDF", "could not read document", err)
	}
	src, err := p.Open(data)
	if err != nil {
		return nil, models.EngineError("PDF", "could not open document", err)
	}
	return p.ParseSource(ctx, src)
}

// ParseSource runs the strategy chain on an already opened source.
func (p *PDFParser) ParseSource(ctx context.Context, src PDFSource) ([]models.TransactionRecord, error) {
	log := logger.FromContext(ctx)

	res, strategy, err := p.Strategies.Extract(src)
	if err != nil {
		return nil, models.EngineError("PDF", fmt.Sprintf("%s extraction failed", strategy), err)
	}
	if res.Empty() {
		return nil, models.ExhaustedError("PDF", pdfExhaustedMsg)
	}
	log.Debug().
		Str("strategy", strategy).
		Int("records", len(res.Records)).
		Int("skipped", res.Skipped).
		Msg("pdf parsed")
	return res.Records, nil
}
