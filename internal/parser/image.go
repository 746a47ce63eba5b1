package parser

import (
	"context"
	"image"
	"io"

	"github.com/insightdelivered/reconciliation-bot/internal/extractor"
	"github.com/insightdelivered/reconciliation-bot/internal/logger"
	"github.com/insightdelivered/reconciliation-bot/internal/models"
)

// Recognizer turns an image into text. extractor.Tesseract implements it.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// ImageParser OCRs a scanned statement and applies the line pattern.
type ImageParser struct {
	OCR Recognizer
}

// NewImageParser returns an ImageParser backed by ocr.
func NewImageParser(ocr Recognizer) *ImageParser {
	return &ImageParser{OCR: ocr}
}

// Kind returns models.SourceImage.
func (p *ImageParser) Kind() models.SourceKind { return models.SourceImage }

// Parse decodes the image, runs OCR and matches each output line. Decode and
// OCR faults are engine errors; OCR output with no matching line is an
// exhausted error.
func (p *ImageParser) Parse(ctx context.Context, r io.Reader) ([]models.TransactionRecord, error) {
	log := logger.FromContext(ctx)

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, models.EngineError("PNG", "could not read image", err)
	}
	img, format, err := extractor.DecodeImage(data)
	if err != nil {
		return nil, models.EngineError("PNG", "could not decode image", err)
	}
	text, err := p.OCR.Recognize(ctx, extractor.ToRGBA(img))
	if err != nil {
		return nil, models.EngineError("PNG", "OCR failed", err)
	}

	res := ParseText(text)
	if res.Empty() {
		return nil, models.ExhaustedError("PNG",
			"OCR ran but no transactions matched the parser. "+
				"This usually means the statement layout needs tuning.")
	}
	log.Debug().
		Str("format", format).
		Int("records", len(res.Records)).
		Int("skipped", res.Skipped).
		Msg("image parsed")
	return res.Records, nil
}
