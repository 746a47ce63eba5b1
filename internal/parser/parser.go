package parser

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/insightdelivered/reconciliation-bot/internal/extractor"
	"github.com/insightdelivered/reconciliation-bot/internal/models"
)

// Parser extracts (vendor, amount) records from one statement document.
type Parser interface {
	// Parse reads the whole document. Row-level problems are absorbed;
	// document-level problems are returned as *models.Error.
	Parse(ctx context.Context, r io.Reader) ([]models.TransactionRecord, error)
	// Kind returns the source kind the parser handles.
	Kind() models.SourceKind
}

// Registry holds one parser per source kind.
type Registry struct {
	parsers map[models.SourceKind]Parser
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[models.SourceKind]Parser)}
}

// Register adds or replaces the parser for p.Kind().
func (r *Registry) Register(p Parser) {
	r.parsers[p.Kind()] = p
}

// Get returns the parser for kind, or an unsupported error.
func (r *Registry) Get(kind models.SourceKind) (Parser, error) {
	p, ok := r.parsers[kind]
	if !ok {
		return nil, models.UnsupportedError("no parser registered for %q", kind)
	}
	return p, nil
}

// Options configures the built-in parsers.
type Options struct {
	PDF extractor.PDFOptions
	OCR Recognizer
}

// DefaultRegistry returns a registry with the CSV, XLSX, PDF and image
// parsers. A nil OCR falls back to tesseract on PATH.
func DefaultRegistry(opts Options) *Registry {
	ocr := opts.OCR
	if ocr == nil {
		ocr = extractor.Tesseract{}
	}
	r := NewRegistry()
	r.Register(NewCSVParser())
	r.Register(NewXLSXParser())
	r.Register(NewPDFParser(opts.PDF))
	r.Register(NewImageParser(ocr))
	return r
}

var kindByExt = map[string]models.SourceKind{
	".csv":  models.SourceCSV,
	".xlsx": models.SourceXLSX,
	".pdf":  models.SourcePDF,
	".png":  models.SourceImage,
	".jpg":  models.SourceImage,
	".jpeg": models.SourceImage,
	".gif":  models.SourceImage,
	".bmp":  models.SourceImage,
	".tif":  models.SourceImage,
	".tiff": models.SourceImage,
	".webp": models.SourceImage,
}

// DetectKind picks the source kind from a file name's extension.
func DetectKind(filename string) (models.SourceKind, error) {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(filename)))
	if kind, ok := kindByExt[ext]; ok {
		return kind, nil
	}
	return "", models.UnsupportedError("Unsupported file type. Use PDF, CSV, XLSX, or an image (PNG/JPG/TIFF).")
}

// ParseKind validates an explicit kind name such as "pdf" or "png".
func ParseKind(name string) (models.SourceKind, error) {
	switch k := models.SourceKind(strings.ToLower(strings.TrimSpace(name))); k {
	case models.SourceCSV, models.SourceXLSX, models.SourcePDF, models.SourceImage:
		return k, nil
	}
	return DetectKind("." + strings.ToLower(strings.TrimSpace(name)))
}
