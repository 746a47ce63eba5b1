// Package pipeline runs one statement through extraction, classification and
// ledger assembly.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/insightdelivered/reconciliation-bot/internal/classify"
	"github.com/insightdelivered/reconciliation-bot/internal/config"
	"github.com/insightdelivered/reconciliation-bot/internal/extractor"
	"github.com/insightdelivered/reconciliation-bot/internal/ledger"
	"github.com/insightdelivered/reconciliation-bot/internal/logger"
	"github.com/insightdelivered/reconciliation-bot/internal/models"
	"github.com/insightdelivered/reconciliation-bot/internal/parser"
)

// Input is one reconciliation request.
type Input struct {
	// Filename selects the source kind by extension unless Kind is set.
	Filename  string
	Kind      models.SourceKind
	Statement io.Reader

	// RulesName and Rules are an optional override rule table. RulesName
	// picks CSV, XLSX or YAML by extension.
	RulesName string
	Rules     io.Reader

	IncludeUncategorized bool
}

// Output is the result of a successful run.
type Output struct {
	RunID   string
	Kind    models.SourceKind
	Records []models.TransactionRecord // classified, in extraction order
	Ledger  *ledger.Ledger
}

// Engine owns the parser registry. It holds no per-run state and can serve
// concurrent runs.
type Engine struct {
	registry *parser.Registry
	newID    func() string
}

// New creates an engine over registry.
func New(registry *parser.Registry) *Engine {
	return &Engine{registry: registry, newID: uuid.NewString}
}

// NewFromConfig creates an engine with the default parsers configured from
// cfg.
func NewFromConfig(cfg *config.Config) *Engine {
	return New(parser.DefaultRegistry(ParserOptions(cfg)))
}

// ParserOptions maps config settings to parser options.
func ParserOptions(cfg *config.Config) parser.Options {
	return parser.Options{
		PDF: extractor.PDFOptions{Layout: extractor.DefaultLayout, Pdftotext: cfg.PDF.Pdftotext},
		OCR: extractor.Tesseract{Binary: cfg.OCR.Binary, Lang: cfg.OCR.Lang, PSM: cfg.OCR.PSM},
	}
}

// DetectKind picks the source kind from a file name's extension.
func DetectKind(filename string) (models.SourceKind, error) {
	return parser.DetectKind(filename)
}

// Run extracts, classifies and assembles one statement. On error no partial
// ledger is returned.
func (e *Engine) Run(ctx context.Context, in Input) (*Output, error) {
	runID := e.newID()
	log := logger.FromContext(ctx).With().Str("run_id", runID).Str("file", in.Filename).Logger()
	ctx = logger.WithContext(ctx, log)
	start := time.Now()

	kind := in.Kind
	if kind == "" {
		k, err := DetectKind(in.Filename)
		if err != nil {
			log.Warn().Err(err).Msg("rejected input")
			return nil, err
		}
		kind = k
	}
	p, err := e.registry.Get(kind)
	if err != nil {
		return nil, err
	}

	// Override rules are read before extraction so a bad rule file fails
	// fast.
	var overrides classify.RuleSet
	if in.Rules != nil {
		overrides, err = classify.LoadOverrides(in.RulesName, in.Rules)
		if err != nil {
			log.Warn().Err(err).Msg("override rules rejected")
			return nil, err
		}
		log.Debug().Int("rules", len(overrides)).Msg("loaded override rules")
	}
	classifier := classify.New(overrides)

	if in.Statement == nil {
		return nil, models.EngineError(kind.Label(), "no statement provided", errors.New("nil reader"))
	}
	records, err := p.Parse(ctx, in.Statement)
	if err != nil {
		log.Warn().Err(err).Str("kind", string(kind)).Msg("extraction failed")
		return nil, err
	}
	log.Info().Str("kind", string(kind)).Int("records", len(records)).Msg("extracted records")

	l := ledger.Assemble(records, classifier, ledger.Options{IncludeUncategorized: in.IncludeUncategorized})
	log.Info().
		Int("debits", l.Debits.Len()).
		Int("credits", l.Credits.Len()).
		Dur("elapsed", time.Since(start)).
		Msg("assembled ledger")

	return &Output{
		RunID:   runID,
		Kind:    kind,
		Records: ledger.Classify(records, classifier),
		Ledger:  l,
	}, nil
}

// RunBytes is Run for callers that already hold the statement in memory.
func (e *Engine) RunBytes(ctx context.Context, in Input, statement []byte) (*Output, error) {
	in.Statement = bytes.NewReader(statement)
	return e.Run(ctx, in)
}

const genericMessage = "Something went wrong while processing the statement. Enable debug mode for details."

// UserMessage renders err for display. Schema, exhausted and unsupported
// errors always show their message. Anything else is hidden behind a
// generic message unless debug is set.
func UserMessage(err error, debug bool) string {
	if err == nil {
		return ""
	}
	var domain *models.Error
	if errors.As(err, &domain) && domain.Kind != models.KindEngine {
		return domain.Error()
	}
	if debug {
		return err.Error()
	}
	return genericMessage
}

// IsClientError reports whether err was caused by the input rather than by
// the engine.
func IsClientError(err error) bool {
	return errors.Is(err, models.ErrSchema) ||
		errors.Is(err, models.ErrExhausted) ||
		errors.Is(err, models.ErrUnsupported)
}
