package models

import "fmt"

// ErrorKind classifies document-level failures. Row-level problems never
// become errors; they are counted and dropped by the extractors.
type ErrorKind int

const (
	// KindSchema: required columns are missing from a table.
	KindSchema ErrorKind = iota + 1
	// KindExhausted: every extraction strategy ran and found nothing.
	KindExhausted
	// KindUnsupported: the input type is not recognized.
	KindUnsupported
	// KindEngine: a lower-level decode, OCR or I/O fault.
	KindEngine
)

func (k ErrorKind) String() string {
	switch k {
	case KindSchema:
		return "schema"
	case KindExhausted:
		return "extraction_exhausted"
	case KindUnsupported:
		return "unsupported_input"
	case KindEngine:
		return "engine"
	default:
		return "unknown"
	}
}

// Error is a terminal, non-retryable failure for one document.
type Error struct {
	Kind   ErrorKind
	Source string // e.g. "CSV", "PDF", "COA"
	Msg    string
	Err    error
}

// Sentinels for errors.Is; they match any *Error of the same kind.
var (
	ErrSchema      = &Error{Kind: KindSchema}
	ErrExhausted   = &Error{Kind: KindExhausted}
	ErrUnsupported = &Error{Kind: KindUnsupported}
	ErrEngine      = &Error{Kind: KindEngine}
)

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Source != "" {
		msg = e.Source + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Msg == "" && t.Source == "" && t.Err == nil && t.Kind == e.Kind
}

// SchemaError builds a KindSchema error naming the missing requirement.
func SchemaError(source, format string, args ...interface{}) *Error {
	return &Error{Kind: KindSchema, Source: source, Msg: fmt.Sprintf(format, args...)}
}

// ExhaustedError builds a KindExhausted error.
func ExhaustedError(source, format string, args ...interface{}) *Error {
	return &Error{Kind: KindExhausted, Source: source, Msg: fmt.Sprintf(format, args...)}
}

// UnsupportedError builds a KindUnsupported error.
func UnsupportedError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindUnsupported, Msg: fmt.Sprintf(format, args...)}
}

// EngineError wraps a lower-level fault.
func EngineError(source, msg string, err error) *Error {
	return &Error{Kind: KindEngine, Source: source, Msg: msg, Err: err}
}
