package extractor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// PDFOptions controls PDF text and table extraction.
type PDFOptions struct {
	Layout Layout
	// Pdftotext adds the external poppler output as the last text
	// candidate.
	Pdftotext bool
}

// Document is an opened PDF held in memory.
type Document struct {
	data   []byte
	reader *pdf.Reader
	opts   PDFOptions
}

// OpenPDF parses the PDF structure. A non-PDF or corrupt byte stream is an
// error here, before any extraction is attempted.
func OpenPDF(data []byte, opts PDFOptions) (doc *Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PDF library crashed: %v", r)
		}
	}()

	if opts.Layout == (Layout{}) {
		opts.Layout = DefaultLayout
	}
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	if r.NumPage() == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}
	return &Document{data: data, reader: r, opts: opts}, nil
}

// NumPages returns the page count.
func (d *Document) NumPages() int { return d.reader.NumPage() }

// TableRows returns the cell rows of every tabular region on every page.
// Pages whose content stream cannot be decoded contribute no rows.
func (d *Document) TableRows() ([][]string, error) {
	var rows [][]string
	for i := 1; i <= d.NumPages(); i++ {
		lines := d.pageLines(i)
		rows = append(rows, TabularRows(lines)...)
	}
	return rows, nil
}

// TextCandidates returns the page texts of every extraction method that
// produced any text. Readable candidates come first, each group in method
// order, so a caller that needs more than readability (line matching, say)
// can move on to the next candidate. pdftotext, when enabled, is always last.
func (d *Document) TextCandidates() ([][]string, error) {
	methods := []func() []string{d.textByRow, d.textByContent, d.textByPagePlain, d.textByReaderPlain}

	var readable, rest [][]string
	for _, m := range methods {
		pages := safePages(m)
		switch {
		case totalTextLen(pages) == 0:
		case isReadableText(pages):
			readable = append(readable, pages)
		default:
			rest = append(rest, pages)
		}
	}
	candidates := append(readable, rest...)
	if d.opts.Pdftotext {
		if pages := safePages(d.textByPdftotext); totalTextLen(pages) > 0 {
			candidates = append(candidates, pages)
		}
	}
	return candidates, nil
}

func safePages(m func() []string) (pages []string) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
		}
	}()
	return m()
}

// pageLines reconstructs rows and cells from positioned glyphs.
func (d *Document) pageLines(n int) (lines []Line) {
	defer func() {
		if r := recover(); r != nil {
			lines = nil
		}
	}()

	page := d.reader.Page(n)
	if page.V.IsNull() {
		return nil
	}
	content := page.Content()
	glyphs := make([]Glyph, 0, len(content.Text))
	for _, t := range content.Text {
		glyphs = append(glyphs, Glyph{X: t.X, Y: t.Y, W: t.W, FontSize: t.FontSize, S: t.S})
	}
	return d.opts.Layout.Lines(glyphs)
}

// textByRow uses the library's own row grouping.
func (d *Document) textByRow() []string {
	var pages []string
	for i := 1; i <= d.NumPages(); i++ {
		page := d.reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		var lines []string
		for _, row := range rows {
			var parts []string
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}
			if line := strings.TrimSpace(strings.Join(parts, " ")); line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

// textByContent renders the glyph layout used for table detection as text.
func (d *Document) textByContent() []string {
	var pages []string
	for i := 1; i <= d.NumPages(); i++ {
		var lines []string
		for _, l := range d.pageLines(i) {
			lines = append(lines, l.Text())
		}
		if len(lines) > 0 {
			pages = append(pages, strings.Join(lines, "\n"))
		}
	}
	return pages
}

func (d *Document) textByPagePlain() []string {
	var pages []string
	for i := 1; i <= d.NumPages(); i++ {
		page := d.reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		fonts := make(map[string]*pdf.Font)
		for _, name := range page.Fonts() {
			f := page.Font(name)
			fonts[name] = &f
		}
		text, err := page.GetPlainText(fonts)
		if err != nil {
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			pages = append(pages, text)
		}
	}
	return pages
}

func (d *Document) textByReaderPlain() []string {
	r, err := d.reader.GetPlainText()
	if err != nil {
		return nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil
	}
	if text := strings.TrimSpace(string(data)); text != "" {
		return []string{text}
	}
	return nil
}

// textByPdftotext shells out to poppler's pdftotext. Pages are separated by
// form feeds in its output.
func (d *Document) textByPdftotext() []string {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return nil
	}
	tmp, err := os.CreateTemp("", "statement-*.pdf")
	if err != nil {
		return nil
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(d.data); err != nil {
		tmp.Close()
		return nil
	}
	tmp.Close()

	out, err := exec.CommandContext(context.Background(), "pdftotext", "-layout", tmp.Name(), "-").Output()
	if err != nil {
		return nil
	}
	var pages []string
	for _, p := range strings.Split(string(out), "\f") {
		if p = strings.TrimSpace(p); p != "" {
			pages = append(pages, p)
		}
	}
	return pages
}

// textQuality returns the ratio of basic ASCII readable characters to all
// characters. unicode.IsLetter is too broad: identity-encoded fonts decode
// to accented garbage.
func textQuality(pages []string) float64 {
	total := 0
	readable := 0
	for _, page := range pages {
		for _, r := range page {
			total++
			if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || unicode.IsPunct(r) || strings.ContainsRune("$+=<>|^`~", r)) {
				readable++
			} else if strings.ContainsRune("£€", r) {
				readable++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}

// commonWords appear in virtually every statement; text with none of them
// is probably mis-decoded.
var commonWords = []string{
	"bank", "account", "balance", "date", "payment", "statement",
	"total", "amount", "credit", "debit", "transaction", "deposit",
	"withdrawal", "opening", "closing", "transfer", "page", "period",
}

func containsCommonWords(pages []string) bool {
	combined := strings.ToLower(strings.Join(pages, " "))
	for _, word := range commonWords {
		if strings.Contains(combined, word) {
			return true
		}
	}
	return false
}

// isReadableText requires more than 50 chars, more than 60% readable
// characters and at least one common statement word.
func isReadableText(pages []string) bool {
	if totalTextLen(pages) <= 50 {
		return false
	}
	if textQuality(pages) <= 0.6 {
		return false
	}
	return containsCommonWords(pages)
}

func totalTextLen(pages []string) int {
	n := 0
	for _, p := range pages {
		n += len(strings.TrimSpace(p))
	}
	return n
}
