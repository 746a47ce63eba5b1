// Package testpdf builds small uncompressed PDFs for tests. Every page gets
// a Helvetica WinAnsi font named /F1 at 10pt.
package testpdf

import (
	"bytes"
	"fmt"
	"strings"
)

// Options shapes the generated font.
type Options struct {
	// Widths adds /FirstChar, /LastChar and a flat /Widths array. Without
	// them glyphs carry no advance width.
	Widths bool
}

// Build returns a PDF with one page per content stream.
func Build(opts Options, pages ...string) []byte {
	font := "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>"
	if opts.Widths {
		font = "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding" +
			" /FirstChar 32 /LastChar 126 /Widths [" + strings.TrimSpace(strings.Repeat("556 ", 95)) + "] >>"
	}

	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"", // page tree, filled below
		font,
	}
	var kids []string
	for _, content := range pages {
		pageID := len(objs) + 1
		kids = append(kids, fmt.Sprintf("%d 0 R", pageID))
		objs = append(objs,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", pageID+1),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}
	objs[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, body := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

// Td shows s at (x, y), positioned with the Td operator.
func Td(x, y float64, s string) string {
	return fmt.Sprintf("BT /F1 10 Tf %g %g Td (%s) Tj ET\n", x, y, escape(s))
}

// Tm shows s at (x, y), positioned with a text matrix.
func Tm(x, y float64, s string) string {
	return fmt.Sprintf("BT /F1 10 Tf 1 0 0 1 %g %g Tm (%s) Tj ET\n", x, y, escape(s))
}

// Lines stacks one Td or Tm string per line, 20pt apart, from y downwards.
func Lines(show func(x, y float64, s string) string, x, y float64, lines ...string) string {
	var b strings.Builder
	for i, l := range lines {
		b.WriteString(show(x, y-float64(i)*20, l))
	}
	return b.String()
}

// Row places each cell at the matching x offset on one baseline.
func Row(show func(x, y float64, s string) string, y float64, xs []float64, cells ...string) string {
	var b strings.Builder
	for i, c := range cells {
		b.WriteString(show(xs[i], y, c))
	}
	return b.String()
}

var escaper = strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`)

func escape(s string) string { return escaper.Replace(s) }
