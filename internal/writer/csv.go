package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/insightdelivered/reconciliation-bot/internal/ledger"
)

// CSVWriter writes ledger views to CSV format, one file per view.
type CSVWriter struct{}

// WriteToFiles writes <base>-debits.csv and <base>-credits.csv next to base,
// where base is path with its extension removed. It returns the paths
// written.
func (w *CSVWriter) WriteToFiles(path string, l *ledger.Ledger) ([]string, error) {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	var written []string
	for _, v := range l.Views() {
		name := fmt.Sprintf("%s-%s.csv", base, strings.ToLower(v.Name))
		if err := w.writeFile(name, v); err != nil {
			return written, err
		}
		written = append(written, name)
	}
	return written, nil
}

func (w *CSVWriter) writeFile(path string, v ledger.View) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	return w.WriteView(f, v)
}

// WriteView writes one view in CSV format to the given writer.
func (w *CSVWriter) WriteView(out io.Writer, v ledger.View) error {
	writer := csv.NewWriter(out)

	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range v.Rows {
		row := []string{
			r.Amount.StringFixed(2),
			r.Vendor,
			r.AccountClassification,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
