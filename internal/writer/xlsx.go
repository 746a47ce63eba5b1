package writer

import (
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/insightdelivered/reconciliation-bot/internal/ledger"
)

// Header is the column order shared by every sink.
var Header = []string{"amount", "vendor", "account_classification"}

// XLSXWriter writes a ledger as a workbook with one sheet per view.
type XLSXWriter struct{}

// WriteToFile writes the workbook to path.
func (w *XLSXWriter) WriteToFile(path string, l *ledger.Ledger) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	if err := w.Write(f, l); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Write encodes the workbook to out. Sheets are "Debits" then "Credits".
func (w *XLSXWriter) Write(out io.Writer, l *ledger.Ledger) error {
	f := excelize.NewFile()
	defer f.Close()

	views := l.Views()
	// The default sheet becomes the first view.
	if err := f.SetSheetName(f.GetSheetName(0), views[0].Name); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	for i, v := range views {
		if i > 0 {
			if _, err := f.NewSheet(v.Name); err != nil {
				return fmt.Errorf("failed to add sheet %q: %w", v.Name, err)
			}
		}
		if err := writeSheet(f, v); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, v ledger.View) error {
	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(v.Name, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", v.Name, err)
	}

	for i, r := range v.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{r.Amount.InexactFloat64(), r.Vendor, r.AccountClassification}
		if err := f.SetSheetRow(v.Name, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", v.Name, i+1, err)
		}
	}
	return nil
}
