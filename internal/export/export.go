// Package export writes a bill listing as CSV or XLSX.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/billed-dev/billed/internal/model"
)

// Header is the column row shared by both formats.
var Header = []string{"id", "date", "type", "name", "amount", "vat", "pct", "status", "file_name"}

const sheetName = "Notes de frais"

func row(b model.Bill) []string {
	return []string{
		b.ID,
		b.Date,
		string(b.Type),
		b.Name,
		strconv.Itoa(b.Amount),
		b.VAT,
		strconv.Itoa(b.Pct),
		string(b.Status),
		b.FileName,
	}
}

// CSV writes bills in the given order.
func CSV(w io.Writer, bills []model.Bill) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, b := range bills {
		if err := cw.Write(row(b)); err != nil {
			return fmt.Errorf("writing bill %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// XLSX writes bills to a single-sheet workbook. Amount, VAT and pct are
// written as numbers.
func XLSX(w io.Writer, bills []model.Bill) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	for col, h := range Header {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, b := range bills {
		values := []any{b.ID, b.Date, string(b.Type), b.Name, b.Amount, vatValue(b.VAT), b.Pct, string(b.Status), b.FileName}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return fmt.Errorf("writing bill %d: %w", i, err)
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// vatValue returns a float for numeric VAT so spreadsheets can sum it.
func vatValue(raw string) any {
	if raw == "" {
		return ""
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return raw
	}
	f, _ := d.Float64()
	return f
}
