// Package export renders a user's receipts as an XLSX workbook.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"receiptdesk/internal/domain"
)

const sheetName = "Receipts"

// columns defines the header row.
var columns = []interface{}{
	"ID",
	"Status",
	"Original File Name",
	"Merchant",
	"Total",
	"Currency",
	"Transaction Date",
	"Merchant Confidence",
	"Total Confidence",
	"Date Confidence",
	"Uploaded At",
	"Processed At",
	"Error",
}

// WriteReceipts writes the receipts as one worksheet to w, newest first in
// the order given.
func WriteReceipts(w io.Writer, receipts []domain.Receipt) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("removing default sheet: %w", err)
	}

	if err := f.SetSheetRow(sheetName, "A1", &columns); err != nil {
		return fmt.Errorf("writing header row: %w", err)
	}

	for i := range receipts {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("computing row cell: %w", err)
		}
		row := receiptToRow(&receipts[i])
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func receiptToRow(r *domain.Receipt) []interface{} {
	row := []interface{}{
		r.ID.String(),
		string(r.Status),
		r.OriginalFileName,
		strOrEmpty(r.MerchantName),
		floatOrEmpty(r.TotalAmount),
		strOrEmpty(r.Currency),
		"",
		floatOrEmpty(r.MerchantNameConfidence),
		floatOrEmpty(r.TotalAmountConfidence),
		floatOrEmpty(r.TransactionDateConfidence),
		r.CreatedAt.Format("2006-01-02 15:04:05"),
		"",
		strOrEmpty(r.ErrorMessage),
	}
	if r.TransactionDate != nil {
		row[6] = r.TransactionDate.Format("2006-01-02")
	}
	if r.ProcessedAt != nil {
		row[11] = r.ProcessedAt.Format("2006-01-02 15:04:05")
	}
	return row
}

func strOrEmpty(s *string) interface{} {
	if s == nil {
		return ""
	}
	return *s
}

func floatOrEmpty(f *float64) interface{} {
	if f == nil {
		return ""
	}
	return *f
}
