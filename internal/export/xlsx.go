package export

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/zombor/receipt-ledger/internal/scanning"
)

// Expense report layout. The form holds 21 rows on its first page (9-29) and
// continues at row 41 on the second.
const (
	firstPageRow   = 9
	firstPageSize  = 21
	secondPageRow  = 41
	headerRow      = 8
	colDate        = 2  // B
	colStore       = 5  // E
	colReducedRate = 16 // P: 8% plus non-invoice amounts
	colStandard    = 19 // S: 10% amounts
)

// ExpenseReport fills an expense report workbook with the records in order.
// When templatePath is empty a blank workbook with a header row is used.
// The returned bytes are a complete .xlsx file.
func ExpenseReport(records []scanning.ReceiptRecord, templatePath string) ([]byte, error) {
	f, err := openWorkbook(templatePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	merges, err := f.GetMergeCells(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading merged cells: %w", err)
	}

	write := func(col, row int, v any) error {
		col, row = mergedOrigin(merges, col, row)
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellValue(sheet, cell, v)
	}

	for i, r := range records {
		row := reportRow(i)

		if d := deref(r.Date); d != "" {
			if err := write(colDate, row, d); err != nil {
				return nil, fmt.Errorf("writing date for receipt %d: %w", r.ID, err)
			}
		}
		if s := deref(r.StoreName); s != "" {
			if err := write(colStore, row, s); err != nil {
				return nil, fmt.Errorf("writing store for receipt %d: %w", r.ID, err)
			}
		}

		reduced := decimal.NewFromFloat(r.Amount8Percent).Add(decimal.NewFromFloat(r.AmountNonInvoice))
		if reduced.IsPositive() {
			if err := write(colReducedRate, row, reduced.InexactFloat64()); err != nil {
				return nil, fmt.Errorf("writing 8%% amount for receipt %d: %w", r.ID, err)
			}
		}
		if r.Amount10Percent > 0 {
			if err := write(colStandard, row, r.Amount10Percent); err != nil {
				return nil, fmt.Errorf("writing 10%% amount for receipt %d: %w", r.ID, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

// reportRow maps a record's position to its sheet row
func reportRow(i int) int {
	if i < firstPageSize {
		return firstPageRow + i
	}
	return secondPageRow + (i - firstPageSize)
}

func openWorkbook(templatePath string) (*excelize.File, error) {
	if templatePath != "" {
		f, err := excelize.OpenFile(templatePath)
		if err != nil {
			return nil, fmt.Errorf("opening template: %w", err)
		}
		return f, nil
	}

	f := excelize.NewFile()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	headers := map[int]string{
		colDate:        "日付",
		colStore:       "店名",
		colReducedRate: "8%・対象外",
		colStandard:    "10%",
	}
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col, headerRow)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			f.Close()
			return nil, fmt.Errorf("writing header: %w", err)
		}
	}
	_ = f.SetColWidth(sheet, "B", "B", 14)
	_ = f.SetColWidth(sheet, "E", "E", 28)
	return f, nil
}

// mergedOrigin redirects a cell inside a merged range to the range's top-left cell
func mergedOrigin(merges []excelize.MergeCell, col, row int) (int, int) {
	for _, m := range merges {
		startCol, startRow, err := excelize.CellNameToCoordinates(m.GetStartAxis())
		if err != nil {
			continue
		}
		endCol, endRow, err := excelize.CellNameToCoordinates(m.GetEndAxis())
		if err != nil {
			continue
		}
		if col >= startCol && col <= endCol && row >= startRow && row <= endRow {
			return startCol, startRow
		}
	}
	return col, row
}
