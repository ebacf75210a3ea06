package reports

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const stockLedgerSheet = "Stock Ledger"

var stockLedgerHeader = []any{
	"Receipt Date", "Receipt", "Customer", "Item", "Item Group", "Batch No",
	"Warehouse", "Days In Store", "In Qty", "Out Qty", "Balance", "Cumulative Balance",
}

// WriteStockLedgerXLSX renders the report as a single-sheet workbook with a
// totals row.
func WriteStockLedgerXLSX(w io.Writer, report *StockLedger) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", stockLedgerSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	if err := f.SetSheetRow(stockLedgerSheet, "A1", &stockLedgerHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := f.SetCellStyle(stockLedgerSheet, "A1", "L1", bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	rowNum := 2
	for _, r := range report.Rows {
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		values := []any{
			r.ReceiptDate.Format("2006-01-02"),
			r.ReceiptID.String(),
			r.Customer,
			r.GoodsItem,
			r.ItemGroup,
			r.BatchNo,
			r.Warehouse,
			r.DaysInStore,
			r.In.Int64(),
			r.Out.Int64(),
			r.Balance.Int64(),
			r.CumulativeBalance.Int64(),
		}
		if err := f.SetSheetRow(stockLedgerSheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", rowNum, err)
		}
		rowNum++
	}

	if len(report.Rows) > 0 {
		first, _ := excelize.CoordinatesToCellName(1, rowNum)
		last, _ := excelize.CoordinatesToCellName(len(stockLedgerHeader), rowNum)
		totals := []any{"", "", "", "", "", "Total", "", nil,
			report.Totals.In.Int64(), report.Totals.Out.Int64(), report.Totals.Balance.Int64(), nil}
		if err := f.SetSheetRow(stockLedgerSheet, first, &totals); err != nil {
			return fmt.Errorf("write totals: %w", err)
		}
		if err := f.SetCellStyle(stockLedgerSheet, first, last, bold); err != nil {
			return fmt.Errorf("style totals: %w", err)
		}
	}

	if err := f.SetColWidth(stockLedgerSheet, "A", "L", 16); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
