package models

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

// ExportLedgerEntriesXLSX writes the ledger (filtered like ListLedgerEntries)
// as a spreadsheet to w.
func ExportLedgerEntriesXLSX(ctx context.Context, w io.Writer, fromDate *time.Time, toDate *time.Time) error {

	entries, err := ListLedgerEntries(ctx, fromDate, toDate, nil, nil)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	sheetName := "Ledger"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	// Add headers
	f.SetCellValue(sheetName, "A1", "Date")
	f.SetCellValue(sheetName, "B1", "Detail")
	f.SetCellValue(sheetName, "C1", "Income")
	f.SetCellValue(sheetName, "D1", "Expense")
	f.SetCellValue(sheetName, "E1", "Balance")

	// Add data
	for i, e := range entries {
		row := fmt.Sprint(i + 2)
		f.SetCellValue(sheetName, "A"+row, e.EntryDate.Format("2006-01-02"))
		f.SetCellValue(sheetName, "B"+row, e.Detail)
		f.SetCellValue(sheetName, "C"+row, e.IncomeAmount.InexactFloat64())
		f.SetCellValue(sheetName, "D"+row, e.ExpenseAmount.InexactFloat64())
		f.SetCellValue(sheetName, "E"+row, e.RunningBalance.InexactFloat64())
	}

	return f.Write(w)
}
