package services

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"retail-insights/models"
)

const (
	SheetTopProducts   = "Top Products"
	SheetTopStores     = "Top Stores"
	SheetMonthlyTrends = "Monthly Trends"
)

// XLSXContentType is the MIME type of the trend workbook.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// WriteTrendsWorkbook writes the trend summary as an .xlsx workbook with one
// sheet per ranking.
func WriteTrendsWorkbook(w io.Writer, trends models.Trends) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetTopProducts); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetTopStores); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetMonthlyTrends); err != nil {
		return err
	}

	if err := writeEntries(f, SheetTopProducts, "Product", trends.TopProducts); err != nil {
		return err
	}
	if err := writeEntries(f, SheetTopStores, "Shop", trends.TopStores); err != nil {
		return err
	}

	if err := f.SetSheetRow(SheetMonthlyTrends, "A1", &[]interface{}{"Month", "Quantity"}); err != nil {
		return err
	}
	for i, m := range trends.MonthlyTrends {
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(SheetMonthlyTrends, cell, &[]interface{}{m.Month, m.Quantity}); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeEntries(f *excelize.File, sheet, label string, entries []models.TrendEntry) error {
	if err := f.SetSheetRow(sheet, "A1", &[]interface{}{"ID", label, "Quantity"}); err != nil {
		return err
	}
	for i, e := range entries {
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &[]interface{}{e.ID, e.Name, e.Quantity}); err != nil {
			return err
		}
	}
	return nil
}
