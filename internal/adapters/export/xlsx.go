package export

import (
	"fmt"
	"io"

	"procurement-backoffice/internal/app"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ContentTypeXLSX is the media type of WriteExpectedCosts output.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SheetExpectedCosts is the name of the report sheet.
const SheetExpectedCosts = "Expected Costs"

var costColumns = []string{
	"Item", "Cost Code", "Line Total", "Freight", "Packing",
	"Custom Duties", "Other", "Sales Tax", "Expected Cost",
}

// Filename returns the attachment name for a document's report.
func Filename(r *app.ExpectedCostResult) string {
	name := r.DocumentNumber
	if name == "" {
		name = r.DocumentID
	}
	return fmt.Sprintf("expected-costs-%s.xlsx", name)
}

// WriteExpectedCosts renders the expected-cost report as an XLSX workbook:
// one row per line item followed by a totals row.
func WriteExpectedCosts(w io.Writer, r *app.ExpectedCostResult) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := SheetExpectedCosts
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	moneyFmt := "#,##0.00"
	moneyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt})
	if err != nil {
		return fmt.Errorf("money style: %w", err)
	}
	totalStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, CustomNumFmt: &moneyFmt})
	if err != nil {
		return fmt.Errorf("total style: %w", err)
	}

	for i, title := range costColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, title)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
		col, _ := excelize.ColumnNumberToName(i + 1)
		width := 16.0
		if i == 0 {
			width = 36
		}
		f.SetColWidth(sheet, col, col, width)
	}

	var sums [7]decimal.Decimal
	for i, line := range r.Lines {
		row := i + 2
		amounts := [7]decimal.Decimal{
			line.LineTotal, line.Freight, line.Packing, line.CustomDuties,
			line.Other, line.SalesTax, line.ExpectedCost,
		}
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), line.ItemName)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), line.CostCode)
		for j, amount := range amounts {
			cell, _ := excelize.CoordinatesToCellName(j+3, row)
			f.SetCellValue(sheet, cell, amount.Round(2).InexactFloat64())
			sums[j] = sums[j].Add(amount)
		}
		first, _ := excelize.CoordinatesToCellName(3, row)
		last, _ := excelize.CoordinatesToCellName(len(costColumns), row)
		f.SetCellStyle(sheet, first, last, moneyStyle)
	}

	totalRow := len(r.Lines) + 2
	f.SetCellValue(sheet, fmt.Sprintf("A%d", totalRow), "Total")
	for j, sum := range sums {
		cell, _ := excelize.CoordinatesToCellName(j+3, totalRow)
		f.SetCellValue(sheet, cell, sum.Round(2).InexactFloat64())
	}
	first, _ := excelize.CoordinatesToCellName(1, totalRow)
	last, _ := excelize.CoordinatesToCellName(len(costColumns), totalRow)
	f.SetCellStyle(sheet, first, last, totalStyle)

	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
