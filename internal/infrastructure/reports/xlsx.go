// Package reports writes domain reports as spreadsheets.
package reports

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"invoicer/internal/core/types"
	domain "invoicer/internal/domain/reports"
)

// ContentTypeXLSX is the media type of the written workbooks.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const salesSheet = "Sales"

var salesHeadings = []string{
	"Date", "Invoice No.", "Customer", "HS Code", "Value Excl. Tax",
	"Sales Tax", "Special Excise", "Further Sales Tax", "Freight", "Grand Total",
}

// WriteSalesRegister writes r as a single-sheet workbook.
func WriteSalesRegister(w io.Writer, r *domain.SalesRegister) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", salesSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	if err := f.SetSheetRow(salesSheet, "A1", &salesHeadings); err != nil {
		return fmt.Errorf("write headings: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(salesHeadings), 1)
	if err := f.SetCellStyle(salesSheet, "A1", last, bold); err != nil {
		return fmt.Errorf("style headings: %w", err)
	}

	for i, row := range r.Rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := []any{
			row.Date.Format("2006-01-02"), row.InvoiceNumber, row.CustomerName, row.HSCode,
			amount(row.TaxableValue), amount(row.SalesTax), amount(row.SpecialExcise),
			amount(row.FurtherSalesTax), amount(row.Freight), amount(row.GrandTotal),
		}
		if err := f.SetSheetRow(salesSheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	totalRow := len(r.Rows) + 2
	cell, _ := excelize.CoordinatesToCellName(1, totalRow)
	t := r.Totals
	totals := []any{
		"Total", fmt.Sprintf("%d sales", t.Count), "", "",
		amount(t.TaxableValue), amount(t.SalesTax), amount(t.SpecialExcise),
		amount(t.FurtherSalesTax), amount(t.Freight), amount(t.GrandTotal),
	}
	if err := f.SetSheetRow(salesSheet, cell, &totals); err != nil {
		return fmt.Errorf("write totals: %w", err)
	}
	end, _ := excelize.CoordinatesToCellName(len(salesHeadings), totalRow)
	if err := f.SetCellStyle(salesSheet, cell, end, bold); err != nil {
		return fmt.Errorf("style totals: %w", err)
	}

	if err := f.SetColWidth(salesSheet, "A", "J", 16); err != nil {
		return fmt.Errorf("set widths: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// amount rounds for display and keeps the cell numeric.
func amount(m types.Money) float64 {
	v, _ := m.Round(2).Float64()
	return v
}
