/*
Package report renders salary payments as an XLSX workbook.

PURPOSE:
  Payroll officers review a month's payments in a spreadsheet before
  approving them. PayrollWorkbook builds one sheet per period with one row
  per payment and a totals row.

LAYOUT (sheet "Payroll YYYY-MM"):
  Row 1:      Header
  Row 2..n+1: One payment per row, ordered as given
  Row n+2:    Totals of the money columns

  Money is rounded to 2 places and the workday fraction to 4 for display.
  The stored payment keeps full precision.

SEE ALSO:
  - api/handlers.go: GET /api/payroll/report
  - cmd/payrollctl: calculate --xlsx
*/
package report

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
	"github.com/xuri/excelize/v2"
)

const (
	moneyFormat    = 4  // #,##0.00
	fractionFormat = 10 // 0.00%
)

// Header is the first row of every payroll sheet.
var Header = []string{
	"Employee ID", "Name", "Status", "Base Salary", "Full Days", "Half Days",
	"Hourly Rate", "Weekday OT Pay", "Weekend OT Pay", "Holiday OT Pay",
	"Total OT Pay", "Workday Fraction", "Net Amount",
}

// moneyColumns are the 1-based columns summed in the totals row.
var moneyColumns = []int{4, 8, 9, 10, 11, 13}

// SheetName is the sheet a period is written to.
func SheetName(period generic.Period) string {
	return "Payroll " + period.Label()
}

// PayrollWorkbook builds the workbook. names maps employee IDs to display
// names; missing entries leave the cell empty.
func PayrollWorkbook(period generic.Period, payments []payroll.Payment, names map[generic.EmployeeID]string) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := SheetName(period)
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := writeRows(f, sheet, payments, names); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// WriteWorkbook builds the workbook and writes it to w.
func WriteWorkbook(w io.Writer, period generic.Period, payments []payroll.Payment, names map[generic.EmployeeID]string) error {
	f, err := PayrollWorkbook(period, payments, names)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

func writeRows(f *excelize.File, sheet string, payments []payroll.Payment, names map[generic.EmployeeID]string) error {
	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	totals := make(map[int]decimal.Decimal)
	for i, p := range payments {
		b := p.Breakdown
		row := []any{
			string(p.EmployeeID),
			names[p.EmployeeID],
			string(p.Status),
			money(p.BaseSalary),
			p.FullDays,
			p.HalfDays,
			money(b.HourlyRate),
			money(b.WeekdayOvertimePay),
			money(b.WeekendOvertimePay),
			money(b.HolidayOvertimePay),
			money(b.TotalOvertimePay),
			b.WorkdayFraction.Round(4).InexactFloat64(),
			money(b.NetAmount),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write payment %s: %w", p.ID, err)
		}

		for col, v := range map[int]decimal.Decimal{
			4: p.BaseSalary, 8: b.WeekdayOvertimePay, 9: b.WeekendOvertimePay,
			10: b.HolidayOvertimePay, 11: b.TotalOvertimePay, 13: b.NetAmount,
		} {
			totals[col] = totals[col].Add(v)
		}
	}

	totalRow := len(payments) + 2
	label, _ := excelize.CoordinatesToCellName(1, totalRow)
	if err := f.SetCellValue(sheet, label, "Total"); err != nil {
		return err
	}
	for _, col := range moneyColumns {
		cell, _ := excelize.CoordinatesToCellName(col, totalRow)
		if err := f.SetCellValue(sheet, cell, money(totals[col])); err != nil {
			return err
		}
	}

	return applyStyles(f, sheet, totalRow)
}

func applyStyles(f *excelize.File, sheet string, lastRow int) error {
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: moneyFormat})
	if err != nil {
		return err
	}
	fractionStyle, err := f.NewStyle(&excelize.Style{NumFmt: fractionFormat})
	if err != nil {
		return err
	}

	lastCol, _ := excelize.ColumnNumberToName(len(Header))
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", bold); err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, lastRow, lastRow, bold); err != nil {
		return err
	}
	if lastRow > 2 {
		for _, col := range []int{4, 7, 8, 9, 10, 11, 13} {
			name, _ := excelize.ColumnNumberToName(col)
			if err := f.SetCellStyle(sheet, fmt.Sprintf("%s2", name), fmt.Sprintf("%s%d", name, lastRow-1), moneyStyle); err != nil {
				return err
			}
		}
		if err := f.SetCellStyle(sheet, "L2", fmt.Sprintf("L%d", lastRow-1), fractionStyle); err != nil {
			return err
		}
	}
	return f.SetColWidth(sheet, "A", lastCol, 16)
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
