package attendance

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// CSVRow is one line of an attendance export.
//
//	employee_id,date,status,notes,overtime_category,overtime_hours
//	emp-1,2025-03-03,F,,,
//	emp-1,2025-03-08,O,,weekend,3
//	emp-1,2025-03-09,O,weekend:2,,
type CSVRow struct {
	EmployeeID       string `csv:"employee_id"`
	Date             string `csv:"date"`
	Status           string `csv:"status"`
	Notes            string `csv:"notes"`
	OvertimeCategory string `csv:"overtime_category"`
	OvertimeHours    string `csv:"overtime_hours"`
}

// ReadCSV parses and validates an attendance export. Errors carry the file
// line number (the header is line 1). Records get fresh IDs.
func ReadCSV(r io.Reader) ([]Record, error) {
	var rows []*CSVRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("read attendance csv: %w", err)
	}

	records := make([]Record, 0, len(rows))
	for i, row := range rows {
		rec, err := row.toRecord()
		if err != nil {
			var recErr *generic.RecordError
			if errors.As(err, &recErr) {
				recErr.Line = i + 2
			}
			return nil, err
		}
		rec.ID = NewRecordID()
		records = append(records, rec)
	}
	return records, nil
}

// WriteCSV writes records in the format ReadCSV accepts.
func WriteCSV(w io.Writer, records []Record) error {
	rows := make([]*CSVRow, len(records))
	for i, r := range records {
		row := &CSVRow{
			EmployeeID: string(r.EmployeeID),
			Date:       r.Date.String(),
			Status:     string(r.Status),
			Notes:      r.Notes,
		}
		if r.Overtime != nil {
			row.OvertimeCategory = string(r.Overtime.Category)
			row.OvertimeHours = r.Overtime.Hours.String()
		}
		rows[i] = row
	}
	return gocsv.Marshal(rows, w)
}

func (row *CSVRow) toRecord() (Record, error) {
	date, err := generic.ParseDate(strings.TrimSpace(row.Date))
	if err != nil {
		return Record{}, &generic.RecordError{Field: "date", Reason: err.Error()}
	}
	status, err := ParseStatus(row.Status)
	if err != nil {
		return Record{}, &generic.RecordError{Field: "status", Reason: err.Error()}
	}

	rec := Record{
		EmployeeID: generic.EmployeeID(strings.TrimSpace(row.EmployeeID)),
		Date:       date,
		Status:     status,
		Notes:      row.Notes,
	}

	category := strings.ToLower(strings.TrimSpace(row.OvertimeCategory))
	hours := strings.TrimSpace(row.OvertimeHours)
	if category != "" || hours != "" {
		h, err := decimal.NewFromString(hours)
		if err != nil {
			return Record{}, &generic.RecordError{Field: "overtime_hours", Reason: fmt.Sprintf("not a number: %q", hours)}
		}
		rec.Overtime = &OvertimeEntry{Category: OvertimeCategory(category), Hours: h}
	}

	if err := rec.Validate(); err != nil {
		return Record{}, err
	}
	return rec, nil
}
