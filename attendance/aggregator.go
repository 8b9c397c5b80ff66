/*
aggregator.go - Attendance records to per-period summary

PURPOSE:
  Reduces every attendance record of one employee over one period into a
  Summary: how many days of each kind, and how many overtime hours per
  category. Payroll arithmetic only ever sees the Summary.

DISPATCH:
  F full day      -> FullDays
  H half day      -> HalfDays
  L on leave      -> LeaveDays
  S sick          -> SickDays
  A absent        -> AbsentDays
  P holiday       -> Holidays
  O overtime      -> hours of the record's category

OVERTIME HOURS:
  1. Structured Overtime entry, when present.
  2. Otherwise the legacy note ("weekday:4", "weekend: 3h", ...).
  3. Otherwise zero hours, and the record is listed in UnparsedOvertime.
  Unparsed overtime is never an error and never drops the record.

CONTRACT:
  - Caller guarantees all records belong to one employee and period.
  - Pure: no I/O, no shared state, a fresh Summary per call.

SEE ALSO:
  - notes.go: Legacy note format
  - payroll/calculator.go: Consumes the Summary
*/
package attendance

// Aggregate reduces records into a Summary.
func Aggregate(records []Record) Summary {
	summary := NewSummary()

	for _, r := range records {
		switch r.Status {
		case StatusFullDay:
			summary.FullDays++
		case StatusHalfDay:
			summary.HalfDays++
		case StatusLeave:
			summary.LeaveDays++
		case StatusSick:
			summary.SickDays++
		case StatusAbsent:
			summary.AbsentDays++
		case StatusHoliday:
			summary.Holidays++
		case StatusOvertime:
			entry, ok := overtimeOf(r)
			if !ok {
				summary.UnparsedOvertime = append(summary.UnparsedOvertime, UnparsedOvertime{
					RecordID: r.ID,
					Date:     r.Date,
					Notes:    r.Notes,
				})
				continue
			}
			summary.addOvertime(entry.Category, entry.Hours)
		}
	}

	return summary
}

func overtimeOf(r Record) (OvertimeEntry, bool) {
	var (
		entry OvertimeEntry
		ok    bool
	)
	if r.Overtime != nil {
		entry, ok = *r.Overtime, true
	} else {
		entry, ok = ParseOvertimeNote(r.Notes)
	}
	if !ok || !entry.Category.Valid() || entry.Hours.IsNegative() {
		return OvertimeEntry{}, false
	}
	return entry, true
}
