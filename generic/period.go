package generic

import "time"

// =============================================================================
// PERIOD - Inclusive calendar range a payroll is computed for
// =============================================================================

// Period is the inclusive range [Start, End]. Attendance queries and salary
// payments are always bounded by one.
type Period struct {
	Start TimePoint `json:"start"`
	End   TimePoint `json:"end"`
}

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// NumDays is the number of calendar days in the period, both ends included.
func (p Period) NumDays() int {
	if p.End.Before(p.Start) {
		return 0
	}
	return DaysBetween(p.Start, p.End) + 1
}

// Days returns all days in the period as a slice of TimePoints.
func (p Period) Days() []TimePoint {
	days := make([]TimePoint, 0, p.NumDays())
	for current := p.Start; current.BeforeOrEqual(p.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

// Validate rejects periods whose end lies before their start.
func (p Period) Validate() error {
	if p.End.Before(p.Start) {
		return ErrInvalidPeriod
	}
	return nil
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// Label is the YYYY-MM form used by reports and payment listings.
func (p Period) Label() string {
	return p.Start.Time.Format("2006-01")
}

// =============================================================================
// PERIOD RESOLVER
// =============================================================================

// MonthPeriod resolves the calendar bounds of month in year: the first day
// and the last day, both inclusive. The number of days it spans has no
// influence on the working days used by payroll arithmetic.
func MonthPeriod(year, month int) (Period, error) {
	if month < 1 || month > 12 {
		return Period{}, &InvalidParameterError{Name: "month", Value: month, Reason: "must be between 1 and 12"}
	}
	if year < 1 || year > 9999 {
		return Period{}, &InvalidParameterError{Name: "year", Value: year, Reason: "must be between 1 and 9999"}
	}
	m := time.Month(month)
	return Period{Start: StartOfMonth(year, m), End: EndOfMonth(year, m)}, nil
}

// PreviousMonth returns the year/month immediately before the month of t.
func PreviousMonth(t TimePoint) (int, int) {
	prev := StartOfMonth(t.Year(), t.Month()).AddMonths(-1)
	return prev.Year(), int(prev.Month())
}
