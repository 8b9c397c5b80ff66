// Package attendance holds daily attendance records and reduces them to the
// per-period summary payroll is computed from.
package attendance

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// STATUS - One code per employee per calendar date
// =============================================================================

type Status string

const (
	StatusFullDay  Status = "F"
	StatusHalfDay  Status = "H"
	StatusLeave    Status = "L"
	StatusSick     Status = "S"
	StatusAbsent   Status = "A"
	StatusHoliday  Status = "P" // public holiday
	StatusOvertime Status = "O"
)

var statusNames = map[Status]string{
	StatusFullDay:  "full_day",
	StatusHalfDay:  "half_day",
	StatusLeave:    "leave",
	StatusSick:     "sick",
	StatusAbsent:   "absent",
	StatusHoliday:  "holiday",
	StatusOvertime: "overtime",
}

// Statuses lists every valid status in display order.
func Statuses() []Status {
	return []Status{StatusFullDay, StatusHalfDay, StatusLeave, StatusSick, StatusAbsent, StatusHoliday, StatusOvertime}
}

func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

// Name is the long form, e.g. "half_day".
func (s Status) Name() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return string(s)
}

// ParseStatus accepts the single-letter code or the long name, any case.
func ParseStatus(raw string) (Status, error) {
	v := strings.TrimSpace(raw)
	if s := Status(strings.ToUpper(v)); s.Valid() {
		return s, nil
	}
	lower := strings.ToLower(v)
	for s, name := range statusNames {
		if lower == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown attendance status %q", raw)
}

// =============================================================================
// OVERTIME
// =============================================================================

type OvertimeCategory string

const (
	OvertimeWeekday OvertimeCategory = "weekday"
	OvertimeWeekend OvertimeCategory = "weekend"
	OvertimeHoliday OvertimeCategory = "holiday"
)

// OvertimeCategories lists the categories in the order notes are matched.
func OvertimeCategories() []OvertimeCategory {
	return []OvertimeCategory{OvertimeWeekday, OvertimeWeekend, OvertimeHoliday}
}

func (c OvertimeCategory) Valid() bool {
	switch c {
	case OvertimeWeekday, OvertimeWeekend, OvertimeHoliday:
		return true
	}
	return false
}

// OvertimeEntry is the structured form of an overtime annotation.
type OvertimeEntry struct {
	Category OvertimeCategory `json:"category"`
	Hours    decimal.Decimal  `json:"hours"`
}

// =============================================================================
// RECORD
// =============================================================================

// Record is one attendance entry. Overtime records carry their hours either
// in Overtime or, for rows written before it existed, encoded in Notes.
type Record struct {
	ID         generic.RecordID
	EmployeeID generic.EmployeeID
	Date       generic.TimePoint
	Status     Status
	Notes      string
	Overtime   *OvertimeEntry
}

// =============================================================================
// SUMMARY
// =============================================================================

// UnparsedOvertime identifies an overtime record that contributed no hours.
type UnparsedOvertime struct {
	RecordID generic.RecordID  `json:"record_id,omitempty"`
	Date     generic.TimePoint `json:"date"`
	Notes    string            `json:"notes"`
}

// Summary is the per-period reduction of an employee's attendance.
type Summary struct {
	FullDays   int `json:"full_day_count"`
	HalfDays   int `json:"half_day_count"`
	LeaveDays  int `json:"leave_count"`
	SickDays   int `json:"sick_count"`
	AbsentDays int `json:"absent_count"`
	Holidays   int `json:"holiday_count"`

	WeekdayOvertime generic.Amount `json:"-"`
	WeekendOvertime generic.Amount `json:"-"`
	HolidayOvertime generic.Amount `json:"-"`

	UnparsedOvertime []UnparsedOvertime `json:"unparsed_overtime,omitempty"`
}

// MarshalJSON flattens the hour amounts into plain decimal fields.
func (s Summary) MarshalJSON() ([]byte, error) {
	type summary Summary
	return json.Marshal(struct {
		summary
		WeekdayOvertimeHours decimal.Decimal `json:"weekday_overtime_hours"`
		WeekendOvertimeHours decimal.Decimal `json:"weekend_overtime_hours"`
		HolidayOvertimeHours decimal.Decimal `json:"holiday_overtime_hours"`
	}{
		summary:              summary(s),
		WeekdayOvertimeHours: s.WeekdayOvertime.Value,
		WeekendOvertimeHours: s.WeekendOvertime.Value,
		HolidayOvertimeHours: s.HolidayOvertime.Value,
	})
}

// NewSummary returns a summary with every count and hour total at zero.
func NewSummary() Summary {
	zero := generic.NewAmountFromInt(0, generic.UnitHours)
	return Summary{
		WeekdayOvertime: zero,
		WeekendOvertime: zero,
		HolidayOvertime: zero,
	}
}

// CountedDays is the number of dates that carried a day status.
func (s Summary) CountedDays() int {
	return s.FullDays + s.HalfDays + s.LeaveDays + s.SickDays + s.AbsentDays + s.Holidays
}

// OvertimeHours returns the hours accumulated for a category.
func (s Summary) OvertimeHours(c OvertimeCategory) generic.Amount {
	switch c {
	case OvertimeWeekday:
		return s.WeekdayOvertime
	case OvertimeWeekend:
		return s.WeekendOvertime
	case OvertimeHoliday:
		return s.HolidayOvertime
	}
	return generic.NewAmountFromInt(0, generic.UnitHours)
}

// TotalOvertime sums all three categories.
func (s Summary) TotalOvertime() generic.Amount {
	return s.WeekdayOvertime.Add(s.WeekendOvertime).Add(s.HolidayOvertime)
}

func (s *Summary) addOvertime(c OvertimeCategory, hours decimal.Decimal) {
	h := generic.NewAmountFromDecimal(hours, generic.UnitHours)
	switch c {
	case OvertimeWeekday:
		s.WeekdayOvertime = s.WeekdayOvertime.Add(h)
	case OvertimeWeekend:
		s.WeekendOvertime = s.WeekendOvertime.Add(h)
	case OvertimeHoliday:
		s.HolidayOvertime = s.HolidayOvertime.Add(h)
	}
}
