/*
calculator.go - Attendance summary to net salary

PURPOSE:
  The arithmetic kernel of payroll. Given a monthly base salary, the
  nominal working days and hours, an attendance summary and the overtime
  rate table, produce the itemized Breakdown.

ALGORITHM:
  hourlyRate      = baseSalary / (workingDays * dailyHours)
  pay(category)   = hourlyRate * hours(category) * rate(category)
  totalOvertime   = pay(weekday) + pay(weekend) + pay(holiday)
  workdayFraction = (fullDays + 0.5 * halfDays) / workingDays
  netAmount       = baseSalary * workdayFraction + totalOvertime

  Amounts multiply before they divide (baseSalary * hours * rate / totalHours,
  baseSalary * creditedDays / workingDays), so a month that divides evenly
  comes out exact. HourlyRate and WorkdayFraction are reported as divided.

WORKDAY FRACTION:
  Not clamped. Attendance that reports more days than the nominal
  working days yields a fraction above 1 and Overrun is set on the
  Breakdown. Whether that is a data-entry error or make-up days is for
  the caller to decide.

PRECONDITIONS (InvalidParameterError otherwise):
  baseSalary > 0, workingDays > 0, dailyHours > 0, every rate > 0,
  summary counts and hours >= 0.

PROPERTIES:
  - Pure and deterministic: identical inputs give identical Breakdowns.
  - No shared state: safe to call concurrently.

SEE ALSO:
  - attendance/aggregator.go: Produces the Summary
  - orchestrator.go: Calls Calculate with the injected Config
*/
package payroll

import (
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/generic"
)

var half = decimal.RequireFromString("0.5")

// Breakdown is the itemized result of Calculate.
type Breakdown struct {
	HourlyRate         decimal.Decimal `json:"hourly_rate"`
	WeekdayOvertimePay decimal.Decimal `json:"weekday_overtime_pay"`
	WeekendOvertimePay decimal.Decimal `json:"weekend_overtime_pay"`
	HolidayOvertimePay decimal.Decimal `json:"holiday_overtime_pay"`
	TotalOvertimePay   decimal.Decimal `json:"total_overtime_pay"`
	WorkdayFraction    decimal.Decimal `json:"workday_fraction"`
	NetAmount          decimal.Decimal `json:"net_amount"`

	// Overrun is set when WorkdayFraction exceeds 1.
	Overrun bool `json:"overrun"`
}

// OvertimePay returns the pay of one category.
func (b Breakdown) OvertimePay(c attendance.OvertimeCategory) decimal.Decimal {
	switch c {
	case attendance.OvertimeWeekday:
		return b.WeekdayOvertimePay
	case attendance.OvertimeWeekend:
		return b.WeekendOvertimePay
	case attendance.OvertimeHoliday:
		return b.HolidayOvertimePay
	}
	return decimal.Zero
}

// Calculate computes the Breakdown. See the file comment for the formula.
func Calculate(baseSalary decimal.Decimal, workingDays int, dailyHours decimal.Decimal, summary attendance.Summary, rates RateTable) (Breakdown, error) {
	if !baseSalary.IsPositive() {
		return Breakdown{}, &generic.InvalidParameterError{Name: "base_salary", Value: baseSalary, Reason: "must be positive"}
	}
	if workingDays <= 0 {
		return Breakdown{}, &generic.InvalidParameterError{Name: "working_days_in_period", Value: workingDays, Reason: "must be positive"}
	}
	if !dailyHours.IsPositive() {
		return Breakdown{}, &generic.InvalidParameterError{Name: "daily_hours", Value: dailyHours, Reason: "must be positive"}
	}
	if err := rates.Validate(); err != nil {
		return Breakdown{}, err
	}
	if err := validateSummary(summary); err != nil {
		return Breakdown{}, err
	}

	days := decimal.NewFromInt(int64(workingDays))
	totalHours := days.Mul(dailyHours)

	b := Breakdown{HourlyRate: baseSalary.Div(totalHours)}
	b.WeekdayOvertimePay = overtimePay(baseSalary, totalHours, summary, rates, attendance.OvertimeWeekday)
	b.WeekendOvertimePay = overtimePay(baseSalary, totalHours, summary, rates, attendance.OvertimeWeekend)
	b.HolidayOvertimePay = overtimePay(baseSalary, totalHours, summary, rates, attendance.OvertimeHoliday)
	b.TotalOvertimePay = b.WeekdayOvertimePay.Add(b.WeekendOvertimePay).Add(b.HolidayOvertimePay)

	credited := decimal.NewFromInt(int64(summary.FullDays)).Add(decimal.NewFromInt(int64(summary.HalfDays)).Mul(half))
	b.WorkdayFraction = credited.Div(days)
	b.Overrun = b.WorkdayFraction.GreaterThan(decimal.NewFromInt(1))

	b.NetAmount = baseSalary.Mul(credited).Div(days).Add(b.TotalOvertimePay)
	return b, nil
}

func overtimePay(baseSalary, totalHours decimal.Decimal, s attendance.Summary, rates RateTable, c attendance.OvertimeCategory) decimal.Decimal {
	return baseSalary.Mul(s.OvertimeHours(c).Value).Mul(rates.For(c)).Div(totalHours)
}

func validateSummary(s attendance.Summary) error {
	counts := []struct {
		name string
		n    int
	}{
		{"full_day_count", s.FullDays},
		{"half_day_count", s.HalfDays},
		{"leave_count", s.LeaveDays},
		{"sick_count", s.SickDays},
		{"absent_count", s.AbsentDays},
		{"holiday_count", s.Holidays},
	}
	for _, c := range counts {
		if c.n < 0 {
			return &generic.InvalidParameterError{Name: c.name, Value: c.n, Reason: "must not be negative"}
		}
	}
	for _, c := range attendance.OvertimeCategories() {
		if h := s.OvertimeHours(c); h.IsNegative() {
			return &generic.InvalidParameterError{Name: string(c) + "_overtime_hours", Value: h.Value, Reason: "must not be negative"}
		}
	}
	return nil
}
