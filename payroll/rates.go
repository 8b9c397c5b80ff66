// Package payroll turns an attendance summary into a net salary amount and
// manages the salary payment records built from it.
package payroll

import (
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// OVERTIME RATE TABLE
// =============================================================================

// RateTable maps each overtime category to the multiplier applied to the
// hourly rate.
type RateTable struct {
	Weekday decimal.Decimal `json:"weekday"`
	Weekend decimal.Decimal `json:"weekend"`
	Holiday decimal.Decimal `json:"holiday"`
}

// DefaultRates is 1.5x on weekdays and 2x on weekends and holidays.
func DefaultRates() RateTable {
	return RateTable{
		Weekday: decimal.RequireFromString("1.5"),
		Weekend: decimal.NewFromInt(2),
		Holiday: decimal.NewFromInt(2),
	}
}

// For returns the multiplier of a category, zero for unknown categories.
func (t RateTable) For(c attendance.OvertimeCategory) decimal.Decimal {
	switch c {
	case attendance.OvertimeWeekday:
		return t.Weekday
	case attendance.OvertimeWeekend:
		return t.Weekend
	case attendance.OvertimeHoliday:
		return t.Holiday
	}
	return decimal.Zero
}

// Validate requires every multiplier to be positive.
func (t RateTable) Validate() error {
	for _, c := range attendance.OvertimeCategories() {
		if rate := t.For(c); !rate.IsPositive() {
			return &generic.InvalidParameterError{Name: string(c) + "_overtime_rate", Value: rate, Reason: "must be positive"}
		}
	}
	return nil
}
