package payroll

import (
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

const (
	DefaultWorkingDaysInPeriod = 30
	DefaultDailyHours          = 8
)

// Config holds the payroll assumptions injected into the Orchestrator.
// WorkingDaysInPeriod is a convention, independent of the calendar length of
// the month being paid.
type Config struct {
	WorkingDaysInPeriod int             `json:"working_days_in_period"`
	DailyHours          decimal.Decimal `json:"daily_hours"`
	Rates               RateTable       `json:"overtime_rates"`
}

// DefaultConfig is 30 working days, 8 hours a day and DefaultRates.
func DefaultConfig() Config {
	return Config{
		WorkingDaysInPeriod: DefaultWorkingDaysInPeriod,
		DailyHours:          decimal.NewFromInt(DefaultDailyHours),
		Rates:               DefaultRates(),
	}
}

func (c Config) Validate() error {
	if c.WorkingDaysInPeriod <= 0 {
		return &generic.InvalidParameterError{Name: "working_days_in_period", Value: c.WorkingDaysInPeriod, Reason: "must be positive"}
	}
	if !c.DailyHours.IsPositive() {
		return &generic.InvalidParameterError{Name: "daily_hours", Value: c.DailyHours, Reason: "must be positive"}
	}
	return c.Rates.Validate()
}
