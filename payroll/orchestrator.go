/*
orchestrator.go - Monthly payroll calculation for one employee

PURPOSE:
  Composes the pipeline: resolve the month's bounds, fetch the
  employee's attendance, aggregate it, calculate the salary.

FLOW:
  1. Validate inputs (baseSalary, Config)    -> InvalidParameterError
  2. generic.MonthPeriod(year, month)        -> InvalidParameterError
  3. Attendance.FetchAttendance(ctx, ...)    -> AttendanceFetchError
  4. attendance.Aggregate(records)
  5. Calculate(baseSalary, Config..., summary)

  Steps 1 and 2 run before any I/O. Step 3 is the only suspension point;
  cancellation and deadlines come from ctx. A failed fetch aborts the
  whole calculation: nothing is cached, nothing is retried.

CONCURRENCY:
  An Orchestrator holds no mutable state. One instance serves any number
  of concurrent calculations.

SEE ALSO:
  - calculator.go: The arithmetic
  - service.go: Persists results as salary payments
*/
package payroll

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/generic"
)

// Result is what CalculateForMonth returns: the attendance details and the
// calculated salary.
type Result struct {
	EmployeeID generic.EmployeeID `json:"employee_id"`
	Period     generic.Period     `json:"period"`
	BaseSalary decimal.Decimal    `json:"base_salary"`
	Attendance attendance.Summary `json:"attendance_details"`
	Salary     Breakdown          `json:"calculated_salary"`
}

// Orchestrator computes monthly payroll from stored attendance.
type Orchestrator struct {
	Attendance attendance.Store
	Config     Config
	Logger     *slog.Logger
}

// NewOrchestrator wires an attendance store and a payroll config.
// A nil logger falls back to slog.Default().
func NewOrchestrator(store attendance.Store, cfg Config, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{Attendance: store, Config: cfg, Logger: logger}
}

// CalculateForMonth runs the pipeline for one employee and month (1..12).
func (o *Orchestrator) CalculateForMonth(ctx context.Context, employeeID generic.EmployeeID, year, month int, baseSalary decimal.Decimal) (*Result, error) {
	if employeeID == "" {
		return nil, &generic.InvalidParameterError{Name: "employee_id", Value: employeeID, Reason: "required"}
	}
	if !baseSalary.IsPositive() {
		return nil, &generic.InvalidParameterError{Name: "base_salary", Value: baseSalary, Reason: "must be positive"}
	}
	if err := o.Config.Validate(); err != nil {
		return nil, err
	}
	period, err := generic.MonthPeriod(year, month)
	if err != nil {
		return nil, err
	}

	records, err := o.Attendance.FetchAttendance(ctx, employeeID, period.Start, period.End)
	if err != nil {
		return nil, &generic.AttendanceFetchError{EmployeeID: employeeID, Period: period, Err: err}
	}

	summary := attendance.Aggregate(records)
	if n := len(summary.UnparsedOvertime); n > 0 {
		o.logger().Debug("overtime records contributed no hours",
			"employee_id", employeeID, "period", period.Label(), "count", n)
	}

	breakdown, err := Calculate(baseSalary, o.Config.WorkingDaysInPeriod, o.Config.DailyHours, summary, o.Config.Rates)
	if err != nil {
		return nil, err
	}

	return &Result{
		EmployeeID: employeeID,
		Period:     period,
		BaseSalary: baseSalary,
		Attendance: summary,
		Salary:     breakdown,
	}, nil
}

func (o *Orchestrator) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}
