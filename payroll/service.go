/*
service.go - Salary payments built on top of the Orchestrator

PURPOSE:
  Everything around the calculation that touches persistence:
  - CreateDraft: calculate one employee's month and store a draft payment
  - RunMonth: do that for every salaried employee (the monthly payroll run)
  - TransitionPayment: move a stored payment through its lifecycle

PAYROLL RUN:
  - Employees with a non-positive base salary are skipped.
  - Employees that already have a live payment for the period are skipped,
    so a run can be repeated safely.
  - A failure for one employee is recorded in the report and the run goes
    on with the next one. Only listing employees aborts the run.

SEE ALSO:
  - orchestrator.go: The calculation
  - payment.go: Status lifecycle
  - jobs/scheduler.go: Triggers RunMonth on a cron schedule
*/
package payroll

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// Service persists payroll results as salary payments.
type Service struct {
	Orchestrator *Orchestrator
	Employees    EmployeeStore
	Payments     PaymentStore
	Logger       *slog.Logger

	// Overridable in tests.
	Now   func() time.Time
	NewID func() generic.PaymentID
}

// NewService creates a service with wall-clock time and random IDs.
func NewService(o *Orchestrator, employees EmployeeStore, payments PaymentStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		Orchestrator: o,
		Employees:    employees,
		Payments:     payments,
		Logger:       logger,
		Now:          func() time.Time { return time.Now().UTC() },
		NewID:        NewPaymentID,
	}
}

// RunReport summarizes a payroll run.
type RunReport struct {
	Period  generic.Period                `json:"period"`
	Created []generic.PaymentID           `json:"created"`
	Skipped []generic.EmployeeID          `json:"skipped"`
	Failed  map[generic.EmployeeID]string `json:"failed,omitempty"`
}

// CreateDraft calculates the month for one employee and stores a draft
// payment. A nil baseSalary means the employee's stored base salary; an
// explicit zero is rejected like any other non-positive salary.
func (s *Service) CreateDraft(ctx context.Context, employeeID generic.EmployeeID, year, month int, baseSalary *decimal.Decimal) (*Payment, error) {
	var salary decimal.Decimal
	if baseSalary != nil {
		salary = *baseSalary
	} else {
		emp, err := s.Employees.GetEmployee(ctx, employeeID)
		if err != nil {
			return nil, err
		}
		salary = emp.BaseSalary
	}

	res, err := s.Orchestrator.CalculateForMonth(ctx, employeeID, year, month, salary)
	if err != nil {
		return nil, err
	}

	payment := NewDraftPayment(s.NewID(), res, s.Now())
	if err := s.Payments.CreatePayment(ctx, payment); err != nil {
		return nil, err
	}

	s.Logger.Info("draft payment created",
		"payment_id", payment.ID, "employee_id", employeeID,
		"period", res.Period.Label(), "net_amount", payment.Breakdown.NetAmount.StringFixed(2))
	if res.Salary.Overrun {
		s.Logger.Warn("workday fraction exceeds 1",
			"payment_id", payment.ID, "employee_id", employeeID,
			"workday_fraction", res.Salary.WorkdayFraction.String())
	}
	return &payment, nil
}

// RunMonth creates draft payments for every salaried employee.
func (s *Service) RunMonth(ctx context.Context, year, month int) (*RunReport, error) {
	period, err := generic.MonthPeriod(year, month)
	if err != nil {
		return nil, err
	}

	employees, err := s.Employees.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}

	report := &RunReport{
		Period:  period,
		Created: []generic.PaymentID{},
		Skipped: []generic.EmployeeID{},
		Failed:  make(map[generic.EmployeeID]string),
	}

	for _, emp := range employees {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if !emp.BaseSalary.IsPositive() {
			report.Skipped = append(report.Skipped, emp.ID)
			continue
		}

		payment, err := s.CreateDraft(ctx, emp.ID, year, month, &emp.BaseSalary)
		switch {
		case errors.Is(err, generic.ErrDuplicatePayment):
			report.Skipped = append(report.Skipped, emp.ID)
		case err != nil:
			s.Logger.Error("payroll run failed for employee",
				"employee_id", emp.ID, "period", period.Label(), "error", err)
			report.Failed[emp.ID] = err.Error()
		default:
			report.Created = append(report.Created, payment.ID)
		}
	}

	s.Logger.Info("payroll run complete",
		"period", period.Label(),
		"created", len(report.Created),
		"skipped", len(report.Skipped),
		"failed", len(report.Failed))
	return report, nil
}

// TransitionPayment loads a payment, applies the transition and stores it.
func (s *Service) TransitionPayment(ctx context.Context, id generic.PaymentID, to PaymentStatus, reason string) (*Payment, error) {
	payment, err := s.Payments.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	from := payment.Status
	if err := payment.Transition(to, reason, s.Now()); err != nil {
		return nil, err
	}
	if err := s.Payments.UpdatePayment(ctx, *payment, from); err != nil {
		return nil, err
	}
	s.Logger.Info("payment status changed", "payment_id", id, "from", from, "to", to)
	return payment, nil
}
