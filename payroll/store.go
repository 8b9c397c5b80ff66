package payroll

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// Employee is the part of an employee record payroll needs.
type Employee struct {
	ID         generic.EmployeeID `json:"id"`
	Name       string             `json:"name"`
	Email      string             `json:"email"`
	HireDate   generic.TimePoint  `json:"hire_date"`
	BaseSalary decimal.Decimal    `json:"base_salary"`
	CreatedAt  time.Time          `json:"created_at"`
}

// EmployeeStore persists employees. GetEmployee returns ErrEmployeeNotFound
// for unknown IDs.
type EmployeeStore interface {
	SaveEmployee(ctx context.Context, emp Employee) error
	GetEmployee(ctx context.Context, id generic.EmployeeID) (*Employee, error)
	ListEmployees(ctx context.Context) ([]Employee, error)
	DeleteEmployee(ctx context.Context, id generic.EmployeeID) error
}

// PaymentStore persists salary payments.
//
// At most one payment per employee and period may be live (any status other
// than rejected); CreatePayment returns ErrDuplicatePayment otherwise.
//
// UpdatePayment writes p only while the stored status is still from. A
// payment that moved on since it was read yields a *generic.TransitionError.
type PaymentStore interface {
	CreatePayment(ctx context.Context, p Payment) error
	UpdatePayment(ctx context.Context, p Payment, from PaymentStatus) error
	GetPayment(ctx context.Context, id generic.PaymentID) (*Payment, error)
	ListPayments(ctx context.Context, filter PaymentFilter) ([]Payment, error)
}

// PaymentFilter narrows ListPayments. Zero fields match everything.
type PaymentFilter struct {
	EmployeeID generic.EmployeeID
	Status     PaymentStatus
	Period     *generic.Period
}

// Matches reports whether p passes the filter.
func (f PaymentFilter) Matches(p Payment) bool {
	if f.EmployeeID != "" && p.EmployeeID != f.EmployeeID {
		return false
	}
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.Period != nil && !(p.Period.Start.Equal(f.Period.Start) && p.Period.End.Equal(f.Period.End)) {
		return false
	}
	return true
}
