package payroll

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// PAYMENT STATUS - Draft -> Submitted -> Pending -> Approved -> Paid
// =============================================================================

type PaymentStatus string

const (
	PaymentDraft     PaymentStatus = "draft"
	PaymentSubmitted PaymentStatus = "submitted"
	PaymentPending   PaymentStatus = "pending"
	PaymentApproved  PaymentStatus = "approved"
	PaymentPaid      PaymentStatus = "paid"
	PaymentRejected  PaymentStatus = "rejected"
)

// Rejected is reachable from every status before Paid.
var transitions = map[PaymentStatus][]PaymentStatus{
	PaymentDraft:     {PaymentSubmitted, PaymentRejected},
	PaymentSubmitted: {PaymentPending, PaymentRejected},
	PaymentPending:   {PaymentApproved, PaymentRejected},
	PaymentApproved:  {PaymentPaid, PaymentRejected},
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentDraft, PaymentSubmitted, PaymentPending, PaymentApproved, PaymentPaid, PaymentRejected:
		return true
	}
	return false
}

// IsTerminal is true for paid and rejected.
func (s PaymentStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}

func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// =============================================================================
// PAYMENT
// =============================================================================

// Payment is a salary payment record populated from a payroll Result.
type Payment struct {
	ID              generic.PaymentID  `json:"id"`
	EmployeeID      generic.EmployeeID `json:"employee_id"`
	Period          generic.Period     `json:"period"`
	BaseSalary      decimal.Decimal    `json:"base_salary"`
	FullDays        int                `json:"full_day_count"`
	HalfDays        int                `json:"half_day_count"`
	Breakdown       Breakdown          `json:"breakdown"`
	Status          PaymentStatus      `json:"status"`
	RejectionReason string             `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// NewPaymentID returns a fresh random payment identifier.
func NewPaymentID() generic.PaymentID {
	return generic.PaymentID(uuid.NewString())
}

// NewDraftPayment builds a draft payment from a calculation result.
func NewDraftPayment(id generic.PaymentID, res *Result, now time.Time) Payment {
	return Payment{
		ID:         id,
		EmployeeID: res.EmployeeID,
		Period:     res.Period,
		BaseSalary: res.BaseSalary,
		FullDays:   res.Attendance.FullDays,
		HalfDays:   res.Attendance.HalfDays,
		Breakdown:  res.Salary,
		Status:     PaymentDraft,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Transition moves the payment to status to. Rejection needs a reason.
func (p *Payment) Transition(to PaymentStatus, reason string, now time.Time) error {
	if !to.Valid() || !p.Status.CanTransitionTo(to) {
		return &generic.TransitionError{PaymentID: p.ID, From: string(p.Status), To: string(to)}
	}
	if to == PaymentRejected {
		if reason == "" {
			return &generic.InvalidParameterError{Name: "reason", Value: reason, Reason: "required when rejecting"}
		}
		p.RejectionReason = reason
	}
	p.Status = to
	p.UpdatedAt = now
	return nil
}
