/*
errors.go - Centralized error types for the payroll engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages return these (or wrap them) so the HTTP layer can map
  any failure to a status code with errors.Is / errors.As.

ERROR CATEGORIES:
  1. Parameter errors - Non-positive salary, working days, hours, rates,
     month outside 1..12. Raised before any I/O.
  2. Fetch errors - The attendance store failed or timed out.
  3. Store errors - Missing rows, uniqueness violations.
  4. Lifecycle errors - Illegal salary payment transitions.

MALFORMED OVERTIME NOTES:
  Not an error. An unparsable overtime annotation contributes zero hours
  and is listed in attendance.Summary.UnparsedOvertime.

USAGE:
  if errors.Is(err, generic.ErrInvalidParameter) {
      // 400
  }

  var fetchErr *generic.AttendanceFetchError
  if errors.As(err, &fetchErr) {
      // fetchErr.Err is the store's original error
  }

SEE ALSO:
  - payroll/calculator.go: Raises InvalidParameterError
  - payroll/orchestrator.go: Raises AttendanceFetchError
  - api/handlers.go: Maps errors to HTTP status
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidParameter is returned when a calculation input is out of range.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrAttendanceFetchFailed is returned when the attendance store call fails.
	ErrAttendanceFetchFailed = errors.New("attendance fetch failed")

	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrEmployeeNotFound is returned when a referenced employee doesn't exist.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrAttendanceNotFound is returned when an attendance record doesn't exist.
	ErrAttendanceNotFound = errors.New("attendance record not found")

	// ErrPaymentNotFound is returned when a salary payment doesn't exist.
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrDuplicateAttendance is returned when an employee already has a
	// status recorded for the date.
	ErrDuplicateAttendance = errors.New("attendance already recorded for date")

	// ErrDuplicatePayment is returned when a live payment already exists for
	// the employee and period.
	ErrDuplicatePayment = errors.New("payment already exists for period")

	// ErrInvalidTransition is returned when a payment cannot move to a status.
	ErrInvalidTransition = errors.New("invalid payment status transition")

	// ErrInvalidRecord is returned when an attendance record fails validation.
	ErrInvalidRecord = errors.New("invalid attendance record")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidParameterError names the offending input.
type InvalidParameterError struct {
	Name   string
	Value  any
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s=%v: %s", e.Name, e.Value, e.Reason)
}

func (e *InvalidParameterError) Unwrap() error {
	return ErrInvalidParameter
}

// AttendanceFetchError wraps a store failure without hiding it: it matches
// both ErrAttendanceFetchFailed and the store's own error.
type AttendanceFetchError struct {
	EmployeeID EmployeeID
	Period     Period
	Err        error
}

func (e *AttendanceFetchError) Error() string {
	return fmt.Sprintf("fetch attendance for %s in %s: %v", e.EmployeeID, e.Period, e.Err)
}

func (e *AttendanceFetchError) Unwrap() []error {
	return []error{ErrAttendanceFetchFailed, e.Err}
}

// TransitionError reports an illegal payment status change.
type TransitionError struct {
	PaymentID PaymentID
	From      string
	To        string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("payment %s cannot move from %s to %s", e.PaymentID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// RecordError reports why an attendance record was rejected. Line is set
// when the record came from an import file.
type RecordError struct {
	Line   int
	Field  string
	Reason string
}

func (e *RecordError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %s", e.Line, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *RecordError) Unwrap() error {
	return ErrInvalidRecord
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidParameter) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrInvalidRecord)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrAttendanceNotFound) ||
		errors.Is(err, ErrPaymentNotFound)
}

// IsConflict returns true if the error is a uniqueness or lifecycle clash.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateAttendance) ||
		errors.Is(err, ErrDuplicatePayment) ||
		errors.Is(err, ErrInvalidTransition)
}
