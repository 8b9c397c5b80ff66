/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Request types carry
  go-playground/validator tags and are checked in decodeJSON before a handler
  touches them. Payroll results and payments are returned as their domain
  types, which already carry JSON tags.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Employee:
    EmployeeDTO, CreateEmployeeRequest

  Attendance:
    AttendanceDTO, AttendanceRequest, OvertimeDTO

  Payments:
    CreatePaymentRequest, TransitionRequest, RunRequest

SEE ALSO:
  - handlers.go: Uses these types
  - payroll/orchestrator.go: Result, returned by the payroll endpoint
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	HireDate   string `json:"hire_date,omitempty"`
	BaseSalary string `json:"base_salary"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// CreateEmployeeRequest is the request to create or replace an employee.
type CreateEmployeeRequest struct {
	ID         string `json:"id" validate:"required"`
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"omitempty,email"`
	HireDate   string `json:"hire_date" validate:"omitempty,datetime=2006-01-02"`
	BaseSalary string `json:"base_salary" validate:"required,numeric"`
}

func toEmployeeDTO(e payroll.Employee) EmployeeDTO {
	dto := EmployeeDTO{
		ID:         string(e.ID),
		Name:       e.Name,
		Email:      e.Email,
		BaseSalary: e.BaseSalary.String(),
	}
	if !e.HireDate.IsZero() {
		dto.HireDate = e.HireDate.String()
	}
	if !e.CreatedAt.IsZero() {
		dto.CreatedAt = e.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// ATTENDANCE
// =============================================================================

// OvertimeDTO is the structured overtime annotation.
type OvertimeDTO struct {
	Category string `json:"category" validate:"required,oneof=weekday weekend holiday"`
	Hours    string `json:"hours" validate:"required,numeric"`
}

// AttendanceDTO represents an attendance record in API responses.
type AttendanceDTO struct {
	ID         string       `json:"id"`
	EmployeeID string       `json:"employee_id"`
	Date       string       `json:"date"`
	Status     string       `json:"status"`
	StatusName string       `json:"status_name"`
	Notes      string       `json:"notes,omitempty"`
	Overtime   *OvertimeDTO `json:"overtime,omitempty"`
}

// AttendanceRequest creates or replaces one record. Status accepts the
// single-letter code or the long name.
type AttendanceRequest struct {
	Date     string       `json:"date" validate:"required,datetime=2006-01-02"`
	Status   string       `json:"status" validate:"required"`
	Notes    string       `json:"notes"`
	Overtime *OvertimeDTO `json:"overtime"`
}

// toRecord converts the request; the result still needs Record.Validate.
func (req AttendanceRequest) toRecord(id generic.RecordID, employeeID generic.EmployeeID) (attendance.Record, error) {
	date, err := generic.ParseDate(req.Date)
	if err != nil {
		return attendance.Record{}, &generic.InvalidParameterError{Name: "date", Value: req.Date, Reason: err.Error()}
	}
	status, err := attendance.ParseStatus(req.Status)
	if err != nil {
		return attendance.Record{}, &generic.InvalidParameterError{Name: "status", Value: req.Status, Reason: err.Error()}
	}

	rec := attendance.Record{
		ID:         id,
		EmployeeID: employeeID,
		Date:       date,
		Status:     status,
		Notes:      req.Notes,
	}
	if req.Overtime != nil {
		hours, err := decimal.NewFromString(req.Overtime.Hours)
		if err != nil {
			return attendance.Record{}, &generic.InvalidParameterError{Name: "overtime.hours", Value: req.Overtime.Hours, Reason: "not a number"}
		}
		rec.Overtime = &attendance.OvertimeEntry{
			Category: attendance.OvertimeCategory(req.Overtime.Category),
			Hours:    hours,
		}
	}
	return rec, nil
}

func toAttendanceDTO(r attendance.Record) AttendanceDTO {
	dto := AttendanceDTO{
		ID:         string(r.ID),
		EmployeeID: string(r.EmployeeID),
		Date:       r.Date.String(),
		Status:     string(r.Status),
		StatusName: r.Status.Name(),
		Notes:      r.Notes,
	}
	if r.Overtime != nil {
		dto.Overtime = &OvertimeDTO{
			Category: string(r.Overtime.Category),
			Hours:    r.Overtime.Hours.String(),
		}
	}
	return dto
}

// =============================================================================
// PAYMENTS
// =============================================================================

// CreatePaymentRequest asks for a draft payment. An empty BaseSalary uses the
// employee's stored salary.
type CreatePaymentRequest struct {
	Year       int    `json:"year" validate:"required,min=1"`
	Month      int    `json:"month" validate:"required,min=1,max=12"`
	BaseSalary string `json:"base_salary" validate:"omitempty,numeric"`
}

// TransitionRequest moves a payment along its lifecycle.
type TransitionRequest struct {
	Status string `json:"status" validate:"required,oneof=draft submitted pending approved paid rejected"`
	Reason string `json:"reason"`
}

// RunRequest starts a payroll run for every salaried employee.
type RunRequest struct {
	Year  int `json:"year" validate:"required,min=1"`
	Month int `json:"month" validate:"required,min=1,max=12"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
