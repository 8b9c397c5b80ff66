package attendance

import (
	"github.com/google/uuid"
	"github.com/warp/payroll-engine/generic"
)

// NewRecordID returns a fresh random record identifier.
func NewRecordID() generic.RecordID {
	return generic.RecordID(uuid.NewString())
}

// Validate checks a record before it is written. Legacy notes are not
// validated: a note that does not parse is reported by Aggregate instead.
func (r Record) Validate() error {
	if r.EmployeeID == "" {
		return &generic.RecordError{Field: "employee_id", Reason: "required"}
	}
	if r.Date.IsZero() {
		return &generic.RecordError{Field: "date", Reason: "required"}
	}
	if !r.Status.Valid() {
		return &generic.RecordError{Field: "status", Reason: "unknown status " + string(r.Status)}
	}
	if r.Overtime == nil {
		return nil
	}
	if r.Status != StatusOvertime {
		return &generic.RecordError{Field: "overtime", Reason: "only allowed on overtime records"}
	}
	if !r.Overtime.Category.Valid() {
		return &generic.RecordError{Field: "overtime.category", Reason: "unknown category " + string(r.Overtime.Category)}
	}
	if r.Overtime.Hours.IsNegative() {
		return &generic.RecordError{Field: "overtime.hours", Reason: "must not be negative"}
	}
	return nil
}
