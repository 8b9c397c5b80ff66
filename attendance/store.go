/*
store.go - Persistence interfaces for attendance records

PURPOSE:
  Payroll only needs to read a range of records for one employee (Store).
  The HTTP layer and the CLI also write them (RecordStore).

UNIQUENESS:
  One record per employee per calendar date. CreateAttendance rejects a
  second one with generic.ErrDuplicateAttendance; ImportAttendance replaces
  the existing record for that date instead.

IMPLEMENTATIONS:
  - store/memory: In-memory, for tests and the CLI
  - store/sqlite: SQLite (UNIQUE(employee_id, date))
  - store/postgres: PostgreSQL through GORM

SEE ALSO:
  - payroll/orchestrator.go: The only reader on the payroll path
*/
package attendance

import (
	"context"

	"github.com/warp/payroll-engine/generic"
)

// Store is the attendance query capability payroll depends on.
type Store interface {
	// FetchAttendance returns the employee's records dated within [from, to],
	// ordered by date.
	FetchAttendance(ctx context.Context, employeeID generic.EmployeeID, from, to generic.TimePoint) ([]Record, error)
}

// RecordStore extends Store with writes.
type RecordStore interface {
	Store

	// CreateAttendance inserts a record. Fails with ErrDuplicateAttendance
	// if the employee already has one for the date.
	CreateAttendance(ctx context.Context, r Record) error

	// UpdateAttendance replaces the record with the same ID.
	UpdateAttendance(ctx context.Context, r Record) error

	// GetAttendance returns ErrAttendanceNotFound for unknown IDs.
	GetAttendance(ctx context.Context, id generic.RecordID) (*Record, error)

	DeleteAttendance(ctx context.Context, id generic.RecordID) error

	// ImportAttendance upserts on (employee, date). All or nothing.
	ImportAttendance(ctx context.Context, records []Record) error
}
