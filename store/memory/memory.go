// Package memory provides an in-memory implementation of the attendance and
// payroll storage interfaces, for tests, the CLI and local development.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

// Store implements attendance.RecordStore, payroll.EmployeeStore and
// payroll.PaymentStore.
type Store struct {
	mu        sync.RWMutex
	employees map[generic.EmployeeID]payroll.Employee
	records   map[generic.RecordID]attendance.Record
	byDay     map[dayKey]generic.RecordID
	payments  map[generic.PaymentID]payroll.Payment
}

type dayKey struct {
	EmployeeID generic.EmployeeID
	Date       string
}

func keyOf(r attendance.Record) dayKey {
	return dayKey{EmployeeID: r.EmployeeID, Date: r.Date.String()}
}

func New() *Store {
	s := &Store{}
	s.reset()
	return s
}

// Reset drops every employee, record and payment.
func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	return nil
}

func (s *Store) reset() {
	s.employees = make(map[generic.EmployeeID]payroll.Employee)
	s.records = make(map[generic.RecordID]attendance.Record)
	s.byDay = make(map[dayKey]generic.RecordID)
	s.payments = make(map[generic.PaymentID]payroll.Payment)
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Store) SaveEmployee(_ context.Context, emp payroll.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees[emp.ID] = emp
	return nil
}

func (s *Store) GetEmployee(_ context.Context, id generic.EmployeeID) (*payroll.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	emp, ok := s.employees[id]
	if !ok {
		return nil, generic.ErrEmployeeNotFound
	}
	return &emp, nil
}

// ListEmployees returns employees ordered by ID.
func (s *Store) ListEmployees(_ context.Context) ([]payroll.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]payroll.Employee, 0, len(s.employees))
	for _, emp := range s.employees {
		result = append(result, emp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// DeleteEmployee removes the employee and their attendance. Payments stay.
func (s *Store) DeleteEmployee(_ context.Context, id generic.EmployeeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.employees[id]; !ok {
		return generic.ErrEmployeeNotFound
	}
	delete(s.employees, id)
	for rid, r := range s.records {
		if r.EmployeeID == id {
			s.deleteRecordLocked(rid)
		}
	}
	return nil
}

// =============================================================================
// ATTENDANCE
// =============================================================================

// FetchAttendance returns the employee's records in [from, to] ordered by date.
func (s *Store) FetchAttendance(ctx context.Context, employeeID generic.EmployeeID, from, to generic.TimePoint) ([]attendance.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []attendance.Record
	for _, r := range s.records {
		if r.EmployeeID == employeeID && from.BeforeOrEqual(r.Date) && r.Date.BeforeOrEqual(to) {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

func (s *Store) CreateAttendance(_ context.Context, r attendance.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byDay[keyOf(r)]; taken {
		return generic.ErrDuplicateAttendance
	}
	s.putRecordLocked(r)
	return nil
}

func (s *Store) UpdateAttendance(_ context.Context, r attendance.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[r.ID]; !ok {
		return generic.ErrAttendanceNotFound
	}
	if other, taken := s.byDay[keyOf(r)]; taken && other != r.ID {
		return generic.ErrDuplicateAttendance
	}
	s.deleteRecordLocked(r.ID)
	s.putRecordLocked(r)
	return nil
}

func (s *Store) GetAttendance(_ context.Context, id generic.RecordID) (*attendance.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, generic.ErrAttendanceNotFound
	}
	return &r, nil
}

func (s *Store) DeleteAttendance(_ context.Context, id generic.RecordID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return generic.ErrAttendanceNotFound
	}
	s.deleteRecordLocked(id)
	return nil
}

// ImportAttendance upserts on (employee, date). Every record is validated
// before anything is written.
func (s *Store) ImportAttendance(_ context.Context, records []attendance.Record) error {
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		if existing, taken := s.byDay[keyOf(r)]; taken {
			r.ID = existing
			s.deleteRecordLocked(existing)
		}
		s.putRecordLocked(r)
	}
	return nil
}

func (s *Store) putRecordLocked(r attendance.Record) {
	s.records[r.ID] = r
	s.byDay[keyOf(r)] = r.ID
}

func (s *Store) deleteRecordLocked(id generic.RecordID) {
	if r, ok := s.records[id]; ok {
		delete(s.byDay, keyOf(r))
		delete(s.records, id)
	}
}

// =============================================================================
// PAYMENTS
// =============================================================================

// CreatePayment rejects a second live payment for the same employee and period.
func (s *Store) CreatePayment(_ context.Context, p payroll.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.payments[p.ID]; ok {
		return generic.ErrDuplicatePayment
	}
	if p.Status != payroll.PaymentRejected {
		for _, existing := range s.payments {
			if existing.Status != payroll.PaymentRejected &&
				existing.EmployeeID == p.EmployeeID &&
				existing.Period.Start.Equal(p.Period.Start) {
				return generic.ErrDuplicatePayment
			}
		}
	}
	s.payments[p.ID] = p
	return nil
}

// UpdatePayment replaces the payment if its stored status is still from.
func (s *Store) UpdatePayment(_ context.Context, p payroll.Payment, from payroll.PaymentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.payments[p.ID]
	if !ok {
		return generic.ErrPaymentNotFound
	}
	if current.Status != from {
		return &generic.TransitionError{PaymentID: p.ID, From: string(current.Status), To: string(p.Status)}
	}
	if p.Status != payroll.PaymentRejected {
		for _, existing := range s.payments {
			if existing.ID != p.ID &&
				existing.Status != payroll.PaymentRejected &&
				existing.EmployeeID == p.EmployeeID &&
				existing.Period.Start.Equal(p.Period.Start) {
				return generic.ErrDuplicatePayment
			}
		}
	}
	s.payments[p.ID] = p
	return nil
}

func (s *Store) GetPayment(_ context.Context, id generic.PaymentID) (*payroll.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payments[id]
	if !ok {
		return nil, generic.ErrPaymentNotFound
	}
	return &p, nil
}

// ListPayments returns matching payments ordered by period, then employee.
func (s *Store) ListPayments(_ context.Context, filter payroll.PaymentFilter) ([]payroll.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := []payroll.Payment{}
	for _, p := range s.payments {
		if filter.Matches(p) {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Period.Start.Equal(result[j].Period.Start) {
			return result[i].Period.Start.Before(result[j].Period.Start)
		}
		if result[i].EmployeeID != result[j].EmployeeID {
			return result[i].EmployeeID < result[j].EmployeeID
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}
