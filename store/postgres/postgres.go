/*
Package postgres provides a PostgreSQL implementation of the storage
interfaces through GORM.

PURPOSE:
  Same contract as store/sqlite, for deployments that already run
  PostgreSQL. The schema is created with AutoMigrate from the models in
  models.go.

INTERFACES IMPLEMENTED:
  attendance.RecordStore
  payroll.EmployeeStore
  payroll.PaymentStore

CONSTRAINTS:
  - idx_attendance_employee_date: UNIQUE(employee_id, date)
  - idx_payments_live: UNIQUE(employee_id, period_start) WHERE status <> 'rejected'
  Unique violations are translated by GORM (TranslateError) into
  gorm.ErrDuplicatedKey and mapped onto the generic sentinels.

USAGE:
  store, err := postgres.Open(dsn, postgres.Options{})
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - models.go: Row types and mapping
  - store/sqlite: SQLite implementation
*/
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Options tunes the connection.
type Options struct {
	// LogLevel is the GORM SQL log level; zero means silent.
	LogLevel logger.LogLevel
}

// Store implements all storage interfaces on PostgreSQL.
type Store struct {
	db *gorm.DB
}

// Open connects to dsn and migrates the schema.
func Open(dsn string, opts Options) (*Store, error) {
	level := opts.LogLevel
	if level == 0 {
		level = logger.Silent
	}

	db, err := gorm.Open(pgdriver.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	return New(db)
}

// New wraps an existing GORM handle and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&EmployeeModel{}, &AttendanceModel{}, &PaymentModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// =============================================================================
// EMPLOYEE STORE
// =============================================================================

func (s *Store) SaveEmployee(ctx context.Context, emp payroll.Employee) error {
	m := employeeToModel(emp)
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "email", "hire_date", "base_salary"}),
	}).Create(&m).Error
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

func (s *Store) GetEmployee(ctx context.Context, id generic.EmployeeID) (*payroll.Employee, error) {
	var m EmployeeModel
	err := s.db.WithContext(ctx).First(&m, "id = ?", string(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, generic.ErrEmployeeNotFound
	}
	if err != nil {
		return nil, err
	}
	emp := employeeFromModel(m)
	return &emp, nil
}

func (s *Store) ListEmployees(ctx context.Context) ([]payroll.Employee, error) {
	var models []EmployeeModel
	if err := s.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	employees := make([]payroll.Employee, 0, len(models))
	for _, m := range models {
		employees = append(employees, employeeFromModel(m))
	}
	return employees, nil
}

// DeleteEmployee removes the employee and their attendance. Payments stay.
func (s *Store) DeleteEmployee(ctx context.Context, id generic.EmployeeID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&EmployeeModel{}, "id = ?", string(id))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return generic.ErrEmployeeNotFound
		}
		return tx.Delete(&AttendanceModel{}, "employee_id = ?", string(id)).Error
	})
}

// =============================================================================
// ATTENDANCE STORE
// =============================================================================

func (s *Store) FetchAttendance(ctx context.Context, employeeID generic.EmployeeID, from, to generic.TimePoint) ([]attendance.Record, error) {
	var models []AttendanceModel
	err := s.db.WithContext(ctx).
		Where("employee_id = ? AND date BETWEEN ? AND ?", string(employeeID), from.Time, to.Time).
		Order("date").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance: %w", err)
	}
	records := make([]attendance.Record, 0, len(models))
	for _, m := range models {
		records = append(records, recordFromModel(m))
	}
	return records, nil
}

func (s *Store) CreateAttendance(ctx context.Context, r attendance.Record) error {
	m := recordToModel(r)
	err := s.db.WithContext(ctx).Create(&m).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return generic.ErrDuplicateAttendance
	}
	return err
}

func (s *Store) UpdateAttendance(ctx context.Context, r attendance.Record) error {
	m := recordToModel(r)
	res := s.db.WithContext(ctx).Model(&AttendanceModel{}).Where("id = ?", m.ID).Updates(map[string]any{
		"employee_id":       m.EmployeeID,
		"date":              m.Date,
		"status":            m.Status,
		"notes":             m.Notes,
		"overtime_category": m.OvertimeCategory,
		"overtime_hours":    m.OvertimeHours,
	})
	if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
		return generic.ErrDuplicateAttendance
	}
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return generic.ErrAttendanceNotFound
	}
	return nil
}

func (s *Store) GetAttendance(ctx context.Context, id generic.RecordID) (*attendance.Record, error) {
	var m AttendanceModel
	err := s.db.WithContext(ctx).First(&m, "id = ?", string(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, generic.ErrAttendanceNotFound
	}
	if err != nil {
		return nil, err
	}
	r := recordFromModel(m)
	return &r, nil
}

func (s *Store) DeleteAttendance(ctx context.Context, id generic.RecordID) error {
	res := s.db.WithContext(ctx).Delete(&AttendanceModel{}, "id = ?", string(id))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return generic.ErrAttendanceNotFound
	}
	return nil
}

// ImportAttendance upserts on (employee_id, date) in one transaction.
func (s *Store) ImportAttendance(ctx context.Context, records []attendance.Record) error {
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return err
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, r := range records {
			m := recordToModel(r)
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "employee_id"}, {Name: "date"}},
				DoUpdates: clause.AssignmentColumns([]string{"status", "notes", "overtime_category", "overtime_hours"}),
			}).Create(&m).Error
			if err != nil {
				return fmt.Errorf("failed to import attendance for %s on %s: %w", r.EmployeeID, r.Date, err)
			}
		}
		return nil
	})
}

// =============================================================================
// PAYMENT STORE
// =============================================================================

func (s *Store) CreatePayment(ctx context.Context, p payroll.Payment) error {
	m, err := paymentToModel(p)
	if err != nil {
		return fmt.Errorf("failed to encode breakdown: %w", err)
	}
	err = s.db.WithContext(ctx).Create(&m).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return generic.ErrDuplicatePayment
	}
	return err
}

// UpdatePayment writes the status fields only while the row still has status
// from.
func (s *Store) UpdatePayment(ctx context.Context, p payroll.Payment, from payroll.PaymentStatus) error {
	res := s.db.WithContext(ctx).Model(&PaymentModel{}).
		Where("id = ? AND status = ?", string(p.ID), string(from)).
		Updates(map[string]any{
			"status":           string(p.Status),
			"rejection_reason": p.RejectionReason,
			"updated_at":       p.UpdatedAt,
		})
	if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
		return generic.ErrDuplicatePayment
	}
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var current PaymentModel
	err := s.db.WithContext(ctx).Select("status").First(&current, "id = ?", string(p.ID)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return generic.ErrPaymentNotFound
	}
	if err != nil {
		return err
	}
	return &generic.TransitionError{PaymentID: p.ID, From: current.Status, To: string(p.Status)}
}

func (s *Store) GetPayment(ctx context.Context, id generic.PaymentID) (*payroll.Payment, error) {
	var m PaymentModel
	err := s.db.WithContext(ctx).First(&m, "id = ?", string(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, generic.ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	p, err := paymentFromModel(m)
	if err != nil {
		return nil, fmt.Errorf("failed to decode payment %s: %w", id, err)
	}
	return &p, nil
}

func (s *Store) ListPayments(ctx context.Context, filter payroll.PaymentFilter) ([]payroll.Payment, error) {
	q := s.db.WithContext(ctx).Model(&PaymentModel{})
	if filter.EmployeeID != "" {
		q = q.Where("employee_id = ?", string(filter.EmployeeID))
	}
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if filter.Period != nil {
		q = q.Where("period_start = ? AND period_end = ?", filter.Period.Start.Time, filter.Period.End.Time)
	}

	var models []PaymentModel
	if err := q.Order("period_start, employee_id, id").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	payments := make([]payroll.Payment, 0, len(models))
	for _, m := range models {
		p, err := paymentFromModel(m)
		if err != nil {
			return nil, fmt.Errorf("failed to decode payment %s: %w", m.ID, err)
		}
		payments = append(payments, p)
	}
	return payments, nil
}

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&PaymentModel{}, &AttendanceModel{}, &EmployeeModel{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
