/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements every persistence interface the payroll engine needs using
  SQLite. The postgres package implements the same interfaces through GORM.

INTERFACES IMPLEMENTED:
  attendance.RecordStore: Daily attendance records
  payroll.EmployeeStore:  Employees and their base salary
  payroll.PaymentStore:   Salary payments

KEY TABLES:
  employees:       Employee records with base_salary
  attendance:      One row per employee per calendar date
  salary_payments: Calculated salaries and their lifecycle status

CONSTRAINTS:
  - UNIQUE(employee_id, date) on attendance: one status per day
  - idx_payments_live: one non-rejected payment per employee and period

DATES AND MONEY:
  Dates are stored as TEXT "2006-01-02", so range queries compare
  lexicographically. Decimals are stored as TEXT and parsed with
  shopspring/decimal; they never pass through float64.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In-memory databases are limited to a
  single connection because every new connection would see an empty
  database.

USAGE:
  store, err := sqlite.New("./data/payroll.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  orchestrator := payroll.NewOrchestrator(store, cfg, logger)

SEE ALSO:
  - attendance/store.go, payroll/store.go: Interface definitions
  - store/memory: In-memory implementation for testing
  - store/postgres: PostgreSQL implementation
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Employees
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		hire_date TEXT,
		base_salary TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL
	);

	-- Attendance (one status per employee per day)
	CREATE TABLE IF NOT EXISTS attendance (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		status TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		overtime_category TEXT,
		overtime_hours TEXT,
		created_at TEXT NOT NULL,
		UNIQUE(employee_id, date)
	);

	-- Hot path: one employee's month
	CREATE INDEX IF NOT EXISTS idx_attendance_employee_date
		ON attendance(employee_id, date);

	-- Salary payments
	CREATE TABLE IF NOT EXISTS salary_payments (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		base_salary TEXT NOT NULL,
		full_day_count INTEGER NOT NULL,
		half_day_count INTEGER NOT NULL,
		net_amount TEXT NOT NULL,
		breakdown_json TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'draft',
		rejection_reason TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- At most one live payment per employee and period
	CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_live
		ON salary_payments(employee_id, period_start)
		WHERE status != 'rejected';

	CREATE INDEX IF NOT EXISTS idx_payments_status
		ON salary_payments(status);
	`

	_, err := s.db.Exec(schema)
	return err
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// EMPLOYEE STORE (payroll.EmployeeStore interface)
// =============================================================================

// SaveEmployee inserts or updates an employee.
func (s *Store) SaveEmployee(ctx context.Context, emp payroll.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := emp.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
		INSERT INTO employees (id, name, email, hire_date, base_salary, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			hire_date = excluded.hire_date,
			base_salary = excluded.base_salary
	`

	_, err := s.db.ExecContext(ctx, query,
		emp.ID, emp.Name, emp.Email,
		formatDate(emp.HireDate),
		emp.BaseSalary.String(),
		createdAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

// GetEmployee retrieves an employee by ID.
func (s *Store) GetEmployee(ctx context.Context, id generic.EmployeeID) (*payroll.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, hire_date, base_salary, created_at FROM employees WHERE id = ?",
		id,
	)
	emp, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, generic.ErrEmployeeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

// ListEmployees returns all employees ordered by ID.
func (s *Store) ListEmployees(ctx context.Context) ([]payroll.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, email, hire_date, base_salary, created_at FROM employees ORDER BY id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	employees := []payroll.Employee{}
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

// DeleteEmployee removes an employee and their attendance. Payments are
// kept as the audit trail.
func (s *Store) DeleteEmployee(ctx context.Context, id generic.EmployeeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM employees WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return generic.ErrEmployeeNotFound
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM attendance WHERE employee_id = ?", id); err != nil {
		return err
	}
	return tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row scanner) (payroll.Employee, error) {
	var (
		emp       payroll.Employee
		email     sql.NullString
		hireDate  sql.NullString
		salary    string
		createdAt string
	)
	if err := row.Scan(&emp.ID, &emp.Name, &email, &hireDate, &salary, &createdAt); err != nil {
		return emp, err
	}
	emp.Email = email.String
	emp.HireDate = parseDate(hireDate.String)
	emp.BaseSalary = parseDecimal(salary)
	emp.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return emp, nil
}

// =============================================================================
// ATTENDANCE STORE (attendance.RecordStore interface)
// =============================================================================

const attendanceColumns = "id, employee_id, date, status, notes, overtime_category, overtime_hours"

// FetchAttendance returns an employee's records within [from, to] by date.
func (s *Store) FetchAttendance(ctx context.Context, employeeID generic.EmployeeID, from, to generic.TimePoint) ([]attendance.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance
		WHERE employee_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`
	rows, err := s.db.QueryContext(ctx, query, employeeID, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance: %w", err)
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// CreateAttendance inserts a record.
func (s *Store) CreateAttendance(ctx context.Context, r attendance.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO attendance (` + attendanceColumns + `, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	err := execRecord(ctx, s.db, query, r)
	if isUniqueConstraintError(err) {
		return generic.ErrDuplicateAttendance
	}
	if err != nil {
		return fmt.Errorf("failed to create attendance: %w", err)
	}
	return nil
}

// UpdateAttendance replaces the record with the same ID.
func (s *Store) UpdateAttendance(ctx context.Context, r attendance.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	category, hours := overtimeColumns(r)
	res, err := s.db.ExecContext(ctx, `
		UPDATE attendance
		SET employee_id = ?, date = ?, status = ?, notes = ?, overtime_category = ?, overtime_hours = ?
		WHERE id = ?
	`, r.EmployeeID, r.Date.String(), string(r.Status), r.Notes, category, hours, r.ID)
	if isUniqueConstraintError(err) {
		return generic.ErrDuplicateAttendance
	}
	if err != nil {
		return fmt.Errorf("failed to update attendance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return generic.ErrAttendanceNotFound
	}
	return nil
}

// GetAttendance retrieves a record by ID.
func (s *Store) GetAttendance(ctx context.Context, id generic.RecordID) (*attendance.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+attendanceColumns+" FROM attendance WHERE id = ?", id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, generic.ErrAttendanceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// DeleteAttendance removes a record.
func (s *Store) DeleteAttendance(ctx context.Context, id generic.RecordID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM attendance WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return generic.ErrAttendanceNotFound
	}
	return nil
}

// ImportAttendance upserts records on (employee_id, date) in one
// transaction. The existing row keeps its ID.
func (s *Store) ImportAttendance(ctx context.Context, records []attendance.Record) error {
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO attendance (` + attendanceColumns + `, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, date) DO UPDATE SET
			status = excluded.status,
			notes = excluded.notes,
			overtime_category = excluded.overtime_category,
			overtime_hours = excluded.overtime_hours
	`
	for _, r := range records {
		if err := execRecord(ctx, tx, query, r); err != nil {
			return fmt.Errorf("failed to import attendance for %s on %s: %w", r.EmployeeID, r.Date, err)
		}
	}
	return tx.Commit()
}

func execRecord(ctx context.Context, db execer, query string, r attendance.Record) error {
	category, hours := overtimeColumns(r)
	_, err := db.ExecContext(ctx, query,
		r.ID, r.EmployeeID, r.Date.String(), string(r.Status), r.Notes,
		category, hours,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

func overtimeColumns(r attendance.Record) (sql.NullString, sql.NullString) {
	if r.Overtime == nil {
		return sql.NullString{}, sql.NullString{}
	}
	return nullString(string(r.Overtime.Category)), nullString(r.Overtime.Hours.String())
}

func scanRecord(row scanner) (attendance.Record, error) {
	var (
		r        attendance.Record
		date     string
		status   string
		category sql.NullString
		hours    sql.NullString
	)
	if err := row.Scan(&r.ID, &r.EmployeeID, &date, &status, &r.Notes, &category, &hours); err != nil {
		return r, fmt.Errorf("failed to scan attendance: %w", err)
	}
	r.Date = parseDate(date)
	r.Status = attendance.Status(status)
	if category.Valid {
		r.Overtime = &attendance.OvertimeEntry{
			Category: attendance.OvertimeCategory(category.String),
			Hours:    parseDecimal(hours.String),
		}
	}
	return r, nil
}

// =============================================================================
// PAYMENT STORE (payroll.PaymentStore interface)
// =============================================================================

const paymentColumns = `id, employee_id, period_start, period_end, base_salary, full_day_count,
	half_day_count, net_amount, breakdown_json, status, rejection_reason, created_at, updated_at`

// CreatePayment inserts a payment. A second live payment for the same
// employee and period violates idx_payments_live.
func (s *Store) CreatePayment(ctx context.Context, p payroll.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	breakdown, err := json.Marshal(p.Breakdown)
	if err != nil {
		return fmt.Errorf("failed to encode breakdown: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO salary_payments (`+paymentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID, p.EmployeeID, p.Period.Start.String(), p.Period.End.String(),
		p.BaseSalary.String(), p.FullDays, p.HalfDays,
		p.Breakdown.NetAmount.String(), string(breakdown),
		string(p.Status), nullString(p.RejectionReason),
		p.CreatedAt.UTC().Format(time.RFC3339Nano), p.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if isUniqueConstraintError(err) {
		return generic.ErrDuplicatePayment
	}
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// UpdatePayment stores the payment's status fields if the stored status is
// still from.
func (s *Store) UpdatePayment(ctx context.Context, p payroll.Payment, from payroll.PaymentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE salary_payments
		SET status = ?, rejection_reason = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`, string(p.Status), nullString(p.RejectionReason), p.UpdatedAt.UTC().Format(time.RFC3339Nano), p.ID, string(from))
	if isUniqueConstraintError(err) {
		return generic.ErrDuplicatePayment
	}
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	var current string
	err = s.db.QueryRowContext(ctx, "SELECT status FROM salary_payments WHERE id = ?", p.ID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return generic.ErrPaymentNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read payment status: %w", err)
	}
	return &generic.TransitionError{PaymentID: p.ID, From: current, To: string(p.Status)}
}

// GetPayment retrieves a payment by ID.
func (s *Store) GetPayment(ctx context.Context, id generic.PaymentID) (*payroll.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+paymentColumns+" FROM salary_payments WHERE id = ?", id)
	p, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, generic.ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPayments returns payments matching the filter, by period then employee.
func (s *Store) ListPayments(ctx context.Context, filter payroll.PaymentFilter) ([]payroll.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		where []string
		args  []any
	)
	if filter.EmployeeID != "" {
		where = append(where, "employee_id = ?")
		args = append(args, filter.EmployeeID)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Period != nil {
		where = append(where, "period_start = ? AND period_end = ?")
		args = append(args, filter.Period.Start.String(), filter.Period.End.String())
	}

	query := "SELECT " + paymentColumns + " FROM salary_payments"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY period_start ASC, employee_id ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	payments := []payroll.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func scanPayment(row scanner) (payroll.Payment, error) {
	var (
		p          payroll.Payment
		start, end string
		baseSalary string
		netAmount  string
		breakdown  string
		status     string
		reason     sql.NullString
		createdAt  string
		updatedAt  string
	)
	err := row.Scan(
		&p.ID, &p.EmployeeID, &start, &end, &baseSalary, &p.FullDays,
		&p.HalfDays, &netAmount, &breakdown, &status, &reason, &createdAt, &updatedAt,
	)
	if err != nil {
		return p, err
	}

	p.Period = generic.Period{Start: parseDate(start), End: parseDate(end)}
	p.BaseSalary = parseDecimal(baseSalary)
	if err := json.Unmarshal([]byte(breakdown), &p.Breakdown); err != nil {
		return p, fmt.Errorf("failed to decode breakdown of payment %s: %w", p.ID, err)
	}
	p.Breakdown.NetAmount = parseDecimal(netAmount)
	p.Status = payroll.PaymentStatus(status)
	p.RejectionReason = reason.String
	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return p, nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"salary_payments", "attendance", "employees"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func formatDate(tp generic.TimePoint) sql.NullString {
	if tp.IsZero() {
		return sql.NullString{}
	}
	return nullString(tp.String())
}

func parseDate(s string) generic.TimePoint {
	if s == "" {
		return generic.TimePoint{}
	}
	tp, _ := generic.ParseDate(s)
	return tp
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
