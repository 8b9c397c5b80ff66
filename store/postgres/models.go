package postgres

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// MODELS - GORM row types
// =============================================================================

type EmployeeModel struct {
	ID         string          `gorm:"primaryKey;type:varchar(64)"`
	Name       string          `gorm:"not null"`
	Email      string          `gorm:"type:varchar(255)"`
	HireDate   *time.Time      `gorm:"type:date"`
	BaseSalary decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	CreatedAt  time.Time       `gorm:"autoCreateTime"`
}

func (EmployeeModel) TableName() string { return "employees" }

// AttendanceModel is one status per employee per day.
type AttendanceModel struct {
	ID               string           `gorm:"primaryKey;type:varchar(64)"`
	EmployeeID       string           `gorm:"type:varchar(64);not null;uniqueIndex:idx_attendance_employee_date"`
	Date             time.Time        `gorm:"type:date;not null;uniqueIndex:idx_attendance_employee_date"`
	Status           string           `gorm:"type:varchar(1);not null"`
	Notes            string           `gorm:"not null;default:''"`
	OvertimeCategory *string          `gorm:"type:varchar(16)"`
	OvertimeHours    *decimal.Decimal `gorm:"type:numeric(6,2)"`
	CreatedAt        time.Time        `gorm:"autoCreateTime"`
}

func (AttendanceModel) TableName() string { return "attendance" }

// PaymentModel is a salary payment. idx_payments_live allows one
// non-rejected payment per employee and period.
type PaymentModel struct {
	ID              string          `gorm:"primaryKey;type:varchar(64)"`
	EmployeeID      string          `gorm:"type:varchar(64);not null;index;uniqueIndex:idx_payments_live,where:status <> 'rejected'"`
	PeriodStart     time.Time       `gorm:"type:date;not null;uniqueIndex:idx_payments_live,where:status <> 'rejected'"`
	PeriodEnd       time.Time       `gorm:"type:date;not null"`
	BaseSalary      decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	FullDayCount    int             `gorm:"not null"`
	HalfDayCount    int             `gorm:"not null"`
	NetAmount       decimal.Decimal `gorm:"type:numeric(20,8);not null"`
	BreakdownJSON   string          `gorm:"column:breakdown_json;type:text;not null"`
	Status          string          `gorm:"type:varchar(16);not null;default:draft;index"`
	RejectionReason string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (PaymentModel) TableName() string { return "salary_payments" }

// =============================================================================
// MAPPING
// =============================================================================

func employeeToModel(e payroll.Employee) EmployeeModel {
	m := EmployeeModel{
		ID:         string(e.ID),
		Name:       e.Name,
		Email:      e.Email,
		BaseSalary: e.BaseSalary,
		CreatedAt:  e.CreatedAt,
	}
	if !e.HireDate.IsZero() {
		t := e.HireDate.Time
		m.HireDate = &t
	}
	return m
}

func employeeFromModel(m EmployeeModel) payroll.Employee {
	e := payroll.Employee{
		ID:         generic.EmployeeID(m.ID),
		Name:       m.Name,
		Email:      m.Email,
		BaseSalary: m.BaseSalary,
		CreatedAt:  m.CreatedAt,
	}
	if m.HireDate != nil {
		e.HireDate = generic.DateOf(*m.HireDate)
	}
	return e
}

func recordToModel(r attendance.Record) AttendanceModel {
	m := AttendanceModel{
		ID:         string(r.ID),
		EmployeeID: string(r.EmployeeID),
		Date:       r.Date.Time,
		Status:     string(r.Status),
		Notes:      r.Notes,
	}
	if r.Overtime != nil {
		category := string(r.Overtime.Category)
		hours := r.Overtime.Hours
		m.OvertimeCategory = &category
		m.OvertimeHours = &hours
	}
	return m
}

func recordFromModel(m AttendanceModel) attendance.Record {
	r := attendance.Record{
		ID:         generic.RecordID(m.ID),
		EmployeeID: generic.EmployeeID(m.EmployeeID),
		Date:       generic.DateOf(m.Date),
		Status:     attendance.Status(m.Status),
		Notes:      m.Notes,
	}
	if m.OvertimeCategory != nil {
		entry := attendance.OvertimeEntry{Category: attendance.OvertimeCategory(*m.OvertimeCategory)}
		if m.OvertimeHours != nil {
			entry.Hours = *m.OvertimeHours
		}
		r.Overtime = &entry
	}
	return r
}

func paymentToModel(p payroll.Payment) (PaymentModel, error) {
	breakdown, err := json.Marshal(p.Breakdown)
	if err != nil {
		return PaymentModel{}, err
	}
	return PaymentModel{
		ID:              string(p.ID),
		EmployeeID:      string(p.EmployeeID),
		PeriodStart:     p.Period.Start.Time,
		PeriodEnd:       p.Period.End.Time,
		BaseSalary:      p.BaseSalary,
		FullDayCount:    p.FullDays,
		HalfDayCount:    p.HalfDays,
		NetAmount:       p.Breakdown.NetAmount,
		BreakdownJSON:   string(breakdown),
		Status:          string(p.Status),
		RejectionReason: p.RejectionReason,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}, nil
}

func paymentFromModel(m PaymentModel) (payroll.Payment, error) {
	p := payroll.Payment{
		ID:              generic.PaymentID(m.ID),
		EmployeeID:      generic.EmployeeID(m.EmployeeID),
		Period:          generic.Period{Start: generic.DateOf(m.PeriodStart), End: generic.DateOf(m.PeriodEnd)},
		BaseSalary:      m.BaseSalary,
		FullDays:        m.FullDayCount,
		HalfDays:        m.HalfDayCount,
		Status:          payroll.PaymentStatus(m.Status),
		RejectionReason: m.RejectionReason,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	if err := json.Unmarshal([]byte(m.BreakdownJSON), &p.Breakdown); err != nil {
		return p, err
	}
	p.Breakdown.NetAmount = m.NetAmount
	return p, nil
}
