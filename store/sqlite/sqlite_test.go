package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/sqlite"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func day(d int) generic.TimePoint {
	return generic.NewTimePoint(2025, time.March, d)
}

func record(id string, d int, status attendance.Status, notes string) attendance.Record {
	return attendance.Record{ID: generic.RecordID(id), EmployeeID: "emp-1", Date: day(d), Status: status, Notes: notes}
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestEmployees_SaveGetListDelete(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	emp := payroll.Employee{
		ID:         "emp-1",
		Name:       "Ari",
		Email:      "ari@example.com",
		HireDate:   generic.NewTimePoint(2023, time.June, 1),
		BaseSalary: decimal.RequireFromString("3150.75"),
	}
	require.NoError(t, store.SaveEmployee(ctx, emp))

	got, err := store.GetEmployee(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, "Ari", got.Name)
	assert.Equal(t, "2023-06-01", got.HireDate.String())
	assert.True(t, got.BaseSalary.Equal(emp.BaseSalary))

	// Saving again updates in place
	emp.BaseSalary = decimal.NewFromInt(3500)
	require.NoError(t, store.SaveEmployee(ctx, emp))
	list, err := store.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "3500", list[0].BaseSalary.String())

	require.NoError(t, store.DeleteEmployee(ctx, "emp-1"))
	_, err = store.GetEmployee(ctx, "emp-1")
	assert.ErrorIs(t, err, generic.ErrEmployeeNotFound)
	assert.ErrorIs(t, store.DeleteEmployee(ctx, "emp-1"), generic.ErrEmployeeNotFound)
}

// =============================================================================
// ATTENDANCE
// =============================================================================

func TestAttendance_FetchRange(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	require.NoError(t, store.CreateAttendance(ctx, record("r2", 15, attendance.StatusOvertime, "weekend:3")))
	require.NoError(t, store.CreateAttendance(ctx, record("r1", 1, attendance.StatusFullDay, "")))
	require.NoError(t, store.CreateAttendance(ctx, record("r3", 31, attendance.StatusHalfDay, "")))
	require.NoError(t, store.CreateAttendance(ctx, attendance.Record{
		ID: "r4", EmployeeID: "emp-1", Date: generic.NewTimePoint(2025, time.April, 1), Status: attendance.StatusFullDay,
	}))

	got, err := store.FetchAttendance(ctx, "emp-1", day(1), day(31))

	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, generic.RecordID("r1"), got[0].ID)
	assert.Equal(t, "weekend:3", got[1].Notes)
	assert.Nil(t, got[1].Overtime)
	assert.Equal(t, "2025-03-31", got[2].Date.String())
}

func TestAttendance_StructuredOvertime(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	r := record("r1", 8, attendance.StatusOvertime, "")
	r.Overtime = &attendance.OvertimeEntry{Category: attendance.OvertimeHoliday, Hours: decimal.RequireFromString("2.5")}
	require.NoError(t, store.CreateAttendance(ctx, r))

	got, err := store.GetAttendance(ctx, "r1")

	require.NoError(t, err)
	require.NotNil(t, got.Overtime)
	assert.Equal(t, attendance.OvertimeHoliday, got.Overtime.Category)
	assert.Equal(t, "2.5", got.Overtime.Hours.String())
}

func TestAttendance_OnePerDay(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.CreateAttendance(ctx, record("r1", 3, attendance.StatusFullDay, "")))
	require.NoError(t, store.CreateAttendance(ctx, record("r2", 4, attendance.StatusFullDay, "")))

	assert.ErrorIs(t, store.CreateAttendance(ctx, record("r3", 3, attendance.StatusSick, "")), generic.ErrDuplicateAttendance)
	assert.ErrorIs(t, store.UpdateAttendance(ctx, record("r2", 3, attendance.StatusSick, "")), generic.ErrDuplicateAttendance)
}

func TestAttendance_UpdateDelete(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.CreateAttendance(ctx, record("r1", 3, attendance.StatusFullDay, "")))

	require.NoError(t, store.UpdateAttendance(ctx, record("r1", 3, attendance.StatusLeave, "annual leave")))
	got, err := store.GetAttendance(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusLeave, got.Status)
	assert.Equal(t, "annual leave", got.Notes)

	require.NoError(t, store.DeleteAttendance(ctx, "r1"))
	_, err = store.GetAttendance(ctx, "r1")
	assert.ErrorIs(t, err, generic.ErrAttendanceNotFound)
	assert.ErrorIs(t, store.DeleteAttendance(ctx, "r1"), generic.ErrAttendanceNotFound)
	assert.ErrorIs(t, store.UpdateAttendance(ctx, record("r1", 3, attendance.StatusLeave, "")), generic.ErrAttendanceNotFound)
}

func TestAttendance_Import(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.CreateAttendance(ctx, record("r1", 3, attendance.StatusFullDay, "")))

	// WHEN: Importing over an existing date and a new one
	err := store.ImportAttendance(ctx, []attendance.Record{
		record("x1", 3, attendance.StatusSick, "flu"),
		record("x2", 4, attendance.StatusFullDay, ""),
	})
	require.NoError(t, err)

	// THEN: The existing row keeps its ID
	got, err := store.FetchAttendance(ctx, "emp-1", day(1), day(31))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, generic.RecordID("r1"), got[0].ID)
	assert.Equal(t, attendance.StatusSick, got[0].Status)
	assert.Equal(t, generic.RecordID("x2"), got[1].ID)

	// AND: An invalid batch writes nothing
	err = store.ImportAttendance(ctx, []attendance.Record{
		record("y1", 5, attendance.StatusFullDay, ""),
		record("y2", 6, attendance.Status("Z"), ""),
	})
	assert.ErrorIs(t, err, generic.ErrInvalidRecord)
	got, err = store.FetchAttendance(ctx, "emp-1", day(5), day(6))
	require.NoError(t, err)
	assert.Empty(t, got)
}

// =============================================================================
// PAYMENTS
// =============================================================================

func TestPayments_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	period, err := generic.MonthPeriod(2025, 3)
	require.NoError(t, err)
	now := time.Date(2025, 4, 1, 2, 0, 0, 0, time.UTC)

	b, err := payroll.Calculate(decimal.NewFromInt(3000), 30, decimal.NewFromInt(8), summaryOf(20, 2, "4"), payroll.DefaultRates())
	require.NoError(t, err)
	p := payroll.Payment{
		ID: "p1", EmployeeID: "emp-1", Period: period,
		BaseSalary: decimal.NewFromInt(3000), FullDays: 20, HalfDays: 2,
		Breakdown: b, Status: payroll.PaymentDraft, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, store.CreatePayment(ctx, p))

	// Round trip keeps the breakdown
	got, err := store.GetPayment(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "2175", got.Breakdown.NetAmount.String())
	assert.Equal(t, "12.5", got.Breakdown.HourlyRate.String())
	assert.Equal(t, "2025-03-31", got.Period.End.String())
	assert.True(t, now.Equal(got.CreatedAt))

	// A second live payment is refused
	dup := p
	dup.ID = "p2"
	assert.ErrorIs(t, store.CreatePayment(ctx, dup), generic.ErrDuplicatePayment)

	// Rejecting frees the period
	require.NoError(t, got.Transition(payroll.PaymentRejected, "recount", now.Add(time.Hour)))
	require.NoError(t, store.UpdatePayment(ctx, *got, payroll.PaymentDraft))
	require.NoError(t, store.CreatePayment(ctx, dup))

	rejected, err := store.ListPayments(ctx, payroll.PaymentFilter{Status: payroll.PaymentRejected})
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, "recount", rejected[0].RejectionReason)

	all, err := store.ListPayments(ctx, payroll.PaymentFilter{EmployeeID: "emp-1", Period: &period})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = store.GetPayment(ctx, "missing")
	assert.ErrorIs(t, err, generic.ErrPaymentNotFound)
	assert.ErrorIs(t, store.UpdatePayment(ctx, payroll.Payment{ID: "missing"}, payroll.PaymentDraft), generic.ErrPaymentNotFound)
}

func TestPayments_StaleTransitionRefused(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	period, err := generic.MonthPeriod(2025, 3)
	require.NoError(t, err)
	now := time.Date(2025, 4, 1, 2, 0, 0, 0, time.UTC)

	// GIVEN: An approved payment read twice
	require.NoError(t, store.CreatePayment(ctx, payroll.Payment{
		ID: "p1", EmployeeID: "emp-1", Period: period,
		Status: payroll.PaymentApproved, CreatedAt: now, UpdatedAt: now,
	}))
	a, err := store.GetPayment(ctx, "p1")
	require.NoError(t, err)
	b, err := store.GetPayment(ctx, "p1")
	require.NoError(t, err)

	// WHEN: The first copy is paid, then the stale copy is rejected
	require.NoError(t, a.Transition(payroll.PaymentPaid, "", now))
	require.NoError(t, store.UpdatePayment(ctx, *a, payroll.PaymentApproved))
	require.NoError(t, b.Transition(payroll.PaymentRejected, "duplicate", now))
	err = store.UpdatePayment(ctx, *b, payroll.PaymentApproved)

	// THEN: The stale write is refused and the payment stays paid
	var transErr *generic.TransitionError
	require.ErrorAs(t, err, &transErr)
	assert.Equal(t, "paid", transErr.From)
	assert.Equal(t, "rejected", transErr.To)
	assert.ErrorIs(t, err, generic.ErrInvalidTransition)

	got, err := store.GetPayment(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, payroll.PaymentPaid, got.Status)
	assert.Empty(t, got.RejectionReason)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.SaveEmployee(ctx, payroll.Employee{ID: "emp-1", Name: "Ari"}))
	require.NoError(t, store.CreateAttendance(ctx, record("r1", 3, attendance.StatusFullDay, "")))

	require.NoError(t, store.Reset(ctx))

	list, err := store.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	got, err := store.FetchAttendance(ctx, "emp-1", day(1), day(31))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func summaryOf(full, half int, weekdayHours string) attendance.Summary {
	s := attendance.NewSummary()
	s.FullDays = full
	s.HalfDays = half
	s.WeekdayOvertime = generic.NewAmountFromDecimal(decimal.RequireFromString(weekdayHours), generic.UnitHours)
	return s
}
