package payroll_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/memory"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// failingFor wraps a store and fails fetches for one employee.
type failingFor struct {
	*memory.Store
	employee generic.EmployeeID
}

func (f failingFor) FetchAttendance(ctx context.Context, id generic.EmployeeID, from, to generic.TimePoint) ([]attendance.Record, error) {
	if id == f.employee {
		return nil, errors.New("replica lagging")
	}
	return f.Store.FetchAttendance(ctx, id, from, to)
}

func newService(t *testing.T, fetch attendance.Store, s *memory.Store) *payroll.Service {
	t.Helper()
	svc := payroll.NewService(payroll.NewOrchestrator(fetch, payroll.DefaultConfig(), quietLogger()), s, s, quietLogger())
	seq := 0
	svc.NewID = func() generic.PaymentID {
		seq++
		return generic.PaymentID(fmt.Sprintf("pay-%d", seq))
	}
	svc.Now = func() time.Time { return created }
	return svc
}

func seed(t *testing.T, s *memory.Store, id generic.EmployeeID, salary int64, fullDays int) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.SaveEmployee(ctx, payroll.Employee{ID: id, Name: string(id), BaseSalary: decimal.NewFromInt(salary)}))
	d := generic.NewTimePoint(2025, time.March, 1)
	for i := 0; i < fullDays; i++ {
		require.NoError(t, s.CreateAttendance(ctx, attendance.Record{
			ID:         generic.RecordID(fmt.Sprintf("%s-%d", id, i)),
			EmployeeID: id,
			Date:       d.AddDays(i),
			Status:     attendance.StatusFullDay,
		}))
	}
}

// =============================================================================
// CREATE DRAFT
// =============================================================================

func TestCreateDraft_UsesStoredSalary(t *testing.T) {
	s := memory.New()
	seed(t, s, "emp-1", 3000, 15)
	svc := newService(t, s, s)

	// WHEN: No base salary is given
	p, err := svc.CreateDraft(context.Background(), "emp-1", 2025, 3, nil)

	// THEN: The employee's salary is used and the draft is stored
	require.NoError(t, err)
	assertDecimal(t, "3000", p.BaseSalary, "base salary")
	assertDecimal(t, "1500", p.Breakdown.NetAmount, "net amount")
	assert.Equal(t, payroll.PaymentDraft, p.Status)

	stored, err := s.GetPayment(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Breakdown.NetAmount.String(), stored.Breakdown.NetAmount.String())
}

func TestCreateDraft_UnknownEmployee(t *testing.T) {
	s := memory.New()
	svc := newService(t, s, s)

	_, err := svc.CreateDraft(context.Background(), "ghost", 2025, 3, nil)

	assert.ErrorIs(t, err, generic.ErrEmployeeNotFound)
}

func TestCreateDraft_Duplicate(t *testing.T) {
	s := memory.New()
	seed(t, s, "emp-1", 3000, 15)
	svc := newService(t, s, s)
	ctx := context.Background()

	_, err := svc.CreateDraft(ctx, "emp-1", 2025, 3, nil)
	require.NoError(t, err)
	_, err = svc.CreateDraft(ctx, "emp-1", 2025, 3, nil)

	assert.ErrorIs(t, err, generic.ErrDuplicatePayment)
}

func TestCreateDraft_ExplicitZeroSalary_Rejected(t *testing.T) {
	s := memory.New()
	seed(t, s, "emp-1", 3000, 15)
	svc := newService(t, s, s)
	ctx := context.Background()

	// WHEN: A zero salary is passed instead of nil
	zero := decimal.Zero
	_, err := svc.CreateDraft(ctx, "emp-1", 2025, 3, &zero)

	// THEN: It is not replaced by the stored salary
	assert.ErrorIs(t, err, generic.ErrInvalidParameter)
	stored, err := s.ListPayments(ctx, payroll.PaymentFilter{EmployeeID: "emp-1"})
	require.NoError(t, err)
	assert.Empty(t, stored)
}

// =============================================================================
// RUN MONTH
// =============================================================================

func TestRunMonth_CreatesSkipsAndCollectsFailures(t *testing.T) {
	// GIVEN: Three salaried employees, one unsalaried, and a store that
	// fails for emp-3
	s := memory.New()
	seed(t, s, "emp-1", 3000, 30)
	seed(t, s, "emp-2", 6000, 15)
	seed(t, s, "emp-3", 3000, 10)
	seed(t, s, "emp-4", 0, 0)
	svc := newService(t, failingFor{Store: s, employee: "emp-3"}, s)

	// WHEN: Running March
	report, err := svc.RunMonth(context.Background(), 2025, 3)

	// THEN: emp-1 and emp-2 are paid, emp-4 skipped, emp-3 failed
	require.NoError(t, err)
	assert.Equal(t, "2025-03", report.Period.Label())
	assert.Len(t, report.Created, 2)
	assert.Equal(t, []generic.EmployeeID{"emp-4"}, report.Skipped)
	require.Contains(t, report.Failed, generic.EmployeeID("emp-3"))
	assert.Contains(t, report.Failed["emp-3"], "replica lagging")

	payments, err := s.ListPayments(context.Background(), payroll.PaymentFilter{})
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assertDecimal(t, "3000", payments[0].Breakdown.NetAmount, "emp-1 net")
	assertDecimal(t, "3000", payments[1].Breakdown.NetAmount, "emp-2 net")
}

func TestRunMonth_Rerun_SkipsExisting(t *testing.T) {
	s := memory.New()
	seed(t, s, "emp-1", 3000, 30)
	svc := newService(t, s, s)
	ctx := context.Background()

	_, err := svc.RunMonth(ctx, 2025, 3)
	require.NoError(t, err)
	report, err := svc.RunMonth(ctx, 2025, 3)

	require.NoError(t, err)
	assert.Empty(t, report.Created)
	assert.Equal(t, []generic.EmployeeID{"emp-1"}, report.Skipped)
}

func TestRunMonth_InvalidMonth(t *testing.T) {
	s := memory.New()

	_, err := newService(t, s, s).RunMonth(context.Background(), 2025, 13)

	assert.ErrorIs(t, err, generic.ErrInvalidParameter)
}

// =============================================================================
// TRANSITIONS
// =============================================================================

func TestTransitionPayment(t *testing.T) {
	s := memory.New()
	seed(t, s, "emp-1", 3000, 30)
	svc := newService(t, s, s)
	ctx := context.Background()

	p, err := svc.CreateDraft(ctx, "emp-1", 2025, 3, nil)
	require.NoError(t, err)

	_, err = svc.TransitionPayment(ctx, p.ID, payroll.PaymentSubmitted, "")
	require.NoError(t, err)
	_, err = svc.TransitionPayment(ctx, p.ID, payroll.PaymentPaid, "")
	assert.ErrorIs(t, err, generic.ErrInvalidTransition)

	stored, err := s.GetPayment(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, payroll.PaymentSubmitted, stored.Status)

	_, err = svc.TransitionPayment(ctx, "missing", payroll.PaymentSubmitted, "")
	assert.ErrorIs(t, err, generic.ErrPaymentNotFound)
}
