package payroll_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// fakeAttendance serves fixed records and counts calls.
type fakeAttendance struct {
	mu      sync.Mutex
	records []attendance.Record
	err     error
	calls   int
	from    generic.TimePoint
	to      generic.TimePoint
}

func (f *fakeAttendance) FetchAttendance(ctx context.Context, _ generic.EmployeeID, from, to generic.TimePoint) ([]attendance.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.from, f.to = from, to
	if f.err != nil {
		return nil, f.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.records, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func marchRecords() []attendance.Record {
	var records []attendance.Record
	d := generic.NewTimePoint(2025, time.March, 1)
	for i := 0; i < 20; i++ {
		records = append(records, attendance.Record{EmployeeID: "emp-1", Date: d.AddDays(i), Status: attendance.StatusFullDay})
	}
	records = append(records,
		attendance.Record{EmployeeID: "emp-1", Date: d.AddDays(20), Status: attendance.StatusHalfDay},
		attendance.Record{EmployeeID: "emp-1", Date: d.AddDays(21), Status: attendance.StatusHalfDay},
		attendance.Record{EmployeeID: "emp-1", Date: d.AddDays(22), Status: attendance.StatusOvertime, Notes: "weekday:4"},
		attendance.Record{EmployeeID: "emp-1", Date: d.AddDays(23), Status: attendance.StatusOvertime, Notes: "lots of overtime"},
	)
	return records
}

func newOrchestrator(store attendance.Store) *payroll.Orchestrator {
	return payroll.NewOrchestrator(store, payroll.DefaultConfig(), quietLogger())
}

// =============================================================================
// CALCULATE FOR MONTH
// =============================================================================

func TestCalculateForMonth_ReferenceScenario(t *testing.T) {
	// GIVEN: March attendance with 20 full days, 2 half days, 4 weekday
	// overtime hours and one overtime note that does not parse
	store := &fakeAttendance{records: marchRecords()}
	o := newOrchestrator(store)

	// WHEN: Calculating March 2025 on a 3000 base
	res, err := o.CalculateForMonth(context.Background(), "emp-1", 2025, 3, dec("3000"))

	// THEN: The store was queried for the whole month
	require.NoError(t, err)
	assert.Equal(t, 1, store.calls)
	assert.Equal(t, "2025-03-01", store.from.String())
	assert.Equal(t, "2025-03-31", store.to.String())

	// AND: The result carries the summary and the breakdown
	assert.Equal(t, generic.EmployeeID("emp-1"), res.EmployeeID)
	assert.Equal(t, "2025-03", res.Period.Label())
	assert.Equal(t, 20, res.Attendance.FullDays)
	assert.Equal(t, 2, res.Attendance.HalfDays)
	require.Len(t, res.Attendance.UnparsedOvertime, 1)
	assertDecimal(t, "2175", res.Salary.NetAmount, "net amount")
	assertDecimal(t, "75", res.Salary.TotalOvertimePay, "total overtime")
}

func TestCalculateForMonth_NoRecords(t *testing.T) {
	o := newOrchestrator(&fakeAttendance{})

	res, err := o.CalculateForMonth(context.Background(), "emp-1", 2024, 2, dec("3000"))

	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", res.Period.End.String())
	assertDecimal(t, "0", res.Salary.NetAmount, "net amount")
}

func TestCalculateForMonth_InvalidInputs_NoFetch(t *testing.T) {
	badConfig := payroll.DefaultConfig()
	badConfig.WorkingDaysInPeriod = 0

	tests := []struct {
		name   string
		config payroll.Config
		emp    generic.EmployeeID
		year   int
		month  int
		base   string
	}{
		{"month zero", payroll.DefaultConfig(), "emp-1", 2025, 0, "3000"},
		{"month thirteen", payroll.DefaultConfig(), "emp-1", 2025, 13, "3000"},
		{"zero salary", payroll.DefaultConfig(), "emp-1", 2025, 3, "0"},
		{"negative salary", payroll.DefaultConfig(), "emp-1", 2025, 3, "-1"},
		{"missing employee", payroll.DefaultConfig(), "", 2025, 3, "3000"},
		{"bad config", badConfig, "emp-1", 2025, 3, "3000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeAttendance{records: marchRecords()}
			o := payroll.NewOrchestrator(store, tt.config, quietLogger())

			_, err := o.CalculateForMonth(context.Background(), tt.emp, tt.year, tt.month, dec(tt.base))

			assert.ErrorIs(t, err, generic.ErrInvalidParameter)
			assert.Equal(t, 0, store.calls, "store must not be queried")
		})
	}
}

func TestCalculateForMonth_FetchFailure(t *testing.T) {
	// GIVEN: A store that fails
	storeErr := errors.New("connection refused")
	o := newOrchestrator(&fakeAttendance{err: storeErr})

	// WHEN: Calculating
	res, err := o.CalculateForMonth(context.Background(), "emp-1", 2025, 3, dec("3000"))

	// THEN: No partial result, and the store's error is not hidden
	assert.Nil(t, res)
	assert.ErrorIs(t, err, generic.ErrAttendanceFetchFailed)
	assert.ErrorIs(t, err, storeErr)
	var fetchErr *generic.AttendanceFetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, generic.EmployeeID("emp-1"), fetchErr.EmployeeID)
	assert.Equal(t, "2025-03", fetchErr.Period.Label())
}

func TestCalculateForMonth_Deadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	_, err := newOrchestrator(&fakeAttendance{}).CalculateForMonth(ctx, "emp-1", 2025, 3, dec("3000"))

	assert.ErrorIs(t, err, generic.ErrAttendanceFetchFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCalculateForMonth_Concurrent(t *testing.T) {
	o := newOrchestrator(&fakeAttendance{records: marchRecords()})

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := o.CalculateForMonth(context.Background(), "emp-1", 2025, 3, dec("3000"))
			if err == nil {
				results[i] = res.Salary.NetAmount.String()
			}
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, "2175", r)
	}
}
