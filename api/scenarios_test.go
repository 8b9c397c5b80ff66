/*
scenarios_test.go - Tests for demo scenarios

PURPOSE:
	Tests that each scenario loads and leaves the store in the state its
	description promises, checked through the public endpoints.
*/
package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/memory"
	"github.com/warp/payroll-engine/store/sqlite"
)

func loadScenario(t *testing.T, router http.Handler, id string) {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: id})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestScenario_ReferenceMonth(t *testing.T) {
	router, _ := newTestRouter(t, memory.New())
	loadScenario(t, router, "reference-month")

	res := decode[payroll.Result](t, do(t, router, http.MethodGet, "/api/employees/emp-ari/payroll?year=2025&month=3", nil))

	assert.Equal(t, "2175", res.Salary.NetAmount.String())
	assert.Len(t, res.Attendance.UnparsedOvertime, 1)
}

func TestScenario_MixedTeam(t *testing.T) {
	router, _ := newTestRouter(t, memory.New())
	loadScenario(t, router, "mixed-team")

	// Ari: 21 weekdays minus a leave week, a sick day and a holiday
	ari := decode[payroll.Result](t, do(t, router, http.MethodGet, "/api/employees/emp-ari/payroll?year=2025&month=3", nil))
	assert.Equal(t, 14, ari.Attendance.FullDays)
	assert.Equal(t, 5, ari.Attendance.LeaveDays)
	assert.Equal(t, 1, ari.Attendance.SickDays)
	assert.Equal(t, 1, ari.Attendance.Holidays)
	// Hourly rate 12.5: 6h weekend at 2x is 150, 2.5h holiday at 2x is 62.5
	assert.Equal(t, "212.5", ari.Salary.TotalOvertimePay.String())

	// Bo: Friday half days, one absence, one unreadable note
	bo := decode[payroll.Result](t, do(t, router, http.MethodGet, "/api/employees/emp-bo/payroll?year=2025&month=3", nil))
	assert.Equal(t, 16, bo.Attendance.FullDays)
	assert.Equal(t, 4, bo.Attendance.HalfDays)
	assert.Equal(t, 1, bo.Attendance.AbsentDays)
	assert.Len(t, bo.Attendance.UnparsedOvertime, 1)

	// A run skips the contractor without base salary
	run := decode[payroll.RunReport](t, do(t, router, http.MethodPost, "/api/payroll/runs", RunRequest{Year: 2025, Month: 3}))
	assert.Len(t, run.Created, 2)
	assert.Equal(t, "emp-cy", string(run.Skipped[0]))
}

func TestScenario_Overrun(t *testing.T) {
	router, _ := newTestRouter(t, memory.New())
	loadScenario(t, router, "overrun")

	res := decode[payroll.Result](t, do(t, router, http.MethodGet, "/api/employees/emp-dee/payroll?year=2025&month=3", nil))

	assert.Equal(t, 31, res.Attendance.FullDays)
	assert.True(t, res.Salary.Overrun)
	assert.True(t, res.Salary.NetAmount.GreaterThan(res.BaseSalary))
}

func TestScenario_PaymentLifecycle(t *testing.T) {
	router, _ := newTestRouter(t, memory.New())
	loadScenario(t, router, "payment-lifecycle")

	payments := decode[[]payroll.Payment](t, do(t, router, http.MethodGet, "/api/payments?employee_id=emp-ari", nil))

	statuses := make(map[payroll.PaymentStatus]int)
	for _, p := range payments {
		statuses[p.Status]++
	}
	assert.Equal(t, map[payroll.PaymentStatus]int{
		payroll.PaymentPaid:     1,
		payroll.PaymentRejected: 1,
		payroll.PaymentDraft:    1,
	}, statuses)
}

func TestScenario_CurrentAndReset(t *testing.T) {
	router, _ := newTestRouter(t, memory.New())

	rec := do(t, router, http.MethodGet, "/api/scenarios/current", nil)
	assert.JSONEq(t, "null", rec.Body.String())

	loadScenario(t, router, "overrun")
	current := decode[ScenarioDTO](t, do(t, router, http.MethodGet, "/api/scenarios/current", nil))
	assert.Equal(t, "overrun", current.ID)

	// Loading another scenario replaces the data
	loadScenario(t, router, "reference-month")
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/api/employees/emp-dee", nil).Code)

	require.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/api/reset", nil).Code)
	rec = do(t, router, http.MethodGet, "/api/scenarios/current", nil)
	assert.JSONEq(t, "null", rec.Body.String())
}

func TestScenario_Unknown(t *testing.T) {
	router, _ := newTestRouter(t, memory.New())

	rec := do(t, router, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "year-end"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, router, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScenario_AllScenariosLoadOnSQLite(t *testing.T) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	router, _ := newTestRouter(t, store)

	listed := decode[[]ScenarioDTO](t, do(t, router, http.MethodGet, "/api/scenarios", nil))
	require.Len(t, listed, len(scenarioLoaders))

	for _, s := range listed {
		t.Run(s.ID, func(t *testing.T) {
			loadScenario(t, router, s.ID)
			employees := decode[[]EmployeeDTO](t, do(t, router, http.MethodGet, "/api/employees", nil))
			assert.NotEmpty(t, employees)
		})
	}
}
