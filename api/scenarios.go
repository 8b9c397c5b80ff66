/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the store with realistic
	attendance for March 2025, so payroll endpoints have something to
	calculate. Each scenario creates employees, attendance and, for some,
	salary payments.

AVAILABLE SCENARIOS:

	reference-month:   One employee, the worked example (net 2175 on 3000)
	mixed-team:        Every status, structured and legacy overtime, a
	                   contractor without base salary
	overrun:           More credited days than the working-day convention
	payment-lifecycle: Drafts for February and March at different statuses

HOW SCENARIOS WORK:
 1. Reset the store (clear all data)
 2. Create employees
 3. Record attendance
 4. Optionally create and move payments through payroll.Service

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "mixed-team"}

NOTE:

	Scenarios reset the store. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: payroll endpoints to try after loading
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
)

// ScenarioDTO describes a loadable scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Period      string `json:"period"`
}

// LoadScenarioRequest selects a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type scenarioLoader func(h *Handler, ctx context.Context) error

var scenarios = []ScenarioDTO{
	{
		ID:          "reference-month",
		Name:        "Reference Month",
		Description: "20 full days, 2 half days, 4h weekday overtime and one unreadable overtime note on a 3000 base",
		Period:      "2025-03",
	},
	{
		ID:          "mixed-team",
		Name:        "Mixed Team",
		Description: "Leave, sickness, absence, holidays, weekend and holiday overtime, and a contractor with no base salary",
		Period:      "2025-03",
	},
	{
		ID:          "overrun",
		Name:        "Overrun",
		Description: "Attendance every day of a 31-day month against a 30-day convention",
		Period:      "2025-03",
	},
	{
		ID:          "payment-lifecycle",
		Name:        "Payment Lifecycle",
		Description: "A paid February payment, a rejected March draft and its replacement",
		Period:      "2025-03",
	},
}

var scenarioLoaders = map[string]scenarioLoader{
	"reference-month":   (*Handler).loadReferenceMonth,
	"mixed-team":        (*Handler).loadMixedTeam,
	"overrun":           (*Handler).loadOverrun,
	"payment-lifecycle": (*Handler).loadPaymentLifecycle,
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the loaded scenario, or null.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the store and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	load, ok := scenarioLoaders[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	ctx := r.Context()
	h.mu.Lock()
	defer h.mu.Unlock()

	h.currentScenario = ""
	if err := h.Store.Reset(ctx); err != nil {
		h.fail(w, "Failed to reset database", err)
		return
	}
	if err := load(h, ctx); err != nil {
		h.fail(w, "Failed to load scenario", fmt.Errorf("scenario %s: %w", req.ScenarioID, err))
		return
	}
	h.currentScenario = req.ScenarioID

	h.Logger.Info("scenario loaded", "scenario", req.ScenarioID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadReferenceMonth(ctx context.Context) error {
	if err := h.saveEmployee(ctx, "emp-ari", "Ari Lindqvist", 3000); err != nil {
		return err
	}

	b := newMonthBuilder("emp-ari", 2025, time.March)
	b.days(1, 20, attendance.StatusFullDay)
	b.days(21, 22, attendance.StatusHalfDay)
	b.note(23, "weekday:4")
	b.note(24, "stayed late for the audit")
	return h.Store.ImportAttendance(ctx, b.records)
}

func (h *Handler) loadMixedTeam(ctx context.Context) error {
	for _, e := range []struct {
		id     generic.EmployeeID
		name   string
		salary int64
	}{
		{"emp-ari", "Ari Lindqvist", 3000},
		{"emp-bo", "Bo Okafor", 4200},
		{"emp-cy", "Cy Duarte", 0},
	} {
		if err := h.saveEmployee(ctx, e.id, e.name, e.salary); err != nil {
			return err
		}
	}

	// Weekdays worked, one leave week, a sick day and the bank holiday
	ari := newMonthBuilder("emp-ari", 2025, time.March)
	ari.weekdays(attendance.StatusFullDay)
	ari.days(10, 14, attendance.StatusLeave)
	ari.set(18, attendance.StatusSick)
	ari.set(17, attendance.StatusHoliday)
	ari.overtime(8, attendance.OvertimeWeekend, "6")
	ari.overtime(9, attendance.OvertimeHoliday, "2.5")

	// Half days on Fridays, one absence, legacy notes for overtime
	bo := newMonthBuilder("emp-bo", 2025, time.March)
	bo.weekdays(attendance.StatusFullDay)
	for _, day := range []int{7, 14, 21, 28} {
		bo.set(day, attendance.StatusHalfDay)
	}
	bo.set(25, attendance.StatusAbsent)
	bo.note(15, "weekend:3")
	bo.note(22, "weekend")

	// No base salary: payroll runs skip this employee
	cy := newMonthBuilder("emp-cy", 2025, time.March)
	cy.days(3, 7, attendance.StatusFullDay)

	records := append(append(ari.records, bo.records...), cy.records...)
	return h.Store.ImportAttendance(ctx, records)
}

func (h *Handler) loadOverrun(ctx context.Context) error {
	if err := h.saveEmployee(ctx, "emp-dee", "Dee Marsh", 3000); err != nil {
		return err
	}
	b := newMonthBuilder("emp-dee", 2025, time.March)
	b.days(1, 31, attendance.StatusFullDay)
	return h.Store.ImportAttendance(ctx, b.records)
}

func (h *Handler) loadPaymentLifecycle(ctx context.Context) error {
	if err := h.loadReferenceMonth(ctx); err != nil {
		return err
	}
	feb := newMonthBuilder("emp-ari", 2025, time.February)
	feb.weekdays(attendance.StatusFullDay)
	if err := h.Store.ImportAttendance(ctx, feb.records); err != nil {
		return err
	}

	paid, err := h.Payroll.CreateDraft(ctx, "emp-ari", 2025, 2, nil)
	if err != nil {
		return err
	}
	for _, to := range []payroll.PaymentStatus{payroll.PaymentSubmitted, payroll.PaymentPending, payroll.PaymentApproved, payroll.PaymentPaid} {
		if _, err := h.Payroll.TransitionPayment(ctx, paid.ID, to, ""); err != nil {
			return err
		}
	}

	outdated := decimal.NewFromInt(2800)
	rejected, err := h.Payroll.CreateDraft(ctx, "emp-ari", 2025, 3, &outdated)
	if err != nil {
		return err
	}
	if _, err := h.Payroll.TransitionPayment(ctx, rejected.ID, payroll.PaymentRejected, "base salary out of date"); err != nil {
		return err
	}

	_, err = h.Payroll.CreateDraft(ctx, "emp-ari", 2025, 3, nil)
	return err
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) saveEmployee(ctx context.Context, id generic.EmployeeID, name string, salary int64) error {
	return h.Store.SaveEmployee(ctx, payroll.Employee{
		ID:         id,
		Name:       name,
		HireDate:   generic.NewTimePoint(2024, time.January, 8),
		BaseSalary: decimal.NewFromInt(salary),
		CreatedAt:  time.Now().UTC(),
	})
}

// monthBuilder collects one employee's records for a month. Later calls for
// the same day replace earlier ones.
type monthBuilder struct {
	employee generic.EmployeeID
	year     int
	month    time.Month
	records  []attendance.Record
	byDay    map[int]int
}

func newMonthBuilder(employee generic.EmployeeID, year int, month time.Month) *monthBuilder {
	return &monthBuilder{employee: employee, year: year, month: month, byDay: make(map[int]int)}
}

func (b *monthBuilder) put(day int, status attendance.Status, notes string, overtime *attendance.OvertimeEntry) {
	rec := attendance.Record{
		ID:         attendance.NewRecordID(),
		EmployeeID: b.employee,
		Date:       generic.NewTimePoint(b.year, b.month, day),
		Status:     status,
		Notes:      notes,
		Overtime:   overtime,
	}
	if i, ok := b.byDay[day]; ok {
		b.records[i] = rec
		return
	}
	b.byDay[day] = len(b.records)
	b.records = append(b.records, rec)
}

func (b *monthBuilder) set(day int, status attendance.Status) { b.put(day, status, "", nil) }

func (b *monthBuilder) days(from, to int, status attendance.Status) {
	for day := from; day <= to; day++ {
		b.set(day, status)
	}
}

func (b *monthBuilder) weekdays(status attendance.Status) {
	last := generic.EndOfMonth(b.year, b.month).Day()
	for day := 1; day <= last; day++ {
		if !generic.NewTimePoint(b.year, b.month, day).IsWeekend() {
			b.set(day, status)
		}
	}
}

func (b *monthBuilder) note(day int, notes string) {
	b.put(day, attendance.StatusOvertime, notes, nil)
}

func (b *monthBuilder) overtime(day int, category attendance.OvertimeCategory, hours string) {
	b.put(day, attendance.StatusOvertime, "", &attendance.OvertimeEntry{Category: category, Hours: decimal.RequireFromString(hours)})
}
