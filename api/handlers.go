/*
handlers.go - HTTP API handlers for the payroll engine

PURPOSE:
  Exposes attendance recording, payroll calculation and the salary payment
  lifecycle via REST API. Handles HTTP request/response, JSON serialization,
  and delegates to the payroll and attendance packages.

ENDPOINTS:
  Employees:
    GET    /api/employees                  List all employees
    POST   /api/employees                  Create or replace employee
    GET    /api/employees/{id}             Get employee details
    DELETE /api/employees/{id}             Delete employee and attendance

  Attendance:
    GET    /api/employees/{id}/attendance  Records in [from, to]
    POST   /api/employees/{id}/attendance  Record one day
    PUT    /api/attendance/{id}            Replace a record
    DELETE /api/attendance/{id}            Delete a record
    POST   /api/attendance/import          Upsert a CSV export

  Payroll:
    GET    /api/employees/{id}/payroll     Calculate a month (read only)
    POST   /api/employees/{id}/payments    Store a draft payment
    GET    /api/payments                   List payments
    GET    /api/payments/{id}              Get payment
    POST   /api/payments/{id}/transition   Move along the lifecycle
    POST   /api/payroll/runs               Draft payments for every employee
    GET    /api/payroll/runs/last          Last scheduled run
    GET    /api/payroll/report             XLSX workbook for a month

  Scenarios:
    GET    /api/scenarios                  List demo scenarios
    GET    /api/scenarios/current          Loaded scenario
    POST   /api/scenarios/load             Reset and load a scenario

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: employees, attendance and payments
  - Payroll: payroll.Service, which owns the Orchestrator
  - Scheduler: optional, only read for the last run report
  - Configs: renders the effective payroll config

ERROR HANDLING:
  Errors are returned as JSON with a status derived from the error chain:
  - 400: generic.IsClientError, malformed bodies
  - 404: generic.IsNotFound
  - 409: generic.IsConflict (duplicates, illegal transitions)
  - 502: attendance store failures during a calculation
  - 500: everything else, logged

SECURITY NOTE:
  No authentication. POST /api/reset wipes the store.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/jobs"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/report"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is everything the API reads and writes.
type Store interface {
	attendance.RecordStore
	payroll.EmployeeStore
	payroll.PaymentStore
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     Store
	Payroll   *payroll.Service
	Scheduler *jobs.PayrollScheduler
	Configs   *factory.ConfigFactory
	Logger    *slog.Logger

	validate *validator.Validate

	mu              sync.Mutex
	currentScenario string
}

// NewHandler wires a payroll service over store with the given config.
func NewHandler(store Store, cfg payroll.Config, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	orchestrator := payroll.NewOrchestrator(store, cfg, logger)

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	})

	return &Handler{
		Store:    store,
		Payroll:  payroll.NewService(orchestrator, store, store, logger),
		Configs:  factory.NewConfigFactory(),
		Logger:   logger,
		validate: v,
	}
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetConfig returns the payroll config in effect.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Configs.ToJSON(h.Payroll.Orchestrator.Config))
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		h.fail(w, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Store.GetEmployee(r.Context(), employeeID(r))
	if err != nil {
		h.fail(w, "Failed to get employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// CreateEmployee creates or replaces an employee.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	salary, err := decimal.NewFromString(req.BaseSalary)
	if err != nil || salary.IsNegative() {
		h.fail(w, "Invalid base_salary", &generic.InvalidParameterError{Name: "base_salary", Value: req.BaseSalary, Reason: "must be a non-negative number"})
		return
	}

	emp := payroll.Employee{
		ID:         generic.EmployeeID(req.ID),
		Name:       req.Name,
		Email:      req.Email,
		BaseSalary: salary,
		CreatedAt:  time.Now().UTC(),
	}
	if req.HireDate != "" {
		// Format already checked by the validator.
		emp.HireDate, _ = generic.ParseDate(req.HireDate)
	}

	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		h.fail(w, "Failed to create employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// DeleteEmployee removes an employee and their attendance. Payments stay.
func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteEmployee(r.Context(), employeeID(r)); err != nil {
		h.fail(w, "Failed to delete employee", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// =============================================================================
// ATTENDANCE HANDLERS
// =============================================================================

// ListAttendance returns an employee's records between from and to
// (YYYY-MM-DD, both inclusive). Both default to the current month.
func (h *Handler) ListAttendance(w http.ResponseWriter, r *http.Request) {
	id := employeeID(r)
	if _, err := h.Store.GetEmployee(r.Context(), id); err != nil {
		h.fail(w, "Failed to get employee", err)
		return
	}

	today := generic.Today()
	from := generic.StartOfMonth(today.Year(), today.Month())
	to := generic.EndOfMonth(today.Year(), today.Month())
	for name, target := range map[string]*generic.TimePoint{"from": &from, "to": &to} {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			continue
		}
		tp, err := generic.ParseDate(raw)
		if err != nil {
			h.fail(w, "Invalid "+name, &generic.InvalidParameterError{Name: name, Value: raw, Reason: err.Error()})
			return
		}
		*target = tp
	}
	if err := (generic.Period{Start: from, End: to}).Validate(); err != nil {
		h.fail(w, "Invalid range", err)
		return
	}

	records, err := h.Store.FetchAttendance(r.Context(), id, from, to)
	if err != nil {
		h.fail(w, "Failed to list attendance", err)
		return
	}
	dtos := make([]AttendanceDTO, len(records))
	for i, rec := range records {
		dtos[i] = toAttendanceDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateAttendance records one day for an employee.
func (h *Handler) CreateAttendance(w http.ResponseWriter, r *http.Request) {
	id := employeeID(r)
	if _, err := h.Store.GetEmployee(r.Context(), id); err != nil {
		h.fail(w, "Failed to get employee", err)
		return
	}

	var req AttendanceRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	rec, err := req.toRecord(attendance.NewRecordID(), id)
	if err == nil {
		err = rec.Validate()
	}
	if err != nil {
		h.fail(w, "Invalid attendance record", err)
		return
	}

	if err := h.Store.CreateAttendance(r.Context(), rec); err != nil {
		h.fail(w, "Failed to record attendance", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAttendanceDTO(rec))
}

// UpdateAttendance replaces a record. The employee cannot change.
func (h *Handler) UpdateAttendance(w http.ResponseWriter, r *http.Request) {
	id := generic.RecordID(chi.URLParam(r, "id"))
	existing, err := h.Store.GetAttendance(r.Context(), id)
	if err != nil {
		h.fail(w, "Failed to get attendance record", err)
		return
	}

	var req AttendanceRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	rec, err := req.toRecord(id, existing.EmployeeID)
	if err == nil {
		err = rec.Validate()
	}
	if err != nil {
		h.fail(w, "Invalid attendance record", err)
		return
	}

	if err := h.Store.UpdateAttendance(r.Context(), rec); err != nil {
		h.fail(w, "Failed to update attendance", err)
		return
	}
	writeJSON(w, http.StatusOK, toAttendanceDTO(rec))
}

// DeleteAttendance removes a record.
func (h *Handler) DeleteAttendance(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteAttendance(r.Context(), generic.RecordID(chi.URLParam(r, "id"))); err != nil {
		h.fail(w, "Failed to delete attendance", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ImportAttendance upserts a CSV export (see attendance.CSVRow). Nothing is
// written when any row is invalid.
func (h *Handler) ImportAttendance(w http.ResponseWriter, r *http.Request) {
	records, err := attendance.ReadCSV(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid attendance CSV", err)
		return
	}
	if err := h.Store.ImportAttendance(r.Context(), records); err != nil {
		h.fail(w, "Failed to import attendance", err)
		return
	}

	h.Logger.Info("attendance imported", "records", len(records))
	writeJSON(w, http.StatusOK, map[string]int{"imported": len(records)})
}

// =============================================================================
// PAYROLL HANDLERS
// =============================================================================

// CalculatePayroll computes a month without storing anything. Without
// base_salary the employee's stored salary is used.
func (h *Handler) CalculatePayroll(w http.ResponseWriter, r *http.Request) {
	id := employeeID(r)
	year, month, err := yearMonth(r)
	if err != nil {
		h.fail(w, "Invalid period", err)
		return
	}

	var salary decimal.Decimal
	if raw := r.URL.Query().Get("base_salary"); raw != "" {
		salary, err = decimal.NewFromString(raw)
		if err != nil {
			h.fail(w, "Invalid base_salary", &generic.InvalidParameterError{Name: "base_salary", Value: raw, Reason: "not a number"})
			return
		}
	} else {
		emp, err := h.Store.GetEmployee(r.Context(), id)
		if err != nil {
			h.fail(w, "Failed to get employee", err)
			return
		}
		salary = emp.BaseSalary
	}

	res, err := h.Payroll.Orchestrator.CalculateForMonth(r.Context(), id, year, month, salary)
	if err != nil {
		h.fail(w, "Failed to calculate payroll", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// CreatePayment stores a draft payment for one employee and month.
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	id := employeeID(r)
	if _, err := h.Store.GetEmployee(r.Context(), id); err != nil {
		h.fail(w, "Failed to get employee", err)
		return
	}

	var req CreatePaymentRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	var salary *decimal.Decimal
	if req.BaseSalary != "" {
		s := decimal.RequireFromString(req.BaseSalary)
		salary = &s
	}

	payment, err := h.Payroll.CreateDraft(r.Context(), id, req.Year, req.Month, salary)
	if err != nil {
		h.fail(w, "Failed to create payment", err)
		return
	}
	writeJSON(w, http.StatusCreated, payment)
}

// ListPayments filters by employee_id, status and year+month.
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := payroll.PaymentFilter{
		EmployeeID: generic.EmployeeID(q.Get("employee_id")),
		Status:     payroll.PaymentStatus(q.Get("status")),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		h.fail(w, "Invalid status", &generic.InvalidParameterError{Name: "status", Value: filter.Status, Reason: "unknown payment status"})
		return
	}
	if q.Get("year") != "" || q.Get("month") != "" {
		period, err := periodParam(r)
		if err != nil {
			h.fail(w, "Invalid period", err)
			return
		}
		filter.Period = &period
	}

	payments, err := h.Store.ListPayments(r.Context(), filter)
	if err != nil {
		h.fail(w, "Failed to list payments", err)
		return
	}
	if payments == nil {
		payments = []payroll.Payment{}
	}
	writeJSON(w, http.StatusOK, payments)
}

// GetPayment returns a single payment.
func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	payment, err := h.Store.GetPayment(r.Context(), generic.PaymentID(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, "Failed to get payment", err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

// TransitionPayment moves a payment to the requested status.
func (h *Handler) TransitionPayment(w http.ResponseWriter, r *http.Request) {
	var req TransitionRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	id := generic.PaymentID(chi.URLParam(r, "id"))
	payment, err := h.Payroll.TransitionPayment(r.Context(), id, payroll.PaymentStatus(req.Status), req.Reason)
	if err != nil {
		h.fail(w, "Failed to change payment status", err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

// RunPayroll drafts payments for every salaried employee. Employees that
// fail are listed in the report; the run itself still succeeds.
func (h *Handler) RunPayroll(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	result, err := h.Payroll.RunMonth(r.Context(), req.Year, req.Month)
	if err != nil {
		h.fail(w, "Failed to run payroll", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// LastRun returns the report of the last scheduled run.
func (h *Handler) LastRun(w http.ResponseWriter, r *http.Request) {
	if h.Scheduler == nil {
		writeError(w, http.StatusNotFound, "Scheduler not running", nil)
		return
	}
	last := h.Scheduler.LastReport()
	if last == nil {
		writeError(w, http.StatusNotFound, "No scheduled run yet", nil)
		return
	}
	writeJSON(w, http.StatusOK, last)
}

// PayrollReport streams the month's live payments as an XLSX workbook.
func (h *Handler) PayrollReport(w http.ResponseWriter, r *http.Request) {
	period, err := periodParam(r)
	if err != nil {
		h.fail(w, "Invalid period", err)
		return
	}

	payments, err := h.Store.ListPayments(r.Context(), payroll.PaymentFilter{Period: &period})
	if err != nil {
		h.fail(w, "Failed to list payments", err)
		return
	}
	live := payments[:0]
	for _, p := range payments {
		if p.Status != payroll.PaymentRejected {
			live = append(live, p)
		}
	}

	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		h.fail(w, "Failed to list employees", err)
		return
	}
	names := make(map[generic.EmployeeID]string, len(employees))
	for _, e := range employees {
		names[e.ID] = e.Name
	}

	var buf bytes.Buffer
	if err := report.WriteWorkbook(&buf, period, live, names); err != nil {
		h.fail(w, "Failed to build report", err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="payroll-%s.xlsx"`, period.Label()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(r.Context()); err != nil {
		h.fail(w, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	h.Logger.Warn("database reset")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func employeeID(r *http.Request) generic.EmployeeID {
	return generic.EmployeeID(chi.URLParam(r, "id"))
}

// yearMonth reads the year and month query parameters. Range checks are
// left to generic.MonthPeriod.
func yearMonth(r *http.Request) (int, int, error) {
	q := r.URL.Query()
	year, err := strconv.Atoi(q.Get("year"))
	if err != nil {
		return 0, 0, &generic.InvalidParameterError{Name: "year", Value: q.Get("year"), Reason: "must be an integer"}
	}
	month, err := strconv.Atoi(q.Get("month"))
	if err != nil {
		return 0, 0, &generic.InvalidParameterError{Name: "month", Value: q.Get("month"), Reason: "must be an integer"}
	}
	return year, month, nil
}

func periodParam(r *http.Request) (generic.Period, error) {
	year, month, err := yearMonth(r)
	if err != nil {
		return generic.Period{}, err
	}
	return generic.MonthPeriod(year, month)
}

// decodeJSON decodes and validates the body into v. On failure it writes a
// 400 and returns false.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", validationDetails(err))
		return false
	}
	return true
}

func validationDetails(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	msgs := make([]string, len(ve))
	for i, fe := range ve {
		msgs[i] = fmt.Sprintf("%s: failed %s", fe.Field(), fe.Tag())
	}
	return errors.New(strings.Join(msgs, "; "))
}

// statusFor maps a domain error to an HTTP status. A timed-out attendance
// fetch is a 504, any other fetch failure a 502.
func statusFor(err error) int {
	switch {
	case generic.IsClientError(err):
		return http.StatusBadRequest
	case generic.IsNotFound(err):
		return http.StatusNotFound
	case generic.IsConflict(err):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, generic.ErrAttendanceFetchFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// fail writes err with the status its chain maps to. Server-side failures
// are logged.
func (h *Handler) fail(w http.ResponseWriter, message string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.Logger.Error(message, "status", status, "error", err)
	}
	writeError(w, status, message, err)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
