package payrollhandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"folha/internal/domain/payroll"
	"folha/internal/platform/metrics"
	"folha/internal/transport/http/api"
	"folha/internal/transport/http/middleware"
	"folha/internal/transport/http/shared"
)

type Handler struct {
	Service *payroll.Service
	Metrics *metrics.Collector
}

func NewHandler(service *payroll.Service, collector *metrics.Collector) *Handler {
	return &Handler{Service: service, Metrics: collector}
}

type calculationPayload struct {
	EmployeeID string `json:"employeeId"`
	Month      int    `json:"month"`
	Year       int    `json:"year"`
}

type runPayload struct {
	Month         int      `json:"month"`
	Year          int      `json:"year"`
	EmployeeIDs   []string `json:"employeeIds"`
	DepartmentIDs []string `json:"departmentIds"`
}

type closePayload struct {
	ClosedBy string `json:"closedBy"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payroll", func(r chi.Router) {
		r.Post("/calculations", h.handleCalculate)
		r.Post("/runs", h.handleCreateRun)
		r.Get("/runs", h.handleListRuns)
		r.Get("/runs/{runID}", h.handleGetRun)
		r.Post("/runs/{runID}/cancel", h.handleCancelRun)
		r.Post("/competencies/{year}/{month}/close", h.handleCloseCompetency)
		r.Get("/payrolls", h.handleListPayrolls)
		r.Get("/payrolls/{payrollID}", h.handleGetPayroll)
		r.Get("/payrolls/{payrollID}/payslip", h.handleGetPayslip)
	})
}

func (h *Handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	tenantID, ok := tenantFrom(w, r)
	if !ok {
		return
	}
	var payload calculationPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON", requestID)
		return
	}
	if strings.TrimSpace(payload.EmployeeID) == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_body", "employeeId is required", requestID)
		return
	}

	result, err := h.Service.ProcessIndividual(r.Context(), payroll.IndividualRequest{
		TenantID:   tenantID,
		EmployeeID: payload.EmployeeID,
		Month:      payload.Month,
		Year:       payload.Year,
	})
	if err != nil {
		h.writeServiceError(w, err, requestID, "calculation_failed", "failed to calculate payroll")
		return
	}
	api.Created(w, result, requestID)
}

func (h *Handler) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	tenantID, ok := tenantFrom(w, r)
	if !ok {
		return
	}
	var payload runPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON", requestID)
		return
	}

	outcome, err := h.Service.ProcessBatch(r.Context(), payroll.BatchRequest{
		TenantID:      tenantID,
		Month:         payload.Month,
		Year:          payload.Year,
		EmployeeIDs:   payload.EmployeeIDs,
		DepartmentIDs: payload.DepartmentIDs,
	})
	if err != nil {
		h.writeServiceError(w, err, requestID, "run_failed", "failed to process payroll run")
		return
	}
	if h.Metrics != nil {
		h.Metrics.RecordRun(len(outcome.Succeeded), len(outcome.Failed))
	}
	api.Created(w, outcome, requestID)
}

func (h *Handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	tenantID, ok := tenantFrom(w, r)
	if !ok {
		return
	}
	page := shared.ParsePagination(r, 50, 200)
	runs, err := h.Service.Runs(r.Context(), tenantID, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "runs_list_failed", "failed to list payroll runs", requestID)
		return
	}
	api.Success(w, runs, requestID)
}

func (h *Handler) handleGetRun(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	tenantID, ok := tenantFrom(w, r)
	if !ok {
		return
	}
	run, err := h.Service.Run(r.Context(), tenantID, chi.URLParam(r, "runID"))
	if err != nil {
		h.writeServiceError(w, err, requestID, "run_fetch_failed", "failed to fetch payroll run")
		return
	}
	api.Success(w, run, requestID)
}

func (h *Handler) handleCancelRun(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	tenantID, ok := tenantFrom(w, r)
	if !ok {
		return
	}
	run, err := h.Service.CancelRun(r.Context(), tenantID, chi.URLParam(r, "runID"))
	if err != nil {
		h.writeServiceError(w, err, requestID, "run_cancel_failed", "failed to cancel payroll run")
		return
	}
	api.Success(w, run, requestID)
}

func (h *Handler) handleCloseCompetency(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	tenantID, ok := tenantFrom(w, r)
	if !ok {
		return
	}
	month, year, err := shared.ParseCompetency(chi.URLParam(r, "month"), chi.URLParam(r, "year"))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_competency", err.Error(), requestID)
		return
	}
	var payload closePayload
	if r.Body != nil {
		// The body is optional; a bare POST closes anonymously.
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}

	run, err := h.Service.CloseCompetency(r.Context(), tenantID, month, year, payload.ClosedBy)
	if err != nil {
		h.writeServiceError(w, err, requestID, "competency_close_failed", "failed to close competency")
		return
	}
	api.Success(w, run, requestID)
}

func (h *Handler) handleListPayrolls(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	tenantID, ok := tenantFrom(w, r)
	if !ok {
		return
	}
	month, year := 0, 0
	if r.URL.Query().Get("month") != "" || r.URL.Query().Get("year") != "" {
		var err error
		month, year, err = shared.ParseCompetency(r.URL.Query().Get("month"), r.URL.Query().Get("year"))
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_competency", err.Error(), requestID)
			return
		}
	}
	page := shared.ParsePagination(r, 50, 200)
	payrolls, err := h.Service.Payrolls(r.Context(), tenantID, month, year, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payrolls_list_failed", "failed to list payrolls", requestID)
		return
	}
	api.Success(w, payrolls, requestID)
}

func (h *Handler) handleGetPayroll(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	tenantID, ok := tenantFrom(w, r)
	if !ok {
		return
	}
	record, err := h.Service.Payroll(r.Context(), tenantID, chi.URLParam(r, "payrollID"))
	if err != nil {
		h.writeServiceError(w, err, requestID, "payroll_fetch_failed", "failed to fetch payroll")
		return
	}
	api.Success(w, record, requestID)
}

func (h *Handler) handleGetPayslip(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	tenantID, ok := tenantFrom(w, r)
	if !ok {
		return
	}
	view, err := h.Service.Payslip(r.Context(), tenantID, chi.URLParam(r, "payrollID"))
	if err != nil {
		h.writeServiceError(w, err, requestID, "payslip_fetch_failed", "failed to build payslip")
		return
	}
	api.Success(w, view, requestID)
}

func tenantFrom(w http.ResponseWriter, r *http.Request) (string, bool) {
	tenantID := strings.TrimSpace(r.Header.Get("X-Tenant-ID"))
	if tenantID == "" {
		api.Fail(w, http.StatusBadRequest, "missing_tenant", "X-Tenant-ID header is required", middleware.GetRequestID(r.Context()))
		return "", false
	}
	return tenantID, true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error, requestID, code, message string) {
	switch {
	case errors.Is(err, payroll.ErrInvalidCompetency):
		api.Fail(w, http.StatusBadRequest, "invalid_competency", err.Error(), requestID)
	case errors.Is(err, payroll.ErrEmployeeNotFound),
		errors.Is(err, payroll.ErrPayrollNotFound),
		errors.Is(err, payroll.ErrRunNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	case errors.Is(err, payroll.ErrCompetencyClosed),
		errors.Is(err, payroll.ErrPayrollClosed),
		errors.Is(err, payroll.ErrRunNotProcessed),
		errors.Is(err, payroll.ErrRunAlreadyClosed):
		api.Fail(w, http.StatusConflict, "conflict", err.Error(), requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, code, message, requestID)
	}
}
