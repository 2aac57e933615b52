package http

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"github.com/cmlabs-hris/attendance-ledger-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-ledger-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AttendanceHandler interface {
	Ledger(w http.ResponseWriter, r *http.Request)
	Employees(w http.ResponseWriter, r *http.Request)
	Employee(w http.ResponseWriter, r *http.Request)
	Rankings(w http.ResponseWriter, r *http.Request)
	Charts(w http.ResponseWriter, r *http.Request)
	Export(w http.ResponseWriter, r *http.Request)
	Refresh(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	ledgerService attendance.LedgerService
}

func NewAttendanceHandler(ledgerService attendance.LedgerService) AttendanceHandler {
	return &attendanceHandlerImpl{
		ledgerService: ledgerService,
	}
}

// ledgerRequestFromQuery reads the range and filters shared by every read endpoint.
func ledgerRequestFromQuery(r *http.Request) attendance.LedgerRequest {
	var req attendance.LedgerRequest
	q := r.URL.Query()

	if startDate := q.Get("start_date"); startDate != "" {
		req.StartDate = &startDate
	}
	if endDate := q.Get("end_date"); endDate != "" {
		req.EndDate = &endDate
	}
	if employeeID := q.Get("employee_id"); employeeID != "" {
		req.EmployeeID = &employeeID
	}
	if position := q.Get("position"); position != "" {
		req.Position = &position
	}
	if search := q.Get("search"); search != "" {
		req.Search = &search
	}
	return req
}

// Ledger implements AttendanceHandler.
func (h *attendanceHandlerImpl) Ledger(w http.ResponseWriter, r *http.Request) {
	result, err := h.ledgerService.GetLedger(r.Context(), ledgerRequestFromQuery(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Employees implements AttendanceHandler.
func (h *attendanceHandlerImpl) Employees(w http.ResponseWriter, r *http.Request) {
	result, err := h.ledgerService.ListEmployees(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Employee implements AttendanceHandler.
func (h *attendanceHandlerImpl) Employee(w http.ResponseWriter, r *http.Request) {
	employeeID := strings.TrimSpace(chi.URLParam(r, "employeeID"))
	if employeeID == "" {
		response.BadRequest(w, "Employee ID is required", nil)
		return
	}

	result, err := h.ledgerService.GetEmployee(r.Context(), employeeID, ledgerRequestFromQuery(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Rankings implements AttendanceHandler.
func (h *attendanceHandlerImpl) Rankings(w http.ResponseWriter, r *http.Request) {
	result, err := h.ledgerService.GetRankings(r.Context(), ledgerRequestFromQuery(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Charts implements AttendanceHandler.
func (h *attendanceHandlerImpl) Charts(w http.ResponseWriter, r *http.Request) {
	result, err := h.ledgerService.GetCharts(r.Context(), ledgerRequestFromQuery(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Export implements AttendanceHandler. The workbook is buffered so a failure
// can still be reported as JSON.
func (h *attendanceHandlerImpl) Export(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.ledgerService.Export(r.Context(), ledgerRequestFromQuery(r), &buf); err != nil {
		response.HandleError(w, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="attendance-ledger.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// Refresh implements AttendanceHandler.
func (h *attendanceHandlerImpl) Refresh(w http.ResponseWriter, r *http.Request) {
	result, err := h.ledgerService.Refresh(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Punch data refreshed", result)
}
