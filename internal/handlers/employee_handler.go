package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/timebank/backoffice/internal/middleware"
	"github.com/timebank/backoffice/internal/models"
	"github.com/timebank/backoffice/internal/services"
)

// Staff is the HR side of the back office.
type Staff interface {
	HireEmployee(ctx context.Context, req services.HireRequest) (*services.HireResult, error)
	FireEmployee(ctx context.Context, employeeID, actorID int64) error
	ListEmployees(ctx context.Context, activeOnly bool) ([]models.Employee, error)
	ListActions(ctx context.Context, employeeID int64) ([]models.EmployeeAction, error)
}

// EmployeeView adds the Active/Fired label to an employee listing row.
type EmployeeView struct {
	models.Employee
	Status string `json:"status"`
}

type EmployeeHandler struct {
	staff  Staff
	logger *slog.Logger
}

func NewEmployeeHandler(staff Staff, logger *slog.Logger) *EmployeeHandler {
	return &EmployeeHandler{staff: staff, logger: logger}
}

// ListEmployees lists employees
// @Summary List employees
// @Tags Employees
// @Produce json
// @Security BearerAuth
// @Param active query bool false "Only employees that still hold a job title"
// @Success 200 {array} EmployeeView
// @Failure 400 {object} ErrorResponse
// @Router /employees [get]
func (h *EmployeeHandler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	activeOnly := false
	if raw := r.URL.Query().Get("active"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			SendErrorResponse(w, "Invalid active flag", http.StatusBadRequest, nil)
			return
		}
		activeOnly = parsed
	}

	employees, err := h.staff.ListEmployees(r.Context(), activeOnly)
	if err != nil {
		sendServiceError(w, h.logger, err)
		return
	}

	views := make([]EmployeeView, 0, len(employees))
	for _, e := range employees {
		views = append(views, EmployeeView{Employee: e, Status: e.Status()})
	}
	writeJSON(w, http.StatusOK, views)
}

// HireEmployee hires a new employee
// @Summary Hire employee
// @Description Creates the employee with generated credentials. The password is only returned here.
// @Tags Employees
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body services.HireRequest true "Employee details"
// @Success 201 {object} services.HireResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /employees [post]
func (h *EmployeeHandler) HireEmployee(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req services.HireRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ActorID = claims.EmployeeID

	result, err := h.staff.HireEmployee(r.Context(), req)
	if err != nil {
		sendServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// FireEmployee terminates an employee
// @Summary Fire employee
// @Tags Employees
// @Produce json
// @Security BearerAuth
// @Param empId path int true "Employee ID"
// @Success 200 {object} object{success=bool}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /employees/{empId}/fire [post]
func (h *EmployeeHandler) FireEmployee(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}
	empID, ok := idParam(w, r, "empId")
	if !ok {
		return
	}

	if err := h.staff.FireEmployee(r.Context(), empID, claims.EmployeeID); err != nil {
		sendServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ListActions returns the hire/fire history of an employee
// @Summary Employee actions
// @Tags Employees
// @Produce json
// @Security BearerAuth
// @Param empId path int true "Employee ID"
// @Success 200 {array} models.EmployeeAction
// @Failure 404 {object} ErrorResponse
// @Router /employees/{empId}/actions [get]
func (h *EmployeeHandler) ListActions(w http.ResponseWriter, r *http.Request) {
	empID, ok := idParam(w, r, "empId")
	if !ok {
		return
	}

	actions, err := h.staff.ListActions(r.Context(), empID)
	if err != nil {
		sendServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, actions)
}
