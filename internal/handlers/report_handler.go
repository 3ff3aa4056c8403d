package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/timebank/backoffice/internal/models"
	"github.com/timebank/backoffice/internal/services"
)

// Reports backs the manager dashboard.
type Reports interface {
	Overview(ctx context.Context) (*services.Overview, error)
	RecentTransactions(ctx context.Context, limit int) ([]models.Transaction, error)
	RecentActions(ctx context.Context, limit int) ([]models.EmployeeAction, error)
}

// Reconciler compares stored balances with the transaction log.
type Reconciler interface {
	Reconcile(ctx context.Context) ([]models.Reconciliation, error)
	VerifyAccount(ctx context.Context, accountNo int64) (*models.Reconciliation, error)
}

// Reference lists branches and departments.
type Reference interface {
	ListBranches(ctx context.Context) ([]models.Branch, error)
	ListDepartments(ctx context.Context) ([]models.Department, error)
}

type ReportHandler struct {
	reports    Reports
	reconciler Reconciler
	reference  Reference
	logger     *slog.Logger
}

func NewReportHandler(reports Reports, reconciler Reconciler, reference Reference, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{
		reports:    reports,
		reconciler: reconciler,
		reference:  reference,
		logger:     logger,
	}
}

// ReconciliationResult is one account's balance check.
type ReconciliationResult struct {
	models.Reconciliation
	Expected decimal.Decimal `json:"expected"`
	Balanced bool            `json:"balanced"`
}

func reconciliationResult(r models.Reconciliation) ReconciliationResult {
	return ReconciliationResult{Reconciliation: r, Expected: r.Expected(), Balanced: r.Balanced()}
}

// Overview returns headline figures
// @Summary Dashboard overview
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} services.Overview
// @Router /reports/overview [get]
func (h *ReportHandler) Overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.reports.Overview(r.Context())
	if err != nil {
		sendServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

// RecentTransactions returns the newest transactions across all accounts
// @Summary Recent transactions
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum rows"
// @Success 200 {array} models.Transaction
// @Router /reports/transactions [get]
func (h *ReportHandler) RecentTransactions(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(w, r)
	if !ok {
		return
	}

	transactions, err := h.reports.RecentTransactions(r.Context(), limit)
	if err != nil {
		sendServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, transactions)
}

// RecentActions returns the newest hire and fire records
// @Summary Recent employee actions
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum rows"
// @Success 200 {array} models.EmployeeAction
// @Router /reports/actions [get]
func (h *ReportHandler) RecentActions(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(w, r)
	if !ok {
		return
	}

	actions, err := h.reports.RecentActions(r.Context(), limit)
	if err != nil {
		sendServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, actions)
}

// Reconciliation lists accounts whose balance disagrees with their transactions
// @Summary Ledger reconciliation
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {array} ReconciliationResult
// @Router /reports/reconciliation [get]
func (h *ReportHandler) Reconciliation(w http.ResponseWriter, r *http.Request) {
	mismatches, err := h.reconciler.Reconcile(r.Context())
	if err != nil {
		sendServiceError(w, h.logger, err)
		return
	}

	results := make([]ReconciliationResult, 0, len(mismatches))
	for _, m := range mismatches {
		results = append(results, reconciliationResult(m))
	}
	writeJSON(w, http.StatusOK, results)
}

// VerifyAccount checks a single account
// @Summary Verify account balance
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param accountNo path int true "Account number"
// @Success 200 {object} ReconciliationResult
// @Failure 404 {object} ErrorResponse
// @Router /reports/reconciliation/{accountNo} [get]
func (h *ReportHandler) VerifyAccount(w http.ResponseWriter, r *http.Request) {
	accountNo, ok := idParam(w, r, "accountNo")
	if !ok {
		return
	}

	result, err := h.reconciler.VerifyAccount(r.Context(), accountNo)
	if err != nil {
		sendServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, reconciliationResult(*result))
}

// ListBranches returns every branch
// @Summary List branches
// @Tags Reference
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Branch
// @Router /branches [get]
func (h *ReportHandler) ListBranches(w http.ResponseWriter, r *http.Request) {
	branches, err := h.reference.ListBranches(r.Context())
	if err != nil {
		sendServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, branches)
}

// ListDepartments returns every department
// @Summary List departments
// @Tags Reference
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Department
// @Router /departments [get]
func (h *ReportHandler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.reference.ListDepartments(r.Context())
	if err != nil {
		sendServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, departments)
}
