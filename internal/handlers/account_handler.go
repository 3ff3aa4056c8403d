package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/timebank/backoffice/internal/models"
	"github.com/timebank/backoffice/internal/services"
)

// Ledger is the account side of the back office.
type Ledger interface {
	OpenAccount(ctx context.Context, customerID int64, accountType string, initialDeposit decimal.Decimal) (int64, error)
	OpenCustomerAccount(ctx context.Context, customer services.NewCustomer, accountType string, initialDeposit decimal.Decimal) (int64, int64, error)
	Deposit(ctx context.Context, accountNo int64, amount decimal.Decimal, description string) (decimal.Decimal, error)
	Withdraw(ctx context.Context, accountNo int64, amount decimal.Decimal, description string) (decimal.Decimal, error)
	GetBalance(ctx context.Context, accountNo int64) (decimal.Decimal, error)
	GetTransactionHistory(ctx context.Context, accountNo int64, limit int) ([]models.Transaction, error)
	SearchAccount(ctx context.Context, term string) (*models.AccountSummary, error)
	SetAccountStatus(ctx context.Context, accountNo int64, status models.AccountStatus) error
	ListLoans(ctx context.Context, accountNo int64) ([]models.Loan, error)
}

// Customers registers and looks up account holders.
type Customers interface {
	CreateCustomer(ctx context.Context, c services.NewCustomer) (int64, error)
	GetCustomer(ctx context.Context, id int64) (*models.Customer, error)
}

type AccountHandler struct {
	ledger    Ledger
	customers Customers
	validator *services.ValidationHelper
	logger    *slog.Logger
}

func NewAccountHandler(ledger Ledger, customers Customers, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		ledger:    ledger,
		customers: customers,
		validator: services.NewValidationHelper(),
		logger:    logger,
	}
}

type OpenAccountRequest struct {
	CustomerID     int64           `json:"customerId" validate:"required,gt=0"`
	AccountType    string          `json:"accountType" validate:"required"`
	InitialDeposit decimal.Decimal `json:"initialDeposit"`
}

type OpenCustomerAccountRequest struct {
	Customer       services.NewCustomer `json:"customer"`
	AccountType    string               `json:"accountType" validate:"required"`
	InitialDeposit decimal.Decimal      `json:"initialDeposit"`
}

type MovementRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" validate:"max=255"`
}

type MovementResponse struct {
	AccountNo int64           `json:"accountNo"`
	Balance   decimal.Decimal `json:"balance"`
}

type StatusRequest struct {
	Status models.AccountStatus `json:"status" validate:"required,oneof=Active Inactive Closed"`
}

// CreateCustomer registers a new customer
// @Summary Create customer
// @Tags Customers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body services.NewCustomer true "Customer details"
// @Success 201 {object} object{customerId=int64}
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /customers [post]
func (h *AccountHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req services.NewCustomer
	if !decodeJSON(w, r, &req) {
		return
	}

	id, err := h.customers.CreateCustomer(r.Context(), req)
	if err != nil {
		sendServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"customerId": id})
}

// GetCustomer returns a customer
// @Summary Get customer
// @Tags Customers
// @Produce json
// @Security BearerAuth
// @Param custId path int true "Customer ID"
// @Success 200 {object} models.Customer
// @Failure 404 {object} ErrorResponse
// @Router /customers/{custId} [get]
func (h *AccountHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "custId")
	if !ok {
		return
	}

	customer, err := h.customers.GetCustomer(r.Context(), id)
	if err != nil {
		sendServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

// OpenAccount opens an account for an existing customer
// @Summary Open account
// @Tags Accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body OpenAccountRequest true "Account details"
// @Success 201 {object} object{accountNo=int64}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /accounts [post]
func (h *AccountHandler) OpenAccount(w http.ResponseWriter, r *http.Request) {
	var req OpenAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.Check(req); err != nil {
		sendServiceError(w, h.logger, err)
		return
	}

	accountNo, err := h.ledger.OpenAccount(r.Context(), req.CustomerID, req.AccountType, req.InitialDeposit)
	if err != nil {
		sendServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"accountNo": accountNo})
}

// OpenCustomerAccount registers a customer and opens their first account
// @Summary Open account for a new customer
// @Tags Accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body OpenCustomerAccountRequest true "Customer and account details"
// @Success 201 {object} object{customerId=int64,accountNo=int64}
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /accounts/with-customer [post]
func (h *AccountHandler) OpenCustomerAccount(w http.ResponseWriter, r *http.Request) {
	var req OpenCustomerAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	customerID, accountNo, err := h.ledger.OpenCustomerAccount(r.Context(), req.Customer, req.AccountType, req.InitialDeposit)
	if err != nil {
		sendServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"customerId": customerID, "accountNo": accountNo})
}

// SearchAccount finds an account by number or customer name
// @Summary Search account
// @Description A numeric term matches the account number, anything else a customer name substring
// @Tags Accounts
// @Produce json
// @Security BearerAuth
// @Param q query string true "Account number or customer name"
// @Success 200 {object} models.AccountSummary
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /accounts/search [get]
func (h *AccountHandler) SearchAccount(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.URL.Query().Get("q"))
	if term == "" {
		SendErrorResponse(w, "Search term required", http.StatusBadRequest, nil)
		return
	}

	summary, err := h.ledger.SearchAccount(r.Context(), term)
	if err != nil {
		sendServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// GetBalance returns the current balance
// @Summary Account balance
// @Tags Accounts
// @Produce json
// @Security BearerAuth
// @Param accountNo path int true "Account number"
// @Success 200 {object} MovementResponse
// @Failure 404 {object} ErrorResponse
// @Router /accounts/{accountNo}/balance [get]
func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	accountNo, ok := idParam(w, r, "accountNo")
	if !ok {
		return
	}

	balance, err := h.ledger.GetBalance(r.Context(), accountNo)
	if err != nil {
		sendServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MovementResponse{AccountNo: accountNo, Balance: balance})
}

// GetTransactions returns the newest transactions of an account
// @Summary Transaction history
// @Tags Accounts
// @Produce json
// @Security BearerAuth
// @Param accountNo path int true "Account number"
// @Param limit query int false "Maximum rows"
// @Success 200 {array} models.Transaction
// @Failure 404 {object} ErrorResponse
// @Router /accounts/{accountNo}/transactions [get]
func (h *AccountHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	accountNo, ok := idParam(w, r, "accountNo")
	if !ok {
		return
	}
	limit, ok := limitParam(w, r)
	if !ok {
		return
	}

	transactions, err := h.ledger.GetTransactionHistory(r.Context(), accountNo, limit)
	if err != nil {
		sendServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, transactions)
}

// Deposit credits an account
// @Summary Deposit
// @Tags Accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param accountNo path int true "Account number"
// @Param request body MovementRequest true "Amount and description"
// @Success 200 {object} MovementResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /accounts/{accountNo}/deposit [post]
func (h *AccountHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.movement(w, r, h.ledger.Deposit)
}

// Withdraw debits an account
// @Summary Withdraw
// @Tags Accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param accountNo path int true "Account number"
// @Param request body MovementRequest true "Amount and description"
// @Success 200 {object} MovementResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /accounts/{accountNo}/withdraw [post]
func (h *AccountHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.movement(w, r, h.ledger.Withdraw)
}

type movementFunc func(ctx context.Context, accountNo int64, amount decimal.Decimal, description string) (decimal.Decimal, error)

func (h *AccountHandler) movement(w http.ResponseWriter, r *http.Request, apply movementFunc) {
	accountNo, ok := idParam(w, r, "accountNo")
	if !ok {
		return
	}
	var req MovementRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.Check(req); err != nil {
		sendServiceError(w, h.logger, err)
		return
	}

	balance, err := apply(r.Context(), accountNo, req.Amount, req.Description)
	if err != nil {
		sendServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MovementResponse{AccountNo: accountNo, Balance: balance})
}

// SetStatus changes an account's status
// @Summary Set account status
// @Tags Accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param accountNo path int true "Account number"
// @Param request body StatusRequest true "New status"
// @Success 200 {object} object{success=bool}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /accounts/{accountNo}/status [put]
func (h *AccountHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	accountNo, ok := idParam(w, r, "accountNo")
	if !ok {
		return
	}
	var req StatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.Check(req); err != nil {
		sendServiceError(w, h.logger, err)
		return
	}

	if err := h.ledger.SetAccountStatus(r.Context(), accountNo, req.Status); err != nil {
		sendServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ListLoans returns the loans attached to an account
// @Summary Account loans
// @Tags Accounts
// @Produce json
// @Security BearerAuth
// @Param accountNo path int true "Account number"
// @Success 200 {array} models.Loan
// @Failure 404 {object} ErrorResponse
// @Router /accounts/{accountNo}/loans [get]
func (h *AccountHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	accountNo, ok := idParam(w, r, "accountNo")
	if !ok {
		return
	}

	loans, err := h.ledger.ListLoans(r.Context(), accountNo)
	if err != nil {
		sendServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, loans)
}
