package handlers

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/timebank/backoffice/internal/models"
	"github.com/timebank/backoffice/internal/services"
)

var mockCtx = mock.Anything

type MockAuth struct {
	mock.Mock
}

func (m *MockAuth) Authenticate(ctx context.Context, username, password string) (*services.Principal, error) {
	args := m.Called(ctx, username, password)
	p, _ := args.Get(0).(*services.Principal)
	return p, args.Error(1)
}

func (m *MockAuth) IssueToken(p services.Principal) (string, time.Time, error) {
	args := m.Called(p)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockAuth) Logout(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

// ParseToken accepts "<role>-token" for every dashboard role.
func (m *MockAuth) ParseToken(_ context.Context, token string) (*services.Claims, error) {
	for _, role := range []models.Role{models.RoleHR, models.RoleAccountant, models.RoleManager} {
		if token == string(role)+"-token" {
			return &services.Claims{EmployeeID: actorFor(role), Role: role, Name: "Admin " + string(role)}, nil
		}
	}
	return nil, services.ErrInvalidCredentials
}

func actorFor(role models.Role) int64 {
	switch role {
	case models.RoleManager:
		return 1001
	case models.RoleHR:
		return 1002
	default:
		return 1003
	}
}

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) OpenAccount(ctx context.Context, customerID int64, accountType string, initialDeposit decimal.Decimal) (int64, error) {
	args := m.Called(ctx, customerID, accountType, initialDeposit)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedger) OpenCustomerAccount(ctx context.Context, customer services.NewCustomer, accountType string, initialDeposit decimal.Decimal) (int64, int64, error) {
	args := m.Called(ctx, customer, accountType, initialDeposit)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *MockLedger) Deposit(ctx context.Context, accountNo int64, amount decimal.Decimal, description string) (decimal.Decimal, error) {
	args := m.Called(ctx, accountNo, amount, description)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockLedger) Withdraw(ctx context.Context, accountNo int64, amount decimal.Decimal, description string) (decimal.Decimal, error) {
	args := m.Called(ctx, accountNo, amount, description)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockLedger) GetBalance(ctx context.Context, accountNo int64) (decimal.Decimal, error) {
	args := m.Called(ctx, accountNo)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockLedger) GetTransactionHistory(ctx context.Context, accountNo int64, limit int) ([]models.Transaction, error) {
	args := m.Called(ctx, accountNo, limit)
	txs, _ := args.Get(0).([]models.Transaction)
	return txs, args.Error(1)
}

func (m *MockLedger) SearchAccount(ctx context.Context, term string) (*models.AccountSummary, error) {
	args := m.Called(ctx, term)
	s, _ := args.Get(0).(*models.AccountSummary)
	return s, args.Error(1)
}

func (m *MockLedger) SetAccountStatus(ctx context.Context, accountNo int64, status models.AccountStatus) error {
	return m.Called(ctx, accountNo, status).Error(0)
}

func (m *MockLedger) ListLoans(ctx context.Context, accountNo int64) ([]models.Loan, error) {
	args := m.Called(ctx, accountNo)
	loans, _ := args.Get(0).([]models.Loan)
	return loans, args.Error(1)
}

func (m *MockLedger) Reconcile(ctx context.Context) ([]models.Reconciliation, error) {
	args := m.Called(ctx)
	r, _ := args.Get(0).([]models.Reconciliation)
	return r, args.Error(1)
}

func (m *MockLedger) VerifyAccount(ctx context.Context, accountNo int64) (*models.Reconciliation, error) {
	args := m.Called(ctx, accountNo)
	r, _ := args.Get(0).(*models.Reconciliation)
	return r, args.Error(1)
}

type MockCustomers struct {
	mock.Mock
}

func (m *MockCustomers) CreateCustomer(ctx context.Context, c services.NewCustomer) (int64, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCustomers) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*models.Customer)
	return c, args.Error(1)
}

type MockStaff struct {
	mock.Mock
}

func (m *MockStaff) HireEmployee(ctx context.Context, req services.HireRequest) (*services.HireResult, error) {
	args := m.Called(ctx, req)
	r, _ := args.Get(0).(*services.HireResult)
	return r, args.Error(1)
}

func (m *MockStaff) FireEmployee(ctx context.Context, employeeID, actorID int64) error {
	return m.Called(ctx, employeeID, actorID).Error(0)
}

func (m *MockStaff) ListEmployees(ctx context.Context, activeOnly bool) ([]models.Employee, error) {
	args := m.Called(ctx, activeOnly)
	e, _ := args.Get(0).([]models.Employee)
	return e, args.Error(1)
}

func (m *MockStaff) ListActions(ctx context.Context, employeeID int64) ([]models.EmployeeAction, error) {
	args := m.Called(ctx, employeeID)
	a, _ := args.Get(0).([]models.EmployeeAction)
	return a, args.Error(1)
}

type MockReports struct {
	mock.Mock
}

func (m *MockReports) Overview(ctx context.Context) (*services.Overview, error) {
	args := m.Called(ctx)
	o, _ := args.Get(0).(*services.Overview)
	return o, args.Error(1)
}

func (m *MockReports) RecentTransactions(ctx context.Context, limit int) ([]models.Transaction, error) {
	args := m.Called(ctx, limit)
	t, _ := args.Get(0).([]models.Transaction)
	return t, args.Error(1)
}

func (m *MockReports) RecentActions(ctx context.Context, limit int) ([]models.EmployeeAction, error) {
	args := m.Called(ctx, limit)
	a, _ := args.Get(0).([]models.EmployeeAction)
	return a, args.Error(1)
}

func (m *MockReports) ListBranches(ctx context.Context) ([]models.Branch, error) {
	args := m.Called(ctx)
	b, _ := args.Get(0).([]models.Branch)
	return b, args.Error(1)
}

func (m *MockReports) ListDepartments(ctx context.Context) ([]models.Department, error) {
	args := m.Called(ctx)
	d, _ := args.Get(0).([]models.Department)
	return d, args.Error(1)
}

type MockQR struct {
	mock.Mock
}

func (m *MockQR) AccountQR(ctx context.Context, accountNo int64) ([]byte, error) {
	args := m.Called(ctx, accountNo)
	png, _ := args.Get(0).([]byte)
	return png, args.Error(1)
}
