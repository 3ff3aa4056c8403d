package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timebank/backoffice/internal/logging"
	"github.com/timebank/backoffice/internal/models"
)

type testAPI struct {
	auth      *MockAuth
	ledger    *MockLedger
	customers *MockCustomers
	staff     *MockStaff
	reports   *MockReports
	qr        *MockQR
	handler   http.Handler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	api := &testAPI{
		auth:      new(MockAuth),
		ledger:    new(MockLedger),
		customers: new(MockCustomers),
		staff:     new(MockStaff),
		reports:   new(MockReports),
		qr:        new(MockQR),
	}
	api.handler = NewRouter(RouterDeps{
		Auth:           api.auth,
		Tokens:         api.auth,
		Ledger:         api.ledger,
		Customers:      api.customers,
		Staff:          api.staff,
		Reports:        api.reports,
		Reconciler:     api.ledger,
		Reference:      api.reports,
		QR:             api.qr,
		Logger:         logging.Discard(),
		LoginRateLimit: 100,
		AllowedOrigins: []string{"http://localhost:3000"},
	})
	t.Cleanup(func() {
		api.auth.AssertExpectations(t)
		api.ledger.AssertExpectations(t)
		api.customers.AssertExpectations(t)
		api.staff.AssertExpectations(t)
		api.reports.AssertExpectations(t)
		api.qr.AssertExpectations(t)
	})
	return api
}

// do sends a request as role; RoleNone sends no Authorization header.
func (a *testAPI) do(role models.Role, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if role != models.RoleNone {
		req.Header.Set("Authorization", "Bearer "+string(role)+"-token")
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestRouter_Health(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(models.RoleNone, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestRouter_RoleGates(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name   string
		role   models.Role
		method string
		path   string
		status int
	}{
		{"no token", models.RoleNone, http.MethodGet, "/api/v1/branches", http.StatusUnauthorized},
		{"hr cannot deposit", models.RoleHR, http.MethodPost, "/api/v1/accounts/1000000001/deposit", http.StatusForbidden},
		{"manager cannot deposit", models.RoleManager, http.MethodPost, "/api/v1/accounts/1000000001/deposit", http.StatusForbidden},
		{"accountant cannot hire", models.RoleAccountant, http.MethodPost, "/api/v1/employees", http.StatusForbidden},
		{"manager cannot fire", models.RoleManager, http.MethodPost, "/api/v1/employees/1004/fire", http.StatusForbidden},
		{"accountant cannot list employees", models.RoleAccountant, http.MethodGet, "/api/v1/employees", http.StatusForbidden},
		{"hr cannot read reports", models.RoleHR, http.MethodGet, "/api/v1/reports/overview", http.StatusForbidden},
		{"accountant cannot read reports", models.RoleAccountant, http.MethodGet, "/api/v1/reports/reconciliation", http.StatusForbidden},
		{"hr cannot search accounts", models.RoleHR, http.MethodGet, "/api/v1/accounts/search?q=abebe", http.StatusForbidden},
		{"manager cannot open accounts", models.RoleManager, http.MethodPost, "/api/v1/accounts", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(tt.role, tt.method, tt.path, "{}")
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestRouter_Reference(t *testing.T) {
	api := newTestAPI(t)
	api.reports.On("ListBranches", mockCtx).Return([]models.Branch{{ID: 1, Name: "Main Branch"}}, nil)
	api.reports.On("ListDepartments", mockCtx).Return([]models.Department{{ID: 107, Name: "HR"}}, nil)

	rec := api.do(models.RoleHR, http.MethodGet, "/api/v1/branches", "")
	require.Equal(t, http.StatusOK, rec.Code)
	branches := decodeBody[[]models.Branch](t, rec)
	assert.Equal(t, "Main Branch", branches[0].Name)

	rec = api.do(models.RoleAccountant, http.MethodGet, "/api/v1/departments", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]models.Department](t, rec), 1)
}

func TestRouter_Swagger(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(models.RoleNone, http.MethodGet, "/swagger/index.html", "")
	require.Equal(t, http.StatusOK, rec.Code)

	// The UI boots from an inline script, so the docs policy must allow it.
	assert.Contains(t, rec.Body.String(), "<script>")
	assert.Contains(t, rec.Body.String(), "SwaggerUIBundle(")
	csp := rec.Header().Get("Content-Security-Policy")
	assert.Contains(t, csp, "script-src 'self' 'unsafe-inline'")
	assert.Contains(t, csp, "style-src 'self' 'unsafe-inline'")
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))

	// The API itself keeps the strict policy.
	rec = api.do(models.RoleNone, http.MethodGet, "/health", "")
	assert.Equal(t, "default-src 'self'", rec.Header().Get("Content-Security-Policy"))
}
